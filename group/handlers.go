package group

import (
	"errors"
	"log"
	"net/http"

	"microblog/errs"
	"microblog/user"
	"microblog/web"
)

type Handler struct {
	Groups *Service
	Render *web.Renderer
}

// Create handles POST /group/create/. Only admins may create groups; the
// group pages themselves are served by the feed handlers.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request, actor *user.User) {
	if r.Method != http.MethodPost {
		h.Render.MethodNotAllowed(w, []string{http.MethodPost})
		return
	}

	g, err := h.Groups.Create(actor,
		r.PostFormValue("title"),
		r.PostFormValue("slug"),
		r.PostFormValue("description"))
	if errors.Is(err, errs.ErrForbidden) {
		h.Render.ClientError(w, http.StatusForbidden)
		return
	} else if errors.Is(err, errs.ErrDuplicate) {
		h.Render.ClientError(w, http.StatusConflict)
		return
	} else if _, ok := errs.AsValidation(err); ok {
		h.Render.ClientError(w, http.StatusBadRequest)
		return
	} else if err != nil {
		log.Printf("[Groups] Create failed: %v", err)
		h.Render.ServerError(w, err)
		return
	}

	log.Printf("[Groups] User %d created group %q (id=%d)", actor.ID, g.Slug, g.ID)
	http.Redirect(w, r, "/group/"+g.Slug+"/", http.StatusSeeOther)
}
