package follower

import (
	"errors"
	"log"
	"net/http"

	"microblog/errs"
	"microblog/user"
	"microblog/web"
)

type Handler struct {
	Follows *Service
	Render  *web.Renderer
}

// Follow handles GET /profile/{username}/follow/. Creating the edge redirects
// back to the profile; an ignored attempt (self-follow or an edge that is
// already there) lands on the global feed instead.
func (h *Handler) Follow(w http.ResponseWriter, r *http.Request, actor *user.User, username string) {
	created, err := h.Follows.Follow(actor, username)
	if errors.Is(err, errs.ErrNotFound) {
		h.Render.NotFound(w)
		return
	} else if err != nil {
		log.Printf("[Follow] Follow failed: %v", err)
		h.Render.ServerError(w, err)
		return
	}

	if !created {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	log.Printf("[Follow] User %d now follows %s", actor.ID, username)
	http.Redirect(w, r, "/profile/"+username+"/", http.StatusSeeOther)
}

// Unfollow handles GET /profile/{username}/unfollow/. Removing an edge that
// does not exist is a 404.
func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request, actor *user.User, username string) {
	err := h.Follows.Unfollow(actor, username)
	if errors.Is(err, errs.ErrNotFound) {
		h.Render.NotFound(w)
		return
	} else if err != nil {
		log.Printf("[Follow] Unfollow failed: %v", err)
		h.Render.ServerError(w, err)
		return
	}

	log.Printf("[Follow] User %d unfollowed %s", actor.ID, username)
	http.Redirect(w, r, "/profile/"+username+"/", http.StatusSeeOther)
}
