package user

import (
	"errors"
	"log"
	"net/http"

	"microblog/errs"
	"microblog/web"
)

type Handler struct {
	Users    *Service
	Sessions *Sessions
	Render   *web.Renderer
}

// Signup serves the registration form and creates the account on POST. A new
// account is logged in right away.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.Render.HTML(w, r, "signup.html", web.TemplateData{"Title": "Sign up"})
		return
	}
	if r.Method != http.MethodPost {
		h.Render.MethodNotAllowed(w, []string{http.MethodGet, http.MethodPost})
		return
	}

	username := r.PostFormValue("username")
	email := r.PostFormValue("email")
	firstName := r.PostFormValue("first_name")
	lastName := r.PostFormValue("last_name")
	password := r.PostFormValue("password")

	u, err := h.Users.Register(username, email, firstName, lastName, password)
	if ve, ok := errs.AsValidation(err); ok {
		h.Render.HTML(w, r, "signup.html", web.TemplateData{
			"Title":     "Sign up",
			"FormError": ve.Message,
			"FormData": map[string]string{
				"username":   username,
				"email":      email,
				"first_name": firstName,
				"last_name":  lastName,
			},
		})
		return
	} else if err != nil {
		log.Printf("[Auth] Register failed: %v", err)
		h.Render.ServerError(w, err)
		return
	}

	h.startSession(w, r, u, "/")
	log.Printf("[Auth] User %s registered (id=%d)", u.Username, u.ID)
}

// Login serves the login form and authenticates on POST. On success the user
// is sent back to the page that redirected them here, via the next parameter.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.Render.HTML(w, r, "login.html", web.TemplateData{
			"Title": "Log in",
			"Next":  r.URL.Query().Get("next"),
		})
		return
	}
	if r.Method != http.MethodPost {
		h.Render.MethodNotAllowed(w, []string{http.MethodGet, http.MethodPost})
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	next := r.PostFormValue("next")

	u, err := h.Users.Authenticate(username, password)
	if errors.Is(err, ErrInvalidCredentials) {
		h.Render.HTML(w, r, "login.html", web.TemplateData{
			"Title":     "Log in",
			"FormError": "Invalid username or password",
			"FormData":  map[string]string{"username": username},
			"Next":      next,
		})
		return
	} else if err != nil {
		log.Printf("[Auth] Login failed: %v", err)
		h.Render.ServerError(w, err)
		return
	}

	h.startSession(w, r, u, next)
	log.Printf("[Auth] User %s logged in (id=%d)", u.Username, u.ID)
}

// Logout clears the session cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request, _ *User) {
	h.Sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, u *User, next string) {
	token, err := h.Sessions.IssueToken(u.ID)
	if err != nil {
		h.Render.ServerError(w, err)
		return
	}
	h.Sessions.SetCookie(w, token)

	// Only redirect within the site.
	if next == "" || next[0] != '/' {
		next = "/"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}
