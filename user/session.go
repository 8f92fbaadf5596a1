package user

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const SessionCookieName = "session_token"

const sessionLifetime = 24 * time.Hour

type sessionClaims struct {
	UserID int `json:"uid"`
	jwt.RegisteredClaims
}

// Sessions issues and verifies the signed session tokens carried in the
// session cookie, and resolves them back to a User for each request.
type Sessions struct {
	Secret []byte
	Users  *Service
}

func NewSessions(secret []byte, users *Service) *Sessions {
	return &Sessions{Secret: secret, Users: users}
}

// IssueToken signs a session token for the given user.
func (s *Sessions) IssueToken(userID int) (string, error) {
	claims := sessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionLifetime)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.Secret)
}

// ParseToken verifies a token and returns the user ID it was issued for.
func (s *Sessions) ParseToken(tokenString string) (int, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return 0, err
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok {
		return 0, errors.New("unexpected claims type")
	}
	return claims.UserID, nil
}

// SetCookie installs the session cookie after login or signup.
func (s *Sessions) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie drops the session cookie on logout.
func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// CurrentUser resolves the acting identity from the request, or nil for an
// anonymous visitor. A bad or expired token counts as anonymous.
func (s *Sessions) CurrentUser(r *http.Request) *User {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	userID, err := s.ParseToken(cookie.Value)
	if err != nil {
		log.Printf("[Session] Invalid token: %v", err)
		return nil
	}

	u, err := s.Users.ByID(userID)
	if err != nil {
		return nil
	}
	return u
}

// RequireAuth wraps a handler that needs an authenticated actor. Anonymous
// requests are redirected to the login page with the original path in the
// next parameter; nothing else runs for them.
func (s *Sessions) RequireAuth(next func(http.ResponseWriter, *http.Request, *User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := s.CurrentUser(r)
		if u == nil {
			RedirectToLogin(w, r)
			return
		}
		next(w, r, u)
	}
}

// WithUser wraps a handler that works for both visitors and authenticated
// users, passing the actor (possibly nil) explicitly.
func (s *Sessions) WithUser(next func(http.ResponseWriter, *http.Request, *User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next(w, r, s.CurrentUser(r))
	}
}

// RequireGuest keeps logged-in users away from the signup and login forms.
func (s *Sessions) RequireGuest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.CurrentUser(r) != nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// RedirectToLogin sends an anonymous writer to the login form, preserving
// where they were headed.
func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/auth/login/?next="+url.QueryEscape(r.URL.Path), http.StatusSeeOther)
}
