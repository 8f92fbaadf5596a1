package user

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microblog/errs"
	"microblog/testutil"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)

	u, err := s.Register("alice", "alice@example.com", "Alice", "Liddell", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.False(t, u.IsAdmin)

	got, err := s.Authenticate("alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)

	_, err := s.Register("alice", "", "", "", "s3cret")
	require.NoError(t, err)

	_, err = s.Authenticate("alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Authenticate("nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)

	_, err := s.Register("alice", "", "", "", "s3cret")
	require.NoError(t, err)

	_, err = s.Register("alice", "", "", "", "other")
	ve, ok := errs.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "username", ve.Field)
}

func TestRegisterRequiresUsernameAndPassword(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)

	_, err := s.Register("", "", "", "", "s3cret")
	_, ok := errs.AsValidation(err)
	assert.True(t, ok)

	_, err = s.Register("alice", "", "", "", "")
	_, ok = errs.AsValidation(err)
	assert.True(t, ok)
}

func TestByUsernameNotFound(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)

	_, err := s.ByUsername("nobody")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestSessionTokenRoundTrip(t *testing.T) {
	sessions := NewSessions([]byte("test-secret"), nil)

	token, err := sessions.IssueToken(7)
	require.NoError(t, err)

	id, err := sessions.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, 7, id)
}

func TestSessionRejectsTamperedToken(t *testing.T) {
	sessions := NewSessions([]byte("test-secret"), nil)

	token, err := sessions.IssueToken(7)
	require.NoError(t, err)

	_, err = sessions.ParseToken(token + "x")
	assert.Error(t, err)

	other := NewSessions([]byte("another-secret"), nil)
	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestCurrentUserFromCookie(t *testing.T) {
	db := testutil.NewDB(t)
	users := NewService(db)
	sessions := NewSessions([]byte("test-secret"), users)
	aliceID := testutil.InsertUser(t, db, "alice")

	token, err := sessions.IssueToken(aliceID)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	u := sessions.CurrentUser(r)
	require.NotNil(t, u)
	assert.Equal(t, "alice", u.Username)

	// no cookie means anonymous
	assert.Nil(t, sessions.CurrentUser(httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestRequireAuthRedirectsAnonymous(t *testing.T) {
	db := testutil.NewDB(t)
	sessions := NewSessions([]byte("test-secret"), NewService(db))

	called := false
	h := sessions.RequireAuth(func(w http.ResponseWriter, r *http.Request, u *User) {
		called = true
	})

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, "/create/", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/auth/login/?next=%2Fcreate%2F", w.Header().Get("Location"))
}
