package follower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microblog/errs"
	"microblog/testutil"
	"microblog/user"
)

func TestFollowCreatesEdge(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)
	aliceID := testutil.InsertUser(t, db, "alice")
	testutil.InsertUser(t, db, "bob")

	created, err := s.Follow(&user.User{ID: aliceID, Username: "alice"}, "bob")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, testutil.CountRows(t, db, "follows", ""))
}

func TestFollowIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)
	aliceID := testutil.InsertUser(t, db, "alice")
	testutil.InsertUser(t, db, "bob")
	alice := &user.User{ID: aliceID, Username: "alice"}

	created, err := s.Follow(alice, "bob")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.Follow(alice, "bob")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, testutil.CountRows(t, db, "follows", ""))
}

func TestFollowSelfIsIgnored(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)
	aliceID := testutil.InsertUser(t, db, "alice")

	created, err := s.Follow(&user.User{ID: aliceID, Username: "alice"}, "alice")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 0, testutil.CountRows(t, db, "follows", ""))
}

func TestFollowUnknownAuthor(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)
	aliceID := testutil.InsertUser(t, db, "alice")

	_, err := s.Follow(&user.User{ID: aliceID, Username: "alice"}, "nobody")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUnfollowRemovesEdge(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)
	aliceID := testutil.InsertUser(t, db, "alice")
	bobID := testutil.InsertUser(t, db, "bob")
	testutil.InsertFollow(t, db, aliceID, bobID)

	err := s.Unfollow(&user.User{ID: aliceID, Username: "alice"}, "bob")
	require.NoError(t, err)
	assert.Equal(t, 0, testutil.CountRows(t, db, "follows", ""))
}

func TestUnfollowMissingEdge(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)
	aliceID := testutil.InsertUser(t, db, "alice")
	bobID := testutil.InsertUser(t, db, "bob")
	carolID := testutil.InsertUser(t, db, "carol")
	testutil.InsertFollow(t, db, bobID, carolID)

	err := s.Unfollow(&user.User{ID: aliceID, Username: "alice"}, "bob")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	// the unrelated edge is untouched
	assert.Equal(t, 1, testutil.CountRows(t, db, "follows", ""))
}

func TestIsFollowing(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)
	aliceID := testutil.InsertUser(t, db, "alice")
	bobID := testutil.InsertUser(t, db, "bob")

	following, err := s.IsFollowing(aliceID, bobID)
	require.NoError(t, err)
	assert.False(t, following)

	testutil.InsertFollow(t, db, aliceID, bobID)

	following, err = s.IsFollowing(aliceID, bobID)
	require.NoError(t, err)
	assert.True(t, following)
}
