package post

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microblog/errs"
	"microblog/testutil"
	"microblog/user"
)

func TestCreatePost(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)
	aliceID := testutil.InsertUser(t, db, "alice")
	groupID := testutil.InsertGroup(t, db, "Cats", "cats")

	p, err := s.Create(&user.User{ID: aliceID, Username: "alice"}, "a cat post", &groupID, "")
	require.NoError(t, err)
	assert.Equal(t, "a cat post", p.Text)
	assert.Equal(t, "alice", p.AuthorUsername)
	require.NotNil(t, p.GroupID)
	assert.Equal(t, groupID, *p.GroupID)
	assert.Equal(t, "cats", p.GroupSlug)
	assert.False(t, p.PubDate.IsZero())

	posts, err := s.All(10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "a cat post", posts[0].Text)
}

func TestCreatePostWithoutGroup(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)
	aliceID := testutil.InsertUser(t, db, "alice")
	groupID := testutil.InsertGroup(t, db, "Cats", "cats")

	p, err := s.Create(&user.User{ID: aliceID, Username: "alice"}, "no group here", nil, "")
	require.NoError(t, err)
	assert.Nil(t, p.GroupID)

	// a groupless post never shows up in a group feed
	posts, err := s.ByGroup(groupID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestCreatePostEmptyText(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)
	aliceID := testutil.InsertUser(t, db, "alice")

	_, err := s.Create(&user.User{ID: aliceID}, "   ", nil, "")
	_, ok := errs.AsValidation(err)
	assert.True(t, ok)
	assert.Equal(t, 0, testutil.CountRows(t, db, "posts", ""))
}

func TestCreatePostUnknownGroup(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)
	aliceID := testutil.InsertUser(t, db, "alice")

	gid := 99
	_, err := s.Create(&user.User{ID: aliceID}, "text", &gid, "")
	ve, ok := errs.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "group", ve.Field)
}

func TestEditByAuthor(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)
	aliceID := testutil.InsertUser(t, db, "alice")
	groupID := testutil.InsertGroup(t, db, "Cats", "cats")
	postID := testutil.InsertPost(t, db, aliceID, nil, "original", time.Now().UTC())

	p, err := s.Edit(&user.User{ID: aliceID}, postID, "edited", &groupID, "")
	require.NoError(t, err)
	assert.Equal(t, "edited", p.Text)
	require.NotNil(t, p.GroupID)
	assert.Equal(t, groupID, *p.GroupID)

	got, err := s.ByID(postID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Text)
}

func TestEditByNonAuthorChangesNothing(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)
	aliceID := testutil.InsertUser(t, db, "alice")
	bobID := testutil.InsertUser(t, db, "bob")
	groupID := testutil.InsertGroup(t, db, "Cats", "cats")
	postID := testutil.InsertPost(t, db, aliceID, nil, "original", time.Now().UTC())

	_, err := s.Edit(&user.User{ID: bobID}, postID, "hijacked", &groupID, "")
	assert.ErrorIs(t, err, errs.ErrForbidden)

	got, err := s.ByID(postID)
	require.NoError(t, err)
	assert.Equal(t, "original", got.Text)
	assert.Nil(t, got.GroupID)
}

func TestEditPreservesPubDate(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)
	aliceID := testutil.InsertUser(t, db, "alice")
	pub := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	postID := testutil.InsertPost(t, db, aliceID, nil, "original", pub)

	_, err := s.Edit(&user.User{ID: aliceID}, postID, "edited", nil, "")
	require.NoError(t, err)

	got, err := s.ByID(postID)
	require.NoError(t, err)
	assert.True(t, got.PubDate.Equal(pub))
}

func TestEditUnknownPost(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)
	aliceID := testutil.InsertUser(t, db, "alice")

	_, err := s.Edit(&user.User{ID: aliceID}, 42, "text", nil, "")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestDeleteByAuthorCascadesComments(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)
	aliceID := testutil.InsertUser(t, db, "alice")
	postID := testutil.InsertPost(t, db, aliceID, nil, "doomed", time.Now().UTC())
	testutil.InsertComment(t, db, postID, aliceID, "rip")

	err := s.Delete(&user.User{ID: aliceID}, postID)
	require.NoError(t, err)
	assert.Equal(t, 0, testutil.CountRows(t, db, "posts", ""))
	assert.Equal(t, 0, testutil.CountRows(t, db, "comments", ""))
}

func TestDeletePermissions(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)
	aliceID := testutil.InsertUser(t, db, "alice")
	bobID := testutil.InsertUser(t, db, "bob")
	adminID := testutil.InsertAdmin(t, db, "root")
	postID := testutil.InsertPost(t, db, aliceID, nil, "contentious", time.Now().UTC())

	err := s.Delete(&user.User{ID: bobID}, postID)
	assert.ErrorIs(t, err, errs.ErrForbidden)
	assert.Equal(t, 1, testutil.CountRows(t, db, "posts", ""))

	err = s.Delete(&user.User{ID: adminID, IsAdmin: true}, postID)
	require.NoError(t, err)
	assert.Equal(t, 0, testutil.CountRows(t, db, "posts", ""))
}

func TestAllNewestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)
	aliceID := testutil.InsertUser(t, db, "alice")
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		testutil.InsertPost(t, db, aliceID, nil, fmt.Sprintf("post %d", i), base.Add(time.Duration(i)*time.Minute))
	}

	posts, err := s.All(10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "post 2", posts[0].Text)
	assert.Equal(t, "post 1", posts[1].Text)
	assert.Equal(t, "post 0", posts[2].Text)
}

func TestFollowedFeedFiltersByEdge(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)
	aID := testutil.InsertUser(t, db, "a")
	bID := testutil.InsertUser(t, db, "b")
	cID := testutil.InsertUser(t, db, "c")
	testutil.InsertFollow(t, db, aID, bID)

	now := time.Now().UTC()
	testutil.InsertPost(t, db, bID, nil, "from b", now)
	testutil.InsertPost(t, db, cID, nil, "from c", now)

	total, err := s.CountFollowed(aID)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	posts, err := s.Followed(aID, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "from b", posts[0].Text)

	// c follows nobody
	posts, err = s.Followed(cID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestByAuthorPagination(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)
	aliceID := testutil.InsertUser(t, db, "alice")
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 13; i++ {
		testutil.InsertPost(t, db, aliceID, nil, fmt.Sprintf("post %d", i), base.Add(time.Duration(i)*time.Minute))
	}

	total, err := s.CountByAuthor(aliceID)
	require.NoError(t, err)
	assert.Equal(t, 13, total)

	page2, err := s.ByAuthor(aliceID, 10, 10)
	require.NoError(t, err)
	require.Len(t, page2, 3)
	assert.Equal(t, "post 2", page2[0].Text)
}
