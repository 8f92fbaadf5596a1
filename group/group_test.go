package group

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microblog/errs"
	"microblog/testutil"
	"microblog/user"
)

func TestCreateRequiresAdmin(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)
	aliceID := testutil.InsertUser(t, db, "alice")

	_, err := s.Create(&user.User{ID: aliceID}, "Cats", "cats", "")
	assert.ErrorIs(t, err, errs.ErrForbidden)
	assert.Equal(t, 0, testutil.CountRows(t, db, "groups", ""))
}

func TestCreateAndLookup(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)
	adminID := testutil.InsertAdmin(t, db, "root")

	g, err := s.Create(&user.User{ID: adminID, IsAdmin: true}, "Cats", "cats", "feline content")
	require.NoError(t, err)

	got, err := s.BySlug("cats")
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)
	assert.Equal(t, "Cats", got.Title)
	assert.Equal(t, "feline content", got.Description)
}

func TestCreateDuplicateSlug(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)
	adminID := testutil.InsertAdmin(t, db, "root")
	admin := &user.User{ID: adminID, IsAdmin: true}

	_, err := s.Create(admin, "Cats", "cats", "")
	require.NoError(t, err)

	_, err = s.Create(admin, "More cats", "cats", "")
	assert.ErrorIs(t, err, errs.ErrDuplicate)
	assert.Equal(t, 1, testutil.CountRows(t, db, "groups", ""))
}

func TestBySlugNotFound(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)

	_, err := s.BySlug("nope")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestAllSortedByTitle(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewService(db)
	testutil.InsertGroup(t, db, "Zebras", "zebras")
	testutil.InsertGroup(t, db, "Ants", "ants")

	groups, err := s.All()
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Ants", groups[0].Title)
	assert.Equal(t, "Zebras", groups[1].Title)
}
