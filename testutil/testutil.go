// Package testutil provides the in-memory database and row fixtures shared by
// the package tests. Fixtures insert rows directly so the package under test
// is the only code exercised.
package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// NewDB opens a fresh in-memory database with the full schema applied.
// Relative to every package directory the migrations live one level up.
func NewDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	// An in-memory database exists per connection; keep exactly one.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile(filepath.Join("..", "pkg", "db", "migrations", "sqlite", "000001_init.up.sql"))
	require.NoError(t, err)

	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	return db
}

// InsertUser creates a user row and returns its id. The stored password is an
// opaque placeholder; tests that exercise authentication register through the
// user service instead.
func InsertUser(t *testing.T, db *sql.DB, username string) int {
	t.Helper()

	res, err := db.Exec(`
		INSERT INTO users (username, email, password, created_at)
		VALUES (?, ?, 'x', ?)`,
		username, username+"@example.com", time.Now().UTC())
	require.NoError(t, err)

	id, err := res.LastInsertId()
	require.NoError(t, err)
	return int(id)
}

// InsertAdmin creates a user row with the admin flag set.
func InsertAdmin(t *testing.T, db *sql.DB, username string) int {
	t.Helper()

	id := InsertUser(t, db, username)
	_, err := db.Exec("UPDATE users SET is_admin = 1 WHERE id = ?", id)
	require.NoError(t, err)
	return id
}

// InsertGroup creates a group row and returns its id.
func InsertGroup(t *testing.T, db *sql.DB, title, slug string) int {
	t.Helper()

	res, err := db.Exec("INSERT INTO groups (title, slug, description) VALUES (?, ?, '')", title, slug)
	require.NoError(t, err)

	id, err := res.LastInsertId()
	require.NoError(t, err)
	return int(id)
}

// InsertPost creates a post row with an explicit pub_date and returns its id.
func InsertPost(t *testing.T, db *sql.DB, authorID int, groupID *int, text string, pubDate time.Time) int {
	t.Helper()

	var gid interface{}
	if groupID != nil {
		gid = *groupID
	}
	res, err := db.Exec("INSERT INTO posts (author_id, group_id, text, image, pub_date) VALUES (?, ?, ?, '', ?)",
		authorID, gid, text, pubDate)
	require.NoError(t, err)

	id, err := res.LastInsertId()
	require.NoError(t, err)
	return int(id)
}

// InsertComment creates a comment row and returns its id.
func InsertComment(t *testing.T, db *sql.DB, postID, authorID int, text string) int {
	t.Helper()

	res, err := db.Exec("INSERT INTO comments (post_id, author_id, text, created) VALUES (?, ?, ?, ?)",
		postID, authorID, text, time.Now().UTC())
	require.NoError(t, err)

	id, err := res.LastInsertId()
	require.NoError(t, err)
	return int(id)
}

// InsertFollow creates a follow edge.
func InsertFollow(t *testing.T, db *sql.DB, userID, authorID int) {
	t.Helper()

	_, err := db.Exec("INSERT INTO follows (user_id, author_id, created_at) VALUES (?, ?, ?)",
		userID, authorID, time.Now().UTC())
	require.NoError(t, err)
}

// CountRows returns the number of rows in table matching the where clause.
func CountRows(t *testing.T, db *sql.DB, table, where string, args ...interface{}) int {
	t.Helper()

	query := "SELECT COUNT(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	var n int
	require.NoError(t, db.QueryRow(query, args...).Scan(&n))
	return n
}
