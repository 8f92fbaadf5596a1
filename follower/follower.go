package follower

import (
	"database/sql"
	"time"

	"microblog/errs"
	"microblog/user"
)

// Service owns the follow edges: a (user, author) pair meaning user receives
// author's posts in their follow feed. The pair is unique and a user never
// follows themselves; both guards live here, backed by the table's UNIQUE
// constraint.
type Service struct {
	DB *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{DB: db}
}

// Follow creates the edge from actor to the named author. Following yourself
// or an author you already follow is a silent no-op; the returned bool says
// whether an edge was created. An unknown username is ErrNotFound.
func (s *Service) Follow(actor *user.User, authorUsername string) (bool, error) {
	authorID, err := s.authorID(authorUsername)
	if err != nil {
		return false, err
	}

	if actor.ID == authorID {
		return false, nil
	}

	var exists bool
	err = s.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM follows WHERE user_id = ? AND author_id = ?)",
		actor.ID, authorID).Scan(&exists)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	_, err = s.DB.Exec("INSERT INTO follows (user_id, author_id, created_at) VALUES (?, ?, ?)",
		actor.ID, authorID, time.Now().UTC())
	if err != nil {
		return false, err
	}
	return true, nil
}

// Unfollow removes the edge from actor to the named author. A missing edge
// (or unknown username) is ErrNotFound; nothing else changes.
func (s *Service) Unfollow(actor *user.User, authorUsername string) error {
	authorID, err := s.authorID(authorUsername)
	if err != nil {
		return err
	}

	res, err := s.DB.Exec("DELETE FROM follows WHERE user_id = ? AND author_id = ?", actor.ID, authorID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// IsFollowing reports whether userID follows authorID. The profile page shows
// the result to the viewer.
func (s *Service) IsFollowing(userID, authorID int) (bool, error) {
	var exists bool
	err := s.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM follows WHERE user_id = ? AND author_id = ?)",
		userID, authorID).Scan(&exists)
	return exists, err
}

// CountFollowers returns how many users follow the author.
func (s *Service) CountFollowers(authorID int) (int, error) {
	var n int
	err := s.DB.QueryRow("SELECT COUNT(*) FROM follows WHERE author_id = ?", authorID).Scan(&n)
	return n, err
}

func (s *Service) authorID(username string) (int, error) {
	var id int
	err := s.DB.QueryRow("SELECT id FROM users WHERE username = ?", username).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, errs.ErrNotFound
	} else if err != nil {
		return 0, err
	}
	return id, nil
}
