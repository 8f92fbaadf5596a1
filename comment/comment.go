package comment

import (
	"database/sql"
	"strings"
	"time"

	"microblog/errs"
	"microblog/user"
)

// Comment belongs to exactly one post and dies with it (the schema cascades
// the delete). Ordered newest-first by Created.
type Comment struct {
	ID             int
	PostID         int
	AuthorID       int
	AuthorUsername string
	Text           string
	Created        time.Time
}

type Service struct {
	DB *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{DB: db}
}

// Add creates a comment by actor on the given post. Empty text is a
// ValidationError, an unknown post is ErrNotFound; neither writes anything.
func (s *Service) Add(actor *user.User, postID int, text string) (*Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errs.Validation("text", "Comment text is required")
	}

	var exists bool
	if err := s.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM posts WHERE id = ?)", postID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, errs.ErrNotFound
	}

	now := time.Now().UTC()
	res, err := s.DB.Exec("INSERT INTO comments (post_id, author_id, text, created) VALUES (?, ?, ?, ?)",
		postID, actor.ID, text, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &Comment{
		ID:             int(id),
		PostID:         postID,
		AuthorID:       actor.ID,
		AuthorUsername: actor.Username,
		Text:           text,
		Created:        now,
	}, nil
}

// ByPost lists a post's comments newest-first.
func (s *Service) ByPost(postID int) ([]Comment, error) {
	rows, err := s.DB.Query(`
		SELECT c.id, c.post_id, c.author_id, u.username, c.text, c.created
		FROM comments c
		JOIN users u ON c.author_id = u.id
		WHERE c.post_id = ?
		ORDER BY c.created DESC, c.id DESC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorUsername, &c.Text, &c.Created); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// CountByPost returns the number of comments on a post.
func (s *Service) CountByPost(postID int) (int, error) {
	var n int
	err := s.DB.QueryRow("SELECT COUNT(*) FROM comments WHERE post_id = ?", postID).Scan(&n)
	return n, err
}
