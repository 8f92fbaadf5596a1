package group

import (
	"database/sql"
	"strings"

	"microblog/errs"
	"microblog/user"
)

// Group is an administratively created category a post may be filed under.
type Group struct {
	ID          int
	Title       string
	Slug        string
	Description string
}

type Service struct {
	DB *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{DB: db}
}

// BySlug resolves a group by its unique slug.
func (s *Service) BySlug(slug string) (*Group, error) {
	var g Group
	err := s.DB.QueryRow("SELECT id, title, slug, description FROM groups WHERE slug = ?", slug).
		Scan(&g.ID, &g.Title, &g.Slug, &g.Description)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return &g, nil
}

// All lists every group, for the post form's group selector.
func (s *Service) All() ([]Group, error) {
	rows, err := s.DB.Query("SELECT id, title, slug, description FROM groups ORDER BY title")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Title, &g.Slug, &g.Description); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// Create adds a group. Groups are administrative: a non-admin actor is
// rejected with ErrForbidden and nothing is written.
func (s *Service) Create(actor *user.User, title, slug, description string) (*Group, error) {
	if !actor.IsAdmin {
		return nil, errs.ErrForbidden
	}

	title = strings.TrimSpace(title)
	slug = strings.TrimSpace(slug)
	if title == "" {
		return nil, errs.Validation("title", "Title is required")
	}
	if slug == "" {
		return nil, errs.Validation("slug", "Slug is required")
	}

	var exists bool
	if err := s.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM groups WHERE slug = ?)", slug).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, errs.ErrDuplicate
	}

	res, err := s.DB.Exec("INSERT INTO groups (title, slug, description) VALUES (?, ?, ?)",
		title, slug, description)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &Group{ID: int(id), Title: title, Slug: slug, Description: description}, nil
}
