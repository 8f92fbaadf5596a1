package post

import (
	"database/sql"
	"strings"
	"time"

	"microblog/errs"
	"microblog/user"
)

// Service owns the posts table and the four feed queries. Every feed is the
// same pub_date-descending ordering with a different filter; pagination
// happens in the handlers with a count + LIMIT/OFFSET pair.
type Service struct {
	DB *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{DB: db}
}

const selectPost = `
	SELECT p.id, p.author_id, u.username, p.group_id,
	       IFNULL(g.title, ''), IFNULL(g.slug, ''), p.text, p.image, p.pub_date
	FROM posts p
	JOIN users u ON p.author_id = u.id
	LEFT JOIN groups g ON p.group_id = g.id`

const orderNewestFirst = " ORDER BY p.pub_date DESC, p.id DESC LIMIT ? OFFSET ?"

// Create publishes a new post by author. Text is required; the group is
// optional and must exist when given. PubDate is set once here and never
// changes afterwards.
func (s *Service) Create(author *user.User, text string, groupID *int, image string) (*Post, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errs.Validation("text", "Post text is required")
	}
	if err := s.checkGroup(groupID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := s.DB.Exec("INSERT INTO posts (author_id, group_id, text, image, pub_date) VALUES (?, ?, ?, ?, ?)",
		author.ID, nullableID(groupID), text, image, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return s.ByID(int(id))
}

// Edit updates a post's text, group and image. Only the author may edit:
// any other actor gets ErrForbidden and the post is left untouched. An empty
// new image keeps the old one.
func (s *Service) Edit(actor *user.User, id int, text string, groupID *int, image string) (*Post, error) {
	p, err := s.ByID(id)
	if err != nil {
		return nil, err
	}
	if p.AuthorID != actor.ID {
		return nil, errs.ErrForbidden
	}

	if strings.TrimSpace(text) == "" {
		return nil, errs.Validation("text", "Post text is required")
	}
	if err := s.checkGroup(groupID); err != nil {
		return nil, err
	}

	if image == "" {
		image = p.Image
	}
	_, err = s.DB.Exec("UPDATE posts SET text = ?, group_id = ?, image = ? WHERE id = ?",
		text, nullableID(groupID), image, id)
	if err != nil {
		return nil, err
	}

	return s.ByID(id)
}

// Delete removes a post. Allowed for the author and for admins; the schema
// cascades the post's comments away with it. The page cache is not touched:
// a cached global feed keeps showing the post until its TTL runs out.
func (s *Service) Delete(actor *user.User, id int) error {
	p, err := s.ByID(id)
	if err != nil {
		return err
	}
	if p.AuthorID != actor.ID && !actor.IsAdmin {
		return errs.ErrForbidden
	}

	_, err = s.DB.Exec("DELETE FROM posts WHERE id = ?", id)
	return err
}

// ByID fetches one post with its author and group resolved.
func (s *Service) ByID(id int) (*Post, error) {
	row := s.DB.QueryRow(selectPost+" WHERE p.id = ?", id)

	var (
		p   Post
		gid sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.AuthorID, &p.AuthorUsername, &gid,
		&p.GroupTitle, &p.GroupSlug, &p.Text, &p.Image, &p.PubDate)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	if gid.Valid {
		v := int(gid.Int64)
		p.GroupID = &v
	}
	return &p, nil
}

// CountAll and All back the global feed.
func (s *Service) CountAll() (int, error) {
	return s.count("SELECT COUNT(*) FROM posts")
}

func (s *Service) All(limit, offset int) ([]Post, error) {
	return s.list(selectPost+orderNewestFirst, limit, offset)
}

// CountByGroup and ByGroup back the group feed.
func (s *Service) CountByGroup(groupID int) (int, error) {
	return s.count("SELECT COUNT(*) FROM posts WHERE group_id = ?", groupID)
}

func (s *Service) ByGroup(groupID, limit, offset int) ([]Post, error) {
	return s.list(selectPost+" WHERE p.group_id = ?"+orderNewestFirst, groupID, limit, offset)
}

// CountByAuthor and ByAuthor back the profile feed.
func (s *Service) CountByAuthor(authorID int) (int, error) {
	return s.count("SELECT COUNT(*) FROM posts WHERE author_id = ?", authorID)
}

func (s *Service) ByAuthor(authorID, limit, offset int) ([]Post, error) {
	return s.list(selectPost+" WHERE p.author_id = ?"+orderNewestFirst, authorID, limit, offset)
}

// CountFollowed and Followed back the follow feed: posts by every author the
// user has a follow edge to.
func (s *Service) CountFollowed(userID int) (int, error) {
	return s.count(`
		SELECT COUNT(*) FROM posts
		WHERE author_id IN (SELECT author_id FROM follows WHERE user_id = ?)`, userID)
}

func (s *Service) Followed(userID, limit, offset int) ([]Post, error) {
	return s.list(selectPost+
		" WHERE p.author_id IN (SELECT author_id FROM follows WHERE user_id = ?)"+
		orderNewestFirst, userID, limit, offset)
}

func (s *Service) count(query string, args ...interface{}) (int, error) {
	var n int
	err := s.DB.QueryRow(query, args...).Scan(&n)
	return n, err
}

func (s *Service) list(query string, args ...interface{}) ([]Post, error) {
	rows, err := s.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var (
			p   Post
			gid sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.AuthorUsername, &gid,
			&p.GroupTitle, &p.GroupSlug, &p.Text, &p.Image, &p.PubDate); err != nil {
			return nil, err
		}
		if gid.Valid {
			v := int(gid.Int64)
			p.GroupID = &v
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *Service) checkGroup(groupID *int) error {
	if groupID == nil {
		return nil
	}
	var exists bool
	if err := s.DB.QueryRow("SELECT EXISTS(SELECT 1 FROM groups WHERE id = ?)", *groupID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return errs.Validation("group", "Unknown group")
	}
	return nil
}

func nullableID(id *int) interface{} {
	if id == nil {
		return nil
	}
	return *id
}
