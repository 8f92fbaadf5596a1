package post

import "time"

// Post model aligned with schema. Author fields come from a join with users,
// group fields from a LEFT JOIN with groups; GroupID is nil for a post filed
// under no group, and such a post never shows up in a group feed.
type Post struct {
	ID             int
	AuthorID       int
	AuthorUsername string
	GroupID        *int
	GroupTitle     string
	GroupSlug      string
	Text           string
	Image          string
	PubDate        time.Time
}

// HasGroup is used by the templates.
func (p Post) HasGroup() bool { return p.GroupID != nil }

// HasImage is used by the templates.
func (p Post) HasImage() bool { return p.Image != "" }
