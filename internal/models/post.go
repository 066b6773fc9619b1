// Package models defines the persistent entities of the blog and the
// pure rules attached to them. Stores read and write these structs;
// handlers and templates consume them.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a blog article. Content is Markdown source; rendering to HTML
// happens at display time. CategoryID is nil for uncategorized posts and
// is cleared by the database when the referenced category is deleted.
type Post struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Content     string     `json:"content"`
	Excerpt     *string    `json:"excerpt,omitempty"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	IsPublished bool       `json:"is_published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// CategoryName is populated by list queries for display, not stored.
	CategoryName *string `json:"category_name,omitempty"`
}

// IsVisible reports whether the post appears on the public site: it must
// be flagged published AND carry a publication timestamp. Either half on
// its own keeps the post hidden. The result is computed, never persisted.
func (p *Post) IsVisible() bool {
	return p.IsPublished && p.PublishedAt != nil
}

// String returns the post's title.
func (p *Post) String() string {
	return p.Title
}
