package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups posts under a named, uniquely-slugged heading.
// A post belongs to at most one category.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`

	// PostCount is populated by list queries, not stored.
	PostCount int `json:"post_count"`
}

// String returns the category's display name.
func (c *Category) String() string {
	return c.Name
}
