package models

// EntityAdmin describes how the admin surface presents an entity: which
// columns its list shows, which fields can be filtered on, which fields
// search covers, where the slug is derived from, and which fields are
// read-only. It is static configuration data, not behavior.
type EntityAdmin struct {
	ListDisplay []string          // columns on the list page, in order
	ListFilters []string          // query parameters the list accepts
	SearchBy    []string          // fields covered by the search box
	Prepopulate map[string]string // target field -> source field (creation only)
	ReadOnly    []string          // fields the edit form never writes
}

// PostAdmin configures the posts section of the admin.
var PostAdmin = EntityAdmin{
	ListDisplay: []string{"title", "category", "is_published", "published_at", "created_at"},
	ListFilters: []string{"is_published", "category", "published_from", "published_to", "created_from", "created_to"},
	SearchBy:    []string{"title", "content"},
	Prepopulate: map[string]string{"slug": "title"},
	ReadOnly:    []string{"created_at", "updated_at"},
}

// CategoryAdmin configures the categories section of the admin.
var CategoryAdmin = EntityAdmin{
	ListDisplay: []string{"name", "slug", "created_at"},
	SearchBy:    []string{"name", "description"},
	Prepopulate: map[string]string{"slug": "name"},
	ReadOnly:    []string{"created_at"},
}

// Filterable reports whether the list accepts the given filter parameter.
func (e *EntityAdmin) Filterable(field string) bool {
	for _, f := range e.ListFilters {
		if f == field {
			return true
		}
	}
	return false
}

// IsReadOnly reports whether the edit form must ignore writes to field.
func (e *EntityAdmin) IsReadOnly(field string) bool {
	for _, f := range e.ReadOnly {
		if f == field {
			return true
		}
	}
	return false
}
