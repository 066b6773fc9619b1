// Package store provides database access methods for all blog entities.
// Each store struct wraps a *sql.DB and exposes typed query methods.
package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"inkpress/internal/models"
)

// PageSize is the number of posts per public listing page.
const PageSize = 10

// visiblePredicate is the SQL form of Post.IsVisible. Every public-facing
// query restricts to this subset.
const visiblePredicate = `is_published AND published_at IS NOT NULL`

// PostStore handles all post-related database operations.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

const postColumns = `id, title, slug, content, excerpt, category_id,
       is_published, published_at, created_at, updated_at`

// scanPost scans a row into a Post struct.
func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.CategoryID,
		&p.IsPublished, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Filter narrows the admin post list. Nil fields mean "no restriction".
// The To bounds are exclusive.
type Filter struct {
	Published     *bool
	CategoryID    *uuid.UUID
	PublishedFrom *time.Time
	PublishedTo   *time.Time
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	Search        string
}

// List returns posts for the admin surface, newest-created first,
// drafts included, optionally narrowed by filter. The category name is
// joined in for display.
func (s *PostStore) List(f Filter) ([]models.Post, error) {
	query := `
		SELECT p.id, p.title, p.slug, p.content, p.excerpt, p.category_id,
		       p.is_published, p.published_at, p.created_at, p.updated_at,
		       c.name
		FROM posts p
		LEFT JOIN categories c ON c.id = p.category_id`

	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Published != nil {
		conds = append(conds, "p.is_published = "+arg(*f.Published))
	}
	if f.CategoryID != nil {
		conds = append(conds, "p.category_id = "+arg(*f.CategoryID))
	}
	if f.PublishedFrom != nil {
		conds = append(conds, "p.published_at >= "+arg(*f.PublishedFrom))
	}
	if f.PublishedTo != nil {
		conds = append(conds, "p.published_at < "+arg(*f.PublishedTo))
	}
	if f.CreatedFrom != nil {
		conds = append(conds, "p.created_at >= "+arg(*f.CreatedFrom))
	}
	if f.CreatedTo != nil {
		conds = append(conds, "p.created_at < "+arg(*f.CreatedTo))
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		conds = append(conds, "(p.title ILIKE "+arg(pattern)+" OR p.content ILIKE "+arg(pattern)+")")
	}

	if len(conds) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conds, " AND ")
	}
	query += "\n\t\tORDER BY p.created_at DESC, p.id DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var items []models.Post
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.CategoryID,
			&p.IsPublished, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
			&p.CategoryName,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// FindByID retrieves a post by its UUID, visible or not. Returns nil if
// not found. Used by the admin surface only.
func (s *PostStore) FindByID(id uuid.UUID) (*models.Post, error) {
	row := s.db.QueryRow(`SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return p, nil
}

// FindVisibleBySlug retrieves a visible post by its slug. Drafts and
// posts without a publication timestamp return nil exactly like slugs
// that never existed, so the public surface cannot tell them apart.
func (s *PostStore) FindVisibleBySlug(slug string) (*models.Post, error) {
	var p models.Post
	err := s.db.QueryRow(`
		SELECT p.id, p.title, p.slug, p.content, p.excerpt, p.category_id,
		       p.is_published, p.published_at, p.created_at, p.updated_at,
		       c.name
		FROM posts p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.slug = $1 AND p.is_published AND p.published_at IS NOT NULL
	`, slug).Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.CategoryID,
		&p.IsPublished, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
		&p.CategoryName,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return &p, nil
}

// ListVisible returns one page of visible posts ordered by publication
// date descending, ties broken by id so pagination is stable. Pages are
// 1-based.
func (s *PostStore) ListVisible(page int) ([]models.Post, error) {
	if page < 1 {
		page = 1
	}
	rows, err := s.db.Query(`
		SELECT p.id, p.title, p.slug, p.content, p.excerpt, p.category_id,
		       p.is_published, p.published_at, p.created_at, p.updated_at,
		       c.name
		FROM posts p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.is_published AND p.published_at IS NOT NULL
		ORDER BY p.published_at DESC, p.id DESC
		LIMIT $1 OFFSET $2
	`, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, fmt.Errorf("list visible posts: %w", err)
	}
	defer rows.Close()

	var items []models.Post
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.CategoryID,
			&p.IsPublished, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
			&p.CategoryName,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// CountVisible returns how many posts the public listing spans.
func (s *PostStore) CountVisible() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM posts WHERE ` + visiblePredicate).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count visible posts: %w", err)
	}
	return count, nil
}

// Create inserts a new post and returns it with the generated ID and
// timestamps. A slug collision returns ErrDuplicateSlug with no partial
// write.
func (s *PostStore) Create(p *models.Post) (*models.Post, error) {
	row := s.db.QueryRow(`
		INSERT INTO posts (title, slug, content, excerpt, category_id,
		                   is_published, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+postColumns,
		p.Title, p.Slug, p.Content, p.Excerpt, p.CategoryID,
		p.IsPublished, p.PublishedAt,
	)
	result, err := scanPost(row)
	if err != nil {
		if err := translateError(err); err == ErrDuplicateSlug {
			return nil, err
		}
		return nil, fmt.Errorf("create post: %w", err)
	}
	return result, nil
}

// Update modifies an existing post and refreshes updated_at. created_at
// is never touched.
func (s *PostStore) Update(p *models.Post) error {
	_, err := s.db.Exec(`
		UPDATE posts SET
			title = $1, slug = $2, content = $3, excerpt = $4,
			category_id = $5, is_published = $6, published_at = $7,
			updated_at = NOW()
		WHERE id = $8
	`, p.Title, p.Slug, p.Content, p.Excerpt, p.CategoryID,
		p.IsPublished, p.PublishedAt, p.ID,
	)
	if err != nil {
		if err := translateError(err); err == ErrDuplicateSlug {
			return err
		}
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// Delete removes a post by ID.
func (s *PostStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}
