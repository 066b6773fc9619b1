package store

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"inkpress/internal/models"
)

func TestPostStoreCreateAndFind(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)

	slug := "test-create-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanPosts(t, db, slug) })

	created, err := s.Create(&models.Post{
		Title:   "Test Post",
		Slug:    slug,
		Content: "Body text",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if created.ID == uuid.Nil {
		t.Error("expected non-nil UUID")
	}
	if created.Title != "Test Post" {
		t.Errorf("title: got %q, want %q", created.Title, "Test Post")
	}
	if created.IsPublished {
		t.Error("new post should default to draft")
	}
	if created.PublishedAt != nil {
		t.Error("expected nil published_at")
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	found, err := s.FindByID(created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found == nil {
		t.Fatal("expected post, got nil")
	}
	if found.Slug != slug {
		t.Errorf("slug: got %q, want %q", found.Slug, slug)
	}
}

func TestPostStoreDuplicateSlug(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)

	slug := "test-dup-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanPosts(t, db, slug) })

	if _, err := s.Create(&models.Post{Title: "First", Slug: slug, Content: "a"}); err != nil {
		t.Fatalf("Create first: %v", err)
	}

	_, err := s.Create(&models.Post{Title: "Second", Slug: slug, Content: "b"})
	if err != ErrDuplicateSlug {
		t.Errorf("expected ErrDuplicateSlug, got %v", err)
	}

	// The failed insert must leave no partial row.
	var count int
	db.QueryRow("SELECT COUNT(*) FROM posts WHERE slug = $1", slug).Scan(&count)
	if count != 1 {
		t.Errorf("expected exactly 1 row for slug, got %d", count)
	}
}

func TestPostStoreVisibility(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)

	draftSlug := "test-vis-draft-" + uuid.NewString()[:8]
	noDateSlug := "test-vis-nodate-" + uuid.NewString()[:8]
	liveSlug := "test-vis-live-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanPosts(t, db, draftSlug, noDateSlug, liveSlug) })

	now := time.Now()

	// Draft with a date: hidden.
	if _, err := s.Create(&models.Post{
		Title: "Draft", Slug: draftSlug, Content: "x", PublishedAt: &now,
	}); err != nil {
		t.Fatalf("Create draft: %v", err)
	}
	// Published flag without a date: hidden.
	if _, err := s.Create(&models.Post{
		Title: "No date", Slug: noDateSlug, Content: "x", IsPublished: true,
	}); err != nil {
		t.Fatalf("Create no-date: %v", err)
	}
	// Published with a date: visible.
	if _, err := s.Create(&models.Post{
		Title: "Live", Slug: liveSlug, Content: "x", IsPublished: true, PublishedAt: &now,
	}); err != nil {
		t.Fatalf("Create live: %v", err)
	}

	for _, slug := range []string{draftSlug, noDateSlug} {
		found, err := s.FindVisibleBySlug(slug)
		if err != nil {
			t.Fatalf("FindVisibleBySlug(%s): %v", slug, err)
		}
		if found != nil {
			t.Errorf("hidden post %s should not be findable", slug)
		}
	}

	found, err := s.FindVisibleBySlug(liveSlug)
	if err != nil {
		t.Fatalf("FindVisibleBySlug(live): %v", err)
	}
	if found == nil {
		t.Fatal("visible post should be findable")
	}
	if !found.IsVisible() {
		t.Error("returned post should satisfy the visibility predicate")
	}
}

func TestPostStoreFindVisibleBySlugMissing(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)

	found, err := s.FindVisibleBySlug("never-existed-" + uuid.NewString())
	if err != nil {
		t.Fatalf("FindVisibleBySlug: %v", err)
	}
	if found != nil {
		t.Error("expected nil for a slug that never existed")
	}
}

func TestPostStoreListVisibleOrdering(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)

	base := time.Now().Add(-time.Hour)
	slugs := make([]string, 3)
	for i := range slugs {
		slugs[i] = "test-order-" + uuid.NewString()[:8]
		at := base.Add(time.Duration(i) * time.Minute)
		if _, err := s.Create(&models.Post{
			Title: "Ordered", Slug: slugs[i], Content: "x",
			IsPublished: true, PublishedAt: &at,
		}); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}
	t.Cleanup(func() { cleanPosts(t, db, slugs...) })

	items, err := s.ListVisible(1)
	if err != nil {
		t.Fatalf("ListVisible: %v", err)
	}

	// Posts must arrive newest first.
	var last *time.Time
	for _, p := range items {
		if p.PublishedAt == nil {
			t.Fatal("visible listing returned a post without published_at")
		}
		if last != nil && p.PublishedAt.After(*last) {
			t.Errorf("listing out of order: %v after %v", p.PublishedAt, last)
		}
		last = p.PublishedAt
	}
}

func TestPostStoreListVisiblePagination(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)

	// Publish 12 posts an hour in the future so they sort ahead of any
	// posts already in the database, with distinct timestamps so the
	// ordering is fully determined.
	const total = 12
	base := time.Now().Add(time.Hour)
	slugs := make([]string, total)
	for i := range slugs {
		slugs[i] = "test-page-" + uuid.NewString()[:8]
		at := base.Add(time.Duration(i) * time.Minute)
		if _, err := s.Create(&models.Post{
			Title: "Paged", Slug: slugs[i], Content: "x",
			IsPublished: true, PublishedAt: &at,
		}); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}
	t.Cleanup(func() { cleanPosts(t, db, slugs...) })

	page1, err := s.ListVisible(1)
	if err != nil {
		t.Fatalf("ListVisible(1): %v", err)
	}
	page2, err := s.ListVisible(2)
	if err != nil {
		t.Fatalf("ListVisible(2): %v", err)
	}

	if len(page1) != PageSize {
		t.Fatalf("page 1 size: got %d, want %d", len(page1), PageSize)
	}

	// Page 1 holds exactly the 10 newest of our posts, newest first:
	// indexes 11 down to 2. Page 2 opens with the remaining two.
	for i := 0; i < PageSize; i++ {
		want := slugs[total-1-i]
		if page1[i].Slug != want {
			t.Errorf("page 1 item %d: got %q, want %q", i, page1[i].Slug, want)
		}
	}
	if len(page2) < 2 {
		t.Fatalf("page 2 size: got %d, want at least 2", len(page2))
	}
	if page2[0].Slug != slugs[1] || page2[1].Slug != slugs[0] {
		t.Errorf("page 2 boundary: got %q, %q, want %q, %q",
			page2[0].Slug, page2[1].Slug, slugs[1], slugs[0])
	}

	// No item appears on both pages.
	seen := make(map[string]bool, len(page1))
	for _, p := range page1 {
		seen[p.Slug] = true
	}
	for _, p := range page2 {
		if seen[p.Slug] {
			t.Errorf("post %q appears on both pages", p.Slug)
		}
	}
}

func TestPostStoreListVisibleExcludesDrafts(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)

	slug := "test-exclude-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanPosts(t, db, slug) })

	if _, err := s.Create(&models.Post{Title: "Hidden", Slug: slug, Content: "x"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	items, err := s.ListVisible(1)
	if err != nil {
		t.Fatalf("ListVisible: %v", err)
	}
	for _, p := range items {
		if p.Slug == slug {
			t.Error("draft must not appear in the public listing")
		}
	}
}

func TestPostStoreCountVisible(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)

	before, err := s.CountVisible()
	if err != nil {
		t.Fatalf("CountVisible: %v", err)
	}

	slug := "test-count-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanPosts(t, db, slug) })

	now := time.Now()
	if _, err := s.Create(&models.Post{
		Title: "Counted", Slug: slug, Content: "x", IsPublished: true, PublishedAt: &now,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	after, err := s.CountVisible()
	if err != nil {
		t.Fatalf("CountVisible: %v", err)
	}
	if after != before+1 {
		t.Errorf("count: got %d, want %d", after, before+1)
	}
}

func TestPostStoreListFilters(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)

	pubSlug := "test-filter-pub-" + uuid.NewString()[:8]
	draftSlug := "test-filter-draft-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanPosts(t, db, pubSlug, draftSlug) })

	now := time.Now()
	if _, err := s.Create(&models.Post{
		Title: "Filter target pub", Slug: pubSlug, Content: "needle-" + pubSlug,
		IsPublished: true, PublishedAt: &now,
	}); err != nil {
		t.Fatalf("Create pub: %v", err)
	}
	if _, err := s.Create(&models.Post{
		Title: "Filter target draft", Slug: draftSlug, Content: "hay",
	}); err != nil {
		t.Fatalf("Create draft: %v", err)
	}

	published := true
	items, err := s.List(Filter{Published: &published})
	if err != nil {
		t.Fatalf("List published: %v", err)
	}
	for _, p := range items {
		if !p.IsPublished {
			t.Error("published filter returned a draft")
		}
	}

	items, err = s.List(Filter{Search: "needle-" + pubSlug})
	if err != nil {
		t.Fatalf("List search: %v", err)
	}
	if len(items) != 1 || items[0].Slug != pubSlug {
		t.Errorf("search should find exactly the target post, got %d items", len(items))
	}
}

func TestPostStoreListDateRangeFilter(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)

	slug := "test-range-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanPosts(t, db, slug) })

	at := time.Date(2020, 6, 15, 12, 0, 0, 0, time.UTC)
	if _, err := s.Create(&models.Post{
		Title: "Ranged", Slug: slug, Content: "x", IsPublished: true, PublishedAt: &at,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	from := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC)
	items, err := s.List(Filter{PublishedFrom: &from, PublishedTo: &to})
	if err != nil {
		t.Fatalf("List range: %v", err)
	}
	var found bool
	for _, p := range items {
		if p.Slug == slug {
			found = true
		}
	}
	if !found {
		t.Error("post inside the range should be returned")
	}

	// Narrow the range to exclude it.
	to = time.Date(2020, 6, 10, 0, 0, 0, 0, time.UTC)
	items, err = s.List(Filter{PublishedFrom: &from, PublishedTo: &to})
	if err != nil {
		t.Fatalf("List narrow range: %v", err)
	}
	for _, p := range items {
		if p.Slug == slug {
			t.Error("post outside the range should be excluded")
		}
	}
}

func TestPostStoreListCreatedRangeFilter(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)

	slug := "test-created-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanPosts(t, db, slug) })

	// created_at is stamped by the database at insert time.
	if _, err := s.Create(&models.Post{Title: "Fresh", Slug: slug, Content: "x"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)
	items, err := s.List(Filter{CreatedFrom: &from, CreatedTo: &to})
	if err != nil {
		t.Fatalf("List created range: %v", err)
	}
	var found bool
	for _, p := range items {
		if p.Slug == slug {
			found = true
		}
	}
	if !found {
		t.Error("freshly created post should fall inside the range")
	}

	// A range entirely in the past excludes it.
	pastTo := time.Now().Add(-time.Hour)
	pastFrom := pastTo.Add(-time.Hour)
	items, err = s.List(Filter{CreatedFrom: &pastFrom, CreatedTo: &pastTo})
	if err != nil {
		t.Fatalf("List past range: %v", err)
	}
	for _, p := range items {
		if p.Slug == slug {
			t.Error("post created now should be excluded from a past range")
		}
	}
}

func TestPostStoreUpdate(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)

	slug := "test-update-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanPosts(t, db, slug) })

	created, err := s.Create(&models.Post{Title: "Before", Slug: slug, Content: "x"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	created.Title = "After"
	now := time.Now()
	created.IsPublished = true
	created.PublishedAt = &now
	if err := s.Update(created); err != nil {
		t.Fatalf("Update: %v", err)
	}

	found, err := s.FindByID(created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found.Title != "After" {
		t.Errorf("title: got %q, want After", found.Title)
	}
	if !found.IsVisible() {
		t.Error("post should be visible after publishing")
	}
	if !found.CreatedAt.Equal(created.CreatedAt) {
		t.Error("created_at must not change on update")
	}
	if found.UpdatedAt.Before(created.UpdatedAt) {
		t.Error("updated_at should advance on update")
	}
}

func TestPostStoreDelete(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)

	slug := "test-delete-" + uuid.NewString()[:8]
	created, err := s.Create(&models.Post{Title: "Doomed", Slug: slug, Content: "x"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.Delete(created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	found, err := s.FindByID(created.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found != nil {
		t.Error("deleted post should not be found")
	}
}
