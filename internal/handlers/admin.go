package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"inkpress/internal/cache"
	"inkpress/internal/models"
	"inkpress/internal/render"
	"inkpress/internal/slug"
	"inkpress/internal/store"
)

// Admin groups the content-management handlers: dashboard, post CRUD,
// and category CRUD. Every mutation invalidates the affected public
// pages so the cache never serves stale content.
type Admin struct {
	posts      *store.PostStore
	categories *store.CategoryStore
	renderer   *render.Renderer
	pageCache  *cache.PageCache
}

// NewAdmin creates a new Admin handler group.
func NewAdmin(posts *store.PostStore, categories *store.CategoryStore, renderer *render.Renderer, pageCache *cache.PageCache) *Admin {
	return &Admin{
		posts:      posts,
		categories: categories,
		renderer:   renderer,
		pageCache:  pageCache,
	}
}

// Dashboard shows content counts and shortcuts.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	posts, err := a.posts.List(store.Filter{})
	if err != nil {
		slog.Error("dashboard post list failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	visible, err := a.posts.CountVisible()
	if err != nil {
		slog.Error("dashboard visible count failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	categories, err := a.categories.List()
	if err != nil {
		slog.Error("dashboard category list failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "dashboard", &render.PageData{
		Title:   "Dashboard",
		Section: "dashboard",
		Data: map[string]any{
			"PostCount":     len(posts),
			"VisibleCount":  visible,
			"CategoryCount": len(categories),
		},
	})
}

// PostsList shows all posts, drafts included, narrowed by the filters
// declared in models.PostAdmin. Unknown query parameters are ignored.
func (a *Admin) PostsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f store.Filter

	if models.PostAdmin.Filterable("is_published") {
		switch q.Get("is_published") {
		case "true":
			v := true
			f.Published = &v
		case "false":
			v := false
			f.Published = &v
		}
	}
	if models.PostAdmin.Filterable("category") {
		if id, err := uuid.Parse(q.Get("category")); err == nil {
			f.CategoryID = &id
		}
	}
	if models.PostAdmin.Filterable("published_from") {
		if t, err := time.ParseInLocation("2006-01-02", q.Get("published_from"), time.Local); err == nil {
			f.PublishedFrom = &t
		}
	}
	if models.PostAdmin.Filterable("published_to") {
		if t, err := time.ParseInLocation("2006-01-02", q.Get("published_to"), time.Local); err == nil {
			// The store treats the bound as exclusive; shift by a day so the
			// selected date itself is included.
			end := t.AddDate(0, 0, 1)
			f.PublishedTo = &end
		}
	}
	if models.PostAdmin.Filterable("created_from") {
		if t, err := time.ParseInLocation("2006-01-02", q.Get("created_from"), time.Local); err == nil {
			f.CreatedFrom = &t
		}
	}
	if models.PostAdmin.Filterable("created_to") {
		if t, err := time.ParseInLocation("2006-01-02", q.Get("created_to"), time.Local); err == nil {
			end := t.AddDate(0, 0, 1)
			f.CreatedTo = &end
		}
	}
	f.Search = strings.TrimSpace(q.Get("q"))

	items, err := a.posts.List(f)
	if err != nil {
		slog.Error("admin post list failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	categories, err := a.categories.List()
	if err != nil {
		slog.Error("admin category list failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.renderer.Page(w, r, "posts_list", &render.PageData{
		Title:   "Posts",
		Section: "posts",
		Data: map[string]any{
			"Items":           items,
			"Categories":      categories,
			"FilterPublished":   q.Get("is_published"),
			"FilterCategory":    q.Get("category"),
			"FilterFrom":        q.Get("published_from"),
			"FilterTo":          q.Get("published_to"),
			"FilterCreatedFrom": q.Get("created_from"),
			"FilterCreatedTo":   q.Get("created_to"),
			"FilterSearch":      f.Search,
		},
	})
}

// postForm renders the create/edit form for a post.
func (a *Admin) postForm(w http.ResponseWriter, r *http.Request, item *models.Post, action string, isNew bool, errMsg string) {
	categories, err := a.categories.List()
	if err != nil {
		slog.Error("category list for post form failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	title := "Edit Post"
	if isNew {
		title = "New Post"
	}
	data := map[string]any{
		"Item":       item,
		"Action":     action,
		"IsNew":      isNew,
		"Categories": categories,
	}
	if errMsg != "" {
		data["Error"] = errMsg
	}
	a.renderer.Page(w, r, "post_form", &render.PageData{
		Title:   title,
		Section: "posts",
		Data:    data,
	})
}

// PostNew renders an empty post form.
func (a *Admin) PostNew(w http.ResponseWriter, r *http.Request) {
	a.postForm(w, r, nil, "/admin/posts/new", true, "")
}

// postFromForm builds a Post from submitted form values. Unchecked
// checkboxes arrive as absent fields; optional fields become nil.
func postFromForm(r *http.Request) (*models.Post, string) {
	title := strings.TrimSpace(r.PostFormValue("title"))
	slugField := strings.TrimSpace(r.PostFormValue("slug"))
	content := r.PostFormValue("content")
	excerpt := strings.TrimSpace(r.PostFormValue("excerpt"))

	if msg := validatePost(title, slugField, content); msg != "" {
		return nil, msg
	}
	if msg := validateExcerpt(excerpt); msg != "" {
		return nil, msg
	}

	p := &models.Post{
		Title:       title,
		Slug:        slugField,
		Content:     content,
		IsPublished: r.PostFormValue("is_published") == "true",
	}
	if excerpt != "" {
		p.Excerpt = &excerpt
	}
	if raw := r.PostFormValue("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, "Invalid category."
		}
		p.CategoryID = &id
	}
	if raw := r.PostFormValue("published_at"); raw != "" {
		t, err := time.ParseInLocation("2006-01-02T15:04", raw, time.Local)
		if err != nil {
			return nil, "Invalid publication date."
		}
		p.PublishedAt = &t
	}
	return p, ""
}

// PostCreate handles the new-post form submission. A blank slug is
// derived from the title; an explicit slug is kept as entered. A slug
// collision re-renders the form with the submitted values intact.
func (a *Admin) PostCreate(w http.ResponseWriter, r *http.Request) {
	p, msg := postFromForm(r)
	if msg != "" {
		a.postForm(w, r, formEcho(r), "/admin/posts/new", true, msg)
		return
	}
	if p.Slug == "" {
		p.Slug = slug.Generate(p.Title)
	}

	created, err := a.posts.Create(p)
	if err == store.ErrDuplicateSlug {
		a.postForm(w, r, p, "/admin/posts/new", true, "A post with this slug already exists.")
		return
	}
	if err != nil {
		slog.Error("post create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.pageCache.Invalidate(r.Context(), cache.PostKey(created.Slug))
	a.pageCache.InvalidateListings(r.Context())
	slog.Info("post created", "id", created.ID, "slug", created.Slug)
	http.Redirect(w, r, "/admin/posts", http.StatusSeeOther)
}

// PostEdit renders the edit form for an existing post.
func (a *Admin) PostEdit(w http.ResponseWriter, r *http.Request) {
	post, ok := a.findPost(w, r)
	if !ok {
		return
	}
	a.postForm(w, r, post, "/admin/posts/"+post.ID.String(), false, "")
}

// PostUpdate handles the edit form submission. The slug is never
// re-derived on update; clearing the field keeps the stored slug so
// published URLs stay stable.
func (a *Admin) PostUpdate(w http.ResponseWriter, r *http.Request) {
	existing, ok := a.findPost(w, r)
	if !ok {
		return
	}

	p, msg := postFromForm(r)
	if msg != "" {
		echo := formEcho(r)
		echo.ID = existing.ID
		echo.CreatedAt = existing.CreatedAt
		echo.UpdatedAt = existing.UpdatedAt
		a.postForm(w, r, echo, "/admin/posts/"+existing.ID.String(), false, msg)
		return
	}
	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = existing.UpdatedAt
	if p.Slug == "" {
		p.Slug = existing.Slug
	}

	if err := a.posts.Update(p); err == store.ErrDuplicateSlug {
		a.postForm(w, r, p, "/admin/posts/"+existing.ID.String(), false, "A post with this slug already exists.")
		return
	} else if err != nil {
		slog.Error("post update failed", "error", err, "id", p.ID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Both the old and new slug pages can be cached.
	a.pageCache.Invalidate(r.Context(), cache.PostKey(existing.Slug))
	a.pageCache.Invalidate(r.Context(), cache.PostKey(p.Slug))
	a.pageCache.InvalidateListings(r.Context())
	slog.Info("post updated", "id", p.ID, "slug", p.Slug)
	http.Redirect(w, r, "/admin/posts", http.StatusSeeOther)
}

// PostDelete removes a post.
func (a *Admin) PostDelete(w http.ResponseWriter, r *http.Request) {
	post, ok := a.findPost(w, r)
	if !ok {
		return
	}
	if err := a.posts.Delete(post.ID); err != nil {
		slog.Error("post delete failed", "error", err, "id", post.ID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.pageCache.Invalidate(r.Context(), cache.PostKey(post.Slug))
	a.pageCache.InvalidateListings(r.Context())
	slog.Info("post deleted", "id", post.ID, "slug", post.Slug)
	http.Redirect(w, r, "/admin/posts", http.StatusSeeOther)
}

// findPost resolves the {id} URL parameter to a post, writing a 404 and
// returning false when it does not resolve.
func (a *Admin) findPost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}
	post, err := a.posts.FindByID(id)
	if err != nil {
		slog.Error("find post failed", "error", err, "id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if post == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return post, true
}

// formEcho rebuilds a Post from raw form values without validation, for
// re-displaying what the user typed next to an error message.
func formEcho(r *http.Request) *models.Post {
	p := &models.Post{
		Title:       strings.TrimSpace(r.PostFormValue("title")),
		Slug:        strings.TrimSpace(r.PostFormValue("slug")),
		Content:     r.PostFormValue("content"),
		IsPublished: r.PostFormValue("is_published") == "true",
	}
	if excerpt := strings.TrimSpace(r.PostFormValue("excerpt")); excerpt != "" {
		p.Excerpt = &excerpt
	}
	if id, err := uuid.Parse(r.PostFormValue("category_id")); err == nil {
		p.CategoryID = &id
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04", r.PostFormValue("published_at"), time.Local); err == nil {
		p.PublishedAt = &t
	}
	return p
}

// CategoriesList shows all categories with their post counts.
func (a *Admin) CategoriesList(w http.ResponseWriter, r *http.Request) {
	items, err := a.categories.List()
	if err != nil {
		slog.Error("admin category list failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	a.renderer.Page(w, r, "categories_list", &render.PageData{
		Title:   "Categories",
		Section: "categories",
		Data:    map[string]any{"Items": items},
	})
}

// categoryForm renders the create/edit form for a category.
func (a *Admin) categoryForm(w http.ResponseWriter, r *http.Request, item *models.Category, action string, isNew bool, errMsg string) {
	title := "Edit Category"
	if isNew {
		title = "New Category"
	}
	data := map[string]any{
		"Item":   item,
		"Action": action,
		"IsNew":  isNew,
	}
	if errMsg != "" {
		data["Error"] = errMsg
	}
	a.renderer.Page(w, r, "category_form", &render.PageData{
		Title:   title,
		Section: "categories",
		Data:    data,
	})
}

// CategoryNew renders an empty category form.
func (a *Admin) CategoryNew(w http.ResponseWriter, r *http.Request) {
	a.categoryForm(w, r, nil, "/admin/categories/new", true, "")
}

// categoryFromForm builds a Category from submitted form values.
func categoryFromForm(r *http.Request) (*models.Category, string) {
	name := strings.TrimSpace(r.PostFormValue("name"))
	slugField := strings.TrimSpace(r.PostFormValue("slug"))
	description := strings.TrimSpace(r.PostFormValue("description"))

	if msg := validateCategory(name, slugField, description); msg != "" {
		return &models.Category{Name: name, Slug: slugField, Description: description}, msg
	}
	return &models.Category{Name: name, Slug: slugField, Description: description}, ""
}

// CategoryCreate handles the new-category form submission. A blank slug
// is derived from the name.
func (a *Admin) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	c, msg := categoryFromForm(r)
	if msg != "" {
		a.categoryForm(w, r, c, "/admin/categories/new", true, msg)
		return
	}
	if c.Slug == "" {
		c.Slug = slug.Generate(c.Name)
	}

	created, err := a.categories.Create(c)
	if err == store.ErrDuplicateSlug {
		a.categoryForm(w, r, c, "/admin/categories/new", true, "A category with this slug already exists.")
		return
	}
	if err != nil {
		slog.Error("category create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Category names appear on cached post pages, so everything goes.
	a.pageCache.InvalidateAll(r.Context())
	slog.Info("category created", "id", created.ID, "slug", created.Slug)
	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

// CategoryEdit renders the edit form for an existing category.
func (a *Admin) CategoryEdit(w http.ResponseWriter, r *http.Request) {
	category, ok := a.findCategory(w, r)
	if !ok {
		return
	}
	a.categoryForm(w, r, category, "/admin/categories/"+category.ID.String(), false, "")
}

// CategoryUpdate handles the edit form submission. Like posts, the slug
// is kept as stored when the field is cleared.
func (a *Admin) CategoryUpdate(w http.ResponseWriter, r *http.Request) {
	existing, ok := a.findCategory(w, r)
	if !ok {
		return
	}

	c, msg := categoryFromForm(r)
	if msg != "" {
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
		a.categoryForm(w, r, c, "/admin/categories/"+existing.ID.String(), false, msg)
		return
	}
	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	if c.Slug == "" {
		c.Slug = existing.Slug
	}

	if err := a.categories.Update(c); err == store.ErrDuplicateSlug {
		a.categoryForm(w, r, c, "/admin/categories/"+existing.ID.String(), false, "A category with this slug already exists.")
		return
	} else if err != nil {
		slog.Error("category update failed", "error", err, "id", c.ID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.pageCache.InvalidateAll(r.Context())
	slog.Info("category updated", "id", c.ID, "slug", c.Slug)
	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

// CategoryDelete removes a category. Posts in it survive uncategorized.
func (a *Admin) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	category, ok := a.findCategory(w, r)
	if !ok {
		return
	}
	if err := a.categories.Delete(category.ID); err != nil {
		slog.Error("category delete failed", "error", err, "id", category.ID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.pageCache.InvalidateAll(r.Context())
	slog.Info("category deleted", "id", category.ID, "slug", category.Slug)
	http.Redirect(w, r, "/admin/categories", http.StatusSeeOther)
}

// findCategory resolves the {id} URL parameter to a category, writing a
// 404 and returning false when it does not resolve.
func (a *Admin) findCategory(w http.ResponseWriter, r *http.Request) (*models.Category, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}
	category, err := a.categories.FindByID(id)
	if err != nil {
		slog.Error("find category failed", "error", err, "id", id)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return nil, false
	}
	if category == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return category, true
}
