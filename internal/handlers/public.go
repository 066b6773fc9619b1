package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"inkpress/internal/cache"
	"inkpress/internal/models"
	"inkpress/internal/render"
	"inkpress/internal/store"
)

// Public groups handlers for the public-facing site: the paginated post
// listing and the post detail page. Only visible posts (published with a
// publication timestamp) are ever served. Rendered pages are cached in
// Valkey and served from there on subsequent requests.
type Public struct {
	posts     *store.PostStore
	renderer  *render.Renderer
	pageCache *cache.PageCache
}

// NewPublic creates a new Public handler group.
func NewPublic(posts *store.PostStore, renderer *render.Renderer, pageCache *cache.PageCache) *Public {
	return &Public{
		posts:     posts,
		renderer:  renderer,
		pageCache: pageCache,
	}
}

// listData is the payload for the post_list template.
type listData struct {
	Posts      []models.Post
	Page       int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	PrevPage   int
	NextPage   int
}

// List serves the paginated listing of visible posts, newest first.
// The page is selected with ?page=N (1-based). A non-numeric or
// out-of-range page is a 404; page 1 of an empty blog renders an empty
// listing.
func (p *Public) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.NotFound(w, r)
			return
		}
		page = n
	}

	if cached, ok := p.pageCache.Get(ctx, cache.ListKey(page)); ok {
		writeHTML(w, cached)
		return
	}

	count, err := p.posts.CountVisible()
	if err != nil {
		slog.Error("count visible posts failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	totalPages := (count + store.PageSize - 1) / store.PageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		http.NotFound(w, r)
		return
	}

	posts, err := p.posts.ListVisible(page)
	if err != nil {
		slog.Error("list visible posts failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	rendered, err := p.renderer.Public("post_list", &listData{
		Posts:      posts,
		Page:       page,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
		PrevPage:   page - 1,
		NextPage:   page + 1,
	})
	if err != nil {
		slog.Error("render post list failed", "error", err, "page", page)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	p.pageCache.Set(ctx, cache.ListKey(page), rendered)
	writeHTML(w, rendered)
}

// detailData is the payload for the post_detail template.
type detailData struct {
	Post *models.Post
}

// Detail serves a single visible post by slug. Posts that are drafts,
// missing a publication timestamp, or nonexistent all produce the same
// 404 so the public surface never reveals that a hidden post exists.
func (p *Public) Detail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slugParam := chi.URLParam(r, "slug")

	if cached, ok := p.pageCache.Get(ctx, cache.PostKey(slugParam)); ok {
		writeHTML(w, cached)
		return
	}

	post, err := p.posts.FindVisibleBySlug(slugParam)
	if err != nil {
		slog.Error("find post by slug failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if post == nil {
		http.NotFound(w, r)
		return
	}

	rendered, err := p.renderer.Public("post_detail", &detailData{Post: post})
	if err != nil {
		slog.Error("render post detail failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	p.pageCache.Set(ctx, cache.PostKey(slugParam), rendered)
	writeHTML(w, rendered)
}

// writeHTML writes a rendered HTML page with the right content type.
func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(body)
}
