// handler_test.go provides shared test infrastructure for handler
// integration tests. Tests are skipped when PostgreSQL or Valkey are
// unavailable.
package handlers

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"inkpress/internal/cache"
	"inkpress/internal/database"
	"inkpress/internal/render"
	"inkpress/internal/session"
	"inkpress/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := "postgres://" + envOr("POSTGRES_USER", "inkpress") + ":" +
		envOr("POSTGRES_PASSWORD", "changeme") + "@" +
		envOr("POSTGRES_HOST", "localhost") + ":" +
		envOr("POSTGRES_PORT", "5432") + "/" +
		envOr("POSTGRES_DB", "inkpress") + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Valkey client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379"),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"session:*", "page:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB         *sql.DB
	Valkey     *redis.Client
	Renderer   *render.Renderer
	Sessions   *session.Store
	Posts      *store.PostStore
	Categories *store.CategoryStore
	Users      *store.UserStore
	PageCache  *cache.PageCache
	Public     *Public
	Admin      *Admin
	Auth       *Auth
	Router     chi.Router
}

// newTestEnv wires real dependencies for handler tests. The router only
// mounts the public routes; admin handlers are invoked directly so tests
// can skip the auth middleware.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	valkey := testValkeyClient(t)

	renderer, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	env := &testEnv{
		DB:         db,
		Valkey:     valkey,
		Renderer:   renderer,
		Sessions:   session.NewStore(valkey, false),
		Posts:      store.NewPostStore(db),
		Categories: store.NewCategoryStore(db),
		Users:      store.NewUserStore(db),
		PageCache:  cache.NewPageCache(valkey, time.Minute),
	}
	env.Public = NewPublic(env.Posts, renderer, env.PageCache)
	env.Admin = NewAdmin(env.Posts, env.Categories, renderer, env.PageCache)
	env.Auth = NewAuth(env.Users, env.Sessions, renderer)

	r := chi.NewRouter()
	r.Get("/", env.Public.List)
	r.Get("/{slug}", env.Public.Detail)
	r.Get("/{slug}/", env.Public.Detail)
	env.Router = r

	// Start each test with a cold page cache.
	env.PageCache.InvalidateAll(context.Background())

	return env
}

// cleanPosts removes test posts by slug. Call in t.Cleanup().
func cleanPosts(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, slug := range slugs {
		db.Exec("DELETE FROM posts WHERE slug = $1", slug)
	}
}

// cleanCategories removes test categories by slug. Call in t.Cleanup().
func cleanCategories(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, slug := range slugs {
		db.Exec("DELETE FROM categories WHERE slug = $1", slug)
	}
}
