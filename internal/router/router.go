// Package router wires HTTP routes to handlers and applies the
// middleware stack.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"inkpress/internal/handlers"
	"inkpress/internal/middleware"
	"inkpress/internal/session"
)

// Deps bundles everything the router needs.
type Deps struct {
	Public   *handlers.Public
	Admin    *handlers.Admin
	Auth     *handlers.Auth
	Sessions *session.Store
}

// New builds the full route tree. The public site is unauthenticated;
// everything under /admin sits behind the session, auth, and CSRF
// middleware. Login is additionally rate-limited per client IP.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	loginLimiter := middleware.NewRateLimiter(10, time.Minute)

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.CSRF)
		r.Use(middleware.LoadSession(d.Sessions))

		r.Get("/login", d.Auth.LoginPage)
		r.With(loginLimiter.Middleware).Post("/login", d.Auth.LoginSubmit)

		// 2FA routes need a password-authenticated session but not a
		// completed 2FA check, so they sit outside Require2FA.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/2fa/setup", d.Auth.TwoFASetupPage)
			r.Get("/2fa/verify", d.Auth.TwoFAVerifyPage)
			r.Post("/2fa/verify", d.Auth.TwoFAVerifySubmit)
			r.Post("/logout", d.Auth.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			r.Get("/", d.Admin.Dashboard)

			r.Get("/posts", d.Admin.PostsList)
			r.Get("/posts/new", d.Admin.PostNew)
			r.Post("/posts/new", d.Admin.PostCreate)
			r.Get("/posts/{id}", d.Admin.PostEdit)
			r.Post("/posts/{id}", d.Admin.PostUpdate)
			r.Post("/posts/{id}/delete", d.Admin.PostDelete)

			r.Get("/categories", d.Admin.CategoriesList)
			r.Get("/categories/new", d.Admin.CategoryNew)
			r.Post("/categories/new", d.Admin.CategoryCreate)
			r.Get("/categories/{id}", d.Admin.CategoryEdit)
			r.Post("/categories/{id}", d.Admin.CategoryUpdate)
			r.Post("/categories/{id}/delete", d.Admin.CategoryDelete)
		})
	})

	// Public site. The slug route is registered with and without the
	// trailing slash so both URL forms resolve.
	r.Get("/", d.Public.List)
	r.Get("/{slug}", d.Public.Detail)
	r.Get("/{slug}/", d.Public.Detail)

	return r
}
