package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/atinyakov/BookKeeper/internal/middleware"
)

// requestTimeout is the per-request deadline applied to every handler.
const requestTimeout = 15 * time.Second

// NewRouter constructs the HTTP handler serving the JSON API under /api and
// the server-rendered surface (when non-nil) at the root.
//
// Middleware chain (applied in order):
//  1. CORS (permissive, browser SPA clients)
//  2. WithRequestLogging(logger)
//  3. Timeout — per-request deadline
//
// Authentication is applied per route group: public catalog reads stay open,
// mutations require a valid bearer token, ledger history and user management
// additionally require the admin role.
func NewRouter(
	authHandler *AuthHandler,
	booksHandler *BooksHandler,
	usersHandler *UsersHandler,
	web http.Handler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Timeout(requestTimeout))

	// Registered before the routes so mounted subrouters inherit it.
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		NotFound(w, "Route")
	})

	authenticate := Authenticate(authHandler.AuthService)

	r.Route("/api", func(api chi.Router) {
		// Only allow JSON request bodies on the API surface
		api.Use(chiMiddleware.AllowContentType("application/json"))

		api.Route("/auth", func(ar chi.Router) {
			ar.Post("/login", authHandler.Login)
			ar.Post("/logout", authHandler.Logout)
		})

		api.Route("/books", func(br chi.Router) {
			// Public catalog reads
			br.Get("/", booksHandler.List)
			br.Get("/{id}", booksHandler.Get)

			// Mutations require a valid bearer token
			br.Group(func(pr chi.Router) {
				pr.Use(authenticate)
				pr.Post("/", booksHandler.Create)
				pr.Put("/{id}", booksHandler.Update)
				pr.Delete("/{id}", booksHandler.Delete)
				pr.Post("/{id}/borrow", booksHandler.Borrow)
				pr.Post("/{id}/return", booksHandler.Return)

				pr.Group(func(admin chi.Router) {
					admin.Use(RequireAdmin)
					admin.Get("/{id}/borrow-history", booksHandler.BorrowHistory)
				})
			})
		})

		// User management is admin-only throughout
		api.Route("/users", func(ur chi.Router) {
			ur.Use(authenticate)
			ur.Use(RequireAdmin)
			ur.Get("/", usersHandler.List)
			ur.Get("/{id}", usersHandler.Get)
			ur.Post("/", usersHandler.Create)
			ur.Put("/{id}", usersHandler.Update)
			ur.Delete("/{id}", usersHandler.Delete)
			ur.Get("/{id}/borrow-history", usersHandler.BorrowHistory)
		})
	})

	if web != nil {
		r.Mount("/", web)
	}

	return r
}
