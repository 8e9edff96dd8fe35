package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/invox/internal/auth"
	"github.com/MrJamesThe3rd/invox/internal/http/authapi"
	"github.com/MrJamesThe3rd/invox/internal/http/authmw"
	"github.com/MrJamesThe3rd/invox/internal/http/invoiceapi"
)

type Options struct {
	Tokens         *auth.TokenManager
	AllowedOrigin  string
	RequestTimeout time.Duration
}

func New(authV1 *authapi.Handler, invoicesV1 *invoiceapi.Handler, opts Options) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(opts.RequestTimeout))

	// Pre-flight is answered here, before any auth check. Methods must be
	// enumerated: the cors package only wildcard-matches origins and headers.
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{opts.AllowedOrigin},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
	}))

	requireAuth := authmw.RequireAuth(opts.Tokens)

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))

			authV1.PublicRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				authV1.ProtectedRoutes(r)
			})
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Use(requireAuth)
			invoicesV1.Routes(r)
		})
	})

	return router
}
