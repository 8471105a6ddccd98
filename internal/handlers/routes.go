package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/gdg-garage/achievement-board/internal/auth"
	"github.com/gdg-garage/achievement-board/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

type Router struct {
	Auth           *auth.AuthHandler
	Achievements   *AchievementHandler
	API            *APIHandler
	Metrics        *metrics.Metrics
	Covers         http.Handler
	Logger         *zap.Logger
	CSRFKey        []byte
	SecureCookies  bool
	MaxUploadBytes int64
}

func RegisterRoutes(r *chi.Mux, rt Router) {
	logger := rt.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	if rt.Metrics != nil {
		r.Use(rt.Metrics.Middleware)
	}
	r.Use(middleware.Recoverer)
	if rt.MaxUploadBytes > 0 {
		r.Use(LimitBody(rt.MaxUploadBytes))
	}
	r.Use(MethodOverride)
	r.Use(rt.Auth.Authenticate)

	// Initialize Huma API
	config := huma.DefaultConfig("Achievements API", "1.0.0")
	api := humachi.New(r, config)
	registerAPI(api, rt.API)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	if rt.Metrics != nil {
		r.Handle("/metrics", rt.Metrics.Handler())
	}
	if rt.Covers != nil {
		r.Handle("/covers/*", http.StripPrefix("/covers", rt.Covers))
	}

	// Auth routes
	r.Get(auth.SignInPath, rt.Auth.HandleLogin)
	r.Get("/auth/discord/callback", rt.Auth.HandleCallback)

	// Browser routes
	r.Group(func(r chi.Router) {
		if len(rt.CSRFKey) > 0 {
			if !rt.SecureCookies {
				r.Use(plaintextCSRF)
			}
			r.Use(csrf.Protect(rt.CSRFKey, csrf.Secure(rt.SecureCookies), csrf.Path("/")))
		}

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, listPath, http.StatusSeeOther)
		})
		r.Post("/auth/logout", rt.Auth.HandleLogout)

		h := rt.Achievements
		r.Get("/achievements", h.HandleIndex)
		r.Get("/achievements/{id}", h.HandleShow)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser)
			r.Get("/achievements/new", h.HandleNew)
			r.Post("/achievements", h.HandleCreate)
			r.Get("/achievements/{id}/edit", h.HandleEdit)
			r.Put("/achievements/{id}", h.HandleUpdate)
			r.Patch("/achievements/{id}", h.HandleUpdate)
			r.Delete("/achievements/{id}", h.HandleDelete)
		})
	})
}

// plaintextCSRF marks requests as plain HTTP so local development without
// TLS passes the CSRF origin checks.
func plaintextCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}
