package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users    UserStore
	Sessions SessionManager
	Videos   VideoStore
	Signer   UploadSigner
	// Storage is optional; the direct upload endpoint is only mounted when it is set.
	Storage ObjectStorage
	Limiter RateLimiter
	// Database is optional and only consulted by the health check.
	Database Pinger
}

// NewRouter wires every HTTP handler into a chi router.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, deps)
	return r
}

// RegisterRoutes wires HTTP handlers into the provided router.
func RegisterRoutes(r chi.Router, deps Dependencies) {
	health := HealthHandler{Database: deps.Database}
	auth := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Limiter: deps.Limiter}
	videos := VideoHandler{Videos: deps.Videos}
	uploads := MediaHandler{Signer: deps.Signer, Storage: deps.Storage, Limiter: deps.Limiter}

	var verifier SessionVerifier
	if deps.Sessions != nil {
		verifier = deps.Sessions
	}
	requireSession := RequireSession(verifier)

	r.Get("/healthz", health.Handle)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", auth.Register)
			r.Post("/signin", auth.SignIn)
			r.Post("/refresh", auth.Refresh)
			r.Post("/signout", auth.SignOut)
			r.Get("/imagekit-auth", uploads.Credential)
		})

		r.Route("/video", func(r chi.Router) {
			r.Get("/", videos.List)
			r.Get("/{id}", videos.Get)
			r.With(requireSession).Post("/", videos.Create)
			r.With(requireSession).Delete("/{id}", videos.Delete)
		})

		if deps.Storage != nil {
			r.Post("/media/upload", uploads.Upload)
		}
	})
}
