package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"linecue-backend/internal/handlers"
	"linecue-backend/internal/middleware"
	"linecue-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	documentHandler *handlers.DocumentHandler,
	cueCardHandler *handlers.CueCardHandler,
	quizHandler *handlers.QuizHandler,
	dashboardHandler *handlers.DashboardHandler,
	jobHandler *handlers.JobHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			// Logout requires auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// ──── Document Routes ────
		r.Route("/documents", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/upload", documentHandler.Upload)
			r.Get("/", documentHandler.List)
			r.Get("/{id}", documentHandler.Get)
			r.Delete("/{id}", documentHandler.Delete)
			r.Get("/{id}/cues", cueCardHandler.ListByDocument)
			r.Post("/{id}/quiz", quizHandler.Start)
		})

		// ──── Text Block / Cue Card Routes ────
		r.Route("/blocks", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Put("/{id}/cue", cueCardHandler.Upsert)
			r.Post("/{id}/suggestions", cueCardHandler.Suggest)
		})

		r.Route("/cues", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Delete("/{id}", cueCardHandler.Delete)
		})

		// ──── Quiz Session Routes ────
		r.Route("/quiz", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{id}", quizHandler.Get)
			r.Post("/{id}/submit", quizHandler.Submit)
			r.Post("/{id}/advance", quizHandler.Advance)
			r.Post("/{id}/hint", quizHandler.Hint)
			r.Delete("/{id}", quizHandler.Cancel)
		})

		// ──── Dashboard Routes ────
		r.Route("/dashboard", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/stats", dashboardHandler.Stats)
		})

		// ──── Job Routes ────
		r.Route("/jobs", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{id}", jobHandler.Get)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
