package routes

import (
	"net/http"

	"github.com/Dosada05/fightclub-brackets/handlers"
	"github.com/Dosada05/fightclub-brackets/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret []byte,
	allowedOrigins []string,
	bracketHandler *handlers.BracketHandler,
	synthesisHandler *handlers.SynthesisHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Get("/ws/competitions/{competitionID}", webSocketHandler.ServeWs)

	router.Route("/api", func(r chi.Router) {
		r.Post("/brackets/preview", bracketHandler.Preview)
		r.Post("/brackets/verify", bracketHandler.Verify)

		r.Route("/competitions/{competitionID}", func(r chi.Router) {
			r.Get("/brackets", bracketHandler.List)
			r.Get("/brackets/{bracketID}/matches", bracketHandler.Matches)
			r.Get("/diagnosis", synthesisHandler.Diagnose)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Authenticate(jwtSecret))
				r.Use(middleware.Authorize(middleware.RoleOrganizer, middleware.RoleAdmin))

				r.Post("/synthesis", synthesisHandler.Synthesize)
				r.Post("/brackets", bracketHandler.Create)
				r.Put("/brackets/{bracketID}", bracketHandler.Regenerate)
				r.Delete("/brackets/{bracketID}", bracketHandler.Delete)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize(middleware.RoleOrganizer, middleware.RoleAdmin))

			r.Post("/synthesis/batch", synthesisHandler.SynthesizeBatch)
		})
	})
}
