package routes

import (
	"github.com/bracket-of-death/backend/config"
	"github.com/bracket-of-death/backend/handlers"
	"github.com/bracket-of-death/backend/middleware"
	"github.com/bracket-of-death/backend/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes wires every endpoint. Read endpoints are public; roster and
// score mutations need a token, and tournament administration needs an
// admin role.
func SetupRoutes(
	router *chi.Mux,
	cfg *config.Config,
	playerHandler *handlers.PlayerHandler,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	registrationHandler *handlers.RegistrationHandler,
	seedingHandler *handlers.SeedingHandler,
	statsHandler *handlers.StatsHandler,
	userHandler *handlers.UserHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(cfg.JWTSecretKey)
	adminOnly := middleware.Authorize(models.RoleAdmin, models.RoleSuperAdmin)

	router.Route("/players", func(r chi.Router) {
		r.Get("/", playerHandler.ListHandler)
		r.Get("/leaderboard", playerHandler.LeaderboardHandler)
		r.Get("/{playerID}", playerHandler.GetByIDHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)

			r.Post("/", playerHandler.CreateHandler)
			r.Put("/{playerID}", playerHandler.UpdateHandler)
			r.Delete("/{playerID}", playerHandler.DeleteHandler)
			r.Post("/{playerID}/recalculate", playerHandler.RecalculateStatsHandler)
		})
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.ListHandler)
		r.Get("/{tournamentID}", tournamentHandler.GetByIDHandler)
		r.Get("/{tournamentID}/bracket", matchHandler.GetBracketHandler)
		r.Get("/{tournamentID}/matches", matchHandler.ListMatchesHandler)
		r.Get("/{tournamentID}/matches/{matchNumber}", matchHandler.GetMatchHandler)
		r.Get("/{tournamentID}/registrations", registrationHandler.GetInfoHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/{tournamentID}/registrations", registrationHandler.RegisterHandler)
			r.Delete("/{tournamentID}/registrations/{playerID}", registrationHandler.UnregisterHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)

			r.Post("/", tournamentHandler.CreateHandler)
			r.Put("/{tournamentID}", tournamentHandler.UpdateHandler)
			r.Patch("/{tournamentID}/status", tournamentHandler.UpdateStatusHandler)
			r.Post("/{tournamentID}/complete", tournamentHandler.CompleteHandler)
			r.Delete("/{tournamentID}", tournamentHandler.DeleteHandler)
			r.Post("/{tournamentID}/photos", tournamentHandler.UploadPhotoHandler)

			r.Get("/{tournamentID}/seeding", seedingHandler.PreviewHandler)
			r.Post("/{tournamentID}/bracket", matchHandler.GenerateBracketHandler)
			r.Put("/{tournamentID}/matches/{matchNumber}/score", matchHandler.SubmitScoreHandler)
			r.Post("/{tournamentID}/registrations/finalize", registrationHandler.FinalizeRosterHandler)
			r.Post("/{tournamentID}/recalculate", statsHandler.RecalculateTournamentHandler)
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Use(adminOnly)
		r.Post("/seeding/calculate", seedingHandler.CalculateHandler)
	})

	router.Route("/users", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(adminOnly)

		r.Get("/", userHandler.ListHandler)
		r.Post("/", userHandler.CreateHandler)
		r.Get("/roles", userHandler.RolesHandler)
		r.Get("/{userID}", userHandler.GetHandler)
		r.Put("/{userID}", userHandler.UpdateHandler)
		r.Delete("/{userID}", userHandler.DeleteHandler)
		r.Put("/{userID}/password", userHandler.ResetPasswordHandler)
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
