package routes

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/matchpoint-dev/pingpong-tournaments/handlers"
	"github.com/matchpoint-dev/pingpong-tournaments/middleware"
	"github.com/matchpoint-dev/pingpong-tournaments/services"
)

// SetupRoutes wires all HTTP endpoints. Reads and spectator voting are
// public; everything that mutates tournament state requires an admin token.
func SetupRoutes(
	router *chi.Mux,
	authService services.AuthService,
	authHandler *handlers.AuthHandler,
	playerHandler *handlers.PlayerHandler,
	tournamentHandler *handlers.TournamentHandler,
	groupHandler *handlers.GroupHandler,
	bracketHandler *handlers.BracketHandler,
	matchHandler *handlers.MatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(authService)

	router.Post("/auth/register", authHandler.RegisterHandler)
	router.Post("/auth/login", authHandler.LoginHandler)
	router.Get("/auth/verify", authHandler.VerifyHandler)

	router.Route("/players", func(r chi.Router) {
		r.Get("/", playerHandler.ListHandler)
		r.Get("/{playerID}", playerHandler.GetByIDHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", playerHandler.CreateHandler)
			r.Post("/bulk", playerHandler.BulkCreateHandler)
			r.Put("/{playerID}", playerHandler.UpdateHandler)
			r.Delete("/{playerID}", playerHandler.DeleteHandler)
		})
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.ListHandler)
		r.Get("/{tournamentID}", tournamentHandler.GetByIDHandler)
		r.Get("/{tournamentID}/overview", tournamentHandler.OverviewHandler)
		r.Get("/{tournamentID}/groups", groupHandler.ListByTournamentHandler)
		r.Get("/{tournamentID}/matches", matchHandler.ListByTournamentHandler)
		r.Get("/{tournamentID}/bracket", bracketHandler.ListBracketHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", tournamentHandler.CreateHandler)
			r.Put("/{tournamentID}", tournamentHandler.UpdateHandler)
			r.Delete("/{tournamentID}", tournamentHandler.DeleteHandler)
			r.Post("/{tournamentID}/image", tournamentHandler.UploadImageHandler)
			r.Post("/{tournamentID}/players/{playerID}", tournamentHandler.AddPlayerHandler)
			r.Delete("/{tournamentID}/players/{playerID}", tournamentHandler.RemovePlayerHandler)

			r.Post("/{tournamentID}/groups", groupHandler.CreateGroupsHandler)
			r.Delete("/{tournamentID}/groups", groupHandler.DeleteGroupsHandler)

			r.Post("/{tournamentID}/bracket", bracketHandler.CreateBracketHandler)
			r.Post("/{tournamentID}/bracket/advance", bracketHandler.AdvanceRoundHandler)
			r.Post("/{tournamentID}/bracket/matches", bracketHandler.CreateCustomMatchHandler)
			r.Delete("/{tournamentID}/bracket", bracketHandler.DeleteBracketHandler)
		})
	})

	router.Route("/groups", func(r chi.Router) {
		r.Get("/{groupID}", groupHandler.GetByIDHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{groupID}/matches", groupHandler.GenerateMatchesHandler)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", matchHandler.GetByIDHandler)
		r.Post("/{matchID}/vote", matchHandler.CastVoteHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", matchHandler.CreateHandler)
			r.Put("/{matchID}/score", matchHandler.SubmitScoreHandler)
			r.Put("/{matchID}/cancellation", matchHandler.ToggleCancellationHandler)
			r.Delete("/{matchID}/votes", matchHandler.ResetVotesHandler)
			r.Post("/{matchID}/image", matchHandler.UploadImageHandler)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWsHandler)
}
