package routes

import (
	"github.com/bgaliyev/cue-league/handlers"
	"github.com/bgaliyev/cue-league/middleware"
	"github.com/bgaliyev/cue-league/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Auth        *handlers.AuthHandler
	User        *handlers.UserHandler
	Tournament  *handlers.TournamentHandler
	Participant *handlers.ParticipantHandler
	Match       *handlers.MatchHandler
	WebSocket   *handlers.WebSocketHandler
}

func InitRoutes(h Handlers, jwtSecret string) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)
	organizerOnly := middleware.Authorize(string(models.RoleOrganizer), string(models.RoleAdmin))

	router.Get("/swagger/*", httpSwagger.Handler())

	router.Post("/auth/signup", h.Auth.SignUpHandler)
	router.Post("/auth/signin", h.Auth.SignInHandler)

	router.Route("/users", func(r chi.Router) {
		r.Get("/{userID}", h.User.GetByIDHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/me", h.User.GetCurrentHandler)
			r.Post("/me/logo", h.User.UploadLogoHandler)
		})
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", h.Tournament.ListHandler)
		r.Get("/{tournamentID}", h.Tournament.GetByIDHandler)
		r.Get("/{tournamentID}/bracket", h.Tournament.GetBracketHandler)
		r.Get("/{tournamentID}/matches", h.Match.ListByTournamentHandler)
		r.Get("/{tournamentID}/participants", h.Participant.ListByTournamentHandler)
		r.Get("/{tournamentID}/standings", h.Participant.StandingsHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{tournamentID}/participants", h.Participant.RegisterHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(organizerOnly)
			r.Post("/", h.Tournament.CreateHandler)
			r.Put("/{tournamentID}", h.Tournament.UpdateHandler)
			r.Post("/{tournamentID}/start", h.Tournament.StartHandler)
			r.Post("/{tournamentID}/cancel", h.Tournament.CancelHandler)
			r.Post("/{tournamentID}/logo", h.Tournament.UploadLogoHandler)
		})
	})

	router.Route("/participants", func(r chi.Router) {
		r.Use(authenticate)
		r.Delete("/{participantID}", h.Participant.WithdrawHandler)

		r.Group(func(r chi.Router) {
			r.Use(organizerOnly)
			r.Post("/{participantID}/confirm", h.Participant.ConfirmHandler)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", h.Match.GetByIDHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{matchID}/result", h.Match.SubmitResultHandler)

			r.Group(func(r chi.Router) {
				r.Use(organizerOnly)
				r.Post("/{matchID}/confirm", h.Match.ConfirmResultHandler)
			})
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	return router
}
