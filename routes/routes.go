package routes

import (
	"github.com/canchalibre/booking-system/handlers"
	"github.com/canchalibre/booking-system/middleware"
	"github.com/canchalibre/booking-system/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Auth            *handlers.AuthHandler
	User            *handlers.UserHandler
	Team            *handlers.TeamHandler
	Complex         *handlers.ComplexHandler
	Court           *handlers.CourtHandler
	Reservation     *handlers.ReservationHandler
	Proposal        *handlers.ProposalHandler
	MatchInvitation *handlers.MatchInvitationHandler
	Notification    *handlers.NotificationHandler
	Dashboard       *handlers.DashboardHandler
	WebSocket       *handlers.WebSocketHandler
}

func SetupRoutes(router *chi.Mux, h Handlers, auth *middleware.Authenticator) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	router.Post("/auth/register", h.Auth.Register)
	router.Post("/auth/login", h.Auth.Login)

	// Websocket аутентифицируется сам, токен приходит query-параметром.
	router.Get("/ws", h.WebSocket.Serve)

	router.Route("/users", func(r chi.Router) {
		r.Get("/{userID}", h.User.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Get("/me", h.User.GetCurrent)
			r.Put("/{userID}", h.User.Update)
			r.Post("/{userID}/avatar", h.User.UploadAvatar)
		})
	})

	router.Route("/complexes", func(r chi.Router) {
		r.Get("/", h.Complex.List)
		r.Get("/{complexID}", h.Complex.GetByID)
		r.Get("/{complexID}/courts", h.Court.ListByComplex)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(middleware.Authorize(string(models.RoleAdmin)))

			r.Post("/", h.Complex.Create)
			r.Put("/{complexID}", h.Complex.Update)
			r.Delete("/{complexID}", h.Complex.Delete)
			r.Post("/{complexID}/photo", h.Complex.UploadPhoto)
		})
	})

	router.Route("/courts", func(r chi.Router) {
		r.Get("/{courtID}", h.Court.GetByID)
		r.Get("/{courtID}/availability", h.Reservation.Availability)
		r.Get("/{courtID}/reservations", h.Reservation.CourtDay)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(middleware.Authorize(string(models.RoleAdmin)))

			r.Post("/", h.Court.Create)
			r.Put("/{courtID}", h.Court.Update)
			r.Delete("/{courtID}", h.Court.Delete)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/", h.Team.ListPublic)
		r.Get("/{teamID}", h.Team.GetByID)
		r.Get("/{teamID}/members", h.Team.ListMembers)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Post("/", h.Team.Create)
			r.Put("/{teamID}", h.Team.Update)
			r.Delete("/{teamID}", h.Team.Delete)
			r.Post("/{teamID}/logo", h.Team.UploadLogo)
			r.Delete("/{teamID}/members/{userID}", h.Team.RemoveMember)

			// Заявки на вступление и приглашения в команду
			r.Post("/{teamID}/join-requests", h.Proposal.CreateRequest)
			r.Post("/{teamID}/invitations", h.Proposal.CreateInvitation)
			r.Get("/{teamID}/proposals", h.Proposal.ListByTeam)

			// Бронирования команды и матчевые приглашения
			r.Get("/{teamID}/reservations", h.Reservation.ListByTeam)
			r.Get("/{teamID}/match-invitations/incoming", h.MatchInvitation.ListIncoming)
			r.Get("/{teamID}/match-invitations/outgoing", h.MatchInvitation.ListOutgoing)
		})
	})

	router.Route("/proposals", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Get("/", h.Proposal.ListByUser)
		r.Post("/{proposalID}/accept", h.Proposal.Accept)
		r.Post("/{proposalID}/reject", h.Proposal.Reject)
	})

	router.Route("/reservations", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Post("/", h.Reservation.Create)
		r.Get("/{reservationID}", h.Reservation.GetByID)
		r.Delete("/{reservationID}", h.Reservation.Cancel)
	})

	router.Route("/match-invitations", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Post("/", h.MatchInvitation.Create)
		r.Post("/{invitationID}/accept", h.MatchInvitation.Accept)
		r.Post("/{invitationID}/reject", h.MatchInvitation.Reject)
	})

	router.Route("/notifications", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Get("/", h.Notification.List)
		r.Put("/{notificationID}/read", h.Notification.MarkRead)
	})

	router.Route("/dashboard", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(middleware.Authorize(string(models.RoleAdmin)))

		r.Get("/stats", h.Dashboard.GetStats)
	})
}
