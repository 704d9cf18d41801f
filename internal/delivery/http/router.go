package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"gatherly/internal/delivery/http/controllers"
	"gatherly/internal/delivery/http/helpers"
	"gatherly/internal/delivery/http/middleware"
	"gatherly/internal/domain"
)

// Controllers bundles the per-resource controllers for NewRouter.
type Controllers struct {
	Auth         *controllers.AuthController
	Event        *controllers.EventController
	Category     *controllers.CategoryController
	Contact      *controllers.ContactController
	Invitation   *controllers.InvitationController
	Registration *controllers.RegistrationController
}

// NewRouter initializes the HTTP router with all application routes.
// RSVP, login/signup, event reads, and the category catalog are public;
// everything else requires a bearer token.
func NewRouter(c Controllers, verifier domain.TokenVerifier) *http.ServeMux {
	mux := http.NewServeMux()
	protected := middleware.RequireAuth(verifier)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth
	mux.HandleFunc("POST /auth/signup", c.Auth.SignUp)
	mux.HandleFunc("POST /auth/login", c.Auth.LogIn)
	mux.HandleFunc("GET /users/me", protected(c.Auth.GetMe))
	mux.HandleFunc("PATCH /users/me", protected(c.Auth.UpdateMe))

	// Events
	mux.HandleFunc("POST /events", protected(c.Event.CreateEvent))
	mux.HandleFunc("GET /events", c.Event.ListEvents)
	mux.HandleFunc("GET /events/{eventID}", c.Event.GetEvent)
	mux.HandleFunc("PATCH /events/{eventID}", protected(c.Event.UpdateEvent))
	mux.HandleFunc("POST /events/{eventID}/publish", protected(c.Event.PublishEvent))
	mux.HandleFunc("POST /events/{eventID}/cancel", protected(c.Event.CancelEvent))

	// Invitations
	mux.HandleFunc("POST /events/{eventID}/invitations", protected(c.Invitation.Invite))
	mux.HandleFunc("GET /events/{eventID}/invitations", protected(c.Invitation.ListInvitations))
	mux.HandleFunc("POST /invitations/{invitationID}/delivery", protected(c.Invitation.RecordDelivery))
	mux.HandleFunc("DELETE /invitations/{invitationID}", protected(c.Invitation.CancelInvitation))
	mux.HandleFunc("POST /rsvp/{token}", c.Invitation.Respond)

	// Registrations
	mux.HandleFunc("POST /events/{eventID}/registrations", protected(c.Registration.Register))
	mux.HandleFunc("GET /events/{eventID}/registrations", protected(c.Registration.ListRegistrations))
	mux.HandleFunc("POST /events/{eventID}/no-shows", protected(c.Registration.MarkNoShows))
	mux.HandleFunc("DELETE /registrations/{registrationID}", protected(c.Registration.CancelRegistration))
	mux.HandleFunc("POST /registrations/{registrationID}/checkin", protected(c.Registration.CheckIn))

	// Categories
	mux.HandleFunc("GET /categories", c.Category.ListCategories)
	mux.HandleFunc("GET /categories/{categoryID}", c.Category.GetCategory)
	mux.HandleFunc("POST /categories", protected(c.Category.CreateCategory))
	mux.HandleFunc("PATCH /categories/{categoryID}", protected(c.Category.UpdateCategory))

	// Contacts
	mux.HandleFunc("POST /contacts", protected(c.Contact.CreateContact))
	mux.HandleFunc("GET /contacts", protected(c.Contact.ListContacts))
	mux.HandleFunc("GET /contacts/{contactID}", protected(c.Contact.GetContact))
	mux.HandleFunc("PATCH /contacts/{contactID}", protected(c.Contact.UpdateContact))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
