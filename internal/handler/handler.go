// Package handler contains the chi HTTP handlers of the EventSync web client.
// Handlers translate form posts into service calls and render html/template
// pages; every mutation answers with a redirect.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/eventsync-web/internal/apperr"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/flash"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/guard"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/model"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/service"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/session"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/validation"
)

const (
	signInPath  = "/"
	landingPath = "/events"
	dashboard   = "/organizer"

	genericFailure = "Something went wrong talking to EventSync. Please try again."
	expiredNotice  = "Your session has expired. Please sign in again."
)

// API is everything the handlers need from the backend.
type API interface {
	service.EventAPI
	service.AccountAPI
	service.SocialAPI
}

// SessionProvider hands out the persisted state of one browser session.
type SessionProvider interface {
	ForSession(id string) session.Storage
}

// Options configures a Handler.
type Options struct {
	// API returns a backend client authenticated as token ("" when signed out).
	API           func(token string) API
	Sessions      SessionProvider
	Validator     *validation.Validator
	Logger        zerolog.Logger
	SecureCookies bool
}

// Handler holds all HTTP handlers of the web client.
type Handler struct {
	api      func(token string) API
	sessions SessionProvider
	validate *validation.Validator
	log      zerolog.Logger
	secure   bool
	pages    *renderer
}

// New constructs a Handler and parses the embedded templates.
func New(opts Options) (*Handler, error) {
	if opts.API == nil || opts.Sessions == nil {
		return nil, errors.New("handler: API and Sessions are required")
	}
	pages, err := newRenderer()
	if err != nil {
		return nil, err
	}
	v := opts.Validator
	if v == nil {
		v = validation.New()
	}
	return &Handler{
		api:      opts.API,
		sessions: opts.Sessions,
		validate: v,
		log:      opts.Logger,
		secure:   opts.SecureCookies,
		pages:    pages,
	}, nil
}

// Routes builds the router with every page of the client.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(h.log))

	r.Get("/health", HealthCheck)

	r.Group(func(r chi.Router) {
		r.Use(h.Sessions)

		r.Get("/", h.SignInPage)
		r.Post("/", h.SignIn)
		r.Get("/register", h.SignUpPage)
		r.Post("/register", h.SignUp)
		r.Post("/signout", h.SignOut)

		r.Group(func(r chi.Router) {
			r.Use(guard.Authenticated(signInPath))

			r.Get("/events", h.Events)
			r.Get("/events/{id}", h.Event)
			r.Post("/events/{id}/subscribe", h.Subscribe)
			r.Post("/events/{id}/reviews", h.Review)
			r.Get("/my-registrations", h.MyRegistrations)
			r.Post("/registrations/{id}/cancel", h.Cancel)
			r.Get("/ticket/{id}", h.Ticket)
			r.Get("/ticket/{id}/qr.png", h.TicketQR)
			r.Get("/profile", h.Profile)
			r.Get("/friends", h.Friends)
			r.Post("/friends/requests/{id}", h.RespondFriendRequest)
			r.Post("/friends/{id}/messages", h.SendMessage)
			r.Post("/users/{id}/friend-request", h.SendFriendRequest)
		})

		r.Group(func(r chi.Router) {
			r.Use(guard.Organizer(signInPath, landingPath))

			r.Get("/organizer", h.Dashboard)
			r.Get("/events/new", h.NewEventPage)
			r.Post("/events/new", h.CreateEvent)
			r.Get("/events/{id}/edit", h.EditEventPage)
			r.Post("/events/{id}/edit", h.UpdateEvent)
			r.Post("/events/{id}/delete", h.DeleteEvent)
			r.Get("/events/{id}/registrations", h.Registrations)
			r.Post("/events/{id}/registrations/approve-all", h.ApproveAll)
			r.Post("/events/{id}/registrations/{regID}/approve", h.Approve)
			r.Post("/events/{id}/registrations/{regID}/reject", h.Reject)
			r.Get("/events/{id}/check-in", h.CheckInPage)
			r.Post("/events/{id}/check-in", h.CheckIn)
		})
	})

	return r
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// parseForm bounds the body and parses it.
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	return r.ParseForm()
}

func (h *Handler) store(r *http.Request) *session.Store {
	return session.FromContext(r.Context())
}

func (h *Handler) identity(r *http.Request) *model.Identity {
	return h.store(r).Identity()
}

// client returns a backend client authenticated as the current viewer.
func (h *Handler) client(r *http.Request) API {
	return h.api(h.store(r).Token())
}

func (h *Handler) events(r *http.Request) *service.EventService {
	return service.NewEventService(h.client(r), h.validate)
}

func (h *Handler) accounts(r *http.Request) *service.AccountService {
	return service.NewAccountService(h.client(r), h.validate)
}

func (h *Handler) social(r *http.Request) *service.SocialService {
	return service.NewSocialService(h.client(r), h.validate)
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func (h *Handler) notify(w http.ResponseWriter, notice flash.Notice) {
	flash.Write(w, notice, h.secure)
}

// userMessage picks the text shown for a failed backend call.
func userMessage(err error) string {
	if apperr.KindOf(err) == apperr.KindUnknown {
		return genericFailure
	}
	return apperr.MessageOr(err, genericFailure)
}

// fail answers a failed mutation with a redirect to back and a notice.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	switch {
	case errors.Is(err, service.ErrNotOwner):
		h.redirect(w, r, dashboard)
		return
	case apperr.Is(err, apperr.KindAuthentication):
		h.expire(w, r)
		return
	case apperr.Is(err, apperr.KindConflict):
		h.notify(w, flash.Info(userMessage(err)))
	default:
		h.logFailure(r, err)
		h.notify(w, flash.Error(userMessage(err)))
	}
	h.redirect(w, r, back)
}

// failPage renders a failed page load.
func (h *Handler) failPage(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotOwner):
		h.redirect(w, r, dashboard)
		return
	case apperr.Is(err, apperr.KindAuthentication):
		h.expire(w, r)
		return
	}
	h.logFailure(r, err)
	back := landingPath
	if h.identity(r) == nil {
		back = signInPath
	}
	h.render(w, r, apperr.HTTPStatus(err), "error.html", page{
		Title: "Error",
		Error: userMessage(err),
		Page:  errorPage{Heading: "We could not load this page", Back: back},
	})
}

// expire signs the viewer out after the backend refused their token.
func (h *Handler) expire(w http.ResponseWriter, r *http.Request) {
	if err := h.store(r).SignOut(r.Context()); err != nil {
		h.logFailure(r, err)
	}
	h.notify(w, flash.Info(expiredNotice))
	h.redirect(w, r, signInPath)
}

func (h *Handler) logFailure(r *http.Request, err error) {
	ev := h.log.Warn()
	if apperr.KindOf(err) == apperr.KindUnknown {
		ev = h.log.Error()
	}
	ev.Err(err).
		Str("request_id", chimiddleware.GetReqID(r.Context())).
		Str("path", r.URL.Path).
		Str("kind", string(apperr.KindOf(err))).
		Msg("request failed")
}

// localPath returns next when it is a same-site path, else fallback.
func localPath(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
