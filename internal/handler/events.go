package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/eventsync-web/internal/apperr"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/flash"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/model"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/registration"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/service"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/ticket"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/validation"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/view"
)

var ratings = []int{5, 4, 3, 2, 1}

type eventPage struct {
	Event     *service.EventPage
	CanReview bool
	Ratings   []int
	Review    model.ReviewInput
	Errors    validation.FieldErrors
}

type registrationsPage struct {
	Cards []view.RegistrationCard
}

type ticketPage struct {
	Registration *model.Registration
	Status       registration.Display
	Date         string
}

func eventPath(id string) string { return "/events/" + id }

// Events handles GET /events
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	list, err := h.events(r).Events(r.Context(), h.identity(r), r.URL.Query().Get("q"))
	if err != nil {
		h.failPage(w, r, err)
		return
	}
	if list.StatusErr != nil {
		h.logFailure(r, list.StatusErr)
	}
	h.render(w, r, http.StatusOK, "events.html", page{Title: "Events", Page: list})
}

// Event handles GET /events/{id}
func (h *Handler) Event(w http.ResponseWriter, r *http.Request) {
	h.renderEvent(w, r, http.StatusOK, model.ReviewInput{}, nil)
}

func (h *Handler) renderEvent(w http.ResponseWriter, r *http.Request, status int, review model.ReviewInput, errs validation.FieldErrors) {
	details, err := h.events(r).EventPage(r.Context(), h.identity(r), chi.URLParam(r, "id"))
	if err != nil {
		h.failPage(w, r, err)
		return
	}
	if details.StatusErr != nil {
		h.logFailure(r, details.StatusErr)
	}
	h.render(w, r, status, "event.html", page{
		Title: details.Event.Title,
		Page: eventPage{
			Event:     details,
			CanReview: view.Has(details.Actions, view.Review),
			Ratings:   ratings,
			Review:    review,
			Errors:    errs,
		},
	})
}

// Subscribe handles POST /events/{id}/subscribe
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.events(r).Subscribe(r.Context(), id); err != nil {
		h.fail(w, r, err, eventPath(id))
		return
	}
	h.notify(w, flash.Success("Registration sent. The organizer will review it shortly."))
	h.redirect(w, r, eventPath(id))
}

// Review handles POST /events/{id}/reviews
func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in model.ReviewInput
	if err := decodeForm(w, r, &in); err != nil {
		h.renderEvent(w, r, http.StatusUnprocessableEntity, in, validation.FieldErrors{"rating": "Choose a rating from 1 to 5."})
		return
	}
	err := h.events(r).Review(r.Context(), id, in)
	if errs := validation.FieldsOf(err); errs != nil {
		h.renderEvent(w, r, http.StatusUnprocessableEntity, in, errs)
		return
	}
	if err != nil {
		h.fail(w, r, err, eventPath(id))
		return
	}
	h.notify(w, flash.Success("Thanks for your review!"))
	h.redirect(w, r, eventPath(id))
}

// MyRegistrations handles GET /my-registrations
func (h *Handler) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	cards, err := h.events(r).MyRegistrations(r.Context(), h.identity(r))
	if err != nil {
		h.failPage(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "my_registrations.html", page{Title: "My registrations", Page: registrationsPage{Cards: cards}})
}

// Cancel handles POST /registrations/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		h.redirect(w, r, "/my-registrations")
		return
	}
	back := localPath(r.PostForm.Get("next"), "/my-registrations")
	if err := h.events(r).Cancel(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, back)
		return
	}
	h.notify(w, flash.Success("Your registration was cancelled."))
	h.redirect(w, r, back)
}

// Ticket handles GET /ticket/{id}
func (h *Handler) Ticket(w http.ResponseWriter, r *http.Request) {
	reg, err := h.events(r).Ticket(r.Context(), h.identity(r), chi.URLParam(r, "id"))
	if err != nil {
		h.failPage(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "ticket.html", page{
		Title: "Ticket",
		Page: ticketPage{
			Registration: reg,
			Status:       registration.Classify(reg),
			Date:         view.FormatEventDate(reg.Event.Date),
		},
	})
}

// TicketQR handles GET /ticket/{id}/qr.png
// The code encodes the viewer's participant id, which is what the door scans.
func (h *Handler) TicketQR(w http.ResponseWriter, r *http.Request) {
	identity := h.identity(r)
	if _, err := h.events(r).Ticket(r.Context(), identity, chi.URLParam(r, "id")); err != nil {
		writeError(w, apperr.HTTPStatus(err), userMessage(err))
		return
	}
	png, err := ticket.PNG(identity.ID, ticket.DefaultSize)
	if err != nil {
		h.logFailure(r, err)
		writeError(w, http.StatusInternalServerError, "could not render ticket")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// SendFriendRequest handles POST /users/{id}/friend-request
func (h *Handler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		h.redirect(w, r, landingPath)
		return
	}
	back := localPath(r.PostForm.Get("next"), "/friends")
	userID := chi.URLParam(r, "id")
	if identity := h.identity(r); identity != nil && identity.ID == userID {
		h.redirect(w, r, back)
		return
	}
	if err := h.social(r).SendFriendRequest(r.Context(), userID); err != nil {
		h.fail(w, r, err, back)
		return
	}
	h.notify(w, flash.Success("Friend request sent."))
	h.redirect(w, r, back)
}
