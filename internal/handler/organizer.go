package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/eventsync-web/internal/apperr"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/checkin"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/flash"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/logging"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/model"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/validation"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/view"
)

// formDateLayout matches <input type="datetime-local">.
const formDateLayout = "2006-01-02T15:04"

type dashboardPage struct {
	Rows []view.DashboardRow
}

type eventFormPage struct {
	EventID string
	Values  model.EventInput
	Errors  validation.FieldErrors
}

type manageRegistrationsPage struct {
	Event   *model.Event
	Rows    []view.OrganizerRow
	Pending int
}

type checkInPage struct {
	Event  *model.Event
	Result *checkin.Result
}

func registrationsPath(eventID string) string { return "/events/" + eventID + "/registrations" }

// Dashboard handles GET /organizer
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	rows, err := h.events(r).Dashboard(r.Context(), h.identity(r))
	if err != nil {
		h.failPage(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "organizer.html", page{Title: "My events", Page: dashboardPage{Rows: rows}})
}

// NewEventPage handles GET /events/new
func (h *Handler) NewEventPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "event_form.html", page{
		Title: "New event",
		Page:  eventFormPage{Values: model.EventInput{LocationType: model.LocationInPerson}},
	})
}

// CreateEvent handles POST /events/new
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var in model.EventInput
	if err := decodeForm(w, r, &in); err != nil {
		h.redirect(w, r, "/events/new")
		return
	}
	err := h.events(r).CreateEvent(r.Context(), in)
	if errs := validation.FieldsOf(err); errs != nil {
		h.render(w, r, http.StatusUnprocessableEntity, "event_form.html", page{Title: "New event", Page: eventFormPage{Values: in, Errors: errs}})
		return
	}
	if err != nil {
		if apperr.Is(err, apperr.KindAuthentication) {
			h.expire(w, r)
			return
		}
		h.logFailure(r, err)
		h.render(w, r, apperr.HTTPStatus(err), "event_form.html", page{Title: "New event", Error: userMessage(err), Page: eventFormPage{Values: in}})
		return
	}
	h.notify(w, flash.Success("Event created."))
	h.redirect(w, r, dashboard)
}

// EditEventPage handles GET /events/{id}/edit
func (h *Handler) EditEventPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	event, err := h.events(r).ManagedEvent(r.Context(), h.identity(r), id)
	if err != nil {
		h.failPage(w, r, err)
		return
	}
	values := model.EventInput{
		Title:        event.Title,
		Description:  event.Description,
		Location:     event.Location,
		LocationType: event.LocationType,
	}
	if event.Date != nil {
		values.Date = event.Date.UTC().Format(formDateLayout)
	}
	h.render(w, r, http.StatusOK, "event_form.html", page{Title: "Edit event", Page: eventFormPage{EventID: id, Values: values}})
}

// UpdateEvent handles POST /events/{id}/edit
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var in model.EventInput
	if err := decodeForm(w, r, &in); err != nil {
		h.redirect(w, r, "/events/"+id+"/edit")
		return
	}
	err := h.events(r).UpdateEvent(r.Context(), h.identity(r), id, in)
	if errs := validation.FieldsOf(err); errs != nil {
		h.render(w, r, http.StatusUnprocessableEntity, "event_form.html", page{Title: "Edit event", Page: eventFormPage{EventID: id, Values: in, Errors: errs}})
		return
	}
	if err != nil {
		h.fail(w, r, err, "/events/"+id+"/edit")
		return
	}
	h.notify(w, flash.Success("Event updated."))
	h.redirect(w, r, eventPath(id))
}

// DeleteEvent handles POST /events/{id}/delete
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.events(r).DeleteEvent(r.Context(), h.identity(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, dashboard)
		return
	}
	h.notify(w, flash.Success("Event deleted."))
	h.redirect(w, r, dashboard)
}

// Registrations handles GET /events/{id}/registrations
func (h *Handler) Registrations(w http.ResponseWriter, r *http.Request) {
	event, regs, err := h.events(r).Registrations(r.Context(), h.identity(r), chi.URLParam(r, "id"))
	if err != nil {
		h.failPage(w, r, err)
		return
	}
	rows, pending := view.OrganizerRows(regs)
	h.render(w, r, http.StatusOK, "registrations.html", page{
		Title: "Registrations",
		Page:  manageRegistrationsPage{Event: event, Rows: rows, Pending: pending},
	})
}

// Approve handles POST /events/{id}/registrations/{regID}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, true)
}

// Reject handles POST /events/{id}/registrations/{regID}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, false)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, approve bool) {
	id := chi.URLParam(r, "id")
	svc := h.events(r)
	reg, err := svc.ManagedRegistration(r.Context(), h.identity(r), id, chi.URLParam(r, "regID"))
	if err != nil {
		h.fail(w, r, err, registrationsPath(id))
		return
	}

	if approve {
		err = svc.Approve(r.Context(), reg.ID)
	} else {
		err = svc.Reject(r.Context(), reg.ID)
	}
	if err != nil {
		h.fail(w, r, err, registrationsPath(id))
		return
	}
	if approve {
		h.notify(w, flash.Success("Registration approved."))
	} else {
		h.notify(w, flash.Info("Registration rejected."))
	}
	h.redirect(w, r, registrationsPath(id))
}

// ApproveAll handles POST /events/{id}/registrations/approve-all
// The list is re-fetched after the redirect whether or not every approval
// went through.
func (h *Handler) ApproveAll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	svc := h.events(r)
	if _, err := svc.ManagedEvent(r.Context(), h.identity(r), id); err != nil {
		h.fail(w, r, err, registrationsPath(id))
		return
	}

	approved, err := svc.ApproveAll(r.Context(), id)
	if apperr.Is(err, apperr.KindAuthentication) {
		h.expire(w, r)
		return
	}
	if err != nil {
		h.logFailure(r, err)
		h.notify(w, flash.Error(fmt.Sprintf("Some approvals failed (%d approved). The list shows the current state.", approved)))
		h.redirect(w, r, registrationsPath(id))
		return
	}
	h.notify(w, flash.Success(fmt.Sprintf("Approved %d registration(s).", approved)))
	h.redirect(w, r, registrationsPath(id))
}

// CheckInPage handles GET /events/{id}/check-in
func (h *Handler) CheckInPage(w http.ResponseWriter, r *http.Request) {
	event, err := h.events(r).ManagedEvent(r.Context(), h.identity(r), chi.URLParam(r, "id"))
	if err != nil {
		h.failPage(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "checkin.html", page{Title: "Check-in", Page: checkInPage{Event: event}})
}

// CheckIn handles POST /events/{id}/check-in
// Each post is one scan. A payload that is not a participant id re-renders
// the scanner; otherwise the result stays on screen until "Scan next".
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	svc := h.events(r)
	event, err := svc.ManagedEvent(r.Context(), h.identity(r), chi.URLParam(r, "id"))
	if err != nil {
		h.failPage(w, r, err)
		return
	}
	if err := parseForm(w, r); err != nil {
		h.redirect(w, r, "/events/"+event.ID+"/check-in")
		return
	}

	station := checkin.NewStation(event.ID, svc, logging.Component(h.log, "checkin"))
	station.Start()
	result := station.Decode(r.Context(), r.PostForm.Get("participantId"))
	if result != nil && apperr.Is(result.Err, apperr.KindAuthentication) {
		h.expire(w, r)
		return
	}
	h.render(w, r, http.StatusOK, "checkin.html", page{Title: "Check-in", Page: checkInPage{Event: event, Result: result}})
}
