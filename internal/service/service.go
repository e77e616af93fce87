// Package service orchestrates multi-call flows between HTTP handlers and the
// backend: validation first, then one or more backend calls, then the
// classification of their failures.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Shivanand-hulikatti/eventsync-web/internal/apperr"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/authz"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/model"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/registration"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/validation"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/view"
)

// ErrAlreadyRegistered is returned when the viewer subscribes twice.
var ErrAlreadyRegistered = errors.New("already registered for this event")

// ErrAlreadyReviewed is returned when the viewer reviews an event twice.
var ErrAlreadyReviewed = errors.New("event already reviewed")

// ErrNotOwner is returned when an organizer action targets someone else's event.
var ErrNotOwner = errors.New("event is owned by another organizer")

// ErrForeignRegistration is returned when a registration id is not part of
// the event being managed.
var ErrForeignRegistration = errors.New("registration belongs to another event")

// ErrNoTicket is returned when the viewer has no confirmed registration.
var ErrNoTicket = errors.New("no ticket for this event")

// bulkLimit caps concurrent approve requests.
const bulkLimit = 4

// EventAPI is the subset of the backend the event flows use.
type EventAPI interface {
	ListEvents(ctx context.Context) ([]model.Event, error)
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	CreateEvent(ctx context.Context, in model.EventInput) error
	UpdateEvent(ctx context.Context, id string, in model.EventInput) error
	DeleteEvent(ctx context.Context, id string) error
	Subscribe(ctx context.Context, eventID string) error
	MyRegistrations(ctx context.Context) ([]model.Registration, error)
	EventRegistrations(ctx context.Context, eventID string) ([]model.Registration, error)
	ApproveRegistration(ctx context.Context, id string) error
	RejectRegistration(ctx context.Context, id string) error
	CancelRegistration(ctx context.Context, id string) error
	CheckIn(ctx context.Context, eventID, participantID string) error
	CreateReview(ctx context.Context, eventID string, in model.ReviewInput) error
}

// EventService orchestrates event and registration operations for one viewer.
type EventService struct {
	api      EventAPI
	validate *validation.Validator
}

// NewEventService constructs an EventService bound to a viewer-scoped API.
func NewEventService(api EventAPI, validate *validation.Validator) *EventService {
	return &EventService{api: api, validate: validate}
}

// EventList is the data behind the events page.
type EventList struct {
	Query string
	Cards []view.EventCard
	// StatusErr is set when the viewer's registrations could not be loaded;
	// the cards then carry no registration status.
	StatusErr error
}

// Events lists events matching query with the viewer's status on each.
// A failed registrations fetch degrades the list instead of failing it.
func (s *EventService) Events(ctx context.Context, identity *model.Identity, query string) (*EventList, error) {
	var (
		events  []model.Event
		regs    []model.Registration
		regsErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		events, err = s.api.ListEvents(gctx)
		return err
	})
	g.Go(func() error {
		regs, regsErr = s.myRegistrations(gctx)
		return fatalStatusErr(regsErr)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &EventList{
		Query:     strings.TrimSpace(query),
		Cards:     view.EventCards(identity, view.FilterEvents(events, query), regs),
		StatusErr: regsErr,
	}, nil
}

// myRegistrations fetches the viewer's registrations. It reports the error
// separately so callers can render without them.
func (s *EventService) myRegistrations(ctx context.Context) ([]model.Registration, error) {
	regs, err := s.api.MyRegistrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load registrations: %w", err)
	}
	return regs, nil
}

// fatalStatusErr keeps an expired token fatal; any other registrations
// failure only hides the viewer's status.
func fatalStatusErr(err error) error {
	if apperr.Is(err, apperr.KindAuthentication) {
		return err
	}
	return nil
}

// EventPage is the data behind an event's detail page.
type EventPage struct {
	Event         *model.Event
	Registration  *model.Registration
	Status        registration.Display
	Owner         bool
	Actions       []view.Action
	Participants  []view.ParticipantRow
	Date          string
	AverageRating float64
	// StatusErr is set when the viewer's registrations could not be loaded.
	StatusErr error
}

// EventPage fetches an event and the viewer's registrations, then composes
// the affordances for the page.
func (s *EventService) EventPage(ctx context.Context, identity *model.Identity, eventID string) (*EventPage, error) {
	var (
		event   *model.Event
		regs    []model.Registration
		regsErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		event, err = s.api.GetEvent(gctx, eventID)
		return err
	})
	g.Go(func() error {
		regs, regsErr = s.myRegistrations(gctx)
		return fatalStatusErr(regsErr)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reg := registration.Find(identity, regs, event.ID)
	actions := view.EventActions(identity, event, regs)
	if regsErr != nil {
		actions = view.EventActionsWithoutStatus(identity, event)
	}
	return &EventPage{
		Event:         event,
		Registration:  reg,
		Status:        registration.Classify(reg),
		Owner:         authz.IsOwner(identity, event),
		Actions:       actions,
		Participants:  view.ParticipantRows(identity, event, regs),
		Date:          view.FormatEventDate(event.Date),
		AverageRating: averageRating(event.Reviews),
		StatusErr:     regsErr,
	}, nil
}

func averageRating(reviews []model.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}

// MyRegistrations returns the viewer's registration cards.
func (s *EventService) MyRegistrations(ctx context.Context, identity *model.Identity) ([]view.RegistrationCard, error) {
	regs, err := s.api.MyRegistrations(ctx)
	if err != nil {
		return nil, err
	}
	return view.RegistrationCards(identity, regs), nil
}

// Subscribe registers the viewer for eventID. A duplicate registration comes
// back as a conflict carrying ErrAlreadyRegistered.
func (s *EventService) Subscribe(ctx context.Context, eventID string) error {
	err := s.api.Subscribe(ctx, eventID)
	if err == nil {
		return nil
	}
	if apperr.StatusOf(err) == http.StatusConflict || containsFold(apperr.MessageOr(err, ""), "registered") {
		return &apperr.Error{
			Kind:    apperr.KindConflict,
			Status:  apperr.StatusOf(err),
			Op:      "subscribe",
			Message: apperr.MessageOr(err, "You are already registered for this event."),
			Err:     ErrAlreadyRegistered,
		}
	}
	return err
}

// Cancel withdraws one of the viewer's registrations.
func (s *EventService) Cancel(ctx context.Context, registrationID string) error {
	return s.api.CancelRegistration(ctx, registrationID)
}

// Review validates and submits a rating for an attended event.
func (s *EventService) Review(ctx context.Context, eventID string, in model.ReviewInput) error {
	in.Comment = strings.TrimSpace(in.Comment)
	if err := s.validate.Struct(in); err != nil {
		return err
	}
	err := s.api.CreateReview(ctx, eventID, in)
	if err == nil {
		return nil
	}
	status := apperr.StatusOf(err)
	if status == http.StatusConflict || (status == http.StatusBadRequest && containsFold(apperr.MessageOr(err, ""), "already reviewed")) {
		return &apperr.Error{
			Kind:    apperr.KindConflict,
			Status:  status,
			Op:      "review",
			Message: apperr.MessageOr(err, "You have already reviewed this event."),
			Err:     ErrAlreadyReviewed,
		}
	}
	return err
}

// Ticket returns the viewer's registration for eventID when it entitles them
// to a ticket, that is when it is confirmed or checked in.
func (s *EventService) Ticket(ctx context.Context, identity *model.Identity, eventID string) (*model.Registration, error) {
	regs, err := s.api.MyRegistrations(ctx)
	if err != nil {
		return nil, err
	}
	reg := registration.Find(identity, regs, eventID)
	switch registration.Classify(reg) {
	case registration.Confirmed, registration.CheckedIn:
		return reg, nil
	default:
		return nil, &apperr.Error{Kind: apperr.KindNotFound, Op: "ticket", Message: "You have no ticket for this event.", Err: ErrNoTicket}
	}
}

// Dashboard lists the events the organizer owns.
func (s *EventService) Dashboard(ctx context.Context, identity *model.Identity) ([]view.DashboardRow, error) {
	events, err := s.api.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	return view.DashboardRows(identity, events), nil
}

// ManagedEvent returns eventID when identity may manage it, else ErrNotOwner.
func (s *EventService) ManagedEvent(ctx context.Context, identity *model.Identity, eventID string) (*model.Event, error) {
	event, err := s.api.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !authz.CanManage(identity, event) {
		return nil, &apperr.Error{Kind: apperr.KindAuthorization, Op: "manage event", Err: ErrNotOwner}
	}
	return event, nil
}

// CreateEvent validates in and creates the event.
func (s *EventService) CreateEvent(ctx context.Context, in model.EventInput) error {
	in, err := s.normalizeEvent(in)
	if err != nil {
		return err
	}
	return s.api.CreateEvent(ctx, in)
}

// UpdateEvent validates in and updates an event the organizer owns.
func (s *EventService) UpdateEvent(ctx context.Context, identity *model.Identity, eventID string, in model.EventInput) error {
	in, err := s.normalizeEvent(in)
	if err != nil {
		return err
	}
	if _, err := s.ManagedEvent(ctx, identity, eventID); err != nil {
		return err
	}
	return s.api.UpdateEvent(ctx, eventID, in)
}

// DeleteEvent deletes an event the organizer owns.
func (s *EventService) DeleteEvent(ctx context.Context, identity *model.Identity, eventID string) error {
	if _, err := s.ManagedEvent(ctx, identity, eventID); err != nil {
		return err
	}
	return s.api.DeleteEvent(ctx, eventID)
}

// normalizeEvent trims the text fields, validates, and rewrites the date as RFC 3339.
func (s *EventService) normalizeEvent(in model.EventInput) (model.EventInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.Date = strings.TrimSpace(in.Date)
	if err := s.validate.Struct(in); err != nil {
		return in, err
	}
	date, err := validation.ParseEventDate(in.Date)
	if err != nil {
		return in, fmt.Errorf("normalize event date: %w", err)
	}
	in.Date = date.UTC().Format(time.RFC3339)
	return in, nil
}

// Registrations returns every registration of a managed event.
func (s *EventService) Registrations(ctx context.Context, identity *model.Identity, eventID string) (*model.Event, []model.Registration, error) {
	event, err := s.ManagedEvent(ctx, identity, eventID)
	if err != nil {
		return nil, nil, err
	}
	regs, err := s.api.EventRegistrations(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	return event, regs, nil
}

// ManagedRegistration returns registration regID of an event the organizer owns.
func (s *EventService) ManagedRegistration(ctx context.Context, identity *model.Identity, eventID, regID string) (*model.Registration, error) {
	_, regs, err := s.Registrations(ctx, identity, eventID)
	if err != nil {
		return nil, err
	}
	for i := range regs {
		if regs[i].ID == regID {
			return &regs[i], nil
		}
	}
	return nil, &apperr.Error{
		Kind:    apperr.KindNotFound,
		Status:  http.StatusNotFound,
		Op:      "manage registration",
		Message: "Registration not found for this event.",
		Err:     ErrForeignRegistration,
	}
}

// Approve approves one registration.
func (s *EventService) Approve(ctx context.Context, registrationID string) error {
	return s.api.ApproveRegistration(ctx, registrationID)
}

// Reject rejects one registration.
func (s *EventService) Reject(ctx context.Context, registrationID string) error {
	return s.api.RejectRegistration(ctx, registrationID)
}

// ApproveAll approves every pending registration of eventID concurrently and
// reports how many succeeded. Any failure fails the whole operation; the
// approvals that went through are not rolled back.
func (s *EventService) ApproveAll(ctx context.Context, eventID string) (int, error) {
	regs, err := s.api.EventRegistrations(ctx, eventID)
	if err != nil {
		return 0, err
	}

	var (
		g        errgroup.Group
		approved atomic.Int64
	)
	g.SetLimit(bulkLimit)
	for _, id := range view.PendingIDs(regs) {
		g.Go(func() error {
			if err := s.api.ApproveRegistration(ctx, id); err != nil {
				return fmt.Errorf("approve %s: %w", id, err)
			}
			approved.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(approved.Load()), err
	}
	return int(approved.Load()), nil
}

// CheckIn records the participant's attendance at eventID.
func (s *EventService) CheckIn(ctx context.Context, eventID, participantID string) error {
	return s.api.CheckIn(ctx, eventID, participantID)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
