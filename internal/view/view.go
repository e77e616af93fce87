// Package view decides which affordances each page renders. It only combines
// the registration status model with the authorization predicates.
package view

import (
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Shivanand-hulikatti/eventsync-web/internal/authz"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/model"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/registration"
)

// ActionKind names one call-to-action.
type ActionKind string

const (
	Manage         ActionKind = "manage"
	Edit           ActionKind = "edit"
	CheckInScanner ActionKind = "check-in"
	Delete         ActionKind = "delete"
	Subscribe      ActionKind = "subscribe"
	PendingNotice  ActionKind = "pending-notice"
	RejectedNotice ActionKind = "rejected-notice"
	Ticket         ActionKind = "ticket"
	Cancel         ActionKind = "cancel"
	Review         ActionKind = "review"
	// StatusUnknown stands in for the registration affordances when the
	// viewer's registrations could not be loaded.
	StatusUnknown ActionKind = "status-unknown"
)

// Action is one rendered affordance. Links use GET; Post actions render as a
// form with a single submit button. Notices carry no target.
type Action struct {
	Kind   ActionKind
	Label  string
	Href   string
	Post   bool
	Notice bool
	Danger bool
}

// EventActions returns the ordered affordances for identity on event's page.
// The owner never gets Subscribe, even when a registration row exists for them.
func EventActions(identity *model.Identity, event *model.Event, myRegs []model.Registration) []Action {
	if identity == nil || event == nil {
		return nil
	}
	id := url.PathEscape(event.ID)

	if authz.IsOwner(identity, event) {
		return []Action{
			{Kind: Manage, Label: "Manage registrations", Href: "/events/" + id + "/registrations"},
			{Kind: Edit, Label: "Edit event", Href: "/events/" + id + "/edit"},
			{Kind: CheckInScanner, Label: "Check-in scanner", Href: "/events/" + id + "/check-in"},
			{Kind: Delete, Label: "Delete event", Href: "/events/" + id + "/delete", Post: true, Danger: true},
		}
	}

	reg := registration.Find(identity, myRegs, event.ID)
	switch registration.Classify(reg) {
	case registration.PendingApproval:
		return []Action{
			{Kind: PendingNotice, Label: "Pending approval", Notice: true},
			cancelAction(reg),
		}
	case registration.Confirmed:
		return []Action{
			ticketAction(event.ID),
			cancelAction(reg),
		}
	case registration.CheckedIn:
		actions := []Action{ticketAction(event.ID)}
		if authz.CanReview(identity, withEvent(reg, event)) {
			actions = append(actions, Action{Kind: Review, Label: "Write a review", Href: "/events/" + id + "/reviews", Post: true})
		}
		return actions
	case registration.Rejected:
		return []Action{{Kind: RejectedNotice, Label: "Registration rejected", Notice: true}}
	default:
		return []Action{{Kind: Subscribe, Label: "Subscribe", Href: "/events/" + id + "/subscribe", Post: true}}
	}
}

// EventActionsWithoutStatus is EventActions for a viewer whose registrations
// could not be fetched. The owner keeps the management actions; anyone else
// gets a notice instead of a Subscribe that may be wrong.
func EventActionsWithoutStatus(identity *model.Identity, event *model.Event) []Action {
	if identity == nil || event == nil {
		return nil
	}
	if authz.IsOwner(identity, event) {
		return EventActions(identity, event, nil)
	}
	return []Action{{Kind: StatusUnknown, Label: "Registration status unavailable", Notice: true}}
}

// withEvent returns reg with its embedded event replaced by the full event
// when the registration row carries no reviews of its own.
func withEvent(reg *model.Registration, event *model.Event) *model.Registration {
	if reg == nil || len(reg.Event.Reviews) > 0 || len(event.Reviews) == 0 {
		return reg
	}
	cp := *reg
	cp.Event = *event
	return &cp
}

func ticketAction(eventID string) Action {
	return Action{Kind: Ticket, Label: "View ticket", Href: "/ticket/" + url.PathEscape(eventID)}
}

func cancelAction(reg *model.Registration) Action {
	return Action{
		Kind:   Cancel,
		Label:  "Cancel registration",
		Href:   "/registrations/" + url.PathEscape(reg.ID) + "/cancel",
		Post:   true,
		Danger: true,
	}
}

// Has reports whether actions contains kind.
func Has(actions []Action, kind ActionKind) bool {
	for _, a := range actions {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

// EventCard is one row of the event list.
type EventCard struct {
	Event  model.Event
	Date   string
	Owner  bool
	Status registration.Display
	Label  string
}

// EventCards decorates events with the viewer's ownership and status.
func EventCards(identity *model.Identity, events []model.Event, myRegs []model.Registration) []EventCard {
	cards := make([]EventCard, 0, len(events))
	for i := range events {
		e := &events[i]
		status := registration.ClassifyFor(identity, myRegs, e.ID)
		cards = append(cards, EventCard{
			Event:  *e,
			Date:   FormatEventDate(e.Date),
			Owner:  authz.IsOwner(identity, e),
			Status: status,
			Label:  registration.Label(status),
		})
	}
	return cards
}

// RegistrationCard is one entry on the My Registrations page.
type RegistrationCard struct {
	Registration model.Registration
	Date         string
	Status       registration.Display
	Label        string
	TicketHref   string
	CanCancel    bool
	CanReview    bool
}

// RegistrationCards builds the viewer's registration cards, newest event first.
func RegistrationCards(identity *model.Identity, regs []model.Registration) []RegistrationCard {
	cards := make([]RegistrationCard, 0, len(regs))
	for i := range regs {
		reg := &regs[i]
		status := registration.Classify(reg)
		card := RegistrationCard{
			Registration: *reg,
			Date:         FormatEventDate(reg.Event.Date),
			Status:       status,
			Label:        registration.Label(status),
			CanCancel:    authz.CanCancel(reg),
			CanReview:    authz.CanReview(identity, reg),
		}
		if status == registration.Confirmed || status == registration.CheckedIn {
			card.TicketHref = "/ticket/" + url.PathEscape(reg.Event.ID)
		}
		cards = append(cards, card)
	}
	sort.SliceStable(cards, func(i, j int) bool {
		a, b := cards[i].Registration.Event.Date, cards[j].Registration.Event.Date
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return cards
}

// OrganizerRow is one registration on the organizer's management page.
type OrganizerRow struct {
	ID         string
	Name       string
	Email      string
	Initials   string
	Status     registration.Display
	Label      string
	CanApprove bool
	CanReject  bool
}

// OrganizerRows builds the management rows and counts the pending ones.
func OrganizerRows(regs []model.Registration) ([]OrganizerRow, int) {
	rows := make([]OrganizerRow, 0, len(regs))
	pending := 0
	for i := range regs {
		reg := &regs[i]
		status := registration.Classify(reg)
		row := OrganizerRow{
			ID:         reg.ID,
			Status:     status,
			Label:      registration.Label(status),
			CanApprove: registration.CanTransition(reg, registration.ActionApprove),
			CanReject:  registration.CanTransition(reg, registration.ActionReject),
		}
		if reg.User != nil {
			row.Name = reg.User.Name
			row.Email = reg.User.Email
			row.Initials = Initials(reg.User.Name)
		}
		if row.CanApprove {
			pending++
		}
		rows = append(rows, row)
	}
	return rows, pending
}

// PendingIDs returns the ids of registrations that can still be approved.
func PendingIDs(regs []model.Registration) []string {
	var ids []string
	for i := range regs {
		if registration.CanTransition(&regs[i], registration.ActionApprove) {
			ids = append(ids, regs[i].ID)
		}
	}
	return ids
}

// DashboardRow is one owned event on the organizer dashboard.
type DashboardRow struct {
	Event        model.Event
	Date         string
	Participants int
}

// DashboardRows lists the events identity organizes.
func DashboardRows(identity *model.Identity, events []model.Event) []DashboardRow {
	owned := authz.OwnedEvents(identity, events)
	rows := make([]DashboardRow, 0, len(owned))
	for _, e := range owned {
		rows = append(rows, DashboardRow{Event: e, Date: FormatEventDate(e.Date), Participants: len(e.Participants)})
	}
	return rows
}

// ParticipantRow is one attendee listed on an event page.
type ParticipantRow struct {
	Person      model.Person
	Initials    string
	CanBefriend bool
}

// ParticipantRows lists event participants with the friend-request affordance.
func ParticipantRows(identity *model.Identity, event *model.Event, myRegs []model.Registration) []ParticipantRow {
	if event == nil {
		return nil
	}
	rows := make([]ParticipantRow, 0, len(event.Participants))
	for _, p := range event.Participants {
		rows = append(rows, ParticipantRow{
			Person:      p,
			Initials:    Initials(p.Name),
			CanBefriend: authz.CanBefriend(identity, myRegs, event.ID, p),
		})
	}
	return rows
}

// FilterEvents keeps events whose title, location or description contains
// query, case-insensitively. An empty query keeps everything.
func FilterEvents(events []model.Event, query string) []model.Event {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return events
	}
	var out []model.Event
	for _, e := range events {
		if strings.Contains(strings.ToLower(e.Title), q) ||
			strings.Contains(strings.ToLower(e.Location), q) ||
			strings.Contains(strings.ToLower(e.Description), q) {
			out = append(out, e)
		}
	}
	return out
}

// FormatEventDate renders an event date for display.
func FormatEventDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "Date to be announced"
	}
	return t.Format("Mon, Jan 2, 2006 at 15:04")
}

// Initials returns up to two uppercase initials of name.
func Initials(name string) string {
	var out []rune
	for _, part := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(part)
		out = append(out, unicode.ToUpper(r))
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}
