// Package authz answers who may see or do what. Every function is pure and
// total over already-fetched data.
package authz

import (
	"github.com/Shivanand-hulikatti/eventsync-web/internal/model"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/registration"
)

// IsOwner reports whether identity organizes event. Only ids are compared.
func IsOwner(identity *model.Identity, event *model.Event) bool {
	if identity == nil || identity.ID == "" {
		return false
	}
	owner := event.OwnerID()
	return owner != "" && owner == identity.ID
}

// IsRegistered reports whether any registration targets eventID, whatever its status.
func IsRegistered(identity *model.Identity, regs []model.Registration, eventID string) bool {
	return identity != nil && registration.Find(identity, regs, eventID) != nil
}

// CanReview reports whether the viewer attended and has not reviewed yet.
func CanReview(identity *model.Identity, reg *model.Registration) bool {
	if identity == nil || identity.ID == "" || reg == nil {
		return false
	}
	if registration.Classify(reg) != registration.CheckedIn {
		return false
	}
	for _, r := range reg.Event.Reviews {
		if r.UserID == identity.ID {
			return false
		}
	}
	return true
}

// CanCancel reports whether reg can still be withdrawn.
func CanCancel(reg *model.Registration) bool {
	return registration.CanTransition(reg, registration.ActionCancel)
}

// CanManage reports whether identity is an organizer who owns event.
func CanManage(identity *model.Identity, event *model.Event) bool {
	return identity.IsOrganizer() && IsOwner(identity, event)
}

// OwnedEvents returns the events identity organizes, in input order.
func OwnedEvents(identity *model.Identity, events []model.Event) []model.Event {
	var out []model.Event
	for i := range events {
		if IsOwner(identity, &events[i]) {
			out = append(out, events[i])
		}
	}
	return out
}

// CanBefriend reports whether the viewer may send a friend request to a
// fellow participant of eventID.
func CanBefriend(identity *model.Identity, regs []model.Registration, eventID string, participant model.Person) bool {
	if identity == nil || participant.ID == "" || participant.ID == identity.ID {
		return false
	}
	return IsRegistered(identity, regs, eventID)
}
