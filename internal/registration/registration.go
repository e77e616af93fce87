// Package registration classifies a viewer's registration into the status the
// pages display and encodes which lifecycle transitions are allowed.
package registration

import "github.com/Shivanand-hulikatti/eventsync-web/internal/model"

// Display is the status a page renders for one (viewer, event) pair.
type Display string

const (
	NotRegistered   Display = "NOT_REGISTERED"
	PendingApproval Display = "PENDING_APPROVAL"
	Confirmed       Display = "CONFIRMED"
	CheckedIn       Display = "CHECKED_IN"
	Rejected        Display = "REJECTED"
)

// rank orders displays for picking the most advanced row.
var rank = map[Display]int{
	NotRegistered:   0,
	Rejected:        1,
	PendingApproval: 2,
	Confirmed:       3,
	CheckedIn:       4,
}

var labels = map[Display]string{
	NotRegistered:   "Not registered",
	PendingApproval: "Pending approval",
	Confirmed:       "Confirmed",
	CheckedIn:       "Checked in",
	Rejected:        "Rejected",
}

// Classify derives the display status from status and checkedInAt only.
// A recorded check-in always wins over the status field.
func Classify(reg *model.Registration) Display {
	if reg == nil {
		return NotRegistered
	}
	if reg.CheckedIn() {
		return CheckedIn
	}
	switch reg.Status {
	case model.StatusPending:
		return PendingApproval
	case model.StatusApproved:
		return Confirmed
	case model.StatusRejected:
		return Rejected
	default:
		return NotRegistered
	}
}

// Find returns the viewer's registration for eventID, or nil.
// Rows that name another user are skipped. When several rows match, the one
// with the most advanced display is returned.
func Find(identity *model.Identity, regs []model.Registration, eventID string) *model.Registration {
	if eventID == "" {
		return nil
	}
	var best *model.Registration
	for i := range regs {
		reg := &regs[i]
		if reg.Event.ID != eventID || !belongsTo(reg, identity) {
			continue
		}
		if best == nil || rank[Classify(reg)] > rank[Classify(best)] {
			best = reg
		}
	}
	return best
}

// ClassifyFor finds and classifies the viewer's registration for eventID.
func ClassifyFor(identity *model.Identity, regs []model.Registration, eventID string) Display {
	return Classify(Find(identity, regs, eventID))
}

func belongsTo(reg *model.Registration, identity *model.Identity) bool {
	if reg.User == nil || reg.User.ID == "" {
		return true
	}
	return identity != nil && reg.User.ID == identity.ID
}

// Label returns the human-readable text for d.
func Label(d Display) string {
	if l, ok := labels[d]; ok {
		return l
	}
	return labels[NotRegistered]
}

// Action is a backend transition a registration can go through.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionCheckIn Action = "check-in"
	ActionCancel  Action = "cancel"
)

// CanTransition reports whether action is allowed from reg's current state.
//
//	PENDING  --approve--> APPROVED --check-in--> (checkedInAt set)
//	PENDING  --reject-->  REJECTED
//	PENDING|APPROVED --cancel--> (deleted), unless checked in
func CanTransition(reg *model.Registration, action Action) bool {
	if reg == nil {
		return false
	}
	switch action {
	case ActionApprove, ActionReject:
		return reg.Status == model.StatusPending && !reg.CheckedIn()
	case ActionCheckIn:
		return reg.Status == model.StatusApproved && !reg.CheckedIn()
	case ActionCancel:
		return (reg.Status == model.StatusPending || reg.Status == model.StatusApproved) && !reg.CheckedIn()
	default:
		return false
	}
}
