// Package model defines the core domain types exchanged with the EventSync backend.
package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// Role is the platform role attached to an Identity.
type Role string

const (
	RoleOrganizer   Role = "ORGANIZER"
	RoleParticipant Role = "PARTICIPANT"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleOrganizer || r == RoleParticipant
}

// Identity is the authenticated user as returned by POST /sessions.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// IsOrganizer reports whether the identity carries the organizer role.
func (i *Identity) IsOrganizer() bool {
	return i != nil && i.Role == RoleOrganizer
}

// LocationType tells whether an event happens online or at a venue.
type LocationType string

const (
	LocationOnline   LocationType = "ONLINE"
	LocationInPerson LocationType = "IN_PERSON"
)

// Person is the short user shape embedded in events, requests and messages.
type Person struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Review is a participant's rating of an event they attended.
type Review struct {
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Event is owned by exactly one organizer and only mutated through the backend.
type Event struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Date         *time.Time   `json:"date,omitempty"`
	Location     string       `json:"location"`
	LocationType LocationType `json:"locationType,omitempty"`
	OrganizerID  string       `json:"organizerId,omitempty"`
	Organizer    Person       `json:"organizer"`
	Participants []Person     `json:"participants,omitempty"`
	Reviews      []Review     `json:"reviews,omitempty"`
}

// UnmarshalJSON accepts an empty or null date as "not announced".
func (e *Event) UnmarshalJSON(data []byte) error {
	type plain Event
	aux := struct {
		*plain
		Date nullTime `json:"date"`
	}{plain: (*plain)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.Date = aux.Date.t
	return nil
}

// OwnerID returns the organizer id, preferring the embedded organizer.
func (e *Event) OwnerID() string {
	if e == nil {
		return ""
	}
	if e.Organizer.ID != "" {
		return e.Organizer.ID
	}
	return e.OrganizerID
}

// RegistrationStatus is the backend approval status of a registration.
type RegistrationStatus string

const (
	StatusPending  RegistrationStatus = "PENDING"
	StatusApproved RegistrationStatus = "APPROVED"
	StatusRejected RegistrationStatus = "REJECTED"
)

// Registration links one participant to one event.
type Registration struct {
	ID          string             `json:"id"`
	Date        *time.Time         `json:"date,omitempty"`
	Event       Event              `json:"event"`
	User        *Person            `json:"user,omitempty"`
	Status      RegistrationStatus `json:"status"`
	CheckedInAt *time.Time         `json:"checkedInAt,omitempty"`
	CreatedAt   *time.Time         `json:"createdAt,omitempty"`
}

// UnmarshalJSON accepts empty or null timestamps as absent.
func (r *Registration) UnmarshalJSON(data []byte) error {
	type plain Registration
	aux := struct {
		*plain
		Date        nullTime `json:"date"`
		CheckedInAt nullTime `json:"checkedInAt"`
		CreatedAt   nullTime `json:"createdAt"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Date, r.CheckedInAt, r.CreatedAt = aux.Date.t, aux.CheckedInAt.t, aux.CreatedAt.t
	return nil
}

// CheckedIn reports whether the backend recorded attendance.
func (r *Registration) CheckedIn() bool {
	return r != nil && r.CheckedInAt != nil && !r.CheckedInAt.IsZero()
}

// Friend is an accepted social connection.
type Friend struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// FriendRequest is a pending connection sent to the current user.
type FriendRequest struct {
	ID     string `json:"id"`
	Sender Person `json:"sender"`
	Status string `json:"status,omitempty"`
}

// Message is a short note sent between friends.
type Message struct {
	ID        string     `json:"id"`
	Sender    Person     `json:"sender"`
	Content   string     `json:"content"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// UnmarshalJSON accepts an empty or null createdAt as absent.
func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	aux := struct {
		*plain
		CreatedAt nullTime `json:"createdAt"`
	}{plain: (*plain)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.CreatedAt = aux.CreatedAt.t
	return nil
}

// nullTime decodes an RFC 3339 timestamp where "" and null mean absent.
type nullTime struct{ t *time.Time }

func (n *nullTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		n.t = nil
		return nil
	}
	var t time.Time
	if err := t.UnmarshalJSON(data); err != nil {
		return err
	}
	n.t = &t
	return nil
}

// ─── Request / response payloads ─────────────────────────────────────────────

// SignInRequest is the payload for POST /sessions.
type SignInRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// SignInResponse is returned by POST /sessions.
type SignInResponse struct {
	Token string   `json:"token"`
	User  Identity `json:"user"`
}

// SignUpRequest is the payload for POST /users. ConfirmPassword never leaves the client.
type SignUpRequest struct {
	Name            string `json:"name" form:"name" validate:"required,min=3"`
	Email           string `json:"email" form:"email" validate:"required,email"`
	Password        string `json:"password" form:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"-" form:"confirmPassword" validate:"eqfield=Password"`
	Role            Role   `json:"role" form:"role" validate:"required,oneof=PARTICIPANT ORGANIZER"`
}

// EventInput is the payload for creating or updating an event.
type EventInput struct {
	Title        string       `json:"title" form:"title" validate:"required,min=3"`
	Description  string       `json:"description" form:"description" validate:"required,min=10"`
	Date         string       `json:"date" form:"date" validate:"required,eventdate"`
	Location     string       `json:"location" form:"location" validate:"required,min=3"`
	LocationType LocationType `json:"locationType" form:"locationType" validate:"required,oneof=ONLINE IN_PERSON"`
}

// ReviewInput is the payload for POST /events/:id/reviews.
type ReviewInput struct {
	Rating  int    `json:"rating" form:"rating" validate:"gte=1,lte=5"`
	Comment string `json:"comment" form:"comment" validate:"max=1000"`
}

// MessageInput is the payload for sending a message to a friend.
type MessageInput struct {
	Content string `json:"content" form:"content" validate:"required,notblank,max=500"`
}

// CheckInRequest is the payload for POST /events/:id/check-in.
type CheckInRequest struct {
	ParticipantID string `json:"participantId"`
}

// FriendResponse answers a pending friend request.
type FriendResponse struct {
	Accept bool `json:"accept"`
}

// ErrorResponse is the backend error envelope; either field may carry the message.
type ErrorResponse struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
