// Package checkin implements the scanning surface used at the venue door.
//
// A Station accepts exactly one decoded payload per scan. After a result it
// stays released until ScanNext is called, so a scanner that keeps decoding
// the same code never submits it twice.
package checkin

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Shivanand-hulikatti/eventsync-web/internal/apperr"
)

var tracer = otel.Tracer("github.com/Shivanand-hulikatti/eventsync-web/internal/checkin")

// MaxPayload is the longest payload accepted as a participant id.
const MaxPayload = 512

const (
	GrantedMessage  = "ACCESS GRANTED"
	NotFoundMessage = "Participant not found or already checked in."
	FailureMessage  = "Error processing check-in."
)

// State is the station's position in Idle → Scanning → Submitting → Done.
type State int

const (
	Idle State = iota
	Scanning
	Submitting
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scanning:
		return "scanning"
	case Submitting:
		return "submitting"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Submitter records a check-in with the backend.
type Submitter interface {
	CheckIn(ctx context.Context, eventID, participantID string) error
}

// Result is the terminal outcome of one scan.
type Result struct {
	Granted bool
	Message string
	// Detail echoes the truncated participant id on success.
	Detail string
	// Err is the backend failure behind a denied result.
	Err error
}

// Station is one scanning surface bound to an event.
type Station struct {
	eventID string
	api     Submitter
	log     zerolog.Logger

	mu     sync.Mutex
	state  State
	result *Result
}

// NewStation returns an Idle station for eventID.
func NewStation(eventID string, api Submitter, log zerolog.Logger) *Station {
	return &Station{eventID: eventID, api: api, log: log}
}

// Start opens the scanner. It only has an effect while Idle.
func (s *Station) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Idle {
		s.state = Scanning
	}
}

// ScanNext releases a finished station back to Scanning and clears the result.
func (s *Station) ScanNext() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Done {
		s.state = Scanning
		s.result = nil
	}
}

// State returns the current state.
func (s *Station) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the last result, or nil before the first one.
func (s *Station) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil
	}
	r := *s.result
	return &r
}

// Decode handles one decoded payload. It returns nil without any state change
// for noise or when the station is not Scanning.
func (s *Station) Decode(ctx context.Context, raw string) *Result {
	participantID, ok := Clean(raw)
	if !ok {
		return nil
	}

	s.mu.Lock()
	if s.state != Scanning {
		s.mu.Unlock()
		return nil
	}
	s.state = Submitting
	s.mu.Unlock()

	result := s.submit(ctx, participantID)

	s.mu.Lock()
	s.state = Done
	s.result = &result
	s.mu.Unlock()
	return &result
}

func (s *Station) submit(ctx context.Context, participantID string) Result {
	ctx, span := tracer.Start(ctx, "checkin.submit")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", s.eventID))

	err := s.api.CheckIn(ctx, s.eventID, participantID)
	if err == nil {
		s.log.Info().Str("event_id", s.eventID).Str("participant", Truncate(participantID)).Msg("check-in granted")
		return Result{Granted: true, Message: GrantedMessage, Detail: "ID: " + Truncate(participantID)}
	}

	span.RecordError(err)
	s.log.Warn().Err(err).Str("event_id", s.eventID).Msg("check-in denied")
	if apperr.Is(err, apperr.KindUnavailable) && apperr.StatusOf(err) == 0 {
		return Result{Message: FailureMessage, Err: err}
	}
	return Result{Message: apperr.MessageOr(err, NotFoundMessage), Err: err}
}

// Clean trims raw and reports whether it is a plausible participant id.
// Empty payloads, payloads with control characters and oversized payloads
// are scan noise.
func Clean(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if v == "" || len(v) > MaxPayload {
		return "", false
	}
	for _, r := range v {
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			return "", false
		}
	}
	return v, true
}

// Truncate shortens an id to its first 8 characters followed by "...".
func Truncate(id string) string {
	r := []rune(id)
	if len(r) <= 8 {
		return id + "..."
	}
	return string(r[:8]) + "..."
}
