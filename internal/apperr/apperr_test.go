package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	base := &Error{Kind: KindConflict, Status: http.StatusConflict, Message: "already registered"}
	err := fmt.Errorf("subscribe: %w", base)

	if got := KindOf(err); got != KindConflict {
		t.Fatalf("KindOf = %q, want %q", got, KindConflict)
	}
	if got := StatusOf(err); got != http.StatusConflict {
		t.Fatalf("StatusOf = %d, want %d", got, http.StatusConflict)
	}
	if got := MessageOr(err, "fallback"); got != "already registered" {
		t.Fatalf("MessageOr = %q", got)
	}
}

func TestKindOfPlainError(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindUnknown {
		t.Fatalf("KindOf = %q, want %q", got, KindUnknown)
	}
	if got := KindOf(nil); got != "" {
		t.Fatalf("KindOf(nil) = %q, want empty", got)
	}
}

func TestMessageOrFallback(t *testing.T) {
	err := E(KindUnavailable, "list events", "")
	if got := MessageOr(err, "try again"); got != "try again" {
		t.Fatalf("MessageOr = %q, want fallback", got)
	}
	if got := MessageOr(errors.New("raw"), "try again"); got != "try again" {
		t.Fatalf("MessageOr on untyped error = %q, want fallback", got)
	}
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{http.StatusUnauthorized, KindAuthentication},
		{http.StatusForbidden, KindAuthorization},
		{http.StatusNotFound, KindNotFound},
		{http.StatusConflict, KindConflict},
		{http.StatusBadRequest, KindRejected},
		{http.StatusTeapot, KindRejected},
		{http.StatusInternalServerError, KindUnavailable},
		{http.StatusBadGateway, KindUnavailable},
	}
	for _, tt := range tests {
		if got := FromStatus(tt.status); got != tt.want {
			t.Errorf("FromStatus(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestHTTPStatus(t *testing.T) {
	if got := HTTPStatus(nil); got != http.StatusOK {
		t.Fatalf("HTTPStatus(nil) = %d", got)
	}
	if got := HTTPStatus(E(KindValidation, "", "bad")); got != http.StatusUnprocessableEntity {
		t.Fatalf("HTTPStatus(validation) = %d", got)
	}
	if got := HTTPStatus(errors.New("x")); got != http.StatusInternalServerError {
		t.Fatalf("HTTPStatus(unknown) = %d", got)
	}
}

func TestErrorString(t *testing.T) {
	err := &Error{Kind: KindUnavailable, Op: "get event", Err: errors.New("dial tcp: refused")}
	if got := err.Error(); got != "get event: dial tcp: refused" {
		t.Fatalf("Error() = %q", got)
	}
	if !errors.Is(err, err.Err) {
		t.Fatal("expected Unwrap to expose the cause")
	}
}
