package session

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"testing"

	"github.com/Shivanand-hulikatti/eventsync-web/internal/apperr"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/model"
)

// mapStorage is a Storage backed by a plain map.
type mapStorage struct {
	data    map[string]string
	saveErr error
	removes int
}

func newMapStorage() *mapStorage { return &mapStorage{data: map[string]string{}} }

func (m *mapStorage) Load(_ context.Context, keys ...string) (map[string]string, error) {
	out := map[string]string{}
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *mapStorage) Save(_ context.Context, entries map[string]string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	for k, v := range entries {
		m.data[k] = v
	}
	return nil
}

func (m *mapStorage) Remove(_ context.Context, keys ...string) error {
	m.removes++
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

type authFunc func(ctx context.Context, email, password string) (*model.SignInResponse, error)

func (f authFunc) CreateSession(ctx context.Context, email, password string) (*model.SignInResponse, error) {
	return f(ctx, email, password)
}

func okAuth(token string, user model.Identity) authFunc {
	return func(context.Context, string, string) (*model.SignInResponse, error) {
		return &model.SignInResponse{Token: token, User: user}, nil
	}
}

var ana = model.Identity{ID: "u1", Name: "Ana", Email: "ana@example.com", Role: model.RoleParticipant}

func TestOpenEmptyIsUnauthenticated(t *testing.T) {
	s, err := Open(context.Background(), newMapStorage())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.IsAuthenticated() || s.Token() != "" {
		t.Fatal("expected unauthenticated store")
	}
}

func TestSignInPersistsAndRehydrates(t *testing.T) {
	ctx := context.Background()
	storage := newMapStorage()
	s, _ := Open(ctx, storage)

	if err := s.SignIn(ctx, okAuth("tok-1", ana), "ana@example.com", "secret"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if !s.IsAuthenticated() || s.Token() != "tok-1" {
		t.Fatal("expected authenticated store after sign-in")
	}
	if storage.data[TokenKey] != "tok-1" || storage.data[UserKey] == "" {
		t.Fatalf("entries not persisted: %+v", storage.data)
	}

	again, err := Open(ctx, storage)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got := again.Identity()
	if got == nil || got.ID != "u1" || got.Role != model.RoleParticipant {
		t.Fatalf("rehydrated identity = %+v", got)
	}
}

func TestSignOutClearsBothEntries(t *testing.T) {
	ctx := context.Background()
	storage := newMapStorage()
	s, _ := Open(ctx, storage)
	_ = s.SignIn(ctx, okAuth("tok-1", ana), "ana@example.com", "secret")

	if err := s.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if err := s.SignOut(ctx); err != nil {
		t.Fatalf("second SignOut: %v", err)
	}
	if len(storage.data) != 0 {
		t.Fatalf("entries left behind: %+v", storage.data)
	}

	again, _ := Open(ctx, storage)
	if again.IsAuthenticated() {
		t.Fatal("rehydration after sign-out must be unauthenticated")
	}
}

func TestOpenPartialEntriesNeverRehydrate(t *testing.T) {
	tests := []struct {
		name string
		data map[string]string
	}{
		{"token only", map[string]string{TokenKey: "tok"}},
		{"user only", map[string]string{UserKey: `{"id":"u1","role":"PARTICIPANT"}`}},
		{"malformed user", map[string]string{TokenKey: "tok", UserKey: `{"id":`}},
		{"user without id", map[string]string{TokenKey: "tok", UserKey: `{"name":"Ana","role":"PARTICIPANT"}`}},
		{"unknown role", map[string]string{TokenKey: "tok", UserKey: `{"id":"u1","role":"ADMIN"}`}},
		{"blank token", map[string]string{TokenKey: "", UserKey: `{"id":"u1","role":"PARTICIPANT"}`}},
		{"token with spaces", map[string]string{TokenKey: "a b", UserKey: `{"id":"u1","role":"PARTICIPANT"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := &mapStorage{data: tt.data}
			s, err := Open(context.Background(), storage)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if s.IsAuthenticated() {
				t.Fatal("partial session must not rehydrate")
			}
			if len(storage.data) != 0 {
				t.Fatalf("partial entries not cleared: %+v", storage.data)
			}
		})
	}
}

func TestSignInRejectedByBackend(t *testing.T) {
	ctx := context.Background()
	storage := newMapStorage()
	s, _ := Open(ctx, storage)
	reject := authFunc(func(context.Context, string, string) (*model.SignInResponse, error) {
		return nil, &apperr.Error{Kind: apperr.KindAuthentication, Status: http.StatusUnauthorized, Message: "Invalid email or password"}
	})

	err := s.SignIn(ctx, reject, "ana@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if apperr.KindOf(err) != apperr.KindAuthentication {
		t.Fatalf("kind = %q", apperr.KindOf(err))
	}
	if apperr.MessageOr(err, "") != "Invalid email or password" {
		t.Fatalf("backend message lost: %v", err)
	}
	if s.IsAuthenticated() || len(storage.data) != 0 {
		t.Fatal("failed sign-in must not change state")
	}
}

func TestSignInNetworkFailure(t *testing.T) {
	s, _ := Open(context.Background(), newMapStorage())
	down := authFunc(func(context.Context, string, string) (*model.SignInResponse, error) {
		return nil, &apperr.Error{Kind: apperr.KindUnavailable, Err: errors.New("connection refused")}
	})

	err := s.SignIn(context.Background(), down, "ana@example.com", "secret")
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("network failure reported as invalid credentials")
	}
	if apperr.KindOf(err) != apperr.KindUnavailable {
		t.Fatalf("kind = %q, want unavailable", apperr.KindOf(err))
	}
}

func TestSignInKeepsPreviousIdentityOnFailure(t *testing.T) {
	ctx := context.Background()
	storage := newMapStorage()
	s, _ := Open(ctx, storage)
	_ = s.SignIn(ctx, okAuth("tok-1", ana), "ana@example.com", "secret")

	storage.saveErr = errors.New("disk full")
	other := model.Identity{ID: "u2", Role: model.RoleOrganizer}
	if err := s.SignIn(ctx, okAuth("tok-2", other), "o@example.com", "secret"); err == nil {
		t.Fatal("expected persist error")
	}
	if got := s.Identity(); got == nil || got.ID != "u1" || s.Token() != "tok-1" {
		t.Fatalf("identity changed after failed persist: %+v", got)
	}
}

func jwtWithSubject(sub string) string {
	enc := base64.RawURLEncoding
	header := enc.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := enc.EncodeToString([]byte(`{"sub":"` + sub + `"}`))
	return header + "." + payload + "." + enc.EncodeToString([]byte("sig"))
}

func TestTokenMatches(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"opaque", "abc123", true},
		{"jwt same subject", jwtWithSubject("u1"), true},
		{"jwt other subject", jwtWithSubject("u2"), false},
		{"broken jwt", "a.b.c", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		if got := TokenMatches(tt.token, "u1"); got != tt.want {
			t.Errorf("%s: TokenMatches = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	s, _ := Open(context.Background(), newMapStorage())
	ctx := WithStore(context.Background(), s)
	if FromContext(ctx) != s {
		t.Fatal("store not carried by context")
	}
	if FromContext(context.Background()) != nil {
		t.Fatal("expected nil store on bare context")
	}
	var nilStore *Store
	if nilStore.IsAuthenticated() {
		t.Fatal("nil store must be unauthenticated")
	}
}
