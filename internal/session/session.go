// Package session holds the authenticated identity and bearer token of one
// client, persisted under two fixed keys.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Shivanand-hulikatti/eventsync-web/internal/apperr"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/model"
)

// Persisted keys. Both are written together and removed together.
const (
	TokenKey = "@EventSync:token"
	UserKey  = "@EventSync:user"
)

// ErrInvalidCredentials is returned when the backend rejects a sign-in.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Storage is the flat key/value cache a Store persists into.
// Save and Remove must apply all of their keys atomically.
type Storage interface {
	Load(ctx context.Context, keys ...string) (map[string]string, error)
	Save(ctx context.Context, entries map[string]string) error
	Remove(ctx context.Context, keys ...string) error
}

// Authenticator exchanges credentials for a token and identity.
type Authenticator interface {
	CreateSession(ctx context.Context, email, password string) (*model.SignInResponse, error)
}

// Store is the session context object. It is rehydrated once by Open and
// only changes through SignIn and SignOut.
type Store struct {
	storage Storage

	mu       sync.RWMutex
	token    string
	identity *model.Identity
}

// Open rehydrates a Store from storage. A missing or malformed entry yields an
// unauthenticated store and any leftover partial entry is removed.
func Open(ctx context.Context, storage Storage) (*Store, error) {
	s := &Store{storage: storage}

	entries, err := storage.Load(ctx, TokenKey, UserKey)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	token, hasToken := entries[TokenKey]
	rawUser, hasUser := entries[UserKey]
	if !hasToken && !hasUser {
		return s, nil
	}

	identity, ok := rehydrate(token, rawUser)
	if !ok {
		if err := storage.Remove(ctx, TokenKey, UserKey); err != nil {
			return nil, fmt.Errorf("clear partial session: %w", err)
		}
		return s, nil
	}
	s.token = token
	s.identity = identity
	return s, nil
}

func rehydrate(token, rawUser string) (*model.Identity, bool) {
	if token == "" || rawUser == "" {
		return nil, false
	}
	var identity model.Identity
	if err := json.Unmarshal([]byte(rawUser), &identity); err != nil {
		return nil, false
	}
	if strings.TrimSpace(identity.ID) == "" || !identity.Role.Valid() {
		return nil, false
	}
	if !TokenMatches(token, identity.ID) {
		return nil, false
	}
	return &identity, true
}

// TokenMatches reports whether token is well-formed for the given identity.
// Opaque tokens only need to be non-empty without whitespace. JWTs are parsed
// without verification and a present "sub" claim must equal identityID.
// Expiry is not checked.
func TokenMatches(token, identityID string) bool {
	if token == "" || strings.ContainsAny(token, " \t\r\n") {
		return false
	}
	if strings.Count(token, ".") != 2 {
		return true
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return false
	}
	return sub == "" || sub == identityID
}

// SignIn exchanges credentials through auth and persists the result.
// A failed sign-in leaves the current state untouched.
func (s *Store) SignIn(ctx context.Context, auth Authenticator, email, password string) error {
	res, err := auth.CreateSession(ctx, email, password)
	if err != nil {
		if status := apperr.StatusOf(err); status >= 400 && status < 500 {
			return &apperr.Error{
				Kind:    apperr.KindAuthentication,
				Status:  status,
				Op:      "sign in",
				Message: apperr.MessageOr(err, ""),
				Err:     ErrInvalidCredentials,
			}
		}
		return &apperr.Error{Kind: apperr.KindUnavailable, Op: "sign in", Err: err}
	}
	if res == nil || res.Token == "" || res.User.ID == "" {
		return &apperr.Error{Kind: apperr.KindUnavailable, Op: "sign in", Err: errors.New("incomplete session response")}
	}

	rawUser, err := json.Marshal(res.User)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := s.storage.Save(ctx, map[string]string{
		TokenKey: res.Token,
		UserKey:  string(rawUser),
	}); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	user := res.User
	s.mu.Lock()
	s.token = res.Token
	s.identity = &user
	s.mu.Unlock()
	return nil
}

// SignOut clears both persisted entries and the in-memory state. It is idempotent.
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.identity = nil
	s.mu.Unlock()
	if err := s.storage.Remove(ctx, TokenKey, UserKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Identity returns a copy of the current identity, or nil when signed out.
func (s *Store) Identity() *model.Identity {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

// Token returns the bearer token, or "" when signed out.
func (s *Store) Token() string {
	if s == nil {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsAuthenticated reports whether an identity is present.
func (s *Store) IsAuthenticated() bool {
	return s.Identity() != nil
}

type ctxKey struct{}

// WithStore returns a context carrying s.
func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the Store carried by ctx, or nil.
func FromContext(ctx context.Context) *Store {
	s, _ := ctx.Value(ctxKey{}).(*Store)
	return s
}
