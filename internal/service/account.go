package service

import (
	"context"
	"strings"

	"github.com/Shivanand-hulikatti/eventsync-web/internal/model"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/session"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/validation"
)

// AccountAPI is the subset of the backend used for accounts.
type AccountAPI interface {
	session.Authenticator
	SignUp(ctx context.Context, req model.SignUpRequest) error
	Profile(ctx context.Context) (*model.Identity, error)
}

// AccountService validates credentials before they reach the backend.
type AccountService struct {
	api      AccountAPI
	validate *validation.Validator
}

// NewAccountService constructs an AccountService.
func NewAccountService(api AccountAPI, validate *validation.Validator) *AccountService {
	return &AccountService{api: api, validate: validate}
}

// SignIn validates req and signs store in.
func (s *AccountService) SignIn(ctx context.Context, store *session.Store, req model.SignInRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return err
	}
	return store.SignIn(ctx, s.api, req.Email, req.Password)
}

// SignUp validates req and creates the account.
func (s *AccountService) SignUp(ctx context.Context, req model.SignUpRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return err
	}
	return s.api.SignUp(ctx, req)
}

// Profile returns the viewer's profile as the backend knows it.
func (s *AccountService) Profile(ctx context.Context) (*model.Identity, error) {
	return s.api.Profile(ctx)
}
