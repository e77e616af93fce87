package service

import (
	"context"
	"strings"

	"github.com/Shivanand-hulikatti/eventsync-web/internal/model"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/validation"
)

// SocialAPI is the subset of the backend used for friends and messages.
type SocialAPI interface {
	SendFriendRequest(ctx context.Context, userID string) error
	RespondFriendRequest(ctx context.Context, requestID string, accept bool) error
	Friends(ctx context.Context) ([]model.Friend, error)
	FriendRequests(ctx context.Context) ([]model.FriendRequest, error)
	Messages(ctx context.Context) ([]model.Message, error)
	SendMessage(ctx context.Context, userID, content string) error
}

// SocialService handles friend requests and messages.
type SocialService struct {
	api      SocialAPI
	validate *validation.Validator
}

// NewSocialService constructs a SocialService.
func NewSocialService(api SocialAPI, validate *validation.Validator) *SocialService {
	return &SocialService{api: api, validate: validate}
}

func (s *SocialService) Friends(ctx context.Context) ([]model.Friend, error) {
	return s.api.Friends(ctx)
}

func (s *SocialService) Requests(ctx context.Context) ([]model.FriendRequest, error) {
	return s.api.FriendRequests(ctx)
}

func (s *SocialService) Messages(ctx context.Context) ([]model.Message, error) {
	return s.api.Messages(ctx)
}

// SendFriendRequest asks userID to become a friend.
func (s *SocialService) SendFriendRequest(ctx context.Context, userID string) error {
	return s.api.SendFriendRequest(ctx, userID)
}

// Respond accepts or declines a pending friend request.
func (s *SocialService) Respond(ctx context.Context, requestID string, accept bool) error {
	return s.api.RespondFriendRequest(ctx, requestID, accept)
}

// SendMessage validates and sends a message to a friend.
func (s *SocialService) SendMessage(ctx context.Context, friendID string, in model.MessageInput) error {
	in.Content = strings.TrimSpace(in.Content)
	if err := s.validate.Struct(in); err != nil {
		return err
	}
	return s.api.SendMessage(ctx, friendID, in.Content)
}
