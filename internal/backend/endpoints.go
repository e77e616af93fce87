package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Shivanand-hulikatti/eventsync-web/internal/model"
)

func seg(id string) string { return url.PathEscape(id) }

// ─── Accounts ─────────────────────────────────────────────────────────────────

// CreateSession handles POST /sessions.
func (c *Client) CreateSession(ctx context.Context, email, password string) (*model.SignInResponse, error) {
	var out model.SignInResponse
	if err := c.do(ctx, http.MethodPost, "/sessions", model.SignInRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignUp handles POST /users.
func (c *Client) SignUp(ctx context.Context, req model.SignUpRequest) error {
	return c.do(ctx, http.MethodPost, "/users", req, nil)
}

// Profile handles GET /profile.
func (c *Client) Profile(ctx context.Context) (*model.Identity, error) {
	var out model.Identity
	if err := c.do(ctx, http.MethodGet, "/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ─── Events ───────────────────────────────────────────────────────────────────

// ListEvents handles GET /events.
func (c *Client) ListEvents(ctx context.Context) ([]model.Event, error) {
	var out []model.Event
	if err := c.do(ctx, http.MethodGet, "/events", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetEvent handles GET /events/:id.
func (c *Client) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	var out model.Event
	if err := c.do(ctx, http.MethodGet, "/events/"+seg(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateEvent handles POST /events.
func (c *Client) CreateEvent(ctx context.Context, in model.EventInput) error {
	return c.do(ctx, http.MethodPost, "/events", in, nil)
}

// UpdateEvent handles PUT /events/:id.
func (c *Client) UpdateEvent(ctx context.Context, id string, in model.EventInput) error {
	return c.do(ctx, http.MethodPut, "/events/"+seg(id), in, nil)
}

// DeleteEvent handles DELETE /events/:id.
func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/events/"+seg(id), nil, nil)
}

// ─── Registrations ────────────────────────────────────────────────────────────

// Subscribe handles POST /events/:id/registrations.
func (c *Client) Subscribe(ctx context.Context, eventID string) error {
	return c.do(ctx, http.MethodPost, "/events/"+seg(eventID)+"/registrations", nil, nil)
}

// MyRegistrations handles GET /registrations.
func (c *Client) MyRegistrations(ctx context.Context) ([]model.Registration, error) {
	var out []model.Registration
	if err := c.do(ctx, http.MethodGet, "/registrations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EventRegistrations handles GET /events/:id/registrations.
func (c *Client) EventRegistrations(ctx context.Context, eventID string) ([]model.Registration, error) {
	var out []model.Registration
	if err := c.do(ctx, http.MethodGet, "/events/"+seg(eventID)+"/registrations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ApproveRegistration handles PATCH /registrations/:id/approve.
func (c *Client) ApproveRegistration(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/registrations/"+seg(id)+"/approve", nil, nil)
}

// RejectRegistration handles PATCH /registrations/:id/reject.
func (c *Client) RejectRegistration(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/registrations/"+seg(id)+"/reject", nil, nil)
}

// CancelRegistration handles DELETE /registrations/:id.
func (c *Client) CancelRegistration(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/registrations/"+seg(id), nil, nil)
}

// CheckIn handles POST /events/:id/check-in.
func (c *Client) CheckIn(ctx context.Context, eventID, participantID string) error {
	return c.do(ctx, http.MethodPost, "/events/"+seg(eventID)+"/check-in", model.CheckInRequest{ParticipantID: participantID}, nil)
}

// CreateReview handles POST /events/:id/reviews.
func (c *Client) CreateReview(ctx context.Context, eventID string, in model.ReviewInput) error {
	return c.do(ctx, http.MethodPost, "/events/"+seg(eventID)+"/reviews", in, nil)
}

// ─── Social ───────────────────────────────────────────────────────────────────

// SendFriendRequest handles POST /users/:id/friend-request.
func (c *Client) SendFriendRequest(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodPost, "/users/"+seg(userID)+"/friend-request", nil, nil)
}

// RespondFriendRequest handles PUT /friends/requests/:id.
func (c *Client) RespondFriendRequest(ctx context.Context, requestID string, accept bool) error {
	return c.do(ctx, http.MethodPut, "/friends/requests/"+seg(requestID), model.FriendResponse{Accept: accept}, nil)
}

// Friends handles GET /friends.
func (c *Client) Friends(ctx context.Context) ([]model.Friend, error) {
	var out []model.Friend
	if err := c.do(ctx, http.MethodGet, "/friends", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FriendRequests handles GET /friends/requests.
func (c *Client) FriendRequests(ctx context.Context) ([]model.FriendRequest, error) {
	var out []model.FriendRequest
	if err := c.do(ctx, http.MethodGet, "/friends/requests", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Messages handles GET /my-messages.
func (c *Client) Messages(ctx context.Context) ([]model.Message, error) {
	var out []model.Message
	if err := c.do(ctx, http.MethodGet, "/my-messages", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessage handles POST /users/:id/messages.
func (c *Client) SendMessage(ctx context.Context, userID, content string) error {
	return c.do(ctx, http.MethodPost, "/users/"+seg(userID)+"/messages", model.MessageInput{Content: content}, nil)
}
