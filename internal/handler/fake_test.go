package handler

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/eventsync-web/internal/apperr"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/model"
)

func backendErr(status int, msg string) error {
	return &apperr.Error{Kind: apperr.FromStatus(status), Status: status, Message: msg}
}

// fakeBackend is an in-memory EventSync API shared by every viewer.
type fakeBackend struct {
	mu          sync.Mutex
	users       map[string]model.Identity // by email
	events      []model.Event
	regs        []model.Registration
	failApprove map[string]bool
	expired     bool
	expireOn    map[string]bool // op names that answer 401
	regsDown    bool
	checkIns    []string
	messages    map[string][]string
}

func newFakeBackend() *fakeBackend {
	date := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	return &fakeBackend{
		users: map[string]model.Identity{
			"ana@example.com":   {ID: "u1", Name: "Ana Lima", Email: "ana@example.com", Role: model.RoleParticipant},
			"bob@example.com":   {ID: "u3", Name: "Bob Stone", Email: "bob@example.com", Role: model.RoleParticipant},
			"olga@example.com":  {ID: "o1", Name: "Olga Park", Email: "olga@example.com", Role: model.RoleOrganizer},
			"oscar@example.com": {ID: "o2", Name: "Oscar Ruiz", Email: "oscar@example.com", Role: model.RoleOrganizer},
		},
		events: []model.Event{
			{
				ID:          "e1",
				Title:       "Go Meetup",
				Description: "**Bring** a laptop <script>alert(1)</script>",
				Date:        &date,
				Location:    "Lisbon",
				Organizer:   model.Person{ID: "o1", Name: "Olga Park"},
			},
			{
				ID:          "e2",
				Title:       "Rust Night",
				Description: "Ownership all the way down.",
				Date:        &date,
				Location:    "Porto",
				Organizer:   model.Person{ID: "o2", Name: "Oscar Ruiz"},
			},
		},
		failApprove: map[string]bool{},
		expireOn:    map[string]bool{},
		messages:    map[string][]string{},
	}
}

func (b *fakeBackend) userByID(id string) (model.Identity, bool) {
	for _, u := range b.users {
		if u.ID == id {
			return u, true
		}
	}
	return model.Identity{}, false
}

func (b *fakeBackend) addRegistration(id, eventID, userID string, status model.RegistrationStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, _ := b.userByID(userID)
	b.regs = append(b.regs, model.Registration{
		ID:     id,
		Event:  *b.event(eventID),
		User:   &model.Person{ID: u.ID, Name: u.Name, Email: u.Email},
		Status: status,
	})
}

func (b *fakeBackend) registration(id string) *model.Registration {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.regs {
		if b.regs[i].ID == id {
			r := b.regs[i]
			return &r
		}
	}
	return nil
}

func (b *fakeBackend) event(id string) *model.Event {
	for i := range b.events {
		if b.events[i].ID == id {
			return &b.events[i]
		}
	}
	return nil
}

func (b *fakeBackend) findEvent(id string) *model.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e := b.event(id); e != nil {
		cp := *e
		return &cp
	}
	return nil
}

func (b *fakeBackend) setExpired(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expired = v
}

// expireDuring makes op answer 401 while every other call still succeeds.
func (b *fakeBackend) expireDuring(op string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expireOn[op] = true
}

func (b *fakeBackend) setRegistrationsDown(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.regsDown = v
}

func (b *fakeBackend) failApproval(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failApprove[id] = true
}

func (b *fakeBackend) checkInCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.checkIns)
}

func (b *fakeBackend) sentMessages(userID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.messages[userID]...)
}

// client returns the view of the backend for one bearer token.
func (b *fakeBackend) client(token string) API {
	return &fakeClient{b: b, token: token}
}

type fakeClient struct {
	b     *fakeBackend
	token string
}

func (c *fakeClient) viewer() (model.Identity, error) {
	if c.b.expired || !strings.HasPrefix(c.token, "tok-") {
		return model.Identity{}, backendErr(http.StatusUnauthorized, "Token expired")
	}
	u, ok := c.b.userByID(strings.TrimPrefix(c.token, "tok-"))
	if !ok {
		return model.Identity{}, backendErr(http.StatusUnauthorized, "Unknown token")
	}
	return u, nil
}

func (c *fakeClient) CreateSession(_ context.Context, email, password string) (*model.SignInResponse, error) {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	u, ok := c.b.users[email]
	if !ok || password != "secret" {
		return nil, backendErr(http.StatusUnauthorized, "Invalid email or password.")
	}
	return &model.SignInResponse{Token: "tok-" + u.ID, User: u}, nil
}

func (c *fakeClient) SignUp(_ context.Context, req model.SignUpRequest) error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	if _, ok := c.b.users[req.Email]; ok {
		return backendErr(http.StatusConflict, "Email already in use")
	}
	c.b.users[req.Email] = model.Identity{ID: "n" + req.Email, Name: req.Name, Email: req.Email, Role: req.Role}
	return nil
}

func (c *fakeClient) Profile(context.Context) (*model.Identity, error) {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	u, err := c.viewer()
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *fakeClient) ListEvents(context.Context) ([]model.Event, error) {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	if _, err := c.viewer(); err != nil {
		return nil, err
	}
	return append([]model.Event(nil), c.b.events...), nil
}

func (c *fakeClient) GetEvent(_ context.Context, id string) (*model.Event, error) {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	if _, err := c.viewer(); err != nil {
		return nil, err
	}
	e := c.b.event(id)
	if e == nil {
		return nil, backendErr(http.StatusNotFound, "Event not found")
	}
	cp := *e
	return &cp, nil
}

func (c *fakeClient) CreateEvent(_ context.Context, in model.EventInput) error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	u, err := c.viewer()
	if err != nil {
		return err
	}
	date, _ := time.Parse(time.RFC3339, in.Date)
	c.b.events = append(c.b.events, model.Event{
		ID:           "new",
		Title:        in.Title,
		Description:  in.Description,
		Date:         &date,
		Location:     in.Location,
		LocationType: in.LocationType,
		Organizer:    model.Person{ID: u.ID, Name: u.Name},
	})
	return nil
}

func (c *fakeClient) UpdateEvent(_ context.Context, id string, in model.EventInput) error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	e := c.b.event(id)
	if e == nil {
		return backendErr(http.StatusNotFound, "Event not found")
	}
	e.Title = in.Title
	return nil
}

func (c *fakeClient) DeleteEvent(_ context.Context, id string) error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	for i := range c.b.events {
		if c.b.events[i].ID == id {
			c.b.events = append(c.b.events[:i], c.b.events[i+1:]...)
			return nil
		}
	}
	return backendErr(http.StatusNotFound, "Event not found")
}

func (c *fakeClient) Subscribe(_ context.Context, eventID string) error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	u, err := c.viewer()
	if err != nil {
		return err
	}
	for _, r := range c.b.regs {
		if r.Event.ID == eventID && r.User != nil && r.User.ID == u.ID {
			return backendErr(http.StatusConflict, "User already registered for this event")
		}
	}
	e := c.b.event(eventID)
	if e == nil {
		return backendErr(http.StatusNotFound, "Event not found")
	}
	c.b.regs = append(c.b.regs, model.Registration{
		ID:     "r-" + u.ID + "-" + eventID,
		Event:  *e,
		User:   &model.Person{ID: u.ID, Name: u.Name, Email: u.Email},
		Status: model.StatusPending,
	})
	return nil
}

func (c *fakeClient) MyRegistrations(context.Context) ([]model.Registration, error) {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	u, err := c.viewer()
	if err != nil {
		return nil, err
	}
	if c.b.regsDown {
		return nil, backendErr(http.StatusInternalServerError, "")
	}
	var out []model.Registration
	for _, r := range c.b.regs {
		if r.User != nil && r.User.ID == u.ID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *fakeClient) EventRegistrations(_ context.Context, eventID string) ([]model.Registration, error) {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	if c.b.expireOn["registrations"] {
		return nil, backendErr(http.StatusUnauthorized, "Token expired")
	}
	var out []model.Registration
	for _, r := range c.b.regs {
		if r.Event.ID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *fakeClient) setStatus(id string, status model.RegistrationStatus) error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	if c.b.expireOn["approve"] && status == model.StatusApproved {
		return backendErr(http.StatusUnauthorized, "Token expired")
	}
	if c.b.failApprove[id] && status == model.StatusApproved {
		return backendErr(http.StatusInternalServerError, "approval failed")
	}
	for i := range c.b.regs {
		if c.b.regs[i].ID == id {
			c.b.regs[i].Status = status
			return nil
		}
	}
	return backendErr(http.StatusNotFound, "Registration not found")
}

func (c *fakeClient) ApproveRegistration(_ context.Context, id string) error {
	return c.setStatus(id, model.StatusApproved)
}

func (c *fakeClient) RejectRegistration(_ context.Context, id string) error {
	return c.setStatus(id, model.StatusRejected)
}

func (c *fakeClient) CancelRegistration(_ context.Context, id string) error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	for i := range c.b.regs {
		if c.b.regs[i].ID == id {
			c.b.regs = append(c.b.regs[:i], c.b.regs[i+1:]...)
			return nil
		}
	}
	return backendErr(http.StatusNotFound, "Registration not found")
}

func (c *fakeClient) CheckIn(_ context.Context, eventID, participantID string) error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	if c.b.expireOn["checkin"] {
		return backendErr(http.StatusUnauthorized, "Token expired")
	}
	for i := range c.b.regs {
		r := &c.b.regs[i]
		if r.Event.ID == eventID && r.User != nil && r.User.ID == participantID &&
			r.Status == model.StatusApproved && !r.CheckedIn() {
			now := time.Now()
			r.CheckedInAt = &now
			c.b.checkIns = append(c.b.checkIns, participantID)
			return nil
		}
	}
	return backendErr(http.StatusNotFound, "")
}

func (c *fakeClient) CreateReview(_ context.Context, eventID string, in model.ReviewInput) error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	u, err := c.viewer()
	if err != nil {
		return err
	}
	e := c.b.event(eventID)
	if e == nil {
		return backendErr(http.StatusNotFound, "Event not found")
	}
	e.Reviews = append(e.Reviews, model.Review{ID: "rv", UserID: u.ID, Rating: in.Rating, Comment: in.Comment})
	return nil
}

func (c *fakeClient) SendFriendRequest(context.Context, string) error { return nil }

func (c *fakeClient) RespondFriendRequest(context.Context, string, bool) error { return nil }

func (c *fakeClient) Friends(context.Context) ([]model.Friend, error) {
	return []model.Friend{{ID: "u3", Name: "Bob Stone", Email: "bob@example.com"}}, nil
}

func (c *fakeClient) FriendRequests(context.Context) ([]model.FriendRequest, error) {
	return []model.FriendRequest{{ID: "fr1", Sender: model.Person{ID: "u4", Name: "Cleo Marsh"}}}, nil
}

func (c *fakeClient) Messages(context.Context) ([]model.Message, error) {
	return []model.Message{{ID: "m1", Sender: model.Person{Name: "Bob Stone"}, Content: "See you there"}}, nil
}

func (c *fakeClient) SendMessage(_ context.Context, userID, content string) error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	c.b.messages[userID] = append(c.b.messages[userID], content)
	return nil
}
