package service

import (
	"context"
	"testing"

	"github.com/Shivanand-hulikatti/eventsync-web/internal/model"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/session"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/validation"
)

type fakeSocial struct {
	sent    []string
	accept  map[string]bool
	friends []model.Friend
}

func (f *fakeSocial) SendFriendRequest(_ context.Context, userID string) error {
	f.sent = append(f.sent, "friend:"+userID)
	return nil
}

func (f *fakeSocial) RespondFriendRequest(_ context.Context, id string, accept bool) error {
	if f.accept == nil {
		f.accept = map[string]bool{}
	}
	f.accept[id] = accept
	return nil
}

func (f *fakeSocial) Friends(context.Context) ([]model.Friend, error) { return f.friends, nil }

func (f *fakeSocial) FriendRequests(context.Context) ([]model.FriendRequest, error) { return nil, nil }

func (f *fakeSocial) Messages(context.Context) ([]model.Message, error) { return nil, nil }

func (f *fakeSocial) SendMessage(_ context.Context, userID, content string) error {
	f.sent = append(f.sent, "message:"+userID+":"+content)
	return nil
}

func TestSendMessageValidatesBeforeNetwork(t *testing.T) {
	api := &fakeSocial{}
	svc := NewSocialService(api, validation.New())
	ctx := context.Background()

	if err := svc.SendMessage(ctx, "f1", model.MessageInput{Content: "  \n "}); validation.FieldsOf(err)["content"] == "" {
		t.Fatalf("err = %v, want content error", err)
	}
	if len(api.sent) != 0 {
		t.Fatalf("blank message was sent: %v", api.sent)
	}

	if err := svc.SendMessage(ctx, "f1", model.MessageInput{Content: " see you there "}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if api.sent[0] != "message:f1:see you there" {
		t.Fatalf("sent = %v", api.sent)
	}
}

func TestRespondAndRequest(t *testing.T) {
	api := &fakeSocial{}
	svc := NewSocialService(api, validation.New())
	ctx := context.Background()

	_ = svc.Respond(ctx, "fr1", false)
	_ = svc.SendFriendRequest(ctx, "u2")
	if accepted, ok := api.accept["fr1"]; !ok || accepted {
		t.Fatalf("accept = %v", api.accept)
	}
	if api.sent[0] != "friend:u2" {
		t.Fatalf("sent = %v", api.sent)
	}
}

type fakeAccounts struct {
	signUps int
	res     *model.SignInResponse
}

func (f *fakeAccounts) CreateSession(context.Context, string, string) (*model.SignInResponse, error) {
	return f.res, nil
}

func (f *fakeAccounts) SignUp(context.Context, model.SignUpRequest) error {
	f.signUps++
	return nil
}

func (f *fakeAccounts) Profile(context.Context) (*model.Identity, error) { return &f.res.User, nil }

type nopStorage struct{}

func (nopStorage) Load(context.Context, ...string) (map[string]string, error) { return nil, nil }
func (nopStorage) Save(context.Context, map[string]string) error              { return nil }
func (nopStorage) Remove(context.Context, ...string) error                    { return nil }

func TestAccountServiceValidates(t *testing.T) {
	api := &fakeAccounts{res: &model.SignInResponse{Token: "tok", User: model.Identity{ID: "u1", Role: model.RoleParticipant}}}
	svc := NewAccountService(api, validation.New())
	ctx := context.Background()

	if err := svc.SignUp(ctx, model.SignUpRequest{Name: "Al"}); validation.FieldsOf(err) == nil {
		t.Fatalf("err = %v, want validation error", err)
	}
	if api.signUps != 0 {
		t.Fatal("invalid sign-up reached the backend")
	}

	store, _ := session.Open(ctx, nopStorage{})
	if err := svc.SignIn(ctx, store, model.SignInRequest{Email: "bad", Password: "x"}); validation.FieldsOf(err)["email"] == "" {
		t.Fatalf("err = %v, want email error", err)
	}
	if err := svc.SignIn(ctx, store, model.SignInRequest{Email: " ana@example.com ", Password: "secret"}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if !store.IsAuthenticated() {
		t.Fatal("store not signed in")
	}
}
