package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shivanand-hulikatti/eventsync-web/internal/flash"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/model"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/validation"
)

const (
	tabFriends  = "friends"
	tabRequests = "requests"
	tabMessages = "messages"
)

type friendsPage struct {
	Tab      string
	Friends  []model.Friend
	Requests []model.FriendRequest
	Messages []model.Message
	// Errors is keyed by friend id for the message forms.
	Errors map[string]string
}

// Friends handles GET /friends?tab=friends|requests|messages
func (h *Handler) Friends(w http.ResponseWriter, r *http.Request) {
	h.renderFriends(w, r, http.StatusOK, r.URL.Query().Get("tab"), nil)
}

func (h *Handler) renderFriends(w http.ResponseWriter, r *http.Request, status int, tab string, errs map[string]string) {
	svc := h.social(r)
	data := friendsPage{Tab: tab, Errors: errs}

	var err error
	switch tab {
	case tabRequests:
		data.Requests, err = svc.Requests(r.Context())
	case tabMessages:
		data.Messages, err = svc.Messages(r.Context())
	default:
		data.Tab = tabFriends
		data.Friends, err = svc.Friends(r.Context())
	}
	if err != nil {
		h.failPage(w, r, err)
		return
	}
	h.render(w, r, status, "friends.html", page{Title: "Friends", Page: data})
}

// RespondFriendRequest handles POST /friends/requests/{id}
func (h *Handler) RespondFriendRequest(w http.ResponseWriter, r *http.Request) {
	back := "/friends?tab=" + tabRequests
	var in model.FriendResponse
	if err := parseForm(w, r); err != nil {
		h.redirect(w, r, back)
		return
	}
	in.Accept = r.PostForm.Get("accept") == "true"

	if err := h.social(r).Respond(r.Context(), chi.URLParam(r, "id"), in.Accept); err != nil {
		h.fail(w, r, err, back)
		return
	}
	if in.Accept {
		h.notify(w, flash.Success("Friend request accepted."))
	} else {
		h.notify(w, flash.Info("Friend request declined."))
	}
	h.redirect(w, r, back)
}

// SendMessage handles POST /friends/{id}/messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	friendID := chi.URLParam(r, "id")
	var in model.MessageInput
	if err := decodeForm(w, r, &in); err != nil {
		h.redirect(w, r, "/friends")
		return
	}

	err := h.social(r).SendMessage(r.Context(), friendID, in)
	if errs := validation.FieldsOf(err); errs != nil {
		h.renderFriends(w, r, http.StatusUnprocessableEntity, tabFriends, map[string]string{friendID: errs["content"]})
		return
	}
	if err != nil {
		h.fail(w, r, err, "/friends")
		return
	}
	h.notify(w, flash.Success("Message sent."))
	h.redirect(w, r, "/friends")
}
