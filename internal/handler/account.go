package handler

import (
	"errors"
	"net/http"

	"github.com/Shivanand-hulikatti/eventsync-web/internal/apperr"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/flash"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/form"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/model"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/session"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/validation"
)

const invalidCredentials = "Invalid email or password."

type signInPage struct {
	Values model.SignInRequest
	Errors validation.FieldErrors
}

type signUpPage struct {
	Values model.SignUpRequest
	Errors validation.FieldErrors
}

type profilePage struct {
	Profile *model.Identity
}

// SignInPage handles GET /
func (h *Handler) SignInPage(w http.ResponseWriter, r *http.Request) {
	if h.identity(r) != nil {
		h.redirect(w, r, landingPath)
		return
	}
	h.render(w, r, http.StatusOK, "signin.html", page{Title: "Sign in", Page: signInPage{}})
}

// SignIn handles POST /
// On success the identity and token are persisted for this browser.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req model.SignInRequest
	if err := decodeForm(w, r, &req); err != nil {
		h.render(w, r, http.StatusBadRequest, "signin.html", page{Title: "Sign in", Error: "The form could not be read.", Page: signInPage{}})
		return
	}

	err := h.accounts(r).SignIn(r.Context(), h.store(r), req)
	if err == nil {
		h.log.Info().Str("user_id", h.identity(r).ID).Msg("signed in")
		h.redirect(w, r, landingPath)
		return
	}

	data := signInPage{Values: model.SignInRequest{Email: req.Email}, Errors: validation.FieldsOf(err)}
	switch {
	case data.Errors != nil:
		h.render(w, r, http.StatusUnprocessableEntity, "signin.html", page{Title: "Sign in", Page: data})
	case errors.Is(err, session.ErrInvalidCredentials):
		h.render(w, r, http.StatusUnauthorized, "signin.html", page{Title: "Sign in", Error: apperr.MessageOr(err, invalidCredentials), Page: data})
	default:
		h.logFailure(r, err)
		h.render(w, r, http.StatusBadGateway, "signin.html", page{Title: "Sign in", Error: userMessage(err), Page: data})
	}
}

// SignUpPage handles GET /register
func (h *Handler) SignUpPage(w http.ResponseWriter, r *http.Request) {
	if h.identity(r) != nil {
		h.redirect(w, r, landingPath)
		return
	}
	h.render(w, r, http.StatusOK, "register.html", page{Title: "Create account", Page: signUpPage{}})
}

// SignUp handles POST /register
func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req model.SignUpRequest
	if err := decodeForm(w, r, &req); err != nil {
		h.render(w, r, http.StatusBadRequest, "register.html", page{Title: "Create account", Error: "The form could not be read.", Page: signUpPage{}})
		return
	}

	err := h.accounts(r).SignUp(r.Context(), req)
	if err == nil {
		h.notify(w, flash.Success("Account created. Sign in to continue."))
		h.redirect(w, r, signInPath)
		return
	}

	data := signUpPage{
		Values: model.SignUpRequest{Name: req.Name, Email: req.Email, Role: req.Role},
		Errors: validation.FieldsOf(err),
	}
	if data.Errors != nil {
		h.render(w, r, http.StatusUnprocessableEntity, "register.html", page{Title: "Create account", Page: data})
		return
	}
	h.logFailure(r, err)
	h.render(w, r, apperr.HTTPStatus(err), "register.html", page{Title: "Create account", Error: userMessage(err), Page: data})
}

// SignOut handles POST /signout
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.store(r).SignOut(r.Context()); err != nil {
		h.logFailure(r, err)
		h.notify(w, flash.Error("Sign out failed. Please try again."))
		h.redirect(w, r, landingPath)
		return
	}
	clearSessionID(w, h.secure)
	h.redirect(w, r, signInPath)
}

// Profile handles GET /profile
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.accounts(r).Profile(r.Context())
	if err != nil {
		h.failPage(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "profile.html", page{Title: profile.Name, Page: profilePage{Profile: profile}})
}

// decodeForm parses the request body into dst through its form tags.
func decodeForm(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := parseForm(w, r); err != nil {
		return err
	}
	return form.Unmarshal(r.PostForm, dst)
}
