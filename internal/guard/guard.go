// Package guard holds the route guards. They keep no state and read the
// session from the request context every time.
package guard

import (
	"net/http"

	"github.com/Shivanand-hulikatti/eventsync-web/internal/model"
	"github.com/Shivanand-hulikatti/eventsync-web/internal/session"
)

// Requirement is what a route needs from the viewer.
type Requirement int

const (
	RequireAuthenticated Requirement = iota
	RequireOrganizer
)

// Outcome is the decision for one request.
type Outcome int

const (
	// Allow serves the route.
	Allow Outcome = iota
	// ToSignIn redirects an anonymous viewer to the sign-in route.
	ToSignIn
	// ToLanding redirects a signed-in viewer lacking the role.
	ToLanding
)

// Decide is the pure guard decision shared by the middleware and the station.
func Decide(identity *model.Identity, req Requirement) Outcome {
	if identity == nil {
		return ToSignIn
	}
	if req == RequireOrganizer && !identity.IsOrganizer() {
		return ToLanding
	}
	return Allow
}

// Authenticated redirects viewers without an identity to signInPath.
func Authenticated(signInPath string) func(http.Handler) http.Handler {
	return require(RequireAuthenticated, signInPath, signInPath)
}

// Organizer redirects non-organizers to landingPath and anonymous viewers to signInPath.
func Organizer(signInPath, landingPath string) func(http.Handler) http.Handler {
	return require(RequireOrganizer, signInPath, landingPath)
}

func require(req Requirement, signInPath, landingPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch Decide(session.FromContext(r.Context()).Identity(), req) {
			case ToSignIn:
				http.Redirect(w, r, signInPath, http.StatusSeeOther)
			case ToLanding:
				http.Redirect(w, r, landingPath, http.StatusSeeOther)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
