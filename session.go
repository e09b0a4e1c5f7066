package reviews

import "fmt"

// SessionState is the outcome of resolving a request's session cookie.
// It is either Authenticated or Anonymous.
type SessionState interface {
	// CurrentUser returns the live user, or nil when anonymous
	CurrentUser() *User
	// IsAuthenticated reports whether the request carries a live session
	IsAuthenticated() bool
	sessionState()
}

// Authenticated is a request whose token matches the user's stored token
type Authenticated struct {
	User  *User
	Token string
}

func (a Authenticated) CurrentUser() *User    { return a.User }
func (a Authenticated) IsAuthenticated() bool { return true }
func (a Authenticated) sessionState()         {}

func (a Authenticated) String() string {
	return fmt.Sprintf("authenticated user=%s role=%s", a.User.ID, a.User.Role)
}

// Anonymous is a request without a live session. Reason and Cause are
// informational only and never shown to clients.
type Anonymous struct {
	Reason string
	// Cause is the error that rejected a presented token, nil when no
	// token was sent
	Cause error
}

func (Anonymous) CurrentUser() *User    { return nil }
func (Anonymous) IsAuthenticated() bool { return false }
func (Anonymous) sessionState()         {}

func (a Anonymous) String() string {
	if a.Reason == "" {
		return "anonymous"
	}
	return "anonymous (" + a.Reason + ")"
}

const (
	reasonNoToken      = "no token"
	reasonInvalidToken = "invalid token"
	reasonUnknownUser  = "unknown user"
	reasonStaleToken   = "stale token"
	reasonStoreError   = "store error"
)
