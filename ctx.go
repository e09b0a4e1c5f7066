package reviews

import (
	"context"

	"github.com/goliatone/go-router"
)

var sessionCtxKey = &contextKey{"session"}

type contextKey struct {
	name string
}

// SessionLocalsKey is the request locals key holding the SessionState
const SessionLocalsKey = "session"

// WithSession sets the SessionState in the given context
func WithSession(ctx context.Context, state SessionState) context.Context {
	return context.WithValue(ctx, sessionCtxKey, state)
}

// SessionFromContext finds the SessionState in the context, Anonymous if
// none was attached
func SessionFromContext(ctx context.Context) SessionState {
	if ctx == nil {
		return Anonymous{Reason: reasonNoToken}
	}
	if state, ok := ctx.Value(sessionCtxKey).(SessionState); ok && state != nil {
		return state
	}
	return Anonymous{Reason: reasonNoToken}
}

// FromContext returns the live user in ctx
func FromContext(ctx context.Context) (*User, bool) {
	user := SessionFromContext(ctx).CurrentUser()
	return user, user != nil
}

// CurrentSession returns the SessionState the auth middleware attached to ctx
func CurrentSession(ctx router.Context) SessionState {
	return sessionFromLocals(ctx.Locals(SessionLocalsKey), ctx.Context())
}

func sessionFromLocals(local any, ctx context.Context) SessionState {
	if state, ok := local.(SessionState); ok && state != nil {
		return state
	}
	return SessionFromContext(ctx)
}
