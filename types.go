package reviews

import (
	"context"
	"fmt"
	"strings"
)

// Logger is the logging contract used across the package. Arguments after
// the message are interpreted as key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// TokenService issues and verifies signed session tokens
type TokenService interface {
	Issue(userID string) (string, error)
	Verify(token string) (string, error)
}

// SessionResolver turns a raw token into a SessionState
type SessionResolver interface {
	Resolve(ctx context.Context, token string) SessionState
}

// SessionManager is the session lifecycle used by the HTTP layer
type SessionManager interface {
	SessionResolver
	Login(ctx context.Context, email, password string) (*User, string, error)
	Logout(ctx context.Context, state SessionState) error
}

// CredentialStore is the subset of the users repository the session
// lifecycle depends on
type CredentialStore interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Register(ctx context.Context, user *User) (*User, error)
	SetSessionToken(ctx context.Context, id string, token string) error
	ClearSessionToken(ctx context.Context, id string) error
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) { d.print("ERR", msg, args) }
func (d defLogger) Warn(msg string, args ...any)  { d.print("WRN", msg, args) }
func (d defLogger) Info(msg string, args ...any)  { d.print("INF", msg, args) }
func (d defLogger) Debug(msg string, args ...any) { d.print("DBG", msg, args) }

func (d defLogger) print(level, msg string, args []any) {
	var b strings.Builder
	b.WriteString("[" + level + "] REVIEWS " + msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
			continue
		}
		fmt.Fprintf(&b, " %v", args[i])
	}
	fmt.Println(b.String())
}

func ensureLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}
