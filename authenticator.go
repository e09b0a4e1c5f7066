package reviews

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Auther owns the session lifecycle: issuing and persisting tokens,
// invalidating them, and resolving presented tokens to a SessionState.
type Auther struct {
	users              CredentialStore
	tokens             TokenService
	passwords          PasswordAuthenticator
	logger             Logger
	activity           ActivitySink
	uniformLoginErrors bool
}

// NewAuthenticator returns a new Auther
func NewAuthenticator(users CredentialStore, tokens TokenService) *Auther {
	return &Auther{
		users:     users,
		tokens:    tokens,
		passwords: BcryptAuthenticator{},
		logger:    defLogger{},
		activity:  noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = ensureLogger(logger)
	return s
}

// WithActivitySink sets the sink receiving login and logout events
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activity = normalizeActivitySink(sink)
	return s
}

// WithPasswordAuthenticator overrides password comparison
func (s *Auther) WithPasswordAuthenticator(p PasswordAuthenticator) *Auther {
	if p != nil {
		s.passwords = p
	}
	return s
}

// WithUniformLoginErrors makes Login return ErrAuthFailed for both unknown
// emails and wrong passwords
func (s *Auther) WithUniformLoginErrors(enabled bool) *Auther {
	s.uniformLoginErrors = enabled
	return s
}

// Issue signs a new token for user and stores it as the user's only live
// session, replacing any earlier token.
func (s *Auther) Issue(ctx context.Context, user *User) (string, error) {
	if user == nil {
		return "", ErrUserNotFound
	}

	token, err := s.tokens.Issue(user.ID.String())
	if err != nil {
		s.logger.Error("issue session token", "user_id", user.ID, "error", err)
		return "", err
	}

	if err := s.users.SetSessionToken(ctx, user.ID.String(), token); err != nil {
		s.logger.Error("store session token", "user_id", user.ID, "error", err)
		return "", err
	}

	now := time.Now().UTC()
	user.SessionToken = token
	user.LoggedInAt = &now

	return token, nil
}

// Invalidate clears the stored token so every token issued for userID fails
// the liveness check from now on
func (s *Auther) Invalidate(ctx context.Context, userID string) error {
	if err := s.users.ClearSessionToken(ctx, userID); err != nil {
		s.logger.Error("invalidate session", "user_id", userID, "error", err)
		return err
	}
	s.logger.Debug("session invalidated", "user_id", userID)
	return nil
}

// Logout invalidates the session held by state
func (s *Auther) Logout(ctx context.Context, state SessionState) error {
	authed, ok := state.(Authenticated)
	if !ok || authed.User == nil {
		return ErrNotAuthenticated
	}

	if err := s.Invalidate(ctx, authed.User.ID.String()); err != nil {
		return err
	}

	s.record(ctx, ActivityEvent{
		EventType: ActivityEventLogout,
		UserID:    authed.User.ID.String(),
		Email:     authed.User.Email,
	})
	return nil
}

// Resolve maps a presented token to Authenticated or Anonymous. It never
// fails: every problem degrades to Anonymous.
func (s *Auther) Resolve(ctx context.Context, token string) SessionState {
	if token == "" {
		return Anonymous{Reason: reasonNoToken}
	}

	userID, err := s.tokens.Verify(token)
	if err != nil {
		return Anonymous{Reason: reasonInvalidToken, Cause: err}
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrInvalidIdentifier) {
			return Anonymous{Reason: reasonUnknownUser, Cause: err}
		}
		s.logger.Error("resolve session user", "user_id", userID, "error", err)
		return Anonymous{Reason: reasonStoreError, Cause: err}
	}

	if !user.HasLiveSession(token) {
		return Anonymous{Reason: reasonStaleToken, Cause: ErrStaleSession}
	}

	return Authenticated{User: user, Token: token}
}

// Login checks the credentials and issues a new session, replacing the
// previous one
func (s *Auther) Login(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.logger.Info("login unknown email", "email", email)
			s.record(ctx, ActivityEvent{EventType: ActivityEventLoginFailure, Email: email, Reason: "unknown email"})
			return nil, "", s.loginFailure(ErrWrongEmail)
		}
		return nil, "", err
	}

	if err := s.passwords.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			s.logger.Info("login wrong password", "user_id", user.ID)
			s.record(ctx, ActivityEvent{
				EventType: ActivityEventLoginFailure,
				UserID:    user.ID.String(),
				Email:     user.Email,
				Reason:    "wrong password",
			})
			return nil, "", s.loginFailure(ErrWrongPassword)
		}
		return nil, "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to compare password")
	}

	token, err := s.Issue(ctx, user)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("login success", "user_id", user.ID)
	s.record(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		UserID:    user.ID.String(),
		Email:     user.Email,
	})

	return user, token, nil
}

func (s *Auther) loginFailure(err *goerrors.Error) error {
	if s.uniformLoginErrors {
		return ErrAuthFailed
	}
	return err
}

func (s *Auther) record(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := s.activity.Record(ctx, event); err != nil {
		s.logger.Warn("record session activity", "event", string(event.EventType), "error", err)
	}
}
