package reviews

import (
	"context"
	"time"
)

// ActivityEventType enumerates session lifecycle events
type ActivityEventType string

const (
	ActivityEventLoginSuccess ActivityEventType = "session.login.success"
	ActivityEventLoginFailure ActivityEventType = "session.login.failure"
	ActivityEventLogout       ActivityEventType = "session.logout"
)

// ActivityEvent captures audit information about a session change
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	Email      string
	Reason     string
	OccurredAt time.Time
}

// ActivitySink consumes activity events
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

// LoggerActivitySink writes every event to a Logger
func LoggerActivitySink(logger Logger) ActivitySink {
	logger = ensureLogger(logger)
	return ActivitySinkFunc(func(_ context.Context, event ActivityEvent) error {
		logger.Info("session activity",
			"event", string(event.EventType),
			"user_id", event.UserID,
			"email", event.Email,
			"reason", event.Reason,
		)
		return nil
	})
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
