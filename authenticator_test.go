package reviews_test

import (
	"context"
	"errors"
	"testing"

	reviews "github.com/goliatone/go-reviews"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestAuther(store reviews.CredentialStore) (*reviews.Auther, reviews.TokenService) {
	tokens := reviews.NewTokenService([]byte("test-signing-key"), "go-reviews", nopLogger{})
	return reviews.NewAuthenticator(store, tokens).WithLogger(nopLogger{}), tokens
}

func TestAuther_ResolveNoToken(t *testing.T) {
	store := new(MockCredentialStore)
	auther, _ := newTestAuther(store)

	state := auther.Resolve(context.Background(), "")

	assert.False(t, state.IsAuthenticated())
	assert.Nil(t, state.CurrentUser())
	store.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestAuther_ResolveInvalidToken(t *testing.T) {
	store := new(MockCredentialStore)
	auther, _ := newTestAuther(store)

	state := auther.Resolve(context.Background(), "bogus.token.value")

	anon, ok := state.(reviews.Anonymous)
	require.True(t, ok)
	assert.ErrorIs(t, anon.Cause, reviews.ErrInvalidToken)
	store.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestAuther_ResolveLiveToken(t *testing.T) {
	store := new(MockCredentialStore)
	auther, tokens := newTestAuther(store)

	user := &reviews.User{ID: uuid.New(), Email: "a@b.com", Role: reviews.RoleOrdinary}
	token, err := tokens.Issue(user.ID.String())
	require.NoError(t, err)
	user.SessionToken = token

	store.On("FindByID", mock.Anything, user.ID.String()).Return(user, nil)

	state := auther.Resolve(context.Background(), token)

	require.True(t, state.IsAuthenticated())
	authed, ok := state.(reviews.Authenticated)
	require.True(t, ok)
	assert.Equal(t, user, authed.User)
	assert.Equal(t, token, authed.Token)
	store.AssertExpectations(t)
}

func TestAuther_ResolveStaleToken(t *testing.T) {
	store := new(MockCredentialStore)
	auther, tokens := newTestAuther(store)

	user := &reviews.User{ID: uuid.New(), Email: "a@b.com"}
	old, err := tokens.Issue(user.ID.String())
	require.NoError(t, err)
	current, err := tokens.Issue(user.ID.String())
	require.NoError(t, err)
	user.SessionToken = current

	store.On("FindByID", mock.Anything, user.ID.String()).Return(user, nil)

	state := auther.Resolve(context.Background(), old)
	assert.False(t, state.IsAuthenticated())
	anon, ok := state.(reviews.Anonymous)
	require.True(t, ok)
	assert.ErrorIs(t, anon.Cause, reviews.ErrStaleSession)

	assert.True(t, auther.Resolve(context.Background(), current).IsAuthenticated())
}

func TestAuther_ResolveClearedToken(t *testing.T) {
	store := new(MockCredentialStore)
	auther, tokens := newTestAuther(store)

	user := &reviews.User{ID: uuid.New(), Email: "a@b.com"}
	token, err := tokens.Issue(user.ID.String())
	require.NoError(t, err)

	store.On("FindByID", mock.Anything, user.ID.String()).Return(user, nil)

	assert.False(t, auther.Resolve(context.Background(), token).IsAuthenticated())
}

func TestAuther_ResolveUnknownUser(t *testing.T) {
	store := new(MockCredentialStore)
	auther, tokens := newTestAuther(store)

	id := uuid.NewString()
	token, err := tokens.Issue(id)
	require.NoError(t, err)

	store.On("FindByID", mock.Anything, id).Return(nil, reviews.ErrUserNotFound)

	state := auther.Resolve(context.Background(), token)
	assert.Equal(t, reviews.Anonymous{Reason: "unknown user", Cause: reviews.ErrUserNotFound}, state)
}

func TestAuther_ResolveStoreErrorDegrades(t *testing.T) {
	store := new(MockCredentialStore)
	logger := new(MockLogger)
	tokens := reviews.NewTokenService([]byte("test-signing-key"), "", nopLogger{})
	auther := reviews.NewAuthenticator(store, tokens).WithLogger(logger)

	id := uuid.NewString()
	token, err := tokens.Issue(id)
	require.NoError(t, err)

	store.On("FindByID", mock.Anything, id).Return(nil, errors.New("connection refused"))
	logger.On("Error", "resolve session user", mock.Anything).Return()

	state := auther.Resolve(context.Background(), token)

	assert.False(t, state.IsAuthenticated())
	logger.AssertExpectations(t)
}

func TestAuther_IssueStoresToken(t *testing.T) {
	store := new(MockCredentialStore)
	auther, tokens := newTestAuther(store)

	user := &reviews.User{ID: uuid.New()}
	store.On("SetSessionToken", mock.Anything, user.ID.String(), mock.AnythingOfType("string")).Return(nil)

	token, err := auther.Issue(context.Background(), user)
	require.NoError(t, err)

	assert.Equal(t, token, user.SessionToken)
	assert.NotNil(t, user.LoggedInAt)

	id, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), id)
	store.AssertCalled(t, "SetSessionToken", mock.Anything, user.ID.String(), token)
}

func TestAuther_IssueStoreFailure(t *testing.T) {
	store := new(MockCredentialStore)
	auther, _ := newTestAuther(store)

	user := &reviews.User{ID: uuid.New()}
	store.On("SetSessionToken", mock.Anything, user.ID.String(), mock.Anything).Return(errors.New("disk full"))

	_, err := auther.Issue(context.Background(), user)
	assert.Error(t, err)
	assert.Empty(t, user.SessionToken)
}

func TestAuther_LogoutClearsToken(t *testing.T) {
	store := new(MockCredentialStore)
	auther, _ := newTestAuther(store)

	user := &reviews.User{ID: uuid.New(), SessionToken: "tok"}
	store.On("ClearSessionToken", mock.Anything, user.ID.String()).Return(nil)

	err := auther.Logout(context.Background(), reviews.Authenticated{User: user, Token: "tok"})
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestAuther_LogoutAnonymous(t *testing.T) {
	store := new(MockCredentialStore)
	auther, _ := newTestAuther(store)

	err := auther.Logout(context.Background(), reviews.Anonymous{})
	assert.ErrorIs(t, err, reviews.ErrNotAuthenticated)
	store.AssertNotCalled(t, "ClearSessionToken", mock.Anything, mock.Anything)
}

func TestAuther_Login(t *testing.T) {
	hash, err := reviews.HashPassword("secret123")
	require.NoError(t, err)

	user := &reviews.User{ID: uuid.New(), Email: "a@b.com", PasswordHash: hash}

	t.Run("unknown email", func(t *testing.T) {
		store := new(MockCredentialStore)
		auther, _ := newTestAuther(store)
		store.On("FindByEmail", mock.Anything, "nobody@b.com").Return(nil, reviews.ErrUserNotFound)

		_, _, err := auther.Login(context.Background(), "nobody@b.com", "secret123")
		assert.ErrorIs(t, err, reviews.ErrWrongEmail)
	})

	t.Run("wrong password", func(t *testing.T) {
		store := new(MockCredentialStore)
		auther, _ := newTestAuther(store)
		store.On("FindByEmail", mock.Anything, "a@b.com").Return(user, nil)

		_, _, err := auther.Login(context.Background(), "a@b.com", "nope")
		assert.ErrorIs(t, err, reviews.ErrWrongPassword)
		store.AssertNotCalled(t, "SetSessionToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("uniform errors", func(t *testing.T) {
		store := new(MockCredentialStore)
		auther, _ := newTestAuther(store)
		auther.WithUniformLoginErrors(true)
		store.On("FindByEmail", mock.Anything, "nobody@b.com").Return(nil, reviews.ErrUserNotFound)
		store.On("FindByEmail", mock.Anything, "a@b.com").Return(user, nil)

		_, _, err := auther.Login(context.Background(), "nobody@b.com", "secret123")
		assert.ErrorIs(t, err, reviews.ErrAuthFailed)

		_, _, err = auther.Login(context.Background(), "a@b.com", "nope")
		assert.ErrorIs(t, err, reviews.ErrAuthFailed)
	})

	t.Run("success", func(t *testing.T) {
		store := new(MockCredentialStore)
		auther, _ := newTestAuther(store)
		record := *user
		store.On("FindByEmail", mock.Anything, "a@b.com").Return(&record, nil)
		store.On("SetSessionToken", mock.Anything, user.ID.String(), mock.AnythingOfType("string")).Return(nil)

		got, token, err := auther.Login(context.Background(), "a@b.com", "secret123")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, token, got.SessionToken)
	})
}

func TestAuther_SecondIssueInvalidatesFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := createUser(t, repo, "twice@b.com")

	auther, _ := newTestAuther(repo.Users())

	first, err := auther.Issue(ctx, user)
	require.NoError(t, err)
	assert.True(t, auther.Resolve(ctx, first).IsAuthenticated())

	second, err := auther.Issue(ctx, user)
	require.NoError(t, err)

	assert.False(t, auther.Resolve(ctx, first).IsAuthenticated())
	assert.True(t, auther.Resolve(ctx, second).IsAuthenticated())

	require.NoError(t, auther.Invalidate(ctx, user.ID.String()))
	assert.False(t, auther.Resolve(ctx, second).IsAuthenticated())
}

func TestAuther_RecordsActivity(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := createUser(t, repo, "audit@b.com")

	var events []reviews.ActivityEvent
	auther, _ := newTestAuther(repo.Users())
	auther.WithActivitySink(reviews.ActivitySinkFunc(func(_ context.Context, e reviews.ActivityEvent) error {
		events = append(events, e)
		return nil
	}))

	_, _, err := auther.Login(ctx, "audit@b.com", "wrong")
	require.Error(t, err)

	_, token, err := auther.Login(ctx, "audit@b.com", "secret123")
	require.NoError(t, err)

	require.NoError(t, auther.Logout(ctx, auther.Resolve(ctx, token)))

	require.Len(t, events, 3)
	assert.Equal(t, reviews.ActivityEventLoginFailure, events[0].EventType)
	assert.Equal(t, "wrong password", events[0].Reason)
	assert.Equal(t, reviews.ActivityEventLoginSuccess, events[1].EventType)
	assert.Equal(t, user.ID.String(), events[1].UserID)
	assert.Equal(t, reviews.ActivityEventLogout, events[2].EventType)
	for _, e := range events {
		assert.False(t, e.OccurredAt.IsZero())
	}
}

func TestLoggerActivitySink(t *testing.T) {
	logger := new(MockLogger)
	logger.On("Info", "session activity", mock.Anything).Return()

	sink := reviews.LoggerActivitySink(logger)
	require.NoError(t, sink.Record(context.Background(), reviews.ActivityEvent{EventType: reviews.ActivityEventLogout}))

	logger.AssertNumberOfCalls(t, "Info", 1)
}
