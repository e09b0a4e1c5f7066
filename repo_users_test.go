package reviews_test

import (
	"context"
	"strings"
	"testing"

	reviews "github.com/goliatone/go-reviews"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsers_RegisterHashesPassword(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.Users().Register(ctx, &reviews.User{
		Email:    "  Player@Example.com ",
		Password: "secret123",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "player@example.com", user.Email)
	assert.Equal(t, "player", user.Username)
	assert.Equal(t, reviews.RoleOrdinary, user.Role)
	assert.Empty(t, user.Password)
	assert.NotEqual(t, "secret123", user.PasswordHash)
	assert.NoError(t, reviews.ComparePasswordAndHash("secret123", user.PasswordHash))

	found, err := repo.Users().FindByEmail(ctx, "PLAYER@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Empty(t, found.SessionToken)
}

func TestUsers_RegisterRejects(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Users().Register(ctx, &reviews.User{Email: "nopass@b.com"})
	assert.ErrorIs(t, err, reviews.ErrNoEmptyString)

	_, err = repo.Users().Register(ctx, &reviews.User{Email: "long@b.com", Password: strings.Repeat("x", 80)})
	assert.ErrorIs(t, err, reviews.ErrPasswordTooLong)

	createUser(t, repo, "dup@b.com")
	_, err = repo.Users().Register(ctx, &reviews.User{Email: "DUP@b.com", Password: "secret123"})
	assert.ErrorIs(t, err, reviews.ErrEmailTaken)
}

func TestUsers_FindByID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := createUser(t, repo, "find@b.com")

	found, err := repo.Users().FindByID(ctx, user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "find@b.com", found.Email)

	_, err = repo.Users().FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, reviews.ErrUserNotFound)

	_, err = repo.Users().FindByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, reviews.ErrInvalidIdentifier)
}

func TestUsers_SessionToken(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := createUser(t, repo, "session@b.com")

	require.NoError(t, repo.Users().SetSessionToken(ctx, user.ID.String(), "token-1"))

	found, err := repo.Users().FindByID(ctx, user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "token-1", found.SessionToken)
	assert.NotNil(t, found.LoggedInAt)

	require.NoError(t, repo.Users().ClearSessionToken(ctx, user.ID.String()))

	found, err = repo.Users().FindByID(ctx, user.ID.String())
	require.NoError(t, err)
	assert.Empty(t, found.SessionToken)
	assert.False(t, found.HasLiveSession(""))

	err = repo.Users().SetSessionToken(ctx, uuid.NewString(), "token-2")
	assert.ErrorIs(t, err, reviews.ErrUserNotFound)
}

func TestUsers_SetRole(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := createUser(t, repo, "role@b.com")

	require.NoError(t, repo.Users().SetRole(ctx, user.ID.String(), reviews.RoleAdmin))

	found, err := repo.Users().FindByID(ctx, user.ID.String())
	require.NoError(t, err)
	assert.True(t, found.IsAdmin())

	assert.Error(t, repo.Users().SetRole(ctx, user.ID.String(), "superuser"))
}

func TestUsers_HashidIDs(t *testing.T) {
	repo := reviews.NewRepositoryManager(newTestDB(t), reviews.WithHashidIDs(true))

	user, err := repo.Users().Register(context.Background(), &reviews.User{
		Email:    "hash@b.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	expected, err := hashid.NewUUID("hash@b.com")
	require.NoError(t, err)
	assert.Equal(t, expected, user.ID)
}

func TestEnsureAdmin(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	handler := reviews.NewEnsureAdminHandler(repo, nopLogger{})

	admin, err := handler.Execute(ctx, reviews.EnsureAdminMessage{Email: "root@b.com", Password: "secret123"})
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	again, err := handler.Execute(ctx, reviews.EnsureAdminMessage{Email: "root@b.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)

	user := createUser(t, repo, "promote@b.com")
	promoted, err := handler.Execute(ctx, reviews.EnsureAdminMessage{Email: "promote@b.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, promoted.ID)
	assert.True(t, promoted.IsAdmin())

	stored, err := repo.Users().FindByID(ctx, user.ID.String())
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin())

	_, err = handler.Execute(ctx, reviews.EnsureAdminMessage{Email: "bad", Password: "x"})
	assert.Error(t, err)
}

func TestRegisterUserHandler(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	tokens := reviews.NewTokenService([]byte("test-signing-key"), "", nopLogger{})
	handler := reviews.NewRegisterUserHandler(repo, tokens)

	user, err := handler.Execute(ctx, reviews.RegisterUserMessage{
		Email:    "a@b.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.SessionToken)
	assert.Equal(t, reviews.RoleOrdinary, user.Role)

	id, err := tokens.Verify(user.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), id)

	stored, err := repo.Users().FindByID(ctx, user.ID.String())
	require.NoError(t, err)
	assert.True(t, stored.HasLiveSession(user.SessionToken))

	_, err = handler.Execute(ctx, reviews.RegisterUserMessage{Email: "a@b.com", Password: "secret123"})
	assert.ErrorIs(t, err, reviews.ErrEmailTaken)

	_, err = handler.Execute(ctx, reviews.RegisterUserMessage{Email: "not-an-email", Password: "secret123"})
	assert.Error(t, err)

	_, err = handler.Execute(ctx, reviews.RegisterUserMessage{Email: "short@b.com", Password: "123"})
	assert.Error(t, err)
}
