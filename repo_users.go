package reviews

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SetSessionTokenSQL writes the token even when it is empty, which the
// ORM update path skips for zero values.
var SetSessionTokenSQL = `UPDATE "users"
SET
	"session_token" = ?,
	"updated_at" = ?
WHERE
	"id" = ?;`

var TrackLoginSQL = `UPDATE "users"
SET
	"session_token" = ?,
	"loggedin_at" = ?,
	"updated_at" = ?
WHERE
	"id" = ?;`

var SetUserRoleSQL = `UPDATE "users"
SET
	"user_role" = ?,
	"updated_at" = ?
WHERE
	"id" = ?;`

type Users interface {
	repository.Repository[*User]
	CredentialStore

	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	SetSessionTokenTx(ctx context.Context, tx bun.IDB, id string, token string) error
	SetRole(ctx context.Context, id string, role UserRole) error
	SetRoleTx(ctx context.Context, tx bun.IDB, id string, role UserRole) error
}

type users struct {
	repository.Repository[*User]
	db        *bun.DB
	hasher    PasswordAuthenticator
	useHashid bool
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

type UsersOption func(*users)

// WithPasswordHasher overrides the hasher used when saving new users
func WithPasswordHasher(h PasswordAuthenticator) UsersOption {
	return func(u *users) {
		if h != nil {
			u.hasher = h
		}
	}
}

// WithHashidIDs derives user ids from the email instead of random UUIDs
func WithHashidIDs(enabled bool) UsersOption {
	return func(u *users) {
		u.useHashid = enabled
	}
}

func NewUsersRepository(db *bun.DB, opts ...UsersOption) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	repoUsers := &users{
		Repository: repo,
		db:         db,
		hasher:     BcryptAuthenticator{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoUsers)
		}
	}

	return repoUsers
}

// Register saves a new user. A cleartext Password on the record is hashed
// into PasswordHash before the insert and then discarded.
func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	if user == nil {
		return nil, goerrors.New("user is required", goerrors.CategoryBadInput)
	}

	if err := a.prepareUserDefaults(user); err != nil {
		return nil, err
	}

	if _, err := tx.NewInsert().Model(user).Returning("*").Exec(ctx); err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create user")
	}

	return user, nil
}

func (a *users) FindByID(ctx context.Context, id string) (*User, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, ErrInvalidIdentifier
	}

	record := &User{}
	err = a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", uid).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
	}

	return record, nil
}

func (a *users) FindByEmail(ctx context.Context, email string) (*User, error) {
	return a.FindByEmailTx(ctx, a.db, email)
}

func (a *users) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrUserNotFound
	}

	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user")
	}

	return record, nil
}

// SetSessionToken overwrites the user's session token. Concurrent calls
// race benignly: the last write becomes the live session.
func (a *users) SetSessionToken(ctx context.Context, id string, token string) error {
	return a.SetSessionTokenTx(ctx, a.db, id, token)
}

func (a *users) SetSessionTokenTx(ctx context.Context, tx bun.IDB, id string, token string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrInvalidIdentifier
	}

	now := time.Now().UTC()

	var res sql.Result
	if token == "" {
		res, err = tx.NewRaw(SetSessionTokenSQL, nil, now, uid).Exec(ctx)
	} else {
		res, err = tx.NewRaw(TrackLoginSQL, token, now, now, uid).Exec(ctx)
	}
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store session token")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}

	return nil
}

// ClearSessionToken removes the stored token, killing the live session
func (a *users) ClearSessionToken(ctx context.Context, id string) error {
	return a.SetSessionTokenTx(ctx, a.db, id, "")
}

// SetRole changes the user's role
func (a *users) SetRole(ctx context.Context, id string, role UserRole) error {
	return a.SetRoleTx(ctx, a.db, id, role)
}

func (a *users) SetRoleTx(ctx context.Context, tx bun.IDB, id string, role UserRole) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrInvalidIdentifier
	}

	if !IsValidRole(role) {
		return goerrors.New("unknown role "+role, goerrors.CategoryBadInput)
	}

	res, err := tx.NewRaw(SetUserRoleSQL, role, time.Now().UTC(), uid).Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update role")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (a *users) prepareUserDefaults(record *User) error {
	record.Email = normalizeEmail(record.Email)
	record.Username = getUsername(record.Username, record.Email)

	if role, ok := ParseRole(record.Role); ok {
		record.Role = role
	} else {
		record.Role = RoleOrdinary
	}

	if record.Password != "" {
		hash, err := a.hasher.HashPassword(record.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}
		record.PasswordHash = hash
		record.Password = ""
	}

	if record.PasswordHash == "" {
		return ErrNoEmptyString
	}

	if record.ID == uuid.Nil && a.useHashid && record.Email != "" {
		if id, err := hashid.NewUUID(record.Email); err == nil {
			record.ID = id
		}
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	stampCreated(&record.CreatedAt, &record.UpdatedAt)

	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
