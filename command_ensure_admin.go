package reviews

import (
	"context"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type EnsureAdminMessage struct {
	Email    string
	Password string
}

func (e EnsureAdminMessage) Type() string { return "user.ensure_admin" }

func (e EnsureAdminMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(6, 100), PasswordFitsHash),
	)
}

// EnsureAdminHandler makes sure an admin account exists for the configured
// email, creating it or promoting an existing user in one transaction
type EnsureAdminHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewEnsureAdminHandler(repo RepositoryManager, logger Logger) *EnsureAdminHandler {
	return &EnsureAdminHandler{repo: repo, logger: ensureLogger(logger)}
}

func (h *EnsureAdminHandler) Execute(ctx context.Context, event EnsureAdminMessage) (*User, error) {
	if err := event.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid admin bootstrap settings")
	}

	var admin *User
	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		users := h.repo.Users()

		user, err := users.FindByEmailTx(ctx, tx, event.Email)
		switch {
		case err == nil:
			if !user.IsAdmin() {
				if err := users.SetRoleTx(ctx, tx, user.ID.String(), RoleAdmin); err != nil {
					return err
				}
				user.Role = RoleAdmin
				h.logger.Info("promoted user to admin", "user_id", user.ID)
			}
		case errors.Is(err, ErrUserNotFound):
			user, err = users.RegisterTx(ctx, tx, &User{
				Email:    event.Email,
				Password: event.Password,
				Role:     RoleAdmin,
			})
			if err != nil {
				return err
			}
			h.logger.Info("created admin user", "user_id", user.ID)
		default:
			return err
		}

		admin = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	return admin, nil
}
