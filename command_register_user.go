package reviews

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
	Username  string `json:"username" form:"username"`
	Email     string `json:"email" form:"email"`
	Password  string `json:"password" form:"password"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate will validate the payload
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, validation.Length(3, 100), is.Email),
		validation.Field(&e.Password, validation.Required, validation.Length(6, 100), PasswordFitsHash),
		validation.Field(&e.Username, validation.Length(0, 100)),
		validation.Field(&e.FirstName, validation.Length(0, 200)),
		validation.Field(&e.LastName, validation.Length(0, 200)),
	)
}

// RegisterUserHandler creates an ordinary user and opens their first
// session in a single transaction
type RegisterUserHandler struct {
	repo   RepositoryManager
	tokens TokenService
}

func NewRegisterUserHandler(repo RepositoryManager, tokens TokenService) *RegisterUserHandler {
	return &RegisterUserHandler{repo: repo, tokens: tokens}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	if err := event.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).
			WithCode(goerrors.CodeBadRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user := &User{
		Email:     event.Email,
		Username:  event.Username,
		FirstName: event.FirstName,
		LastName:  event.LastName,
		Password:  event.Password,
		Role:      RoleOrdinary,
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		if user, err = h.repo.Users().RegisterTx(ctx, tx, user); err != nil {
			return err
		}

		token, err := h.tokens.Issue(user.ID.String())
		if err != nil {
			return err
		}

		if err := h.repo.Users().SetSessionTokenTx(ctx, tx, user.ID.String(), token); err != nil {
			return err
		}

		user.SessionToken = token
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	return user, nil
}
