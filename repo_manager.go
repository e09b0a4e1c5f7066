package reviews

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	Articles() Articles
	UserReviews() UserReviews
}

type mngr struct {
	db          *bun.DB
	users       Users
	articles    Articles
	userReviews UserReviews
}

func NewRepositoryManager(db *bun.DB, opts ...UsersOption) RepositoryManager {
	return &mngr{
		db:          db,
		users:       NewUsersRepository(db, opts...),
		articles:    NewArticlesRepository(db),
		userReviews: NewUserReviewsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.articles == nil {
		return errors.New("repository articles should be initialized")
	}

	if m.userReviews == nil {
		return errors.New("repository user reviews should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Articles() Articles {
	return m.articles
}

func (m mngr) UserReviews() UserReviews {
	return m.userReviews
}
