package reviews

import (
	"context"
	"database/sql"
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type UserReviews interface {
	repository.Repository[*UserReview]

	Post(ctx context.Context, review *UserReview) (*UserReview, error)
	ListByPost(ctx context.Context, postID uuid.UUID, limit int) ([]*UserReview, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*UserReview, error)
	ListAll(ctx context.Context, limit int) ([]*UserReview, error)
}

type userReviews struct {
	repository.Repository[*UserReview]
	db *bun.DB
}

var _ UserReviews = (*userReviews)(nil)

func NewUserReviewsRepository(db *bun.DB) UserReviews {
	repo := repository.NewRepository[*UserReview](db, repository.ModelHandlers[*UserReview]{
		NewRecord: func() *UserReview { return &UserReview{} },
		GetID: func(r *UserReview) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *UserReview, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "post_id"
		},
	})

	return &userReviews{Repository: repo, db: db}
}

func (r *userReviews) Post(ctx context.Context, review *UserReview) (*UserReview, error) {
	if review == nil {
		return nil, goerrors.New("review is required", goerrors.CategoryBadInput)
	}

	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	stampCreated(&review.CreatedAt, &review.UpdatedAt)

	if _, err := r.db.NewInsert().Model(review).Returning("*").Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create user review")
	}

	return review, nil
}

func (r *userReviews) ListByPost(ctx context.Context, postID uuid.UUID, limit int) ([]*UserReview, error) {
	return r.list(ctx, limit, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.post_id = ?", postID)
	})
}

func (r *userReviews) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int) ([]*UserReview, error) {
	return r.list(ctx, limit, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.owner_id = ?", ownerID)
	})
}

func (r *userReviews) ListAll(ctx context.Context, limit int) ([]*UserReview, error) {
	return r.list(ctx, limit, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q
	})
}

func (r *userReviews) list(ctx context.Context, limit int, scope func(*bun.SelectQuery) *bun.SelectQuery) ([]*UserReview, error) {
	records := make([]*UserReview, 0)
	q := r.db.NewSelect().Model(&records)
	q = scope(q)

	err := q.
		OrderExpr("?TableAlias.created_at ASC, ?TableAlias.id ASC").
		Limit(boundLimit(limit)).
		Scan(ctx)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list user reviews")
	}

	return records, nil
}
