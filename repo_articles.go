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

// DefaultPageSize bounds list queries when callers pass no limit
const DefaultPageSize = 10

type Articles interface {
	repository.Repository[*Article]

	Publish(ctx context.Context, article *Article) (*Article, error)
	FindByID(ctx context.Context, id string) (*Article, error)
	ListRecent(ctx context.Context, limit int) ([]*Article, error)
}

type articles struct {
	repository.Repository[*Article]
	db *bun.DB
}

var _ Articles = (*articles)(nil)

func NewArticlesRepository(db *bun.DB) Articles {
	repo := repository.NewRepository[*Article](db, repository.ModelHandlers[*Article]{
		NewRecord: func() *Article { return &Article{} },
		GetID: func(a *Article) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Article, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "title"
		},
	})

	return &articles{Repository: repo, db: db}
}

func (r *articles) Publish(ctx context.Context, article *Article) (*Article, error) {
	if article == nil {
		return nil, goerrors.New("article is required", goerrors.CategoryBadInput)
	}

	if article.ID == uuid.Nil {
		article.ID = uuid.New()
	}
	stampCreated(&article.CreatedAt, &article.UpdatedAt)

	if _, err := r.db.NewInsert().Model(article).Returning("*").Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "could not create article")
	}

	return article, nil
}

func (r *articles) FindByID(ctx context.Context, id string) (*Article, error) {
	aid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidIdentifier
	}

	record := &Article{}
	err = r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", aid).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
			return nil, ErrArticleNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load article")
	}

	return record, nil
}

// ListRecent returns up to limit articles in creation order
func (r *articles) ListRecent(ctx context.Context, limit int) ([]*Article, error) {
	records := make([]*Article, 0)
	err := r.db.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.created_at ASC, ?TableAlias.id ASC").
		Limit(boundLimit(limit)).
		Scan(ctx)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list articles")
	}

	return records, nil
}

func boundLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	return limit
}
