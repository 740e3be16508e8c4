package blogs

import (
	"context"
	"database/sql"
	"time"

	"github.com/mindnestapp/mindnest/pkg/errcodes"
	"github.com/mindnestapp/mindnest/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type CreateBlogOptions struct {
	AuthorID    int
	Title       string
	Body        string
	IsPublished bool
}

type UpdateBlogOptions struct {
	Title       *string
	Body        *string
	IsPublished *bool
}

type ListBlogsOptions struct {
	Limit         *int
	Offset        *int
	AuthorID      *int
	IncludeDrafts bool
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

func (svc *Service) Create(ctx context.Context, opts CreateBlogOptions) (*models.Blog, error) {
	now := time.Now()
	blog := &models.Blog{
		AuthorID:    opts.AuthorID,
		Title:       opts.Title,
		Body:        opts.Body,
		IsPublished: opts.IsPublished,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := svc.db.NewInsert().Model(blog).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return blog, nil
}

// Retrieve fetches one blog post. Unpublished posts are only visible to their
// author.
func (svc *Service) Retrieve(ctx context.Context, id int, viewerID *int) (*models.Blog, error) {
	blog := &models.Blog{}
	q := svc.db.NewSelect().
		Model(blog).
		Relation("Author").
		Where("bl.id = ?", id)

	if viewerID != nil {
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("bl.is_published = ?", true).WhereOr("bl.author_id = ?", *viewerID)
		})
	} else {
		q = q.Where("bl.is_published = ?", true)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Blog post")
		}
		return nil, errors.WithStack(err)
	}
	return blog, nil
}

func (svc *Service) ListWithTotal(ctx context.Context, opts ListBlogsOptions) ([]*models.Blog, int, error) {
	blogs := []*models.Blog{}

	q := svc.db.NewSelect().
		Model(&blogs).
		Relation("Author").
		Order("bl.created_at DESC")

	if !opts.IncludeDrafts {
		q = q.Where("bl.is_published = ?", true)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if opts.AuthorID != nil {
		q = q.Where("bl.author_id = ?", *opts.AuthorID)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return blogs, total, nil
}

// Update applies the given fields. Only the author can edit their post.
func (svc *Service) Update(ctx context.Context, authorID, id int, opts UpdateBlogOptions) (*models.Blog, error) {
	blog := &models.Blog{}
	err := svc.db.NewSelect().
		Model(blog).
		Where("bl.id = ?", id).
		Where("bl.author_id = ?", authorID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Blog post")
		}
		return nil, errors.WithStack(err)
	}

	if opts.Title != nil {
		blog.Title = *opts.Title
	}
	if opts.Body != nil {
		blog.Body = *opts.Body
	}
	if opts.IsPublished != nil {
		blog.IsPublished = *opts.IsPublished
	}
	blog.UpdatedAt = time.Now()

	_, err = svc.db.NewUpdate().Model(blog).WherePK().Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return blog, nil
}

func (svc *Service) Delete(ctx context.Context, authorID, id int) error {
	result, err := svc.db.NewDelete().
		Model((*models.Blog)(nil)).
		Where("id = ?", id).
		Where("author_id = ?", authorID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errcodes.NotFound("Blog post")
	}
	return nil
}
