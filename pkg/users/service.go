package users

import (
	"context"
	"database/sql"
	"time"

	"github.com/mindnestapp/mindnest/pkg/errcodes"
	"github.com/mindnestapp/mindnest/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type ListUsersOptions struct {
	Limit    *int
	Offset   *int
	Role     *string
	IsActive *bool
}

type UpdateUserOptions struct {
	Name     *string
	Role     *string
	IsActive *bool
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

func (svc *Service) Retrieve(ctx context.Context, id int) (*models.User, error) {
	user := &models.User{}
	err := svc.db.NewSelect().
		Model(user).
		Relation("Role").
		Relation("Role.Permissions").
		Where("u.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("User")
		}
		return nil, errors.WithStack(err)
	}
	return user, nil
}

func (svc *Service) ListWithTotal(ctx context.Context, opts ListUsersOptions) ([]*models.User, int, error) {
	users := []*models.User{}

	q := svc.db.NewSelect().
		Model(&users).
		Relation("Role").
		Order("u.created_at DESC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if opts.Role != nil {
		q = q.Where("u.role_id = (SELECT id FROM roles WHERE name = ?)", *opts.Role)
	}
	if opts.IsActive != nil {
		q = q.Where("u.is_active = ?", *opts.IsActive)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return users, total, nil
}

// Update applies the given fields to a user. Role changes are resolved by
// name so callers never deal in role IDs.
func (svc *Service) Update(ctx context.Context, id int, opts UpdateUserOptions) (*models.User, error) {
	user, err := svc.Retrieve(ctx, id)
	if err != nil {
		return nil, err
	}

	if opts.Name != nil {
		user.Name = *opts.Name
	}
	if opts.IsActive != nil {
		user.IsActive = *opts.IsActive
	}
	if opts.Role != nil {
		role := &models.Role{}
		err := svc.db.NewSelect().
			Model(role).
			Where("name = ?", *opts.Role).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, errcodes.NotFound("Role")
			}
			return nil, errors.WithStack(err)
		}
		user.RoleID = role.ID
	}
	user.UpdatedAt = time.Now()

	_, err = svc.db.NewUpdate().
		Model(user).
		Column("name", "role_id", "is_active", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return svc.Retrieve(ctx, id)
}

// Deactivate disables a user's account without deleting their content.
func (svc *Service) Deactivate(ctx context.Context, id int) error {
	inactive := false
	_, err := svc.Update(ctx, id, UpdateUserOptions{IsActive: &inactive})
	return err
}
