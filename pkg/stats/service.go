package stats

import (
	"context"

	"github.com/mindnestapp/mindnest/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// Dashboard is the admin overview: membership, content volume, and donation
// totals in one payload.
type Dashboard struct {
	UsersByRole     map[string]int `json:"users_by_role"`
	ActiveUsers     int            `json:"active_users"`
	Stories         int            `json:"stories"`
	StoriesInFlight int            `json:"stories_in_flight"`
	Comments        int            `json:"comments"`
	Likes           int            `json:"likes"`
	Blogs           int            `json:"blogs"`
	Quizzes         int            `json:"quizzes"`
	QuizAttempts    int            `json:"quiz_attempts"`
	DonationsPaid   int            `json:"donations_paid"`
	DonatedMinor    int64          `json:"donated_minor"`
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

func (svc *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{UsersByRole: map[string]int{}}

	var roleCounts []struct {
		Name  string `bun:"name"`
		Count int    `bun:"count"`
	}
	err := svc.db.NewSelect().
		Model((*models.User)(nil)).
		ColumnExpr("r.name AS name").
		ColumnExpr("count(*) AS count").
		Join("JOIN roles AS r ON r.id = u.role_id").
		GroupExpr("r.name").
		Scan(ctx, &roleCounts)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	for _, rc := range roleCounts {
		d.UsersByRole[rc.Name] = rc.Count
	}

	d.ActiveUsers, err = svc.db.NewSelect().
		Model((*models.User)(nil)).
		Where("is_active = ?", true).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	d.Stories, err = svc.db.NewSelect().
		Model((*models.Story)(nil)).
		Where("is_complete = ?", true).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	d.StoriesInFlight, err = svc.db.NewSelect().
		Model((*models.StoryChunkTracker)(nil)).
		Where("is_complete = ?", false).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	d.Comments, err = svc.db.NewSelect().Model((*models.Comment)(nil)).Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	d.Likes, err = svc.db.NewSelect().Model((*models.Like)(nil)).Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	d.Blogs, err = svc.db.NewSelect().
		Model((*models.Blog)(nil)).
		Where("is_published = ?", true).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	d.Quizzes, err = svc.db.NewSelect().Model((*models.Quiz)(nil)).Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	d.QuizAttempts, err = svc.db.NewSelect().Model((*models.QuizAttempt)(nil)).Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var paid struct {
		Count int   `bun:"count"`
		Total int64 `bun:"total"`
	}
	err = svc.db.NewSelect().
		Model((*models.Donation)(nil)).
		ColumnExpr("count(*) AS count").
		ColumnExpr("coalesce(sum(amount_minor), 0) AS total").
		Where("status = ?", models.DonationStatusPaid).
		Scan(ctx, &paid)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	d.DonationsPaid = paid.Count
	d.DonatedMinor = paid.Total

	return d, nil
}
