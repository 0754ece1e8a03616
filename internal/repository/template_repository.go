package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AshIgnis/emshop-coupon-system/internal/model"
)

// TemplatePoolInterface defines the database operations needed by
// TemplateRepository.
type TemplatePoolInterface interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// TemplateRepository provides read-only access to coupon templates.
type TemplateRepository struct {
	pool TemplatePoolInterface
}

// NewTemplateRepository creates a new TemplateRepository with the given pool.
func NewTemplateRepository(pool *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{pool: pool}
}

// NewTemplateRepositoryWithPool creates a new TemplateRepository with a
// custom pool interface. This is primarily used for testing.
func NewTemplateRepositoryWithPool(pool TemplatePoolInterface) *TemplateRepository {
	return &TemplateRepository{pool: pool}
}

// List returns all coupon templates.
func (r *TemplateRepository) List(ctx context.Context) ([]model.CouponTemplate, error) {
	query := `SELECT template_id, name, type, description FROM coupon_templates ORDER BY template_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	templates := []model.CouponTemplate{}
	for rows.Next() {
		var t model.CouponTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.Type, &t.Description); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate template rows: %w", err)
	}
	return templates, nil
}

// GetByID returns a template by id, or nil, nil if it does not exist.
func (r *TemplateRepository) GetByID(ctx context.Context, id int64) (*model.CouponTemplate, error) {
	query := `SELECT template_id, name, type, description FROM coupon_templates WHERE template_id = $1`

	var t model.CouponTemplate
	err := r.pool.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.Type, &t.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found - let service handle
		}
		return nil, fmt.Errorf("get template %d: %w", id, err)
	}
	return &t, nil
}
