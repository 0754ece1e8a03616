package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AshIgnis/emshop-coupon-system/internal/model"
	"github.com/AshIgnis/emshop-coupon-system/internal/service"
)

// PoolInterface defines the database operations needed by CouponRepository.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// couponColumns is the column list every coupon query selects, in
// scanCoupon order.
const couponColumns = `coupon_id, name, code, type, value, min_amount, max_discount,
	start_time, end_time, total_quantity, used_quantity, per_user_limit,
	status, template_id, description, created_at`

// CouponRepository provides data access for coupon definitions using pgx.
type CouponRepository struct {
	pool PoolInterface
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithPool creates a new CouponRepository with a custom
// pool interface. This is primarily used for testing.
func NewCouponRepositoryWithPool(pool PoolInterface) *CouponRepository {
	return &CouponRepository{pool: pool}
}

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var c model.Coupon
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Code,
		&c.Type,
		&c.Value,
		&c.MinAmount,
		&c.MaxDiscount,
		&c.StartTime,
		&c.EndTime,
		&c.TotalQty,
		&c.UsedQty,
		&c.PerUserLimit,
		&c.Status,
		&c.TemplateID,
		&c.Description,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Insert inserts a new coupon definition and returns its generated id.
// Returns service.ErrCodeExists if the code is already in use.
func (r *CouponRepository) Insert(ctx context.Context, coupon *model.Coupon) (int64, error) {
	query := `INSERT INTO coupons
		(name, code, type, value, min_amount, max_discount, start_time, end_time,
		 total_quantity, used_quantity, per_user_limit, status, template_id, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING coupon_id`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		coupon.Name, coupon.Code, coupon.Type, coupon.Value, coupon.MinAmount,
		coupon.MaxDiscount, coupon.StartTime, coupon.EndTime,
		coupon.TotalQty, coupon.UsedQty, coupon.PerUserLimit,
		coupon.Status, coupon.TemplateID, coupon.Description,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, service.ErrCodeExists
		}
		return 0, fmt.Errorf("insert coupon: %w", err)
	}
	return id, nil
}

// getActiveWhere runs a single-row lookup over active coupons. Ties are
// broken by lowest coupon_id so resolution stays deterministic for
// non-unique columns like name. Returns nil, nil when no row matches.
func (r *CouponRepository) getActiveWhere(ctx context.Context, condition string, arg any) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons
		WHERE status = 'active' AND ` + condition + `
		ORDER BY coupon_id LIMIT 1`

	coupon, err := scanCoupon(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found - let service handle
		}
		return nil, fmt.Errorf("get active coupon: %w", err)
	}
	return coupon, nil
}

// GetActiveByID retrieves an active coupon by its numeric id.
func (r *CouponRepository) GetActiveByID(ctx context.Context, id int64) (*model.Coupon, error) {
	return r.getActiveWhere(ctx, "coupon_id = $1", id)
}

// GetActiveByCode retrieves an active coupon by its code. Codes are
// unique and case-sensitive.
func (r *CouponRepository) GetActiveByCode(ctx context.Context, code string) (*model.Coupon, error) {
	return r.getActiveWhere(ctx, "code = $1", code)
}

// GetActiveByName retrieves an active coupon by its display name.
func (r *CouponRepository) GetActiveByName(ctx context.Context, name string) (*model.Coupon, error) {
	return r.getActiveWhere(ctx, "name = $1", name)
}

// ListActive returns active, in-window, non-exhausted coupons ordered by
// value descending.
func (r *CouponRepository) ListActive(ctx context.Context, now time.Time) ([]model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons
		WHERE status = 'active' AND start_time <= $1 AND end_time > $1
		AND used_quantity < total_quantity
		ORDER BY value DESC`

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list active coupons: %w", err)
	}
	defer rows.Close()

	coupons := []model.Coupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupon rows: %w", err)
	}
	return coupons, nil
}

// IncrementUsed increments used_quantity by one. Must be called under
// the service lock after the stock check.
func (r *CouponRepository) IncrementUsed(ctx context.Context, couponID int64) error {
	query := `UPDATE coupons SET used_quantity = used_quantity + 1 WHERE coupon_id = $1`

	_, err := r.pool.Exec(ctx, query, couponID)
	if err != nil {
		return fmt.Errorf("increment used quantity for coupon %d: %w", couponID, err)
	}
	return nil
}
