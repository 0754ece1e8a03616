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

// GrantPoolInterface defines the database operations needed by GrantRepository.
type GrantPoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// GrantRepository provides data access for user coupon grants using pgx.
type GrantRepository struct {
	pool GrantPoolInterface
}

// NewGrantRepository creates a new GrantRepository with the given pool.
func NewGrantRepository(pool *pgxpool.Pool) *GrantRepository {
	return &GrantRepository{pool: pool}
}

// NewGrantRepositoryWithPool creates a new GrantRepository with a custom
// pool interface. This is primarily used for testing.
func NewGrantRepositoryWithPool(pool GrantPoolInterface) *GrantRepository {
	return &GrantRepository{pool: pool}
}

func scanGrant(row pgx.Row) (*model.UserCoupon, error) {
	var g model.UserCoupon
	err := row.Scan(
		&g.ID,
		&g.UserID,
		&g.CouponID,
		&g.Status,
		&g.ReceivedAt,
		&g.UsedAt,
		&g.OrderID,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Insert inserts a new unused grant and returns it with its generated id.
func (r *GrantRepository) Insert(ctx context.Context, userID, couponID int64, receivedAt time.Time) (*model.UserCoupon, error) {
	query := `INSERT INTO user_coupons (user_id, coupon_id, status, received_at)
		VALUES ($1, $2, 'unused', $3)
		RETURNING id`

	var id int64
	if err := r.pool.QueryRow(ctx, query, userID, couponID, receivedAt).Scan(&id); err != nil {
		return nil, fmt.Errorf("insert grant: %w", err)
	}
	return &model.UserCoupon{
		ID:         id,
		UserID:     userID,
		CouponID:   couponID,
		Status:     model.GrantUnused,
		ReceivedAt: receivedAt,
	}, nil
}

// CountByUserAndCoupon returns how many grants (any status) the user
// holds for the coupon.
func (r *GrantRepository) CountByUserAndCoupon(ctx context.Context, userID, couponID int64) (int, error) {
	query := `SELECT COUNT(*) FROM user_coupons WHERE user_id = $1 AND coupon_id = $2`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID, couponID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count grants: %w", err)
	}
	return count, nil
}

// LatestByUserAndCoupon returns the user's most recently received grant
// for the coupon, or nil, nil if none exists.
func (r *GrantRepository) LatestByUserAndCoupon(ctx context.Context, userID, couponID int64) (*model.UserCoupon, error) {
	query := `SELECT id, user_id, coupon_id, status, received_at, used_at, order_id
		FROM user_coupons WHERE user_id = $1 AND coupon_id = $2
		ORDER BY received_at DESC, id DESC LIMIT 1`

	grant, err := scanGrant(r.pool.QueryRow(ctx, query, userID, couponID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest grant: %w", err)
	}
	return grant, nil
}

// ListByUser returns the user's grants joined with their coupon
// definitions, newest first. With unusedOnly set, used grants are
// filtered out.
func (r *GrantRepository) ListByUser(ctx context.Context, userID int64, unusedOnly bool) ([]model.UserCouponDetail, error) {
	query := `SELECT uc.id, uc.user_id, uc.coupon_id, uc.status, uc.received_at, uc.used_at, uc.order_id,
			c.coupon_id, c.name, c.code, c.type, c.value, c.min_amount, c.max_discount,
			c.start_time, c.end_time, c.total_quantity, c.used_quantity, c.per_user_limit,
			c.status, c.template_id, c.description, c.created_at
		FROM user_coupons uc
		JOIN coupons c ON uc.coupon_id = c.coupon_id
		WHERE uc.user_id = $1`
	if unusedOnly {
		query += ` AND uc.status = 'unused'`
	}
	query += ` ORDER BY uc.received_at DESC, uc.id DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list grants for user %d: %w", userID, err)
	}
	defer rows.Close()

	details := []model.UserCouponDetail{}
	for rows.Next() {
		var d model.UserCouponDetail
		err := rows.Scan(
			&d.Grant.ID, &d.Grant.UserID, &d.Grant.CouponID, &d.Grant.Status,
			&d.Grant.ReceivedAt, &d.Grant.UsedAt, &d.Grant.OrderID,
			&d.Coupon.ID, &d.Coupon.Name, &d.Coupon.Code, &d.Coupon.Type,
			&d.Coupon.Value, &d.Coupon.MinAmount, &d.Coupon.MaxDiscount,
			&d.Coupon.StartTime, &d.Coupon.EndTime, &d.Coupon.TotalQty,
			&d.Coupon.UsedQty, &d.Coupon.PerUserLimit, &d.Coupon.Status,
			&d.Coupon.TemplateID, &d.Coupon.Description, &d.Coupon.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan grant detail: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grant rows: %w", err)
	}
	return details, nil
}

// ListByUserAndCode returns all of the user's grants for the coupon with
// the given code, unused first.
func (r *GrantRepository) ListByUserAndCode(ctx context.Context, userID int64, code string) ([]model.UserCoupon, error) {
	query := `SELECT uc.id, uc.user_id, uc.coupon_id, uc.status, uc.received_at, uc.used_at, uc.order_id
		FROM user_coupons uc
		JOIN coupons c ON uc.coupon_id = c.coupon_id
		WHERE uc.user_id = $1 AND c.code = $2
		ORDER BY uc.status, uc.received_at`

	rows, err := r.pool.Query(ctx, query, userID, code)
	if err != nil {
		return nil, fmt.Errorf("list grants for code %s: %w", code, err)
	}
	defer rows.Close()

	grants := []model.UserCoupon{}
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grant: %w", err)
		}
		grants = append(grants, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grant rows: %w", err)
	}
	return grants, nil
}

// MarkUsed transitions an unused grant to used, stamping used_at and the
// order id. The status guard in the WHERE clause makes the transition
// single-shot even if callers race; a second attempt matches no row and
// returns service.ErrAlreadyUsed.
func (r *GrantRepository) MarkUsed(ctx context.Context, grantID, orderID int64, usedAt time.Time) error {
	query := `UPDATE user_coupons SET status = 'used', used_at = $2, order_id = $3
		WHERE id = $1 AND status = 'unused'`

	tag, err := r.pool.Exec(ctx, query, grantID, usedAt, orderID)
	if err != nil {
		return fmt.Errorf("mark grant %d used: %w", grantID, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrAlreadyUsed
	}
	return nil
}
