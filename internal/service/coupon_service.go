package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/AshIgnis/emshop-coupon-system/internal/model"
)

// Clock supplies the current time for validity-window checks. Tests
// inject fixed clocks; production code uses SystemClock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock Clock used outside tests.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// CouponRepositoryInterface defines the interface for coupon definition
// data access. Get* methods return nil, nil when no row matches.
type CouponRepositoryInterface interface {
	Insert(ctx context.Context, coupon *model.Coupon) (int64, error)
	GetActiveByID(ctx context.Context, id int64) (*model.Coupon, error)
	GetActiveByCode(ctx context.Context, code string) (*model.Coupon, error)
	GetActiveByName(ctx context.Context, name string) (*model.Coupon, error)
	ListActive(ctx context.Context, now time.Time) ([]model.Coupon, error)
	IncrementUsed(ctx context.Context, couponID int64) error
}

// GrantRepositoryInterface defines the interface for user coupon grant
// data access.
type GrantRepositoryInterface interface {
	Insert(ctx context.Context, userID, couponID int64, receivedAt time.Time) (*model.UserCoupon, error)
	CountByUserAndCoupon(ctx context.Context, userID, couponID int64) (int, error)
	LatestByUserAndCoupon(ctx context.Context, userID, couponID int64) (*model.UserCoupon, error)
	ListByUser(ctx context.Context, userID int64, unusedOnly bool) ([]model.UserCouponDetail, error)
	ListByUserAndCode(ctx context.Context, userID int64, code string) ([]model.UserCoupon, error)
	MarkUsed(ctx context.Context, grantID, orderID int64, usedAt time.Time) error
}

// TemplateRepositoryInterface defines the interface for coupon template
// data access.
type TemplateRepositoryInterface interface {
	List(ctx context.Context) ([]model.CouponTemplate, error)
	GetByID(ctx context.Context, id int64) (*model.CouponTemplate, error)
}

// CouponService owns the coupon subsystem's business logic and its
// mutual-exclusion lock. The storage collaborator serializes individual
// statements but cannot check a ceiling and increment a counter as one
// atomic step; mu closes that gap by covering every check-then-act
// sequence that touches stock or grant state. Each CouponService is an
// isolated instance: constructing several (as tests do) shares nothing.
type CouponService struct {
	mu           sync.Mutex
	couponRepo   CouponRepositoryInterface
	grantRepo    GrantRepositoryInterface
	templateRepo TemplateRepositoryInterface
	clock        Clock
}

// NewCouponService creates a CouponService using the system clock.
func NewCouponService(couponRepo CouponRepositoryInterface, grantRepo GrantRepositoryInterface, templateRepo TemplateRepositoryInterface) *CouponService {
	return NewCouponServiceWithClock(couponRepo, grantRepo, templateRepo, SystemClock{})
}

// NewCouponServiceWithClock creates a CouponService with a custom Clock.
// Primarily used for testing validity-window behavior.
func NewCouponServiceWithClock(couponRepo CouponRepositoryInterface, grantRepo GrantRepositoryInterface, templateRepo TemplateRepositoryInterface, clock Clock) *CouponService {
	return &CouponService{
		couponRepo:   couponRepo,
		grantRepo:    grantRepo,
		templateRepo: templateRepo,
		clock:        clock,
	}
}

// ClaimCoupon claims one grant of the coupon with the given code for a
// user. The whole check-then-act sequence runs under the subsystem lock
// so a successful claim consumes exactly one unit of stock.
//
// Returns:
//   - ErrCouponNotFound if no active coupon has the code
//   - ErrNotStarted / ErrExpired outside the validity window
//   - ErrOutOfStock when no units remain
//   - ErrPerUserLimitExceeded when the user already holds the limit
func (s *CouponService) ClaimCoupon(ctx context.Context, userID int64, code string) (*model.UserCoupon, error) {
	if userID <= 0 || strings.TrimSpace(code) == "" {
		return nil, ErrInvalidRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coupon, err := s.couponRepo.GetActiveByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}

	now := s.clock.Now()
	if now.Before(coupon.StartTime) {
		return nil, ErrNotStarted
	}
	if !now.Before(coupon.EndTime) {
		return nil, ErrExpired
	}

	grant, err := s.grantLocked(ctx, userID, coupon, now)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("user_id", userID).
		Int64("coupon_id", coupon.ID).
		Str("code", coupon.Code).
		Int("remaining", coupon.Stock()).
		Msg("coupon claimed")
	return grant, nil
}

// grantLocked is the per-grant claim primitive: verify stock and the
// per-user limit, insert the grant, increment used_quantity by one.
// Callers must hold s.mu. On success coupon.UsedQty reflects the new
// count, so batch callers can reuse the same coupon row.
func (s *CouponService) grantLocked(ctx context.Context, userID int64, coupon *model.Coupon, now time.Time) (*model.UserCoupon, error) {
	if coupon.Stock() <= 0 {
		return nil, ErrOutOfStock
	}

	held, err := s.grantRepo.CountByUserAndCoupon(ctx, userID, coupon.ID)
	if err != nil {
		return nil, fmt.Errorf("count grants: %w", err)
	}
	if held >= coupon.PerUserLimit {
		return nil, ErrPerUserLimitExceeded
	}

	grant, err := s.grantRepo.Insert(ctx, userID, coupon.ID, now)
	if err != nil {
		return nil, fmt.Errorf("insert grant: %w", err)
	}
	if err := s.couponRepo.IncrementUsed(ctx, coupon.ID); err != nil {
		return nil, fmt.Errorf("increment used quantity: %w", err)
	}
	coupon.UsedQty++
	return grant, nil
}

// RedeemCoupon marks the caller's unused grant for the coupon code as
// used and binds it to an order. Redemption is exactly-once: a repeat
// call finds no unused grant and fails with ErrAlreadyUsed, mutating
// nothing.
func (s *CouponService) RedeemCoupon(ctx context.Context, userID, orderID int64, code string) error {
	if userID <= 0 || orderID <= 0 || strings.TrimSpace(code) == "" {
		return ErrInvalidRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	grants, err := s.grantRepo.ListByUserAndCode(ctx, userID, code)
	if err != nil {
		return fmt.Errorf("list grants: %w", err)
	}
	if len(grants) == 0 {
		return ErrGrantNotFound
	}

	var unused *model.UserCoupon
	for i := range grants {
		if grants[i].Status == model.GrantUnused {
			unused = &grants[i]
			break
		}
	}
	if unused == nil {
		return ErrAlreadyUsed
	}

	if err := s.grantRepo.MarkUsed(ctx, unused.ID, orderID, s.clock.Now()); err != nil {
		return fmt.Errorf("mark grant used: %w", err)
	}

	log.Info().
		Int64("user_id", userID).
		Int64("order_id", orderID).
		Str("code", code).
		Int64("grant_id", unused.ID).
		Msg("coupon redeemed")
	return nil
}

// DistributeCoupons grants a coupon to each listed user, one claim
// primitive per user under the subsystem lock. Fulfillment is partial:
// a user already holding any grant for the coupon, or a grant attempted
// after stock runs out, counts as a failure and consumes nothing.
func (s *CouponService) DistributeCoupons(ctx context.Context, code string, userIDs []int64) (model.DistributionResult, error) {
	var result model.DistributionResult
	if strings.TrimSpace(code) == "" || len(userIDs) == 0 {
		return result, ErrInvalidRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coupon, err := s.couponRepo.GetActiveByCode(ctx, code)
	if err != nil {
		return result, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return result, ErrCouponNotFound
	}

	now := s.clock.Now()
	for _, userID := range userIDs {
		if userID <= 0 {
			result.FailedCount++
			continue
		}
		held, err := s.grantRepo.CountByUserAndCoupon(ctx, userID, coupon.ID)
		if err != nil {
			return result, fmt.Errorf("count grants: %w", err)
		}
		if held > 0 {
			// Distribution never tops up a user who already holds the
			// coupon, used or not.
			result.FailedCount++
			continue
		}
		if _, err := s.grantLocked(ctx, userID, coupon, now); err != nil {
			switch KindOf(err) {
			case KindConflict:
				result.FailedCount++
				continue
			default:
				return result, err
			}
		}
		result.SuccessCount++
	}

	log.Info().
		Str("code", coupon.Code).
		Int("success_count", result.SuccessCount).
		Int("failed_count", result.FailedCount).
		Msg("coupons distributed")
	return result, nil
}

// AssignCouponToUser resolves a free-text identifier and grants the
// coupon to the user. A user who already holds an unused grant gets that
// grant back instead of a new one; only a fully used grant falls through
// to a fresh claim.
func (s *CouponService) AssignCouponToUser(ctx context.Context, userID int64, identifier string) (*model.UserCoupon, error) {
	if userID <= 0 {
		return nil, ErrInvalidRequest
	}

	coupon, err := s.ResolveCoupon(ctx, identifier)
	if err != nil {
		return nil, err
	}

	existing, err := s.grantRepo.LatestByUserAndCoupon(ctx, userID, coupon.ID)
	if err != nil {
		return nil, fmt.Errorf("get existing grant: %w", err)
	}
	if existing != nil && existing.Status != model.GrantUsed {
		log.Info().
			Int64("user_id", userID).
			Int64("coupon_id", coupon.ID).
			Msg("assignment skipped, user already holds an unused grant")
		return existing, nil
	}

	return s.ClaimCoupon(ctx, userID, coupon.Code)
}

// timeLayouts accepted for activity start/end boundaries. A date-only
// boundary means midnight.
var timeLayouts = []string{"2006-01-02 15:04:05", "2006-01-02"}

func parseActivityTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized time %q", ErrInvalidRequest, raw)
}

// CreateCouponActivity creates a new coupon definition. The public type
// vocabulary includes aliases ("discount", "full_reduction") that
// normalize to canonical types; anything else is a validation error.
// A referenced template backfills the description; a missing template is
// logged and ignored.
func (s *CouponService) CreateCouponActivity(ctx context.Context, req *model.CreateCouponActivityRequest) (int64, error) {
	if req == nil {
		return 0, ErrInvalidRequest
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Code) == "" {
		return 0, ErrInvalidRequest
	}
	if req.TotalQuantity <= 0 {
		return 0, ErrInvalidRequest
	}

	couponType, ok := model.ParseCouponType(strings.TrimSpace(req.Type))
	if !ok {
		return 0, ErrInvalidCouponType
	}
	if couponType != model.TypeFreeShipping && !req.Value.IsPositive() {
		return 0, ErrInvalidRequest
	}

	start, err := parseActivityTime(req.StartTime)
	if err != nil {
		return 0, err
	}
	end, err := parseActivityTime(req.EndTime)
	if err != nil {
		return 0, err
	}
	if !start.Before(end) {
		return 0, fmt.Errorf("%w: start must precede end", ErrInvalidRequest)
	}

	perUserLimit := req.PerUserLimit
	if perUserLimit <= 0 {
		perUserLimit = 1
	}

	coupon := &model.Coupon{
		Name:         strings.TrimSpace(req.Name),
		Code:         strings.TrimSpace(req.Code),
		Type:         couponType,
		Value:        req.Value,
		MinAmount:    req.MinOrderAmount,
		StartTime:    start,
		EndTime:      end,
		TotalQty:     req.TotalQuantity,
		UsedQty:      0,
		PerUserLimit: perUserLimit,
		Status:       model.CouponActive,
		TemplateID:   req.TemplateID,
	}

	if req.TemplateID != nil {
		tpl, err := s.templateRepo.GetByID(ctx, *req.TemplateID)
		if err != nil {
			return 0, fmt.Errorf("get template: %w", err)
		}
		if tpl != nil {
			coupon.Description = tpl.Description
		} else {
			log.Warn().
				Int64("template_id", *req.TemplateID).
				Str("code", coupon.Code).
				Msg("coupon template not found, creating without description")
		}
	}

	id, err := s.couponRepo.Insert(ctx, coupon)
	if err != nil {
		return 0, err
	}

	log.Info().
		Int64("coupon_id", id).
		Str("code", coupon.Code).
		Str("type", string(coupon.Type)).
		Int("total_quantity", coupon.TotalQty).
		Msg("coupon activity created")
	return id, nil
}

// ListActiveCoupons returns active, in-window, non-exhausted coupon
// definitions ordered by value descending.
func (s *CouponService) ListActiveCoupons(ctx context.Context) ([]model.Coupon, error) {
	coupons, err := s.couponRepo.ListActive(ctx, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("list active coupons: %w", err)
	}
	return coupons, nil
}

// ListUserCoupons returns a user's grants joined with their coupon
// definitions, newest first, optionally filtered to unused grants.
func (s *CouponService) ListUserCoupons(ctx context.Context, userID int64, unusedOnly bool) ([]model.UserCouponDetail, error) {
	if userID <= 0 {
		return nil, ErrInvalidRequest
	}
	details, err := s.grantRepo.ListByUser(ctx, userID, unusedOnly)
	if err != nil {
		return nil, fmt.Errorf("list user coupons: %w", err)
	}
	return details, nil
}

// AvailableCouponsForOrder returns the user's unused grants whose coupon
// is active, in-window, and satisfied by the order amount, each
// annotated with its computed discount.
func (s *CouponService) AvailableCouponsForOrder(ctx context.Context, userID int64, orderAmount decimal.Decimal) ([]model.UsableCoupon, error) {
	if userID <= 0 || orderAmount.IsNegative() {
		return nil, ErrInvalidRequest
	}

	details, err := s.grantRepo.ListByUser(ctx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("list user coupons: %w", err)
	}

	now := s.clock.Now()
	usable := make([]model.UsableCoupon, 0, len(details))
	for _, d := range details {
		if d.Coupon.Status != model.CouponActive || !d.Coupon.InWindow(now) {
			continue
		}
		res, err := ComputeDiscount(&d.Coupon, orderAmount)
		if err != nil {
			// Minimum not met: the grant simply isn't usable for this order.
			continue
		}
		usable = append(usable, model.UsableCoupon{
			Grant:          d.Grant,
			Coupon:         d.Coupon,
			DiscountAmount: res.DiscountAmount,
			FinalAmount:    res.FinalAmount,
		})
	}
	return usable, nil
}

// CalculateDiscount previews the discount a coupon code yields for an
// order amount. The coupon must be active and inside its validity
// window.
func (s *CouponService) CalculateDiscount(ctx context.Context, code string, orderAmount decimal.Decimal) (model.DiscountResult, error) {
	if strings.TrimSpace(code) == "" || orderAmount.IsNegative() {
		return model.DiscountResult{}, ErrInvalidRequest
	}

	coupon, err := s.couponRepo.GetActiveByCode(ctx, code)
	if err != nil {
		return model.DiscountResult{}, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return model.DiscountResult{}, ErrCouponNotFound
	}

	now := s.clock.Now()
	if now.Before(coupon.StartTime) {
		return model.DiscountResult{}, ErrNotStarted
	}
	if !now.Before(coupon.EndTime) {
		return model.DiscountResult{}, ErrExpired
	}

	return ComputeDiscount(coupon, orderAmount)
}

// ListTemplates returns all coupon templates.
func (s *CouponService) ListTemplates(ctx context.Context) ([]model.CouponTemplate, error) {
	templates, err := s.templateRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}
