package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CouponType enumerates the canonical discount strategies.
type CouponType string

const (
	// TypePercentage keeps a fraction of the order amount; Value is the
	// fraction the buyer still pays (0.9 means pay 90%).
	TypePercentage CouponType = "percentage"
	// TypeFixedAmount subtracts Value from the order amount.
	TypeFixedAmount CouponType = "fixed_amount"
	// TypeFreeShipping waives the shipping fee. The fee itself belongs to
	// the order subsystem; this core only flags the type.
	TypeFreeShipping CouponType = "free_shipping"
)

// couponTypeAliases maps every accepted public spelling to its canonical
// type. The admin API historically accepted "discount" and
// "full_reduction" alongside the canonical names.
var couponTypeAliases = map[string]CouponType{
	"percentage":     TypePercentage,
	"discount":       TypePercentage,
	"fixed_amount":   TypeFixedAmount,
	"full_reduction": TypeFixedAmount,
	"free_shipping":  TypeFreeShipping,
}

// ParseCouponType resolves a public type name (canonical or alias) to its
// canonical CouponType. The second return value reports whether the name
// is known.
func ParseCouponType(raw string) (CouponType, bool) {
	t, ok := couponTypeAliases[raw]
	return t, ok
}

// CouponStatus is the lifecycle state of a coupon definition.
type CouponStatus string

const (
	CouponActive   CouponStatus = "active"
	CouponInactive CouponStatus = "inactive"
)

// Coupon is a coupon definition: the reusable template describing a
// promotion's rules and remaining stock.
type Coupon struct {
	ID           int64               `json:"coupon_id"`
	Name         string              `json:"name"`
	Code         string              `json:"code"`
	Type         CouponType          `json:"type"`
	Value        decimal.Decimal     `json:"value"`
	MinAmount    decimal.Decimal     `json:"min_amount"`
	MaxDiscount  decimal.NullDecimal `json:"max_discount"`
	StartTime    time.Time           `json:"start_time"`
	EndTime      time.Time           `json:"end_time"`
	TotalQty     int                 `json:"total_quantity"`
	UsedQty      int                 `json:"used_quantity"`
	PerUserLimit int                 `json:"per_user_limit"`
	Status       CouponStatus        `json:"status"`
	TemplateID   *int64              `json:"template_id,omitempty"`
	Description  string              `json:"description,omitempty"`
	CreatedAt    time.Time           `json:"-"`
}

// Stock returns the remaining claimable units.
func (c *Coupon) Stock() int {
	return c.TotalQty - c.UsedQty
}

// InWindow reports whether now falls inside the validity window
// [StartTime, EndTime).
func (c *Coupon) InWindow(now time.Time) bool {
	return !now.Before(c.StartTime) && now.Before(c.EndTime)
}

// GrantStatus is the lifecycle state of a user's claimed coupon.
type GrantStatus string

const (
	GrantUnused GrantStatus = "unused"
	GrantUsed   GrantStatus = "used"
)

// UserCoupon is one user's claimed instance of a coupon. It transitions
// unused -> used at most once, when bound to an order at checkout.
type UserCoupon struct {
	ID         int64       `json:"id"`
	UserID     int64       `json:"user_id"`
	CouponID   int64       `json:"coupon_id"`
	Status     GrantStatus `json:"status"`
	ReceivedAt time.Time   `json:"received_at"`
	UsedAt     *time.Time  `json:"used_at,omitempty"`
	OrderID    *int64      `json:"order_id,omitempty"`
}

// UserCouponDetail pairs a grant with the coupon definition it was
// claimed from, as returned by user-facing listings.
type UserCouponDetail struct {
	Grant  UserCoupon `json:"grant"`
	Coupon Coupon     `json:"coupon"`
}

// CouponTemplate is a reusable description consulted when an
// administrator creates an activity from a template.
type CouponTemplate struct {
	ID          int64      `json:"template_id"`
	Name        string     `json:"name"`
	Type        CouponType `json:"type"`
	Description string     `json:"description"`
}

// DiscountResult is the outcome of a discount computation.
type DiscountResult struct {
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	FreeShipping   bool            `json:"free_shipping,omitempty"`
}

// UsableCoupon annotates an unused grant with the discount it would
// yield for a concrete order amount.
type UsableCoupon struct {
	Grant          UserCoupon      `json:"grant"`
	Coupon         Coupon          `json:"coupon"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
}

// DistributionResult reports the outcome of a bulk distribution.
type DistributionResult struct {
	SuccessCount int `json:"success_count"`
	FailedCount  int `json:"failed_count"`
}
