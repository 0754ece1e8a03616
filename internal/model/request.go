package model

import "github.com/shopspring/decimal"

// ClaimCouponRequest is the DTO for a user claiming a coupon by code.
type ClaimCouponRequest struct {
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	Code   string `json:"code" validate:"required,notblank,max=64"`
}

// RedeemCouponRequest is the DTO for spending a claimed coupon at checkout.
type RedeemCouponRequest struct {
	UserID  int64  `json:"user_id" validate:"required,gt=0"`
	OrderID int64  `json:"order_id" validate:"required,gt=0"`
	Code    string `json:"code" validate:"required,notblank,max=64"`
}

// DiscountRequest is the DTO for previewing a coupon's discount against
// an order amount.
type DiscountRequest struct {
	Code        string          `json:"code" validate:"required,notblank,max=64"`
	OrderAmount decimal.Decimal `json:"order_amount"`
}

// CreateCouponActivityRequest is the admin DTO for creating a coupon
// definition. Type accepts canonical names and their public aliases.
// StartTime and EndTime accept "2006-01-02 15:04:05" or "2006-01-02".
type CreateCouponActivityRequest struct {
	Name           string          `json:"name" validate:"required,notblank,max=255"`
	Code           string          `json:"code" validate:"required,notblank,max=64"`
	Type           string          `json:"type" validate:"required,notblank"`
	Value          decimal.Decimal `json:"value"`
	MinOrderAmount decimal.Decimal `json:"min_order_amount"`
	TotalQuantity  int             `json:"total_quantity" validate:"required,gte=1"`
	PerUserLimit   int             `json:"per_user_limit" validate:"omitempty,gte=1"`
	StartTime      string          `json:"start_time" validate:"required,notblank"`
	EndTime        string          `json:"end_time" validate:"required,notblank"`
	TemplateID     *int64          `json:"template_id,omitempty"`
}

// DistributeCouponsRequest is the admin DTO for bulk distribution of a
// coupon to a list of users.
type DistributeCouponsRequest struct {
	Code    string  `json:"code" validate:"required,notblank,max=64"`
	UserIDs []int64 `json:"user_ids" validate:"required,min=1,dive,gt=0"`
}

// AssignCouponRequest is the admin DTO for assigning a coupon to one
// user by a free-text identifier (id, code, name, or "name (code)").
type AssignCouponRequest struct {
	UserID     int64  `json:"user_id" validate:"required,gt=0"`
	Identifier string `json:"identifier" validate:"required,notblank,max=255"`
}
