package service

import (
	"github.com/shopspring/decimal"

	"github.com/AshIgnis/emshop-coupon-system/internal/model"
)

// ComputeDiscount computes the discount and final amount a coupon yields
// for an order amount. It is pure: no side effects, identical inputs
// always produce identical outputs.
//
// Returns ErrMinAmountNotMet when the order amount is below the coupon's
// minimum, and ErrInvalidCouponType for a coupon whose type is not one
// of the canonical values.
func ComputeDiscount(coupon *model.Coupon, orderAmount decimal.Decimal) (model.DiscountResult, error) {
	if orderAmount.LessThan(coupon.MinAmount) {
		return model.DiscountResult{}, ErrMinAmountNotMet
	}

	var result model.DiscountResult
	switch coupon.Type {
	case model.TypePercentage:
		// Value is the fraction still paid: 0.9 keeps 90% of the amount.
		discount := orderAmount.Mul(decimal.NewFromInt(1).Sub(coupon.Value))
		if coupon.MaxDiscount.Valid && discount.GreaterThan(coupon.MaxDiscount.Decimal) {
			discount = coupon.MaxDiscount.Decimal
		}
		result.DiscountAmount = discount
	case model.TypeFixedAmount:
		result.DiscountAmount = coupon.Value
	case model.TypeFreeShipping:
		// The shipping fee is owned by the order subsystem; the monetary
		// discount here is zero and the flag tells the caller to waive it.
		result.DiscountAmount = decimal.Zero
		result.FreeShipping = true
	default:
		return model.DiscountResult{}, ErrInvalidCouponType
	}

	final := orderAmount.Sub(result.DiscountAmount)
	if final.IsNegative() {
		final = decimal.Zero
	}
	result.FinalAmount = final
	return result, nil
}
