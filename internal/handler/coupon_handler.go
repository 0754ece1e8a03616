package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/AshIgnis/emshop-coupon-system/internal/model"
)

// CatalogServiceInterface defines the interface for read-only coupon
// queries and discount previews.
type CatalogServiceInterface interface {
	ListActiveCoupons(ctx context.Context) ([]model.Coupon, error)
	ListUserCoupons(ctx context.Context, userID int64, unusedOnly bool) ([]model.UserCouponDetail, error)
	AvailableCouponsForOrder(ctx context.Context, userID int64, orderAmount decimal.Decimal) ([]model.UsableCoupon, error)
	CalculateDiscount(ctx context.Context, code string, orderAmount decimal.Decimal) (model.DiscountResult, error)
}

// CouponHandler handles HTTP requests for coupon catalog operations.
type CouponHandler struct {
	service   CatalogServiceInterface
	validator *validator.Validate
}

// NewCouponHandler creates a new CouponHandler with the given service and validator.
func NewCouponHandler(svc CatalogServiceInterface, v *validator.Validate) *CouponHandler {
	return &CouponHandler{service: svc, validator: v}
}

// ListCoupons handles GET /api/coupons requests: active, in-window,
// non-exhausted coupon definitions.
func (h *CouponHandler) ListCoupons(c *fiber.Ctx) error {
	coupons, err := h.service.ListActiveCoupons(c.Context())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"coupons":     coupons,
		"total_count": len(coupons),
	})
}

// GetUserCoupons handles GET /api/users/:user_id/coupons requests. With
// ?status=unused only unclaimed grants are returned.
func (h *CouponHandler) GetUserCoupons(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("user_id")
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: user_id must be a positive integer"})
	}
	unusedOnly := c.Query("status") == "unused"

	details, err := h.service.ListUserCoupons(c.Context(), int64(userID), unusedOnly)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"user_id":      userID,
		"user_coupons": details,
		"total_count":  len(details),
	})
}

// GetUsableCoupons handles GET /api/users/:user_id/coupons/usable
// requests: the user's unused grants usable for the given order amount,
// annotated with computed discounts.
func (h *CouponHandler) GetUsableCoupons(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("user_id")
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: user_id must be a positive integer"})
	}
	orderAmount, err := decimal.NewFromString(c.Query("order_amount", "0"))
	if err != nil || orderAmount.IsNegative() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: order_amount must be a non-negative number"})
	}

	usable, err := h.service.AvailableCouponsForOrder(c.Context(), int64(userID), orderAmount)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"user_id":     userID,
		"coupons":     usable,
		"total_count": len(usable),
	})
}

// CalculateDiscount handles POST /api/coupons/discount requests to
// preview the discount a coupon code yields for an order amount.
func (h *CouponHandler) CalculateDiscount(c *fiber.Ctx) error {
	var req model.DiscountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	result, err := h.service.CalculateDiscount(c.Context(), req.Code, req.OrderAmount)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}
