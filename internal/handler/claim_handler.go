package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/AshIgnis/emshop-coupon-system/internal/model"
)

// ClaimServiceInterface defines the interface for claim and redemption
// business logic.
type ClaimServiceInterface interface {
	ClaimCoupon(ctx context.Context, userID int64, code string) (*model.UserCoupon, error)
	RedeemCoupon(ctx context.Context, userID, orderID int64, code string) error
}

// ClaimHandler handles HTTP requests for claim and redemption operations.
type ClaimHandler struct {
	service   ClaimServiceInterface
	validator *validator.Validate
}

// NewClaimHandler creates a new ClaimHandler with the given service and validator.
func NewClaimHandler(svc ClaimServiceInterface, v *validator.Validate) *ClaimHandler {
	return &ClaimHandler{service: svc, validator: v}
}

// ClaimCoupon handles POST /api/coupons/claim requests to claim one
// grant of a coupon for a user.
func (h *ClaimHandler) ClaimCoupon(c *fiber.Ctx) error {
	var req model.ClaimCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	grant, err := h.service.ClaimCoupon(c.Context(), req.UserID, req.Code)
	if err != nil {
		return respondServiceError(c, err)
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Int64("user_id", req.UserID).
		Str("code", req.Code).
		Int64("grant_id", grant.ID).
		Msg("coupon claimed")
	return c.Status(fiber.StatusCreated).JSON(grant)
}

// RedeemCoupon handles POST /api/coupons/redeem requests to spend a
// claimed coupon against an order.
func (h *ClaimHandler) RedeemCoupon(c *fiber.Ctx) error {
	var req model.RedeemCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	if err := h.service.RedeemCoupon(c.Context(), req.UserID, req.OrderID, req.Code); err != nil {
		return respondServiceError(c, err)
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Int64("user_id", req.UserID).
		Int64("order_id", req.OrderID).
		Str("code", req.Code).
		Msg("coupon redeemed")
	return c.JSON(fiber.Map{"used": true})
}
