package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/AshIgnis/emshop-coupon-system/internal/model"
)

// AdminServiceInterface defines the interface for administrator-driven
// issuance and distribution.
type AdminServiceInterface interface {
	CreateCouponActivity(ctx context.Context, req *model.CreateCouponActivityRequest) (int64, error)
	DistributeCoupons(ctx context.Context, code string, userIDs []int64) (model.DistributionResult, error)
	AssignCouponToUser(ctx context.Context, userID int64, identifier string) (*model.UserCoupon, error)
	ListTemplates(ctx context.Context) ([]model.CouponTemplate, error)
}

// AdminHandler handles HTTP requests for administrator coupon operations.
type AdminHandler struct {
	service   AdminServiceInterface
	validator *validator.Validate
}

// NewAdminHandler creates a new AdminHandler with the given service and validator.
func NewAdminHandler(svc AdminServiceInterface, v *validator.Validate) *AdminHandler {
	return &AdminHandler{service: svc, validator: v}
}

// CreateCouponActivity handles POST /api/admin/coupons requests to
// create a new coupon definition.
func (h *AdminHandler) CreateCouponActivity(c *fiber.Ctx) error {
	var req model.CreateCouponActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	id, err := h.service.CreateCouponActivity(c.Context(), &req)
	if err != nil {
		return respondServiceError(c, err)
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Int64("coupon_id", id).
		Str("code", req.Code).
		Msg("coupon activity created")
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"coupon_id": id})
}

// DistributeCoupons handles POST /api/admin/coupons/distribute requests
// to grant a coupon to a list of users.
func (h *AdminHandler) DistributeCoupons(c *fiber.Ctx) error {
	var req model.DistributeCouponsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	result, err := h.service.DistributeCoupons(c.Context(), req.Code, req.UserIDs)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// AssignCoupon handles POST /api/admin/coupons/assign requests to grant
// a coupon, resolved from a free-text identifier, to a single user.
func (h *AdminHandler) AssignCoupon(c *fiber.Ctx) error {
	var req model.AssignCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	grant, err := h.service.AssignCouponToUser(c.Context(), req.UserID, req.Identifier)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(grant)
}

// ListTemplates handles GET /api/admin/coupon-templates requests.
func (h *AdminHandler) ListTemplates(c *fiber.Ctx) error {
	templates, err := h.service.ListTemplates(c.Context())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"templates":   templates,
		"total_count": len(templates),
	})
}
