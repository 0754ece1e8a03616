package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AshIgnis/emshop-coupon-system/internal/model"
	"github.com/AshIgnis/emshop-coupon-system/internal/service"
	"github.com/AshIgnis/emshop-coupon-system/internal/validator"
)

// mockCatalogService is a mock implementation of CatalogServiceInterface.
type mockCatalogService struct {
	listActiveFn        func(ctx context.Context) ([]model.Coupon, error)
	listUserCouponsFn   func(ctx context.Context, userID int64, unusedOnly bool) ([]model.UserCouponDetail, error)
	availableFn         func(ctx context.Context, userID int64, orderAmount decimal.Decimal) ([]model.UsableCoupon, error)
	calculateDiscountFn func(ctx context.Context, code string, orderAmount decimal.Decimal) (model.DiscountResult, error)
}

func (m *mockCatalogService) ListActiveCoupons(ctx context.Context) ([]model.Coupon, error) {
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx)
	}
	return []model.Coupon{}, nil
}

func (m *mockCatalogService) ListUserCoupons(ctx context.Context, userID int64, unusedOnly bool) ([]model.UserCouponDetail, error) {
	if m.listUserCouponsFn != nil {
		return m.listUserCouponsFn(ctx, userID, unusedOnly)
	}
	return []model.UserCouponDetail{}, nil
}

func (m *mockCatalogService) AvailableCouponsForOrder(ctx context.Context, userID int64, orderAmount decimal.Decimal) ([]model.UsableCoupon, error) {
	if m.availableFn != nil {
		return m.availableFn(ctx, userID, orderAmount)
	}
	return []model.UsableCoupon{}, nil
}

func (m *mockCatalogService) CalculateDiscount(ctx context.Context, code string, orderAmount decimal.Decimal) (model.DiscountResult, error) {
	if m.calculateDiscountFn != nil {
		return m.calculateDiscountFn(ctx, code, orderAmount)
	}
	return model.DiscountResult{}, nil
}

func setupCouponTestApp(mockSvc *mockCatalogService) *fiber.App {
	app := fiber.New()
	h := NewCouponHandler(mockSvc, validator.New())
	app.Get("/api/coupons", h.ListCoupons)
	app.Get("/api/users/:user_id/coupons", h.GetUserCoupons)
	app.Get("/api/users/:user_id/coupons/usable", h.GetUsableCoupons)
	app.Post("/api/coupons/discount", h.CalculateDiscount)
	return app
}

func getPath(t *testing.T, app *fiber.App, path string) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	return resp
}

func TestListCoupons(t *testing.T) {
	mockSvc := &mockCatalogService{
		listActiveFn: func(ctx context.Context) ([]model.Coupon, error) {
			return []model.Coupon{
				{ID: 1, Code: "SPR10", Status: model.CouponActive},
				{ID: 2, Code: "SUM20", Status: model.CouponActive},
			}, nil
		},
	}
	app := setupCouponTestApp(mockSvc)

	resp := getPath(t, app, "/api/coupons")

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result struct {
		Coupons    []model.Coupon `json:"coupons"`
		TotalCount int            `json:"total_count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, 2, result.TotalCount)
	assert.Equal(t, "SPR10", result.Coupons[0].Code)
}

func TestListCoupons_ServiceError(t *testing.T) {
	mockSvc := &mockCatalogService{
		listActiveFn: func(ctx context.Context) ([]model.Coupon, error) {
			return nil, errors.New("database connection failed")
		},
	}
	app := setupCouponTestApp(mockSvc)

	resp := getPath(t, app, "/api/coupons")

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal server error", decodeError(t, resp))
}

func TestGetUserCoupons(t *testing.T) {
	var capturedUserID int64
	var capturedUnusedOnly bool
	mockSvc := &mockCatalogService{
		listUserCouponsFn: func(ctx context.Context, userID int64, unusedOnly bool) ([]model.UserCouponDetail, error) {
			capturedUserID = userID
			capturedUnusedOnly = unusedOnly
			return []model.UserCouponDetail{
				{Grant: model.UserCoupon{ID: 55, UserID: userID}, Coupon: model.Coupon{Code: "SPR10"}},
			}, nil
		},
	}
	app := setupCouponTestApp(mockSvc)

	resp := getPath(t, app, "/api/users/42/coupons")

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(42), capturedUserID)
	assert.False(t, capturedUnusedOnly)

	var result struct {
		UserID      int                      `json:"user_id"`
		UserCoupons []model.UserCouponDetail `json:"user_coupons"`
		TotalCount  int                      `json:"total_count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, 42, result.UserID)
	assert.Equal(t, 1, result.TotalCount)
}

func TestGetUserCoupons_UnusedFilter(t *testing.T) {
	var capturedUnusedOnly bool
	mockSvc := &mockCatalogService{
		listUserCouponsFn: func(ctx context.Context, userID int64, unusedOnly bool) ([]model.UserCouponDetail, error) {
			capturedUnusedOnly = unusedOnly
			return []model.UserCouponDetail{}, nil
		},
	}
	app := setupCouponTestApp(mockSvc)

	resp := getPath(t, app, "/api/users/42/coupons?status=unused")

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, capturedUnusedOnly)
}

func TestGetUserCoupons_BadUserID(t *testing.T) {
	app := setupCouponTestApp(&mockCatalogService{})

	for _, path := range []string{"/api/users/abc/coupons", "/api/users/0/coupons", "/api/users/-3/coupons"} {
		resp := getPath(t, app, path)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, path)
	}
}

func TestGetUsableCoupons(t *testing.T) {
	var capturedAmount decimal.Decimal
	mockSvc := &mockCatalogService{
		availableFn: func(ctx context.Context, userID int64, orderAmount decimal.Decimal) ([]model.UsableCoupon, error) {
			capturedAmount = orderAmount
			return []model.UsableCoupon{
				{
					Grant:          model.UserCoupon{ID: 55},
					Coupon:         model.Coupon{Code: "SPR10"},
					DiscountAmount: decimal.RequireFromString("20"),
					FinalAmount:    decimal.RequireFromString("280"),
				},
			}, nil
		},
	}
	app := setupCouponTestApp(mockSvc)

	resp := getPath(t, app, "/api/users/42/coupons/usable?order_amount=300")

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, capturedAmount.Equal(decimal.RequireFromString("300")))

	var result struct {
		Coupons    []model.UsableCoupon `json:"coupons"`
		TotalCount int                  `json:"total_count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Equal(t, 1, result.TotalCount)
	assert.True(t, result.Coupons[0].FinalAmount.Equal(decimal.RequireFromString("280")))
}

func TestGetUsableCoupons_BadAmount(t *testing.T) {
	app := setupCouponTestApp(&mockCatalogService{})

	resp := getPath(t, app, "/api/users/42/coupons/usable?order_amount=not-a-number")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = getPath(t, app, "/api/users/42/coupons/usable?order_amount=-5")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCalculateDiscountHandler_Success(t *testing.T) {
	mockSvc := &mockCatalogService{
		calculateDiscountFn: func(ctx context.Context, code string, orderAmount decimal.Decimal) (model.DiscountResult, error) {
			assert.Equal(t, "SPR10", code)
			return model.DiscountResult{
				DiscountAmount: decimal.RequireFromString("20"),
				FinalAmount:    decimal.RequireFromString("280"),
			}, nil
		},
	}
	app := setupCouponTestApp(mockSvc)

	resp := postJSON(t, app, "/api/coupons/discount", `{"code": "SPR10", "order_amount": "300"}`)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result model.DiscountResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.DiscountAmount.Equal(decimal.RequireFromString("20")))
	assert.True(t, result.FinalAmount.Equal(decimal.RequireFromString("280")))
	assert.False(t, result.FreeShipping)
}

func TestCalculateDiscountHandler_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not_found", service.ErrCouponNotFound, fiber.StatusNotFound},
		{"min_not_met", service.ErrMinAmountNotMet, fiber.StatusBadRequest},
		{"expired", service.ErrExpired, fiber.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := &mockCatalogService{
				calculateDiscountFn: func(ctx context.Context, code string, orderAmount decimal.Decimal) (model.DiscountResult, error) {
					return model.DiscountResult{}, tt.err
				},
			}
			app := setupCouponTestApp(mockSvc)

			resp := postJSON(t, app, "/api/coupons/discount", `{"code": "SPR10", "order_amount": "300"}`)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.err.Error(), decodeError(t, resp))
		})
	}
}

func TestCalculateDiscountHandler_BlankCode(t *testing.T) {
	app := setupCouponTestApp(&mockCatalogService{})

	resp := postJSON(t, app, "/api/coupons/discount", `{"code": "", "order_amount": "300"}`)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid request: Code is required", decodeError(t, resp))
}
