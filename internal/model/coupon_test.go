package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCouponType(t *testing.T) {
	testCases := []struct {
		raw  string
		want CouponType
		ok   bool
	}{
		{"percentage", TypePercentage, true},
		{"discount", TypePercentage, true},
		{"fixed_amount", TypeFixedAmount, true},
		{"full_reduction", TypeFixedAmount, true},
		{"free_shipping", TypeFreeShipping, true},
		{"", "", false},
		{"DISCOUNT", "", false}, // aliases are case-sensitive
		{"bogus", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			got, ok := ParseCouponType(tc.raw)
			require.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCoupon_Stock(t *testing.T) {
	c := Coupon{TotalQty: 100, UsedQty: 37}
	assert.Equal(t, 63, c.Stock())

	c.UsedQty = 100
	assert.Equal(t, 0, c.Stock())
}

func TestCoupon_InWindow(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	c := Coupon{StartTime: start, EndTime: end}

	assert.False(t, c.InWindow(start.Add(-time.Second)))
	assert.True(t, c.InWindow(start), "window start is inclusive")
	assert.True(t, c.InWindow(start.Add(24*time.Hour)))
	assert.False(t, c.InWindow(end), "window end is exclusive")
	assert.False(t, c.InWindow(end.Add(time.Hour)))
}
