package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/AshIgnis/emshop-coupon-system/internal/model"
)

// lookupKind selects which coupon column a lookup matches against.
type lookupKind int

const (
	lookupID lookupKind = iota
	lookupCode
	lookupName
)

// couponLookup is one match predicate produced from a raw admin-supplied
// identifier. Lookups are tried strictly in slice order.
type couponLookup struct {
	kind  lookupKind
	value string
}

// stripQuotes removes one layer of surrounding single or double quotes
// and trims the remainder.
func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 0 && (s[0] == '"' || s[0] == '\'') {
		s = s[1:]
	}
	if len(s) > 0 && (s[len(s)-1] == '"' || s[len(s)-1] == '\'') {
		s = s[:len(s)-1]
	}
	return strings.TrimSpace(s)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseIdentifier expands a free-text identifier into an ordered,
// de-duplicated list of lookups. The identifier may be a bare numeric
// id, a code, a display name, or a composite "<name> (<code>)" string.
//
// Precedence: id(raw) if numeric, code(raw), name(raw), then for a
// parenthetical segment: code(segment), name(prefix), id(segment) if
// numeric.
func parseIdentifier(raw string) []couponLookup {
	identifier := stripQuotes(strings.TrimSpace(raw))
	if identifier == "" {
		return nil
	}

	var segment, prefix string
	if open := strings.LastIndexByte(identifier, '('); open >= 0 {
		if close := strings.IndexByte(identifier[open:], ')'); close > 1 {
			segment = stripQuotes(identifier[open+1 : open+close])
			prefix = stripQuotes(identifier[:open])
		}
	}

	var lookups []couponLookup
	seen := make(map[couponLookup]struct{})
	add := func(l couponLookup) {
		if l.value == "" {
			return
		}
		if _, dup := seen[l]; dup {
			return
		}
		seen[l] = struct{}{}
		lookups = append(lookups, l)
	}

	if isAllDigits(identifier) {
		add(couponLookup{lookupID, identifier})
	}
	add(couponLookup{lookupCode, identifier})
	add(couponLookup{lookupName, identifier})
	add(couponLookup{lookupCode, segment})
	add(couponLookup{lookupName, prefix})
	if isAllDigits(segment) {
		add(couponLookup{lookupID, segment})
	}
	return lookups
}

// ResolveCoupon resolves an admin-supplied identifier to an active
// coupon definition. Lookups run in precedence order and each tier
// breaks ties by lowest coupon id, so resolution is deterministic even
// when several coupons share a display name.
//
// Returns ErrCouponNotFound when no active coupon matches any lookup.
func (s *CouponService) ResolveCoupon(ctx context.Context, rawIdentifier string) (*model.Coupon, error) {
	lookups := parseIdentifier(rawIdentifier)
	if len(lookups) == 0 {
		return nil, ErrInvalidRequest
	}

	for _, l := range lookups {
		var (
			coupon *model.Coupon
			err    error
		)
		switch l.kind {
		case lookupID:
			id, convErr := strconv.ParseInt(l.value, 10, 64)
			if convErr != nil {
				continue
			}
			coupon, err = s.couponRepo.GetActiveByID(ctx, id)
		case lookupCode:
			coupon, err = s.couponRepo.GetActiveByCode(ctx, l.value)
		case lookupName:
			coupon, err = s.couponRepo.GetActiveByName(ctx, l.value)
		}
		if err != nil {
			return nil, fmt.Errorf("resolve coupon %q: %w", rawIdentifier, err)
		}
		if coupon != nil {
			return coupon, nil
		}
	}
	return nil, ErrCouponNotFound
}
