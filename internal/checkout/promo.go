package checkout

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/ecostore/internal/remote"
	apperrors "github.com/jafarshop/ecostore/pkg/errors"
)

// PromoValidator checks promo codes remotely
type PromoValidator interface {
	ValidatePromo(ctx context.Context, code string) (*remote.PromoResult, error)
}

// offlinePromos is consulted only when the promo API is unreachable
var offlinePromos = map[string]decimal.Decimal{
	"WELCOME20": decimal.RequireFromString("0.20"),
	"ECO10":     decimal.RequireFromString("0.10"),
	"NEWYEAR15": decimal.RequireFromString("0.15"),
}

// NormalizePromo trims and upper-cases a code as typed by the user
func NormalizePromo(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Discount applies a rate to the subtotal, rounded to whole currency units
func Discount(subtotal, rate decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(rate).Round(0)
}

// resolvePromo returns the discount rate of a code. It reports whether the
// answer came from the offline table.
func resolvePromo(ctx context.Context, v PromoValidator, code string, logger *zap.Logger) (decimal.Decimal, bool, error) {
	result, err := v.ValidatePromo(ctx, code)
	if err == nil {
		if !result.Valid || !result.Discount.IsPositive() {
			return decimal.Zero, false, &apperrors.ErrValidation{
				Step:    "promo",
				Field:   FieldPromo,
				Message: "Promo code is invalid or expired",
			}
		}
		return clampRate(result.Discount), false, nil
	}
	if !apperrors.IsRemoteUnavailable(err) {
		return decimal.Zero, false, err
	}

	logger.Info("Promo API unavailable, using offline codes", zap.String("code", code))
	rate, ok := offlinePromos[code]
	if !ok {
		return decimal.Zero, true, &apperrors.ErrValidation{
			Step:    "promo",
			Field:   FieldPromo,
			Message: "Promo code is invalid",
		}
	}
	return rate, true, nil
}

func clampRate(rate decimal.Decimal) decimal.Decimal {
	if rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return rate
}
