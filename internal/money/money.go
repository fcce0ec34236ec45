// Package money implements the fixed-point conversions between whole-unit
// display amounts and the int64 minimal-unit representation used by the
// ledger, and between decimal odds and their scaled integer form.
//
// Display values use shopspring/decimal at the boundary; every value the
// ledger itself touches is an int64. Mixing the two representations is the
// single most error-prone seam in the system, so all conversions live here.
package money

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

const (
	// Scale is the number of minimal units per whole currency unit.
	Scale int64 = 1_000_000

	// OddsScale converts decimal odds to their integer representation:
	// decimal odds 1.80 → 180.
	OddsScale int64 = 100

	// MinOdds and MaxOdds bound the scaled odds range (1.01–100.00).
	MinOdds int64 = 101
	MaxOdds int64 = 10_000
)

var (
	// ErrAmountRange is returned when an amount is negative or does not fit
	// in an int64 after scaling.
	ErrAmountRange = errors.New("money: amount outside representable range")

	// ErrOddsRange is returned when odds fall outside [1.01, 100.00].
	ErrOddsRange = errors.New("money: odds outside allowed range [1.01, 100.00]")
)

// ToMinimalUnits converts a whole-unit display amount to minimal units,
// truncating toward zero. Fails for negative amounts and int64 overflow.
func ToMinimalUnits(display decimal.Decimal) (int64, error) {
	scaled := display.Mul(decimal.NewFromInt(Scale)).Truncate(0)
	if scaled.IsNegative() {
		return 0, ErrAmountRange
	}
	bi := scaled.BigInt()
	if !bi.IsInt64() {
		return 0, ErrAmountRange
	}
	return bi.Int64(), nil
}

// ToDisplayUnits converts minimal units back to a whole-unit display value.
// Total function: every int64 has an exact decimal representation.
func ToDisplayUnits(minimal int64) decimal.Decimal {
	return decimal.New(minimal, 0).Div(decimal.NewFromInt(Scale))
}

// ScaleOdds converts decimal odds to the scaled integer form, flooring.
// Fails when the result falls outside [MinOdds, MaxOdds].
func ScaleOdds(odds decimal.Decimal) (int64, error) {
	scaled := odds.Mul(decimal.NewFromInt(OddsScale)).Floor()
	bi := scaled.BigInt()
	if !bi.IsInt64() {
		return 0, ErrOddsRange
	}
	return checkOdds(bi.Int64())
}

// FormatOdds converts scaled odds back to their decimal form. Total function.
func FormatOdds(scaled int64) decimal.Decimal {
	return decimal.New(scaled, 0).Div(decimal.NewFromInt(OddsScale))
}

// ValidateOdds reports whether an already-scaled odds value is in range.
func ValidateOdds(scaled int64) error {
	_, err := checkOdds(scaled)
	return err
}

// ValidateAmount reports whether a minimal-unit amount is usable by the
// ledger: non-negative and small enough that scaled-odds multiplication
// cannot overflow an int64.
func ValidateAmount(minimal int64) error {
	if minimal < 0 || minimal > math.MaxInt64/MaxOdds {
		return ErrAmountRange
	}
	return nil
}

func checkOdds(scaled int64) (int64, error) {
	if scaled < MinOdds || scaled > MaxOdds {
		return 0, ErrOddsRange
	}
	return scaled, nil
}
