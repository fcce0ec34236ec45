package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

// d is a test helper for creating decimals from float64.
func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// --- Minimal unit conversions ---

func TestToMinimalUnits_WholeAmount(t *testing.T) {
	got, err := ToMinimalUnits(d(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 5_000_000 {
		t.Errorf("expected 5000000, got %d", got)
	}
}

func TestToMinimalUnits_TruncatesTowardZero(t *testing.T) {
	// 1.9999999 whole units → 1999999.9 minimal → truncated to 1999999.
	got, err := ToMinimalUnits(decimal.RequireFromString("1.9999999"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1_999_999 {
		t.Errorf("expected 1999999, got %d", got)
	}
}

func TestToMinimalUnits_Negative(t *testing.T) {
	if _, err := ToMinimalUnits(d(-1)); err != ErrAmountRange {
		t.Errorf("expected ErrAmountRange for negative amount, got %v", err)
	}
}

func TestToMinimalUnits_Overflow(t *testing.T) {
	huge := decimal.New(1, 20) // 10^20 whole units
	if _, err := ToMinimalUnits(huge); err != ErrAmountRange {
		t.Errorf("expected ErrAmountRange for overflow, got %v", err)
	}
}

func TestToDisplayUnits_RoundTrip(t *testing.T) {
	for _, minimal := range []int64{0, 1, 999_999, 1_000_000, 171_000_000} {
		display := ToDisplayUnits(minimal)
		back, err := ToMinimalUnits(display)
		if err != nil {
			t.Fatalf("unexpected error for %d: %v", minimal, err)
		}
		if back != minimal {
			t.Errorf("round trip broke: %d → %s → %d", minimal, display, back)
		}
	}
}

// --- Odds conversions ---

func TestScaleOdds_Valid(t *testing.T) {
	tests := []struct {
		odds string
		want int64
	}{
		{"1.01", 101},
		{"1.80", 180},
		{"3.20", 320},
		{"100.00", 10000},
	}
	for _, tt := range tests {
		got, err := ScaleOdds(decimal.RequireFromString(tt.odds))
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.odds, err)
		}
		if got != tt.want {
			t.Errorf("ScaleOdds(%s) = %d, want %d", tt.odds, got, tt.want)
		}
	}
}

func TestScaleOdds_Floors(t *testing.T) {
	got, err := ScaleOdds(decimal.RequireFromString("1.809"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 180 {
		t.Errorf("expected floor to 180, got %d", got)
	}
}

func TestScaleOdds_OutOfRange(t *testing.T) {
	for _, odds := range []string{"1.00", "0.5", "100.01", "-2"} {
		if _, err := ScaleOdds(decimal.RequireFromString(odds)); err != ErrOddsRange {
			t.Errorf("expected ErrOddsRange for %s, got %v", odds, err)
		}
	}
}

func TestFormatOdds(t *testing.T) {
	if got := FormatOdds(180); !got.Equal(d(1.8)) {
		t.Errorf("FormatOdds(180) = %s, want 1.8", got)
	}
}

func TestValidateOdds(t *testing.T) {
	if err := ValidateOdds(101); err != nil {
		t.Errorf("101 should be valid, got %v", err)
	}
	if err := ValidateOdds(100); err != ErrOddsRange {
		t.Errorf("expected ErrOddsRange for 100, got %v", err)
	}
	if err := ValidateOdds(10001); err != ErrOddsRange {
		t.Errorf("expected ErrOddsRange for 10001, got %v", err)
	}
}

func TestValidateAmount(t *testing.T) {
	if err := ValidateAmount(1_000_000); err != nil {
		t.Errorf("1 whole unit should be valid, got %v", err)
	}
	if err := ValidateAmount(-1); err != ErrAmountRange {
		t.Errorf("expected ErrAmountRange for negative, got %v", err)
	}
}
