package revsplit

import (
	"testing"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/gamevault/gamevault-backend/pkg/errors"
)

func mustEngine(t *testing.T, rate string) Engine {
	t.Helper()
	eng, err := NewEngine(decimal.RequireFromString(rate))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return eng
}

func TestSplitStandardRate(t *testing.T) {
	eng := mustEngine(t, "0.15")

	b, err := eng.Split(decimal.RequireFromString("20.00"))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if got := b.Commission.String(); got != "3" {
		t.Fatalf("commission = %s, want 3", got)
	}
	if got := b.Net.String(); got != "17" {
		t.Fatalf("net = %s, want 17", got)
	}
	if !b.Commission.Add(b.Net).Equal(b.Gross) {
		t.Fatalf("commission + net != gross")
	}
}

func TestSplitRoundsHalfUp(t *testing.T) {
	eng := mustEngine(t, "0.15")

	// 19.99 * 0.15 = 2.9985 -> 3.00, net 16.99
	b, err := eng.Split(decimal.RequireFromString("19.99"))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if got := b.Commission.StringFixed(2); got != "3.00" {
		t.Fatalf("commission = %s, want 3.00", got)
	}
	if got := b.Net.StringFixed(2); got != "16.99" {
		t.Fatalf("net = %s, want 16.99", got)
	}
}

func TestSplitNetPlusCommissionEqualsGross(t *testing.T) {
	eng := mustEngine(t, "0.15")

	cases := []string{"0.01", "0.10", "1.03", "9.99", "14.55", "33.33", "100.00", "12345.67"}
	for _, amount := range cases {
		b, err := eng.Split(decimal.RequireFromString(amount))
		if err != nil {
			t.Fatalf("Split(%s): %v", amount, err)
		}
		if !b.Commission.Add(b.Net).Equal(b.Gross) {
			t.Fatalf("Split(%s): commission %s + net %s != gross %s", amount, b.Commission, b.Net, b.Gross)
		}
	}
}

func TestSplitZeroGross(t *testing.T) {
	eng := mustEngine(t, "0.15")

	b, err := eng.Split(decimal.Zero)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if !b.Commission.IsZero() || !b.Net.IsZero() {
		t.Fatalf("zero gross must yield zero commission and net, got %s / %s", b.Commission, b.Net)
	}
}

func TestSplitNegativeGross(t *testing.T) {
	eng := mustEngine(t, "0.15")

	_, err := eng.Split(decimal.RequireFromString("-1.00"))
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNewEngineRejectsBadRates(t *testing.T) {
	if _, err := NewEngine(decimal.RequireFromString("-0.01")); err == nil {
		t.Fatal("expected error for negative rate")
	}
	if _, err := NewEngine(decimal.RequireFromString("1.01")); err == nil {
		t.Fatal("expected error for rate above 1")
	}
}
