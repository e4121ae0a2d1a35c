package walletview

import (
	"encoding/json"
	"testing"
)

func TestResolveDisplayBalancePrefersBalanceEndpoint(t *testing.T) {
	t.Parallel()
	summaryShapes := []string{
		`{"id": "w-1", "cached_balance": 150000}`,
		`{"id": "w-1", "cachedBalance": 150000}`,
	}
	balanceShapes := []string{
		`{"balance": 162500}`,
		`{"cached_balance": 162500}`,
		`{"cachedBalance": 162500}`,
	}
	for _, summaryRaw := range summaryShapes {
		for _, balanceRaw := range balanceShapes {
			var summary WalletSummary
			if err := json.Unmarshal([]byte(summaryRaw), &summary); err != nil {
				t.Fatalf("summary decode: %v", err)
			}
			var balanceDocument BalanceDocument
			if err := json.Unmarshal([]byte(balanceRaw), &balanceDocument); err != nil {
				t.Fatalf("balance decode: %v", err)
			}
			resolved := ResolveDisplayBalance(&balanceDocument, &summary)
			if resolved.MinorUnits() != 162500 {
				t.Fatalf("summary %s balance %s: expected 162500, got %d",
					summaryRaw, balanceRaw, resolved.MinorUnits())
			}
		}
	}
}

func TestResolveDisplayBalanceFallsBackToSummary(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name       string
		summaryRaw string
		want       int64
	}{
		{name: "snake case", summaryRaw: `{"cached_balance": 150000}`, want: 150000},
		{name: "camel case", summaryRaw: `{"cachedBalance": 150000}`, want: 150000},
		{name: "nothing", summaryRaw: `{}`, want: 0},
	}
	for _, testCase := range cases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			var summary WalletSummary
			if err := json.Unmarshal([]byte(testCase.summaryRaw), &summary); err != nil {
				t.Fatalf("summary decode: %v", err)
			}
			resolved := ResolveDisplayBalance(nil, &summary)
			if resolved.MinorUnits() != testCase.want {
				t.Fatalf("expected %d, got %d", testCase.want, resolved.MinorUnits())
			}
		})
	}
}

func TestResolveDisplayBalanceAllAbsent(t *testing.T) {
	t.Parallel()
	resolved := ResolveDisplayBalance(nil, nil)
	if !resolved.IsZero() {
		t.Fatalf("expected zero amount, got %d", resolved.MinorUnits())
	}
	if got := NewNairaFormatter().Format(resolved); got != "₦0.00" {
		t.Fatalf("expected zero rendering, got %q", got)
	}
}

func TestWalletSummaryWalletID(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		summary WalletSummary
		want    string
	}{
		{name: "id preferred", summary: WalletSummary{ID: "w-1", UUID: "u-1"}, want: "w-1"},
		{name: "uuid fallback", summary: WalletSummary{UUID: "u-1"}, want: "u-1"},
		{name: "both empty", summary: WalletSummary{}, want: ""},
	}
	for _, testCase := range cases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			if got := testCase.summary.WalletID(); got != testCase.want {
				t.Fatalf("expected %q, got %q", testCase.want, got)
			}
		})
	}
}
