package walletview

import "testing"

func TestClassifySigns(t *testing.T) {
	t.Parallel()
	statuses := []TransactionStatus{StatusPending, StatusCompleted, StatusFailed, TransactionStatus("REVERSED")}
	for _, status := range statuses {
		_ = status // sign is independent of status by contract
		if Classify(TransactionDeposit).Sign != SignPositive {
			t.Fatalf("deposit must classify positive")
		}
		if Classify(TransactionWithdrawal).Sign != SignNegative {
			t.Fatalf("withdrawal must classify negative")
		}
		if Classify(TransactionTransfer).Sign != SignNegative {
			t.Fatalf("transfer must classify negative")
		}
	}
}

func TestClassifyDescriptors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		kind TransactionType
		want Descriptor
	}{
		{name: "deposit", kind: TransactionDeposit, want: Descriptor{Icon: IconInbound, ColorClass: ColorSuccess, Sign: SignPositive}},
		{name: "withdrawal", kind: TransactionWithdrawal, want: Descriptor{Icon: IconOutbound, ColorClass: ColorWarning, Sign: SignNegative}},
		{name: "transfer", kind: TransactionTransfer, want: Descriptor{Icon: IconOutbound, ColorClass: ColorWarning, Sign: SignNegative}},
		{name: "unknown fails open", kind: TransactionType("AIRDROP"), want: Descriptor{Icon: IconInbound, ColorClass: ColorNeutral, Sign: SignPositive}},
	}
	for _, testCase := range cases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(testCase.kind); got != testCase.want {
				t.Fatalf("expected %+v, got %+v", testCase.want, got)
			}
		})
	}
}

func TestStatusBadge(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		status   TransactionStatus
		want     Badge
		rendered bool
	}{
		{name: "completed", status: StatusCompleted, want: Badge{Label: "Completed", ColorClass: ColorSuccess}, rendered: true},
		{name: "pending", status: StatusPending, want: Badge{Label: "Pending", ColorClass: ColorWarning, Animated: true}, rendered: true},
		{name: "failed", status: StatusFailed, want: Badge{Label: "Failed", ColorClass: ColorDestructive}, rendered: true},
		{name: "unknown renders nothing", status: TransactionStatus("QUEUED")},
	}
	for _, testCase := range cases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			badge, rendered := StatusBadge(testCase.status)
			if rendered != testCase.rendered {
				t.Fatalf("expected rendered=%v, got %v", testCase.rendered, rendered)
			}
			if badge != testCase.want {
				t.Fatalf("expected %+v, got %+v", testCase.want, badge)
			}
		})
	}
}

func TestSignPrefix(t *testing.T) {
	t.Parallel()
	if SignPositive.Prefix() != "+" || SignNegative.Prefix() != "-" {
		t.Fatalf("unexpected sign prefixes: %q %q", SignPositive.Prefix(), SignNegative.Prefix())
	}
}
