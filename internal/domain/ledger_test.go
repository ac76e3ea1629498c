package domain

import (
	"testing"
)

func TestGenerateReferralCodeShapeAndUniqueness(t *testing.T) {
	seen := make(map[string]struct{})

	for i := 0; i < 100; i++ {
		code := GenerateReferralCode()
		if len(code) != 8 {
			t.Fatalf("expected 8-char code, got %q", code)
		}
		for _, r := range code {
			if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
				t.Fatalf("unexpected character %q in code %q", r, code)
			}
		}
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate code %q after %d draws", code, i)
		}
		seen[code] = struct{}{}
	}
}

func TestEnsureCreatesAccountLazily(t *testing.T) {
	ledger := Ledger{}

	acc, created := ledger.Ensure(42)
	if !created {
		t.Fatalf("expected creation on first access")
	}
	if acc.Balance != 0 || acc.LastEarnAt != 0 || acc.ReferralCount != 0 || acc.ReferredBy != nil {
		t.Fatalf("expected zeroed account, got %+v", acc)
	}
	if acc.ReferralCode == "" {
		t.Fatalf("expected referral code to be assigned")
	}

	again, created := ledger.Ensure(42)
	if created {
		t.Fatalf("expected no re-creation on second access")
	}
	if again != acc {
		t.Fatalf("expected the same account instance")
	}
}

func TestFindByReferralCodeExcludesSelf(t *testing.T) {
	ledger := Ledger{
		1: {ReferralCode: "abc12345"},
		2: {ReferralCode: "def67890"},
	}

	id, acc, ok := ledger.FindByReferralCode("def67890", 1)
	if !ok || id != 2 || acc != ledger[2] {
		t.Fatalf("expected to resolve account 2, got id=%d ok=%v", id, ok)
	}

	if _, _, ok := ledger.FindByReferralCode("abc12345", 1); ok {
		t.Fatalf("expected owner's own code to resolve to nothing")
	}

	if _, _, ok := ledger.FindByReferralCode("nosuchcode", 1); ok {
		t.Fatalf("expected unknown code to resolve to nothing")
	}
}

func TestTopOrdersByBalanceAndCaps(t *testing.T) {
	ledger := Ledger{
		1: {Balance: 10},
		2: {Balance: 50},
		3: {Balance: 30},
		4: {Balance: 50},
		5: {Balance: 0},
	}

	top := ledger.Top(3)
	if len(top) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(top))
	}

	for i := 1; i < len(top); i++ {
		if top[i].Account.Balance > top[i-1].Account.Balance {
			t.Fatalf("expected non-increasing balances, got %d before %d",
				top[i-1].Account.Balance, top[i].Account.Balance)
		}
	}
	if top[0].Account.Balance != 50 || top[2].Account.Balance != 30 {
		t.Fatalf("unexpected ordering: %+v", top)
	}

	if got := len(Ledger{1: {Balance: 5}}.Top(5)); got != 1 {
		t.Fatalf("expected cap at ledger size, got %d entries", got)
	}
	if got := len(Ledger{}.Top(5)); got != 0 {
		t.Fatalf("expected empty result for empty ledger, got %d", got)
	}
}
