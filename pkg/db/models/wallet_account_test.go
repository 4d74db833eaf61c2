package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopora/shopora-backend/pkg/enums"
	pkgerrors "github.com/shopora/shopora-backend/pkg/errors"
)

func testAccount(t *testing.T) *WalletAccount {
	t.Helper()
	account, err := NewWalletAccount("user-1", enums.CurrencyUSD, time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return account
}

func entry(amount string, reference string, at time.Time) WalletEntryInput {
	return WalletEntryInput{
		Amount:     decimal.RequireFromString(amount),
		Reference:  reference,
		Status:     enums.WalletTransactionStatusSucceeded,
		OccurredAt: at,
	}
}

func TestNewWalletAccountValidation(t *testing.T) {
	now := time.Now().UTC()
	if _, err := NewWalletAccount(" ", enums.CurrencyUSD, now); err == nil {
		t.Fatal("expected error for blank user id")
	}
	if _, err := NewWalletAccount("user-1", enums.Currency("doge"), now); err == nil {
		t.Fatal("expected error for invalid currency")
	}

	account := testAccount(t)
	if !account.Balance.IsZero() {
		t.Fatalf("fresh account balance = %s, want 0", account.Balance)
	}
	if account.IsLocked {
		t.Fatal("fresh account must be unlocked")
	}
}

func TestCreditMovesBalance(t *testing.T) {
	now := time.Now().UTC()
	account := testAccount(t)

	txn, err := account.Credit(entry("25.00", "dep-1", now))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !txn.BalanceAfter.Equal(decimal.RequireFromString("25.00")) {
		t.Fatalf("balance after = %s, want 25.00", txn.BalanceAfter)
	}
	if !account.Balance.Equal(decimal.RequireFromString("25.00")) {
		t.Fatalf("cached balance = %s, want 25.00", account.Balance)
	}
	if account.LastActivityOn == nil || !account.LastActivityOn.Equal(now) {
		t.Fatal("last activity must track the entry")
	}
}

func TestDebitInsufficientBalance(t *testing.T) {
	now := time.Now().UTC()
	account := testAccount(t)

	if _, err := account.Credit(entry("10.00", "dep-1", now)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := account.Debit(entry("10.01", "wd-1", now))
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if !account.Balance.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("rejected debit must not move the balance, got %s", account.Balance)
	}
	if len(account.Transactions) != 1 {
		t.Fatal("rejected debit must not append to the ledger")
	}
}

func TestDebitToExactlyZero(t *testing.T) {
	now := time.Now().UTC()
	account := testAccount(t)

	if _, err := account.Credit(entry("10.00", "dep-1", now)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	txn, err := account.Debit(entry("10.00", "wd-1", now))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !txn.BalanceAfter.IsZero() {
		t.Fatalf("balance after = %s, want 0", txn.BalanceAfter)
	}
}

func TestPendingEntriesDoNotMoveBalance(t *testing.T) {
	now := time.Now().UTC()
	account := testAccount(t)

	if _, err := account.Credit(entry("10.00", "dep-1", now)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pending := entry("50.00", "wd-pending", now)
	pending.Status = enums.WalletTransactionStatusPending
	txn, err := account.Debit(pending)
	if err != nil {
		t.Fatalf("pending debit past the balance must be recordable: %v", err)
	}
	if !txn.BalanceAfter.Equal(decimal.RequireFromString("-40.00")) {
		t.Fatalf("prospective balance after = %s, want -40.00", txn.BalanceAfter)
	}
	if !account.Balance.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("cached balance = %s, want 10.00", account.Balance)
	}
}

func TestLockedAccountRejectsEntries(t *testing.T) {
	now := time.Now().UTC()
	account := testAccount(t)
	account.Lock(now)

	_, err := account.Credit(entry("10.00", "dep-1", now))
	typed := pkgerrors.As(err)
	if typed.Code() != pkgerrors.CodeStateConflict || typed.Message() != "wallet is locked" {
		t.Fatalf("expected locked state conflict, got %v", err)
	}
}

func TestEntryValidation(t *testing.T) {
	now := time.Now().UTC()
	account := testAccount(t)

	cases := []struct {
		name  string
		input WalletEntryInput
	}{
		{"zero amount", entry("0", "ref", now)},
		{"negative amount", entry("-5.00", "ref", now)},
		{"blank reference", entry("5.00", "   ", now)},
		{"zero occurred at", entry("5.00", "ref", time.Time{})},
		{"bad status", func() WalletEntryInput {
			in := entry("5.00", "ref", now)
			in.Status = enums.WalletTransactionStatus("reversed")
			return in
		}()},
	}
	for _, tc := range cases {
		if _, err := account.Credit(tc.input); pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestLockUnlockIdempotent(t *testing.T) {
	now := time.Now().UTC()
	account := testAccount(t)

	if !account.Lock(now) {
		t.Fatal("first lock must report a change")
	}
	stamp := account.Audit.UpdatedAt
	if account.Lock(now.Add(time.Hour)) {
		t.Fatal("second lock must be a no-op")
	}
	if !account.Audit.UpdatedAt.Equal(stamp) {
		t.Fatal("no-op lock must not touch the modification timestamp")
	}

	if !account.Unlock(now) {
		t.Fatal("unlock must report a change")
	}
	if account.Unlock(now) {
		t.Fatal("second unlock must be a no-op")
	}
}

func TestReplayBalanceMatchesCached(t *testing.T) {
	now := time.Now().UTC()
	account := testAccount(t)

	amounts := []string{"100.00", "33.33", "5.55"}
	for i, amt := range amounts {
		if _, err := account.Credit(entry(amt, fmt.Sprintf("dep-%d", i), now.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := account.Debit(entry("38.88", "wd-1", now.Add(time.Minute))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pending := entry("500.00", "wd-2", now.Add(2*time.Minute))
	pending.Status = enums.WalletTransactionStatusPending
	if _, err := account.Debit(pending); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if replayed := account.ReplayBalance(); !replayed.Equal(account.Balance) {
		t.Fatalf("replayed %s != cached %s", replayed, account.Balance)
	}
}

func TestSignedAmount(t *testing.T) {
	credit := WalletTransaction{Type: enums.WalletTransactionTypeCredit, Amount: decimal.RequireFromString("4.00")}
	debit := WalletTransaction{Type: enums.WalletTransactionTypeDebit, Amount: decimal.RequireFromString("4.00")}

	if !credit.SignedAmount().Equal(decimal.RequireFromString("4.00")) {
		t.Fatalf("credit signed amount = %s", credit.SignedAmount())
	}
	if !debit.SignedAmount().Equal(decimal.RequireFromString("-4.00")) {
		t.Fatalf("debit signed amount = %s", debit.SignedAmount())
	}
}
