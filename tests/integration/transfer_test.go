package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/crosspay/ledger/internal/domain"
	"github.com/crosspay/ledger/internal/usecase"
	"github.com/crosspay/ledger/tests/testutil"
)

func TestMoneyMovementFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	db := testutil.NewTestDB(t)
	defer db.Cleanup()
	db.TruncateAll(ctx)

	ledger := testutil.NewLedger(t, db)

	alice := ledger.CreateActiveAccount(ctx, t, "alice", "USD")
	bob := ledger.CreateActiveAccount(ctx, t, "bob", "USD")

	if _, err := ledger.Transfers.Deposit(ctx, usecase.DepositInput{
		AccountID:      alice.ID,
		Amount:         domain.NewMoney(10_000, "USD"),
		IdempotencyKey: "flow-dep",
	}); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	if _, err := ledger.Transfers.Transfer(ctx, usecase.TransferInput{
		FromAccountID:  alice.ID,
		ToAccountID:    bob.ID,
		Amount:         domain.NewMoney(2_500, "USD"),
		IdempotencyKey: "flow-tr",
	}); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	if _, err := ledger.Transfers.Withdraw(ctx, usecase.WithdrawInput{
		AccountID:      bob.ID,
		Amount:         domain.NewMoney(1_000, "USD"),
		IdempotencyKey: "flow-wd",
	}); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	aliceBal, err := ledger.Accounts.GetBalance(ctx, alice.ID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if aliceBal.CurrentMinor != 7_500 {
		t.Errorf("alice balance: got %d, want 7500", aliceBal.CurrentMinor)
	}

	bobBal, err := ledger.Accounts.GetBalance(ctx, bob.ID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if bobBal.CurrentMinor != 1_500 {
		t.Errorf("bob balance: got %d, want 1500", bobBal.CurrentMinor)
	}

	assertConservation(ctx, t, ledger)
}

func TestFXConvertAndReverse(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	db := testutil.NewTestDB(t)
	defer db.Cleanup()
	db.TruncateAll(ctx)

	ledger := testutil.NewLedger(t, db)

	usd := ledger.CreateActiveAccount(ctx, t, "carol", "USD")
	eur := ledger.CreateActiveAccount(ctx, t, "carol", "EUR")

	if _, err := ledger.Transfers.Deposit(ctx, usecase.DepositInput{
		AccountID:      usd.ID,
		Amount:         domain.NewMoney(10_000, "USD"),
		IdempotencyKey: "fx-dep",
	}); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	// 5000 * 0.9 * (1 - 0.002) = 4491 exactly, no rounding ambiguity.
	conv, err := ledger.Transfers.FXConvert(ctx, usecase.FXConvertInput{
		AccountID:      usd.ID,
		Amount:         domain.NewMoney(5_000, "USD"),
		ToCurrency:     "EUR",
		IdempotencyKey: "fx-conv",
	})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	if conv.Status != domain.TransferStatusPosted {
		t.Fatalf("conversion status: got %s, want posted", conv.Status)
	}
	if conv.Settled == nil || conv.Settled.AmountMinor != 4_491 || conv.Settled.Currency != "EUR" {
		t.Fatalf("settled amount: got %+v, want 4491 EUR", conv.Settled)
	}

	eurBal, err := ledger.Accounts.GetBalance(ctx, eur.ID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if eurBal.CurrentMinor != 4_491 {
		t.Errorf("eur balance after conversion: got %d, want 4491", eurBal.CurrentMinor)
	}

	reversal, err := ledger.Transfers.Reverse(ctx, usecase.ReverseInput{
		TransferID:     conv.ID,
		IdempotencyKey: "fx-rev",
	})
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if reversal.Kind != domain.TransferKindReversal {
		t.Errorf("reversal kind: got %s", reversal.Kind)
	}

	original, err := ledger.Transfers.GetTransfer(ctx, conv.ID)
	if err != nil {
		t.Fatalf("get transfer: %v", err)
	}
	if original.Status != domain.TransferStatusReversed {
		t.Errorf("original status after reversal: got %s, want reversed", original.Status)
	}

	usdBal, err := ledger.Accounts.GetBalance(ctx, usd.ID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if usdBal.CurrentMinor != 10_000 {
		t.Errorf("usd balance after reversal: got %d, want 10000", usdBal.CurrentMinor)
	}

	eurBal, err = ledger.Accounts.GetBalance(ctx, eur.ID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if eurBal.CurrentMinor != 0 {
		t.Errorf("eur balance after reversal: got %d, want 0", eurBal.CurrentMinor)
	}

	assertConservation(ctx, t, ledger)
}

func TestDepositIdempotency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	db := testutil.NewTestDB(t)
	defer db.Cleanup()
	db.TruncateAll(ctx)

	ledger := testutil.NewLedger(t, db)
	account := ledger.CreateActiveAccount(ctx, t, "dave", "USD")

	first, err := ledger.Transfers.Deposit(ctx, usecase.DepositInput{
		AccountID:      account.ID,
		Amount:         domain.NewMoney(3_000, "USD"),
		IdempotencyKey: "idem-dep",
	})
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}

	replay, err := ledger.Transfers.Deposit(ctx, usecase.DepositInput{
		AccountID:      account.ID,
		Amount:         domain.NewMoney(3_000, "USD"),
		IdempotencyKey: "idem-dep",
	})
	if err != nil {
		t.Fatalf("replay deposit: %v", err)
	}
	if replay.ID != first.ID {
		t.Errorf("replay returned a different transfer: %s vs %s", replay.ID, first.ID)
	}

	balance, err := ledger.Accounts.GetBalance(ctx, account.ID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance.CurrentMinor != 3_000 {
		t.Errorf("balance after replay: got %d, want 3000", balance.CurrentMinor)
	}

	_, err = ledger.Transfers.Deposit(ctx, usecase.DepositInput{
		AccountID:      account.ID,
		Amount:         domain.NewMoney(9_999, "USD"),
		IdempotencyKey: "idem-dep",
	})
	if !errors.Is(err, domain.ErrIdempotencyKeyConflict) {
		t.Errorf("reused key with new amount: got %v, want ErrIdempotencyKeyConflict", err)
	}
}

// assertConservation fails the test when any currency's debits and
// credits diverge across the whole journal.
func assertConservation(ctx context.Context, t *testing.T, ledger *testutil.Ledger) {
	t.Helper()

	results, err := ledger.Checker.CheckConsistency(ctx)
	if err != nil {
		t.Fatalf("consistency check: %v", err)
	}

	for _, r := range results {
		if !r.Consistent {
			t.Errorf("conservation violated for %s", r.Currency)
		}
	}
}
