package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/crosspay/ledger/internal/domain"
	"github.com/crosspay/ledger/internal/usecase"
	"github.com/crosspay/ledger/tests/testutil"
)

func TestConcurrentTransfersConserveMoney(t *testing.T) {
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

	for _, acc := range []*domain.Account{alice, bob} {
		if _, err := ledger.Transfers.Deposit(ctx, usecase.DepositInput{
			AccountID:      acc.ID,
			Amount:         domain.NewMoney(50_000, "USD"),
			IdempotencyKey: "conc-dep-" + acc.ID,
		}); err != nil {
			t.Fatalf("seed deposit: %v", err)
		}
	}

	// Ping-pong transfers in both directions. Opposing lock order is
	// exactly what the sorted-ID locking must survive.
	const rounds = 20
	var wg sync.WaitGroup
	errs := make(chan error, rounds*2)

	for i := 0; i < rounds; i++ {
		wg.Add(2)

		go func(i int) {
			defer wg.Done()
			_, err := ledger.Transfers.Transfer(ctx, usecase.TransferInput{
				FromAccountID:  alice.ID,
				ToAccountID:    bob.ID,
				Amount:         domain.NewMoney(100, "USD"),
				IdempotencyKey: fmt.Sprintf("conc-ab-%d", i),
			})
			errs <- err
		}(i)

		go func(i int) {
			defer wg.Done()
			_, err := ledger.Transfers.Transfer(ctx, usecase.TransferInput{
				FromAccountID:  bob.ID,
				ToAccountID:    alice.ID,
				Amount:         domain.NewMoney(100, "USD"),
				IdempotencyKey: fmt.Sprintf("conc-ba-%d", i),
			})
			errs <- err
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent transfer failed: %v", err)
		}
	}

	aliceBal, err := ledger.Accounts.GetBalance(ctx, alice.ID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	bobBal, err := ledger.Accounts.GetBalance(ctx, bob.ID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}

	if total := aliceBal.CurrentMinor + bobBal.CurrentMinor; total != 100_000 {
		t.Errorf("total balance drifted: got %d, want 100000", total)
	}

	assertConservation(ctx, t, ledger)
}

func TestConcurrentDuplicateKeyPostsOnce(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	db := testutil.NewTestDB(t)
	defer db.Cleanup()
	db.TruncateAll(ctx)

	ledger := testutil.NewLedger(t, db)
	account := ledger.CreateActiveAccount(ctx, t, "grace", "USD")

	const racers = 8
	var wg sync.WaitGroup
	ids := make(chan string, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			transfer, err := ledger.Transfers.Deposit(ctx, usecase.DepositInput{
				AccountID:      account.ID,
				Amount:         domain.NewMoney(1_000, "USD"),
				IdempotencyKey: "race-dep",
			})
			if err != nil {
				t.Errorf("racing deposit failed: %v", err)
				return
			}
			ids <- transfer.ID
		}()
	}

	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		seen[id] = true
	}
	if len(seen) != 1 {
		t.Errorf("duplicate key produced %d distinct transfers", len(seen))
	}

	balance, err := ledger.Accounts.GetBalance(ctx, account.ID)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if balance.CurrentMinor != 1_000 {
		t.Errorf("balance after racing deposits: got %d, want 1000", balance.CurrentMinor)
	}
}
