package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/crosspay/ledger/internal/domain"
	"github.com/crosspay/ledger/internal/usecase"
	"github.com/crosspay/ledger/internal/usecase/mocks"
)

type transferFixture struct {
	accountRepo  *mocks.MockAccountRepository
	journalRepo  *mocks.MockJournalRepository
	transferRepo *mocks.MockTransferRepository
	outboxRepo   *mocks.MockOutboxRepository
	provider     *mocks.MockRateProvider
	uc           *usecase.TransferUseCase
}

func newTransferFixture() *transferFixture {
	accountRepo := mocks.NewMockAccountRepository()
	journalRepo := mocks.NewMockJournalRepository()
	transferRepo := mocks.NewMockTransferRepository()
	outboxRepo := mocks.NewMockOutboxRepository()
	txMgr := mocks.NewMockTransactionManager()
	retrier := mocks.NewMockRetrier()
	idGen := mocks.NewMockIDGenerator()
	logger := zerolog.Nop()

	provider := &mocks.MockRateProvider{NameValue: "test"}
	rates := usecase.NewRateUseCase(
		mocks.NewMockRateCache(),
		[]usecase.RateProvider{provider},
		decimal.NewFromFloat(0.002),
		usecase.DefaultRateTTL,
		logger,
		nil,
	)

	journal := usecase.NewJournalEngine(accountRepo, journalRepo, idGen, logger)

	uc := usecase.NewTransferUseCase(
		txMgr, retrier, accountRepo, transferRepo, outboxRepo,
		journal, rates, idGen,
		decimal.NewFromFloat(0.01), // 1% conversion fee
		logger, nil,
	)

	return &transferFixture{
		accountRepo:  accountRepo,
		journalRepo:  journalRepo,
		transferRepo: transferRepo,
		outboxRepo:   outboxRepo,
		provider:     provider,
		uc:           uc,
	}
}

func activeWallet(id, owner, currency string, availableMinor int64) *domain.Account {
	now := time.Now().UTC()
	return &domain.Account{
		ID:             id,
		OwnerID:        owner,
		Currency:       currency,
		Kind:           domain.AccountKindWallet,
		AvailableMinor: availableMinor,
		Status:         domain.AccountStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestDepositCreditsAccount(t *testing.T) {
	f := newTransferFixture()
	f.accountRepo.Seed(activeWallet("acc-1", "alice", "USD", 0))

	transfer, err := f.uc.Deposit(context.Background(), usecase.DepositInput{
		AccountID:      "acc-1",
		Amount:         domain.NewMoney(10_000, "USD"),
		IdempotencyKey: "dep-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if transfer.Status != domain.TransferStatusPosted {
		t.Errorf("expected POSTED, got %s", transfer.Status)
	}

	account, _ := f.accountRepo.GetByID(context.Background(), "acc-1")
	if account.AvailableMinor != 10_000 {
		t.Errorf("expected balance 10000, got %d", account.AvailableMinor)
	}

	clearing, err := f.accountRepo.GetByID(context.Background(), domain.SystemAccountID("funding", "USD"))
	if err != nil {
		t.Fatalf("clearing account not created: %v", err)
	}
	if clearing.AvailableMinor != -10_000 {
		t.Errorf("expected clearing balance -10000, got %d", clearing.AvailableMinor)
	}

	entries := f.journalRepo.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 journal entries, got %d", len(entries))
	}

	var net int64
	for _, e := range entries {
		net += e.SignedMinor()
	}
	if net != 0 {
		t.Errorf("posting group does not balance: net %d", net)
	}

	if events := f.outboxRepo.Events(); len(events) != 1 || events[0].EventType != domain.EventTypeTransferPosted {
		t.Errorf("expected one transfer.posted outbox event, got %v", events)
	}
}

func TestDepositIdempotentReplay(t *testing.T) {
	f := newTransferFixture()
	f.accountRepo.Seed(activeWallet("acc-1", "alice", "USD", 0))

	input := usecase.DepositInput{
		AccountID:      "acc-1",
		Amount:         domain.NewMoney(5_000, "USD"),
		IdempotencyKey: "dep-replay",
	}

	first, err := f.uc.Deposit(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := f.uc.Deposit(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error on replay: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("replay returned a different transfer: %s vs %s", second.ID, first.ID)
	}

	account, _ := f.accountRepo.GetByID(context.Background(), "acc-1")
	if account.AvailableMinor != 5_000 {
		t.Errorf("replay must not move money twice: balance %d", account.AvailableMinor)
	}

	if entries := f.journalRepo.Entries(); len(entries) != 2 {
		t.Errorf("replay must not write new entries: got %d", len(entries))
	}
}

func TestIdempotencyKeyReusedWithDifferentParameters(t *testing.T) {
	f := newTransferFixture()
	f.accountRepo.Seed(activeWallet("acc-1", "alice", "USD", 0))

	if _, err := f.uc.Deposit(context.Background(), usecase.DepositInput{
		AccountID:      "acc-1",
		Amount:         domain.NewMoney(5_000, "USD"),
		IdempotencyKey: "dep-key",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.uc.Deposit(context.Background(), usecase.DepositInput{
		AccountID:      "acc-1",
		Amount:         domain.NewMoney(9_999, "USD"),
		IdempotencyKey: "dep-key",
	})
	if !errors.Is(err, domain.ErrIdempotencyKeyConflict) {
		t.Errorf("expected ErrIdempotencyKeyConflict, got %v", err)
	}
}

func TestWithdrawInsufficientFundsRecordsFailure(t *testing.T) {
	f := newTransferFixture()
	f.accountRepo.Seed(activeWallet("acc-1", "alice", "USD", 1_000))

	transfer, err := f.uc.Withdraw(context.Background(), usecase.WithdrawInput{
		AccountID:      "acc-1",
		Amount:         domain.NewMoney(2_000, "USD"),
		IdempotencyKey: "wd-1",
	})
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	if transfer == nil || transfer.Status != domain.TransferStatusFailed {
		t.Fatalf("expected terminal FAILED transfer, got %+v", transfer)
	}

	stored, err := f.transferRepo.GetByIdempotencyKey(context.Background(), "wd-1")
	if err != nil {
		t.Fatalf("failed outcome not recorded: %v", err)
	}
	if stored.Status != domain.TransferStatusFailed {
		t.Errorf("expected FAILED, got %s", stored.Status)
	}

	account, _ := f.accountRepo.GetByID(context.Background(), "acc-1")
	if account.AvailableMinor != 1_000 {
		t.Errorf("failed withdrawal must not move money: balance %d", account.AvailableMinor)
	}
}

func TestWithdrawExactBalanceSucceeds(t *testing.T) {
	f := newTransferFixture()
	f.accountRepo.Seed(activeWallet("acc-1", "alice", "USD", 1_000))

	transfer, err := f.uc.Withdraw(context.Background(), usecase.WithdrawInput{
		AccountID:      "acc-1",
		Amount:         domain.NewMoney(1_000, "USD"),
		IdempotencyKey: "wd-exact",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if transfer.Status != domain.TransferStatusPosted {
		t.Errorf("expected POSTED, got %s", transfer.Status)
	}

	account, _ := f.accountRepo.GetByID(context.Background(), "acc-1")
	if account.AvailableMinor != 0 {
		t.Errorf("expected zero balance, got %d", account.AvailableMinor)
	}
}

func TestTransferSameCurrency(t *testing.T) {
	f := newTransferFixture()
	f.accountRepo.Seed(
		activeWallet("acc-1", "alice", "USD", 10_000),
		activeWallet("acc-2", "bob", "USD", 0),
	)

	transfer, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		FromAccountID:  "acc-1",
		ToAccountID:    "acc-2",
		Amount:         domain.NewMoney(3_000, "USD"),
		IdempotencyKey: "tr-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if transfer.Status != domain.TransferStatusPosted {
		t.Fatalf("expected POSTED, got %s", transfer.Status)
	}

	from, _ := f.accountRepo.GetByID(context.Background(), "acc-1")
	to, _ := f.accountRepo.GetByID(context.Background(), "acc-2")
	if from.AvailableMinor != 7_000 || to.AvailableMinor != 3_000 {
		t.Errorf("expected 7000/3000, got %d/%d", from.AvailableMinor, to.AvailableMinor)
	}
}

func TestTransferToSameAccountRejected(t *testing.T) {
	f := newTransferFixture()

	_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		FromAccountID:  "acc-1",
		ToAccountID:    "acc-1",
		Amount:         domain.NewMoney(100, "USD"),
		IdempotencyKey: "tr-same",
	})
	if !errors.Is(err, domain.ErrSameAccount) {
		t.Errorf("expected ErrSameAccount, got %v", err)
	}
}

func TestMissingIdempotencyKeyRejected(t *testing.T) {
	f := newTransferFixture()

	_, err := f.uc.Deposit(context.Background(), usecase.DepositInput{
		AccountID: "acc-1",
		Amount:    domain.NewMoney(100, "USD"),
	})
	if !errors.Is(err, domain.ErrMissingIdempotency) {
		t.Errorf("expected ErrMissingIdempotency, got %v", err)
	}
}

func TestFXConvertAppliesRateAndFee(t *testing.T) {
	f := newTransferFixture()
	f.accountRepo.Seed(
		activeWallet("usd-1", "alice", "USD", 10_000),
		activeWallet("eur-1", "alice", "EUR", 0),
	)

	f.provider.FetchRateFunc = func(ctx context.Context, base, target string) (*domain.ExchangeRate, error) {
		return &domain.ExchangeRate{Base: base, Target: target, Mid: decimal.NewFromFloat(0.90)}, nil
	}

	transfer, err := f.uc.FXConvert(context.Background(), usecase.FXConvertInput{
		AccountID:      "usd-1",
		Amount:         domain.NewMoney(10_000, "USD"),
		ToCurrency:     "EUR",
		IdempotencyKey: "fx-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 10000 * 0.90 * (1 - 0.01) = 8910
	if transfer.Settled == nil || transfer.Settled.AmountMinor != 8_910 {
		t.Fatalf("expected settled 8910 EUR, got %+v", transfer.Settled)
	}
	if transfer.Rate == nil || !transfer.Rate.Equal(decimal.NewFromFloat(0.90)) {
		t.Errorf("expected rate snapshot 0.90, got %v", transfer.Rate)
	}

	usd, _ := f.accountRepo.GetByID(context.Background(), "usd-1")
	eur, _ := f.accountRepo.GetByID(context.Background(), "eur-1")
	if usd.AvailableMinor != 0 || eur.AvailableMinor != 8_910 {
		t.Errorf("expected 0 USD / 8910 EUR, got %d/%d", usd.AvailableMinor, eur.AvailableMinor)
	}

	// Each currency nets to zero independently across the four legs.
	perCurrency := map[string]int64{}
	for _, e := range f.journalRepo.Entries() {
		perCurrency[e.Amount.Currency] += e.SignedMinor()
	}
	for currency, net := range perCurrency {
		if net != 0 {
			t.Errorf("currency %s does not net to zero: %d", currency, net)
		}
	}
}

func TestFXConvertRateUnavailableFailsClosed(t *testing.T) {
	f := newTransferFixture()
	f.accountRepo.Seed(
		activeWallet("usd-1", "alice", "USD", 10_000),
		activeWallet("eur-1", "alice", "EUR", 0),
	)

	_, err := f.uc.FXConvert(context.Background(), usecase.FXConvertInput{
		AccountID:      "usd-1",
		Amount:         domain.NewMoney(10_000, "USD"),
		ToCurrency:     "EUR",
		IdempotencyKey: "fx-down",
	})
	if !errors.Is(err, domain.ErrRateUnavailable) {
		t.Fatalf("expected ErrRateUnavailable, got %v", err)
	}

	// The key must not be consumed: no transfer record exists.
	if _, err := f.transferRepo.GetByIdempotencyKey(context.Background(), "fx-down"); !errors.Is(err, domain.ErrTransferNotFound) {
		t.Errorf("rate failure must not consume the idempotency key: %v", err)
	}

	usd, _ := f.accountRepo.GetByID(context.Background(), "usd-1")
	if usd.AvailableMinor != 10_000 {
		t.Errorf("no money may move when the rate is unavailable: %d", usd.AvailableMinor)
	}
}

func TestReverseRestoresBalances(t *testing.T) {
	f := newTransferFixture()
	f.accountRepo.Seed(
		activeWallet("acc-1", "alice", "USD", 10_000),
		activeWallet("acc-2", "bob", "USD", 0),
	)

	original, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		FromAccountID:  "acc-1",
		ToAccountID:    "acc-2",
		Amount:         domain.NewMoney(4_000, "USD"),
		IdempotencyKey: "tr-rev",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reversal, err := f.uc.Reverse(context.Background(), usecase.ReverseInput{
		TransferID:     original.ID,
		IdempotencyKey: "rev-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reversal.Kind != domain.TransferKindReversal {
		t.Errorf("expected reversal kind, got %s", reversal.Kind)
	}
	if reversal.ReversesID == nil || *reversal.ReversesID != original.ID {
		t.Errorf("reversal not linked to original")
	}

	from, _ := f.accountRepo.GetByID(context.Background(), "acc-1")
	to, _ := f.accountRepo.GetByID(context.Background(), "acc-2")
	if from.AvailableMinor != 10_000 || to.AvailableMinor != 0 {
		t.Errorf("expected balances restored, got %d/%d", from.AvailableMinor, to.AvailableMinor)
	}

	updated, _ := f.transferRepo.GetByID(context.Background(), original.ID)
	if updated.Status != domain.TransferStatusReversed {
		t.Errorf("expected original REVERSED, got %s", updated.Status)
	}

	// The journal keeps both posting groups; nothing was deleted.
	if entries := f.journalRepo.Entries(); len(entries) != 4 {
		t.Errorf("expected 4 entries (2 original + 2 mirror), got %d", len(entries))
	}
}

func TestReverseTwiceRejected(t *testing.T) {
	f := newTransferFixture()
	f.accountRepo.Seed(
		activeWallet("acc-1", "alice", "USD", 10_000),
		activeWallet("acc-2", "bob", "USD", 0),
	)

	original, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		FromAccountID:  "acc-1",
		ToAccountID:    "acc-2",
		Amount:         domain.NewMoney(1_000, "USD"),
		IdempotencyKey: "tr-rev2",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.uc.Reverse(context.Background(), usecase.ReverseInput{
		TransferID:     original.ID,
		IdempotencyKey: "rev-a",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = f.uc.Reverse(context.Background(), usecase.ReverseInput{
		TransferID:     original.ID,
		IdempotencyKey: "rev-b",
	})
	if !errors.Is(err, domain.ErrAlreadyReversed) {
		t.Errorf("expected ErrAlreadyReversed, got %v", err)
	}
}

func TestDebitFromFrozenAccountRejected(t *testing.T) {
	f := newTransferFixture()
	frozen := activeWallet("acc-1", "alice", "USD", 10_000)
	frozen.Status = domain.AccountStatusFrozen
	f.accountRepo.Seed(frozen, activeWallet("acc-2", "bob", "USD", 0))

	transfer, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		FromAccountID:  "acc-1",
		ToAccountID:    "acc-2",
		Amount:         domain.NewMoney(1_000, "USD"),
		IdempotencyKey: "tr-frozen",
	})
	if !errors.Is(err, domain.ErrAccountFrozen) {
		t.Fatalf("expected ErrAccountFrozen, got %v", err)
	}
	if transfer == nil || transfer.Status != domain.TransferStatusFailed {
		t.Errorf("expected terminal FAILED transfer, got %+v", transfer)
	}
}

func TestCreditToFrozenAccountAllowed(t *testing.T) {
	f := newTransferFixture()
	frozen := activeWallet("acc-2", "bob", "USD", 0)
	frozen.Status = domain.AccountStatusFrozen
	f.accountRepo.Seed(activeWallet("acc-1", "alice", "USD", 10_000), frozen)

	transfer, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		FromAccountID:  "acc-1",
		ToAccountID:    "acc-2",
		Amount:         domain.NewMoney(1_000, "USD"),
		IdempotencyKey: "tr-to-frozen",
	})
	if err != nil {
		t.Fatalf("credits to a frozen account must land: %v", err)
	}
	if transfer.Status != domain.TransferStatusPosted {
		t.Errorf("expected POSTED, got %s", transfer.Status)
	}
}
