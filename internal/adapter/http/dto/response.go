package dto

import (
	"time"

	"github.com/crosspay/ledger/internal/domain"
	"github.com/crosspay/ledger/internal/usecase"
)

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// AccountResponse mirrors a domain account.
type AccountResponse struct {
	ID               string    `json:"id"`
	OwnerID          string    `json:"owner_id"`
	Currency         string    `json:"currency"`
	Kind             string    `json:"kind"`
	AvailableMinor   int64     `json:"available_minor"`
	PendingMinor     int64     `json:"pending_minor"`
	CurrentMinor     int64     `json:"current_minor"`
	CreditLimitMinor int64     `json:"credit_limit_minor"`
	Status           string    `json:"status"`
	Version          int64     `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func AccountFromDomain(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:               a.ID,
		OwnerID:          a.OwnerID,
		Currency:         a.Currency,
		Kind:             string(a.Kind),
		AvailableMinor:   a.AvailableMinor,
		PendingMinor:     a.PendingMinor,
		CurrentMinor:     a.CurrentMinor(),
		CreditLimitMinor: a.CreditLimitMinor,
		Status:           string(a.Status),
		Version:          a.Version,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func AccountsFromDomain(accounts []*domain.Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, AccountFromDomain(a))
	}
	return out
}

// BalanceResponse is the balance snapshot of one account.
type BalanceResponse struct {
	AccountID      string    `json:"account_id"`
	Currency       string    `json:"currency"`
	AvailableMinor int64     `json:"available_minor"`
	PendingMinor   int64     `json:"pending_minor"`
	CurrentMinor   int64     `json:"current_minor"`
	AsOf           time.Time `json:"as_of"`
}

func BalanceFromUseCase(b *usecase.Balance) BalanceResponse {
	return BalanceResponse{
		AccountID:      b.AccountID,
		Currency:       b.Currency,
		AvailableMinor: b.AvailableMinor,
		PendingMinor:   b.PendingMinor,
		CurrentMinor:   b.CurrentMinor,
		AsOf:           b.AsOf,
	}
}

// TransferResponse mirrors a domain transfer. Rate and fee are decimal
// strings to keep precision on the wire.
type TransferResponse struct {
	ID                string     `json:"id"`
	IdempotencyKey    string     `json:"idempotency_key"`
	Kind              string     `json:"kind"`
	OwnerID           string     `json:"owner_id,omitempty"`
	FromAccountID     string     `json:"from_account_id,omitempty"`
	ToAccountID       string     `json:"to_account_id,omitempty"`
	RequestedMinor    int64      `json:"requested_minor"`
	RequestedCurrency string     `json:"requested_currency"`
	SettledMinor      *int64     `json:"settled_minor,omitempty"`
	SettledCurrency   string     `json:"settled_currency,omitempty"`
	Rate              string     `json:"rate,omitempty"`
	Fee               string     `json:"fee,omitempty"`
	Status            string     `json:"status"`
	PostingGroupID    string     `json:"posting_group_id,omitempty"`
	ReversesID        *string    `json:"reverses_id,omitempty"`
	FailureReason     string     `json:"failure_reason,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

func TransferFromDomain(t *domain.Transfer) TransferResponse {
	resp := TransferResponse{
		ID:                t.ID,
		IdempotencyKey:    t.IdempotencyKey,
		Kind:              string(t.Kind),
		OwnerID:           t.OwnerID,
		FromAccountID:     t.FromAccountID,
		ToAccountID:       t.ToAccountID,
		RequestedMinor:    t.Requested.AmountMinor,
		RequestedCurrency: t.Requested.Currency,
		Status:            string(t.Status),
		PostingGroupID:    t.PostingGroupID,
		ReversesID:        t.ReversesID,
		FailureReason:     t.FailureReason,
		CreatedAt:         t.CreatedAt,
		CompletedAt:       t.CompletedAt,
	}

	if t.Settled != nil {
		settled := t.Settled.AmountMinor
		resp.SettledMinor = &settled
		resp.SettledCurrency = t.Settled.Currency
	}
	if t.Rate != nil {
		resp.Rate = t.Rate.String()
	}
	if t.Fee != nil {
		resp.Fee = t.Fee.String()
	}

	return resp
}

func TransfersFromDomain(transfers []*domain.Transfer) []TransferResponse {
	out := make([]TransferResponse, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, TransferFromDomain(t))
	}
	return out
}

// EntryResponse mirrors a journal entry.
type EntryResponse struct {
	ID                string    `json:"id"`
	PostingGroupID    string    `json:"posting_group_id"`
	AccountID         string    `json:"account_id"`
	Direction         string    `json:"direction"`
	AmountMinor       int64     `json:"amount_minor"`
	Currency          string    `json:"currency"`
	BalanceAfterMinor int64     `json:"balance_after_minor"`
	AccountVersion    int64     `json:"account_version"`
	CreatedAt         time.Time `json:"created_at"`
}

func EntryFromDomain(e *domain.JournalEntry) EntryResponse {
	return EntryResponse{
		ID:                e.ID,
		PostingGroupID:    e.PostingGroupID,
		AccountID:         e.AccountID,
		Direction:         string(e.Direction),
		AmountMinor:       e.Amount.AmountMinor,
		Currency:          e.Amount.Currency,
		BalanceAfterMinor: e.BalanceAfterMinor,
		AccountVersion:    e.AccountVersion,
		CreatedAt:         e.CreatedAt,
	}
}

func EntriesFromDomain(entries []*domain.JournalEntry) []EntryResponse {
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntryFromDomain(e))
	}
	return out
}

// RateResponse mirrors an exchange rate quote.
type RateResponse struct {
	Base      string    `json:"base"`
	Target    string    `json:"target"`
	Mid       string    `json:"mid"`
	Bid       string    `json:"bid"`
	Ask       string    `json:"ask"`
	Spread    string    `json:"spread"`
	Provider  string    `json:"provider"`
	FetchedAt time.Time `json:"fetched_at"`
}

func RateFromDomain(r *domain.ExchangeRate) RateResponse {
	return RateResponse{
		Base:      r.Base,
		Target:    r.Target,
		Mid:       r.Mid.String(),
		Bid:       r.Bid.String(),
		Ask:       r.Ask.String(),
		Spread:    r.Spread.String(),
		Provider:  r.Provider,
		FetchedAt: r.FetchedAt,
	}
}

// PositionResponse mirrors an FX position.
type PositionResponse struct {
	OwnerID          string    `json:"owner_id"`
	Currency         string    `json:"currency"`
	NetMinor         int64     `json:"net_minor"`
	BaseValueMinor   int64     `json:"base_value_minor"`
	AverageRate      string    `json:"average_rate"`
	RealizedPnLMinor int64     `json:"realized_pnl_minor"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func PositionFromDomain(p *domain.FXPosition) PositionResponse {
	return PositionResponse{
		OwnerID:          p.OwnerID,
		Currency:         p.Currency,
		NetMinor:         p.NetMinor,
		BaseValueMinor:   p.BaseValueMinor,
		AverageRate:      p.AverageRate.String(),
		RealizedPnLMinor: p.RealizedPnLMinor,
		UpdatedAt:        p.UpdatedAt,
	}
}

func PositionsFromDomain(positions []*domain.FXPosition) []PositionResponse {
	out := make([]PositionResponse, 0, len(positions))
	for _, p := range positions {
		out = append(out, PositionFromDomain(p))
	}
	return out
}

// ValuationResponse is a position marked to the current rate.
type ValuationResponse struct {
	Position           PositionResponse `json:"position"`
	MarkRate           string           `json:"mark_rate"`
	UnrealizedPnLMinor int64            `json:"unrealized_pnl_minor"`
}

func ValuationsFromUseCase(valuations []usecase.PositionValuation) []ValuationResponse {
	out := make([]ValuationResponse, 0, len(valuations))
	for _, v := range valuations {
		out = append(out, ValuationResponse{
			Position:           PositionFromDomain(v.Position),
			MarkRate:           v.MarkRate.String(),
			UnrealizedPnLMinor: v.UnrealizedPnLMinor,
		})
	}
	return out
}

// HoldResponse mirrors a hold.
type HoldResponse struct {
	ID          string     `json:"id"`
	AccountID   string     `json:"account_id"`
	AmountMinor int64      `json:"amount_minor"`
	Status      string     `json:"status"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func HoldFromDomain(h *domain.Hold) HoldResponse {
	return HoldResponse{
		ID:          h.ID,
		AccountID:   h.AccountID,
		AmountMinor: h.AmountMinor,
		Status:      string(h.Status),
		ExpiresAt:   h.ExpiresAt,
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.UpdatedAt,
	}
}

func HoldsFromDomain(holds []*domain.Hold) []HoldResponse {
	out := make([]HoldResponse, 0, len(holds))
	for _, h := range holds {
		out = append(out, HoldFromDomain(h))
	}
	return out
}

// ConsistencyResponse is the per-currency conservation check result.
type ConsistencyResponse struct {
	Currency    string `json:"currency"`
	DebitMinor  int64  `json:"debit_minor"`
	CreditMinor int64  `json:"credit_minor"`
	Consistent  bool   `json:"consistent"`
}

func ConsistencyFromUseCase(checks []usecase.CurrencyConsistency) []ConsistencyResponse {
	out := make([]ConsistencyResponse, 0, len(checks))
	for _, c := range checks {
		out = append(out, ConsistencyResponse{
			Currency:    c.Currency,
			DebitMinor:  c.DebitMinor,
			CreditMinor: c.CreditMinor,
			Consistent:  c.Consistent,
		})
	}
	return out
}

// ReportResponse is the full consistency report.
type ReportResponse struct {
	Currencies         []ConsistencyResponse    `json:"currencies"`
	TotalAccounts      int                      `json:"total_accounts"`
	ReconciledAccounts int                      `json:"reconciled_accounts"`
	Discrepancies      []ReconciliationResponse `json:"discrepancies"`
	Consistent         bool                     `json:"consistent"`
	CheckedAt          time.Time                `json:"checked_at"`
}

func ReportFromUseCase(r *usecase.ConsistencyReport) ReportResponse {
	discrepancies := make([]ReconciliationResponse, 0, len(r.Discrepancies))
	for _, d := range r.Discrepancies {
		discrepancies = append(discrepancies, ReconciliationFromUseCase(d))
	}
	return ReportResponse{
		Currencies:         ConsistencyFromUseCase(r.Currencies),
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		Discrepancies:      discrepancies,
		Consistent:         r.Consistent,
		CheckedAt:          r.CheckedAt,
	}
}

// ReconciliationResponse compares stored and replayed balances.
type ReconciliationResponse struct {
	AccountID       string    `json:"account_id"`
	RecordedMinor   int64     `json:"recorded_minor"`
	CalculatedMinor int64     `json:"calculated_minor"`
	DifferenceMinor int64     `json:"difference_minor"`
	Reconciled      bool      `json:"reconciled"`
	CheckedAt       time.Time `json:"checked_at"`
}

func ReconciliationFromUseCase(r *usecase.ReconciliationResult) ReconciliationResponse {
	return ReconciliationResponse{
		AccountID:       r.AccountID,
		RecordedMinor:   r.RecordedMinor,
		CalculatedMinor: r.CalculatedMinor,
		DifferenceMinor: r.DifferenceMinor,
		Reconciled:      r.Reconciled,
		CheckedAt:       r.CheckedAt,
	}
}
