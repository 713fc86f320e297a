package domain

import "time"

// Event types published through the outbox.
const (
	EventTypeTransferPosted   = "transfer.posted"
	EventTypeTransferReversed = "transfer.reversed"
	EventTypeAccountCreated   = "account.created"
	EventTypeHoldCreated      = "hold.created"
	EventTypeHoldVoided       = "hold.voided"
	EventTypeHoldCaptured     = "hold.captured"
)

// Aggregate types
const (
	AggregateTypeTransfer = "transfer"
	AggregateTypeAccount  = "account"
	AggregateTypeHold     = "hold"
)

// OutboxEvent is written in the same transaction as the state change it
// describes and published asynchronously by the worker.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// TransferPostedEvent is the payload of transfer.posted. It doubles as
// the audit event handed to the compliance collaborators.
type TransferPostedEvent struct {
	TransferID     string  `json:"transfer_id"`
	Kind           string  `json:"kind"`
	OwnerID        string  `json:"owner_id"`
	FromAccountID  string  `json:"from_account_id,omitempty"`
	ToAccountID    string  `json:"to_account_id,omitempty"`
	AmountMinor    int64   `json:"amount_minor"`
	Currency       string  `json:"currency"`
	SettledMinor   int64   `json:"settled_minor,omitempty"`
	SettledCcy     string  `json:"settled_currency,omitempty"`
	Rate           string  `json:"rate,omitempty"`
	Fee            string  `json:"fee,omitempty"`
	IdempotencyKey string  `json:"idempotency_key"`
	PostingGroupID string  `json:"posting_group_id"`
	PostedAt       string  `json:"posted_at"`
}
