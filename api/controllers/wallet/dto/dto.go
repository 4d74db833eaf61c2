package walletdto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryRequest records one credit or debit against the caller's wallet.
// Reference is the caller's idempotency handle: retrying with the same
// reference returns the original entry.
type EntryRequest struct {
	Amount               decimal.Decimal `json:"amount" validate:"required"`
	Reference            string          `json:"reference" validate:"required,max=128"`
	Description          *string         `json:"description,omitempty" validate:"omitempty,max=512"`
	Metadata             json.RawMessage `json:"metadata,omitempty"`
	InvoiceID            *uuid.UUID      `json:"invoice_id,omitempty"`
	PaymentTransactionID *uuid.UUID      `json:"payment_transaction_id,omitempty"`
	Status               string          `json:"status,omitempty" validate:"omitempty,oneof=pending succeeded failed"`
}

// AccountView is the public shape of a wallet account.
type AccountView struct {
	ID             uuid.UUID       `json:"id"`
	UserID         string          `json:"user_id"`
	Currency       string          `json:"currency"`
	Balance        decimal.Decimal `json:"balance"`
	IsLocked       bool            `json:"is_locked"`
	LastActivityOn *time.Time      `json:"last_activity_on,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TransactionView is the public shape of one ledger entry.
type TransactionView struct {
	ID                   uuid.UUID       `json:"id"`
	Type                 string          `json:"type"`
	Status               string          `json:"status"`
	Amount               decimal.Decimal `json:"amount"`
	BalanceAfter         decimal.Decimal `json:"balance_after"`
	Reference            string          `json:"reference"`
	Description          *string         `json:"description,omitempty"`
	Metadata             json.RawMessage `json:"metadata,omitempty"`
	InvoiceID            *uuid.UUID      `json:"invoice_id,omitempty"`
	PaymentTransactionID *uuid.UUID      `json:"payment_transaction_id,omitempty"`
	OccurredAt           time.Time       `json:"occurred_at"`
}

// TransactionPage is one cursor page of the ledger, newest first.
type TransactionPage struct {
	Transactions []TransactionView `json:"transactions"`
	NextCursor   string            `json:"next_cursor,omitempty"`
}
