package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopora/shopora-backend/pkg/enums"
)

// WalletTransaction is one immutable entry in a wallet's append-only ledger.
// Amount is always positive; direction lives in Type. BalanceAfter records
// what the balance would become if this entry succeeds, even for pending or
// failed entries, so the ledger is replayable from succeeded entries alone.
type WalletTransaction struct {
	ID                   uuid.UUID                     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AccountID            uuid.UUID                     `gorm:"column:account_id;type:uuid;not null;index" json:"account_id"`
	Type                 enums.WalletTransactionType   `gorm:"column:type;type:text;not null" json:"type"`
	Status               enums.WalletTransactionStatus `gorm:"column:status;type:text;not null" json:"status"`
	Amount               decimal.Decimal               `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	BalanceAfter         decimal.Decimal               `gorm:"column:balance_after;type:numeric(12,2);not null" json:"balance_after"`
	Reference            string                        `gorm:"column:reference;type:text;not null" json:"reference"`
	Description          *string                       `gorm:"column:description;type:text" json:"description,omitempty"`
	Metadata             json.RawMessage               `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	InvoiceID            *uuid.UUID                    `gorm:"column:invoice_id;type:uuid" json:"invoice_id,omitempty"`
	PaymentTransactionID *uuid.UUID                    `gorm:"column:payment_transaction_id;type:uuid" json:"payment_transaction_id,omitempty"`
	OccurredAt           time.Time                     `gorm:"column:occurred_at;not null;index" json:"occurred_at"`
	CreatedAt            time.Time                     `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName sets the explicit table name.
func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}

// SignedAmount is the amount with the ledger direction applied.
func (t WalletTransaction) SignedAmount() decimal.Decimal {
	if t.Type == enums.WalletTransactionTypeDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}
