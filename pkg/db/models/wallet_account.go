package models

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopora/shopora-backend/pkg/enums"
	pkgerrors "github.com/shopora/shopora-backend/pkg/errors"
	"github.com/shopora/shopora-backend/pkg/money"
	"github.com/shopora/shopora-backend/pkg/types"
)

// WalletAccount is the aggregate root for one user's wallet: an append-only
// ledger of transactions plus a cached Balance. The cached balance always
// equals the BalanceAfter of the most recent succeeded transaction, never
// goes negative, and nothing moves while the account is locked. Existing
// transactions are never edited; corrections are new offsetting entries.
type WalletAccount struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID         string              `gorm:"column:user_id;type:text;not null;uniqueIndex:idx_wallet_user_currency" json:"user_id"`
	Currency       enums.Currency      `gorm:"column:currency;type:text;not null;uniqueIndex:idx_wallet_user_currency" json:"currency"`
	Balance        decimal.Decimal     `gorm:"column:balance;type:numeric(12,2);not null" json:"balance"`
	IsLocked       bool                `gorm:"column:is_locked;not null;default:false" json:"is_locked"`
	LastActivityOn *time.Time          `gorm:"column:last_activity_on" json:"last_activity_on,omitempty"`
	Transactions   []WalletTransaction `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE" json:"transactions,omitempty"`
	Audit          types.AuditStamp    `gorm:"embedded" json:"audit"`
}

// TableName sets the explicit table name.
func (WalletAccount) TableName() string {
	return "wallet_accounts"
}

// WalletEntryInput carries everything needed to record one ledger entry.
// InvoiceID and PaymentTransactionID are opaque correlation identifiers
// supplied by the billing flow.
type WalletEntryInput struct {
	Amount               decimal.Decimal
	Reference            string
	Description          *string
	Metadata             json.RawMessage
	InvoiceID            *uuid.UUID
	PaymentTransactionID *uuid.UUID
	Status               enums.WalletTransactionStatus
	OccurredAt           time.Time
}

// NewWalletAccount creates an empty unlocked account for a user.
func NewWalletAccount(userID string, currency enums.Currency, now time.Time) (*WalletAccount, error) {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
	}
	return &WalletAccount{
		UserID:   trimmed,
		Currency: currency,
		Balance:  money.Zero,
		Audit:    types.NewAuditStamp(nil, now),
	}, nil
}

// Credit records a deposit entry. The cached balance moves only when the
// entry's status is succeeded.
func (a *WalletAccount) Credit(input WalletEntryInput) (*WalletTransaction, error) {
	return a.appendEntry(enums.WalletTransactionTypeCredit, input)
}

// Debit records a withdrawal entry. A succeeded debit that would drive the
// balance negative is rejected before anything is appended.
func (a *WalletAccount) Debit(input WalletEntryInput) (*WalletTransaction, error) {
	return a.appendEntry(enums.WalletTransactionTypeDebit, input)
}

func (a *WalletAccount) appendEntry(txType enums.WalletTransactionType, input WalletEntryInput) (*WalletTransaction, error) {
	if a.IsLocked {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "wallet is locked")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference is required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction status")
	}
	if input.OccurredAt.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "occurred at is required")
	}

	amount := money.Round(input.Amount)
	prospective := a.Balance.Add(amount)
	if txType == enums.WalletTransactionTypeDebit {
		prospective = a.Balance.Sub(amount)
		if input.Status == enums.WalletTransactionStatusSucceeded && prospective.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient balance")
		}
	}
	prospective = money.Round(prospective)

	txn := WalletTransaction{
		AccountID:            a.ID,
		Type:                 txType,
		Status:               input.Status,
		Amount:               amount,
		BalanceAfter:         prospective,
		Reference:            reference,
		Description:          copyStringPtr(input.Description),
		Metadata:             input.Metadata,
		InvoiceID:            copyUUIDPtr(input.InvoiceID),
		PaymentTransactionID: copyUUIDPtr(input.PaymentTransactionID),
		OccurredAt:           input.OccurredAt,
		CreatedAt:            input.OccurredAt,
	}
	a.Transactions = append(a.Transactions, txn)

	if input.Status == enums.WalletTransactionStatusSucceeded {
		a.Balance = prospective
	}
	occurred := input.OccurredAt
	a.LastActivityOn = &occurred
	a.Audit.Touch(nil, occurred)

	return &a.Transactions[len(a.Transactions)-1], nil
}

// Lock freezes the account. Reports whether the state changed; a redundant
// lock does not churn the modification timestamp.
func (a *WalletAccount) Lock(at time.Time) bool {
	if a.IsLocked {
		return false
	}
	a.IsLocked = true
	a.Audit.Touch(nil, at)
	return true
}

// Unlock releases the account. Idempotent like Lock.
func (a *WalletAccount) Unlock(at time.Time) bool {
	if !a.IsLocked {
		return false
	}
	a.IsLocked = false
	a.Audit.Touch(nil, at)
	return true
}

// ReplayBalance reconstructs the balance by replaying succeeded transactions
// in occurred-at order. Always equals the cached Balance.
func (a *WalletAccount) ReplayBalance() decimal.Decimal {
	succeeded := make([]WalletTransaction, 0, len(a.Transactions))
	for _, txn := range a.Transactions {
		if txn.Status == enums.WalletTransactionStatusSucceeded {
			succeeded = append(succeeded, txn)
		}
	}
	sort.SliceStable(succeeded, func(i, j int) bool {
		return succeeded[i].OccurredAt.Before(succeeded[j].OccurredAt)
	})

	balance := money.Zero
	for _, txn := range succeeded {
		balance = balance.Add(txn.SignedAmount())
	}
	return money.Round(balance)
}
