package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/shopora/shopora-backend/pkg/db"
	"github.com/shopora/shopora-backend/pkg/db/models"
	"github.com/shopora/shopora-backend/pkg/enums"
	pkgerrors "github.com/shopora/shopora-backend/pkg/errors"
	"github.com/shopora/shopora-backend/pkg/metrics"
	"github.com/shopora/shopora-backend/pkg/money"
	"github.com/shopora/shopora-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// TransactionPage is one cursor page of a wallet's ledger, newest first.
type TransactionPage struct {
	Transactions []models.WalletTransaction
	NextCursor   string
}

// Service exposes the wallet workflows. Ledger invariants (lock gate,
// positive amounts, no negative balance, append-only history) live in the
// aggregate; this layer adds persistence, row-level serialization and
// idempotent recording: a Credit/Debit retried with an already-recorded
// reference returns the recorded entry instead of appending a second one.
type Service interface {
	GetOrCreate(ctx context.Context, userID string) (*models.WalletAccount, error)
	Credit(ctx context.Context, userID string, input models.WalletEntryInput) (*models.WalletTransaction, error)
	Debit(ctx context.Context, userID string, input models.WalletEntryInput) (*models.WalletTransaction, error)
	Lock(ctx context.Context, userID string) (*models.WalletAccount, error)
	Unlock(ctx context.Context, userID string) (*models.WalletAccount, error)
	ListTransactions(ctx context.Context, userID string, params pagination.Params) (*TransactionPage, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	currency enums.Currency
	pageSize int
	domain   *metrics.DomainMetrics
	now      func() time.Time
}

// ServiceParams bundles the wallet service dependencies.
type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Currency enums.Currency
	// PageSize is the ledger page size when a request does not ask for one.
	PageSize int
	Metrics  *metrics.DomainMetrics
	Now      func() time.Time
}

// NewService builds a wallet service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	if !params.Currency.IsValid() {
		params.Currency = enums.CurrencyUSD
	}
	if params.PageSize <= 0 || params.PageSize > pagination.MaxLimit {
		params.PageSize = pagination.DefaultLimit
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		currency: params.Currency,
		pageSize: params.PageSize,
		domain:   params.Metrics,
		now:      params.Now,
	}, nil
}

func (s *service) GetOrCreate(ctx context.Context, userID string) (*models.WalletAccount, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	var account *models.WalletAccount
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindByUserID(ctx, userID)
		if err == nil {
			account = loaded
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet account")
		}
		fresh, err := models.NewWalletAccount(userID, s.currency, s.now())
		if err != nil {
			return err
		}
		account, err = repo.Create(ctx, fresh)
		if err != nil && db.IsUniqueViolation(err, "idx_wallet_user_currency") {
			// Lost a create race with a concurrent first access.
			account, err = repo.FindByUserID(ctx, userID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *service) Credit(ctx context.Context, userID string, input models.WalletEntryInput) (*models.WalletTransaction, error) {
	return s.record(ctx, userID, enums.WalletTransactionTypeCredit, input)
}

func (s *service) Debit(ctx context.Context, userID string, input models.WalletEntryInput) (*models.WalletTransaction, error) {
	return s.record(ctx, userID, enums.WalletTransactionTypeDebit, input)
}

func (s *service) record(ctx context.Context, userID string, txType enums.WalletTransactionType, input models.WalletEntryInput) (*models.WalletTransaction, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.OccurredAt.IsZero() {
		input.OccurredAt = s.now()
	}

	var recorded *models.WalletTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		account, err := repo.FindByUserIDForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "wallet account not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet account")
		}

		// Retried calls after an ambiguous failure must not double-apply.
		reference := strings.TrimSpace(input.Reference)
		if reference != "" {
			existing, err := repo.FindTransactionByReference(ctx, account.ID, reference)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check transaction reference")
			}
			if existing != nil {
				if existing.Type != txType || !existing.Amount.Equal(money.Round(input.Amount)) {
					return pkgerrors.New(pkgerrors.CodeIdempotency, "reference already used with a different entry")
				}
				recorded = existing
				return nil
			}
		}

		var txn *models.WalletTransaction
		switch txType {
		case enums.WalletTransactionTypeDebit:
			txn, err = account.Debit(input)
		default:
			txn, err = account.Credit(input)
		}
		if err != nil {
			s.countDenial(err)
			return err
		}

		if err := repo.AppendTransaction(ctx, txn); err != nil {
			if db.IsUniqueViolation(err, "idx_wallet_txn_reference") {
				return pkgerrors.New(pkgerrors.CodeIdempotency, "reference already used with a different entry")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append wallet transaction")
		}
		if err := repo.SaveAccount(ctx, account); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save wallet account")
		}
		recorded = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.domain.IncWalletTransaction(txType.String(), recorded.Status.String())
	return recorded, nil
}

func (s *service) Lock(ctx context.Context, userID string) (*models.WalletAccount, error) {
	return s.setLocked(ctx, userID, true)
}

func (s *service) Unlock(ctx context.Context, userID string) (*models.WalletAccount, error) {
	return s.setLocked(ctx, userID, false)
}

func (s *service) setLocked(ctx context.Context, userID string, locked bool) (*models.WalletAccount, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	var account *models.WalletAccount
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.FindByUserIDForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "wallet account not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet account")
		}

		changed := false
		if locked {
			changed = loaded.Lock(s.now())
		} else {
			changed = loaded.Unlock(s.now())
		}
		if changed {
			if err := repo.SaveAccount(ctx, loaded); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save wallet account")
			}
		}
		account = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *service) ListTransactions(ctx context.Context, userID string, params pagination.Params) (*TransactionPage, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	account, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wallet account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet account")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	if params.Limit <= 0 {
		params.Limit = s.pageSize
	}
	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListTransactions(ctx, account.ID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wallet transactions")
	}

	page := &TransactionPage{Transactions: rows}
	if len(rows) > limit {
		page.Transactions = rows[:limit]
		last := page.Transactions[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.OccurredAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func (s *service) countDenial(err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		return
	}
	switch typed.Message() {
	case "wallet is locked":
		s.domain.IncWalletDenial("locked")
	case "insufficient balance":
		s.domain.IncWalletDenial("insufficient_balance")
	default:
		s.domain.IncWalletDenial("validation")
	}
}
