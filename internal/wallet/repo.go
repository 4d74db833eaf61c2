package wallet

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopora/shopora-backend/pkg/db/models"
	"github.com/shopora/shopora-backend/pkg/pagination"
)

// Repository manages persistence for wallet accounts and their ledger.
// Transactions are insert-only; nothing here updates or deletes a recorded
// WalletTransaction.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByUserID(ctx context.Context, userID string) (*models.WalletAccount, error)
	FindByUserIDForUpdate(ctx context.Context, userID string) (*models.WalletAccount, error)
	Create(ctx context.Context, account *models.WalletAccount) (*models.WalletAccount, error)
	SaveAccount(ctx context.Context, account *models.WalletAccount) error
	AppendTransaction(ctx context.Context, txn *models.WalletTransaction) error
	FindTransactionByReference(ctx context.Context, accountID uuid.UUID, reference string) (*models.WalletTransaction, error)
	ListTransactions(ctx context.Context, accountID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.WalletTransaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByUserID(ctx context.Context, userID string) (*models.WalletAccount, error) {
	return r.find(ctx, r.db.WithContext(ctx), userID)
}

// FindByUserIDForUpdate takes a row lock so concurrent Credit/Debit calls on
// the same account serialize at the database.
func (r *repository) FindByUserIDForUpdate(ctx context.Context, userID string) (*models.WalletAccount, error) {
	return r.find(ctx, r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), userID)
}

func (r *repository) find(ctx context.Context, tx *gorm.DB, userID string) (*models.WalletAccount, error) {
	var account models.WalletAccount
	err := tx.
		Where("user_id = ? AND is_deleted = false", userID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) Create(ctx context.Context, account *models.WalletAccount) (*models.WalletAccount, error) {
	if err := r.db.WithContext(ctx).Omit("Transactions").Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

func (r *repository) SaveAccount(ctx context.Context, account *models.WalletAccount) error {
	return r.db.WithContext(ctx).Omit("Transactions").Save(account).Error
}

func (r *repository) AppendTransaction(ctx context.Context, txn *models.WalletTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *repository) FindTransactionByReference(ctx context.Context, accountID uuid.UUID, reference string) (*models.WalletTransaction, error) {
	var txn models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND reference = ?", accountID, reference).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) ListTransactions(ctx context.Context, accountID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.WalletTransaction, error) {
	query := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("occurred_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(occurred_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.WalletTransaction
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
