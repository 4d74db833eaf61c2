package wallet

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopora/shopora-backend/pkg/db/models"
	"github.com/shopora/shopora-backend/pkg/enums"
	pkgerrors "github.com/shopora/shopora-backend/pkg/errors"
	"github.com/shopora/shopora-backend/pkg/pagination"
)

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRepo struct {
	account   *models.WalletAccount
	byRef     map[string]*models.WalletTransaction
	appended  []*models.WalletTransaction
	saves     int
	created   []*models.WalletAccount
	listRows  []models.WalletTransaction
	gotLimit  int
	gotCursor *pagination.Cursor
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) FindByUserID(ctx context.Context, userID string) (*models.WalletAccount, error) {
	if s.account == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.account, nil
}

func (s *stubRepo) FindByUserIDForUpdate(ctx context.Context, userID string) (*models.WalletAccount, error) {
	return s.FindByUserID(ctx, userID)
}

func (s *stubRepo) Create(ctx context.Context, account *models.WalletAccount) (*models.WalletAccount, error) {
	s.created = append(s.created, account)
	s.account = account
	return account, nil
}

func (s *stubRepo) SaveAccount(ctx context.Context, account *models.WalletAccount) error {
	s.saves++
	return nil
}

func (s *stubRepo) AppendTransaction(ctx context.Context, txn *models.WalletTransaction) error {
	s.appended = append(s.appended, txn)
	return nil
}

func (s *stubRepo) FindTransactionByReference(ctx context.Context, accountID uuid.UUID, reference string) (*models.WalletTransaction, error) {
	if txn, ok := s.byRef[reference]; ok {
		return txn, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) ListTransactions(ctx context.Context, accountID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.WalletTransaction, error) {
	s.gotLimit = limit
	s.gotCursor = cursor
	return s.listRows, nil
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:     repo,
		Tx:       stubTx{},
		Currency: enums.CurrencyUSD,
		Now:      func() time.Time { return time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func fundedAccount(t *testing.T, balance string) *models.WalletAccount {
	t.Helper()
	now := time.Date(2025, 4, 10, 11, 0, 0, 0, time.UTC)
	account, err := models.NewWalletAccount("user-1", enums.CurrencyUSD, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	account.ID = uuid.New()
	account.Balance = decimal.RequireFromString(balance)
	return account
}

func creditInput(amount, reference string) models.WalletEntryInput {
	return models.WalletEntryInput{
		Amount:    decimal.RequireFromString(amount),
		Reference: reference,
		Status:    enums.WalletTransactionStatusSucceeded,
	}
}

func TestGetOrCreateCreatesMissingAccount(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo)

	account, err := svc.GetOrCreate(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected account create, got %d", len(repo.created))
	}
	if account.UserID != "user-1" || account.Currency != enums.CurrencyUSD {
		t.Fatalf("unexpected account %+v", account)
	}
}

func TestGetOrCreateReturnsExisting(t *testing.T) {
	repo := &stubRepo{account: fundedAccount(t, "12.00")}
	svc := newTestService(t, repo)

	account, err := svc.GetOrCreate(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatal("existing account must not be recreated")
	}
	if !account.Balance.Equal(decimal.RequireFromString("12.00")) {
		t.Fatalf("balance = %s", account.Balance)
	}
}

func TestCreditAppendsAndSaves(t *testing.T) {
	repo := &stubRepo{account: fundedAccount(t, "0")}
	svc := newTestService(t, repo)

	txn, err := svc.Credit(context.Background(), "user-1", creditInput("30.00", "dep-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txn.Type != enums.WalletTransactionTypeCredit {
		t.Fatalf("type = %s", txn.Type)
	}
	if !txn.BalanceAfter.Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("balance after = %s", txn.BalanceAfter)
	}
	if len(repo.appended) != 1 || repo.saves != 1 {
		t.Fatalf("expected one append and one save, got %d/%d", len(repo.appended), repo.saves)
	}
	if txn.OccurredAt.IsZero() {
		t.Fatal("occurred at must default to the clock")
	}
}

func TestDebitInsufficientBalance(t *testing.T) {
	repo := &stubRepo{account: fundedAccount(t, "5.00")}
	svc := newTestService(t, repo)

	_, err := svc.Debit(context.Background(), "user-1", creditInput("9.99", "wd-1"))
	typed := pkgerrors.As(err)
	if typed.Code() != pkgerrors.CodeStateConflict || typed.Message() != "insufficient balance" {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
	if len(repo.appended) != 0 || repo.saves != 0 {
		t.Fatal("rejected debit must not write anything")
	}
}

func TestRecordMissingAccount(t *testing.T) {
	svc := newTestService(t, &stubRepo{})
	_, err := svc.Credit(context.Background(), "user-1", creditInput("5.00", "dep-1"))
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRecordIdempotentRetry(t *testing.T) {
	account := fundedAccount(t, "50.00")
	existing := &models.WalletTransaction{
		ID:           uuid.New(),
		AccountID:    account.ID,
		Type:         enums.WalletTransactionTypeCredit,
		Status:       enums.WalletTransactionStatusSucceeded,
		Amount:       decimal.RequireFromString("30.00"),
		BalanceAfter: decimal.RequireFromString("50.00"),
		Reference:    "dep-1",
	}
	repo := &stubRepo{
		account: account,
		byRef:   map[string]*models.WalletTransaction{"dep-1": existing},
	}
	svc := newTestService(t, repo)

	txn, err := svc.Credit(context.Background(), "user-1", creditInput("30.00", "dep-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txn.ID != existing.ID {
		t.Fatal("retry must return the recorded entry")
	}
	if len(repo.appended) != 0 || repo.saves != 0 {
		t.Fatal("retry must not double-apply")
	}
}

func TestRecordReferenceReuseMismatch(t *testing.T) {
	account := fundedAccount(t, "50.00")
	existing := &models.WalletTransaction{
		ID:        uuid.New(),
		AccountID: account.ID,
		Type:      enums.WalletTransactionTypeCredit,
		Amount:    decimal.RequireFromString("30.00"),
		Reference: "dep-1",
	}
	repo := &stubRepo{
		account: account,
		byRef:   map[string]*models.WalletTransaction{"dep-1": existing},
	}
	svc := newTestService(t, repo)

	// Same reference, different direction.
	_, err := svc.Debit(context.Background(), "user-1", creditInput("30.00", "dep-1"))
	if pkgerrors.As(err).Code() != pkgerrors.CodeIdempotency {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}

	// Same reference and direction, different amount.
	_, err = svc.Credit(context.Background(), "user-1", creditInput("31.00", "dep-1"))
	if pkgerrors.As(err).Code() != pkgerrors.CodeIdempotency {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}
}

func TestLockedAccountDenial(t *testing.T) {
	account := fundedAccount(t, "50.00")
	account.IsLocked = true
	svc := newTestService(t, &stubRepo{account: account})

	_, err := svc.Credit(context.Background(), "user-1", creditInput("5.00", "dep-1"))
	typed := pkgerrors.As(err)
	if typed.Code() != pkgerrors.CodeStateConflict || typed.Message() != "wallet is locked" {
		t.Fatalf("expected locked denial, got %v", err)
	}
}

func TestLockSavesOnlyOnChange(t *testing.T) {
	repo := &stubRepo{account: fundedAccount(t, "0")}
	svc := newTestService(t, repo)

	account, err := svc.Lock(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !account.IsLocked || repo.saves != 1 {
		t.Fatalf("expected locked account with one save, saves = %d", repo.saves)
	}

	if _, err := svc.Lock(context.Background(), "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.saves != 1 {
		t.Fatal("a redundant lock must not save")
	}

	if _, err := svc.Unlock(context.Background(), "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.saves != 2 {
		t.Fatal("unlock must save the changed account")
	}
}

func TestListTransactionsPagination(t *testing.T) {
	account := fundedAccount(t, "0")
	base := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)

	rows := make([]models.WalletTransaction, 0, 4)
	for i := 0; i < 4; i++ {
		rows = append(rows, models.WalletTransaction{
			ID:         uuid.New(),
			AccountID:  account.ID,
			Type:       enums.WalletTransactionTypeCredit,
			Status:     enums.WalletTransactionStatusSucceeded,
			Amount:     decimal.NewFromInt(int64(i + 1)),
			Reference:  fmt.Sprintf("dep-%d", i),
			OccurredAt: base.Add(-time.Duration(i) * time.Minute),
		})
	}
	repo := &stubRepo{account: account, listRows: rows}
	svc := newTestService(t, repo)

	page, err := svc.ListTransactions(context.Background(), "user-1", pagination.Params{Limit: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.gotLimit != 4 {
		t.Fatalf("expected limit+1 fetch, got %d", repo.gotLimit)
	}
	if len(page.Transactions) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(page.Transactions))
	}
	if page.NextCursor == "" {
		t.Fatal("expected a next cursor when more rows exist")
	}

	cursor, err := pagination.ParseCursor(page.NextCursor)
	if err != nil {
		t.Fatalf("cursor must round-trip: %v", err)
	}
	last := page.Transactions[2]
	if !cursor.CreatedAt.Equal(last.OccurredAt) || cursor.ID != last.ID {
		t.Fatal("cursor must point at the last returned row")
	}
}

func TestListTransactionsUsesConfiguredPageSize(t *testing.T) {
	repo := &stubRepo{account: fundedAccount(t, "0")}
	svc, err := NewService(ServiceParams{
		Repo:     repo,
		Tx:       stubTx{},
		Currency: enums.CurrencyUSD,
		PageSize: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.ListTransactions(context.Background(), "user-1", pagination.Params{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.gotLimit != 11 {
		t.Fatalf("expected the configured page size plus the look-ahead row, got %d", repo.gotLimit)
	}

	// An explicit limit wins over the configured default.
	if _, err := svc.ListTransactions(context.Background(), "user-1", pagination.Params{Limit: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.gotLimit != 4 {
		t.Fatalf("expected the requested limit plus the look-ahead row, got %d", repo.gotLimit)
	}
}

func TestListTransactionsLastPage(t *testing.T) {
	account := fundedAccount(t, "0")
	repo := &stubRepo{account: account, listRows: []models.WalletTransaction{{ID: uuid.New()}}}
	svc := newTestService(t, repo)

	page, err := svc.ListTransactions(context.Background(), "user-1", pagination.Params{Limit: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.NextCursor != "" {
		t.Fatal("last page must not carry a cursor")
	}
}

func TestListTransactionsInvalidCursor(t *testing.T) {
	repo := &stubRepo{account: fundedAccount(t, "0")}
	svc := newTestService(t, repo)

	_, err := svc.ListTransactions(context.Background(), "user-1", pagination.Params{Cursor: "not-a-cursor"})
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListTransactionsMissingAccount(t *testing.T) {
	svc := newTestService(t, &stubRepo{})
	_, err := svc.ListTransactions(context.Background(), "user-1", pagination.Params{})
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
