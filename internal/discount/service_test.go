package discount

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopora/shopora-backend/pkg/db/models"
	"github.com/shopora/shopora-backend/pkg/enums"
	pkgerrors "github.com/shopora/shopora-backend/pkg/errors"
)

type stubRepo struct {
	getFn func(ctx context.Context, code string) (*models.DiscountCode, error)
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) GetByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	if s.getFn != nil {
		return s.getFn(ctx, code)
	}
	return nil, gorm.ErrRecordNotFound
}

func repoWith(code *models.DiscountCode) *stubRepo {
	return &stubRepo{getFn: func(ctx context.Context, _ string) (*models.DiscountCode, error) {
		return code, nil
	}}
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func TestGetByCodeValidation(t *testing.T) {
	svc := newTestService(t, &stubRepo{})
	if _, err := svc.GetByCode(context.Background(), "  "); pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetByCodeNotFound(t *testing.T) {
	svc := newTestService(t, &stubRepo{})
	if _, err := svc.GetByCode(context.Background(), "MISSING"); pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPreviewInactiveCode(t *testing.T) {
	now := time.Now().UTC()
	code, _ := models.NewDiscountCode("SOON", enums.DiscountKindFixed, decimal.NewFromInt(5), nil, now)
	starts := now.Add(time.Hour)
	code.StartsAt = &starts

	svc := newTestService(t, repoWith(code))
	_, err := svc.Preview(context.Background(), "SOON", decimal.NewFromInt(50), now, nil)
	typed := pkgerrors.As(err)
	if typed.Code() != pkgerrors.CodeStateConflict || typed.Message() != "discount code is not active" {
		t.Fatalf("expected inactive state conflict, got %v", err)
	}
}

func TestPreviewExhaustedCode(t *testing.T) {
	now := time.Now().UTC()
	limit := 2
	code, _ := models.NewDiscountCode("GONE", enums.DiscountKindFixed, decimal.NewFromInt(5), &limit, now)
	code.TotalRedemptions = 2

	svc := newTestService(t, repoWith(code))
	_, err := svc.Preview(context.Background(), "GONE", decimal.NewFromInt(50), now, nil)
	if pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestPreviewAudienceAlreadyUsed(t *testing.T) {
	now := time.Now().UTC()
	code, _ := models.NewDiscountCode("ONCE", enums.DiscountKindFixed, decimal.NewFromInt(5), nil, now)
	code.GroupUsages = []models.DiscountGroupUsage{{AudienceKey: "user-1", RemainingUses: 0}}

	svc := newTestService(t, repoWith(code))
	audience := "user-1"
	_, err := svc.Preview(context.Background(), "ONCE", decimal.NewFromInt(50), now, &audience)
	typed := pkgerrors.As(err)
	if typed.Code() != pkgerrors.CodeConflict || typed.Message() != "discount code already used" {
		t.Fatalf("expected already-used conflict, got %v", err)
	}

	// A different audience, or none at all, is unaffected.
	other := "user-2"
	if _, err := svc.Preview(context.Background(), "ONCE", decimal.NewFromInt(50), now, &other); err != nil {
		t.Fatalf("unexpected error for fresh audience: %v", err)
	}
	if _, err := svc.Preview(context.Background(), "ONCE", decimal.NewFromInt(50), now, nil); err != nil {
		t.Fatalf("unexpected error for anonymous preview: %v", err)
	}
}

func TestPreviewComputesSnapshot(t *testing.T) {
	now := time.Now().UTC()
	code, _ := models.NewDiscountCode("TEN", enums.DiscountKindPercentage, decimal.NewFromInt(10), nil, now)

	svc := newTestService(t, repoWith(code))
	snapshot, err := svc.Preview(context.Background(), "TEN", decimal.RequireFromString("80.00"), now, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snapshot.Code != "TEN" {
		t.Fatalf("code = %q", snapshot.Code)
	}
	if !snapshot.Amount.Equal(decimal.RequireFromString("8.00")) {
		t.Fatalf("amount = %s, want 8.00", snapshot.Amount)
	}
	if !snapshot.EvaluatedAt.Equal(now) {
		t.Fatal("snapshot must record the evaluation instant")
	}
}
