package discount

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopora/shopora-backend/pkg/db/models"
	pkgerrors "github.com/shopora/shopora-backend/pkg/errors"
	"github.com/shopora/shopora-backend/pkg/metrics"
	"github.com/shopora/shopora-backend/pkg/types"
)

// Service is the consolidated discount gate: every caller that wants a
// snapshot (cart apply or UI preview) goes through the same validity-window
// and usage-limit checks before the pure Preview computation runs. The checks
// live here rather than in the policy object because redemption counting is
// tied to order finalization, not to previewing.
type Service interface {
	GetByCode(ctx context.Context, code string) (*models.DiscountCode, error)
	Preview(ctx context.Context, code string, subtotal decimal.Decimal, evaluatedAt time.Time, audienceKey *string) (types.DiscountSnapshot, error)
}

type service struct {
	repo   Repository
	domain *metrics.DomainMetrics
}

// NewService wires a discount service with the provided repository. Metrics
// are optional; a nil receiver disables counting.
func NewService(repo Repository, domain *metrics.DomainMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	return &service{repo: repo, domain: domain}, nil
}

func (s *service) GetByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code is required")
	}

	policy, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "discount code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load discount code")
	}
	return policy, nil
}

func (s *service) Preview(ctx context.Context, code string, subtotal decimal.Decimal, evaluatedAt time.Time, audienceKey *string) (types.DiscountSnapshot, error) {
	policy, err := s.GetByCode(ctx, code)
	if err != nil {
		return types.DiscountSnapshot{}, err
	}

	if !policy.IsActiveAt(evaluatedAt) {
		s.domain.IncDiscountPreview("not_active")
		return types.DiscountSnapshot{}, pkgerrors.New(pkgerrors.CodeStateConflict, "discount code is not active")
	}
	if !policy.HasRemainingGlobalUses() {
		s.domain.IncDiscountPreview("exhausted")
		return types.DiscountSnapshot{}, pkgerrors.New(pkgerrors.CodeConflict, "discount code has been exhausted")
	}
	if audienceKey != nil {
		if remaining := policy.RemainingUsesForGroup(*audienceKey); remaining != nil && *remaining <= 0 {
			s.domain.IncDiscountPreview("audience_exhausted")
			return types.DiscountSnapshot{}, pkgerrors.New(pkgerrors.CodeConflict, "discount code already used")
		}
	}

	snapshot, err := policy.Preview(subtotal, evaluatedAt, audienceKey)
	if err != nil {
		return types.DiscountSnapshot{}, err
	}
	s.domain.IncDiscountPreview("ok")
	return snapshot, nil
}
