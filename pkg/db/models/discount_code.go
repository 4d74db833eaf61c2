package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopora/shopora-backend/pkg/enums"
	pkgerrors "github.com/shopora/shopora-backend/pkg/errors"
	"github.com/shopora/shopora-backend/pkg/money"
	"github.com/shopora/shopora-backend/pkg/types"
)

// DiscountCode is the discount policy object. Preview is a pure computation;
// redemption bookkeeping (TotalRedemptions, group remaining uses) is mutated
// elsewhere, transactionally with order finalization, and only exposed here
// as counters for callers to check before applying.
type DiscountCode struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code             string               `gorm:"column:code;type:text;not null;uniqueIndex" json:"code"`
	Kind             enums.DiscountKind   `gorm:"column:kind;type:text;not null" json:"kind"`
	Value            decimal.Decimal      `gorm:"column:value;type:numeric(12,2);not null" json:"value"`
	GlobalUsageLimit *int                 `gorm:"column:global_usage_limit" json:"global_usage_limit,omitempty"`
	TotalRedemptions int                  `gorm:"column:total_redemptions;not null;default:0" json:"total_redemptions"`
	StartsAt         *time.Time           `gorm:"column:starts_at" json:"starts_at,omitempty"`
	ExpiresAt        *time.Time           `gorm:"column:expires_at" json:"expires_at,omitempty"`
	GroupUsages      []DiscountGroupUsage `gorm:"foreignKey:DiscountCodeID;constraint:OnDelete:CASCADE" json:"group_usages,omitempty"`
	Audit            types.AuditStamp     `gorm:"embedded" json:"audit"`
}

// TableName sets the explicit table name.
func (DiscountCode) TableName() string {
	return "discount_codes"
}

// DiscountGroupUsage tracks remaining uses per audience key (typically a
// user id) for per-audience redemption limits.
type DiscountGroupUsage struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DiscountCodeID uuid.UUID `gorm:"column:discount_code_id;type:uuid;not null;uniqueIndex:idx_discount_audience" json:"discount_code_id"`
	AudienceKey    string    `gorm:"column:audience_key;type:text;not null;uniqueIndex:idx_discount_audience" json:"audience_key"`
	RemainingUses  int       `gorm:"column:remaining_uses;not null" json:"remaining_uses"`
}

// TableName sets the explicit table name.
func (DiscountGroupUsage) TableName() string {
	return "discount_group_usages"
}

// NewDiscountCode validates and builds a discount policy.
func NewDiscountCode(code string, kind enums.DiscountKind, value decimal.Decimal, globalLimit *int, now time.Time) (*DiscountCode, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code is required")
	}
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount kind")
	}
	if !value.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}
	if kind == enums.DiscountKindPercentage && value.GreaterThan(decimal.NewFromInt(100)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}
	if globalLimit != nil && *globalLimit <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "global usage limit must be positive")
	}
	return &DiscountCode{
		Code:             trimmed,
		Kind:             kind,
		Value:            value,
		GlobalUsageLimit: globalLimit,
		Audit:            types.NewAuditStamp(nil, now),
	}, nil
}

// Preview computes the discount snapshot for a subtotal at a point in time.
// It performs no mutation and is safe to call speculatively; usage-limit
// enforcement is explicitly the caller's job, checked against the exposed
// counters before applying. The audience key is accepted for contract
// symmetry with that check and does not influence the amount.
func (d *DiscountCode) Preview(subtotal decimal.Decimal, evaluatedAt time.Time, audienceKey *string) (types.DiscountSnapshot, error) {
	_ = audienceKey

	if !subtotal.IsPositive() {
		return types.DiscountSnapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "subtotal must be positive")
	}
	if evaluatedAt.IsZero() {
		return types.DiscountSnapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "evaluated at is required")
	}

	rounded := money.Round(subtotal)

	var raw decimal.Decimal
	switch d.Kind {
	case enums.DiscountKindPercentage:
		raw = money.Percent(rounded, d.Value)
	case enums.DiscountKindFixed:
		raw = money.Round(d.Value)
	default:
		return types.DiscountSnapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount kind")
	}

	amount := money.Min(raw, rounded)
	capped := raw.GreaterThan(rounded)

	return types.DiscountSnapshot{
		Code:        d.Code,
		Kind:        d.Kind,
		Value:       d.Value,
		Amount:      amount,
		Capped:      capped,
		EvaluatedAt: evaluatedAt,
		Subtotal:    rounded,
	}, nil
}

// HasRemainingGlobalUses reports whether the global cap still allows a
// redemption. A nil limit means unlimited.
func (d *DiscountCode) HasRemainingGlobalUses() bool {
	if d.GlobalUsageLimit == nil {
		return true
	}
	return d.TotalRedemptions < *d.GlobalUsageLimit
}

// RemainingUsesForGroup returns the remaining uses for an audience key, or
// nil when no per-audience limit is configured for it.
func (d *DiscountCode) RemainingUsesForGroup(audienceKey string) *int {
	trimmed := strings.TrimSpace(audienceKey)
	if trimmed == "" {
		return nil
	}
	for _, usage := range d.GroupUsages {
		if usage.AudienceKey == trimmed {
			remaining := usage.RemainingUses
			return &remaining
		}
	}
	return nil
}

// IsActiveAt reports whether the code's validity window covers the instant.
func (d *DiscountCode) IsActiveAt(at time.Time) bool {
	if d.StartsAt != nil && at.Before(*d.StartsAt) {
		return false
	}
	if d.ExpiresAt != nil && !at.Before(*d.ExpiresAt) {
		return false
	}
	return true
}
