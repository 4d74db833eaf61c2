package discount

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/shopora/shopora-backend/pkg/db/models"
)

// Repository manages persistence for discount code policies.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetByCode(ctx context.Context, code string) (*models.DiscountCode, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a discount repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	var policy models.DiscountCode
	err := r.db.WithContext(ctx).
		Preload("GroupUsages").
		Where("code = ? AND is_deleted = false", strings.ToUpper(strings.TrimSpace(code))).
		First(&policy).Error
	if err != nil {
		return nil, err
	}
	return &policy, nil
}
