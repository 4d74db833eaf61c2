package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopora/shopora-backend/pkg/db/models"
)

// CartRepository abstracts shopping cart persistence for the service layer.
// Save replaces the cart's lines wholesale: line items are value objects
// keyed by the merge key, so persisting the aggregate rewrites them rather
// than diffing individual rows.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByUserID(ctx context.Context, userID string) (*models.ShoppingCart, error)
	FindByAnonymousID(ctx context.Context, anonymousID string) (*models.ShoppingCart, error)
	Create(ctx context.Context, cart *models.ShoppingCart) (*models.ShoppingCart, error)
	Save(ctx context.Context, cart *models.ShoppingCart) (*models.ShoppingCart, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) CartRepository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByUserID(ctx context.Context, userID string) (*models.ShoppingCart, error) {
	return r.findOne(ctx, "user_id = ?", userID)
}

func (r *repository) FindByAnonymousID(ctx context.Context, anonymousID string) (*models.ShoppingCart, error) {
	return r.findOne(ctx, "anonymous_id = ?", anonymousID)
}

func (r *repository) findOne(ctx context.Context, query string, arg any) (*models.ShoppingCart, error) {
	var cart models.ShoppingCart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where(query, arg).
		Where("is_deleted = false").
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) Create(ctx context.Context, cart *models.ShoppingCart) (*models.ShoppingCart, error) {
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *repository) Save(ctx context.Context, cart *models.ShoppingCart) (*models.ShoppingCart, error) {
	tx := r.db.WithContext(ctx)
	if err := tx.Omit("Items").Save(cart).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.ShoppingCartItem{}).Error; err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return cart, nil
	}
	for i := range cart.Items {
		cart.Items[i].CartID = cart.ID
	}
	if err := tx.Create(&cart.Items).Error; err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.ShoppingCart{}).Error
}
