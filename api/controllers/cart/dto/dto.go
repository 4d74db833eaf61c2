package cartdto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddItemRequest carries the product snapshot captured at add time.
type AddItemRequest struct {
	ProductID      uuid.UUID        `json:"product_id" validate:"required"`
	VariantID      *uuid.UUID       `json:"variant_id,omitempty"`
	OfferID        *uuid.UUID       `json:"offer_id,omitempty"`
	ProductName    string           `json:"product_name" validate:"required,max=255"`
	ProductSlug    string           `json:"product_slug" validate:"max=255"`
	UnitPrice      decimal.Decimal  `json:"unit_price" validate:"required"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	Thumbnail      *string          `json:"thumbnail,omitempty"`
	ProductType    string           `json:"product_type" validate:"required,oneof=physical downloadable service"`
	Quantity       int              `json:"quantity" validate:"required,gt=0"`
}

// SetQuantityRequest replaces the quantity of one line addressed by its key.
type SetQuantityRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	OfferID   *uuid.UUID `json:"offer_id,omitempty"`
	Quantity  int        `json:"quantity" validate:"required,gt=0"`
}

// RemoveItemRequest removes lines by key; variant/offer left unset remove all
// matching variants/offers of the product.
type RemoveItemRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	OfferID   *uuid.UUID `json:"offer_id,omitempty"`
}

// ApplyDiscountRequest applies a discount code to the cart.
type ApplyDiscountRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

// MergeRequest folds the anonymous cart into the authenticated user's cart.
type MergeRequest struct {
	AnonymousID string `json:"anonymous_id" validate:"required,max=128"`
}

// CartItemView is the public shape of one cart line.
type CartItemView struct {
	ID             uuid.UUID        `json:"id"`
	ProductID      uuid.UUID        `json:"product_id"`
	VariantID      *uuid.UUID       `json:"variant_id,omitempty"`
	OfferID        *uuid.UUID       `json:"offer_id,omitempty"`
	ProductName    string           `json:"product_name"`
	ProductSlug    string           `json:"product_slug"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	Thumbnail      *string          `json:"thumbnail,omitempty"`
	ProductType    string           `json:"product_type"`
	Quantity       int              `json:"quantity"`
	LineTotal      decimal.Decimal  `json:"line_total"`
}

// DiscountView is the applied discount snapshot.
type DiscountView struct {
	Code        string          `json:"code"`
	Kind        string          `json:"kind"`
	Value       decimal.Decimal `json:"value"`
	Amount      decimal.Decimal `json:"amount"`
	Capped      bool            `json:"capped"`
	EvaluatedAt time.Time       `json:"evaluated_at"`
}

// CartView is the public shape of the cart with computed totals.
type CartView struct {
	ID            uuid.UUID       `json:"id"`
	UserID        *string         `json:"user_id,omitempty"`
	AnonymousID   *string         `json:"anonymous_id,omitempty"`
	Currency      string          `json:"currency"`
	Items         []CartItemView  `json:"items"`
	Discount      *DiscountView   `json:"discount,omitempty"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
