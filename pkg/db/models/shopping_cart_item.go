package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopora/shopora-backend/pkg/enums"
	"github.com/shopora/shopora-backend/pkg/money"
)

// ShoppingCartItem is a line owned exclusively by one ShoppingCart. Lines are
// unique by the (product, variant, offer) merge key; adding the same key again
// merges quantities instead of creating a second row.
type ShoppingCartItem struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CartID         uuid.UUID         `gorm:"column:cart_id;type:uuid;not null" json:"cart_id"`
	ProductID      uuid.UUID         `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	VariantID      *uuid.UUID        `gorm:"column:variant_id;type:uuid" json:"variant_id,omitempty"`
	OfferID        *uuid.UUID        `gorm:"column:offer_id;type:uuid" json:"offer_id,omitempty"`
	ProductName    string            `gorm:"column:product_name;type:text;not null" json:"product_name"`
	ProductSlug    string            `gorm:"column:product_slug;type:text;not null" json:"product_slug"`
	UnitPrice      decimal.Decimal   `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unit_price"`
	CompareAtPrice *decimal.Decimal  `gorm:"column:compare_at_price;type:numeric(12,2)" json:"compare_at_price,omitempty"`
	Thumbnail      *string           `gorm:"column:thumbnail;type:text" json:"thumbnail,omitempty"`
	ProductType    enums.ProductType `gorm:"column:product_type;type:text;not null" json:"product_type"`
	Quantity       int               `gorm:"column:quantity;not null" json:"quantity"`
	CreatedAt      time.Time         `gorm:"column:created_at;not null" json:"created_at"`
}

// TableName sets the explicit table name.
func (ShoppingCartItem) TableName() string {
	return "shopping_cart_items"
}

// LineTotal is the rounded unit price times quantity.
func (i ShoppingCartItem) LineTotal() decimal.Decimal {
	return money.MulQty(i.UnitPrice, i.Quantity)
}

// matchesKey reports whether the line matches the exact merge key.
func (i ShoppingCartItem) matchesKey(productID uuid.UUID, variantID, offerID *uuid.UUID) bool {
	return i.ProductID == productID &&
		uuidPtrEqual(i.VariantID, variantID) &&
		uuidPtrEqual(i.OfferID, offerID)
}

// matchesFilter treats nil variant/offer as wildcards, so a removal without
// them clears every variant/offer row of the product.
func (i ShoppingCartItem) matchesFilter(productID uuid.UUID, variantID, offerID *uuid.UUID) bool {
	if i.ProductID != productID {
		return false
	}
	if variantID != nil && !uuidPtrEqual(i.VariantID, variantID) {
		return false
	}
	if offerID != nil && !uuidPtrEqual(i.OfferID, offerID) {
		return false
	}
	return true
}

// snapshot rebuilds the input view of the line, used when folding one cart
// into another.
func (i ShoppingCartItem) snapshot() CartItemSnapshot {
	return CartItemSnapshot{
		ProductID:      i.ProductID,
		VariantID:      copyUUIDPtr(i.VariantID),
		OfferID:        copyUUIDPtr(i.OfferID),
		ProductName:    i.ProductName,
		ProductSlug:    i.ProductSlug,
		UnitPrice:      i.UnitPrice,
		CompareAtPrice: copyDecimalPtr(i.CompareAtPrice),
		Thumbnail:      copyStringPtr(i.Thumbnail),
		ProductType:    i.ProductType,
	}
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copyUUIDPtr(src *uuid.UUID) *uuid.UUID {
	if src == nil {
		return nil
	}
	val := *src
	return &val
}

func copyStringPtr(src *string) *string {
	if src == nil {
		return nil
	}
	val := *src
	return &val
}

func copyDecimalPtr(src *decimal.Decimal) *decimal.Decimal {
	if src == nil {
		return nil
	}
	val := *src
	return &val
}
