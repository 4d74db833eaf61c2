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

// ShoppingCart is the aggregate root for a buyer's open cart. Exactly one of
// AnonymousID/UserID is set at all times. The applied discount snapshot is
// only valid for the subtotal it was evaluated against; every item mutation
// clears it so a stale discount can never be observed.
type ShoppingCart struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AnonymousID *string                 `gorm:"column:anonymous_id;type:text;uniqueIndex" json:"anonymous_id,omitempty"`
	UserID      *string                 `gorm:"column:user_id;type:text;uniqueIndex" json:"user_id,omitempty"`
	Currency    enums.Currency          `gorm:"column:currency;type:text;not null;default:'USD'" json:"currency"`
	Discount    *types.DiscountSnapshot `gorm:"column:discount;type:jsonb;serializer:json" json:"discount,omitempty"`
	Items       []ShoppingCartItem      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	Audit       types.AuditStamp        `gorm:"embedded" json:"audit"`
}

// TableName sets the explicit table name.
func (ShoppingCart) TableName() string {
	return "shopping_carts"
}

// CartItemSnapshot is the product data frozen onto a line at add time.
type CartItemSnapshot struct {
	ProductID      uuid.UUID
	VariantID      *uuid.UUID
	OfferID        *uuid.UUID
	ProductName    string
	ProductSlug    string
	UnitPrice      decimal.Decimal
	CompareAtPrice *decimal.Decimal
	Thumbnail      *string
	ProductType    enums.ProductType
}

// NewAnonymousCart creates a cart owned by a client-issued anonymous token.
func NewAnonymousCart(anonymousID string, currency enums.Currency, now time.Time) (*ShoppingCart, error) {
	trimmed := strings.TrimSpace(anonymousID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "anonymous id is required")
	}
	cart := newCart(currency, now)
	cart.AnonymousID = &trimmed
	return cart, nil
}

// NewUserCart creates a cart owned by an authenticated user.
func NewUserCart(userID string, currency enums.Currency, now time.Time) (*ShoppingCart, error) {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cart := newCart(currency, now)
	cart.UserID = &trimmed
	return cart, nil
}

func newCart(currency enums.Currency, now time.Time) *ShoppingCart {
	if !currency.IsValid() {
		currency = enums.CurrencyUSD
	}
	return &ShoppingCart{
		Currency: currency,
		Audit:    types.NewAuditStamp(nil, now),
	}
}

// IsEmpty reports whether the cart holds no lines.
func (c *ShoppingCart) IsEmpty() bool {
	return len(c.Items) == 0
}

// HasDiscount reports whether a discount snapshot is applied.
func (c *ShoppingCart) HasDiscount() bool {
	return c.Discount != nil
}

// Subtotal is the rounded sum of line totals. Always recomputed, never stored.
func (c *ShoppingCart) Subtotal() decimal.Decimal {
	sum := money.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.LineTotal())
	}
	return money.Round(sum)
}

// DiscountTotal is the rounded applied discount amount, zero when none.
func (c *ShoppingCart) DiscountTotal() decimal.Decimal {
	if c.Discount == nil {
		return money.Zero
	}
	return money.Round(c.Discount.Amount)
}

// GrandTotal is max(0, Subtotal - DiscountTotal), rounded.
func (c *ShoppingCart) GrandTotal() decimal.Decimal {
	return money.Round(money.ClampNonNegative(c.Subtotal().Sub(c.DiscountTotal())))
}

// AddItem merges the snapshot into the cart. A line with the same
// (product, variant, offer) key gets its snapshot refreshed and its quantity
// incremented; otherwise a new line is appended. Any successful add clears
// the discount snapshot.
func (c *ShoppingCart) AddItem(snapshot CartItemSnapshot, quantity int, at time.Time) error {
	if err := validateSnapshot(snapshot); err != nil {
		return err
	}
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	for idx := range c.Items {
		if c.Items[idx].matchesKey(snapshot.ProductID, snapshot.VariantID, snapshot.OfferID) {
			merged := buildLine(c.ID, snapshot, c.Items[idx].Quantity+quantity, c.Items[idx].CreatedAt)
			merged.ID = c.Items[idx].ID
			c.Items[idx] = merged
			c.invalidateDiscount()
			c.Audit.Touch(nil, at)
			return nil
		}
	}

	c.Items = append(c.Items, buildLine(c.ID, snapshot, quantity, at))
	c.invalidateDiscount()
	c.Audit.Touch(nil, at)
	return nil
}

// SetItemQuantity replaces the quantity of the line with the exact merge key.
func (c *ShoppingCart) SetItemQuantity(productID uuid.UUID, variantID, offerID *uuid.UUID, quantity int, at time.Time) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	for idx := range c.Items {
		if c.Items[idx].matchesKey(productID, variantID, offerID) {
			c.Items[idx].Quantity = quantity
			c.invalidateDiscount()
			c.Audit.Touch(nil, at)
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
}

// RemoveItem drops every line matching the key. Nil variant/offer act as
// wildcards. Reports whether anything was removed; the discount and the
// modification timestamp only change when something was.
func (c *ShoppingCart) RemoveItem(productID uuid.UUID, variantID, offerID *uuid.UUID, at time.Time) (bool, error) {
	if productID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	kept := c.Items[:0]
	removed := false
	for _, item := range c.Items {
		if item.matchesFilter(productID, variantID, offerID) {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	c.Items = kept

	if removed {
		c.invalidateDiscount()
		c.Audit.Touch(nil, at)
	}
	return removed, nil
}

// ClearItems empties the cart. No-op when already empty.
func (c *ShoppingCart) ClearItems(at time.Time) {
	if c.IsEmpty() {
		return
	}
	c.Items = nil
	c.invalidateDiscount()
	c.Audit.Touch(nil, at)
}

// ApplyDiscount stores a discount snapshot evaluated against the current
// subtotal. Usage-limit checks are the caller's responsibility; the cart has
// no visibility into redemption state.
func (c *ShoppingCart) ApplyDiscount(snapshot types.DiscountSnapshot, at time.Time) error {
	subtotal := c.Subtotal()
	if !subtotal.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount requires a non-empty cart")
	}
	if !snapshot.Subtotal.Equal(subtotal) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "discount was evaluated against a stale subtotal")
	}
	stored := snapshot.Clone()
	c.Discount = &stored
	c.Audit.Touch(nil, at)
	return nil
}

// ClearDiscount drops the snapshot. Reports whether one was present.
func (c *ShoppingCart) ClearDiscount(at time.Time) bool {
	if c.Discount == nil {
		return false
	}
	c.Discount = nil
	c.Audit.Touch(nil, at)
	return true
}

// MergeFrom folds every line of the source cart into this one using AddItem
// semantics, summing quantities on key collisions. The caller reassigns
// identity and clears discounts afterwards; merging already invalidates this
// cart's snapshot through AddItem.
func (c *ShoppingCart) MergeFrom(source *ShoppingCart, at time.Time) error {
	if source == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "source cart is required")
	}
	for _, item := range source.Items {
		if err := c.AddItem(item.snapshot(), item.Quantity, at); err != nil {
			return err
		}
	}
	return nil
}

// AssignToUser flips ownership to the given user. Does not clear the
// discount; a post-login merge must do that explicitly since the code may
// have been issued to a different identity.
func (c *ShoppingCart) AssignToUser(userID string, at time.Time) error {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	c.UserID = &trimmed
	c.AnonymousID = nil
	c.Audit.Touch(nil, at)
	return nil
}

// AssignAnonymousID flips ownership to the given anonymous token.
func (c *ShoppingCart) AssignAnonymousID(anonymousID string, at time.Time) error {
	trimmed := strings.TrimSpace(anonymousID)
	if trimmed == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "anonymous id is required")
	}
	c.AnonymousID = &trimmed
	c.UserID = nil
	c.Audit.Touch(nil, at)
	return nil
}

// EnsureDiscountMatchesSubtotal is the idempotent self-healing check: a
// snapshot whose recorded subtotal no longer equals the live subtotal is
// cleared. Readers call this before trusting DiscountTotal/GrandTotal.
func (c *ShoppingCart) EnsureDiscountMatchesSubtotal() bool {
	if c.Discount == nil {
		return false
	}
	if c.Discount.Subtotal.Equal(c.Subtotal()) {
		return false
	}
	c.Discount = nil
	return true
}

func (c *ShoppingCart) invalidateDiscount() {
	c.Discount = nil
}

func validateSnapshot(snapshot CartItemSnapshot) error {
	if snapshot.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if strings.TrimSpace(snapshot.ProductName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if snapshot.UnitPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}
	if !snapshot.ProductType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product type")
	}
	return nil
}

func buildLine(cartID uuid.UUID, snapshot CartItemSnapshot, quantity int, createdAt time.Time) ShoppingCartItem {
	return ShoppingCartItem{
		CartID:         cartID,
		ProductID:      snapshot.ProductID,
		VariantID:      copyUUIDPtr(snapshot.VariantID),
		OfferID:        copyUUIDPtr(snapshot.OfferID),
		ProductName:    snapshot.ProductName,
		ProductSlug:    snapshot.ProductSlug,
		UnitPrice:      money.Round(snapshot.UnitPrice),
		CompareAtPrice: roundDecimalPtr(snapshot.CompareAtPrice),
		Thumbnail:      copyStringPtr(snapshot.Thumbnail),
		ProductType:    snapshot.ProductType,
		Quantity:       quantity,
		CreatedAt:      createdAt,
	}
}

func roundDecimalPtr(src *decimal.Decimal) *decimal.Decimal {
	if src == nil {
		return nil
	}
	val := money.Round(*src)
	return &val
}
