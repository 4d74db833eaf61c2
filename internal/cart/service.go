package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/shopora/shopora-backend/pkg/db/models"
	"github.com/shopora/shopora-backend/pkg/enums"
	pkgerrors "github.com/shopora/shopora-backend/pkg/errors"
	"github.com/shopora/shopora-backend/pkg/metrics"
	"github.com/shopora/shopora-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type discountGate interface {
	Preview(ctx context.Context, code string, subtotal decimal.Decimal, evaluatedAt time.Time, audienceKey *string) (types.DiscountSnapshot, error)
}

// Owner identifies the cart to operate on: an authenticated user id, an
// anonymous token, or both during the login transition. The user identity
// wins when both are present.
type Owner struct {
	UserID      *string
	AnonymousID *string
}

func (o Owner) validate() error {
	if o.UserID == nil && o.AnonymousID == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart owner identity is required")
	}
	return nil
}

// AddItemInput is the product snapshot plus quantity for an add operation.
type AddItemInput struct {
	ProductID      uuid.UUID
	VariantID      *uuid.UUID
	OfferID        *uuid.UUID
	ProductName    string
	ProductSlug    string
	UnitPrice      decimal.Decimal
	CompareAtPrice *decimal.Decimal
	Thumbnail      *string
	ProductType    enums.ProductType
	Quantity       int
}

// ItemKeyInput identifies a line by its merge key. Variant/offer are optional
// filters for removal and exact-key parts for quantity updates.
type ItemKeyInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	OfferID   *uuid.UUID
}

// Service exposes the cart workflows the controllers call into. All item and
// discount invariants live in the aggregate; this layer resolves identity,
// runs the persistence transaction, and deletes carts emptied by a removal.
type Service interface {
	Get(ctx context.Context, owner Owner) (*models.ShoppingCart, error)
	AddItem(ctx context.Context, owner Owner, input AddItemInput) (*models.ShoppingCart, error)
	SetItemQuantity(ctx context.Context, owner Owner, key ItemKeyInput, quantity int) (*models.ShoppingCart, error)
	RemoveItem(ctx context.Context, owner Owner, key ItemKeyInput) (*models.ShoppingCart, bool, error)
	ClearItems(ctx context.Context, owner Owner) (*models.ShoppingCart, error)
	ApplyDiscount(ctx context.Context, owner Owner, code string) (*models.ShoppingCart, error)
	ClearDiscount(ctx context.Context, owner Owner) (*models.ShoppingCart, error)
	MergeOnLogin(ctx context.Context, anonymousID, userID string) (*models.ShoppingCart, error)
}

// defaultMaxQuantity caps a single line when no limit is configured.
const defaultMaxQuantity = 999

type service struct {
	repo      CartRepository
	tx        txRunner
	discounts discountGate
	currency  enums.Currency
	maxQty    int
	domain    *metrics.DomainMetrics
	now       func() time.Time
}

// ServiceParams bundles the cart service dependencies.
type ServiceParams struct {
	Repo      CartRepository
	Tx        txRunner
	Discounts discountGate
	Currency  enums.Currency
	// MaxQuantity caps the quantity of any single cart line.
	MaxQuantity int
	Metrics     *metrics.DomainMetrics
	Now         func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Discounts == nil {
		return nil, fmt.Errorf("discount gate required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	if !params.Currency.IsValid() {
		params.Currency = enums.CurrencyUSD
	}
	if params.MaxQuantity <= 0 {
		params.MaxQuantity = defaultMaxQuantity
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		discounts: params.Discounts,
		currency:  params.Currency,
		maxQty:    params.MaxQuantity,
		domain:    params.Metrics,
		now:       params.Now,
	}, nil
}

// Get resolves the owner's cart, self-healing a stale discount snapshot
// before the caller reads any totals.
func (s *service) Get(ctx context.Context, owner Owner) (*models.ShoppingCart, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}

	var cart *models.ShoppingCart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := s.resolve(ctx, repo, owner)
		if err != nil {
			return err
		}
		if loaded.EnsureDiscountMatchesSubtotal() {
			if _, err := repo.Save(ctx, loaded); err != nil {
				return err
			}
		}
		cart = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *service) AddItem(ctx context.Context, owner Owner, input AddItemInput) (*models.ShoppingCart, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	if err := s.validateAddItemInput(input); err != nil {
		return nil, err
	}

	var cart *models.ShoppingCart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, created, err := s.resolveOrCreate(ctx, repo, owner)
		if err != nil {
			return err
		}
		if err := loaded.AddItem(snapshotFromInput(input), input.Quantity, s.now()); err != nil {
			return err
		}
		if created {
			cart, err = repo.Create(ctx, loaded)
		} else {
			cart, err = repo.Save(ctx, loaded)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	s.domain.IncCartOperation("add_item")
	return cart, nil
}

func (s *service) SetItemQuantity(ctx context.Context, owner Owner, key ItemKeyInput, quantity int) (*models.ShoppingCart, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	if quantity > s.maxQty {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity cannot exceed %d", s.maxQty))
	}

	var cart *models.ShoppingCart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := s.resolve(ctx, repo, owner)
		if err != nil {
			return err
		}
		if err := loaded.SetItemQuantity(key.ProductID, key.VariantID, key.OfferID, quantity, s.now()); err != nil {
			return err
		}
		cart, err = repo.Save(ctx, loaded)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.domain.IncCartOperation("set_quantity")
	return cart, nil
}

// RemoveItem drops matching lines. A cart emptied by the removal is deleted
// rather than persisted; the returned cart is nil in that case.
func (s *service) RemoveItem(ctx context.Context, owner Owner, key ItemKeyInput) (*models.ShoppingCart, bool, error) {
	if err := owner.validate(); err != nil {
		return nil, false, err
	}

	var (
		cart    *models.ShoppingCart
		removed bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := s.resolve(ctx, repo, owner)
		if err != nil {
			return err
		}
		removed, err = loaded.RemoveItem(key.ProductID, key.VariantID, key.OfferID, s.now())
		if err != nil {
			return err
		}
		if removed && loaded.IsEmpty() {
			return repo.Delete(ctx, loaded.ID)
		}
		if removed {
			cart, err = repo.Save(ctx, loaded)
			return err
		}
		cart = loaded
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if removed {
		s.domain.IncCartOperation("remove_item")
	}
	return cart, removed, nil
}

func (s *service) ClearItems(ctx context.Context, owner Owner) (*models.ShoppingCart, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}

	var cart *models.ShoppingCart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := s.resolve(ctx, repo, owner)
		if err != nil {
			return err
		}
		loaded.ClearItems(s.now())
		cart, err = repo.Save(ctx, loaded)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.domain.IncCartOperation("clear_items")
	return cart, nil
}

// ApplyDiscount runs the consolidated discount gate against the live
// subtotal and stores the resulting snapshot on the cart. The authenticated
// user id doubles as the audience key for per-audience limits.
func (s *service) ApplyDiscount(ctx context.Context, owner Owner, code string) (*models.ShoppingCart, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount code is required")
	}

	var cart *models.ShoppingCart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := s.resolve(ctx, repo, owner)
		if err != nil {
			return err
		}
		if loaded.IsEmpty() {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount requires a non-empty cart")
		}

		now := s.now()
		snapshot, err := s.discounts.Preview(ctx, code, loaded.Subtotal(), now, owner.UserID)
		if err != nil {
			return err
		}
		if err := loaded.ApplyDiscount(snapshot, now); err != nil {
			return err
		}
		cart, err = repo.Save(ctx, loaded)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.domain.IncCartOperation("apply_discount")
	return cart, nil
}

func (s *service) ClearDiscount(ctx context.Context, owner Owner) (*models.ShoppingCart, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}

	var cart *models.ShoppingCart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := s.resolve(ctx, repo, owner)
		if err != nil {
			return err
		}
		if loaded.ClearDiscount(s.now()) {
			cart, err = repo.Save(ctx, loaded)
			return err
		}
		cart = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.domain.IncCartOperation("clear_discount")
	return cart, nil
}

// MergeOnLogin folds an anonymous cart into the user's cart. When the user
// has no cart yet the anonymous cart is reassigned instead of copied. The
// merged cart always loses its discount: a code may have been issued to one
// identity and must not silently transfer to another.
func (s *service) MergeOnLogin(ctx context.Context, anonymousID, userID string) (*models.ShoppingCart, error) {
	if strings.TrimSpace(anonymousID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "anonymous id is required")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	var cart *models.ShoppingCart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		anonCart, err := repo.FindByAnonymousID(ctx, anonymousID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load anonymous cart")
		}

		userCart, err := repo.FindByUserID(ctx, userID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user cart")
		}

		now := s.now()
		switch {
		case anonCart == nil && userCart == nil:
			return pkgerrors.New(pkgerrors.CodeNotFound, "no cart to merge")
		case anonCart == nil:
			cart = userCart
			return nil
		case userCart == nil:
			if err := anonCart.AssignToUser(userID, now); err != nil {
				return err
			}
			anonCart.ClearDiscount(now)
			cart, err = repo.Save(ctx, anonCart)
			return err
		default:
			if err := userCart.MergeFrom(anonCart, now); err != nil {
				return err
			}
			userCart.ClearDiscount(now)
			if cart, err = repo.Save(ctx, userCart); err != nil {
				return err
			}
			return repo.Delete(ctx, anonCart.ID)
		}
	})
	if err != nil {
		return nil, err
	}
	s.domain.IncCartOperation("merge")
	return cart, nil
}

func (s *service) resolve(ctx context.Context, repo CartRepository, owner Owner) (*models.ShoppingCart, error) {
	cart, err := s.lookup(ctx, repo, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) resolveOrCreate(ctx context.Context, repo CartRepository, owner Owner) (*models.ShoppingCart, bool, error) {
	cart, err := s.lookup(ctx, repo, owner)
	if err == nil {
		return cart, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	now := s.now()
	if owner.UserID != nil {
		cart, err = models.NewUserCart(*owner.UserID, s.currency, now)
	} else {
		cart, err = models.NewAnonymousCart(*owner.AnonymousID, s.currency, now)
	}
	if err != nil {
		return nil, false, err
	}
	return cart, true, nil
}

func (s *service) lookup(ctx context.Context, repo CartRepository, owner Owner) (*models.ShoppingCart, error) {
	if owner.UserID != nil {
		return repo.FindByUserID(ctx, *owner.UserID)
	}
	return repo.FindByAnonymousID(ctx, *owner.AnonymousID)
}

func (s *service) validateAddItemInput(input AddItemInput) error {
	var errs error
	if input.ProductID == uuid.Nil {
		errs = multierr.Append(errs, errors.New("product id is required"))
	}
	if strings.TrimSpace(input.ProductName) == "" {
		errs = multierr.Append(errs, errors.New("product name is required"))
	}
	if input.UnitPrice.IsNegative() {
		errs = multierr.Append(errs, errors.New("unit price cannot be negative"))
	}
	if !input.ProductType.IsValid() {
		errs = multierr.Append(errs, errors.New("invalid product type"))
	}
	if input.Quantity <= 0 {
		errs = multierr.Append(errs, errors.New("quantity must be positive"))
	} else if input.Quantity > s.maxQty {
		errs = multierr.Append(errs, fmt.Errorf("quantity cannot exceed %d", s.maxQty))
	}
	if errs == nil {
		return nil
	}

	details := make([]string, 0)
	for _, e := range multierr.Errors(errs) {
		details = append(details, e.Error())
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid cart item").WithDetails(details)
}

func snapshotFromInput(input AddItemInput) models.CartItemSnapshot {
	return models.CartItemSnapshot{
		ProductID:      input.ProductID,
		VariantID:      input.VariantID,
		OfferID:        input.OfferID,
		ProductName:    input.ProductName,
		ProductSlug:    input.ProductSlug,
		UnitPrice:      input.UnitPrice,
		CompareAtPrice: input.CompareAtPrice,
		Thumbnail:      input.Thumbnail,
		ProductType:    input.ProductType,
	}
}
