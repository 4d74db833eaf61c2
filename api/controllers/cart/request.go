package cart

import (
	"net/http"

	cartdto "github.com/shopora/shopora-backend/api/controllers/cart/dto"
	"github.com/shopora/shopora-backend/api/middleware"
	"github.com/shopora/shopora-backend/api/validators"
	cartsvc "github.com/shopora/shopora-backend/internal/cart"
	"github.com/shopora/shopora-backend/pkg/enums"
	pkgerrors "github.com/shopora/shopora-backend/pkg/errors"
)

// ownerFromRequest resolves the shopper identity seeded by the CartIdentity
// middleware. The authenticated user wins over the anonymous token.
func ownerFromRequest(r *http.Request) (cartsvc.Owner, error) {
	ctx := r.Context()
	if userID := middleware.UserIDFromContext(ctx); userID != "" {
		return cartsvc.Owner{UserID: &userID}, nil
	}
	if token := middleware.CartTokenFromContext(ctx); token != "" {
		return cartsvc.Owner{AnonymousID: &token}, nil
	}
	return cartsvc.Owner{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
}

func toAddItemInput(payload cartdto.AddItemRequest) (cartsvc.AddItemInput, error) {
	productType, err := enums.ParseProductType(payload.ProductType)
	if err != nil {
		return cartsvc.AddItemInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product type")
	}
	return cartsvc.AddItemInput{
		ProductID:      payload.ProductID,
		VariantID:      payload.VariantID,
		OfferID:        payload.OfferID,
		ProductName:    validators.SanitizeString(payload.ProductName, 255),
		ProductSlug:    validators.SanitizeString(payload.ProductSlug, 255),
		UnitPrice:      payload.UnitPrice,
		CompareAtPrice: payload.CompareAtPrice,
		Thumbnail:      payload.Thumbnail,
		ProductType:    productType,
		Quantity:       payload.Quantity,
	}, nil
}

func toQuantityKey(payload cartdto.SetQuantityRequest) cartsvc.ItemKeyInput {
	return cartsvc.ItemKeyInput{
		ProductID: payload.ProductID,
		VariantID: payload.VariantID,
		OfferID:   payload.OfferID,
	}
}

func toRemovalKey(payload cartdto.RemoveItemRequest) cartsvc.ItemKeyInput {
	return cartsvc.ItemKeyInput{
		ProductID: payload.ProductID,
		VariantID: payload.VariantID,
		OfferID:   payload.OfferID,
	}
}
