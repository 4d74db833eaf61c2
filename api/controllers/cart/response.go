package cart

import (
	cartdto "github.com/shopora/shopora-backend/api/controllers/cart/dto"
	"github.com/shopora/shopora-backend/pkg/db/models"
)

func newCartView(record *models.ShoppingCart) cartdto.CartView {
	items := make([]cartdto.CartItemView, 0, len(record.Items))
	for _, item := range record.Items {
		items = append(items, cartdto.CartItemView{
			ID:             item.ID,
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			OfferID:        item.OfferID,
			ProductName:    item.ProductName,
			ProductSlug:    item.ProductSlug,
			UnitPrice:      item.UnitPrice,
			CompareAtPrice: item.CompareAtPrice,
			Thumbnail:      item.Thumbnail,
			ProductType:    item.ProductType.String(),
			Quantity:       item.Quantity,
			LineTotal:      item.LineTotal(),
		})
	}

	var discount *cartdto.DiscountView
	if record.Discount != nil {
		discount = &cartdto.DiscountView{
			Code:        record.Discount.Code,
			Kind:        record.Discount.Kind.String(),
			Value:       record.Discount.Value,
			Amount:      record.Discount.Amount,
			Capped:      record.Discount.Capped,
			EvaluatedAt: record.Discount.EvaluatedAt,
		}
	}

	return cartdto.CartView{
		ID:            record.ID,
		UserID:        record.UserID,
		AnonymousID:   record.AnonymousID,
		Currency:      record.Currency.String(),
		Items:         items,
		Discount:      discount,
		Subtotal:      record.Subtotal(),
		DiscountTotal: record.DiscountTotal(),
		GrandTotal:    record.GrandTotal(),
		UpdatedAt:     record.Audit.UpdatedAt,
	}
}
