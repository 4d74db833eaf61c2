package discountdto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PreviewRequest evaluates a code against a prospective subtotal without
// touching any cart.
type PreviewRequest struct {
	Code     string          `json:"code" validate:"required,max=64"`
	Subtotal decimal.Decimal `json:"subtotal" validate:"required"`
}

// PreviewResponse is the frozen evaluation result.
type PreviewResponse struct {
	Code        string          `json:"code"`
	Kind        string          `json:"kind"`
	Value       decimal.Decimal `json:"value"`
	Amount      decimal.Decimal `json:"amount"`
	Capped      bool            `json:"capped"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	EvaluatedAt time.Time       `json:"evaluated_at"`
}
