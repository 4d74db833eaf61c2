package types

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopora/shopora-backend/pkg/enums"
)

// DiscountSnapshot is the frozen result of evaluating a discount code against
// a specific subtotal at a specific time. It is stored on the cart
// all-or-nothing: either the whole snapshot is present or none of it.
type DiscountSnapshot struct {
	Code        string             `json:"code"`
	Kind        enums.DiscountKind `json:"kind"`
	Value       decimal.Decimal    `json:"value"`
	Amount      decimal.Decimal    `json:"amount"`
	Capped      bool               `json:"capped"`
	EvaluatedAt time.Time          `json:"evaluated_at"`
	Subtotal    decimal.Decimal    `json:"subtotal"`
}

// Clone returns a copy safe to store independently of the source.
func (d DiscountSnapshot) Clone() DiscountSnapshot {
	return d
}
