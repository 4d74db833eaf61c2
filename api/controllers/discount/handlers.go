package discount

import (
	"net/http"
	"time"

	discountdto "github.com/shopora/shopora-backend/api/controllers/discount/dto"
	"github.com/shopora/shopora-backend/api/middleware"
	"github.com/shopora/shopora-backend/api/responses"
	"github.com/shopora/shopora-backend/api/validators"
	discountsvc "github.com/shopora/shopora-backend/internal/discount"
	"github.com/shopora/shopora-backend/pkg/logger"
	"github.com/shopora/shopora-backend/pkg/types"
)

// Preview evaluates a discount code against a prospective subtotal. The
// authenticated user id, when present, is passed as the audience key so
// per-audience exhaustion surfaces before checkout.
func Preview(svc discountsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload discountdto.PreviewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var audienceKey *string
		if userID := middleware.UserIDFromContext(r.Context()); userID != "" {
			audienceKey = &userID
		}

		snapshot, err := svc.Preview(r.Context(), payload.Code, payload.Subtotal, time.Now().UTC(), audienceKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPreviewResponse(snapshot))
	}
}

func newPreviewResponse(snapshot types.DiscountSnapshot) discountdto.PreviewResponse {
	return discountdto.PreviewResponse{
		Code:        snapshot.Code,
		Kind:        snapshot.Kind.String(),
		Value:       snapshot.Value,
		Amount:      snapshot.Amount,
		Capped:      snapshot.Capped,
		Subtotal:    snapshot.Subtotal,
		EvaluatedAt: snapshot.EvaluatedAt,
	}
}
