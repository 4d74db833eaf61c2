package wallet

import (
	"context"
	"net/http"

	walletdto "github.com/shopora/shopora-backend/api/controllers/wallet/dto"
	"github.com/shopora/shopora-backend/api/responses"
	"github.com/shopora/shopora-backend/api/validators"
	"github.com/shopora/shopora-backend/pkg/db/models"
	"github.com/shopora/shopora-backend/pkg/enums"
	pkgerrors "github.com/shopora/shopora-backend/pkg/errors"
	"github.com/shopora/shopora-backend/pkg/logger"
)

type recordFunc func(ctx context.Context, userID string, input models.WalletEntryInput) (*models.WalletTransaction, error)

type lockFunc func(ctx context.Context, userID string) (*models.WalletAccount, error)

func recordEntry(record recordFunc, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload walletdto.EntryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := toEntryInput(payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := record(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newTransactionView(txn))
	}
}

func setLocked(apply lockFunc, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := apply(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAccountView(account))
	}
}

// toEntryInput maps the request onto the aggregate input. Status defaults to
// succeeded; billing flows that settle asynchronously pass pending explicitly.
func toEntryInput(payload walletdto.EntryRequest) (models.WalletEntryInput, error) {
	status := enums.WalletTransactionStatusSucceeded
	if payload.Status != "" {
		parsed, err := enums.ParseWalletTransactionStatus(payload.Status)
		if err != nil {
			return models.WalletEntryInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction status")
		}
		status = parsed
	}
	description := payload.Description
	if description != nil {
		clean := validators.SanitizeString(*description, 512)
		description = &clean
	}
	return models.WalletEntryInput{
		Amount:               payload.Amount,
		Reference:            payload.Reference,
		Description:          description,
		Metadata:             payload.Metadata,
		InvoiceID:            payload.InvoiceID,
		PaymentTransactionID: payload.PaymentTransactionID,
		Status:               status,
	}, nil
}
