package wallet

import (
	"net/http"

	"github.com/shopora/shopora-backend/api/middleware"
	"github.com/shopora/shopora-backend/api/responses"
	"github.com/shopora/shopora-backend/api/validators"
	walletsvc "github.com/shopora/shopora-backend/internal/wallet"
	pkgerrors "github.com/shopora/shopora-backend/pkg/errors"
	"github.com/shopora/shopora-backend/pkg/logger"
	"github.com/shopora/shopora-backend/pkg/pagination"
)

// Fetch returns the caller's wallet, creating it on first access.
func Fetch(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		account, err := svc.GetOrCreate(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAccountView(account))
	}
}

// Credit records a deposit entry.
func Credit(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return recordEntry(svc.Credit, logg)
}

// Debit records a withdrawal entry.
func Debit(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return recordEntry(svc.Debit, logg)
}

// Lock freezes the wallet; no entries are accepted until unlocked.
func Lock(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return setLocked(svc.Lock, logg)
}

// Unlock releases a frozen wallet.
func Unlock(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return setLocked(svc.Unlock, logg)
}

// ListTransactions pages through the ledger, newest first.
func ListTransactions(svc walletsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Zero means "not requested"; the service applies its configured page size.
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}

		page, err := svc.ListTransactions(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newTransactionPage(page))
	}
}

func callerID(r *http.Request) (string, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return userID, nil
}
