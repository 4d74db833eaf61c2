package wallet

import (
	walletdto "github.com/shopora/shopora-backend/api/controllers/wallet/dto"
	walletsvc "github.com/shopora/shopora-backend/internal/wallet"
	"github.com/shopora/shopora-backend/pkg/db/models"
)

func newAccountView(account *models.WalletAccount) walletdto.AccountView {
	return walletdto.AccountView{
		ID:             account.ID,
		UserID:         account.UserID,
		Currency:       account.Currency.String(),
		Balance:        account.Balance,
		IsLocked:       account.IsLocked,
		LastActivityOn: account.LastActivityOn,
		UpdatedAt:      account.Audit.UpdatedAt,
	}
}

func newTransactionView(txn *models.WalletTransaction) walletdto.TransactionView {
	return walletdto.TransactionView{
		ID:                   txn.ID,
		Type:                 txn.Type.String(),
		Status:               txn.Status.String(),
		Amount:               txn.Amount,
		BalanceAfter:         txn.BalanceAfter,
		Reference:            txn.Reference,
		Description:          txn.Description,
		Metadata:             txn.Metadata,
		InvoiceID:            txn.InvoiceID,
		PaymentTransactionID: txn.PaymentTransactionID,
		OccurredAt:           txn.OccurredAt,
	}
}

func newTransactionPage(page *walletsvc.TransactionPage) walletdto.TransactionPage {
	views := make([]walletdto.TransactionView, 0, len(page.Transactions))
	for idx := range page.Transactions {
		views = append(views, newTransactionView(&page.Transactions[idx]))
	}
	return walletdto.TransactionPage{
		Transactions: views,
		NextCursor:   page.NextCursor,
	}
}
