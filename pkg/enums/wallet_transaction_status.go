package enums

import "fmt"

// WalletTransactionStatus is the settlement state stamped on a ledger entry
// by the billing workflow. Only succeeded entries move the cached balance.
type WalletTransactionStatus string

const (
	WalletTransactionStatusPending   WalletTransactionStatus = "pending"
	WalletTransactionStatusSucceeded WalletTransactionStatus = "succeeded"
	WalletTransactionStatusFailed    WalletTransactionStatus = "failed"
)

var validWalletTransactionStatuses = []WalletTransactionStatus{
	WalletTransactionStatusPending,
	WalletTransactionStatusSucceeded,
	WalletTransactionStatusFailed,
}

// String implements fmt.Stringer.
func (s WalletTransactionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known WalletTransactionStatus.
func (s WalletTransactionStatus) IsValid() bool {
	for _, candidate := range validWalletTransactionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseWalletTransactionStatus converts raw input into a WalletTransactionStatus.
func ParseWalletTransactionStatus(value string) (WalletTransactionStatus, error) {
	for _, candidate := range validWalletTransactionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet transaction status %q", value)
}
