package enums

// TransactionStatus marks the state of a ledger transaction.
type TransactionStatus string

const (
	TransactionStatusPaid   TransactionStatus = "PAID"
	TransactionStatusFailed TransactionStatus = "FAILED"
)

func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPaid, TransactionStatusFailed:
		return true
	default:
		return false
	}
}
