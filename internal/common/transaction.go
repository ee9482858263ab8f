package common

// Transaction is one row of the transactions table. Value and GasPrice hold
// full-precision decimal strings; ToAddress is nil for contract creations.
type Transaction struct {
	Hash             string
	BlockNumber      int64
	TransactionIndex int64
	FromAddress      string
	ToAddress        *string
	Value            string
	GasUsed          int64
	GasPrice         string
	Input            []byte
	Status           int64
}
