package common

// Block is one row of the blocks table. BaseFee is a decimal string and is
// nil for pre-London blocks.
type Block struct {
	Number     int64
	Hash       string
	ParentHash string
	Timestamp  int64
	GasUsed    int64
	GasLimit   int64
	BaseFee    *string
	TxCount    int64
}
