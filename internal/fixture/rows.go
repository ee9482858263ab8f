package fixture

// Row types mirror the producer's column schema: decimal strings for values
// beyond 64 bits, byte payloads as binary, everything else int64.

type BlockRow struct {
	Number     int64   `parquet:"number"`
	Hash       string  `parquet:"hash"`
	ParentHash string  `parquet:"parent_hash"`
	Timestamp  int64   `parquet:"timestamp"`
	GasUsed    int64   `parquet:"gas_used"`
	GasLimit   int64   `parquet:"gas_limit"`
	BaseFee    *string `parquet:"base_fee,optional"`
	TxCount    int64   `parquet:"tx_count"`
}

type TransactionRow struct {
	Hash        string  `parquet:"hash"`
	BlockNumber int64   `parquet:"block_number"`
	TxIndex     int64   `parquet:"tx_index"`
	FromAddr    string  `parquet:"from_addr"`
	ToAddr      *string `parquet:"to_addr,optional"`
	Value       string  `parquet:"value"`
	GasUsed     int64   `parquet:"gas_used"`
	GasPrice    string  `parquet:"gas_price"`
	Input       []byte  `parquet:"input"`
	Status      int64   `parquet:"status"`
}

// LogRow is written through LogsSchema by WriteLogs.
type LogRow struct {
	ID          int64   `parquet:"id"`
	BlockNumber int64   `parquet:"block_number"`
	TxHash      string  `parquet:"tx_hash"`
	LogIndex    int64   `parquet:"log_index"`
	Address     string  `parquet:"address"`
	Topic0      *string `parquet:"topic0,optional"`
	Topic1      *string `parquet:"topic1,optional"`
	Topic2      *string `parquet:"topic2,optional"`
	Topic3      *string `parquet:"topic3,optional"`
	Data        []byte  `parquet:"data,optional"`
}

type TraceRow struct {
	ID          int64  `parquet:"id"`
	BlockNumber int64  `parquet:"block_number"`
	TxHash      string `parquet:"tx_hash"`
	TxIndex     int64  `parquet:"tx_index"`
	TraceJSON   string `parquet:"trace_json"`
}

// Dataset is the content of one snapshot directory. Traces are only written
// when non-empty, like a capture without debug tracing.
type Dataset struct {
	Blocks       []BlockRow
	Transactions []TransactionRow
	Logs         []LogRow
	Traces       []TraceRow
}

func Ptr[T any](v T) *T {
	return &v
}
