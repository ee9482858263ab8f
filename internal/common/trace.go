package common

// Trace holds the call tracer output for one transaction, as captured on
// service tiers that expose debug tracing.
type Trace struct {
	BlockNumber      int64
	TransactionHash  string
	TransactionIndex int64
	TraceJSON        string
}
