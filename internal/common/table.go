package common

type Table string

const (
	TableBlocks       Table = "blocks"
	TableTransactions Table = "transactions"
	TableLogs         Table = "logs"
	TableTraces       Table = "traces"
)

// LoadOrder is the fixed order tables are populated in, referents first.
var LoadOrder = []Table{TableBlocks, TableTransactions, TableLogs, TableTraces}

func (t Table) String() string {
	return string(t)
}
