package dataset

import (
	"fmt"

	"github.com/thirdweb-dev/offline-replay/internal/common"
)

// MappingVersion identifies the column classification below. Producers and
// the loader must agree on it; bump it whenever a field changes class.
const MappingVersion = 1

// Class is the semantic type of a column.
type Class int

const (
	ClassInteger Class = iota
	ClassText
	ClassBinary
)

func (c Class) String() string {
	switch c {
	case ClassInteger:
		return "integer"
	case ClassText:
		return "text"
	case ClassBinary:
		return "binary"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Name identifies one of the columnar datasets of a snapshot.
type Name string

const (
	Blocks       Name = "blocks"
	Transactions Name = "transactions"
	Logs         Name = "logs"
	Traces       Name = "traces"
)

// FileName is the file the producer writes the dataset to.
func (n Name) FileName() string {
	return string(n) + ".parquet"
}

// Table is the output table populated from the dataset.
func (n Name) Table() common.Table {
	return common.Table(n)
}

// Field is one expected column of a dataset.
type Field struct {
	Name  string
	Class Class
}

// Spec describes a dataset: its expected columns and whether a snapshot must
// carry it.
type Spec struct {
	Name     Name
	Required bool
	Fields   []Field
}

var (
	BlocksSpec = Spec{
		Name:     Blocks,
		Required: true,
		Fields: []Field{
			{"number", ClassInteger},
			{"hash", ClassText},
			{"parent_hash", ClassText},
			{"timestamp", ClassInteger},
			{"gas_used", ClassInteger},
			{"gas_limit", ClassInteger},
			{"base_fee", ClassText},
			{"tx_count", ClassInteger},
		},
	}

	TransactionsSpec = Spec{
		Name:     Transactions,
		Required: true,
		Fields: []Field{
			{"hash", ClassText},
			{"block_number", ClassInteger},
			{"tx_index", ClassInteger},
			{"from_addr", ClassText},
			{"to_addr", ClassText},
			{"value", ClassText},
			{"gas_used", ClassInteger},
			{"gas_price", ClassText},
			{"input", ClassBinary},
			{"status", ClassInteger},
		},
	}

	LogsSpec = Spec{
		Name:     Logs,
		Required: true,
		Fields: []Field{
			{"block_number", ClassInteger},
			{"tx_hash", ClassText},
			{"log_index", ClassInteger},
			{"address", ClassText},
			{"topic0", ClassText},
			{"topic1", ClassText},
			{"topic2", ClassText},
			{"topic3", ClassText},
			{"data", ClassBinary},
		},
	}

	// Traces only exist when the capture ran against a tier exposing
	// debug_traceBlockByNumber. The producer's id column is not loaded.
	TracesSpec = Spec{
		Name:     Traces,
		Required: false,
		Fields: []Field{
			{"block_number", ClassInteger},
			{"tx_hash", ClassText},
			{"tx_index", ClassInteger},
			{"trace_json", ClassText},
		},
	}
)

// Specs lists every dataset in load order.
var Specs = []Spec{BlocksSpec, TransactionsSpec, LogsSpec, TracesSpec}

func SpecFor(name Name) (Spec, bool) {
	for _, s := range Specs {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}
