package loader

import (
	"context"
	"fmt"

	"github.com/thirdweb-dev/offline-replay/internal/common"
	"github.com/thirdweb-dev/offline-replay/internal/dataset"
	"github.com/thirdweb-dev/offline-replay/internal/storage"
)

func blocksFromBatch(b *dataset.Batch) ([]common.Block, error) {
	number, err := b.Int("number")
	if err != nil {
		return nil, err
	}
	hash, err := b.Text("hash")
	if err != nil {
		return nil, err
	}
	parentHash, err := b.Text("parent_hash")
	if err != nil {
		return nil, err
	}
	timestamp, err := b.Int("timestamp")
	if err != nil {
		return nil, err
	}
	gasUsed, err := b.Int("gas_used")
	if err != nil {
		return nil, err
	}
	gasLimit, err := b.Int("gas_limit")
	if err != nil {
		return nil, err
	}
	baseFee, err := b.Text("base_fee")
	if err != nil {
		return nil, err
	}
	txCount, err := b.Int("tx_count")
	if err != nil {
		return nil, err
	}

	blocks := make([]common.Block, b.Len())
	for i := range blocks {
		blocks[i] = common.Block{
			Number:     number.Value(i),
			Hash:       hash.Value(i),
			ParentHash: parentHash.Value(i),
			Timestamp:  timestamp.Value(i),
			GasUsed:    gasUsed.Value(i),
			GasLimit:   gasLimit.Value(i),
			BaseFee:    baseFee.Opt(i),
			TxCount:    txCount.Value(i),
		}
	}
	return blocks, nil
}

func transactionsFromBatch(b *dataset.Batch) ([]common.Transaction, error) {
	hash, err := b.Text("hash")
	if err != nil {
		return nil, err
	}
	blockNumber, err := b.Int("block_number")
	if err != nil {
		return nil, err
	}
	txIndex, err := b.Int("tx_index")
	if err != nil {
		return nil, err
	}
	from, err := b.Text("from_addr")
	if err != nil {
		return nil, err
	}
	to, err := b.Text("to_addr")
	if err != nil {
		return nil, err
	}
	value, err := b.Text("value")
	if err != nil {
		return nil, err
	}
	gasUsed, err := b.Int("gas_used")
	if err != nil {
		return nil, err
	}
	gasPrice, err := b.Text("gas_price")
	if err != nil {
		return nil, err
	}
	input, err := b.Binary("input")
	if err != nil {
		return nil, err
	}
	status, err := b.Int("status")
	if err != nil {
		return nil, err
	}

	txs := make([]common.Transaction, b.Len())
	for i := range txs {
		txs[i] = common.Transaction{
			Hash:             hash.Value(i),
			BlockNumber:      blockNumber.Value(i),
			TransactionIndex: txIndex.Value(i),
			FromAddress:      from.Value(i),
			ToAddress:        to.Opt(i),
			Value:            value.Value(i),
			GasUsed:          gasUsed.Value(i),
			GasPrice:         gasPrice.Value(i),
			Input:            input.Value(i),
			Status:           status.Value(i),
		}
	}
	return txs, nil
}

func logsFromBatch(b *dataset.Batch) ([]common.Log, error) {
	blockNumber, err := b.Int("block_number")
	if err != nil {
		return nil, err
	}
	txHash, err := b.Text("tx_hash")
	if err != nil {
		return nil, err
	}
	logIndex, err := b.Int("log_index")
	if err != nil {
		return nil, err
	}
	address, err := b.Text("address")
	if err != nil {
		return nil, err
	}
	var topics [4]*dataset.TextColumn
	for t, name := range []string{"topic0", "topic1", "topic2", "topic3"} {
		if topics[t], err = b.Text(name); err != nil {
			return nil, err
		}
	}
	data, err := b.Binary("data")
	if err != nil {
		return nil, err
	}

	logs := make([]common.Log, b.Len())
	for i := range logs {
		logs[i] = common.Log{
			BlockNumber:     blockNumber.Value(i),
			TransactionHash: txHash.Value(i),
			LogIndex:        logIndex.Value(i),
			Address:         address.Value(i),
			Topic0:          topics[0].Opt(i),
			Topic1:          topics[1].Opt(i),
			Topic2:          topics[2].Opt(i),
			Topic3:          topics[3].Opt(i),
			Data:            data.Opt(i),
		}
	}
	return logs, nil
}

func tracesFromBatch(b *dataset.Batch) ([]common.Trace, error) {
	blockNumber, err := b.Int("block_number")
	if err != nil {
		return nil, err
	}
	txHash, err := b.Text("tx_hash")
	if err != nil {
		return nil, err
	}
	txIndex, err := b.Int("tx_index")
	if err != nil {
		return nil, err
	}
	traceJSON, err := b.Text("trace_json")
	if err != nil {
		return nil, err
	}

	traces := make([]common.Trace, b.Len())
	for i := range traces {
		traces[i] = common.Trace{
			BlockNumber:      blockNumber.Value(i),
			TransactionHash:  txHash.Value(i),
			TransactionIndex: txIndex.Value(i),
			TraceJSON:        traceJSON.Value(i),
		}
	}
	return traces, nil
}

// insertBatch writes every row of b and returns how many were new.
func insertBatch(ctx context.Context, w storage.ITableWriter, b *dataset.Batch) (int64, error) {
	var inserted int64
	count := func(isNew bool) {
		if isNew {
			inserted++
		}
	}

	switch b.Dataset() {
	case dataset.Blocks:
		rows, err := blocksFromBatch(b)
		if err != nil {
			return 0, err
		}
		for i := range rows {
			isNew, err := w.InsertBlock(ctx, &rows[i])
			if err != nil {
				return inserted, err
			}
			count(isNew)
		}
	case dataset.Transactions:
		rows, err := transactionsFromBatch(b)
		if err != nil {
			return 0, err
		}
		for i := range rows {
			isNew, err := w.InsertTransaction(ctx, &rows[i])
			if err != nil {
				return inserted, err
			}
			count(isNew)
		}
	case dataset.Logs:
		rows, err := logsFromBatch(b)
		if err != nil {
			return 0, err
		}
		for i := range rows {
			isNew, err := w.InsertLog(ctx, &rows[i])
			if err != nil {
				return inserted, err
			}
			count(isNew)
		}
	case dataset.Traces:
		rows, err := tracesFromBatch(b)
		if err != nil {
			return 0, err
		}
		for i := range rows {
			isNew, err := w.InsertTrace(ctx, &rows[i])
			if err != nil {
				return inserted, err
			}
			count(isNew)
		}
	default:
		return 0, fmt.Errorf("no table mapping for dataset %q", b.Dataset())
	}
	return inserted, nil
}
