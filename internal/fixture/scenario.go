package fixture

import (
	"encoding/json"
	"fmt"
	"strings"

	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

var (
	TransferTopic             = eventTopic("Transfer(address,address,uint256)")
	ApprovalTopic             = eventTopic("Approval(address,address,uint256)")
	OwnershipTransferredTopic = eventTopic("OwnershipTransferred(address,address)")
	InitializedTopic          = eventTopic("Initialized(uint8)")
)

// LargeValue does not fit in 64 bits and must survive loading as exact text.
const LargeValue = "1000000000000000000000000"

// MaxUint256 is the widest value a transaction or event can carry.
const MaxUint256 = "115792089237316195423570985008687907853269984665640564039457584007913129639935"

func eventTopic(signature string) string {
	return crypto.Keccak256Hash([]byte(signature)).Hex()
}

func BlockHash(number int64) string {
	return crypto.Keccak256Hash([]byte(fmt.Sprintf("block-%d", number))).Hex()
}

func TxHash(blockNumber, txIndex int64) string {
	return crypto.Keccak256Hash([]byte(fmt.Sprintf("tx-%d-%d", blockNumber, txIndex))).Hex()
}

// Address derives a deterministic lower-case address from a label.
func Address(label string) string {
	addr := gethCommon.BytesToAddress(crypto.Keccak256([]byte(label))[12:])
	return strings.ToLower(addr.Hex())
}

func addressTopic(addr string) string {
	return gethCommon.BytesToHash(gethCommon.HexToAddress(addr).Bytes()).Hex()
}

func word(decimal string) []byte {
	v := uint256.MustFromDecimal(decimal)
	b := v.Bytes32()
	return b[:]
}

// Scenario is three blocks (100, 101, 102), one transaction in each of the
// first two and two logs per transaction. Block 102 is empty. The second
// transaction creates a contract, so its to_addr is null, and its logs use
// fewer than four topics.
func Scenario() Dataset {
	attacker := Address("attacker")
	victim := Address("victim")
	token := Address("token")
	created := Address("created-contract")

	blocks := make([]BlockRow, 0, 3)
	for i, n := range []int64{100, 101, 102} {
		txCount := int64(1)
		if n == 102 {
			txCount = 0
		}
		var baseFee *string
		if n != 100 {
			baseFee = Ptr(fmt.Sprintf("%d", 25_000_000_000+int64(i)))
		}
		blocks = append(blocks, BlockRow{
			Number:     n,
			Hash:       BlockHash(n),
			ParentHash: BlockHash(n - 1),
			Timestamp:  1678968000 + int64(i)*12,
			GasUsed:    21_000 * txCount,
			GasLimit:   30_000_000,
			BaseFee:    baseFee,
			TxCount:    txCount,
		})
	}

	txA := TxHash(100, 0)
	txB := TxHash(101, 0)
	transactions := []TransactionRow{
		{
			Hash:        txA,
			BlockNumber: 100,
			TxIndex:     0,
			FromAddr:    attacker,
			ToAddr:      Ptr(token),
			Value:       LargeValue,
			GasUsed:     51_234,
			GasPrice:    "30000000000",
			Input:       append(crypto.Keccak256([]byte("transfer(address,uint256)"))[:4], word(MaxUint256)...),
			Status:      1,
		},
		{
			Hash:        txB,
			BlockNumber: 101,
			TxIndex:     0,
			FromAddr:    attacker,
			ToAddr:      nil,
			Value:       "0",
			GasUsed:     1_200_000,
			GasPrice:    "31000000000",
			Input:       []byte{0x60, 0x80, 0x60, 0x40, 0x52},
			Status:      1,
		},
	}

	logs := []LogRow{
		{
			ID: 1, BlockNumber: 100, TxHash: txA, LogIndex: 0, Address: token,
			Topic0: Ptr(TransferTopic), Topic1: Ptr(addressTopic(victim)), Topic2: Ptr(addressTopic(attacker)),
			Data: word(MaxUint256),
		},
		{
			ID: 2, BlockNumber: 100, TxHash: txA, LogIndex: 1, Address: token,
			Topic0: Ptr(ApprovalTopic), Topic1: Ptr(addressTopic(victim)), Topic2: Ptr(addressTopic(attacker)),
			Data: word("0"),
		},
		{
			ID: 3, BlockNumber: 101, TxHash: txB, LogIndex: 0, Address: created,
			Topic0: Ptr(OwnershipTransferredTopic), Topic1: Ptr(addressTopic("0x0000000000000000000000000000000000000000")), Topic2: Ptr(addressTopic(attacker)),
		},
		{
			ID: 4, BlockNumber: 101, TxHash: txB, LogIndex: 1, Address: created,
			Topic0: Ptr(InitializedTopic),
			Data:   word("1"),
		},
	}

	return Dataset{Blocks: blocks, Transactions: transactions, Logs: logs}
}

// Generate builds a synthetic snapshot of blockCount blocks starting at
// start. The same arguments always produce the same rows, and a larger
// blockCount produces a superset of a smaller one.
func Generate(start int64, blockCount, txsPerBlock, logsPerTx int) Dataset {
	var ds Dataset
	var logID int64
	for b := 0; b < blockCount; b++ {
		n := start + int64(b)
		ds.Blocks = append(ds.Blocks, BlockRow{
			Number:     n,
			Hash:       BlockHash(n),
			ParentHash: BlockHash(n - 1),
			Timestamp:  1678968000 + int64(b)*12,
			GasUsed:    int64(txsPerBlock) * 21_000,
			GasLimit:   30_000_000,
			BaseFee:    Ptr(uint256.NewInt(uint64(n) * 1_000_000_007).Dec()),
			TxCount:    int64(txsPerBlock),
		})

		var logIndex int64
		for t := 0; t < txsPerBlock; t++ {
			hash := TxHash(n, int64(t))
			from := Address(fmt.Sprintf("from-%d-%d", n, t))
			to := Address(fmt.Sprintf("to-%d", t))
			value := new(uint256.Int).Mul(uint256.NewInt(uint64(n)), uint256.MustFromDecimal(LargeValue))
			ds.Transactions = append(ds.Transactions, TransactionRow{
				Hash:        hash,
				BlockNumber: n,
				TxIndex:     int64(t),
				FromAddr:    from,
				ToAddr:      Ptr(to),
				Value:       value.Dec(),
				GasUsed:     21_000,
				GasPrice:    "20000000000",
				Input:       crypto.Keccak256([]byte(hash))[:4],
				Status:      1,
			})

			trace, _ := json.Marshal(map[string]any{
				"type":  "CALL",
				"from":  from,
				"to":    to,
				"value": value.Hex(),
			})
			ds.Traces = append(ds.Traces, TraceRow{
				ID:          int64(len(ds.Traces) + 1),
				BlockNumber: n,
				TxHash:      hash,
				TxIndex:     int64(t),
				TraceJSON:   string(trace),
			})

			for l := 0; l < logsPerTx; l++ {
				logID++
				ds.Logs = append(ds.Logs, LogRow{
					ID:          logID,
					BlockNumber: n,
					TxHash:      hash,
					LogIndex:    logIndex,
					Address:     to,
					Topic0:      Ptr(TransferTopic),
					Topic1:      Ptr(addressTopic(from)),
					Topic2:      Ptr(addressTopic(to)),
					Data:        word(value.Dec()),
				})
				logIndex++
			}
		}
	}
	return ds
}

// WithoutTraces drops the optional traces dataset.
func (ds Dataset) WithoutTraces() Dataset {
	ds.Traces = nil
	return ds
}
