package common

// Log is one emitted event. The synthetic row id is assigned by the database
// and never read back by the loader.
type Log struct {
	BlockNumber     int64
	TransactionHash string
	LogIndex        int64
	Address         string
	Topic0          *string
	Topic1          *string
	Topic2          *string
	Topic3          *string
	Data            []byte
}

