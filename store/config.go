package store

const (
	// MaxTransactionItems is the store-imposed item limit of one TransactWriteItems call.
	MaxTransactionItems = 100

	// MaxBatchWriteItems is the store-imposed item limit of one BatchWriteItem call.
	MaxBatchWriteItems = 25
)

// Config holds configuration for the Store.
type Config struct {
	// TableName is the DynamoDB table holding all records.
	// Default: "reserve-rec"
	TableName string

	// TransactionMaxSize is the number of operations committed per transaction.
	// Default: 100
	// Max: 100
	TransactionMaxSize int

	// BatchWriteSize is the number of puts sent per BatchWriteItem call.
	// Default: 25
	// Max: 25
	BatchWriteSize int
}

// DefaultConfig returns the defaults used in every environment.
func DefaultConfig() Config {
	return Config{
		TableName:          "reserve-rec",
		TransactionMaxSize: MaxTransactionItems,
		BatchWriteSize:     MaxBatchWriteItems,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.TableName == "" {
		c.TableName = "reserve-rec"
	}
	if c.TransactionMaxSize < 1 || c.TransactionMaxSize > MaxTransactionItems {
		c.TransactionMaxSize = MaxTransactionItems
	}
	if c.BatchWriteSize < 1 || c.BatchWriteSize > MaxBatchWriteItems {
		c.BatchWriteSize = MaxBatchWriteItems
	}
}
