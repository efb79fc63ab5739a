package persistor

import "github.com/dwarvesf/eth-tx-tracker/internal/model"

// IPersistor writes normalized transactions to durable storage.
type IPersistor interface {
	// Persist writes records to filename, replacing any existing content.
	// An empty filename generates a timestamped default. It returns the
	// path of the written file.
	Persist(transactions []model.Transaction, filename string) (string, error)

	// Append adds records to an existing file, keeping prior rows intact.
	// A missing file behaves like Persist.
	Append(transactions []model.Transaction, filename string) error
}
