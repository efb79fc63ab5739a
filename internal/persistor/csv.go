package persistor

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/dwarvesf/eth-tx-tracker/internal/model"
	"github.com/dwarvesf/eth-tx-tracker/internal/utils/logger"
)

var csvHeader = []string{
	"Transaction Hash",
	"Date & Time",
	"From Address",
	"To Address",
	"Transaction Type",
	"Asset Contract Address",
	"Asset Symbol / Name",
	"Token ID",
	"Value / Amount",
	"Gas Fee (ETH)",
}

// CSVPersistor writes transactions as CSV files under a base directory.
type CSVPersistor struct {
	outputDir string
	logger    *logger.Logger
}

func NewCSV(outputDir string, logger *logger.Logger) (*CSVPersistor, error) {
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create output directory")
	}
	return &CSVPersistor{
		outputDir: outputDir,
		logger:    logger,
	}, nil
}

func (p *CSVPersistor) Persist(transactions []model.Transaction, filename string) (string, error) {
	if len(transactions) == 0 {
		p.logger.Info("[Persist] no transactions to persist", nil)
		return "", nil
	}

	if filename == "" {
		filename = "ethereum_transactions_" + time.Now().Format("20060102_150405") + ".csv"
	}
	path := filepath.Join(p.outputDir, filename)

	rows := make([][]string, 0, len(transactions)+1)
	rows = append(rows, csvHeader)
	for _, tx := range transactions {
		rows = append(rows, transactionToRow(tx))
	}

	if err := p.writeRows(path, rows); err != nil {
		return "", err
	}

	p.logger.Info("[Persist] persisted transactions", map[string]string{
		"count": strconv.Itoa(len(transactions)),
		"path":  path,
	})
	return path, nil
}

func (p *CSVPersistor) Append(transactions []model.Transaction, filename string) error {
	if len(transactions) == 0 {
		return nil
	}

	path := filepath.Join(p.outputDir, filename)

	existing, err := p.readRows(path)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		existing = append(existing, csvHeader)
		p.logger.Info("[Append] creating new file", map[string]string{
			"count": strconv.Itoa(len(transactions)),
			"path":  path,
		})
	} else {
		p.logger.Info("[Append] appending to existing file", map[string]string{
			"count": strconv.Itoa(len(transactions)),
			"path":  path,
		})
	}

	for _, tx := range transactions {
		existing = append(existing, transactionToRow(tx))
	}

	return p.writeRows(path, existing)
}

// readRows loads the current content of path. A missing file is not an
// error, only an unreadable one is.
func (p *CSVPersistor) readRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		p.logger.Error("[readRows] failed to open existing file", map[string]string{
			"path":  path,
			"error": err.Error(),
		})
		return nil, errors.Wrap(err, "failed to open existing file")
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		p.logger.Error("[readRows] failed to read existing file", map[string]string{
			"path":  path,
			"error": err.Error(),
		})
		return nil, errors.Wrap(err, "failed to read existing file")
	}
	return rows, nil
}

func (p *CSVPersistor) writeRows(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create output file")
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return errors.Wrap(err, "failed to write csv rows")
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return errors.Wrap(err, "failed to flush csv rows")
	}

	return f.Close()
}

func transactionToRow(tx model.Transaction) []string {
	return []string{
		tx.Hash,
		tx.DateTime,
		tx.FromAddress,
		tx.ToAddress,
		string(tx.Type),
		tx.AssetContractAddress,
		tx.AssetSymbolName,
		tx.TokenID,
		tx.ValueAmount,
		tx.GasFeeETH,
	}
}
