package poller

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/dwarvesf/eth-tx-tracker/internal/connector"
	"github.com/dwarvesf/eth-tx-tracker/internal/model"
	"github.com/dwarvesf/eth-tx-tracker/internal/parser"
	"github.com/dwarvesf/eth-tx-tracker/internal/persistor"
	"github.com/dwarvesf/eth-tx-tracker/internal/utils/logger"
)

const interChunkDelay = time.Second

// RunState carries the counters of one Poll invocation. It is owned by that
// invocation and reported at the end, never read concurrently.
type RunState struct {
	TotalTransactions    int
	TotalChunksProcessed int
	StartTime            time.Time
	LastProcessedTime    time.Time
}

// Poller walks an epoch range chunk by chunk, fetching all transaction
// categories per chunk, normalizing them and handing the batch to the
// persistor. Chunks are strictly sequential because each append depends on
// the file state left by the previous chunk.
type Poller struct {
	connector     connector.IConnector
	parser        *parser.Parser
	persistor     persistor.IPersistor
	chunkDuration time.Duration
	logger        *logger.Logger

	state RunState
}

func New(
	connector connector.IConnector,
	parser *parser.Parser,
	persistor persistor.IPersistor,
	chunkDuration time.Duration,
	logger *logger.Logger,
) *Poller {
	return &Poller{
		connector:     connector,
		parser:        parser,
		persistor:     persistor,
		chunkDuration: chunkDuration,
		logger:        logger,
	}
}

// State returns the counters of the most recent Poll invocation.
func (p *Poller) State() RunState {
	return p.state
}

// Poll processes [startEpoch, endEpoch] in chronological chunks and writes
// the normalized transactions to outputFilename. An empty outputFilename
// generates a per-run default. Cancellation takes effect at chunk
// boundaries; persistence failures abort the run. Both are reported in the
// final summary before propagating.
func (p *Poller) Poll(ctx context.Context, address string, startEpoch, endEpoch int64, outputFilename string) (string, error) {
	return p.run(ctx, address, startEpoch, endEpoch, outputFilename, false)
}

// PollAppend behaves like Poll but never truncates outputFilename; every
// chunk appends. Follow-mode re-polls use it to extend the initial run's
// file.
func (p *Poller) PollAppend(ctx context.Context, address string, startEpoch, endEpoch int64, outputFilename string) (string, error) {
	return p.run(ctx, address, startEpoch, endEpoch, outputFilename, true)
}

func (p *Poller) run(ctx context.Context, address string, startEpoch, endEpoch int64, outputFilename string, appendOnly bool) (string, error) {
	p.state = RunState{StartTime: time.Now()}

	if outputFilename == "" {
		outputFilename = fmt.Sprintf("ethereum_transactions_%s_%s.csv", address, time.Now().Format("20060102_150405"))
	}

	chunks := PlanChunks(startEpoch, endEpoch, int64(p.chunkDuration.Seconds()))

	p.logger.Info("[Poll] starting transaction polling", map[string]string{
		"address":    address,
		"startEpoch": strconv.FormatInt(startEpoch, 10),
		"endEpoch":   strconv.FormatInt(endEpoch, 10),
		"chunks":     strconv.Itoa(len(chunks)),
		"chunkMins":  strconv.Itoa(int(p.chunkDuration.Minutes())),
		"output":     outputFilename,
	})

	defer p.logFinalSummary(outputFilename)

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("[Poll] polling interrupted", map[string]string{
				"chunk": fmt.Sprintf("%d/%d", i+1, len(chunks)),
			})
			p.logProgress("INTERRUPTED")
			return outputFilename, err
		}

		p.logger.Info("[Poll] processing chunk", map[string]string{
			"chunk": fmt.Sprintf("%d/%d", i+1, len(chunks)),
			"start": strconv.FormatInt(chunk.Start, 10),
			"end":   strconv.FormatInt(chunk.End, 10),
		})

		transactions := p.fetchChunk(ctx, address, chunk)

		if len(transactions) > 0 {
			sort.Slice(transactions, func(a, b int) bool {
				return transactions[a].DateTime > transactions[b].DateTime
			})

			var err error
			if i == 0 && !appendOnly {
				_, err = p.persistor.Persist(transactions, outputFilename)
			} else {
				err = p.persistor.Append(transactions, outputFilename)
			}
			if err != nil {
				p.logProgress("ERROR")
				return outputFilename, errors.Wrap(err, "failed to persist chunk")
			}

			p.state.TotalTransactions += len(transactions)
			p.logger.Info("[Poll] chunk completed", map[string]string{
				"chunk":        fmt.Sprintf("%d/%d", i+1, len(chunks)),
				"transactions": strconv.Itoa(len(transactions)),
			})
		} else {
			p.logger.Info("[Poll] chunk completed with no transactions", map[string]string{
				"chunk": fmt.Sprintf("%d/%d", i+1, len(chunks)),
			})
		}

		p.state.TotalChunksProcessed = i + 1
		p.state.LastProcessedTime = time.Unix(chunk.End, 0)

		if i < len(chunks)-1 {
			select {
			case <-time.After(interChunkDelay):
			case <-ctx.Done():
			}
		}
	}

	return outputFilename, nil
}

// fetchChunk issues the five category fetches concurrently. A failed
// category is logged and treated as empty so the remaining categories of
// the same chunk still contribute.
func (p *Poller) fetchChunk(ctx context.Context, address string, chunk Chunk) []model.Transaction {
	results := make([][]model.Transaction, len(model.AllCategories))

	var wg sync.WaitGroup
	for i, category := range model.AllCategories {
		wg.Add(1)
		go func(i int, category model.TxCategory) {
			defer wg.Done()

			raws, err := connector.FetchByCategory(ctx, p.connector, category, address, chunk.Start, chunk.End)
			if err != nil {
				p.logger.Error("[fetchChunk] failed to fetch category", map[string]string{
					"category": string(category),
					"start":    strconv.FormatInt(chunk.Start, 10),
					"end":      strconv.FormatInt(chunk.End, 10),
					"error":    err.Error(),
				})
				return
			}

			parsed := make([]model.Transaction, 0, len(raws))
			for _, raw := range raws {
				parsed = append(parsed, p.parser.Parse(ctx, raw, category))
			}
			results[i] = parsed
		}(i, category)
	}
	wg.Wait()

	var transactions []model.Transaction
	for _, batch := range results {
		transactions = append(transactions, batch...)
	}
	return transactions
}

func (p *Poller) logProgress(status string) {
	if p.state.LastProcessedTime.IsZero() {
		return
	}
	p.logger.Info("[Poll] polling "+status, map[string]string{
		"lastProcessedTime":    p.state.LastProcessedTime.Format("2006-01-02 15:04:05"),
		"totalChunksProcessed": strconv.Itoa(p.state.TotalChunksProcessed),
		"totalTransactions":    strconv.Itoa(p.state.TotalTransactions),
	})
}

func (p *Poller) logFinalSummary(outputFilename string) {
	p.logger.Info("[Poll] polling summary", map[string]string{
		"startTime":            p.state.StartTime.Format("2006-01-02 15:04:05"),
		"endTime":              time.Now().Format("2006-01-02 15:04:05"),
		"duration":             time.Since(p.state.StartTime).Round(time.Second).String(),
		"totalChunksProcessed": strconv.Itoa(p.state.TotalChunksProcessed),
		"totalTransactions":    strconv.Itoa(p.state.TotalTransactions),
		"output":               outputFilename,
	})
}
