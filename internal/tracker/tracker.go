package tracker

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/dwarvesf/eth-tx-tracker/internal/connector"
	"github.com/dwarvesf/eth-tx-tracker/internal/parser"
	"github.com/dwarvesf/eth-tx-tracker/internal/persistor"
	"github.com/dwarvesf/eth-tx-tracker/internal/poller"
	"github.com/dwarvesf/eth-tx-tracker/internal/utils/config"
	"github.com/dwarvesf/eth-tx-tracker/internal/utils/logger"
)

const defaultLookback = 365 * 24 * time.Hour

// Request is one tracking run. StartEpoch and EndEpoch of zero mean "use
// the defaults": end = now, start = end minus one year.
type Request struct {
	Address    string `validate:"required,eth_addr"`
	StartEpoch int64  `validate:"gte=0"`
	EndEpoch   int64  `validate:"gte=0"`
}

// Tracker wires the connector, parser, persistor and poller together and
// drives one run end to end.
type Tracker struct {
	appConfig *config.AppConfig
	logger    *logger.Logger
	poller    *poller.Poller
}

func New(appConfig *config.AppConfig, logger *logger.Logger) (*Tracker, error) {
	conn, err := connector.New(appConfig, logger)
	if err != nil {
		return nil, err
	}

	csvPersistor, err := persistor.NewCSV(appConfig.Output.Dir, logger)
	if err != nil {
		return nil, err
	}

	chunkDuration := time.Duration(appConfig.Poller.ChunkDurationMinutes) * time.Minute

	return &Tracker{
		appConfig: appConfig,
		logger:    logger,
		poller:    poller.New(conn, parser.New(conn, logger), csvPersistor, chunkDuration, logger),
	}, nil
}

// Run validates the request, applies the time range defaults, polls the
// full range and, when POLL_INTERVAL is configured, keeps following new
// activity until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context, req Request) error {
	if err := validator.New().Struct(req); err != nil {
		t.logger.Error("[Run][Validator]", map[string]string{
			"address": req.Address,
			"error":   err.Error(),
		})
		return errors.Wrap(err, "invalid request")
	}

	endEpoch := req.EndEpoch
	if endEpoch == 0 {
		endEpoch = time.Now().Unix()
	}
	startEpoch := req.StartEpoch
	if startEpoch == 0 {
		startEpoch = endEpoch - int64(defaultLookback.Seconds())
		if startEpoch < 0 {
			startEpoch = 0
		}
	}
	if startEpoch > endEpoch {
		t.logger.Error("[Run] start epoch after end epoch", map[string]string{
			"startEpoch": strconv.FormatInt(startEpoch, 10),
			"endEpoch":   strconv.FormatInt(endEpoch, 10),
		})
		return errors.New("start epoch must not be after end epoch")
	}

	filename, err := t.poller.Poll(ctx, req.Address, startEpoch, endEpoch, "")
	if err != nil {
		return err
	}

	t.logger.Info("[Run] polling completed", map[string]string{
		"address": req.Address,
		"output":  filename,
	})

	if t.appConfig.Poller.Interval == "" {
		return nil
	}
	return t.follow(ctx, req.Address, endEpoch, filename)
}

// follow schedules cron re-polls of [lastEnd, now], appending new activity
// to the initial run's file, until ctx is done. The cursor lives in memory
// only; a restart starts over.
func (t *Tracker) follow(ctx context.Context, address string, lastEnd int64, filename string) error {
	t.logger.Info("[follow] entering follow mode", map[string]string{
		"address":  address,
		"interval": t.appConfig.Poller.Interval,
		"output":   filename,
	})

	var mu sync.Mutex
	c := cron.New()
	_, err := c.AddFunc(t.appConfig.Poller.Interval, func() {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now().Unix()
		if now <= lastEnd {
			return
		}

		if _, err := t.poller.PollAppend(ctx, address, lastEnd, now, filename); err != nil {
			t.logger.Error("[follow] re-poll failed", map[string]string{
				"address": address,
				"error":   err.Error(),
			})
			return
		}
		lastEnd = now
	})
	if err != nil {
		return errors.Wrap(err, "invalid poll interval")
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}
