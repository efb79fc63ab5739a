package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dwarvesf/eth-tx-tracker/internal/tracker"
	"github.com/dwarvesf/eth-tx-tracker/internal/utils/config"
	"github.com/dwarvesf/eth-tx-tracker/internal/utils/logger"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <address> [start_epoch] [end_epoch]\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "  address      0x-prefixed Ethereum address to track")
	fmt.Fprintln(os.Stderr, "  start_epoch  unix timestamp, defaults to end_epoch minus one year")
	fmt.Fprintln(os.Stderr, "  end_epoch    unix timestamp, defaults to now")
}

func parseRequest(args []string) (tracker.Request, error) {
	if len(args) < 1 || len(args) > 3 {
		return tracker.Request{}, fmt.Errorf("expected 1 to 3 arguments, got %d", len(args))
	}

	req := tracker.Request{Address: args[0]}
	if len(args) > 1 {
		startEpoch, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return tracker.Request{}, fmt.Errorf("invalid start epoch %q", args[1])
		}
		req.StartEpoch = startEpoch
	}
	if len(args) > 2 {
		endEpoch, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return tracker.Request{}, fmt.Errorf("invalid end epoch %q", args[2])
		}
		req.EndEpoch = endEpoch
	}
	return req, nil
}

func main() {
	appConfig := config.New()
	logger := logger.New(appConfig.Environment)

	req, err := parseRequest(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage()
		os.Exit(1)
	}

	t, err := tracker.New(appConfig, logger)
	if err != nil {
		logger.Error("[main] failed to init tracker", map[string]string{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := t.Run(ctx, req); err != nil {
		logger.Error("[main] run failed", map[string]string{
			"error": err.Error(),
		})
		os.Exit(1)
	}
}
