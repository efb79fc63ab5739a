package connector

import (
	"fmt"
	"strings"

	"github.com/dwarvesf/eth-tx-tracker/internal/connector/alchemy"
	"github.com/dwarvesf/eth-tx-tracker/internal/connector/etherscan"
	"github.com/dwarvesf/eth-tx-tracker/internal/ethrpc"
	"github.com/dwarvesf/eth-tx-tracker/internal/utils/config"
	"github.com/dwarvesf/eth-tx-tracker/internal/utils/logger"
)

// New selects a connector implementation by cfg.ConnectorType. An unknown
// type or a missing API key is a configuration error.
func New(cfg *config.AppConfig, logger *logger.Logger) (IConnector, error) {
	switch strings.ToLower(cfg.ConnectorType) {
	case "etherscan":
		if cfg.Etherscan.APIKey == "" {
			return nil, fmt.Errorf("ETHERSCAN_API_KEY not found in environment variables")
		}
		return etherscan.New(cfg, logger), nil

	case "alchemy":
		if cfg.Alchemy.APIKey == "" {
			return nil, fmt.Errorf("ALCHEMY_API_KEY not found in environment variables")
		}

		var tokenResolver alchemy.TokenInfoResolver
		if cfg.Alchemy.RPCEndpoint != "" {
			resolver, err := ethrpc.New(cfg.Alchemy.RPCEndpoint, logger)
			if err != nil {
				return nil, fmt.Errorf("failed to init eth rpc token resolver: %w", err)
			}
			tokenResolver = resolver
		}

		return alchemy.New(cfg, logger, tokenResolver), nil

	default:
		return nil, fmt.Errorf("unknown connector type: %s", cfg.ConnectorType)
	}
}
