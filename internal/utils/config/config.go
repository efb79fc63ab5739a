package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/dwarvesf/eth-tx-tracker/internal/types/environments"
)

type AppConfig struct {
	Environment   environments.Environment
	ConnectorType string
	Etherscan     EtherscanConfig
	Alchemy       AlchemyConfig
	Output        OutputConfig
	Poller        PollerConfig
}

type EtherscanConfig struct {
	APIKey  string
	BaseURL string
}

type AlchemyConfig struct {
	APIKey string
	// Plain JSON-RPC endpoint used to resolve token metadata on chain,
	// since the Alchemy transfer API carries none.
	RPCEndpoint string
}

type OutputConfig struct {
	Dir string
}

type PollerConfig struct {
	ChunkDurationMinutes int
	// Optional cron spec (e.g. "@every 15m"). When set, the tracker keeps
	// re-polling new activity after the initial run.
	Interval string
}

func New() *AppConfig {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// does not override env variables that already exist
	godotenv.Load(".env." + env)

	connectorType := os.Getenv("CONNECTOR_TYPE")
	if connectorType == "" {
		connectorType = "etherscan"
	}

	etherscanURL := os.Getenv("ETHERSCAN_API_URL")
	if etherscanURL == "" {
		etherscanURL = "https://api.etherscan.io/api"
	}

	outputDir := os.Getenv("OUTPUT_DIR")
	if outputDir == "" {
		outputDir = "."
	}

	return &AppConfig{
		Environment:   environments.Parse(env),
		ConnectorType: connectorType,
		Etherscan: EtherscanConfig{
			APIKey:  os.Getenv("ETHERSCAN_API_KEY"),
			BaseURL: etherscanURL,
		},
		Alchemy: AlchemyConfig{
			APIKey:      os.Getenv("ALCHEMY_API_KEY"),
			RPCEndpoint: os.Getenv("ETH_RPC_ENDPOINT"),
		},
		Output: OutputConfig{
			Dir: outputDir,
		},
		Poller: PollerConfig{
			ChunkDurationMinutes: envVarAtoiOrDefault("CHUNK_DURATION_MINUTES", 15),
			Interval:             os.Getenv("POLL_INTERVAL"),
		},
	}
}

func envVarAtoiOrDefault(envName string, fallback int) int {
	valueStr := os.Getenv(envName)
	if valueStr == "" {
		return fallback
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil || value <= 0 {
		return fallback
	}

	return value
}
