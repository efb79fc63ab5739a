package alchemy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/dwarvesf/eth-tx-tracker/internal/model"
	"github.com/dwarvesf/eth-tx-tracker/internal/utils/config"
	"github.com/dwarvesf/eth-tx-tracker/internal/utils/logger"
)

const requestTimeout = 30 * time.Second

// TokenInfoResolver supplies token metadata from a source other than the
// Alchemy transfer API, which does not carry symbol/name information.
type TokenInfoResolver interface {
	GetTokenInfo(ctx context.Context, contractAddress string) (symbol string, name string, err error)
}

// Client talks to the Alchemy JSON-RPC transfer API.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *logger.Logger
	tokens  TokenInfoResolver
}

func New(cfg *config.AppConfig, logger *logger.Logger, tokens TokenInfoResolver) *Client {
	return &Client{
		baseURL: fmt.Sprintf("https://eth-mainnet.g.alchemy.com/v2/%s", cfg.Alchemy.APIKey),
		client:  &http.Client{Timeout: requestTimeout},
		logger:  logger,
		tokens:  tokens,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type assetTransfersParams struct {
	FromBlock        string   `json:"fromBlock"`
	ToBlock          string   `json:"toBlock"`
	Category         []string `json:"category"`
	WithMetadata     bool     `json:"withMetadata"`
	ExcludeZeroValue bool     `json:"excludeZeroValue"`
	MaxCount         string   `json:"maxCount"`
	Order            string   `json:"order"`
	FromAddress      string   `json:"fromAddress"`
}

type assetTransfer struct {
	Hash        string      `json:"hash"`
	From        string      `json:"from"`
	To          string      `json:"to"`
	Value       json.Number `json:"value"`
	Asset       string      `json:"asset"`
	TokenID     string      `json:"tokenId"`
	BlockNum    string      `json:"blockNum"`
	RawContract struct {
		Address string `json:"address"`
	} `json:"rawContract"`
	Metadata struct {
		BlockTimestamp string `json:"blockTimestamp"`
	} `json:"metadata"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type assetTransfersResponse struct {
	Result *struct {
		Transfers []assetTransfer `json:"transfers"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

func (c *Client) getAssetTransfers(ctx context.Context, category, address string, startEpoch, endEpoch int64) ([]model.RawTransaction, error) {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "alchemy_getAssetTransfers",
		Params: []any{
			assetTransfersParams{
				FromBlock:        "0x0",
				ToBlock:          "latest",
				Category:         []string{category},
				WithMetadata:     true,
				ExcludeZeroValue: false,
				MaxCount:         "0x3e8",
				Order:            "desc",
				FromAddress:      address,
			},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal rpc request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "api request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var rpcResp assetTransfersResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, errors.Wrap(err, "failed to parse response")
	}

	if rpcResp.Error != nil {
		return nil, fmt.Errorf("rpc error: %d %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	if rpcResp.Result == nil {
		return nil, nil
	}

	txs := make([]model.RawTransaction, 0, len(rpcResp.Result.Transfers))
	for _, transfer := range rpcResp.Result.Transfers {
		ts := parseBlockTimestamp(transfer.Metadata.BlockTimestamp)
		if startEpoch > 0 || endEpoch > 0 {
			epoch, err := strconv.ParseInt(ts, 10, 64)
			if err == nil {
				if startEpoch > 0 && epoch < startEpoch {
					continue
				}
				if endEpoch > 0 && epoch > endEpoch {
					continue
				}
			}
		}

		tx := model.RawTransaction{
			Hash:            transfer.Hash,
			From:            transfer.From,
			To:              transfer.To,
			Value:           transfer.Value.String(),
			TimeStamp:       ts,
			BlockNumber:     parseHexBlockNum(transfer.BlockNum),
			ContractAddress: transfer.RawContract.Address,
			TokenName:       transfer.Asset,
			TokenSymbol:     transfer.Asset,
			TokenID:         transfer.TokenID,
			// transfer values arrive already decimal-adjusted
			TokenDecimal: "0",
		}
		if category == "erc721" {
			tx.Value = "1"
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

func parseBlockTimestamp(blockTimestamp string) string {
	t, err := time.Parse(time.RFC3339, blockTimestamp)
	if err != nil {
		return ""
	}
	return strconv.FormatInt(t.Unix(), 10)
}

func parseHexBlockNum(blockNum string) string {
	n, err := strconv.ParseInt(strings.TrimPrefix(blockNum, "0x"), 16, 64)
	if err != nil {
		return ""
	}
	return strconv.FormatInt(n, 10)
}

func (c *Client) GetNormalTransactions(ctx context.Context, address string, startEpoch, endEpoch int64) ([]model.RawTransaction, error) {
	return c.getAssetTransfers(ctx, "external", address, startEpoch, endEpoch)
}

// Alchemy has no internal transaction endpoint in the transfer API.
func (c *Client) GetInternalTransactions(ctx context.Context, address string, startEpoch, endEpoch int64) ([]model.RawTransaction, error) {
	c.logger.Info("[GetInternalTransactions] internal transactions not supported by Alchemy API")
	return nil, nil
}

func (c *Client) GetERC20Transfers(ctx context.Context, address string, startEpoch, endEpoch int64) ([]model.RawTransaction, error) {
	return c.getAssetTransfers(ctx, "erc20", address, startEpoch, endEpoch)
}

func (c *Client) GetERC721Transfers(ctx context.Context, address string, startEpoch, endEpoch int64) ([]model.RawTransaction, error) {
	return c.getAssetTransfers(ctx, "erc721", address, startEpoch, endEpoch)
}

func (c *Client) GetERC1155Transfers(ctx context.Context, address string, startEpoch, endEpoch int64) ([]model.RawTransaction, error) {
	c.logger.Info("[GetERC1155Transfers] ERC-1155 transfers not supported by Alchemy API")
	return nil, nil
}

func (c *Client) GetTokenInfo(ctx context.Context, contractAddress string) (string, string, error) {
	if c.tokens == nil {
		return "Unknown", "Unknown", nil
	}
	return c.tokens.GetTokenInfo(ctx, contractAddress)
}

// No block-by-timestamp endpoint either; estimate at ~12s per block.
func (c *Client) GetBlockNumberByTimestamp(ctx context.Context, timestamp int64) (int64, error) {
	return timestamp / 12, nil
}
