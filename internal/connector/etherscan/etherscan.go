package etherscan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/dwarvesf/eth-tx-tracker/internal/model"
	"github.com/dwarvesf/eth-tx-tracker/internal/utils/config"
	"github.com/dwarvesf/eth-tx-tracker/internal/utils/logger"
)

const requestTimeout = 30 * time.Second

// Client talks to the Etherscan account/token/block modules.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *logger.Logger
}

func New(cfg *config.AppConfig, logger *logger.Logger) *Client {
	return &Client{
		baseURL: cfg.Etherscan.BaseURL,
		apiKey:  cfg.Etherscan.APIKey,
		client:  &http.Client{Timeout: requestTimeout},
		logger:  logger,
	}
}

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func (c *Client) makeRequest(ctx context.Context, params url.Values) (*apiResponse, error) {
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

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

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, errors.Wrap(err, "failed to parse response")
	}

	return &apiResp, nil
}

// isEmptyResult reports whether the non-success message just means the
// address had no activity in the window, which is not an error.
func isEmptyResult(message string) bool {
	return strings.Contains(message, "No transactions found") ||
		strings.Contains(message, "No records found")
}

func (c *Client) getTxList(ctx context.Context, action, address string, startEpoch, endEpoch int64) ([]model.RawTransaction, error) {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", action)
	params.Set("address", address)
	params.Set("startblock", "0")
	params.Set("endblock", "99999999")
	params.Set("sort", "desc")

	if startEpoch > 0 {
		startBlock, err := c.GetBlockNumberByTimestamp(ctx, startEpoch)
		if err == nil {
			params.Set("startblock", strconv.FormatInt(startBlock, 10))
		}
	}

	if endEpoch > 0 {
		endBlock, err := c.GetBlockNumberByTimestamp(ctx, endEpoch)
		if err == nil {
			params.Set("endblock", strconv.FormatInt(endBlock, 10))
		}
	}

	resp, err := c.makeRequest(ctx, params)
	if err != nil {
		c.logger.Error(fmt.Sprintf("[getTxList][%s] request failed", action), map[string]string{
			"address": address,
			"error":   err.Error(),
		})
		return nil, err
	}

	if resp.Status != "1" {
		if isEmptyResult(resp.Message) {
			c.logger.Info(fmt.Sprintf("[getTxList][%s] no records in range", action), map[string]string{
				"address": address,
			})
			return nil, nil
		}
		return nil, fmt.Errorf("etherscan %s failed: %s", action, resp.Message)
	}

	var txs []model.RawTransaction
	if err := json.Unmarshal(resp.Result, &txs); err != nil {
		return nil, errors.Wrap(err, "failed to parse transaction list")
	}

	return filterByEpochRange(txs, startEpoch, endEpoch), nil
}

// Block-number bounds are only approximate, so the result is post-filtered
// against the actual record timestamps.
func filterByEpochRange(txs []model.RawTransaction, startEpoch, endEpoch int64) []model.RawTransaction {
	if startEpoch <= 0 && endEpoch <= 0 {
		return txs
	}

	filtered := make([]model.RawTransaction, 0, len(txs))
	for _, tx := range txs {
		ts, err := strconv.ParseInt(tx.TimeStamp, 10, 64)
		if err != nil {
			// keep it, the normalizer degrades malformed records instead of dropping them
			filtered = append(filtered, tx)
			continue
		}
		if startEpoch > 0 && ts < startEpoch {
			continue
		}
		if endEpoch > 0 && ts > endEpoch {
			continue
		}
		filtered = append(filtered, tx)
	}

	return filtered
}

func (c *Client) GetNormalTransactions(ctx context.Context, address string, startEpoch, endEpoch int64) ([]model.RawTransaction, error) {
	return c.getTxList(ctx, "txlist", address, startEpoch, endEpoch)
}

func (c *Client) GetInternalTransactions(ctx context.Context, address string, startEpoch, endEpoch int64) ([]model.RawTransaction, error) {
	return c.getTxList(ctx, "txlistinternal", address, startEpoch, endEpoch)
}

func (c *Client) GetERC20Transfers(ctx context.Context, address string, startEpoch, endEpoch int64) ([]model.RawTransaction, error) {
	return c.getTxList(ctx, "tokentx", address, startEpoch, endEpoch)
}

func (c *Client) GetERC721Transfers(ctx context.Context, address string, startEpoch, endEpoch int64) ([]model.RawTransaction, error) {
	return c.getTxList(ctx, "tokennfttx", address, startEpoch, endEpoch)
}

func (c *Client) GetERC1155Transfers(ctx context.Context, address string, startEpoch, endEpoch int64) ([]model.RawTransaction, error) {
	return c.getTxList(ctx, "token1155tx", address, startEpoch, endEpoch)
}

type tokenInfo struct {
	Symbol string `json:"symbol"`
	Name   string `json:"tokenName"`
}

func (c *Client) GetTokenInfo(ctx context.Context, contractAddress string) (string, string, error) {
	params := url.Values{}
	params.Set("module", "token")
	params.Set("action", "tokeninfo")
	params.Set("contractaddress", contractAddress)

	resp, err := c.makeRequest(ctx, params)
	if err != nil {
		c.logger.Error("[GetTokenInfo] request failed", map[string]string{
			"contractAddress": contractAddress,
			"error":           err.Error(),
		})
		return "", "", err
	}

	if resp.Status != "1" {
		return "", "", fmt.Errorf("etherscan tokeninfo failed: %s", resp.Message)
	}

	var infos []tokenInfo
	if err := json.Unmarshal(resp.Result, &infos); err != nil {
		return "", "", errors.Wrap(err, "failed to parse token info")
	}

	if len(infos) == 0 {
		return "Unknown", "Unknown", nil
	}

	symbol := infos[0].Symbol
	if symbol == "" {
		symbol = "Unknown"
	}
	name := infos[0].Name
	if name == "" {
		name = "Unknown"
	}
	return symbol, name, nil
}

func (c *Client) GetBlockNumberByTimestamp(ctx context.Context, timestamp int64) (int64, error) {
	params := url.Values{}
	params.Set("module", "block")
	params.Set("action", "getblocknobytime")
	params.Set("timestamp", strconv.FormatInt(timestamp, 10))
	params.Set("closest", "before")

	resp, err := c.makeRequest(ctx, params)
	if err == nil && resp.Status == "1" {
		var blockStr string
		if err := json.Unmarshal(resp.Result, &blockStr); err == nil {
			if block, err := strconv.ParseInt(blockStr, 10, 64); err == nil {
				return block, nil
			}
		}
	}

	// 1 block every ~12 seconds
	c.logger.Warn("[GetBlockNumberByTimestamp] falling back to estimation", map[string]string{
		"timestamp": strconv.FormatInt(timestamp, 10),
	})
	return timestamp / 12, nil
}
