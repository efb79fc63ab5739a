package ethrpc

import (
	"context"
	"math/big"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"

	"github.com/dwarvesf/eth-tx-tracker/internal/utils/logger"
)

const callTimeout = 30 * time.Second

// Minimal ERC-20 metadata surface; enough for symbol()/name() lookups.
const erc20MetadataABI = `[
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"}
]`

type contractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Client resolves ERC-20 token metadata directly from the chain.
type Client struct {
	caller contractCaller
	erc20  abi.ABI
	logger *logger.Logger
}

func New(endpoint string, logger *logger.Logger) (*Client, error) {
	ethClient, err := ethclient.Dial(endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to dial rpc endpoint")
	}

	return newWithCaller(ethClient, logger)
}

func newWithCaller(caller contractCaller, logger *logger.Logger) (*Client, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20MetadataABI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse erc20 abi")
	}

	return &Client{
		caller: caller,
		erc20:  parsed,
		logger: logger,
	}, nil
}

func (c *Client) GetTokenInfo(ctx context.Context, contractAddress string) (string, string, error) {
	addr := common.HexToAddress(contractAddress)

	symbol, err := c.callString(ctx, addr, "symbol")
	if err != nil {
		c.logger.Error("[GetTokenInfo][symbol]", map[string]string{
			"contractAddress": contractAddress,
			"error":           err.Error(),
		})
		return "", "", err
	}

	name, err := c.callString(ctx, addr, "name")
	if err != nil {
		c.logger.Error("[GetTokenInfo][name]", map[string]string{
			"contractAddress": contractAddress,
			"error":           err.Error(),
		})
		return "", "", err
	}

	return symbol, name, nil
}

func (c *Client) callString(ctx context.Context, addr common.Address, method string) (string, error) {
	data, err := c.erc20.Pack(method)
	if err != nil {
		return "", errors.Wrapf(err, "failed to pack %s call", method)
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	output, err := c.caller.CallContract(callCtx, ethereum.CallMsg{To: &addr, Data: data}, nil)
	if err != nil {
		return "", errors.Wrapf(err, "%s call failed", method)
	}

	var result string
	if err := c.erc20.UnpackIntoInterface(&result, method, output); err != nil {
		return "", errors.Wrapf(err, "failed to unpack %s result", method)
	}

	return result, nil
}
