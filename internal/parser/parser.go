package parser

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dwarvesf/eth-tx-tracker/internal/model"
	"github.com/dwarvesf/eth-tx-tracker/internal/utils/logger"
)

// known router/token contracts on mainnet
var uniswapAddresses = map[string]string{
	"0x7a250d5630b4cf539739df2c5dacb4c659f2488d": "Uniswap V2 Router",
	"0xe592427a0aece92de3edee1f18e0157c05861564": "Uniswap V3 Router",
	"0x1f9840a85d5af5bf1d1762f925bdaddc4201f984": "Uniswap Token",
}

// leading 4-byte call-data signatures and the transfer type they imply
var methodSignatures = map[string]model.TransactionType{
	"0xa9059cbb": model.TxTypeERC20Transfer,   // transfer(address,uint256)
	"0x23b872dd": model.TxTypeERC20Transfer,   // transferFrom(address,address,uint256)
	"0x42842e0e": model.TxTypeERC721Transfer,  // safeTransferFrom(address,address,uint256)
	"0xf242432a": model.TxTypeERC1155Transfer, // safeTransferFrom(address,address,uint256,uint256,bytes)
	"0x38ed1739": model.TxTypeUniswapTrade,    // swapExactTokensForTokens
	"0x7ff36ab5": model.TxTypeUniswapTrade,    // swapExactETHForTokens
	"0x18cbafe5": model.TxTypeUniswapTrade,    // swapExactTokensForETH
	"0x4a25d94a": model.TxTypeUniswapTrade,    // swapTokensForExactETH
	"0x5c11d795": model.TxTypeUniswapTrade,    // swapExactTokensForTokensSupportingFeeOnTransferTokens
	"0x414bf389": model.TxTypeUniswapTrade,    // exactInputSingle
}

// fallback symbols for a handful of well-known tokens, used when the
// provider cannot resolve a contract
var fallbackTokenSymbols = map[string]string{
	"0xa0b86a33e6441b8c4c8c0b8c4c8c0b8c4c8c0b8c": "USDC",
	"0xdac17f958d2ee523a2206206994597c13d831ec7": "USDT",
	"0x2260fac5e5542a773aa44fbcfedf7c193bc2c599": "WBTC",
	"0x514910771af9ca656af840dff83e8264ecf986ca": "LINK",
	"0x1f9840a85d5af5bf1d1762f925bdaddc4201f984": "UNI",
}

// TokenInfoProvider resolves a token contract to its symbol and name.
type TokenInfoProvider interface {
	GetTokenInfo(ctx context.Context, contractAddress string) (symbol string, name string, err error)
}

// Parser normalizes raw provider records into canonical transactions. Parse
// never fails: malformed records degrade to an ERROR-typed record.
type Parser struct {
	tokens TokenInfoProvider
	logger *logger.Logger

	mu         sync.Mutex
	tokenCache map[string]string
}

func New(tokens TokenInfoProvider, logger *logger.Logger) *Parser {
	return &Parser{
		tokens:     tokens,
		logger:     logger,
		tokenCache: map[string]string{},
	}
}

func (p *Parser) Parse(ctx context.Context, raw model.RawTransaction, category model.TxCategory) model.Transaction {
	decimals := 18
	if raw.TokenDecimal != "" {
		parsed, err := strconv.Atoi(raw.TokenDecimal)
		if err != nil {
			p.logger.Error("[Parse] malformed token decimal", map[string]string{
				"hash":         raw.Hash,
				"tokenDecimal": raw.TokenDecimal,
			})
			return p.errorRecord(raw)
		}
		decimals = parsed
	}

	if _, err := strconv.ParseInt(raw.TimeStamp, 10, 64); err != nil {
		p.logger.Error("[Parse] malformed timestamp", map[string]string{
			"hash":      raw.Hash,
			"timeStamp": raw.TimeStamp,
		})
		return p.errorRecord(raw)
	}

	assetSymbolName := "ETH"
	if raw.ContractAddress != "" {
		assetSymbolName = p.resolveTokenInfo(ctx, raw.ContractAddress)
	}

	gasFee := "0"
	if category != model.CategoryInternal {
		gasUsed := raw.GasUsed
		if gasUsed == "" {
			gasUsed = "0"
		}
		gasFee = formatValue(gasUsed, 18)
	}

	isError := raw.IsError
	if isError == "" {
		isError = "0"
	}

	return model.Transaction{
		Hash:                 raw.Hash,
		DateTime:             timestampToDateTime(raw.TimeStamp),
		FromAddress:          raw.From,
		ToAddress:            raw.To,
		Type:                 classifyTransactionType(raw, category),
		AssetContractAddress: raw.ContractAddress,
		AssetSymbolName:      assetSymbolName,
		TokenID:              raw.TokenID,
		ValueAmount:          formatValue(raw.Value, decimals),
		GasFeeETH:            gasFee,
		GasPrice:             raw.GasPrice,
		BlockNumber:          raw.BlockNumber,
		Confirmations:        raw.Confirmations,
		IsError:              isError,
	}
}

// errorRecord preserves whatever identifies the transaction and marks the
// rest as failed instead of dropping the record.
func (p *Parser) errorRecord(raw model.RawTransaction) model.Transaction {
	return model.Transaction{
		Hash:            raw.Hash,
		DateTime:        timestampToDateTime(raw.TimeStamp),
		FromAddress:     raw.From,
		ToAddress:       raw.To,
		Type:            model.TxTypeError,
		AssetSymbolName: "ERROR",
		ValueAmount:     "0",
		GasFeeETH:       "0",
		IsError:         "1",
	}
}

func classifyTransactionType(raw model.RawTransaction, category model.TxCategory) model.TransactionType {
	switch category {
	case model.CategoryInternal:
		return model.TxTypeInternalTransfer
	case model.CategoryERC20:
		return model.TxTypeERC20Transfer
	case model.CategoryERC721:
		return model.TxTypeERC721Transfer
	case model.CategoryERC1155:
		return model.TxTypeERC1155Transfer
	}

	toAddress := strings.ToLower(raw.To)
	if strings.HasPrefix(toAddress, "0x") {
		if _, ok := uniswapAddresses[toAddress]; ok {
			return model.TxTypeUniswapTrade
		}

		input := strings.ToLower(raw.Input)
		if input != "" && input != "0x" {
			if len(input) >= 10 {
				if txType, ok := methodSignatures[input[:10]]; ok {
					return txType
				}
			}
			return model.TxTypeContractInteraction
		}
	}

	return model.TxTypeETHTransfer
}

// resolveTokenInfo answers "SYMBOL (Name)" for a contract, consulting the
// provider first, then the static fallback table. Lookups are cached per
// contract for the lifetime of the parser.
func (p *Parser) resolveTokenInfo(ctx context.Context, contractAddress string) string {
	key := strings.ToLower(contractAddress)

	p.mu.Lock()
	cached, ok := p.tokenCache[key]
	p.mu.Unlock()
	if ok {
		return cached
	}

	symbol, name, err := p.tokens.GetTokenInfo(ctx, contractAddress)
	if err != nil || symbol == "" || symbol == "Unknown" {
		if fallback, ok := fallbackTokenSymbols[key]; ok {
			symbol, name = fallback, fallback
		} else {
			symbol, name = "Unknown", "Unknown"
		}
	}

	resolved := fmt.Sprintf("%s (%s)", symbol, name)

	p.mu.Lock()
	p.tokenCache[key] = resolved
	p.mu.Unlock()

	return resolved
}

func formatValue(value string, decimals int) string {
	amount := model.Web3BigInt{
		Value:   value,
		Decimal: decimals,
	}
	return amount.Format(6)
}

func timestampToDateTime(timestamp string) string {
	epoch, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return timestamp
	}
	return time.Unix(epoch, 0).Format("2006-01-02 15:04:05")
}
