package connector

import (
	"context"

	"github.com/dwarvesf/eth-tx-tracker/internal/model"
)

// IConnector is the provider capability set. Implementations may return an
// empty list for categories the provider does not support; the poller treats
// that the same as "queried, found nothing".
type IConnector interface {
	GetNormalTransactions(ctx context.Context, address string, startEpoch, endEpoch int64) ([]model.RawTransaction, error)
	GetInternalTransactions(ctx context.Context, address string, startEpoch, endEpoch int64) ([]model.RawTransaction, error)
	GetERC20Transfers(ctx context.Context, address string, startEpoch, endEpoch int64) ([]model.RawTransaction, error)
	GetERC721Transfers(ctx context.Context, address string, startEpoch, endEpoch int64) ([]model.RawTransaction, error)
	GetERC1155Transfers(ctx context.Context, address string, startEpoch, endEpoch int64) ([]model.RawTransaction, error)

	GetTokenInfo(ctx context.Context, contractAddress string) (symbol string, name string, err error)
	GetBlockNumberByTimestamp(ctx context.Context, timestamp int64) (int64, error)
}

// FetchByCategory routes a category to the matching connector method.
func FetchByCategory(ctx context.Context, c IConnector, category model.TxCategory, address string, startEpoch, endEpoch int64) ([]model.RawTransaction, error) {
	switch category {
	case model.CategoryInternal:
		return c.GetInternalTransactions(ctx, address, startEpoch, endEpoch)
	case model.CategoryERC20:
		return c.GetERC20Transfers(ctx, address, startEpoch, endEpoch)
	case model.CategoryERC721:
		return c.GetERC721Transfers(ctx, address, startEpoch, endEpoch)
	case model.CategoryERC1155:
		return c.GetERC1155Transfers(ctx, address, startEpoch, endEpoch)
	default:
		return c.GetNormalTransactions(ctx, address, startEpoch, endEpoch)
	}
}
