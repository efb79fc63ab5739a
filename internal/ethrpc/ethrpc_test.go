package ethrpc

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwarvesf/eth-tx-tracker/internal/types/environments"
	"github.com/dwarvesf/eth-tx-tracker/internal/utils/logger"
)

type stubCaller struct {
	outputs map[string][]byte
	err     error
}

func (s *stubCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.outputs[fmt.Sprintf("%x", msg.Data[:4])], nil
}

func newStubClient(t *testing.T, caller contractCaller) *Client {
	t.Helper()
	client, err := newWithCaller(caller, logger.New(environments.Test))
	require.NoError(t, err)
	return client
}

func packString(t *testing.T, client *Client, method, value string) []byte {
	t.Helper()
	out, err := client.erc20.Methods[method].Outputs.Pack(value)
	require.NoError(t, err)
	return out
}

func TestClient_GetTokenInfo(t *testing.T) {
	caller := &stubCaller{outputs: map[string][]byte{}}
	client := newStubClient(t, caller)

	symbolSelector := fmt.Sprintf("%x", client.erc20.Methods["symbol"].ID)
	nameSelector := fmt.Sprintf("%x", client.erc20.Methods["name"].ID)
	caller.outputs[symbolSelector] = packString(t, client, "symbol", "USDT")
	caller.outputs[nameSelector] = packString(t, client, "name", "Tether USD")

	symbol, name, err := client.GetTokenInfo(context.Background(), "0xdac17f958d2ee523a2206206994597c13d831ec7")

	require.NoError(t, err)
	assert.Equal(t, "USDT", symbol)
	assert.Equal(t, "Tether USD", name)
}

func TestClient_GetTokenInfo_CallFailure(t *testing.T) {
	client := newStubClient(t, &stubCaller{err: fmt.Errorf("execution reverted")})

	symbol, name, err := client.GetTokenInfo(context.Background(), "0xc0ffee254729296a45a3885639ac7e10f9d54979")

	require.Error(t, err)
	assert.Empty(t, symbol)
	assert.Empty(t, name)
}
