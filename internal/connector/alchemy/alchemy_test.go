package alchemy_test

import (
	"context"

	"github.com/jarcoal/httpmock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dwarvesf/eth-tx-tracker/internal/connector/alchemy"
	"github.com/dwarvesf/eth-tx-tracker/internal/types/environments"
	"github.com/dwarvesf/eth-tx-tracker/internal/utils/config"
	"github.com/dwarvesf/eth-tx-tracker/internal/utils/logger"
)

const apiURL = "https://eth-mainnet.g.alchemy.com/v2/test-key"

func newTestClient(tokens alchemy.TokenInfoResolver) *alchemy.Client {
	cfg := &config.AppConfig{
		Alchemy: config.AlchemyConfig{APIKey: "test-key"},
	}
	return alchemy.New(cfg, logger.New(environments.Test), tokens)
}

type staticResolver struct{}

func (staticResolver) GetTokenInfo(_ context.Context, _ string) (string, string, error) {
	return "USDC", "USD Coin", nil
}

var _ = Describe("Client", func() {
	AfterEach(func() {
		httpmock.Reset()
	})

	Describe("#GetNormalTransactions", func() {
		It("maps transfers onto the raw transaction shape", func() {
			res := `{"jsonrpc":"2.0","id":1,"result":{"transfers":[
				{"hash":"0xabc","from":"0x1","to":"0x2","value":1.5,
				 "blockNum":"0x10d4f","metadata":{"blockTimestamp":"2025-01-01T00:15:00Z"}}
			]}}`
			httpmock.RegisterResponder("POST", apiURL, httpmock.NewStringResponder(200, res))

			txs, err := newTestClient(nil).GetNormalTransactions(context.Background(), "0x1", 0, 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(txs).To(HaveLen(1))
			Expect(txs[0].Hash).To(Equal("0xabc"))
			Expect(txs[0].Value).To(Equal("1.5"))
			Expect(txs[0].BlockNumber).To(Equal("68943"))
			Expect(txs[0].TimeStamp).To(Equal("1735690500"))
		})

		It("filters transfers outside the epoch range", func() {
			res := `{"jsonrpc":"2.0","id":1,"result":{"transfers":[
				{"hash":"0xin","from":"0x1","to":"0x2","value":1,
				 "blockNum":"0x1","metadata":{"blockTimestamp":"2025-01-01T00:10:00Z"}},
				{"hash":"0xout","from":"0x1","to":"0x2","value":2,
				 "blockNum":"0x2","metadata":{"blockTimestamp":"2025-01-02T00:00:00Z"}}
			]}}`
			httpmock.RegisterResponder("POST", apiURL, httpmock.NewStringResponder(200, res))

			txs, err := newTestClient(nil).GetNormalTransactions(context.Background(), "0x1", 1735689600, 1735693200)
			Expect(err).ToNot(HaveOccurred())
			Expect(txs).To(HaveLen(1))
			Expect(txs[0].Hash).To(Equal("0xin"))
		})

		When("the rpc response has an error field", func() {
			It("returns an error", func() {
				res := `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"capacity exceeded"}}`
				httpmock.RegisterResponder("POST", apiURL, httpmock.NewStringResponder(200, res))

				txs, err := newTestClient(nil).GetNormalTransactions(context.Background(), "0x1", 0, 0)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("rpc error"))
				Expect(txs).To(BeEmpty())
			})
		})
	})

	Describe("#GetERC721Transfers", func() {
		It("forces the value to a single unit", func() {
			res := `{"jsonrpc":"2.0","id":1,"result":{"transfers":[
				{"hash":"0xnft","from":"0x1","to":"0x2","value":0,"tokenId":"42",
				 "asset":"COOLNFT","rawContract":{"address":"0xc0ffee"},
				 "blockNum":"0x3","metadata":{"blockTimestamp":"2025-01-01T00:05:00Z"}}
			]}}`
			httpmock.RegisterResponder("POST", apiURL, httpmock.NewStringResponder(200, res))

			txs, err := newTestClient(nil).GetERC721Transfers(context.Background(), "0x1", 0, 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(txs).To(HaveLen(1))
			Expect(txs[0].Value).To(Equal("1"))
			Expect(txs[0].TokenID).To(Equal("42"))
			Expect(txs[0].ContractAddress).To(Equal("0xc0ffee"))
		})
	})

	Describe("unsupported categories", func() {
		It("returns empty lists without calling the API", func() {
			client := newTestClient(nil)

			internal, err := client.GetInternalTransactions(context.Background(), "0x1", 0, 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(internal).To(BeEmpty())

			erc1155, err := client.GetERC1155Transfers(context.Background(), "0x1", 0, 0)
			Expect(err).ToNot(HaveOccurred())
			Expect(erc1155).To(BeEmpty())

			Expect(httpmock.GetTotalCallCount()).To(BeZero())
		})
	})

	Describe("#GetTokenInfo", func() {
		It("returns Unknown without a resolver", func() {
			symbol, name, err := newTestClient(nil).GetTokenInfo(context.Background(), "0xc0ffee")
			Expect(err).ToNot(HaveOccurred())
			Expect(symbol).To(Equal("Unknown"))
			Expect(name).To(Equal("Unknown"))
		})

		It("delegates to the resolver when present", func() {
			symbol, name, err := newTestClient(staticResolver{}).GetTokenInfo(context.Background(), "0xc0ffee")
			Expect(err).ToNot(HaveOccurred())
			Expect(symbol).To(Equal("USDC"))
			Expect(name).To(Equal("USD Coin"))
		})
	})

	Describe("#GetBlockNumberByTimestamp", func() {
		It("estimates at twelve seconds per block", func() {
			block, err := newTestClient(nil).GetBlockNumberByTimestamp(context.Background(), 1735689600)
			Expect(err).ToNot(HaveOccurred())
			Expect(block).To(Equal(int64(1735689600 / 12)))
		})
	})
})
