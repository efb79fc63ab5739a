package model

// TxCategory identifies which provider endpoint a raw record came from.
type TxCategory string

const (
	CategoryNormal   TxCategory = "normal"
	CategoryInternal TxCategory = "internal"
	CategoryERC20    TxCategory = "erc20"
	CategoryERC721   TxCategory = "erc721"
	CategoryERC1155  TxCategory = "erc1155"
)

// AllCategories lists every category the polling engine fetches per chunk.
var AllCategories = []TxCategory{
	CategoryNormal,
	CategoryInternal,
	CategoryERC20,
	CategoryERC721,
	CategoryERC1155,
}

type TransactionType string

const (
	TxTypeETHTransfer         TransactionType = "ETH Transfer"
	TxTypeInternalTransfer    TransactionType = "Internal Transfer"
	TxTypeERC20Transfer       TransactionType = "ERC-20 Transfer"
	TxTypeERC721Transfer      TransactionType = "ERC-721 Transfer"
	TxTypeERC1155Transfer     TransactionType = "ERC-1155 Transfer"
	TxTypeUniswapTrade        TransactionType = "Uniswap Trade"
	TxTypeContractInteraction TransactionType = "Contract Interaction"
	TxTypeError               TransactionType = "ERROR"
)

// RawTransaction is the Etherscan-shaped record returned by every connector.
// The Alchemy connector maps its transfer objects onto this shape so the
// normalizer only has to deal with one input format. All fields are string
// passthrough; absent fields stay empty.
type RawTransaction struct {
	Hash            string `json:"hash"`
	TimeStamp       string `json:"timeStamp"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	Input           string `json:"input"`
	ContractAddress string `json:"contractAddress"`
	TokenName       string `json:"tokenName"`
	TokenSymbol     string `json:"tokenSymbol"`
	TokenDecimal    string `json:"tokenDecimal"`
	TokenID         string `json:"tokenID"`
	GasUsed         string `json:"gasUsed"`
	GasPrice        string `json:"gasPrice"`
	BlockNumber     string `json:"blockNumber"`
	Confirmations   string `json:"confirmations"`
	IsError         string `json:"isError"`
}

// Transaction is the canonical, provider-agnostic record the pipeline emits.
type Transaction struct {
	Hash                 string
	DateTime             string
	FromAddress          string
	ToAddress            string
	Type                 TransactionType
	AssetContractAddress string
	AssetSymbolName      string
	TokenID              string
	ValueAmount          string
	GasFeeETH            string

	// raw provider passthrough, not exported to the CSV
	GasPrice      string
	BlockNumber   string
	Confirmations string
	IsError       string
}
