package remote

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/santiagomed/launchpad/metadata"
)

// Plan is the output of an SDK builder: instruction groups that must be
// submitted as separate transactions in the given order, the extra keys that
// have to co-sign them, and the identifier of what they create.
type Plan struct {
	Transactions [][]solana.Instruction
	Signers      []solana.PrivateKey
	Artifact     string
}

type MarketRequest struct {
	BaseMint      solana.PublicKey
	QuoteMint     solana.PublicKey
	BaseDecimals  uint8
	QuoteDecimals uint8
	OrderSize     float64
	TickSize      float64
}

type LiquidityRequest struct {
	Market        solana.PublicKey
	BaseMint      solana.PublicKey
	QuoteMint     solana.PublicKey
	BaseDecimals  uint8
	QuoteDecimals uint8
	// BaseAmount is in base units of the token, QuoteAmount in lamports.
	BaseAmount  uint64
	QuoteAmount uint64
}

type TokenMetadataRequest struct {
	Mint   solana.PublicKey
	Name   string
	Symbol string
	URI    string
}

// MarketSDK builds the transactions that create an order book market.
type MarketSDK interface {
	BuildCreateMarket(ctx context.Context, owner solana.PublicKey, req MarketRequest) (Plan, error)
}

// LiquiditySDK builds the transactions that open an AMM pool and deposit the
// initial liquidity. Plan.Artifact is the LP mint.
type LiquiditySDK interface {
	BuildAddLiquidity(ctx context.Context, owner solana.PublicKey, req LiquidityRequest) (Plan, error)
}

// MetadataSDK builds the instructions that attach on-chain token metadata to
// a new mint.
type MetadataSDK interface {
	BuildTokenMetadata(ctx context.Context, owner solana.PublicKey, req TokenMetadataRequest) ([]solana.Instruction, error)
}

// MetadataUploader stores the logo and metadata document and returns the
// document URI.
type MetadataUploader interface {
	Upload(ctx context.Context, token metadata.Token) (string, error)
}
