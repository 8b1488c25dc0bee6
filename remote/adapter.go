// Package remote wraps every chain-side operation of the launch pipeline
// behind a single Execute call.
package remote

import (
	"context"
	"fmt"
)

// OperationKind identifies one coarse-grained remote operation.
type OperationKind int

const (
	CreateToken OperationKind = iota
	RevokeMintAuthority
	RevokeFreezeAuthority
	CreateMarket
	AddLiquidity
	BurnToken
)

var operationNames = [...]string{
	CreateToken:           "CreateToken",
	RevokeMintAuthority:   "RevokeMintAuthority",
	RevokeFreezeAuthority: "RevokeFreezeAuthority",
	CreateMarket:          "CreateMarket",
	AddLiquidity:          "AddLiquidity",
	BurnToken:             "BurnToken",
}

func (k OperationKind) String() string {
	if k < 0 || int(k) >= len(operationNames) {
		return fmt.Sprintf("OperationKind(%d)", int(k))
	}
	return operationNames[k]
}

// MarketParams are the order book parameters for CreateMarket.
type MarketParams struct {
	QuoteMint     string
	QuoteDecimals uint8
	OrderSize     float64
	TickSize      float64
}

// Args is a read-only snapshot of everything an operation needs. Only the
// fields relevant to the operation kind are read.
type Args struct {
	Name        string
	Symbol      string
	Description string
	Logo        []byte
	LogoName    string
	Decimals    uint8
	Quantity    uint64

	Mint   string
	Market string
	LPMint string

	// BaseAmount is in whole tokens, QuoteLamports in lamports.
	BaseAmount    uint64
	QuoteLamports uint64

	MarketParams MarketParams
}

// Artifact is what a successful operation produced. Address is the mint,
// market or LP mint for the operations that create one and empty otherwise.
type Artifact struct {
	Address     string
	MetadataURI string
	Signatures  []string
}

// Adapter executes remote operations. A non-nil error is always an
// *OperationError.
type Adapter interface {
	Execute(ctx context.Context, kind OperationKind, args Args) (Artifact, error)
}
