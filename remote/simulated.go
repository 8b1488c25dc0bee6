package remote

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/santiagomed/launchpad/ledger"
)

var memoProgramID = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")

const (
	simulatedQueueSize  = 5120
	simulatedMarketSize = 388
	simulatedLPSupply   = 1_000_000_000
)

// Simulated builds structurally valid plans that only touch the system, token
// and memo programs. It backs dry runs against ledger.Memory and tests.
type Simulated struct {
	ledger *ledger.Memory
}

// NewSimulated returns a simulated SDK. When mem is non-nil the LP tokens of
// every built pool are credited to the owner so a later burn finds them.
func NewSimulated(mem *ledger.Memory) *Simulated {
	return &Simulated{ledger: mem}
}

func (s *Simulated) BuildCreateMarket(ctx context.Context, owner solana.PublicKey, req MarketRequest) (Plan, error) {
	if req.TickSize <= 0 || req.OrderSize <= 0 {
		return Plan{}, fmt.Errorf("order size and tick size must be positive")
	}
	market, err := solana.NewRandomPrivateKey()
	if err != nil {
		return Plan{}, err
	}
	events, err := solana.NewRandomPrivateKey()
	if err != nil {
		return Plan{}, err
	}
	requests, err := solana.NewRandomPrivateKey()
	if err != nil {
		return Plan{}, err
	}

	queues := []solana.Instruction{
		s.allocate(owner, events.PublicKey(), simulatedQueueSize),
		s.allocate(owner, requests.PublicKey(), simulatedQueueSize),
	}
	init := []solana.Instruction{
		s.allocate(owner, market.PublicKey(), simulatedMarketSize),
		memo(owner, fmt.Sprintf("market %s/%s tick=%g lot=%g", req.BaseMint, req.QuoteMint, req.TickSize, req.OrderSize)),
	}
	return Plan{
		Transactions: [][]solana.Instruction{queues, init},
		Signers:      []solana.PrivateKey{market, events, requests},
		Artifact:     market.PublicKey().String(),
	}, nil
}

func (s *Simulated) BuildAddLiquidity(ctx context.Context, owner solana.PublicKey, req LiquidityRequest) (Plan, error) {
	if req.BaseAmount == 0 || req.QuoteAmount == 0 {
		return Plan{}, fmt.Errorf("liquidity amounts must be positive")
	}
	lpKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return Plan{}, err
	}
	lp := lpKey.PublicKey()
	ata, _, err := solana.FindAssociatedTokenAddress(owner, lp)
	if err != nil {
		return Plan{}, err
	}

	pool := []solana.Instruction{
		s.allocate(owner, lp, mintAccountSize),
		token.NewInitializeMintInstruction(req.BaseDecimals, owner, owner, lp, solana.SysVarRentPubkey).Build(),
		associatedtokenaccount.NewCreateInstruction(owner, owner, lp).Build(),
	}
	deposit := []solana.Instruction{
		system.NewTransferInstruction(req.QuoteAmount, owner, owner).Build(),
		token.NewMintToInstruction(simulatedLPSupply, lp, ata, owner, nil).Build(),
		memo(owner, fmt.Sprintf("pool %s base=%d quote=%d", req.Market, req.BaseAmount, req.QuoteAmount)),
	}

	if s.ledger != nil {
		if _, err := s.ledger.CreditTokens(owner, lp, simulatedLPSupply); err != nil {
			return Plan{}, err
		}
	}
	return Plan{
		Transactions: [][]solana.Instruction{pool, deposit},
		Signers:      []solana.PrivateKey{lpKey},
		Artifact:     lp.String(),
	}, nil
}

func (s *Simulated) BuildTokenMetadata(ctx context.Context, owner solana.PublicKey, req TokenMetadataRequest) ([]solana.Instruction, error) {
	return []solana.Instruction{
		memo(owner, fmt.Sprintf("metadata %s %s %s", req.Mint, req.Symbol, req.URI)),
	}, nil
}

func (s *Simulated) allocate(owner, account solana.PublicKey, size uint64) solana.Instruction {
	// Rent is paid at the dry-run rate; the memory ledger does not check it.
	lamports := (size + 128) * 6960
	return system.NewCreateAccountInstruction(lamports, size, solana.TokenProgramID, owner, account).Build()
}

func memo(signer solana.PublicKey, text string) solana.Instruction {
	return solana.NewInstruction(
		memoProgramID,
		solana.AccountMetaSlice{solana.NewAccountMeta(signer, false, true)},
		[]byte(text),
	)
}
