package remote

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/gagliardetto/solana-go"

	"github.com/santiagomed/launchpad/ledger"
	"github.com/santiagomed/launchpad/logger"
	"github.com/santiagomed/launchpad/wallet"
)

// Solana is the Adapter that talks to a Solana cluster.
type Solana struct {
	ledger    ledger.Client
	wallet    wallet.Wallet
	uploader  MetadataUploader
	market    MarketSDK
	liquidity LiquiditySDK
	tokenMeta MetadataSDK
	logger    logger.Logger
}

type SolanaOptions struct {
	Ledger    ledger.Client
	Wallet    wallet.Wallet
	Uploader  MetadataUploader
	Market    MarketSDK
	Liquidity LiquiditySDK
	// TokenMetadata is optional; without it mints are created without
	// on-chain metadata.
	TokenMetadata MetadataSDK
	Logger        logger.Logger
}

func NewSolana(opts SolanaOptions) (*Solana, error) {
	if opts.Ledger == nil {
		return nil, errors.New("ledger client is required")
	}
	if opts.Wallet == nil {
		return nil, errors.New("wallet is required")
	}
	if opts.Uploader == nil {
		return nil, errors.New("metadata uploader is required")
	}
	if opts.Market == nil || opts.Liquidity == nil {
		return nil, errors.New("market and liquidity SDKs are required")
	}
	l := opts.Logger
	if l == nil {
		l = logger.NewNullLogger()
	}
	return &Solana{
		ledger:    opts.Ledger,
		wallet:    opts.Wallet,
		uploader:  opts.Uploader,
		market:    opts.Market,
		liquidity: opts.Liquidity,
		tokenMeta: opts.TokenMetadata,
		logger:    l.WithField("component", "adapter"),
	}, nil
}

func (s *Solana) Execute(ctx context.Context, kind OperationKind, args Args) (Artifact, error) {
	owner, ok := s.wallet.PublicKey()
	if !ok {
		return Artifact{}, newError(kind, KindNotConnected, "wallet not connected", wallet.ErrNotConnected)
	}

	s.logger.Debug(fmt.Sprintf("Executing %s for %s", kind, owner))
	var (
		art Artifact
		err error
	)
	switch kind {
	case CreateToken:
		art, err = s.createToken(ctx, owner, args)
	case RevokeMintAuthority:
		art, err = s.revokeAuthority(ctx, kind, owner, args)
	case RevokeFreezeAuthority:
		art, err = s.revokeAuthority(ctx, kind, owner, args)
	case CreateMarket:
		art, err = s.createMarket(ctx, owner, args)
	case AddLiquidity:
		art, err = s.addLiquidity(ctx, owner, args)
	case BurnToken:
		art, err = s.burnLP(ctx, owner, args)
	default:
		err = newError(kind, KindUnsupported, "unknown operation", nil)
	}
	if err != nil {
		opErr := normalize(kind, err)
		s.logger.Error(opErr.Error())
		return Artifact{}, opErr
	}
	s.logger.Info(fmt.Sprintf("%s succeeded (%d transactions)", kind, len(art.Signatures)))
	return art, nil
}

func (s *Solana) createMarket(ctx context.Context, owner solana.PublicKey, args Args) (Artifact, error) {
	base, err := parseKey(CreateMarket, "mint", args.Mint)
	if err != nil {
		return Artifact{}, err
	}
	quote, err := parseKey(CreateMarket, "quote mint", args.MarketParams.QuoteMint)
	if err != nil {
		return Artifact{}, err
	}

	plan, err := s.market.BuildCreateMarket(ctx, owner, MarketRequest{
		BaseMint:      base,
		QuoteMint:     quote,
		BaseDecimals:  args.Decimals,
		QuoteDecimals: args.MarketParams.QuoteDecimals,
		OrderSize:     args.MarketParams.OrderSize,
		TickSize:      args.MarketParams.TickSize,
	})
	if err != nil {
		return Artifact{}, fmt.Errorf("build market: %w", err)
	}
	return s.runPlan(ctx, CreateMarket, owner, plan)
}

func (s *Solana) addLiquidity(ctx context.Context, owner solana.PublicKey, args Args) (Artifact, error) {
	market, err := parseKey(AddLiquidity, "market id", args.Market)
	if err != nil {
		return Artifact{}, err
	}
	base, err := parseKey(AddLiquidity, "mint", args.Mint)
	if err != nil {
		return Artifact{}, err
	}
	quote, err := parseKey(AddLiquidity, "quote mint", args.MarketParams.QuoteMint)
	if err != nil {
		return Artifact{}, err
	}
	baseAmount, err := BaseUnits(args.BaseAmount, args.Decimals)
	if err != nil {
		return Artifact{}, newError(AddLiquidity, KindMalformed, "token amount", err)
	}

	balance, err := s.ledger.GetBalance(ctx, owner)
	if err != nil {
		return Artifact{}, err
	}
	if balance < args.QuoteLamports {
		return Artifact{}, newError(AddLiquidity, KindInsufficientFunds,
			fmt.Sprintf("wallet holds %d lamports, %d required", balance, args.QuoteLamports), nil)
	}

	plan, err := s.liquidity.BuildAddLiquidity(ctx, owner, LiquidityRequest{
		Market:        market,
		BaseMint:      base,
		QuoteMint:     quote,
		BaseDecimals:  args.Decimals,
		QuoteDecimals: args.MarketParams.QuoteDecimals,
		BaseAmount:    baseAmount,
		QuoteAmount:   args.QuoteLamports,
	})
	if err != nil {
		return Artifact{}, fmt.Errorf("build liquidity pool: %w", err)
	}
	return s.runPlan(ctx, AddLiquidity, owner, plan)
}

func (s *Solana) runPlan(ctx context.Context, op OperationKind, owner solana.PublicKey, plan Plan) (Artifact, error) {
	if _, err := solana.PublicKeyFromBase58(plan.Artifact); err != nil {
		return Artifact{}, newError(op, KindMalformed, fmt.Sprintf("SDK returned invalid identifier %q", plan.Artifact), err)
	}
	sigs, err := s.submit(ctx, op, owner, plan.Transactions, plan.Signers)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Address: plan.Artifact, Signatures: sigs}, nil
}

func parseKey(op OperationKind, what, value string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, newError(op, KindMalformed, fmt.Sprintf("invalid %s %q", what, value), err)
	}
	return key, nil
}

// BaseUnits converts a whole-token amount to base units, failing on overflow.
func BaseUnits(amount uint64, decimals uint8) (uint64, error) {
	if decimals > 19 {
		return 0, fmt.Errorf("decimals %d out of range", decimals)
	}
	scale := uint64(1)
	for i := uint8(0); i < decimals; i++ {
		scale *= 10
	}
	if amount != 0 && amount > math.MaxUint64/scale {
		return 0, fmt.Errorf("%d tokens with %d decimals overflows u64", amount, decimals)
	}
	return amount * scale, nil
}
