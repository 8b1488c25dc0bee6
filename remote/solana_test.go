package remote

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santiagomed/launchpad/ledger"
	"github.com/santiagomed/launchpad/logger"
	"github.com/santiagomed/launchpad/metadata"
	"github.com/santiagomed/launchpad/wallet"
)

type uploaderFunc func(ctx context.Context, t metadata.Token) (string, error)

func (f uploaderFunc) Upload(ctx context.Context, t metadata.Token) (string, error) {
	return f(ctx, t)
}

var staticUploader = uploaderFunc(func(ctx context.Context, t metadata.Token) (string, error) {
	return "https://cdn.example/" + t.Symbol + "/metadata.json", nil
})

// failingLedger fails the nth send.
type failingLedger struct {
	*ledger.Memory
	failOn int32
	sends  atomic.Int32
}

func (l *failingLedger) SendRawTransaction(ctx context.Context, raw []byte) (solana.Signature, error) {
	if l.sends.Add(1) == l.failOn {
		return solana.Signature{}, errors.New("blockhash not found")
	}
	return l.Memory.SendRawTransaction(ctx, raw)
}

type fixture struct {
	mem     *ledger.Memory
	wallet  *wallet.Local
	owner   solana.PublicKey
	adapter *Solana
}

func newFixture(t *testing.T, mods ...func(*SolanaOptions)) *fixture {
	t.Helper()
	mem := ledger.NewMemory()
	w, err := wallet.Ephemeral()
	require.NoError(t, err)
	owner, _ := w.PublicKey()
	mem.Airdrop(owner, 10*solana.LAMPORTS_PER_SOL)

	sim := NewSimulated(mem)
	opts := SolanaOptions{
		Ledger:        mem,
		Wallet:        w,
		Uploader:      staticUploader,
		Market:        sim,
		Liquidity:     sim,
		TokenMetadata: sim,
		Logger:        logger.NewNullLogger(),
	}
	for _, m := range mods {
		m(&opts)
	}
	adapter, err := NewSolana(opts)
	require.NoError(t, err)
	return &fixture{mem: mem, wallet: w, owner: owner, adapter: adapter}
}

func tokenArgs() Args {
	return Args{
		Name:     "Foo",
		Symbol:   "FOO",
		Logo:     []byte("\x89PNG\r\n\x1a\n"),
		LogoName: "foo.png",
		Decimals: 9,
		Quantity: 1_000_000,
		MarketParams: MarketParams{
			QuoteMint:     "So11111111111111111111111111111111111111112",
			QuoteDecimals: 9,
			OrderSize:     1,
			TickSize:      0.01,
		},
	}
}

func requireKind(t *testing.T, err error, kind ErrorKind) *OperationError {
	t.Helper()
	var opErr *OperationError
	require.True(t, errors.As(err, &opErr), "expected *OperationError, got %v", err)
	assert.Equal(t, kind, opErr.Kind, opErr.Error())
	return opErr
}

func TestCreateToken(t *testing.T) {
	f := newFixture(t)

	art, err := f.adapter.Execute(context.Background(), CreateToken, tokenArgs())
	require.NoError(t, err)

	mint, err := solana.PublicKeyFromBase58(art.Address)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/FOO/metadata.json", art.MetadataURI)
	require.Len(t, art.Signatures, 1)

	sent := f.mem.Sent()
	require.Len(t, sent, 1)
	tx := sent[0]
	assert.Equal(t, art.Signatures[0], tx.Signatures[0].String())
	assert.True(t, tx.Message.AccountKeys[0].Equals(f.owner))
	assert.True(t, wallet.IsSigner(tx, mint))
	assert.Len(t, tx.Message.Instructions, 5)
}

func TestCreateTokenWithoutMetadataSDK(t *testing.T) {
	f := newFixture(t, func(o *SolanaOptions) { o.TokenMetadata = nil })

	_, err := f.adapter.Execute(context.Background(), CreateToken, tokenArgs())
	require.NoError(t, err)
	assert.Len(t, f.mem.Sent()[0].Message.Instructions, 4)
}

func TestCreateTokenOverflow(t *testing.T) {
	f := newFixture(t)
	args := tokenArgs()
	args.Quantity = 1 << 62

	_, err := f.adapter.Execute(context.Background(), CreateToken, args)
	requireKind(t, err, KindMalformed)
	assert.Empty(t, f.mem.Sent())
}

func TestCreateTokenUploadFailure(t *testing.T) {
	f := newFixture(t, func(o *SolanaOptions) {
		o.Uploader = uploaderFunc(func(ctx context.Context, t metadata.Token) (string, error) {
			return "", errors.New("bucket unavailable")
		})
	})

	_, err := f.adapter.Execute(context.Background(), CreateToken, tokenArgs())
	opErr := requireKind(t, err, KindNetwork)
	assert.Equal(t, CreateToken, opErr.Op)
	assert.Empty(t, f.mem.Sent())
}

func TestExecuteNotConnected(t *testing.T) {
	f := newFixture(t, func(o *SolanaOptions) { o.Wallet = wallet.Disconnected() })

	_, err := f.adapter.Execute(context.Background(), RevokeMintAuthority, Args{Mint: solana.NewWallet().PublicKey().String()})
	requireKind(t, err, KindNotConnected)
}

func TestExecuteRejected(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	w := wallet.NewLocal(key, func(ctx context.Context, tx *solana.Transaction) error {
		return errors.New("user declined")
	})
	f := newFixture(t, func(o *SolanaOptions) { o.Wallet = w })

	_, err = f.adapter.Execute(context.Background(), RevokeFreezeAuthority, Args{Mint: solana.NewWallet().PublicKey().String()})
	requireKind(t, err, KindRejected)
	assert.Empty(t, f.mem.Sent())
}

func TestRevokeAuthorities(t *testing.T) {
	f := newFixture(t)
	mint := solana.NewWallet().PublicKey().String()

	for _, kind := range []OperationKind{RevokeMintAuthority, RevokeFreezeAuthority} {
		art, err := f.adapter.Execute(context.Background(), kind, Args{Mint: mint})
		require.NoError(t, err, kind.String())
		assert.Empty(t, art.Address)
		assert.Len(t, art.Signatures, 1)
	}
	assert.Len(t, f.mem.Sent(), 2)

	_, err := f.adapter.Execute(context.Background(), RevokeMintAuthority, Args{Mint: "not-a-key"})
	requireKind(t, err, KindMalformed)
}

func TestCreateMarket(t *testing.T) {
	f := newFixture(t)
	args := tokenArgs()
	args.Mint = solana.NewWallet().PublicKey().String()

	art, err := f.adapter.Execute(context.Background(), CreateMarket, args)
	require.NoError(t, err)
	_, err = solana.PublicKeyFromBase58(art.Address)
	require.NoError(t, err)
	assert.Len(t, art.Signatures, 2)
	assert.Len(t, f.mem.Sent(), 2)
}

func TestCreateMarketStopsAtFirstFailure(t *testing.T) {
	mem := ledger.NewMemory()
	fl := &failingLedger{Memory: mem, failOn: 2}
	f := newFixture(t, func(o *SolanaOptions) { o.Ledger = fl })

	args := tokenArgs()
	args.Mint = solana.NewWallet().PublicKey().String()

	art, err := f.adapter.Execute(context.Background(), CreateMarket, args)
	opErr := requireKind(t, err, KindNetwork)
	assert.Contains(t, opErr.Error(), "transaction 2/2 after 1 sent")
	assert.Empty(t, art.Address)
	assert.Empty(t, art.Signatures)
	assert.Len(t, mem.Sent(), 1)
	assert.Equal(t, int32(2), fl.sends.Load())
}

func TestSimulationFailure(t *testing.T) {
	f := newFixture(t)
	args := tokenArgs()
	args.Mint = solana.NewWallet().PublicKey().String()

	f.mem.FailNextSimulation("custom program error: 0x1")
	_, err := f.adapter.Execute(context.Background(), CreateMarket, args)
	requireKind(t, err, KindSimulation)

	f.mem.FailNextSimulation("Transfer: insufficient lamports 10, need 20")
	_, err = f.adapter.Execute(context.Background(), RevokeMintAuthority, args)
	requireKind(t, err, KindInsufficientFunds)
	assert.Empty(t, f.mem.Sent())
}

func TestAddLiquidityAndBurn(t *testing.T) {
	f := newFixture(t)
	args := tokenArgs()
	args.Mint = solana.NewWallet().PublicKey().String()
	args.Market = solana.NewWallet().PublicKey().String()
	args.BaseAmount = 1_000_000
	args.QuoteLamports = 2 * solana.LAMPORTS_PER_SOL

	art, err := f.adapter.Execute(context.Background(), AddLiquidity, args)
	require.NoError(t, err)
	lpMint, err := solana.PublicKeyFromBase58(art.Address)
	require.NoError(t, err)
	assert.Len(t, art.Signatures, 2)

	burn, err := f.adapter.Execute(context.Background(), BurnToken, Args{LPMint: art.Address})
	require.NoError(t, err)
	ata, _, err := solana.FindAssociatedTokenAddress(f.owner, lpMint)
	require.NoError(t, err)
	assert.Equal(t, ata.String(), burn.Address)
	assert.Len(t, f.mem.Sent(), 3)
}

func TestAddLiquidityInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	args := tokenArgs()
	args.Mint = solana.NewWallet().PublicKey().String()
	args.Market = solana.NewWallet().PublicKey().String()
	args.BaseAmount = 1_000_000
	args.QuoteLamports = 100 * solana.LAMPORTS_PER_SOL

	_, err := f.adapter.Execute(context.Background(), AddLiquidity, args)
	requireKind(t, err, KindInsufficientFunds)
	assert.Empty(t, f.mem.Sent())
}

func TestBurnWithoutLPAccount(t *testing.T) {
	f := newFixture(t)
	_, err := f.adapter.Execute(context.Background(), BurnToken, Args{LPMint: solana.NewWallet().PublicKey().String()})
	requireKind(t, err, KindMalformed)
}

func TestMalformedPlan(t *testing.T) {
	f := newFixture(t, func(o *SolanaOptions) {
		o.Market = marketFunc(func(ctx context.Context, owner solana.PublicKey, req MarketRequest) (Plan, error) {
			return Plan{Artifact: ""}, nil
		})
	})
	args := tokenArgs()
	args.Mint = solana.NewWallet().PublicKey().String()

	_, err := f.adapter.Execute(context.Background(), CreateMarket, args)
	requireKind(t, err, KindMalformed)
}

func TestContextCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.adapter.Execute(ctx, RevokeMintAuthority, Args{Mint: solana.NewWallet().PublicKey().String()})
	requireKind(t, err, KindTimeout)
}

func TestUnknownOperation(t *testing.T) {
	f := newFixture(t)
	_, err := f.adapter.Execute(context.Background(), OperationKind(42), Args{})
	requireKind(t, err, KindUnsupported)
}

func TestBaseUnits(t *testing.T) {
	v, err := BaseUnits(1_000_000, 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000_000_000), v)

	v, err = BaseUnits(0, 9)
	require.NoError(t, err)
	assert.Zero(t, v)

	_, err = BaseUnits(20_000_000_000, 9)
	assert.Error(t, err)
}

type marketFunc func(ctx context.Context, owner solana.PublicKey, req MarketRequest) (Plan, error)

func (f marketFunc) BuildCreateMarket(ctx context.Context, owner solana.PublicKey, req MarketRequest) (Plan, error) {
	return f(ctx, owner, req)
}
