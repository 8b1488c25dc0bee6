package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/santiagomed/launchpad/logger"
)

// Bridge builds market, liquidity and metadata transactions by asking an
// external SDK service over HTTP. The service returns unsigned instruction
// groups plus any ephemeral keys that must co-sign them.
type Bridge struct {
	baseURL string
	client  *http.Client
	logger  logger.Logger
}

func NewBridge(baseURL string, timeout time.Duration, l logger.Logger) *Bridge {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if l == nil {
		l = logger.NewNullLogger()
	}
	return &Bridge{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  l.WithField("component", "sdk-bridge"),
	}
}

type bridgeAccount struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"is_signer"`
	IsWritable bool   `json:"is_writable"`
}

type bridgeInstruction struct {
	ProgramID string          `json:"program_id"`
	Accounts  []bridgeAccount `json:"accounts"`
	Data      string          `json:"data"`
}

type bridgeResponse struct {
	Artifact     string                `json:"artifact"`
	Transactions [][]bridgeInstruction `json:"transactions"`
	Signers      []string              `json:"signers"`
	Error        string                `json:"error,omitempty"`
}

type marketBody struct {
	Owner         string  `json:"owner"`
	BaseMint      string  `json:"base_mint"`
	QuoteMint     string  `json:"quote_mint"`
	BaseDecimals  uint8   `json:"base_decimals"`
	QuoteDecimals uint8   `json:"quote_decimals"`
	OrderSize     float64 `json:"order_size"`
	TickSize      float64 `json:"tick_size"`
}

type liquidityBody struct {
	Owner         string `json:"owner"`
	Market        string `json:"market"`
	BaseMint      string `json:"base_mint"`
	QuoteMint     string `json:"quote_mint"`
	BaseDecimals  uint8  `json:"base_decimals"`
	QuoteDecimals uint8  `json:"quote_decimals"`
	BaseAmount    uint64 `json:"base_amount"`
	QuoteAmount   uint64 `json:"quote_amount"`
}

type metadataBody struct {
	Owner  string `json:"owner"`
	Mint   string `json:"mint"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	URI    string `json:"uri"`
}

func (b *Bridge) BuildCreateMarket(ctx context.Context, owner solana.PublicKey, req MarketRequest) (Plan, error) {
	resp, err := b.post(ctx, "/market", marketBody{
		Owner:         owner.String(),
		BaseMint:      req.BaseMint.String(),
		QuoteMint:     req.QuoteMint.String(),
		BaseDecimals:  req.BaseDecimals,
		QuoteDecimals: req.QuoteDecimals,
		OrderSize:     req.OrderSize,
		TickSize:      req.TickSize,
	})
	if err != nil {
		return Plan{}, err
	}
	return resp.plan()
}

func (b *Bridge) BuildAddLiquidity(ctx context.Context, owner solana.PublicKey, req LiquidityRequest) (Plan, error) {
	resp, err := b.post(ctx, "/liquidity", liquidityBody{
		Owner:         owner.String(),
		Market:        req.Market.String(),
		BaseMint:      req.BaseMint.String(),
		QuoteMint:     req.QuoteMint.String(),
		BaseDecimals:  req.BaseDecimals,
		QuoteDecimals: req.QuoteDecimals,
		BaseAmount:    req.BaseAmount,
		QuoteAmount:   req.QuoteAmount,
	})
	if err != nil {
		return Plan{}, err
	}
	return resp.plan()
}

func (b *Bridge) BuildTokenMetadata(ctx context.Context, owner solana.PublicKey, req TokenMetadataRequest) ([]solana.Instruction, error) {
	resp, err := b.post(ctx, "/token-metadata", metadataBody{
		Owner:  owner.String(),
		Mint:   req.Mint.String(),
		Name:   req.Name,
		Symbol: req.Symbol,
		URI:    req.URI,
	})
	if err != nil {
		return nil, err
	}
	plan, err := resp.plan()
	if err != nil {
		return nil, err
	}
	if len(plan.Transactions) != 1 || len(plan.Signers) != 0 {
		return nil, fmt.Errorf("metadata plan must be a single unsigned group, got %d groups", len(plan.Transactions))
	}
	return plan.Transactions[0], nil
}

func (b *Bridge) post(ctx context.Context, path string, body any) (*bridgeResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	b.logger.Debug(fmt.Sprintf("POST %s", req.URL))
	res, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sdk bridge: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read sdk bridge response: %w", err)
	}

	var out bridgeResponse
	if err := json.Unmarshal(data, &out); err != nil {
		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("sdk bridge returned %s", res.Status)
		}
		return nil, &OperationError{Kind: KindMalformed, Message: "undecodable sdk bridge response", Err: err}
	}
	if res.StatusCode != http.StatusOK {
		msg := out.Error
		if msg == "" {
			msg = res.Status
		}
		return nil, fmt.Errorf("sdk bridge returned %d: %s", res.StatusCode, msg)
	}
	return &out, nil
}

func (r *bridgeResponse) plan() (Plan, error) {
	plan := Plan{Artifact: r.Artifact}
	for i, group := range r.Transactions {
		ixs := make([]solana.Instruction, 0, len(group))
		for j, raw := range group {
			ix, err := raw.decode()
			if err != nil {
				return Plan{}, &OperationError{
					Kind:    KindMalformed,
					Message: fmt.Sprintf("instruction %d of transaction %d", j, i),
					Err:     err,
				}
			}
			ixs = append(ixs, ix)
		}
		plan.Transactions = append(plan.Transactions, ixs)
	}
	for _, s := range r.Signers {
		key, err := solana.PrivateKeyFromBase58(s)
		if err != nil {
			return Plan{}, &OperationError{Kind: KindMalformed, Message: "invalid co-signer key", Err: err}
		}
		plan.Signers = append(plan.Signers, key)
	}
	return plan, nil
}

func (ix bridgeInstruction) decode() (solana.Instruction, error) {
	program, err := solana.PublicKeyFromBase58(ix.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("program id: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(ix.Data)
	if err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	accounts := make(solana.AccountMetaSlice, 0, len(ix.Accounts))
	for _, a := range ix.Accounts {
		key, err := solana.PublicKeyFromBase58(a.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", a.Pubkey, err)
		}
		accounts = append(accounts, solana.NewAccountMeta(key, a.IsWritable, a.IsSigner))
	}
	return solana.NewInstruction(program, accounts, data), nil
}
