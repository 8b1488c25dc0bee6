package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/santiagomed/launchpad/logger"
)

const anthropicURL = "https://api.anthropic.com/v1/messages"

// A blank line ends the description; anything after it is not listing copy.
var descriptionStops = []string{"\n\n"}

type anthropicRequest struct {
	Model         string             `json:"model"`
	MaxTokens     int                `json:"max_tokens"`
	Temperature   float64            `json:"temperature"`
	System        string             `json:"system"`
	StopSequences []string           `json:"stop_sequences,omitempty"`
	Messages      []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// AnthropicClient describes tokens with the Anthropic messages API.
type AnthropicClient struct {
	apiKey     string
	model      string
	url        string
	logger     logger.Logger
	httpClient *http.Client
}

func NewAnthropicClient(cfg *LlmConfig, logger logger.Logger) (LlmClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic API key is required")
	}
	endpoint := anthropicURL
	if cfg.BaseURL != "" {
		endpoint = cfg.BaseURL
	}
	return &AnthropicClient{
		apiKey:     cfg.APIKey,
		model:      cfg.ModelName,
		url:        endpoint,
		logger:     logger,
		httpClient: &http.Client{},
	}, nil
}

func (a *AnthropicClient) DescribeToken(ctx context.Context, req DescriptionRequest) (Description, error) {
	payload, err := json.Marshal(anthropicRequest{
		Model:         a.model,
		MaxTokens:     req.tokenBudget(),
		Temperature:   0.8,
		System:        getSystemPrompt(),
		StopSequences: descriptionStops,
		Messages:      []anthropicMessage{{Role: "user", Content: getTokenDescriptionPrompt(req)}},
	})
	if err != nil {
		return Description{}, fmt.Errorf("error marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(payload))
	if err != nil {
		return Description{}, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")
	httpReq.Header.Set("content-type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return Description{}, &ProviderError{Provider: "Anthropic", Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Description{}, &ProviderError{Provider: "Anthropic", Status: resp.StatusCode, Message: "error reading response body", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		perr := &ProviderError{Provider: "Anthropic", Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var errResp anthropicError
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			perr.Message = fmt.Sprintf("%s - %s", errResp.Error.Type, errResp.Error.Message)
		}
		return Description{}, perr
	}

	var out anthropicResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return Description{}, fmt.Errorf("error unmarshaling response: %w", err)
	}
	var text string
	for _, block := range out.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	a.logger.WithField("symbol", req.Symbol).
		WithField("input_tokens", out.Usage.InputTokens).
		WithField("output_tokens", out.Usage.OutputTokens).
		Debug("Anthropic description")
	return Description{
		Text:         text,
		Truncated:    out.StopReason == "max_tokens",
		InputTokens:  out.Usage.InputTokens,
		OutputTokens: out.Usage.OutputTokens,
	}, nil
}
