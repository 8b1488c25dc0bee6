package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/santiagomed/launchpad/logger"
)

type LlmConfig struct {
	Provider  string
	APIKey    string
	ModelName string
	// BaseURL overrides the provider endpoint.
	BaseURL string
}

var defaultModels = map[string]string{
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-3-5-haiku-latest",
}

// NewClient returns the client for cfg.Provider ("openai" or "anthropic").
func NewClient(cfg *LlmConfig, l logger.Logger) (LlmClient, error) {
	if l == nil {
		l = logger.NewNullLogger()
	}
	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		provider = "openai"
	}
	c := *cfg
	if c.ModelName == "" {
		c.ModelName = defaultModels[provider]
	}
	switch provider {
	case "openai":
		return NewOpenAIClient(&c, l)
	case "anthropic":
		return NewAnthropicClient(&c, l)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// maxDescriptionLength keeps generated descriptions within what wallets and
// explorers display.
const maxDescriptionLength = 280

// Describer writes token descriptions with an LLM.
type Describer struct {
	client LlmClient
}

func NewDescriber(client LlmClient) *Describer {
	return &Describer{client: client}
}

// Describe generates a short marketing description for a token
func (d *Describer) Describe(ctx context.Context, name, symbol string) (string, error) {
	res, err := d.client.DescribeToken(ctx, DescriptionRequest{
		Name:     name,
		Symbol:   symbol,
		MaxChars: maxDescriptionLength,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate description for %s: %w", symbol, err)
	}
	return cleanDescription(res)
}

func cleanDescription(d Description) (string, error) {
	s := strings.TrimSpace(d.Text)
	s = strings.Trim(s, `"`)
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "", errors.New("generated description is empty")
	}
	if len(s) > maxDescriptionLength {
		s = s[:maxDescriptionLength]
		d.Truncated = true
	}
	if d.Truncated {
		// Drop the word the provider was cut off in.
		if cut := strings.LastIndex(s, " "); cut > 0 {
			s = s[:cut]
		}
		s = strings.TrimRight(s, ",;: ") + "..."
	}
	return s, nil
}
