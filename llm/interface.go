package llm

import (
	"context"
	"fmt"
	"net/http"
)

// DescriptionRequest asks a provider for a token listing description.
type DescriptionRequest struct {
	Name   string
	Symbol string
	// MaxChars bounds the text. Providers turn it into a token budget.
	MaxChars int
}

// tokenBudget allows about four characters per token with some headroom.
func (r DescriptionRequest) tokenBudget() int {
	return r.MaxChars/4 + 16
}

// Description is a provider's answer before cleanup.
type Description struct {
	Text string
	// Truncated is set when the provider stopped at the token budget.
	Truncated    bool
	InputTokens  int
	OutputTokens int
}

type LlmClient interface {
	DescribeToken(ctx context.Context, req DescriptionRequest) (Description, error)
}

// ProviderError is a provider call that did not produce a description.
type ProviderError struct {
	Provider string
	// Status is the HTTP status, or 0 when the request never got an answer.
	Status  int
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	switch e.Status {
	case 0:
		return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
	case http.StatusUnauthorized:
		return fmt.Sprintf("unauthorized: invalid %s API key", e.Provider)
	case http.StatusTooManyRequests:
		return fmt.Sprintf("rate limited by %s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.Status, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Temporary reports whether asking again later may succeed.
func (e *ProviderError) Temporary() bool {
	return e.Status == 0 || e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}
