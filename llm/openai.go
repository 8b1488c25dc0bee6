package llm

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"

	"github.com/santiagomed/launchpad/logger"
)

// OpenAIClient describes tokens with the OpenAI chat completions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
	logger logger.Logger
}

func NewOpenAIClient(cfg *LlmConfig, logger logger.Logger) (LlmClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.ModelName,
		logger: logger,
	}, nil
}

func (c *OpenAIClient) DescribeToken(ctx context.Context, req DescriptionRequest) (Description, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   req.tokenBudget(),
		Temperature: 0.8,
		N:           1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: getSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: getTokenDescriptionPrompt(req)},
		},
	})
	if err != nil {
		return Description{}, openAIError(err)
	}
	if len(resp.Choices) == 0 {
		return Description{}, &ProviderError{Provider: "OpenAI", Message: "no choices returned"}
	}

	choice := resp.Choices[0]
	c.logger.WithField("symbol", req.Symbol).
		WithField("prompt_tokens", resp.Usage.PromptTokens).
		WithField("completion_tokens", resp.Usage.CompletionTokens).
		Debug("OpenAI description")
	return Description{
		Text:         choice.Message.Content,
		Truncated:    choice.FinishReason == openai.FinishReasonLength,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

func openAIError(err error) *ProviderError {
	apiErr := &openai.APIError{}
	if errors.As(err, &apiErr) {
		return &ProviderError{Provider: "OpenAI", Status: apiErr.HTTPStatusCode, Message: apiErr.Message, Err: err}
	}
	reqErr := &openai.RequestError{}
	if errors.As(err, &reqErr) {
		return &ProviderError{Provider: "OpenAI", Status: reqErr.HTTPStatusCode, Message: reqErr.Error(), Err: err}
	}
	return &ProviderError{Provider: "OpenAI", Message: err.Error(), Err: err}
}
