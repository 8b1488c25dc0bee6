package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/santiagomed/launchpad/logger"
)

// MockLLM is a mock implementation of the LLM client
type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) DescribeToken(ctx context.Context, req DescriptionRequest) (Description, error) {
	args := m.Called(req)
	return args.Get(0).(Description), args.Error(1)
}

func TestDescriber_Describe(t *testing.T) {
	mockLLM := new(MockLLM)
	mockLLM.On("DescribeToken", DescriptionRequest{Name: "Moon Cat", Symbol: "MCAT", MaxChars: maxDescriptionLength}).
		Return(Description{Text: "  \"Moon Cat is the\n feline of the cosmos.\"  "}, nil)

	desc, err := NewDescriber(mockLLM).Describe(context.Background(), "Moon Cat", "MCAT")
	require.NoError(t, err)
	assert.Equal(t, "Moon Cat is the feline of the cosmos.", desc)
	mockLLM.AssertExpectations(t)
}

func TestDescriber_Errors(t *testing.T) {
	mockLLM := new(MockLLM)
	mockLLM.On("DescribeToken", mock.Anything).Return(Description{}, errors.New("boom")).Once()
	mockLLM.On("DescribeToken", mock.Anything).Return(Description{Text: "   "}, nil).Once()

	d := NewDescriber(mockLLM)
	_, err := d.Describe(context.Background(), "A", "A")
	assert.ErrorContains(t, err, "boom")

	_, err = d.Describe(context.Background(), "A", "A")
	assert.ErrorContains(t, err, "empty")
}

func TestCleanDescription(t *testing.T) {
	desc, err := cleanDescription(Description{Text: strings.Repeat("word ", 100)})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(desc), maxDescriptionLength+3)
	assert.True(t, strings.HasSuffix(desc, "word..."))

	desc, err = cleanDescription(Description{Text: "Moon Cat is the feline of the cosm", Truncated: true})
	require.NoError(t, err)
	assert.Equal(t, "Moon Cat is the feline of the...", desc)

	desc, err = cleanDescription(Description{Text: "Moon Cat."})
	require.NoError(t, err)
	assert.Equal(t, "Moon Cat.", desc)
}

func TestDescriptionRequestBudget(t *testing.T) {
	req := DescriptionRequest{Name: "Moon", Symbol: "MOON", MaxChars: 280}
	assert.Equal(t, 86, req.tokenBudget())
	assert.Contains(t, getTokenDescriptionPrompt(req), "at most 280 characters")
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(&LlmConfig{Provider: "openai"}, nil)
	assert.Error(t, err)

	c, err := NewClient(&LlmConfig{Provider: "openai", APIKey: "k"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)
	assert.Equal(t, defaultModels["openai"], c.(*OpenAIClient).model)

	c, err = NewClient(&LlmConfig{Provider: "Anthropic", APIKey: "k"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &AnthropicClient{}, c)
	assert.Equal(t, defaultModels["anthropic"], c.(*AnthropicClient).model)

	_, err = NewClient(&LlmConfig{Provider: "other", APIKey: "k"}, nil)
	assert.ErrorContains(t, err, "unknown llm provider")
}

func TestAnthropicClient_DescribeToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.Header.Get("x-api-key"))
		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-test", req.Model)
		assert.Equal(t, 86, req.MaxTokens)
		assert.Equal(t, []string{"\n\n"}, req.StopSequences)
		require.Len(t, req.Messages, 1)
		assert.Contains(t, req.Messages[0].Content, "MOON")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"A fine token"}],"stop_reason":"max_tokens","usage":{"input_tokens":3,"output_tokens":4}}`))
	}))
	defer server.Close()

	c, err := NewAnthropicClient(&LlmConfig{APIKey: "k", ModelName: "claude-test", BaseURL: server.URL}, logger.NewNullLogger())
	require.NoError(t, err)

	res, err := c.DescribeToken(context.Background(), DescriptionRequest{Name: "Moon", Symbol: "MOON", MaxChars: 280})
	require.NoError(t, err)
	assert.Equal(t, "A fine token", res.Text)
	assert.True(t, res.Truncated)
	assert.Equal(t, 4, res.OutputTokens)
}

func TestAnthropicClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	c, err := NewAnthropicClient(&LlmConfig{APIKey: "k", BaseURL: server.URL}, logger.NewNullLogger())
	require.NoError(t, err)

	_, err = c.DescribeToken(context.Background(), DescriptionRequest{Name: "Moon", Symbol: "MOON", MaxChars: 280})
	assert.ErrorContains(t, err, "slow down")

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusTooManyRequests, perr.Status)
	assert.True(t, perr.Temporary())
}

func TestOpenAIClient_DescribeToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		var req struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req.Model)
		assert.Equal(t, 86, req.MaxTokens)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Hello token."},"finish_reason":"stop"}],"usage":{"prompt_tokens":1,"completion_tokens":2,"total_tokens":3}}`))
	}))
	defer server.Close()

	c, err := NewOpenAIClient(&LlmConfig{APIKey: "k", ModelName: "gpt-test", BaseURL: server.URL + "/v1"}, logger.NewNullLogger())
	require.NoError(t, err)

	res, err := c.DescribeToken(context.Background(), DescriptionRequest{Name: "Moon", Symbol: "MOON", MaxChars: 280})
	require.NoError(t, err)
	assert.Equal(t, "Hello token.", res.Text)
	assert.False(t, res.Truncated)
}

func TestOpenAIClient_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	c, err := NewOpenAIClient(&LlmConfig{APIKey: "k", ModelName: "gpt-test", BaseURL: server.URL + "/v1"}, logger.NewNullLogger())
	require.NoError(t, err)

	_, err = c.DescribeToken(context.Background(), DescriptionRequest{Name: "Moon", Symbol: "MOON", MaxChars: 280})
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusUnauthorized, perr.Status)
	assert.False(t, perr.Temporary())
	assert.Equal(t, "unauthorized: invalid OpenAI API key", err.Error())
}
