package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultModel is the fixed model identifier used for chat-with-data queries.
const DefaultModel = "llama3-70b-8192"

// defaultBaseURL is the Groq OpenAI-compatible endpoint.
const defaultBaseURL = "https://api.groq.com/openai/v1"

// Client talks to an OpenAI-compatible chat-completions provider. Each query
// is a single exchange with a single attempt: failures surface to the caller
// and are never retried here.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GenerateRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type Choice struct {
	Message Message `json:"message"`
}

type GenerateResponse struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
}

// NewClient returns a client with the default endpoint and timeout.
func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(apiKey, 60*time.Second, "")
}

// NewClientWithBaseURL allows customizing the HTTP timeout and injecting a
// custom base URL (used in tests).
func NewClientWithBaseURL(apiKey string, httpTimeout time.Duration, baseURL string) *Client {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: httpTimeout},
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      DefaultModel,
	}
}

// WithModel overrides the model used when a request names none.
func (c *Client) WithModel(model string) *Client {
	if model != "" {
		c.model = model
	}
	return c
}

// Generate performs one chat-completions request. A missing or rejected
// credential is an *AuthError; any transport or API failure is a
// *ServiceError.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.apiKey == "" {
		return nil, &AuthError{Err: ErrMissingCredential}
	}
	if req.Model == "" {
		req.Model = c.model
	}
	if req.Model == "" {
		req.Model = DefaultModel
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	endpoint := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ServiceError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		var raw map[string]any
		_ = json.Unmarshal(body, &raw)
		apiErr := &APIError{StatusCode: resp.StatusCode, Raw: raw}
		if v, ok := raw["error"].(map[string]any); ok {
			if msg, ok := v["message"].(string); ok {
				apiErr.Message = msg
			}
			if code, ok := v["code"].(string); ok {
				apiErr.Code = code
			}
		} else {
			if msg, ok := raw["message"].(string); ok {
				apiErr.Message = msg
			}
		}
		return nil, classifyAPIError(apiErr)
	}

	var out GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &ServiceError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(out.Choices) == 0 {
		return nil, &ServiceError{Err: errors.New("response contained no choices")}
	}
	return &out, nil
}

// classifyAPIError maps a provider error to the typed taxonomy: credential
// rejections become AuthError, everything else ServiceError.
func classifyAPIError(apiErr *APIError) error {
	if apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden {
		return &AuthError{Err: apiErr}
	}
	return &ServiceError{Err: apiErr}
}
