package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrServiceUnavailable wraps transport-level completion failures (network,
// timeout, persistent 429/5xx). Malformed completion content is never wrapped
// in it; content problems degrade to fallback values locally.
var ErrServiceUnavailable = errors.New("Completion service unavailable")

// Message is one turn of a conversation sent to the completion service.
type Message struct {
	Role    string `json:"role"` // system | user | assistant
	Content string `json:"content"`
}

// CompletionRequest carries messages plus per-call sampling settings.
type CompletionRequest struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Completer is the contract with the external text-completion capability.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// VeniceClient speaks the OpenAI-compatible chat-completions wire against the
// Venice API (or any endpoint with the same shape).
type VeniceClient struct {
	APIKey  string
	BaseURL string
	Model   string
	Client  *http.Client
}

type veniceParameters struct {
	IncludeVeniceSystemPrompt bool `json:"include_venice_system_prompt"`
}

type chatCompletionRequest struct {
	Model            string            `json:"model"`
	Messages         []Message         `json:"messages"`
	Temperature      float64           `json:"temperature,omitempty"`
	MaxTokens        int               `json:"max_tokens,omitempty"`
	VeniceParameters *veniceParameters `json:"venice_parameters,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

const completionTimeout = 30 * time.Second
const maxCompletionRetries = 3

// Complete sends the conversation and returns the completion text. Retries
// with exponential backoff on rate limits and transient network failures,
// then surfaces ErrServiceUnavailable.
func (v *VeniceClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if v.Client == nil {
		v.Client = &http.Client{Timeout: completionTimeout}
	}
	if v.APIKey == "" {
		return "", fmt.Errorf("%w: API key not configured", ErrServiceUnavailable)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, completionTimeout)
		defer cancel()
	}

	body := chatCompletionRequest{
		Model:            v.Model,
		Messages:         req.Messages,
		Temperature:      req.Temperature,
		MaxTokens:        req.MaxTokens,
		VeniceParameters: &veniceParameters{IncludeVeniceSystemPrompt: false},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	var lastErr error
	for i := 0; i <= maxCompletionRetries; i++ {
		if i > 0 {
			select {
			case <-time.After(time.Duration(1<<uint(i-1)) * time.Second):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, ctx.Err())
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.BaseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return "", err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+v.APIKey)

		resp, err := v.Client.Do(httpReq)
		if err != nil {
			lastErr = err
			continue
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("%w: status %d: %s", ErrServiceUnavailable, resp.StatusCode, string(respBody))
		}

		var parsed chatCompletionResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return "", fmt.Errorf("%w: malformed response envelope", ErrServiceUnavailable)
		}
		if parsed.Error != nil {
			return "", fmt.Errorf("%w: %s", ErrServiceUnavailable, parsed.Error.Message)
		}
		if len(parsed.Choices) == 0 {
			return "", nil
		}
		return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
	}
	return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, lastErr)
}
