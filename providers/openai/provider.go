package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	chatstream "github.com/mvoss/chatstream-go"
)

// Provider implements the chatstream.Provider interface for OpenAI-compatible
// chat-completion endpoints. Anything speaking the same wire format works:
// OpenAI itself, Azure OpenAI front-ends, vLLM, LM Studio, llama.cpp server,
// or the bundled lorem test server.
//
// The endpoint URL and credential come from the RequestConfig on each call,
// so one Provider value can talk to several deployments.
//
// Common Issues:
// - 404 errors: the endpoint must be the full path, including
//   /v1/chat/completions - a bare host is not enough
// - 401 errors: most hosted endpoints want a credential; local servers
//   (vLLM, LM Studio, lorem) usually want none
type Provider struct {
	httpClient *http.Client
	logger     chatstream.Logger
}

// NewProvider creates a provider backed by a default HTTP client.
//
// The client carries no timeout: streaming responses are open-ended, and
// per-request deadlines belong to the caller's context.
func NewProvider() *Provider {
	return &Provider{
		httpClient: &http.Client{},
	}
}

// NewProviderWithClient creates a provider that uses the given HTTP client,
// for callers that need custom transports, proxies, or timeouts.
func NewProviderWithClient(client *http.Client) *Provider {
	if client == nil {
		client = &http.Client{}
	}
	return &Provider{
		httpClient: client,
	}
}

// SetLogger routes decode diagnostics (dropped fragments, protocol noise) to
// the given logger. A nil logger keeps them silent.
func (p *Provider) SetLogger(logger chatstream.Logger) {
	p.logger = logger
}

// Name returns the provider identifier.
func (p *Provider) Name() chatstream.ProviderID {
	return chatstream.ProviderOpenAI
}

// Complete sends the conversation and blocks for the full response body
// (non-streaming mode).
func (p *Provider) Complete(ctx context.Context, conversation []chatstream.Message, cfg chatstream.RequestConfig) (*chatstream.Completion, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	req := buildChatCompletionRequest(conversation, cfg)

	// Ensure streaming is disabled for this call
	req.Stream = false

	httpReq, err := p.buildHTTPRequest(ctx, cfg, req)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai: HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleErrorResponse(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai: failed to read response body: %w", err)
	}

	// A malformed non-streaming body is fatal: there is no stream to keep
	// reading, so nothing can be recovered.
	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, &chatstream.DecodeError{Payload: truncatePayload(string(body)), Err: err}
	}

	return convertResponse(&chatResp)
}

// buildHTTPRequest assembles the POST for cfg.Endpoint. The bearer header is
// attached only when a credential is configured, so unauthenticated local
// endpoints receive no Authorization header at all.
func (p *Provider) buildHTTPRequest(ctx context.Context, cfg chatstream.RequestConfig, req *ChatCompletionRequest) (*http.Request, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("openai: failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: failed to build request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if cfg.Credential != "" {
		httpReq.Header.Set("Authorization", "Bearer "+cfg.Credential)
	}
	if req.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	return httpReq, nil
}

// handleErrorResponse maps a non-200 response to a library error.
func (p *Provider) handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	// Prefer the structured message; fall back to the raw body.
	message := strings.TrimSpace(string(body))
	var errResp errorEnvelope
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &chatstream.TransportError{
			StatusCode: resp.StatusCode,
			Message:    message,
			Retryable:  false,
			Err:        chatstream.ErrUnauthorized,
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &chatstream.TransportError{
			StatusCode: resp.StatusCode,
			Message:    message,
			Retryable:  true,
			Err:        chatstream.ErrRateLimited,
		}
	case resp.StatusCode >= 500:
		return &chatstream.TransportError{
			StatusCode: resp.StatusCode,
			Message:    message,
			Retryable:  true,
			Err:        chatstream.ErrServiceUnavailable,
		}
	default:
		return &chatstream.TransportError{
			StatusCode: resp.StatusCode,
			Message:    message,
			Retryable:  false,
		}
	}
}

func (p *Provider) logf(format string, v ...any) {
	if p.logger != nil {
		p.logger.Printf(format, v...)
	}
}
