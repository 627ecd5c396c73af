package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	chatstream "github.com/mvoss/chatstream-go"
)

// Provider implements the chatstream.Provider interface for Anthropic
// (Claude) models via the official SDK. The SDK speaks the Messages API, not
// the chat-completion wire format, so this provider adapts both directions:
// conversations out, deltas and completions back in.
type Provider struct {
	client *anthropic.Client
}

// NewProvider creates a new Anthropic provider with the given API key.
func NewProvider(apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, &chatstream.ConfigError{
			Field:  "credential",
			Value:  "",
			Reason: "anthropic requires an API key",
			Err:    chatstream.ErrUnauthorized,
		}
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &Provider{
		client: &client,
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() chatstream.ProviderID {
	return chatstream.ProviderAnthropic
}

// Complete sends the conversation and blocks for the full response
// (non-streaming mode).
func (p *Provider) Complete(ctx context.Context, conversation []chatstream.Message, cfg chatstream.RequestConfig) (*chatstream.Completion, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	params, err := buildMessageParams(conversation, cfg)
	if err != nil {
		return nil, err
	}

	message, err := p.client.Messages.New(ctx, params, requestOptions(cfg)...)
	if err != nil {
		return nil, mapSDKError(err)
	}

	return convertMessage(message), nil
}

// validateConfig checks the pieces of the configuration this provider uses.
// Unlike the HTTP provider the endpoint is optional here: when empty, the
// SDK talks to the public API.
func validateConfig(cfg chatstream.RequestConfig) error {
	if cfg.Endpoint != "" {
		return cfg.Validate()
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return &chatstream.ConfigError{
			Field:  "model",
			Value:  cfg.Model,
			Reason: "model identifier is required",
			Err:    chatstream.ErrMissingModel,
		}
	}
	return nil
}

// requestOptions translates per-request configuration into SDK options:
// a non-empty endpoint overrides the base URL (useful for proxies and
// fixtures), a non-empty credential overrides the constructor key.
func requestOptions(cfg chatstream.RequestConfig) []option.RequestOption {
	var opts []option.RequestOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	if cfg.Credential != "" {
		opts = append(opts, option.WithAPIKey(cfg.Credential))
	}
	return opts
}

// mapSDKError normalizes SDK failures into the library error taxonomy, so
// callers get the same classification regardless of which transport produced
// the failure.
func mapSDKError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("anthropic: API call failed: %w", err)
	}

	message := apiErr.Error()
	switch {
	case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
		return &chatstream.TransportError{
			StatusCode: apiErr.StatusCode,
			Message:    message,
			Retryable:  false,
			Err:        chatstream.ErrUnauthorized,
		}
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return &chatstream.TransportError{
			StatusCode: apiErr.StatusCode,
			Message:    message,
			Retryable:  true,
			Err:        chatstream.ErrRateLimited,
		}
	case apiErr.StatusCode >= 500:
		return &chatstream.TransportError{
			StatusCode: apiErr.StatusCode,
			Message:    message,
			Retryable:  true,
			Err:        chatstream.ErrServiceUnavailable,
		}
	default:
		return &chatstream.TransportError{
			StatusCode: apiErr.StatusCode,
			Message:    message,
			Retryable:  false,
		}
	}
}
