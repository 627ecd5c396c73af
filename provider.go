package chatstream

import (
	"context"
)

// ProviderID represents a unique provider identifier.
// Using a typed constant prevents typos and provides compile-time safety.
type ProviderID string

// Known provider identifiers
const (
	// ProviderOpenAI is any OpenAI-compatible chat-completion endpoint.
	ProviderOpenAI ProviderID = "openai"

	// ProviderAnthropic is Anthropic's Claude API via the official SDK.
	ProviderAnthropic ProviderID = "anthropic"

	// ProviderLorem is the mock lorem server used for testing.
	ProviderLorem ProviderID = "lorem"
)

// String returns the string representation of the provider ID
func (p ProviderID) String() string {
	return string(p)
}

// IsValid returns true if the provider ID is a known provider
func (p ProviderID) IsValid() bool {
	switch p {
	case ProviderOpenAI, ProviderAnthropic, ProviderLorem:
		return true
	default:
		return false
	}
}

// Provider defines the interface a transport implementation must satisfy.
// The session engine is written against it, so the same state machine drives
// an OpenAI-compatible HTTP endpoint, the Anthropic SDK, or a test double.
//
// Types used by this interface:
//   - Message: defined in message.go
//   - RequestConfig: defined in config.go
//   - Completion: defined in result.go
//   - StreamEvent: defined in streaming.go
type Provider interface {
	// Complete sends the conversation and blocks for the full response
	// (non-streaming mode). The returned Completion carries content, usage,
	// and metadata from the single response body.
	Complete(ctx context.Context, conversation []Message, cfg RequestConfig) (*Completion, error)

	// Stream sends the conversation and returns a channel of events.
	// The channel delivers zero or more Delta events in arrival order, then
	// exactly one terminal event — a Completion carrying metadata (content
	// left empty for the consumer to aggregate) or an Err — and then closes.
	// Synchronous failures (bad config, dispatch error, non-2xx status)
	// return (nil, error) and no channel.
	//
	// Usage:
	//   events, err := provider.Stream(ctx, conversation, cfg)
	//   if err != nil { return err }
	//   for ev := range events {
	//     if ev.Err != nil { handle error }
	//     if ev.Delta != nil { process increment }
	//     if ev.Completion != nil { streaming complete }
	//   }
	Stream(ctx context.Context, conversation []Message, cfg RequestConfig) (<-chan StreamEvent, error)

	// Name returns the provider identifier (e.g., "openai", "anthropic").
	Name() ProviderID
}
