package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	chatstream "github.com/mvoss/chatstream-go"
)

// Stream opens a streaming request against the Messages API and adapts the
// SDK's pull-based stream into the library's channel of events: role and
// text deltas as they arrive, then one terminal Completion with the
// accumulated metadata.
func (p *Provider) Stream(ctx context.Context, conversation []chatstream.Message, cfg chatstream.RequestConfig) (<-chan chatstream.StreamEvent, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	params, err := buildMessageParams(conversation, cfg)
	if err != nil {
		return nil, err
	}

	events := make(chan chatstream.StreamEvent, 10) // Buffered to prevent blocking

	go func() {
		defer close(events)

		stream := p.client.Messages.NewStreaming(ctx, params, requestOptions(cfg)...)

		// Accumulator for final message metadata
		message := anthropic.Message{}

		for stream.Next() {
			event := stream.Current()

			if err := message.Accumulate(event); err != nil {
				sendEvent(ctx, events, chatstream.StreamEvent{
					Err: fmt.Errorf("anthropic: failed to accumulate message: %w", err),
				})
				return
			}

			delta, ok := transformStreamEvent(event)
			if !ok {
				continue
			}

			if !sendEvent(ctx, events, chatstream.StreamEvent{Delta: delta}) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			if ctx.Err() != nil {
				// The caller cancelled; it is not waiting for an error event.
				return
			}
			sendEvent(ctx, events, chatstream.StreamEvent{Err: mapSDKError(err)})
			return
		}

		sendEvent(ctx, events, chatstream.StreamEvent{Completion: completionFromMessage(&message)})
	}()

	return events, nil
}

// sendEvent delivers ev unless the context is cancelled first.
func sendEvent(ctx context.Context, events chan<- chatstream.StreamEvent, ev chatstream.StreamEvent) bool {
	select {
	case <-ctx.Done():
		return false
	case events <- ev:
		return true
	}
}
