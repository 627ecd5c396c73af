package openai

import (
	"context"
	"fmt"
	"io"
	"net/http"

	chatstream "github.com/mvoss/chatstream-go"
	"github.com/mvoss/chatstream-go/sse"
)

// readBufferSize is the size of the raw read buffer for streaming bodies.
// The transport hands back chunks at arbitrary boundaries; the sse.Scanner
// reassembles them into lines, so the size only tunes syscall frequency.
const readBufferSize = 4096

// Stream opens a streaming chat completion against cfg.Endpoint.
//
// The returned channel carries zero or more Delta events followed by one
// terminal event - a Completion with the response metadata, or an Err - and
// is then closed. Configuration problems and non-200 responses surface as a
// synchronous error instead; in the configuration case nothing was sent on
// the wire.
func (p *Provider) Stream(ctx context.Context, conversation []chatstream.Message, cfg chatstream.RequestConfig) (<-chan chatstream.StreamEvent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	req := buildChatCompletionRequest(conversation, cfg)

	// Enable streaming
	req.Stream = true

	httpReq, err := p.buildHTTPRequest(ctx, cfg, req)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("openai: HTTP request failed: %w", err)
	}

	// Check for immediate errors
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, p.handleErrorResponse(resp)
	}

	events := make(chan chatstream.StreamEvent, 10) // Buffered to prevent blocking

	go func() {
		defer close(events)
		defer resp.Body.Close()

		if err := p.streamEvents(ctx, resp.Body, events); err != nil {
			emit(ctx, events, chatstream.StreamEvent{Err: err})
		}
	}()

	return events, nil
}

// streamEvents reads the body chunk by chunk, reassembles protocol lines,
// and emits delta events until the end-of-stream sentinel or EOF. On clean
// termination it emits the final metadata Completion; a returned error means
// the stream failed and the caller should emit it instead.
func (p *Provider) streamEvents(ctx context.Context, body io.Reader, events chan<- chatstream.StreamEvent) error {
	scanner := sse.NewScanner()
	agg := &chunkAggregator{}

	buf := make([]byte, readBufferSize)
	sawSentinel := false

readLoop:
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			for _, line := range scanner.Push(buf[:n]) {
				stop, err := p.processLine(ctx, line, agg, events)
				if err != nil {
					return err
				}
				if stop {
					// Lines after the sentinel are not processed, buffered
					// or not.
					sawSentinel = true
					break readLoop
				}
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			if ctx.Err() != nil {
				// The caller cancelled; it is not waiting for an error event.
				return nil
			}
			return fmt.Errorf("openai: error reading stream: %w", readErr)
		}
	}

	// A stream that ends without the sentinel still terminates cleanly.
	// Whatever remains in the reassembly buffer is the final, unterminated
	// line; decode it before wrapping up.
	if !sawSentinel {
		if line, ok := scanner.Flush(); ok {
			if _, err := p.processLine(ctx, line, agg, events); err != nil {
				return err
			}
		}
	}

	emit(ctx, events, chatstream.StreamEvent{Completion: agg.completion()})
	return nil
}

// processLine classifies one reassembled line and reacts to it: data lines
// become delta events and feed the metadata aggregator, the sentinel stops
// the stream, everything else is noise. stop is true once no further lines
// should be processed.
func (p *Provider) processLine(ctx context.Context, line string, agg *chunkAggregator, events chan<- chatstream.StreamEvent) (stop bool, err error) {
	event := sse.Classify(line)
	switch event.Type {
	case sse.EventStreamEnd:
		return true, nil
	case sse.EventIgnored:
		return false, nil
	}

	chunk, err := parseChunk(event.Data)
	if err != nil {
		if chatstream.IsDecodeError(err) {
			// A malformed fragment is dropped, not fatal: one bad chunk must
			// not kill an otherwise healthy response.
			p.logf("[OPENAI] dropping malformed chunk: %v", err)
			return false, nil
		}
		return false, err
	}

	agg.observe(chunk)

	delta, finishReason := extractDelta(chunk)
	if finishReason != nil {
		agg.finishReason = *finishReason
	}
	if delta == nil || (delta.Role == nil && delta.Content == nil) {
		return false, nil
	}

	sent := emit(ctx, events, chatstream.StreamEvent{
		Delta: &chatstream.Delta{
			Role:    delta.Role,
			Content: delta.Content,
		},
	})
	return !sent, nil
}

// emit sends ev unless the context is cancelled first. A false return means
// the consumer is gone and the stream should wind down quietly.
func emit(ctx context.Context, events chan<- chatstream.StreamEvent, ev chatstream.StreamEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
