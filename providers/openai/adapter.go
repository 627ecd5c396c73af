package openai

import (
	"encoding/json"
	"fmt"
	"time"

	chatstream "github.com/mvoss/chatstream-go"
)

// maxDiagnosticPayload caps how much of a bad payload is copied into errors
// and log lines.
const maxDiagnosticPayload = 256

// errorEnvelope is the structured error body used by OpenAI-compatible
// endpoints, both for non-200 responses and for in-band stream errors.
type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// parseChunk decodes one streaming payload. Three outcomes:
//
//   - a decoded chunk;
//   - a *chatstream.DecodeError when the payload is not valid JSON
//     (recoverable: the caller drops the fragment and keeps reading);
//   - a fatal error when the endpoint sent a structured error envelope in
//     place of a chunk.
func parseChunk(payload string) (*ChatCompletionChunk, error) {
	data := []byte(payload)

	// An error envelope is itself valid JSON and would decode into an empty
	// chunk, so probe for it first.
	var envelope errorEnvelope
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error.Message != "" {
		return nil, fmt.Errorf("openai: error event in stream: %s", envelope.Error.Message)
	}

	var chunk ChatCompletionChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		return nil, &chatstream.DecodeError{Payload: truncatePayload(payload), Err: err}
	}

	return &chunk, nil
}

// extractDelta returns the first choice's delta and finish reason. Chunks
// without choices (usage-only frames, keep-alives) yield nil for both.
// Additional choices are ignored; the engine requests a single completion.
func extractDelta(chunk *ChatCompletionChunk) (*ChunkDelta, *string) {
	if len(chunk.Choices) == 0 {
		return nil, nil
	}
	choice := chunk.Choices[0]
	return &choice.Delta, choice.FinishReason
}

// convertResponse converts a non-streaming response body to a Completion.
func convertResponse(resp *ChatCompletionResponse) (*chatstream.Completion, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: response contained no choices")
	}

	choice := resp.Choices[0]

	completion := &chatstream.Completion{
		ID:      resp.ID,
		Model:   resp.Model,
		Content: choice.Message.Content,
	}
	if resp.Created > 0 {
		completion.Created = time.Unix(resp.Created, 0)
	}
	if choice.FinishReason != nil {
		completion.FinishReason = *choice.FinishReason
	}
	if resp.Usage != nil {
		completion.Usage = &chatstream.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	return completion, nil
}

// chunkAggregator collects response metadata scattered across chunks.
// Identity fields usually arrive on the first chunk, finish_reason on the
// last content chunk, and usage (when the endpoint reports it for streams)
// on a final choice-less frame.
type chunkAggregator struct {
	id           string
	created      int64
	model        string
	finishReason string
	usage        *Usage
}

// observe records any metadata present on the chunk.
func (a *chunkAggregator) observe(chunk *ChatCompletionChunk) {
	if chunk.ID != "" {
		a.id = chunk.ID
	}
	if chunk.Created > 0 {
		a.created = chunk.Created
	}
	if chunk.Model != "" {
		a.model = chunk.Model
	}
	if chunk.Usage != nil {
		a.usage = chunk.Usage
	}
}

// completion assembles the terminal metadata event. Content stays empty:
// aggregating the streamed text belongs to the session, not the transport.
func (a *chunkAggregator) completion() *chatstream.Completion {
	c := &chatstream.Completion{
		ID:           a.id,
		Model:        a.model,
		FinishReason: a.finishReason,
	}
	if a.created > 0 {
		c.Created = time.Unix(a.created, 0)
	}
	if a.usage != nil {
		c.Usage = &chatstream.Usage{
			PromptTokens:     a.usage.PromptTokens,
			CompletionTokens: a.usage.CompletionTokens,
			TotalTokens:      a.usage.TotalTokens,
		}
	}
	return c
}

func truncatePayload(s string) string {
	if len(s) <= maxDiagnosticPayload {
		return s
	}
	return s[:maxDiagnosticPayload] + "..."
}
