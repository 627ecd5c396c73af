package chatstream

import "time"

// Usage is the token accounting reported by the endpoint.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the aggregated result of one request: the full assistant
// text plus the metadata recovered from the response. A streaming session
// builds it incrementally and hands it to the caller exactly once, at stream
// end; a non-streaming call returns it directly.
type Completion struct {
	// ID is the server-assigned completion identifier.
	ID string

	// Created is the server-reported creation time.
	Created time.Time

	// Model is the model that produced the completion (may differ from the
	// requested model if the endpoint aliases it).
	Model string

	// Content is the assistant text: the ordered concatenation of every
	// streamed delta, or the single message body in non-streaming mode.
	Content string

	// FinishReason is the endpoint's stop reason in wire vocabulary
	// (e.g., "stop", "length"). Empty when the stream ended without one.
	FinishReason string

	// Usage is nil when the endpoint reported no token accounting.
	Usage *Usage
}
