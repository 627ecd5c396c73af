package openai

import (
	chatstream "github.com/mvoss/chatstream-go"
)

// ChatCompletionRequest is the JSON body posted to a chat-completion
// endpoint. The body carries exactly the model, the conversation, and the
// stream flag; generation parameters (temperature, max_tokens, ...) are
// deliberately absent so the endpoint's defaults apply.
type ChatCompletionRequest struct {
	Model    string               `json:"model"`
	Messages []chatstream.Message `json:"messages"`
	Stream   bool                 `json:"stream"`
}

// ChatCompletionResponse is a complete non-streaming response body.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"` // "chat.completion"
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Choice is one completion choice in a non-streaming response.
type Choice struct {
	Index        int                `json:"index"`
	Message      chatstream.Message `json:"message"`
	FinishReason *string            `json:"finish_reason"` // "stop", "length", "content_filter"
}

// ChatCompletionChunk is one streaming fragment: a miniature response whose
// choices carry deltas instead of full messages. Endpoints that report token
// accounting for streams do so on a final chunk with an empty choices array.
type ChatCompletionChunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"` // "chat.completion.chunk"
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []ChunkChoice `json:"choices"`
	Usage   *Usage        `json:"usage,omitempty"`
}

// ChunkChoice is a choice in a streaming chunk.
type ChunkChoice struct {
	Index        int        `json:"index"`
	Delta        ChunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"`
}

// ChunkDelta carries the incremental fields of a chunk choice. Both fields
// are optional on the wire: the first chunk usually announces the role, the
// rest carry content, and the final chunk often carries neither.
type ChunkDelta struct {
	Role    *string `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Usage is the endpoint's token accounting.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// buildChatCompletionRequest constructs the wire request from a conversation
// and its request configuration. Shared between Complete and Stream so the
// two modes cannot drift apart.
func buildChatCompletionRequest(conversation []chatstream.Message, cfg chatstream.RequestConfig) *ChatCompletionRequest {
	return &ChatCompletionRequest{
		Model:    cfg.Model,
		Messages: conversation,
		Stream:   cfg.Stream,
	}
}
