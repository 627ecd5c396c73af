package anthropic

import (
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	chatstream "github.com/mvoss/chatstream-go"
)

// convertConversation splits the conversation into the system prompt and the
// user/assistant turns the Messages API expects. System turns may appear
// anywhere in the input; they are lifted out in order and joined. The chat
// wire format has no such split, so this is where the two models meet.
func convertConversation(conversation []chatstream.Message) (system string, messages []anthropic.MessageParam, err error) {
	var systemParts []string
	messages = make([]anthropic.MessageParam, 0, len(conversation))

	for i, msg := range conversation {
		switch msg.Role {
		case chatstream.RoleSystem:
			systemParts = append(systemParts, msg.Content)
		case chatstream.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case chatstream.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			return "", nil, fmt.Errorf("anthropic: message %d: unsupported role '%s'", i, msg.Role)
		}
	}

	return strings.Join(systemParts, "\n\n"), messages, nil
}

// transformStreamEvent converts an SDK streaming event to a Delta.
//
// Anthropic stream events include:
//   - MessageStart: message metadata (id, model, role)
//   - ContentBlockStart / ContentBlockStop: block boundaries
//   - ContentBlockDelta: incremental content (text_delta, thinking_delta, ...)
//   - MessageDelta: stop_reason update
//   - MessageStop: stream complete
//
// Only MessageStart (role announcement, matching what chat-completion
// endpoints send first) and text deltas become Deltas; the rest carry no
// printable text and are reported as not-ok.
func transformStreamEvent(event anthropic.MessageStreamEventUnion) (*chatstream.Delta, bool) {
	switch e := event.AsAny().(type) {
	case anthropic.MessageStartEvent:
		role := chatstream.RoleAssistant
		return &chatstream.Delta{Role: &role}, true

	case anthropic.ContentBlockDeltaEvent:
		if e.Delta.Type != "text_delta" {
			return nil, false
		}
		text := e.Delta.Text
		return &chatstream.Delta{Content: &text}, true

	default:
		return nil, false
	}
}

// completionFromMessage builds the metadata Completion from an accumulated
// message. Content is left empty; streaming consumers aggregate it from the
// deltas.
//
// The stop reason passes through in Anthropic's vocabulary ("end_turn",
// "max_tokens", ...) untranslated, the same way the HTTP provider passes
// through "stop" and "length".
func completionFromMessage(msg *anthropic.Message) *chatstream.Completion {
	return &chatstream.Completion{
		ID:           msg.ID,
		Model:        string(msg.Model),
		FinishReason: string(msg.StopReason),
		Usage: &chatstream.Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}
}

// convertMessage converts a non-streaming SDK message to a Completion. Text
// blocks are concatenated in order; other block types carry no printable
// text and are skipped.
func convertMessage(msg *anthropic.Message) *chatstream.Completion {
	var content strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	completion := completionFromMessage(msg)
	completion.Content = content.String()
	return completion
}
