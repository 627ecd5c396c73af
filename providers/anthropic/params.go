package anthropic

import (
	"github.com/anthropics/anthropic-sdk-go"

	chatstream "github.com/mvoss/chatstream-go"
)

// defaultMaxTokens is the output ceiling sent with every request. The
// Messages API requires max_tokens; the request configuration carries no
// generation parameters, so a fixed ceiling applies.
const defaultMaxTokens = 4096

// buildMessageParams constructs Anthropic API parameters from the
// conversation. Shared between Complete and Stream so the two modes cannot
// drift apart.
func buildMessageParams(conversation []chatstream.Message, cfg chatstream.RequestConfig) (anthropic.MessageNewParams, error) {
	system, messages, err := convertConversation(conversation)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(cfg.Model),
		Messages:  messages,
		MaxTokens: defaultMaxTokens,
	}

	if system != "" {
		params.System = []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: system,
			},
		}
	}

	return params, nil
}
