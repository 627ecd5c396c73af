package chatstream

import (
	"fmt"
	"net/url"
	"strings"
)

// ModelRule checks model-related warnings
type ModelRule struct {
	catalog *ModelCatalog
}

func (r *ModelRule) Name() string {
	return "Model Validation"
}

func (r *ModelRule) Check(conversation []Message, cfg RequestConfig) []ValidationWarning {
	var warnings []ValidationWarning

	// Check if model exists in the catalog (catalog may be outdated)
	if cfg.Model != "" && !r.catalog.KnownModel(cfg.Model) {
		warnings = append(warnings, ValidationWarning{
			Code:     WarningCodeModelUnknown,
			Category: "model",
			Field:    "model",
			Value:    cfg.Model,
			Message:  fmt.Sprintf("Model %s not found in catalog (catalog may be outdated)", cfg.Model),
			Severity: SeverityInfo,
		})
	}

	return warnings
}

// StreamingRule checks streaming-support warnings
type StreamingRule struct {
	catalog *ModelCatalog
}

func (r *StreamingRule) Name() string {
	return "Streaming Validation"
}

func (r *StreamingRule) Check(conversation []Message, cfg RequestConfig) []ValidationWarning {
	var warnings []ValidationWarning

	if !cfg.Stream {
		return warnings
	}

	info, err := r.catalog.GetModelInfo(cfg.Model)
	if err != nil {
		// Can't check unknown models; assume the endpoint streams.
		return warnings
	}

	if !info.Streaming {
		warnings = append(warnings, ValidationWarning{
			Code:     WarningCodeStreamingUnsupported,
			Category: "model",
			Field:    "stream",
			Value:    cfg.Model,
			Message:  fmt.Sprintf("Model %s is marked non-streaming (stream=true will likely fail)", cfg.Model),
			Severity: SeverityError,
		})
	}

	return warnings
}

// EndpointRule checks endpoint-related warnings
type EndpointRule struct{}

func (r *EndpointRule) Name() string {
	return "Endpoint Validation"
}

func (r *EndpointRule) Check(conversation []Message, cfg RequestConfig) []ValidationWarning {
	var warnings []ValidationWarning

	if cfg.Credential == "" {
		return warnings
	}

	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		// Hard validation reports malformed endpoints; nothing to add here.
		return warnings
	}

	if u.Scheme == "http" && !isLoopbackHost(u.Hostname()) {
		warnings = append(warnings, ValidationWarning{
			Code:     WarningCodeInsecureCredential,
			Category: "endpoint",
			Field:    "endpoint",
			Value:    cfg.Endpoint,
			Message:  "Credential will be sent as a bearer header over plain http",
			Severity: SeverityWarning,
		})
	}

	return warnings
}

// ConversationRule checks conversation-shape warnings
type ConversationRule struct{}

func (r *ConversationRule) Name() string {
	return "Conversation Validation"
}

func (r *ConversationRule) Check(conversation []Message, cfg RequestConfig) []ValidationWarning {
	var warnings []ValidationWarning

	if len(conversation) == 0 {
		warnings = append(warnings, ValidationWarning{
			Code:     WarningCodeEmptyConversation,
			Category: "conversation",
			Field:    "messages",
			Value:    0,
			Message:  "Conversation is empty (most endpoints reject an empty messages array)",
			Severity: SeverityError,
		})
		return warnings
	}

	for i, msg := range conversation {
		if !ValidRole(msg.Role) {
			warnings = append(warnings, ValidationWarning{
				Code:     WarningCodeInvalidRole,
				Category: "conversation",
				Field:    fmt.Sprintf("messages[%d].role", i),
				Value:    msg.Role,
				Message:  fmt.Sprintf("Role %q is not one of system/user/assistant", msg.Role),
				Severity: SeverityWarning,
			})
		}
	}

	if last := conversation[len(conversation)-1]; last.Role == RoleAssistant {
		warnings = append(warnings, ValidationWarning{
			Code:     WarningCodeTrailingAssistant,
			Category: "conversation",
			Field:    "messages",
			Value:    last.Role,
			Message:  "Conversation ends with an assistant turn (the model continues its own text)",
			Severity: SeverityInfo,
		})
	}

	return warnings
}

// isLoopbackHost reports whether host refers to the local machine, where
// plain http is routine.
func isLoopbackHost(host string) bool {
	host = strings.ToLower(host)
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
