package chatstream

// Severity indicates how serious a validation warning is
type Severity string

const (
	SeverityInfo    Severity = "info"    // Informational (might be expected)
	SeverityWarning Severity = "warning" // Potentially problematic
	SeverityError   Severity = "error"   // Likely to cause API failure
)

// WarningCode is a machine-readable identifier for validation warnings
type WarningCode string

const (
	// Model warnings
	WarningCodeModelUnknown         WarningCode = "MODEL_UNKNOWN"
	WarningCodeStreamingUnsupported WarningCode = "STREAMING_UNSUPPORTED"

	// Endpoint warnings
	WarningCodeInsecureCredential WarningCode = "INSECURE_CREDENTIAL"

	// Conversation warnings
	WarningCodeEmptyConversation WarningCode = "EMPTY_CONVERSATION"
	WarningCodeInvalidRole       WarningCode = "INVALID_ROLE"
	WarningCodeTrailingAssistant WarningCode = "TRAILING_ASSISTANT"
)

// ValidationWarning represents a potential issue that might cause API failure.
// These are informational - the library doesn't block requests based on
// warnings. The endpoint is the source of truth for request validation; hard
// failures (malformed endpoint, missing model) live in RequestConfig.Validate.
type ValidationWarning struct {
	Code     WarningCode // Machine-readable code
	Category string      // "model", "endpoint", "conversation"
	Field    string      // Field that might cause issues
	Value    any         // The potentially problematic value
	Message  string      // Human-readable warning
	Severity Severity    // How serious this warning is
}

// ValidationRule interface allows adding custom validation logic
type ValidationRule interface {
	// Name returns a human-readable name for this rule
	Name() string

	// Check inspects a request and returns warnings
	Check(conversation []Message, cfg RequestConfig) []ValidationWarning
}
