package chatstream

// Delta is one incremental fragment of a streaming response. Fields are
// pointers because the wire schema makes both optional; a delta carrying
// neither is valid protocol noise. Deltas are transient: produced by the
// decode pipeline, consumed immediately, never persisted.
type Delta struct {
	// Role is set on the first fragment of most streams ("assistant").
	Role *string

	// Content is the text increment, when present.
	Content *string
}

// StreamEvent is a single event in a streaming response. Each event carries
// exactly one of a delta, a terminal completion, or an error.
type StreamEvent struct {
	// Delta contains incremental content for real-time consumption
	// (nil if completion/error).
	Delta *Delta

	// Completion contains final response metadata when streaming completes
	// (nil until the end). Its Content is left empty by providers; content
	// aggregation belongs to the session consuming the events.
	Completion *Completion

	// Err contains a fatal stream error (nil if successful). No further
	// events follow an error.
	Err error
}

// OutcomeKind discriminates the terminal outcome of a session.
type OutcomeKind int

const (
	// OutcomeSuccess means the stream completed and Outcome.Completion is set.
	OutcomeSuccess OutcomeKind = iota

	// OutcomeFailure means the session failed and Outcome.Err is set. Text
	// already delivered through increments is not retracted.
	OutcomeFailure

	// OutcomeCancelled means the caller (or a superseding request) cancelled
	// the session before it finished. Buffered content is discarded.
	OutcomeCancelled
)

// String returns a short name for the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the single terminal notification of a session.
type Outcome struct {
	// Kind selects which of the remaining fields is meaningful.
	Kind OutcomeKind

	// Completion is set for OutcomeSuccess.
	Completion *Completion

	// Err is set for OutcomeFailure, and for OutcomeCancelled carries
	// ErrSessionCancelled.
	Err error
}

// IncrementFunc receives each streamed text increment, in order.
type IncrementFunc func(text string)

// TerminalFunc receives the session's one terminal outcome.
type TerminalFunc func(outcome Outcome)
