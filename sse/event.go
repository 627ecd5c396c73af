package sse

import "strings"

const (
	// DataPrefix marks a line carrying an event payload. The match is
	// case-sensitive and includes the single space the protocol defines;
	// everything after the prefix is payload, untrimmed.
	DataPrefix = "data: "

	// DoneSentinel is the payload signaling end of stream.
	DoneSentinel = "[DONE]"
)

// EventType is the classification of one decoded line.
type EventType int

const (
	// EventIgnored covers blank lines, comments, and any line without the
	// data prefix. Ignored lines are protocol noise, not errors.
	EventIgnored EventType = iota

	// EventData is a line whose payload should be decoded as a fragment.
	EventData

	// EventStreamEnd is a data line carrying exactly the end sentinel.
	EventStreamEnd
)

// String returns a short name for the event type.
func (t EventType) String() string {
	switch t {
	case EventIgnored:
		return "ignored"
	case EventData:
		return "data"
	case EventStreamEnd:
		return "stream_end"
	default:
		return "unknown"
	}
}

// Event is one classified line. Data is set only for EventData.
type Event struct {
	Type EventType
	Data string
}

// Classify inspects one decoded line. Lines beginning with "data: " are data
// events whose payload is everything after the prefix; a payload that is
// exactly the sentinel token is reported as end of stream instead. All other
// lines are ignored.
func Classify(line string) Event {
	if !strings.HasPrefix(line, DataPrefix) {
		return Event{Type: EventIgnored}
	}
	payload := line[len(DataPrefix):]
	if payload == DoneSentinel {
		return Event{Type: EventStreamEnd}
	}
	return Event{Type: EventData, Data: payload}
}
