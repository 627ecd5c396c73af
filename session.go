package chatstream

import (
	"context"
	"strings"
	"sync"
)

// SessionState is the lifecycle position of a session.
type SessionState int

const (
	// StateIdle is the zero state, before the request is dispatched.
	StateIdle SessionState = iota

	// StateSent means the request has been handed to the provider.
	StateSent

	// StateStreaming means at least one stream event has arrived.
	StateStreaming

	// StateCompleted, StateFailed, and StateCancelled are terminal and
	// mutually exclusive; a session reaches exactly one of them, once.
	StateCompleted
	StateFailed
	StateCancelled
)

// String returns a short name for the state.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSent:
		return "sent"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func (s SessionState) terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}

// Session drives one request from dispatch to its single terminal outcome.
//
// All callbacks — every increment and the one terminal — are invoked from the
// session's dispatcher goroutine, strictly ordered and never concurrent with
// each other. A callback may itself call Cancel; once Cancel returns, no new
// increment callback will start.
//
// Each session owns its accumulation state exclusively; concurrent sessions
// (including one started before another's terminal fired) share nothing.
type Session struct {
	provider     Provider
	conversation []Message
	cfg          RequestConfig

	onIncrement IncrementFunc
	onTerminal  TerminalFunc

	ctx    context.Context
	cancel context.CancelFunc

	mu              sync.Mutex
	state           SessionState
	cancelRequested bool

	// content is touched only by the dispatcher goroutine.
	content strings.Builder

	done chan struct{}
}

// StartSession validates cfg, dispatches the request through provider, and
// returns a handle to the running session. Validation failures return a
// ConfigError synchronously: no session exists and no callback fires.
//
// onIncrement receives each non-empty content delta in order (streaming mode
// only; non-streaming sessions deliver no increments). onTerminal receives
// exactly one Outcome. Either callback may be nil.
func StartSession(ctx context.Context, provider Provider, conversation []Message, cfg RequestConfig, onIncrement IncrementFunc, onTerminal TerminalFunc) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &Session{
		provider:     provider,
		conversation: conversation,
		cfg:          cfg,
		onIncrement:  onIncrement,
		onTerminal:   onTerminal,
		ctx:          sctx,
		cancel:       cancel,
		state:        StateIdle,
		done:         make(chan struct{}),
	}

	go s.run()
	return s, nil
}

// Cancel requests cancellation. It is safe to call from any goroutine,
// from inside a callback, and more than once. After Cancel returns, no new
// increment callback starts; the session's terminal outcome (if not already
// delivered) becomes Cancelled.
func (s *Session) Cancel() {
	s.mu.Lock()
	s.cancelRequested = true
	s.mu.Unlock()
	s.cancel()
}

// State returns the session's current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Wait blocks until the terminal callback has returned.
func (s *Session) Wait() {
	<-s.done
}

func (s *Session) run() {
	defer close(s.done)
	defer s.cancel()

	s.setState(StateSent)

	if s.cfg.Stream {
		s.runStreaming()
	} else {
		s.runBlocking()
	}
}

// runBlocking handles non-streaming mode: one round trip, zero increments,
// one terminal outcome.
func (s *Session) runBlocking() {
	completion, err := s.provider.Complete(s.ctx, s.conversation, s.cfg)
	if s.ctx.Err() != nil {
		s.terminate(Outcome{Kind: OutcomeCancelled, Err: ErrSessionCancelled})
		return
	}
	if err != nil {
		s.terminate(Outcome{Kind: OutcomeFailure, Err: err})
		return
	}
	s.terminate(Outcome{Kind: OutcomeSuccess, Completion: completion})
}

// runStreaming consumes the provider's event channel, accumulating content
// and forwarding increments until a terminal condition.
func (s *Session) runStreaming() {
	events, err := s.provider.Stream(s.ctx, s.conversation, s.cfg)
	if err != nil {
		if s.ctx.Err() != nil {
			s.terminate(Outcome{Kind: OutcomeCancelled, Err: ErrSessionCancelled})
			return
		}
		s.terminate(Outcome{Kind: OutcomeFailure, Err: err})
		return
	}

	for {
		select {
		case <-s.ctx.Done():
			// In-flight events are abandoned unread.
			s.terminate(Outcome{Kind: OutcomeCancelled, Err: ErrSessionCancelled})
			return

		case ev, ok := <-events:
			if s.ctx.Err() != nil {
				s.terminate(Outcome{Kind: OutcomeCancelled, Err: ErrSessionCancelled})
				return
			}
			if !ok {
				// Transport end of stream without an error event: completed.
				// Usage and identifiers are unknown at this point.
				s.terminate(Outcome{Kind: OutcomeSuccess, Completion: &Completion{
					Model:   s.cfg.Model,
					Content: s.content.String(),
				}})
				return
			}

			s.markStreaming()

			switch {
			case ev.Err != nil:
				s.terminate(Outcome{Kind: OutcomeFailure, Err: ev.Err})
				return

			case ev.Completion != nil:
				result := *ev.Completion
				result.Content = s.content.String()
				s.terminate(Outcome{Kind: OutcomeSuccess, Completion: &result})
				return

			case ev.Delta != nil:
				if ev.Delta.Content == nil || *ev.Delta.Content == "" {
					continue
				}
				if !s.deliverIncrement(*ev.Delta.Content) {
					s.terminate(Outcome{Kind: OutcomeCancelled, Err: ErrSessionCancelled})
					return
				}
			}
		}
	}
}

// deliverIncrement appends text to the accumulation buffer and invokes the
// increment callback. It reports false when cancellation was requested, in
// which case nothing was delivered.
func (s *Session) deliverIncrement(text string) bool {
	s.mu.Lock()
	if s.cancelRequested || s.state.terminal() {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	s.content.WriteString(text)
	if s.onIncrement != nil {
		s.onIncrement(text)
	}
	return true
}

// terminate moves the session to a terminal state and fires the terminal
// callback, exactly once. A cancellation request that raced a natural
// terminal wins: the caller asked for no more callbacks, so the outcome
// delivered is Cancelled rather than the late Completed/Failed.
func (s *Session) terminate(outcome Outcome) {
	s.mu.Lock()
	if s.state.terminal() {
		s.mu.Unlock()
		return
	}
	if s.cancelRequested && outcome.Kind != OutcomeCancelled {
		outcome = Outcome{Kind: OutcomeCancelled, Err: ErrSessionCancelled}
	}
	switch outcome.Kind {
	case OutcomeSuccess:
		s.state = StateCompleted
	case OutcomeFailure:
		s.state = StateFailed
	case OutcomeCancelled:
		s.state = StateCancelled
	}
	s.mu.Unlock()

	if s.onTerminal != nil {
		s.onTerminal(outcome)
	}
}

func (s *Session) setState(state SessionState) {
	s.mu.Lock()
	if !s.state.terminal() {
		s.state = state
	}
	s.mu.Unlock()
}

// markStreaming records the arrival of the first stream event.
func (s *Session) markStreaming() {
	s.mu.Lock()
	if s.state == StateSent {
		s.state = StateStreaming
	}
	s.mu.Unlock()
}
