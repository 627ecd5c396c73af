package chatstream

import (
	"context"
	"sync"
)

// SessionManager serializes sessions for the common one-outstanding-request
// usage pattern: starting a new session supersedes the previous one, which is
// cancelled before the new request dispatches and can deliver no further
// callbacks. Callers that want genuinely concurrent sessions use StartSession
// directly; sessions are independent either way.
type SessionManager struct {
	provider Provider
	logger   Logger

	mu      sync.Mutex
	current *Session
}

// NewSessionManager returns a manager dispatching through provider.
func NewSessionManager(provider Provider) *SessionManager {
	return &SessionManager{provider: provider}
}

// SetLogger installs an optional diagnostics sink. Nil is silent.
func (m *SessionManager) SetLogger(logger Logger) {
	m.logger = logger
}

// StartSession cancels any outstanding session, then starts a new one.
// See the package-level StartSession for callback semantics.
func (m *SessionManager) StartSession(ctx context.Context, conversation []Message, cfg RequestConfig, onIncrement IncrementFunc, onTerminal TerminalFunc) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && !m.current.State().terminal() {
		if m.logger != nil {
			m.logger.Printf("[SESSION] superseding outstanding session (model %s)", m.current.cfg.Model)
		}
		m.current.Cancel()
	}

	session, err := StartSession(ctx, m.provider, conversation, cfg, onIncrement, onTerminal)
	if err != nil {
		return nil, err
	}
	m.current = session
	return session, nil
}

// Cancel cancels the outstanding session, if any.
func (m *SessionManager) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.Cancel()
	}
}
