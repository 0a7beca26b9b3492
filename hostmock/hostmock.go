package hostmock

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnexpectedNamespace is returned when the namespace is not as expected.
	ErrUnexpectedNamespace = errors.New("unexpected namespace")

	// ErrUnexpectedRoute is returned by a strict Mock for calls with no handler.
	ErrUnexpectedRoute = errors.New("unexpected capability or function")
)

// Route identifies a host function by capability and function name.
type Route struct {
	Capability string
	Function   string
}

func (r Route) String() string { return r.Capability + "/" + r.Function }

// Handler answers one host call.
type Handler func(payload []byte) ([]byte, error)

// Reply returns a Handler that always answers with b.
func Reply(b []byte) Handler {
	return func([]byte) ([]byte, error) { return b, nil }
}

// Call is one recorded host invocation.
type Call struct {
	Namespace string
	Route     Route
	Payload   []byte
}

// Config represents the configuration for creating a Mock instance.
type Config struct {
	// Namespace, when set, is the only namespace accepted.
	Namespace string

	// Handlers answer calls by route.
	Handlers map[Route]Handler

	// Strict rejects calls that have no handler.
	Strict bool

	// Fail, when set, is returned from every call.
	Fail error
}

// Mock simulates the waPC host.
type Mock struct {
	cfg Config

	mu    sync.Mutex
	calls []Call
}

// New creates a Mock from config.
func New(config Config) *Mock {
	handlers := make(map[Route]Handler, len(config.Handlers))
	for r, h := range config.Handlers {
		handlers[r] = h
	}
	config.Handlers = handlers
	return &Mock{cfg: config}
}

// Handle registers or replaces the handler for route.
func (m *Mock) Handle(route Route, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.Handlers[route] = h
}

// HostCall records the call and answers it from the configured handlers.
func (m *Mock) HostCall(namespace, capability, function string, payload []byte) ([]byte, error) {
	route := Route{Capability: capability, Function: function}

	m.mu.Lock()
	m.calls = append(m.calls, Call{
		Namespace: namespace,
		Route:     route,
		Payload:   append([]byte(nil), payload...),
	})
	h, ok := m.cfg.Handlers[route]
	m.mu.Unlock()

	if m.cfg.Fail != nil {
		return nil, m.cfg.Fail
	}

	if m.cfg.Namespace != "" && m.cfg.Namespace != namespace {
		return nil, fmt.Errorf("%w: expected namespace %s, got %s", ErrUnexpectedNamespace, m.cfg.Namespace, namespace)
	}

	if !ok {
		if m.cfg.Strict {
			return nil, fmt.Errorf("%w: %s", ErrUnexpectedRoute, route)
		}
		return nil, nil
	}
	return h(payload)
}

// Calls returns a copy of every recorded call in order.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// CallsTo returns the recorded calls for one capability and function.
func (m *Mock) CallsTo(capability, function string) []Call {
	want := Route{Capability: capability, Function: function}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Call
	for _, c := range m.calls {
		if c.Route == want {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets all recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}
