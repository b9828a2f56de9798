package jail

import (
	"context"
	"fmt"
	"sync"
)

// MockRuntime is a mock implementation of Runtime for testing
type MockRuntime struct {
	mu sync.RWMutex

	// Jails tracks registered jails by name
	Jails map[string]CreateOptions

	// ExitCode is returned by Exec
	ExitCode int

	// Errors allows injecting errors for specific operations
	Errors map[string]error

	// CallLog records all method calls for verification
	CallLog []MockCall
}

// MockCall represents a recorded method call
type MockCall struct {
	Method string
	Args   []interface{}
}

// NewMockRuntime creates a new mock runtime
func NewMockRuntime() *MockRuntime {
	return &MockRuntime{
		Jails:   make(map[string]CreateOptions),
		Errors:  make(map[string]error),
		CallLog: make([]MockCall, 0),
	}
}

func (m *MockRuntime) record(method string, args ...interface{}) {
	m.CallLog = append(m.CallLog, MockCall{Method: method, Args: args})
}

// SetError sets an error to be returned for a specific operation
func (m *MockRuntime) SetError(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[operation] = err
}

// GetCallsFor returns all calls for a specific method
func (m *MockRuntime) GetCallsFor(method string) []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var calls []MockCall
	for _, call := range m.CallLog {
		if call.Method == method {
			calls = append(calls, call)
		}
	}
	return calls
}

// Methods returns the recorded method names in call order
func (m *MockRuntime) Methods() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, len(m.CallLog))
	for i, call := range m.CallLog {
		names[i] = call.Method
	}
	return names
}

// Name returns the runtime identifier
func (m *MockRuntime) Name() string {
	return "mock"
}

// Create registers a mock jail
func (m *MockRuntime) Create(ctx context.Context, opts CreateOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Create", opts)

	if err := m.Errors["Create"]; err != nil {
		return err
	}
	if _, exists := m.Jails[opts.Name]; exists {
		return fmt.Errorf("jail %s already exists", opts.Name)
	}
	m.Jails[opts.Name] = opts
	return nil
}

// Exists reports whether the mock jail is registered
func (m *MockRuntime) Exists(ctx context.Context, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Exists", name)
	_, ok := m.Jails[name]
	return ok
}

// Exec records the command and returns ExitCode
func (m *MockRuntime) Exec(ctx context.Context, name string, command []string, opts ExecOptions) (*ExecResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Exec", name, command, opts)

	if err := m.Errors["Exec"]; err != nil {
		return nil, err
	}
	if _, ok := m.Jails[name]; !ok {
		return nil, fmt.Errorf("jail %s not found", name)
	}
	return &ExecResult{ExitCode: m.ExitCode}, nil
}

// Remove unregisters a mock jail
func (m *MockRuntime) Remove(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Remove", name)

	if err := m.Errors["Remove"]; err != nil {
		return err
	}
	if _, ok := m.Jails[name]; !ok {
		return fmt.Errorf("jail %s not found", name)
	}
	delete(m.Jails, name)
	return nil
}
