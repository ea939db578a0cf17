package process

import (
	"context"
	"sync"

	"patchlink/internal/ports"
)

var _ ports.ProcessRunner = (*MockRunner)(nil)

// MockRunner records commands instead of running them
type MockRunner struct {
	// RunFunc is called when Run is invoked, if set
	RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

	// Calls records all invocations for verification
	Calls []Call

	mu sync.Mutex
}

// Call records a single invocation
type Call struct {
	Name string
	Args []string
}

// Run records the call and delegates to RunFunc
func (m *MockRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, Call{Name: name, Args: append([]string(nil), args...)})
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, name, args...)
	}
	return nil, nil
}
