package exec

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockCommandExecutor is a configurable CommandExecutor for tests.
// Responses are keyed by a space-joined "command arg1 arg2" prefix, so a
// pattern like "vault read" matches any read invocation regardless of the
// reference argument.
type MockCommandExecutor struct {
	mu sync.Mutex

	// Responses maps command patterns to canned results.
	Responses map[string]MockResponse

	// DefaultResponse is used when no pattern matches.
	DefaultResponse *MockResponse

	// RecordedCalls stores every Execute invocation for verification.
	RecordedCalls []RecordedCall

	// StrictMode makes Execute fail on commands with no configured
	// response instead of returning empty success.
	StrictMode bool
}

// MockResponse is the canned result for one command pattern.
type MockResponse struct {
	Stdout []byte
	Stderr []byte
	Err    error
}

// RecordedCall captures one Execute invocation.
type RecordedCall struct {
	Command string
	Args    []string
}

// NewMockCommandExecutor returns an empty mock.
func NewMockCommandExecutor() *MockCommandExecutor {
	return &MockCommandExecutor{
		Responses: make(map[string]MockResponse),
	}
}

// Execute records the call and returns the first matching canned response.
func (m *MockCommandExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	m.RecordedCalls = append(m.RecordedCalls, RecordedCall{Command: name, Args: args})

	key := name
	if len(args) > 0 {
		key = name + " " + strings.Join(args, " ")
	}

	if resp, ok := m.Responses[key]; ok {
		return resp.Stdout, resp.Stderr, resp.Err
	}
	for pattern, resp := range m.Responses {
		if strings.HasPrefix(key, pattern) {
			return resp.Stdout, resp.Stderr, resp.Err
		}
	}
	if m.DefaultResponse != nil {
		return m.DefaultResponse.Stdout, m.DefaultResponse.Stderr, m.DefaultResponse.Err
	}
	if m.StrictMode {
		return nil, nil, fmt.Errorf("mock: no response configured for command: %s", key)
	}
	return []byte{}, []byte{}, nil
}

// AddResponse registers a canned response for a command pattern.
func (m *MockCommandExecutor) AddResponse(pattern string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[pattern] = resp
}

// AddOutput registers a successful response with the given stdout.
func (m *MockCommandExecutor) AddOutput(pattern, stdout string) {
	m.AddResponse(pattern, MockResponse{Stdout: []byte(stdout)})
}

// AddErrorResponse registers a failing response with stderr text and a
// synthesized exit error.
func (m *MockCommandExecutor) AddErrorResponse(pattern, stderr string, exitCode int) {
	m.AddResponse(pattern, MockResponse{
		Stderr: []byte(stderr),
		Err:    fmt.Errorf("exit status %d: %s", exitCode, stderr),
	})
}

// Calls returns the recorded calls for the given command name.
func (m *MockCommandExecutor) Calls(command string) []RecordedCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matches []RecordedCall
	for _, call := range m.RecordedCalls {
		if call.Command == command {
			matches = append(matches, call)
		}
	}
	return matches
}

// CallCount returns the total number of Execute invocations.
func (m *MockCommandExecutor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.RecordedCalls)
}

// AssertCalled fails t when command was never executed.
func (m *MockCommandExecutor) AssertCalled(t interface{ Error(args ...interface{}) }, command string) bool {
	if len(m.Calls(command)) == 0 {
		t.Error("expected command", command, "to be called, but it was not")
		return false
	}
	return true
}
