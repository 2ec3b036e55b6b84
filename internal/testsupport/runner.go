package testsupport

import (
	"context"
	"sync"
)

// CommandCall records one external command invocation.
type CommandCall struct {
	Name string
	Args []string
}

// CommandRecorder captures external command invocations so tests can assert
// on the exact arguments passed to tools like ffmpeg. The zero value records
// every call and reports success.
type CommandRecorder struct {
	mu    sync.Mutex
	calls []CommandCall

	// Handler, when set, decides the outcome of each call. It may inspect
	// the arguments and create output files the code under test expects.
	Handler func(ctx context.Context, name string, args ...string) error
}

// Runner satisfies the command runner signature used across the codebase.
func (r *CommandRecorder) Runner(ctx context.Context, name string, args ...string) error {
	r.mu.Lock()
	r.calls = append(r.calls, CommandCall{Name: name, Args: append([]string(nil), args...)})
	r.mu.Unlock()

	if r.Handler != nil {
		return r.Handler(ctx, name, args...)
	}
	return nil
}

// Calls returns a copy of the recorded invocations in order.
func (r *CommandRecorder) Calls() []CommandCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CommandCall, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallsFor returns the recorded invocations of a single binary.
func (r *CommandRecorder) CallsFor(name string) []CommandCall {
	var out []CommandCall
	for _, call := range r.Calls() {
		if call.Name == name {
			out = append(out, call)
		}
	}
	return out
}
