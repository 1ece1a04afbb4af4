// Package provider abstracts the external text-completion backend. A
// Provider receives normalized chat messages and returns completions over a
// channel pair: partial chunks when streaming is requested, then exactly one
// final response. Concrete backends live in the openai and anthropic
// sub-packages; Mock is an in-memory implementation for tests.
package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Message is a single role-tagged chat message sent to the backend.
type Message struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// Request captures the normalized completion input.
type Request struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int64     `json:"max_tokens"`
	Stream      bool      `json:"stream,omitempty"`
}

// Response is a (partial or final) chunk emitted by a backend. In streaming
// mode Partial chunks carry deltas and the final response carries the
// concatenated full text; in non-streaming mode only the final response is
// emitted.
type Response struct {
	Text         string `json:"text"`
	Partial      bool   `json:"partial"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// Info contains metadata about a backend implementation.
type Info struct {
	Model   string `json:"model"`
	Backend string `json:"backend"` // "openai", "anthropic", "mock"
}

// Provider is the minimal interface the orchestrator needs to drive
// generation. Complete returns a response channel and an error channel; both
// are closed by the implementation when generation finishes. A mid-stream
// failure closes the response channel early and delivers a *Error on the
// error channel; chunks already delivered remain valid partial progress.
type Provider interface {
	Complete(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the backend implementation.
	Info() Info
}

// ErrorKind classifies provider failures for retry decisions.
type ErrorKind string

// Provider failure classes.
const (
	KindNetwork   ErrorKind = "network"
	KindAuth      ErrorKind = "auth"
	KindRateLimit ErrorKind = "rate_limit"
	KindMalformed ErrorKind = "malformed"
)

// Error is a classified provider failure.
type Error struct {
	Kind ErrorKind
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string { return fmt.Sprintf("provider error (%s): %v", e.Kind, e.Err) }

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Transient reports whether the failure class is worth a single retry with
// unchanged parameters.
func (e *Error) Transient() bool { return e.Kind == KindNetwork || e.Kind == KindRateLimit }

// NewError wraps err under the given kind.
func NewError(kind ErrorKind, err error) *Error { return &Error{Kind: kind, Err: err} }

// ClassifyStatus maps an HTTP status code from a backend SDK to an ErrorKind.
func ClassifyStatus(status int) ErrorKind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 429:
		return KindRateLimit
	case status >= 500:
		return KindNetwork
	default:
		return KindMalformed
	}
}

// Mock is a lightweight in-memory Provider for tests and examples. Canned
// responses are keyed by the last user message; unmatched prompts get an
// echoing default. Failures can be scripted per prompt, optionally only for
// the first N attempts to exercise retry paths.
type Mock struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	failures  map[string]*scriptedFailure
	calls     map[string]int
	chunkSize int
}

type scriptedFailure struct {
	err   *Error
	times int // 0 = always
}

// NewMock constructs a Mock provider emitting word-sized stream chunks.
func NewMock() *Mock {
	return &Mock{
		info:      Info{Model: "mock-model", Backend: "mock"},
		responses: make(map[string]string),
		failures:  make(map[string]*scriptedFailure),
		calls:     make(map[string]int),
	}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *Mock) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// FailWith scripts a permanent failure for a prompt.
func (m *Mock) FailWith(prompt string, err *Error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[prompt] = &scriptedFailure{err: err}
}

// FailNTimes scripts a failure for the first n attempts on a prompt; later
// attempts succeed with the canned response.
func (m *Mock) FailNTimes(prompt string, n int, err *Error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[prompt] = &scriptedFailure{err: err, times: n}
}

// Calls returns how many Complete invocations targeted a prompt.
func (m *Mock) Calls(prompt string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[prompt]
}

// lastUserMessage extracts the newest user-role message from a request.
func lastUserMessage(req Request) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			return req.Messages[i].Content
		}
	}
	return ""
}

// Complete implements Provider; emits optional word chunk deltas then the
// final response.
func (m *Mock) Complete(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	out := make(chan Response, 16)
	errCh := make(chan error, 1)

	prompt := lastUserMessage(req)

	m.mu.Lock()
	m.calls[prompt]++
	attempt := m.calls[prompt]
	full, ok := m.responses[prompt]
	fail := m.failures[prompt]
	m.mu.Unlock()

	go func() {
		defer close(out)
		defer close(errCh)

		if fail != nil && (fail.times == 0 || attempt <= fail.times) {
			errCh <- fail.err
			return
		}
		if !ok {
			full = fmt.Sprintf("Mock response to: %s", prompt)
		}
		if req.Stream {
			for _, w := range strings.Fields(full) {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case out <- Response{Text: w + " ", Partial: true}:
				}
			}
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case out <- Response{Text: full, FinishReason: "stop"}:
		}
	}()
	return out, errCh
}

// Info implements Provider.
func (m *Mock) Info() Info { return m.info }
