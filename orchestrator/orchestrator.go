// Package orchestrator implements the fan-out/fan-in pipeline at the heart
// of the backend: one task is dispatched to N selected agents concurrently,
// each agent's raw completion is shaped against its category's response
// format, and the per-agent results are collected into a slice ordered by
// the request's agent ids regardless of completion order.
//
// Failures are isolated per agent: an unknown id or a provider error marks
// that agent's slot failed and leaves every other slot untouched. Only
// batch-level validation (an empty agent list) fails the whole call.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agenthub-io/agenthub/catalog"
	"github.com/agenthub-io/agenthub/format"
	"github.com/agenthub-io/agenthub/internal/util"
	"github.com/agenthub-io/agenthub/logging"
	"github.com/agenthub-io/agenthub/provider"
	"github.com/google/uuid"
)

// Status classifies the outcome of one agent's slot in a batch.
type Status string

// Agent result statuses. Partial means the content was kept but fell short
// of the category's minimum word count; it is a status, not an error.
const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// Error kinds recorded on failed agent results, beyond the provider's own
// classification.
const (
	ErrKindUnknownAgent = "unknown_agent"
	ErrKindCanceled     = "canceled"
)

// ErrNoAgents is returned when a request selects no agents at all. This is
// the only batch-fatal validation error.
var ErrNoAgents = fmt.Errorf("no agents selected")

// TaskRequest is one orchestration invocation: a task fanned out to the
// listed agents. Duplicate ids are executed once per occurrence, each with
// its own slot and completion request. UserID is an opaque identity used for
// logging only. Context entries are interpolated into system prompts and
// appended to the user message in deterministic key order.
type TaskRequest struct {
	Task     string            `json:"task"`
	AgentIDs []string          `json:"agent_ids"`
	Model    string            `json:"model,omitempty"`
	UserID   string            `json:"user_id,omitempty"`
	Context  map[string]string `json:"context,omitempty"`
}

// AgentResult is the immutable outcome of one agent slot.
type AgentResult struct {
	InvocationID string            `json:"invocation_id"`
	AgentID      string            `json:"agent_id"`
	AgentName    string            `json:"agent_name,omitempty"`
	Content      string            `json:"content,omitempty"`
	Sections     map[string]string `json:"sections,omitempty"`
	Status       Status            `json:"status"`
	Error        string            `json:"error,omitempty"`
	ErrorKind    string            `json:"error_kind,omitempty"`
}

// Options configure an Orchestrator instance.
type Options struct {
	// Logger receives structured per-agent and batch diagnostics. Defaults
	// to the no-op logger.
	Logger logging.Logger

	// DefaultModel is used when neither the request nor the agent profile
	// names a model.
	DefaultModel string

	// RetryTransient controls whether transient provider failures (network,
	// rate limit) are retried once with unchanged parameters.
	RetryTransient bool

	// StreamBufferSize sets the channel buffer for Stream output. Larger
	// buffers reduce cross-agent blocking under bursty providers.
	StreamBufferSize int
}

// Orchestrator resolves agents against the catalog, fans completion requests
// out to the provider, and folds formatted results back in request order.
// Safe for concurrent use: all referenced state is read-only after New.
type Orchestrator struct {
	cat            *catalog.Catalog
	formats        *format.Registry
	prov           provider.Provider
	logger         logging.Logger
	defaultModel   string
	retryTransient bool
	streamBuffer   int
}

// New wires an Orchestrator. The format registry is validated against the
// catalog here: an agent category without a response format is a fatal
// configuration error surfaced at startup, never at request time.
func New(cat *catalog.Catalog, formats *format.Registry, prov provider.Provider, optFns ...func(o *Options)) (*Orchestrator, error) {
	opts := Options{
		Logger:           logging.NoOpLogger{},
		RetryTransient:   true,
		StreamBufferSize: 64,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := formats.Validate(); err != nil {
		return nil, fmt.Errorf("agent configuration invalid: %w", err)
	}

	return &Orchestrator{
		cat:            cat,
		formats:        formats,
		prov:           prov,
		logger:         opts.Logger,
		defaultModel:   opts.DefaultModel,
		retryTransient: opts.RetryTransient,
		streamBuffer:   opts.StreamBufferSize,
	}, nil
}

// Execute runs the task against every selected agent concurrently and
// returns one result per requested id, in request order. Per-agent failures
// are folded into their slot; the call itself only fails on an empty agent
// list or a cancelled context.
func (o *Orchestrator) Execute(ctx context.Context, req TaskRequest) ([]AgentResult, error) {
	if len(req.AgentIDs) == 0 {
		return nil, ErrNoAgents
	}

	invocationID := uuid.NewString()
	start := time.Now()
	o.logger.Info("batch started",
		"invocation_id", invocationID,
		"user_id", req.UserID,
		"agents", len(req.AgentIDs),
	)

	results := make([]AgentResult, len(req.AgentIDs))
	var wg sync.WaitGroup
	for i, id := range req.AgentIDs {
		wg.Add(1)
		go func(slot int, agentID string) {
			defer wg.Done()
			results[slot] = o.runAgent(ctx, invocationID, req, agentID)
		}(i, id)
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Status == StatusFailed {
			failed++
		}
	}
	o.logger.Info("batch completed",
		"invocation_id", invocationID,
		"agents", len(results),
		"failed", failed,
		"duration", time.Since(start),
	)
	return results, nil
}

// runAgent executes one agent slot end to end: catalog lookup, prompt
// construction, provider call with retry, then formatting.
func (o *Orchestrator) runAgent(ctx context.Context, invocationID string, req TaskRequest, agentID string) AgentResult {
	res := AgentResult{InvocationID: invocationID, AgentID: agentID}

	profile, err := o.cat.Get(agentID)
	if err != nil {
		res.Status = StatusFailed
		res.ErrorKind = ErrKindUnknownAgent
		res.Error = fmt.Sprintf("agent %q is not in the catalog", agentID)
		o.logger.Warn("unknown agent requested", "invocation_id", invocationID, "agent_id", agentID)
		return res
	}
	res.AgentName = profile.Name

	preq, err := o.buildRequest(req, profile, false)
	if err != nil {
		res.Status = StatusFailed
		res.ErrorKind = string(provider.KindMalformed)
		res.Error = fmt.Sprintf("prompt construction failed: %v", err)
		return res
	}

	start := time.Now()
	text, perr := o.completeWithRetry(ctx, preq)
	if perr != nil {
		res.Status = StatusFailed
		res.Error = perr.Error()
		res.ErrorKind = errorKind(perr)
		o.logger.Error("agent completion failed",
			"invocation_id", invocationID,
			"agent_id", agentID,
			"model", preq.Model,
			"duration", time.Since(start),
			"error", perr.Error(),
		)
		return res
	}

	o.finalize(&res, profile, text)
	o.logger.Debug("agent completed",
		"invocation_id", invocationID,
		"agent_id", agentID,
		"status", string(res.Status),
		"words", format.CountWords(text),
		"duration", time.Since(start),
	)
	return res
}

// buildRequest assembles the provider request for one agent. The system
// prompt is the profile prompt (with context interpolation) extended by the
// category's formatting contract; the user message is the task plus the
// serialized context. Model precedence: request > profile > default.
func (o *Orchestrator) buildRequest(req TaskRequest, profile catalog.Profile, stream bool) (provider.Request, error) {
	base, err := util.RenderTemplate(profile.SystemPrompt, req.Context)
	if err != nil {
		return provider.Request{}, fmt.Errorf("system prompt for %s: %w", profile.ID, err)
	}
	system := o.formats.BuildPrompt(profile.Category, base)

	model := req.Model
	if model == "" {
		model = profile.Model
	}
	if model == "" {
		model = o.defaultModel
	}

	return provider.Request{
		Messages: []provider.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: userMessage(req)},
		},
		Model:  model,
		Stream: stream,
	}, nil
}

// userMessage serializes the task and context map into the user turn.
// Context keys are sorted so the message is deterministic.
func userMessage(req TaskRequest) string {
	if len(req.Context) == 0 {
		return req.Task
	}
	keys := make([]string, 0, len(req.Context))
	for k := range req.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(req.Task)
	b.WriteString("\n\nContext:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, req.Context[k])
	}
	return b.String()
}

// completeWithRetry drains one non-streaming provider call, retrying exactly
// once with unchanged parameters when the failure class is transient.
func (o *Orchestrator) completeWithRetry(ctx context.Context, preq provider.Request) (string, error) {
	text, err := o.complete(ctx, preq)
	if err == nil {
		return text, nil
	}
	var perr *provider.Error
	if o.retryTransient && errors.As(err, &perr) && perr.Transient() && ctx.Err() == nil {
		o.logger.Warn("retrying transient provider error", "kind", string(perr.Kind), "model", preq.Model)
		return o.complete(ctx, preq)
	}
	return "", err
}

// complete issues one provider call and folds the channel pair into a full
// text or an error.
func (o *Orchestrator) complete(ctx context.Context, preq provider.Request) (string, error) {
	respCh, errCh := o.prov.Complete(ctx, preq)
	var final string
	for r := range respCh {
		if !r.Partial {
			final = r.Text
		}
	}
	if err := <-errCh; err != nil {
		return "", err
	}
	return final, nil
}

// finalize splits the raw content into sections per the category's format
// and assigns the success/partial status from the aggregate word count.
// Content below the minimum is kept, never discarded.
func (o *Orchestrator) finalize(res *AgentResult, profile catalog.Profile, text string) {
	res.Content = text
	if f, err := o.formats.Get(profile.Category); err == nil {
		res.Sections = format.ParseSections(f, text)
	} else {
		res.Sections = map[string]string{format.RawSectionID: text}
	}

	if format.CountWords(text) < o.formats.MinWordsFor(profile.ID) {
		res.Status = StatusPartial
		return
	}
	res.Status = StatusSuccess
}

// errorKind extracts the result error kind from a provider failure.
func errorKind(err error) string {
	var perr *provider.Error
	if errors.As(err, &perr) {
		return string(perr.Kind)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrKindCanceled
	}
	return string(provider.KindNetwork)
}
