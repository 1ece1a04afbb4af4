// Package agenthub provides a high-level façade over the orchestration core
// and its collaborators (agent catalog, response format registry, completion
// provider, conversation store, logging), enabling the surrounding chat
// backend to wire the pipeline in a few lines. Typical usage:
//  1. Load the agent catalog and format registry from declarative data
//  2. Select a completion backend via NewProvider (or inject your own)
//  3. Create an AgentHub via New() and call Execute or Stream
//
// Transport framing, authentication and durable storage remain the caller's
// concern; the façade records finished exchanges into a conversation.Store
// when one is configured.
package agenthub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agenthub-io/agenthub/catalog"
	"github.com/agenthub-io/agenthub/conversation"
	"github.com/agenthub-io/agenthub/format"
	"github.com/agenthub-io/agenthub/logging"
	"github.com/agenthub-io/agenthub/orchestrator"
	"github.com/agenthub-io/agenthub/provider"
	"github.com/agenthub-io/agenthub/provider/anthropic"
	"github.com/agenthub-io/agenthub/provider/openai"
)

// Options configures the AgentHub instance.
type Options struct {
	// Store receives finished exchanges. Nil disables persistence.
	Store conversation.Store

	// Logger defaults to the no-op logger.
	Logger logging.Logger

	// DefaultModel is used when neither request nor agent profile names one.
	DefaultModel string

	// RetryTransient forwards to the orchestrator's retry policy.
	RetryTransient bool

	// StreamBufferSize forwards to the orchestrator's stream channel buffer.
	StreamBufferSize int
}

// AgentHub aggregates the orchestration core and its collaborators.
type AgentHub struct {
	orch   *orchestrator.Orchestrator
	cat    *catalog.Catalog
	store  conversation.Store
	logger logging.Logger
}

// New wires an AgentHub from a catalog, a format registry bound to that
// catalog, and a completion provider. Catalog/registry coherence is
// validated here; a category without a format fails construction.
func New(cat *catalog.Catalog, formats *format.Registry, prov provider.Provider, optFns ...func(o *Options)) (*AgentHub, error) {
	opts := Options{
		Logger:           logging.NoOpLogger{},
		RetryTransient:   true,
		StreamBufferSize: 64,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	orch, err := orchestrator.New(cat, formats, prov, func(o *orchestrator.Options) {
		o.Logger = opts.Logger
		o.DefaultModel = opts.DefaultModel
		o.RetryTransient = opts.RetryTransient
		o.StreamBufferSize = opts.StreamBufferSize
	})
	if err != nil {
		return nil, err
	}

	return &AgentHub{orch: orch, cat: cat, store: opts.Store, logger: opts.Logger}, nil
}

// Agents lists the available agent profiles in registration order.
func (h *AgentHub) Agents() []catalog.Profile { return h.cat.List() }

// Execute fans the task out to the selected agents and returns their results
// in request order. When a store and conversation id are provided, the user
// task and every agent reply with content are appended to the conversation.
func (h *AgentHub) Execute(ctx context.Context, conversationID string, req orchestrator.TaskRequest) ([]orchestrator.AgentResult, error) {
	results, err := h.orch.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	h.record(conversationID, req, results)
	return results, nil
}

// Stream fans the task out in streaming mode, forwarding units as they
// arrive. Terminal units with content are persisted on the fly when a store
// and conversation id are configured.
func (h *AgentHub) Stream(ctx context.Context, conversationID string, req orchestrator.TaskRequest) (<-chan orchestrator.StreamUnit, error) {
	units, err := h.orch.Stream(ctx, req)
	if err != nil {
		return nil, err
	}
	if h.store == nil || conversationID == "" {
		return units, nil
	}

	h.ensureConversation(conversationID, req.UserID)
	h.appendMessage(conversationID, conversation.NewMessage("user", "", req.Task, ""))

	out := make(chan orchestrator.StreamUnit)
	go func() {
		defer close(out)
		for u := range units {
			if u.Final && u.Content != "" {
				h.appendMessage(conversationID, conversation.NewMessage("assistant", u.AgentID, u.Content, string(u.Status)))
			}
			select {
			case <-ctx.Done():
				// Keep draining so upstream goroutines observe cancellation
				// and exit; units are dropped.
				continue
			case out <- u:
			}
		}
	}()
	return out, nil
}

// record persists one request/response exchange.
func (h *AgentHub) record(conversationID string, req orchestrator.TaskRequest, results []orchestrator.AgentResult) {
	if h.store == nil || conversationID == "" {
		return
	}
	h.ensureConversation(conversationID, req.UserID)
	h.appendMessage(conversationID, conversation.NewMessage("user", "", req.Task, ""))
	for _, r := range results {
		if r.Content == "" {
			continue
		}
		h.appendMessage(conversationID, conversation.NewMessage("assistant", r.AgentID, r.Content, string(r.Status)))
	}
}

func (h *AgentHub) ensureConversation(conversationID, userID string) {
	if _, err := h.store.Get(conversationID); err == nil {
		return
	} else if !errors.Is(err, conversation.ErrNotFound) {
		h.logger.Warn("conversation lookup failed", "conversation_id", conversationID, "error", err.Error())
		return
	}
	if _, err := h.store.Create(conversationID, userID); err != nil {
		h.logger.Warn("conversation create failed", "conversation_id", conversationID, "error", err.Error())
	}
}

func (h *AgentHub) appendMessage(conversationID string, m conversation.Message) {
	if err := h.store.AppendMessage(conversationID, m); err != nil {
		h.logger.Warn("conversation append failed", "conversation_id", conversationID, "error", err.Error())
	}
}

// ProviderConfig selects and parameterizes a completion backend. Credentials
// and base URL come from per-deployment (or per-request) configuration, not
// from code.
type ProviderConfig struct {
	Backend string `yaml:"backend" json:"backend"` // "openai", "anthropic" or "mock"
	APIKey  string `yaml:"api_key" json:"api_key"`
	BaseURL string `yaml:"base_url" json:"base_url"`
	Model   string `yaml:"model" json:"model"`
}

// NewProvider maps a ProviderConfig onto a concrete backend. Pure
// configuration dispatch; no network activity.
func NewProvider(cfg ProviderConfig) (provider.Provider, error) {
	switch strings.ToLower(cfg.Backend) {
	case "openai", "":
		return openai.New(func(o *openai.Options) {
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
		}), nil
	case "anthropic":
		return anthropic.New(func(o *anthropic.Options) {
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
			if cfg.Model != "" {
				o.SetModel(cfg.Model)
			}
		}), nil
	case "mock":
		return provider.NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown provider backend %q", cfg.Backend)
	}
}
