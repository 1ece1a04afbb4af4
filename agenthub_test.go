package agenthub

import (
	"context"
	"testing"

	"github.com/agenthub-io/agenthub/conversation"
	"github.com/agenthub-io/agenthub/internal/testutil"
	"github.com/agenthub-io/agenthub/orchestrator"
	"github.com/agenthub-io/agenthub/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T, prov provider.Provider, optFns ...func(o *Options)) *AgentHub {
	t.Helper()
	cat := testutil.Catalog(t)
	reg := testutil.Registry(t, cat)
	hub, err := New(cat, reg, prov, optFns...)
	require.NoError(t, err)
	return hub
}

func TestAgents(t *testing.T) {
	hub := newTestHub(t, provider.NewMock())
	agents := hub.Agents()
	require.Len(t, agents, 2)
	assert.Equal(t, "reasoning", agents[0].ID)
	assert.Equal(t, "writer", agents[1].ID)
}

func TestExecute_WithoutStore(t *testing.T) {
	mock := provider.NewMock()
	mock.AddResponse("say hi", testutil.Words(120))
	hub := newTestHub(t, mock)

	results, err := hub.Execute(context.Background(), "", orchestrator.TaskRequest{
		Task:     "say hi",
		AgentIDs: []string{"reasoning", "writer"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, orchestrator.StatusSuccess, results[0].Status)
	assert.Equal(t, orchestrator.StatusSuccess, results[1].Status)
}

func TestExecute_RecordsConversation(t *testing.T) {
	mock := provider.NewMock()
	mock.AddResponse("write a report", testutil.Words(120))
	store := conversation.NewInMemoryStore()
	hub := newTestHub(t, mock, func(o *Options) { o.Store = store })

	results, err := hub.Execute(context.Background(), "conv-1", orchestrator.TaskRequest{
		Task:     "write a report",
		AgentIDs: []string{"reasoning", "writer", "ghost"},
		UserID:   "user-1",
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, orchestrator.StatusFailed, results[2].Status)

	conv, err := store.Get("conv-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", conv.UserID)

	// One user turn plus the two agent replies; the failed slot carries no
	// content and is not persisted.
	history := conv.History()
	require.Len(t, history, 3)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "write a report", history[0].Content)
	assert.Equal(t, "reasoning", history[1].AgentID)
	assert.Equal(t, "writer", history[2].AgentID)
}

func TestExecute_AppendsToExistingConversation(t *testing.T) {
	mock := provider.NewMock()
	mock.AddResponse("follow up", testutil.Words(60))
	store := conversation.NewInMemoryStore()
	_, err := store.Create("conv-1", "user-1")
	require.NoError(t, err)
	hub := newTestHub(t, mock, func(o *Options) { o.Store = store })

	_, err = hub.Execute(context.Background(), "conv-1", orchestrator.TaskRequest{
		Task:     "follow up",
		AgentIDs: []string{"writer"},
		UserID:   "user-1",
	})
	require.NoError(t, err)

	conv, err := store.Get("conv-1")
	require.NoError(t, err)
	assert.Len(t, conv.History(), 2)
}

func TestStream_PersistsTerminalContent(t *testing.T) {
	mock := provider.NewMock()
	mock.AddResponse("stream it", testutil.Words(80))
	store := conversation.NewInMemoryStore()
	hub := newTestHub(t, mock, func(o *Options) { o.Store = store })

	units, err := hub.Stream(context.Background(), "conv-1", orchestrator.TaskRequest{
		Task:     "stream it",
		AgentIDs: []string{"writer"},
		UserID:   "user-1",
	})
	require.NoError(t, err)

	var finals int
	for u := range units {
		if u.Final {
			finals++
			assert.Equal(t, orchestrator.StatusSuccess, u.Status)
		}
	}
	assert.Equal(t, 1, finals)

	conv, err := store.Get("conv-1")
	require.NoError(t, err)
	history := conv.History()
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "assistant", history[1].Role)
	assert.Equal(t, testutil.Words(80), history[1].Content)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(ProviderConfig{Backend: "mock"})
	require.NoError(t, err)
	assert.Equal(t, "mock", p.Info().Backend)

	p, err = NewProvider(ProviderConfig{Backend: "openai", APIKey: "k", Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Info().Backend)
	assert.Equal(t, "gpt-4o", p.Info().Model)

	p, err = NewProvider(ProviderConfig{Backend: "anthropic", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Info().Backend)

	_, err = NewProvider(ProviderConfig{Backend: "carrier-pigeon"})
	assert.Error(t, err)
}
