package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/agenthub-io/agenthub/catalog"
	"github.com/agenthub-io/agenthub/format"
	"github.com/agenthub-io/agenthub/provider"
	"github.com/google/uuid"
)

// StreamUnit is one incremental delivery unit from a streaming batch. Units
// from different slots interleave in arrival order; within one slot the
// sequence numbers are strictly increasing with no gaps, ending with exactly
// one terminal unit. Slot is the occurrence's index in the request's agent id
// list, so consumers must group by slot rather than agent id: duplicate ids
// run once per occurrence and each occurrence streams under its own slot.
//
// Section boundaries are not recoverable from a live token stream, so deltas
// are always tagged with the raw sentinel section while in flight; the full
// section breakdown is computed once the agent's stream ends and carried on
// the terminal unit.
type StreamUnit struct {
	InvocationID string            `json:"invocation_id"`
	AgentID      string            `json:"agent_id"`
	Slot         int               `json:"slot"`
	SectionID    string            `json:"section_id"`
	Delta        string            `json:"delta,omitempty"`
	Seq          int               `json:"seq"`
	Final        bool              `json:"final"`
	Status       Status            `json:"status,omitempty"`
	Sections     map[string]string `json:"sections,omitempty"`
	Content      string            `json:"content,omitempty"`
	Error        string            `json:"error,omitempty"`
	ErrorKind    string            `json:"error_kind,omitempty"`
}

// Stream runs the task against every selected agent concurrently and emits
// StreamUnits as provider chunks arrive. The returned channel is closed when
// every agent has emitted its terminal unit. Cancelling ctx stops all
// in-flight provider streams and releases the emitting goroutines even if
// the consumer has stopped pulling.
func (o *Orchestrator) Stream(ctx context.Context, req TaskRequest) (<-chan StreamUnit, error) {
	if len(req.AgentIDs) == 0 {
		return nil, ErrNoAgents
	}

	invocationID := uuid.NewString()
	o.logger.Info("stream batch started",
		"invocation_id", invocationID,
		"user_id", req.UserID,
		"agents", len(req.AgentIDs),
	)

	out := make(chan StreamUnit, o.streamBuffer)
	var wg sync.WaitGroup
	for i, id := range req.AgentIDs {
		wg.Add(1)
		go func(slot int, agentID string) {
			defer wg.Done()
			o.streamAgent(ctx, invocationID, req, slot, agentID, out)
		}(i, id)
	}
	go func() {
		wg.Wait()
		close(out)
		o.logger.Info("stream batch completed", "invocation_id", invocationID)
	}()
	return out, nil
}

// streamAgent drives one slot's provider stream, forwarding deltas under
// the raw section and finishing with a terminal unit carrying final status,
// accumulated content and section breakdown. A transient failure before the
// first delta is retried once, matching the non-streaming policy; a failure
// after deltas went out cannot be retried without duplicating delivered
// text, so it keeps the text collected so far on the terminal unit instead.
func (o *Orchestrator) streamAgent(ctx context.Context, invocationID string, req TaskRequest, slot int, agentID string, out chan<- StreamUnit) {
	seq := 0
	emit := func(u StreamUnit) bool {
		u.InvocationID = invocationID
		u.AgentID = agentID
		u.Slot = slot
		seq++
		u.Seq = seq
		select {
		case <-ctx.Done():
			return false
		case out <- u:
			return true
		}
	}

	profile, err := o.cat.Get(agentID)
	if err != nil {
		emit(StreamUnit{
			SectionID: format.RawSectionID,
			Final:     true,
			Status:    StatusFailed,
			Error:     fmt.Sprintf("agent %q is not in the catalog", agentID),
			ErrorKind: ErrKindUnknownAgent,
		})
		return
	}

	preq, err := o.buildRequest(req, profile, true)
	if err != nil {
		emit(StreamUnit{
			SectionID: format.RawSectionID,
			Final:     true,
			Status:    StatusFailed,
			Error:     err.Error(),
			ErrorKind: string(provider.KindMalformed),
		})
		return
	}

	for attempt := 0; ; attempt++ {
		respCh, errCh := o.prov.Complete(ctx, preq)
		var buf strings.Builder
		full := ""
		for r := range respCh {
			if r.Partial {
				buf.WriteString(r.Text)
				if !emit(StreamUnit{SectionID: format.RawSectionID, Delta: r.Text}) {
					o.drain(respCh, errCh)
					return
				}
				continue
			}
			full = r.Text
		}

		if perr := <-errCh; perr != nil {
			var pe *provider.Error
			if attempt == 0 && o.retryTransient && buf.Len() == 0 &&
				errors.As(perr, &pe) && pe.Transient() && ctx.Err() == nil {
				o.logger.Warn("retrying transient provider error",
					"invocation_id", invocationID,
					"agent_id", agentID,
					"kind", string(pe.Kind),
				)
				continue
			}
			o.logger.Error("agent stream failed",
				"invocation_id", invocationID,
				"agent_id", agentID,
				"error", perr.Error(),
			)
			emit(o.terminalFailure(profile, buf.String(), perr))
			return
		}

		if full == "" {
			full = buf.String()
		}
		result := AgentResult{AgentID: agentID}
		o.finalize(&result, profile, full)
		emit(StreamUnit{
			SectionID: format.RawSectionID,
			Final:     true,
			Status:    result.Status,
			Sections:  result.Sections,
			Content:   result.Content,
		})
		return
	}
}

// terminalFailure builds the terminal unit for a failed stream, retaining
// whatever text arrived before the failure as best-effort sections.
func (o *Orchestrator) terminalFailure(profile catalog.Profile, partial string, err error) StreamUnit {
	u := StreamUnit{
		SectionID: format.RawSectionID,
		Final:     true,
		Status:    StatusFailed,
		Error:     err.Error(),
		ErrorKind: errorKind(err),
		Content:   partial,
	}
	if partial == "" {
		return u
	}
	if f, ferr := o.formats.Get(profile.Category); ferr == nil {
		u.Sections = format.ParseSections(f, partial)
	} else {
		u.Sections = map[string]string{format.RawSectionID: partial}
	}
	return u
}

// drain consumes the remainder of an abandoned provider stream so its
// goroutine can exit once the upstream observes cancellation.
func (o *Orchestrator) drain(respCh <-chan provider.Response, errCh <-chan error) {
	for range respCh {
	}
	<-errCh
}
