// Package session owns the lifecycle of explanation requests: issuing them,
// applying streamed frames, finalizing results, and feeding the concept
// ledger. At most one request is in flight at a time; a new request cancels
// the previous one silently.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/decode-reader/core/internal/pkg/streamjson"
	"github.com/decode-reader/core/internal/reader/apiclient"
	"github.com/decode-reader/core/internal/reader/selection"
	"go.uber.org/zap"
)

// State is the lifecycle phase of one request key.
type State int

const (
	StatePending State = iota
	StateStreaming
	StateFinalizedSuccess
	StateFinalizedError
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateStreaming:
		return "streaming"
	case StateFinalizedSuccess:
		return "finalized-success"
	case StateFinalizedError:
		return "finalized-error"
	default:
		return "unknown"
	}
}

// Result is the published view of one request. Immutable once Streaming is
// false.
type Result struct {
	Explanation string
	Concepts    []string
	IsHighlight bool
	QuotedText  string
	Streaming   bool
}

// Request is one explain action, built from a validated selection target.
type Request struct {
	Target selection.Target
	Title  string
	Depth  string
}

// StreamOpener opens one upstream explanation stream. *apiclient.Client
// satisfies it.
type StreamOpener interface {
	OpenExplainStream(ctx context.Context, req apiclient.ExplainRequest) (<-chan apiclient.Frame, error)
}

// ConceptLedger receives concepts from finalized-success results and supplies
// the known-concept list for the next request.
type ConceptLedger interface {
	RecordAppearance(concepts []string)
	KnownConceptNames() []string
}

// FinalizeFunc is invoked once per Finalized-Success result, outside the
// manager's lock. Persistence hooks go here; failures are the hook's problem.
type FinalizeFunc func(key string, req Request, result Result)

type entry struct {
	state  State
	result Result
}

// Manager runs explanation requests against a stream opener.
type Manager struct {
	opener StreamOpener
	ledger ConceptLedger
	log    *zap.Logger

	onFinalize FinalizeFunc

	mu           sync.Mutex
	entries      map[string]*entry
	activeKey    string
	activeCancel context.CancelFunc
}

func NewManager(opener StreamOpener, ledger ConceptLedger, log *zap.Logger) *Manager {
	return &Manager{
		opener:  opener,
		ledger:  ledger,
		log:     log,
		entries: map[string]*entry{},
	}
}

// OnFinalize registers the finalize hook. Must be set before Explain.
func (m *Manager) OnFinalize(f FinalizeFunc) { m.onFinalize = f }

// Snapshot returns the current result and state for key.
func (m *Manager) Snapshot(key string) (Result, State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return Result{}, 0, false
	}
	return e.result, e.state, true
}

// ActiveKey returns the key currently in Pending or Streaming state, if any.
func (m *Manager) ActiveKey() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeKey
}

// Explain issues a request. Any in-flight request is cancelled first and its
// key never reaches a terminal state. The returned channel closes when this
// request reaches a terminal state or is itself superseded.
func (m *Manager) Explain(ctx context.Context, req Request) <-chan struct{} {
	key := req.Target.Key
	known := m.ledger.KnownConceptNames()

	ctx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	if m.activeCancel != nil {
		m.activeCancel()
	}
	m.activeKey = key
	m.activeCancel = cancel
	m.entries[key] = &entry{state: StatePending}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		m.run(ctx, key, req, known)
	}()
	return done
}

func (m *Manager) run(ctx context.Context, key string, req Request, knownConcepts []string) {
	apiReq := apiclient.ExplainRequest{
		Type:          req.Target.Kind,
		Text:          req.Target.SubjectText,
		Context:       req.Target.ContextText,
		Title:         req.Title,
		Depth:         req.Depth,
		KnownConcepts: knownConcepts,
	}

	isHighlight := req.Target.Kind == selection.KindHighlight

	frames, err := m.opener.OpenExplainStream(ctx, apiReq)
	if err != nil {
		m.finalizeError(ctx, key, req, err)
		return
	}

	var buffer strings.Builder
	for {
		var frame apiclient.Frame
		var open bool
		select {
		case <-ctx.Done():
			// superseded: discard silently
			return
		case frame, open = <-frames:
		}
		if !open {
			break
		}
		if frame.Err != nil {
			m.finalizeError(ctx, key, req, frame.Err)
			return
		}
		if frame.Done {
			m.finalizeSuccess(ctx, key, req, buffer.String())
			return
		}

		buffer.WriteString(frame.Chunk)
		snapshot := reconstruct(buffer.String())
		m.publish(ctx, key, Result{
			Explanation: snapshot.Explanation,
			Concepts:    snapshot.Concepts,
			IsHighlight: isHighlight,
			QuotedText:  quoted(req.Target),
			Streaming:   true,
		}, StateStreaming)
	}

	if ctx.Err() != nil {
		return
	}
	m.finalizeError(ctx, key, req, fmt.Errorf("stream closed without completion sentinel"))
}

func (m *Manager) finalizeSuccess(ctx context.Context, key string, req Request, buffer string) {
	final := reconstruct(buffer)
	result := Result{
		Explanation: final.Explanation,
		Concepts:    final.Concepts,
		IsHighlight: req.Target.Kind == selection.KindHighlight,
		QuotedText:  quoted(req.Target),
		Streaming:   false,
	}
	if !m.publish(ctx, key, result, StateFinalizedSuccess) {
		return
	}

	m.ledger.RecordAppearance(result.Concepts)
	if m.onFinalize != nil {
		m.onFinalize(key, req, result)
	}
}

func (m *Manager) finalizeError(ctx context.Context, key string, req Request, cause error) {
	m.log.Debug("explanation failed", zap.String("key", key), zap.Error(cause))
	m.publish(ctx, key, Result{
		Explanation: "Error: " + cause.Error(),
		Concepts:    []string{},
		IsHighlight: req.Target.Kind == selection.KindHighlight,
		QuotedText:  quoted(req.Target),
		Streaming:   false,
	}, StateFinalizedError)
}

// publish stores an update for key unless the request has been superseded.
// Reports whether the update was applied.
func (m *Manager) publish(ctx context.Context, key string, result Result, state State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ctx.Err() != nil {
		return false
	}
	m.entries[key] = &entry{state: state, result: result}
	if state != StatePending && state != StateStreaming && m.activeKey == key {
		m.activeKey = ""
		m.activeCancel = nil
	}
	return true
}

// reconstruct wraps the stream reconstructor, substituting the raw buffer
// when the parsed explanation comes back empty.
func reconstruct(buffer string) streamjson.Result {
	out := streamjson.Reconstruct(buffer)
	if out.Explanation == "" {
		out.Explanation = buffer
	}
	return out
}

func quoted(t selection.Target) string {
	if t.Kind == selection.KindHighlight {
		return t.QuotedText
	}
	return ""
}
