// Package agent contains the conversational orchestration core: a
// per-session state machine that turns one user utterance into one
// response, composing intent extraction, entity resolution, validation,
// confirmation, and execution.
package agent

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/creditdesk/creditdesk/internal/intent"
	"github.com/creditdesk/creditdesk/internal/resolve"
	"github.com/creditdesk/creditdesk/internal/session"
	"github.com/creditdesk/creditdesk/internal/tools"
)

// Extractor derives structured intent from an utterance. It is an interface
// so tests can inject fixed extractions without a model call.
type Extractor interface {
	Extract(ctx context.Context, utterance string, prior *intent.Context) (*intent.Extraction, error)
}

// Deps are the collaborators an orchestrator composes.
type Deps struct {
	Extractor Extractor
	Retrieval *tools.Retrieval
	Actions   *tools.Actions
	Resolver  *resolve.Service
	Sessions  session.Store
}

// Orchestrator is the per-conversation state machine. It is not safe for
// concurrent invocation; an internal mutex serializes turns for the same
// session while independent sessions run in parallel.
type Orchestrator struct {
	deps      Deps
	sessionID string

	mu    sync.Mutex
	state State
	wc    workingContext
	now   func() time.Time
}

// NewOrchestrator creates an orchestrator for one session.
func NewOrchestrator(sessionID string, deps Deps) *Orchestrator {
	return &Orchestrator{
		deps:      deps,
		sessionID: sessionID,
		state:     StateAnalyzing,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SessionID returns the session this orchestrator serves.
func (o *Orchestrator) SessionID() string { return o.sessionID }

// State returns the current conversation state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// ProcessRequest handles one user utterance. Whatever goes wrong inside, the
// orchestrator never leaves the session stuck: any error or panic resets the
// working context and yields a generic apology.
func (o *Orchestrator) ProcessRequest(ctx context.Context, utterance string) (resp *Response) {
	o.mu.Lock()
	defer o.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("agent: session %s: recovered panic: %v", o.sessionID, r)
			o.reset()
			resp = &Response{Message: apologyMessage, Type: TypeError, AgentState: string(StateAnalyzing)}
		}
	}()

	// The reset command bypasses all other logic from any state.
	if isResetCommand(utterance) {
		o.reset()
		if err := o.deps.Sessions.Evict(ctx, o.sessionID); err != nil {
			log.Printf("agent: session %s: evicting on reset: %v", o.sessionID, err)
		}
		return &Response{Message: "Session cleared. How can I help?", Type: TypeInfo, AgentState: string(StateAnalyzing)}
	}

	sess, err := o.ensureSession(ctx)
	if err != nil {
		log.Printf("agent: session %s: loading context: %v", o.sessionID, err)
		o.reset()
		return &Response{Message: apologyMessage, Type: TypeError, AgentState: string(StateAnalyzing)}
	}
	o.record(ctx, "user", utterance)

	switch o.state {
	case StateWaitingClarification:
		resp, err = o.handleClarification(ctx, sess, utterance)
	case StateWaitingConfirmation:
		resp, err = o.handleConfirmation(ctx, sess, utterance)
	default:
		resp, err = o.handleAnalyzing(ctx, sess, utterance)
	}
	if err != nil {
		log.Printf("agent: session %s: %v", o.sessionID, err)
		o.reset()
		resp = &Response{Message: apologyMessage, Type: TypeError, AgentState: string(StateAnalyzing)}
	}

	o.record(ctx, "assistant", resp.Message)
	if err := o.deps.Sessions.Touch(ctx, o.sessionID); err != nil {
		log.Printf("agent: session %s: touch: %v", o.sessionID, err)
	}
	return resp
}

// reset returns the orchestrator to ANALYZING with a clean slate.
func (o *Orchestrator) reset() {
	o.state = StateAnalyzing
	o.wc.clear()
}

// ensureSession loads the persisted conversation context, transparently
// creating a fresh one for unknown or evicted session ids.
func (o *Orchestrator) ensureSession(ctx context.Context) (*session.Context, error) {
	sess, err := o.deps.Sessions.Get(ctx, o.sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess = &session.Context{ID: o.sessionID}
		if err := o.deps.Sessions.Put(ctx, sess); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

func (o *Orchestrator) record(ctx context.Context, role, content string) {
	err := o.deps.Sessions.AddMessage(ctx, session.Message{
		SessionID: o.sessionID,
		Role:      role,
		Content:   content,
	})
	if err != nil {
		log.Printf("agent: session %s: recording message: %v", o.sessionID, err)
	}
}

func (o *Orchestrator) saveSession(ctx context.Context, sess *session.Context) {
	if err := o.deps.Sessions.Put(ctx, sess); err != nil {
		log.Printf("agent: session %s: saving context: %v", o.sessionID, err)
	}
}

// completed renders a terminal response for this request and readies the
// orchestrator for the next turn.
func (o *Orchestrator) completed(resp *Response) *Response {
	o.reset()
	resp.AgentState = string(StateCompleted)
	return resp
}

// handleConfirmation parses the reply against the fixed yes/no vocabularies.
// A negative or unparseable reply cancels with no side effects.
func (o *Orchestrator) handleConfirmation(ctx context.Context, sess *session.Context, utterance string) (*Response, error) {
	switch parseConfirmation(utterance) {
	case verdictAffirmative:
		o.state = StateExecuting
		return o.execute(ctx, sess)
	default:
		o.reset()
		return &Response{
			Message:    "Cancelled — nothing was changed.",
			Type:       TypeCancelled,
			AgentState: string(StateAnalyzing),
		}, nil
	}
}
