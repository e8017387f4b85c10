package adapter

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/a2aeval/bridge/client"
	"github.com/a2aeval/bridge/harness"
	"github.com/a2aeval/bridge/internal/obs"
	"github.com/a2aeval/bridge/internal/telemetry"
	"github.com/a2aeval/bridge/protocol"
	"github.com/a2aeval/bridge/translate"
)

const systemPrelude = "You are being evaluated as a conversational agent. Respond to the user's requests directly and use the available tools when appropriate."

// TerminationRule decides whether an Assistant message should end the task.
// The adapter never introduces stop conditions of its own; IsStop exists
// only to forward to whatever rule the orchestrator supplied.
type TerminationRule func(harness.Message) bool

// NeverStop is the default TerminationRule: the adapter never asks the
// orchestrator to stop itself, which matches "the adapter does not
// introduce new stop conditions."
func NeverStop(harness.Message) bool { return false }

// Adapter implements the harness's conversational-agent contract
// (getInitialState/generateNextMessage/stop/isStop) on top of the
// Translation Layer and Protocol Client. One Adapter targets one remote
// agent and may back many concurrent TaskSessions.
type Adapter struct {
	cl              *client.Client
	domainPolicy    string
	tools           []harness.Tool
	terminationRule TerminationRule
	log             obs.Logger
	tracer          telemetry.Tracer

	cardMu sync.Mutex
	card   *protocol.AgentCard
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithTools sets the tool schemas rendered to the agent-under-test in the
// <available_tools> block.
func WithTools(tools []harness.Tool) Option {
	return func(a *Adapter) { a.tools = tools }
}

// WithTerminationRule overrides the orchestrator's stop rule consulted by
// IsStop. Defaults to NeverStop.
func WithTerminationRule(rule TerminationRule) Option {
	return func(a *Adapter) { a.terminationRule = rule }
}

// WithLogger overrides the structured logger. Defaults to obs.NoopLogger.
func WithLogger(l obs.Logger) Option {
	return func(a *Adapter) { a.log = l }
}

// WithTracer overrides the span tracer wrapping GenerateNextMessage.
// Defaults to a no-op tracer.
func WithTracer(t telemetry.Tracer) Option {
	return func(a *Adapter) { a.tracer = t }
}

// New constructs an Adapter. domainPolicyText is appended to the fixed
// system prelude when seeding a TaskSession's history.
func New(cl *client.Client, domainPolicyText string, opts ...Option) *Adapter {
	a := &Adapter{
		cl:              cl,
		domainPolicy:    domainPolicyText,
		terminationRule: NeverStop,
		log:             obs.NoopLogger{},
		tracer:          telemetry.NewNoopTracer(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetInitialState builds a fresh TaskSession, seeding history with a single
// System message (fixed prelude plus the domain policy text this Adapter
// was constructed with). If priorHistory is non-nil it is appended
// verbatim after the System message. The AgentCard is served from the
// Adapter's cache, or fetched when nothing is cached yet; revalidateCard=true
// forces a fresh discovery call, which is how a caller revalidates the card
// for the first TaskSession of a new evaluation run.
func (a *Adapter) GetInitialState(ctx context.Context, priorHistory []harness.Message, revalidateCard bool) (*TaskSession, error) {
	card, err := a.agentCard(ctx, revalidateCard)
	if err != nil {
		return nil, err
	}

	history := []harness.Message{harness.NewSystem(systemPrelude + "\n" + a.domainPolicy)}
	history = append(history, priorHistory...)

	return &TaskSession{History: history, Card: &card}, nil
}

func (a *Adapter) agentCard(ctx context.Context, revalidate bool) (protocol.AgentCard, error) {
	a.cardMu.Lock()
	defer a.cardMu.Unlock()

	if a.card != nil && !revalidate {
		return *a.card, nil
	}
	card, err := a.cl.DiscoverAgent(ctx)
	if err != nil {
		return protocol.AgentCard{}, err
	}
	a.card = &card
	return card, nil
}

// GenerateNextMessage appends inputMessage to session's history (unpacking
// MultiTool into its constituent Tool messages), translates the resulting
// transcript to a wire message, sends it, translates the reply back, and
// returns the Assistant message plus the updated session. The returned
// session is a new value; callers must use it in place of the one passed
// in, matching the orchestrator's "(Assistant, session')" contract.
func (a *Adapter) GenerateNextMessage(ctx context.Context, inputMessage harness.Message, session *TaskSession) (harness.Message, *TaskSession, error) {
	ctx, span := a.tracer.Start(ctx, "adapter.GenerateNextMessage", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	next := session.clone()
	next.History = append(next.History, inputMessage.Flatten()...)

	wireMsg := translate.HarnessToWire(next.History, a.tools, next.ContextID)

	reply, newContextID, err := a.sendBridged(ctx, wireMsg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return harness.Message{}, session, err
	}
	span.SetStatus(codes.Ok, "")

	assistant, replyContextID := translate.WireToHarness(reply, func(msg string) {
		a.log.Warn(ctx, msg)
	})
	if replyContextID != "" {
		newContextID = replyContextID
	}

	next.History = append(next.History, assistant)
	next.ContextID = newContextID
	next.RequestCount++

	return assistant, next, nil
}

// sendBridgeResult carries a sendMessage outcome across the goroutine
// boundary in sendBridged.
type sendBridgeResult struct {
	reply     protocol.Message
	contextID string
	err       error
}

// sendBridged runs the protocol call on its own goroutine and blocks the
// calling goroutine until it completes or ctx is done.
//
// The reference design distinguishes "no scheduler active on the calling
// thread" (start a nested event loop) from "a scheduler is already active"
// (dispatch to a worker thread) to avoid deadlocking a reentrant event
// loop. Go's goroutine scheduler has no such reentrancy hazard — there is
// no notion of "the loop already running on this thread" that a blocking
// call could collide with — so a single strategy (always hand the call to
// a new goroutine, always block on its result) satisfies both branches
// identically. generateNextMessage therefore always blocks its caller for
// exactly one round-trip regardless of what else the caller's goroutine is
// doing, which is the externally observable guarantee the two-branch
// design exists to provide.
func (a *Adapter) sendBridged(ctx context.Context, wireMsg protocol.Message) (protocol.Message, string, error) {
	resultCh := make(chan sendBridgeResult, 1)
	go func() {
		reply, contextID, _, err := a.cl.SendMessage(ctx, wireMsg)
		resultCh <- sendBridgeResult{reply: reply, contextID: contextID, err: err}
	}()

	select {
	case res := <-resultCh:
		return res.reply, res.contextID, res.err
	case <-ctx.Done():
		return protocol.Message{}, "", fmt.Errorf("adapter: %w", ctx.Err())
	}
}

// Stop releases any client-side resources. The Client owns no per-task
// resources (each call builds its own *http.Client), so this is a no-op.
func (a *Adapter) Stop(context.Context, *TaskSession) error {
	return nil
}

// IsStop delegates to the orchestrator's termination rule. The adapter
// introduces no stop conditions of its own.
func (a *Adapter) IsStop(assistant harness.Message) bool {
	return a.terminationRule(assistant)
}
