package engine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/dipeo/execengine/pkg/compiler"
	"github.com/dipeo/execengine/pkg/config"
	"github.com/dipeo/execengine/pkg/conversation"
	"github.com/dipeo/execengine/pkg/envelope"
	"github.com/dipeo/execengine/pkg/events"
	"github.com/dipeo/execengine/pkg/handlers"
	"github.com/dipeo/execengine/pkg/inputs"
	"github.com/dipeo/execengine/pkg/logging"
	"github.com/dipeo/execengine/pkg/middleware"
	"github.com/dipeo/execengine/pkg/ports"
	"github.com/dipeo/execengine/pkg/scheduler"
	"github.com/dipeo/execengine/pkg/statestore"
	"github.com/dipeo/execengine/pkg/token"
	"github.com/dipeo/execengine/pkg/types"
)

// Engine drives one compiled diagram through repeated scheduling ticks
// until it completes, deadlocks, or its execution context ends.
//
// State manager writes happen synchronously on the engine's own
// goroutine as each node's outcome is recorded — the scheduler's next
// tick always sees a consistent view of execution counts and statuses.
// Events are additionally handed to an events.Bus for observer fan-out
// (streaming, metrics, forwarding); that delivery is asynchronous and,
// per spec, observers may see an event after downstream nodes already
// consumed the output it describes.
type Engine struct {
	diagram   *compiler.ExecutableDiagram
	registry  *handlers.Registry
	tokens    *token.Manager
	scheduler *scheduler.Scheduler
	store     *statestore.Store
	bus       events.Bus

	cfg           config.Config
	portBundle    handlers.PortBundle
	conversations *conversation.Store
	log           *logging.Logger
	diagramRepo   ports.DiagramRepositoryPort
	chain         *middleware.Chain

	outputsMu sync.RWMutex
	outputs   map[types.NodeID]envelope.Envelope

	varsMu               sync.RWMutex
	variablesByExecution map[string]map[string]interface{}

	emitMu sync.Mutex
	seq    uint64
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithConfig sets the ambient resource/security configuration (timeouts,
// HTTP limits, zero-trust network policy) handlers read via
// ExecutionContext.Config().
func WithConfig(cfg config.Config) Option { return func(e *Engine) { e.cfg = cfg } }

// WithPorts wires the external collaborators handlers may call.
func WithPorts(p handlers.PortBundle) Option { return func(e *Engine) { e.portBundle = p } }

// WithConversations supplies the shared conversation store PersonJob
// handlers read and append to.
func WithConversations(c *conversation.Store) Option {
	return func(e *Engine) { e.conversations = c }
}

// WithLogger overrides the structured logger.
func WithLogger(l *logging.Logger) Option { return func(e *Engine) { e.log = l } }

// WithEventBus attaches a bus events are published to for observer
// fan-out. Engines created without one simply skip publication.
func WithEventBus(bus events.Bus) Option { return func(e *Engine) { e.bus = bus } }

// WithStateStore overrides the event-sourced state store, letting a
// parent execution share one store across its own run and its
// sub-diagram children.
func WithStateStore(s *statestore.Store) Option { return func(e *Engine) { e.store = s } }

// WithDiagramRepository supplies the repository SubDiagram nodes resolve
// nested diagrams through.
func WithDiagramRepository(r ports.DiagramRepositoryPort) Option {
	return func(e *Engine) { e.diagramRepo = r }
}

// WithMiddleware wraps every handler dispatch in chain, for cross-cutting
// concerns (rate limiting, size limits, input validation) that apply to
// node execution regardless of kind. Engines built without one dispatch
// straight to the registry.
func WithMiddleware(chain *middleware.Chain) Option {
	return func(e *Engine) { e.chain = chain }
}

// New builds an Engine for one compiled diagram and handler registry.
func New(d *compiler.ExecutableDiagram, registry *handlers.Registry, opts ...Option) *Engine {
	e := &Engine{
		diagram:              d,
		registry:             registry,
		store:                statestore.New(),
		cfg:                  *config.Default(),
		log:                  logging.New(config.Default().ToLoggingConfig()),
		outputs:              make(map[types.NodeID]envelope.Envelope),
		variablesByExecution: make(map[string]map[string]interface{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.tokens = token.NewManager(d)
	e.scheduler = scheduler.New(d, e.tokens, e.store)
	return e
}

// Result is the terminal outcome of one Run.
type Result struct {
	ExecutionID string
	Status      statestore.Status
	Outputs     map[types.NodeID]envelope.Envelope
	Error       string
}

// Run executes the engine's diagram to a terminal state: COMPLETED on a
// clean finish, FAILED on an unrecovered node error or deadlock, ABORTED
// on cancellation or timeout.
func (e *Engine) Run(ctx context.Context, opts types.Options) (Result, error) {
	opts = opts.WithDefaults()
	executionID := generateExecutionID()

	runCtx, cancel := context.WithTimeout(ctx, opts.Timeout())
	defer cancel()

	e.varsMu.Lock()
	e.variablesByExecution[executionID] = opts.Variables
	e.varsMu.Unlock()
	defer func() {
		e.varsMu.Lock()
		delete(e.variablesByExecution, executionID)
		e.varsMu.Unlock()
	}()

	e.emit(runCtx, executionID, events.ExecutionStarted, nil)

	var inFlightMu sync.Mutex
	inFlight := make(map[types.NodeID]bool)
	wake := make(chan struct{}, len(e.diagram.Nodes)+1)

	sem := newSemaphore(opts.ConcurrencyLimit)

	var failMu sync.Mutex
	var failure error
	var wg sync.WaitGroup

	finish := func(err error) (Result, error) {
		wg.Wait()
		var status statestore.Status
		switch {
		case err == nil:
			status = statestore.StatusCompleted
			e.emit(ctx, executionID, events.ExecutionCompleted, map[string]interface{}{"outputs": e.outputSummaries()})
		case err == context.Canceled || err == context.DeadlineExceeded:
			status = statestore.StatusAborted
			e.emit(ctx, executionID, events.ExecutionAborted, map[string]interface{}{"reason": err.Error()})
		default:
			status = statestore.StatusFailed
			e.emit(ctx, executionID, events.ExecutionError, map[string]interface{}{"error": err.Error()})
		}
		return Result{ExecutionID: executionID, Status: status, Outputs: e.snapshotOutputs(), Error: errString(err)}, err
	}

	for {
		select {
		case <-runCtx.Done():
			return finish(runCtx.Err())
		default:
		}

		inFlightMu.Lock()
		snapshot := make(map[types.NodeID]bool, len(inFlight))
		for id := range inFlight {
			snapshot[id] = true
		}
		inFlightMu.Unlock()

		batch := e.scheduler.NextReadyBatch(executionID, snapshot)

		failMu.Lock()
		fatal := failure
		failMu.Unlock()

		if batch.Deadlocked {
			return finish(ErrDeadlock)
		}
		if batch.Done && len(snapshot) == 0 {
			return finish(fatal)
		}
		if fatal != nil && !opts.ContinueOnError {
			cancel()
			return finish(fatal)
		}

		if len(batch.Ready) == 0 {
			select {
			case <-wake:
			case <-runCtx.Done():
			}
			continue
		}

		for _, nodeID := range batch.Ready {
			node := e.diagram.Nodes[nodeID]
			consume := batch.Consume[nodeID]

			sem.acquire()
			inFlightMu.Lock()
			inFlight[nodeID] = true
			inFlightMu.Unlock()

			wg.Add(1)
			go func(node types.Node, consume []types.Edge) {
				defer wg.Done()
				defer sem.release()
				defer func() {
					inFlightMu.Lock()
					delete(inFlight, node.ID)
					inFlightMu.Unlock()
					select {
					case wake <- struct{}{}:
					default:
					}
				}()

				if err := e.executeNode(runCtx, executionID, node, consume); err != nil {
					failMu.Lock()
					if failure == nil {
						failure = &NodeError{NodeID: string(node.ID), Err: err}
					}
					failMu.Unlock()
				}
			}(node, consume)
		}
	}
}

// executeNode runs the Input Resolver and the registered handler for one
// node, then records its outcome: on success, tokens are produced on
// matching outgoing edges and the envelope is cached as the node's last
// output; on failure, NODE_ERROR is emitted and the error returned for
// the caller's failure policy.
func (e *Engine) executeNode(ctx context.Context, executionID string, node types.Node, consume []types.Edge) error {
	ns, _ := e.store.GetNodeState(executionID, node.ID)
	iteration := ns.ExecutionCount

	e.emit(ctx, executionID, events.NodeStarted, nodePayload(node, map[string]interface{}{"iteration": iteration}))

	resolved, err := inputs.Resolve(consume, e.lastOutput)
	if err != nil {
		e.emit(ctx, executionID, events.NodeError, nodePayload(node, map[string]interface{}{"error": err.Error()}))
		return err
	}

	nodeCtx, nodeCancel := e.withNodeTimeout(ctx, node)
	defer nodeCancel()

	execCtx := &executionContext{
		ctx:           nodeCtx,
		executionID:   executionID,
		node:          node,
		variables:     e.variablesFor(executionID, node),
		cfg:           e.cfg,
		inputs:        resolved,
		conversations: e.conversations,
		ports:         e.portBundle,
		engine:        e,
	}

	start := time.Now()
	out, err := e.dispatch(execCtx)
	if err != nil {
		e.emit(ctx, executionID, events.NodeError, nodePayload(node, map[string]interface{}{"error": err.Error()}))
		return err
	}

	e.tokens.ConsumeAll(consume)
	e.tokens.Produce(node, out)
	e.outputsMu.Lock()
	e.outputs[node.ID] = out
	e.outputsMu.Unlock()

	e.emit(ctx, executionID, events.NodeCompleted, nodePayload(node, map[string]interface{}{
		"elapsed_ms": time.Since(start).Milliseconds(),
		"output":     events.OutputSummary(out),
	}))
	return nil
}

// dispatch runs the node through the configured middleware chain, if any,
// terminating at the handler registry.
func (e *Engine) dispatch(ctx *executionContext) (envelope.Envelope, error) {
	if e.chain == nil {
		return e.registry.Execute(ctx)
	}
	return e.chain.Execute(ctx, func(ctx handlers.ExecutionContext) (envelope.Envelope, error) {
		return e.registry.Execute(ctx)
	})
}

func (e *Engine) withNodeTimeout(ctx context.Context, node types.Node) (context.Context, context.CancelFunc) {
	if node.Kind == types.KindUserResponse && node.UserResponse.TimeoutSecs > 0 {
		return context.WithTimeout(ctx, time.Duration(node.UserResponse.TimeoutSecs)*time.Second)
	}
	if e.cfg.MaxNodeExecutionTime > 0 {
		return context.WithTimeout(ctx, e.cfg.MaxNodeExecutionTime)
	}
	return context.WithCancel(ctx)
}

func (e *Engine) lastOutput(id types.NodeID) (envelope.Envelope, bool) {
	e.outputsMu.RLock()
	defer e.outputsMu.RUnlock()
	env, ok := e.outputs[id]
	return env, ok
}

func (e *Engine) snapshotOutputs() map[types.NodeID]envelope.Envelope {
	e.outputsMu.RLock()
	defer e.outputsMu.RUnlock()
	out := make(map[types.NodeID]envelope.Envelope, len(e.outputs))
	for k, v := range e.outputs {
		out[k] = v
	}
	return out
}

func (e *Engine) outputSummaries() map[string]interface{} {
	e.outputsMu.RLock()
	defer e.outputsMu.RUnlock()
	out := make(map[string]interface{}, len(e.outputs))
	for k, v := range e.outputs {
		out[string(k)] = events.OutputSummary(v)
	}
	return out
}

// runVariables returns the options.Variables passed to the Run call that
// started executionID, keyed per-execution so concurrent Run calls on
// the same Engine (used by sub-diagram fan-out) don't clobber each
// other.
func (e *Engine) runVariables(executionID string) map[string]interface{} {
	e.varsMu.RLock()
	defer e.varsMu.RUnlock()
	return e.variablesByExecution[executionID]
}

// variablesFor returns the run's variables, enriched for a
// detect_max_iterations Condition node with the reserved
// "__max_iterations_reached:<target>" flag the handler reads, since a
// handler has no direct view of the scheduler's iteration bookkeeping.
func (e *Engine) variablesFor(executionID string, node types.Node) map[string]interface{} {
	base := e.runVariables(executionID)
	if node.Kind != types.KindCondition || node.Condition == nil ||
		node.Condition.ConditionKind != types.ConditionDetectMaxIterations {
		return base
	}

	target := types.NodeID(node.Condition.TargetNodeID)
	ns, _ := e.store.GetNodeState(executionID, target)
	reached := ns.Status == statestore.StatusMaxIterReached

	vars := make(map[string]interface{}, len(base)+1)
	for k, v := range base {
		vars[k] = v
	}
	vars["__max_iterations_reached:"+node.Condition.TargetNodeID] = reached
	return vars
}

// emit builds a domain event, applies it synchronously to the state
// store (so the very next scheduling tick sees it), and hands it to the
// event bus for asynchronous observer fan-out.
func (e *Engine) emit(ctx context.Context, executionID string, typ events.Type, payload map[string]interface{}) {
	e.emitMu.Lock()
	e.seq++
	seq := e.seq
	e.emitMu.Unlock()

	event := events.DomainEvent{
		Type:    typ,
		Scope:   events.Scope{ExecutionID: executionID},
		Meta:    events.Meta{Seq: seq, Timestamp: time.Now()},
		Payload: payload,
	}
	e.store.ApplyEvent(executionID, event)
	if e.bus != nil {
		e.bus.Publish(ctx, executionID, event)
	}
}

func nodePayload(node types.Node, extra map[string]interface{}) map[string]interface{} {
	payload := map[string]interface{}{"node_id": string(node.ID), "node_kind": string(node.Kind)}
	for k, v := range extra {
		payload[k] = v
	}
	return payload
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func generateExecutionID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return "exec_" + hex.EncodeToString(b)
}

// semaphore bounds concurrent node dispatch via a buffered channel, used
// for branch fan-out. A limit of 0 means unlimited concurrency.
type semaphore struct {
	ch chan struct{}
}

func newSemaphore(limit int) *semaphore {
	if limit <= 0 {
		return &semaphore{}
	}
	return &semaphore{ch: make(chan struct{}, limit)}
}

func (s *semaphore) acquire() {
	if s.ch != nil {
		s.ch <- struct{}{}
	}
}

func (s *semaphore) release() {
	if s.ch != nil {
		<-s.ch
	}
}
