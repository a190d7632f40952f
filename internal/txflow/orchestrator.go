// Package txflow drives the "approve if needed, then perform" workflow that
// every write dialog runs against a token allowance and a target contract.
//
// An Orchestrator owns a single phase value and exposes one method per user
// or async event. Each capability call (allowance check, approval, action)
// blocks the calling goroutine until the ledger returns a result, so hosts
// that need to stay responsive run the triggers from their own goroutines or
// commands. The orchestrator itself applies no timeouts and never retries.
package txflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// ErrDisposed is returned once the hosting surface has detached the instance.
var ErrDisposed = errors.New("workflow disposed")

// Receipt is the confirmation record of a mined transaction.
type Receipt struct {
	Hash        string
	BlockNumber uint64
	GasUsed     uint64
}

// Request holds the capabilities one workflow instance runs with.
type Request struct {
	// CheckNeedsApproval reports whether an approval transaction is required.
	// It must not mutate chain state. An error is treated as "required".
	CheckNeedsApproval func(ctx context.Context) (bool, error)
	// Approve submits the approval and resolves once it has a receipt.
	Approve func(ctx context.Context) (*Receipt, error)
	// PerformAction submits the primary transaction and resolves once it has a receipt.
	PerformAction func(ctx context.Context) (*Receipt, error)
	// OnSuccess runs exactly once, after the workflow reaches Confirmed.
	OnSuccess func(*Receipt)
	// AlreadyApproved skips the allowance check entirely.
	AlreadyApproved bool
}

// Transition is delivered to subscribers for every phase change.
type Transition struct {
	From    Phase
	To      Phase
	Failure *Failure // set when To == PhaseFailed
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger used for transition and diagnostic output.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.base = l
		}
	}
}

// WithID overrides the random instance id used in log lines.
func WithID(id string) Option {
	return func(o *Orchestrator) {
		if id != "" {
			o.id = id
		}
	}
}

// Orchestrator is one approve-then-confirm workflow instance.
// It is safe for concurrent use; triggers racing for the same step are
// rejected with ErrInProgress rather than queued.
type Orchestrator struct {
	id   string
	req  Request
	base *slog.Logger // as passed in, without the flow id
	log  *slog.Logger

	mu        sync.Mutex
	phase     Phase
	lastErr   *Failure
	history   []Phase
	observers []func(Transition)
	disposed  bool
}

// New validates req and returns an Orchestrator in PhaseIdle.
func New(req Request, opts ...Option) (*Orchestrator, error) {
	if req.PerformAction == nil {
		return nil, errors.New("txflow: PerformAction is required")
	}
	if !req.AlreadyApproved {
		if req.CheckNeedsApproval == nil {
			return nil, errors.New("txflow: CheckNeedsApproval is required unless AlreadyApproved is set")
		}
		if req.Approve == nil {
			return nil, errors.New("txflow: Approve is required unless AlreadyApproved is set")
		}
	}
	o := &Orchestrator{
		id:      uuid.NewString(),
		req:     req,
		base:    slog.Default(),
		phase:   PhaseIdle,
		history: []Phase{PhaseIdle},
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.base.With("flow", o.id)
	return o, nil
}

// ID returns the instance id.
func (o *Orchestrator) ID() string { return o.id }

// Phase returns the current phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// LastError returns the failure payload, non-nil only in PhaseFailed.
func (o *Orchestrator) LastError() *Failure {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// History returns every phase visited so far, starting with PhaseIdle.
func (o *Orchestrator) History() []Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Phase, len(o.history))
	copy(out, o.history)
	return out
}

// Subscribe registers fn to receive every subsequent transition in order.
// fn runs on the goroutine that caused the transition and must not block.
func (o *Orchestrator) Subscribe(fn func(Transition)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, fn)
}

// Dispose detaches the instance from its host. In-flight calls keep running
// but their results are dropped: no transition, no observer, no OnSuccess.
func (o *Orchestrator) Dispose() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.disposed = true
	o.observers = nil
}

// Start resolves whether approval is needed. It moves Idle to
// AwaitingApproval or Approved.
func (o *Orchestrator) Start(ctx context.Context) error {
	if o.req.AlreadyApproved {
		return o.claim("start", []Phase{PhaseIdle}, PhaseCheckingApproval, PhaseApproved)
	}
	if err := o.claim("start", []Phase{PhaseIdle}, PhaseCheckingApproval, PhaseCheckingApproval); err != nil {
		return err
	}

	needs, err := o.req.CheckNeedsApproval(ctx)
	if err != nil {
		o.log.Warn("allowance check failed, assuming approval is required", "err", err)
		needs = true
	}

	next := PhaseApproved
	if needs {
		next = PhaseAwaitingApproval
	}
	if !o.settle(next, nil) {
		return ErrDisposed
	}
	return nil
}

// Approve submits the approval transaction. It moves AwaitingApproval
// through Approving to Approved, or to Failed.
func (o *Orchestrator) Approve(ctx context.Context) error {
	if err := o.claim("approve", []Phase{PhaseAwaitingApproval}, PhaseApproving, PhaseApproving); err != nil {
		return err
	}

	if _, err := o.req.Approve(ctx); err != nil {
		f := Classify(StepApprove, err)
		if !o.settle(PhaseFailed, f) {
			return ErrDisposed
		}
		return f
	}
	if !o.settle(PhaseApproved, nil) {
		return ErrDisposed
	}
	return nil
}

// Confirm submits the primary action. It moves Approved (via
// AwaitingConfirmation) through Confirming to Confirmed, or to Failed.
// OnSuccess is called after Confirmed has been published.
func (o *Orchestrator) Confirm(ctx context.Context) error {
	from := []Phase{PhaseApproved, PhaseAwaitingConfirmation}
	if err := o.claim("confirm", from, PhaseConfirming, PhaseAwaitingConfirmation, PhaseConfirming); err != nil {
		return err
	}

	receipt, err := o.req.PerformAction(ctx)
	if err != nil {
		f := Classify(StepConfirm, err)
		if !o.settle(PhaseFailed, f) {
			return ErrDisposed
		}
		return f
	}
	if !o.settle(PhaseConfirmed, nil) {
		return ErrDisposed
	}
	if o.req.OnSuccess != nil {
		o.req.OnSuccess(receipt)
	}
	return nil
}

// Retry returns a fresh instance for a failed workflow. A failure in the
// confirm step keeps the approval: the new instance starts AlreadyApproved.
// A failure in the approve step starts over with a new allowance check.
func (o *Orchestrator) Retry() (*Orchestrator, error) {
	o.mu.Lock()
	phase, last := o.phase, o.lastErr
	o.mu.Unlock()

	if phase != PhaseFailed {
		return nil, ErrNotFailed
	}
	req := o.req
	if last != nil && last.Step == StepConfirm {
		req.AlreadyApproved = true
	}
	return New(req, WithLogger(o.base))
}

// claim atomically checks that the current phase is one of from and walks
// path. busy is the phase that signals this step is already in flight.
func (o *Orchestrator) claim(op string, from []Phase, busy Phase, path ...Phase) error {
	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		return ErrDisposed
	}
	cur := o.phase
	switch {
	case cur == busy:
		o.mu.Unlock()
		return ErrInProgress
	case cur.IsTerminal():
		o.mu.Unlock()
		return ErrTerminal
	case !contains(from, cur):
		o.mu.Unlock()
		return wrongPhase(op, cur)
	}

	trs := make([]Transition, 0, len(path))
	for _, to := range path {
		if to == o.phase {
			continue
		}
		trs = append(trs, o.moveLocked(to, nil))
	}
	observers := o.observers
	o.mu.Unlock()

	o.publish(observers, trs)
	return nil
}

// settle applies the result of a capability call. It returns false when the
// instance was disposed while the call was in flight.
func (o *Orchestrator) settle(to Phase, f *Failure) bool {
	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		o.log.Debug("dropping late result", "to", to)
		return false
	}
	tr := o.moveLocked(to, f)
	observers := o.observers
	o.mu.Unlock()

	o.publish(observers, []Transition{tr})
	return true
}

func (o *Orchestrator) moveLocked(to Phase, f *Failure) Transition {
	from := o.phase
	if !canTransition(from, to) {
		// Only reachable through a programming error in this package.
		panic("txflow: illegal transition " + from.String() + " -> " + to.String())
	}
	o.phase = to
	o.history = append(o.history, to)
	if to == PhaseFailed {
		o.lastErr = f
	}
	return Transition{From: from, To: to, Failure: f}
}

func (o *Orchestrator) publish(observers []func(Transition), trs []Transition) {
	for _, tr := range trs {
		if tr.Failure != nil {
			o.log.Debug("transition", "from", tr.From, "to", tr.To, "kind", tr.Failure.Kind, "err", tr.Failure.Err)
		} else {
			o.log.Debug("transition", "from", tr.From, "to", tr.To)
		}
		for _, fn := range observers {
			fn(tr)
		}
	}
}

func contains(ps []Phase, p Phase) bool {
	for _, x := range ps {
		if x == p {
			return true
		}
	}
	return false
}
