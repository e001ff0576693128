package portal

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	apierrors "taskgate/internal/errors"
	"taskgate/internal/infrastructure"
	"taskgate/internal/license"
	"taskgate/internal/session"
	"taskgate/internal/tasks"
)

var (
	// ErrControlDisabled rejects an action whose control is disabled
	ErrControlDisabled = errors.New("portal: control is disabled")
	// ErrViewInactive rejects an action whose panel is not in the visible view
	ErrViewInactive = errors.New("portal: panel is not in the visible view")
	// ErrClosed is returned after Close
	ErrClosed = errors.New("portal: closed")
)

// Subscriber receives every published snapshot. It is called with the portal
// locked and must not block or call back into the Portal.
type Subscriber func(Snapshot)

// Options configures a Portal
type Options struct {
	Session   *session.Session
	Activator license.Activator
	Submitter tasks.Submitter
	Scheduler Scheduler
	Logger    *slog.Logger
}

// Portal is the view model driven by the local UI API
type Portal struct {
	session   *session.Session
	gate      *session.Gate
	activator license.Activator
	submitter tasks.Submitter
	validator *tasks.Validator
	scheduler Scheduler
	logger    *slog.Logger

	// ctx is cancelled by Close and bounds every remote call
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      Snapshot
	generation uint64
	timers     map[timerKind]Timer
	timerSeq   map[timerKind]uint64
	subs       map[uint64]Subscriber
	nextSub    uint64
	closed     bool
}

// New creates a Portal showing the activation view with idle panels. Call
// Load to evaluate the gate.
func New(opts Options) *Portal {
	scheduler := opts.Scheduler
	if scheduler == nil {
		scheduler = RealScheduler{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &Portal{
		session:   opts.Session,
		gate:      session.NewGate(opts.Session),
		activator: opts.Activator,
		submitter: opts.Submitter,
		validator: tasks.NewValidator(),
		scheduler: scheduler,
		logger:    infrastructure.WithComponent(opts.Logger, "portal"),
		ctx:       ctx,
		cancel:    cancel,
		timers:    make(map[timerKind]Timer),
		timerSeq:  make(map[timerKind]uint64),
		subs:      make(map[uint64]Subscriber),
	}
	p.state = Snapshot{
		View:       session.ViewActivation,
		Activation: idlePanel(),
		Submission: SubmissionPanel{Panel: idlePanel()},
	}
	return p
}

// Snapshot returns the current state
func (p *Portal) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Subscribe registers fn for every future snapshot and returns its cancel func
func (p *Portal) Subscribe(fn Subscriber) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// Load resets the view model as on a fresh page load: the gate picks the
// view, both panels become idle and the email is pre-filled from the last
// successful submission. Pending timers are cancelled and the results of
// requests still in flight are discarded.
func (p *Portal) Load(ctx context.Context) (Snapshot, error) {
	view := p.gate.Evaluate(ctx)

	email, err := p.session.LastEmail(ctx)
	if err != nil {
		p.logger.WarnContext(ctx, "Last-used email unreadable", slog.String("error", err.Error()))
		email = ""
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return p.state, ErrClosed
	}

	p.generation++
	p.stopTimersLocked()
	p.state.View = view
	p.state.Activation = idlePanel()
	p.state.Submission = SubmissionPanel{Panel: idlePanel(), Email: email}
	p.publishLocked()

	p.logger.InfoContext(ctx, "View loaded", slog.String("view", string(view)))
	return p.state, nil
}

// Activate runs the activation action for productKey. Validation and remote
// failures are reported through the activation panel status, not as errors.
func (p *Portal) Activate(ctx context.Context, productKey string) (Snapshot, error) {
	key, verr := license.NormalizeProductKey(productKey)

	p.mu.Lock()
	if err := p.admitLocked(session.ViewActivation, p.state.Activation.Enabled); err != nil {
		defer p.mu.Unlock()
		return p.state, err
	}

	if verr != nil {
		defer p.mu.Unlock()
		p.state.Activation = Panel{Phase: PhaseError, Enabled: true, Status: errorStatus(verr, MsgActivationFailed, MsgActivationUnreachable)}
		p.publishLocked()
		return p.state, nil
	}

	p.state.Activation = pendingPanel(MsgActivating)
	p.publishLocked()
	gen := p.generation
	p.mu.Unlock()

	callCtx, cancel := p.callContext(ctx)
	defer cancel()

	status, ok := p.activate(callCtx, key)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || gen != p.generation {
		return p.state, nil
	}

	if ok {
		p.state.Activation = Panel{Phase: PhaseSuccess, Enabled: false, Status: status}
		p.scheduleLocked(timerGate, GateDelay, p.reevaluate)
	} else {
		p.state.Activation = Panel{Phase: PhaseError, Enabled: true, Status: status}
	}
	p.publishLocked()
	return p.state, nil
}

// activate performs the remote call and token persistence without holding the lock
func (p *Portal) activate(ctx context.Context, key string) (Status, bool) {
	machineID, err := p.session.DeviceID(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "Device identifier unavailable", slog.String("error", err.Error()))
		return Status{Text: MsgDeviceUnavailable, Class: ClassError}, false
	}

	token, err := p.activator.Activate(ctx, key, machineID)
	if err != nil {
		if errors.Is(err, apierrors.ErrTransport) {
			p.logger.ErrorContext(ctx, "Activation could not reach the server", slog.String("error", err.Error()))
		}
		return errorStatus(err, MsgActivationFailed, MsgActivationUnreachable), false
	}

	if err := p.session.SetLicenseToken(ctx, token); err != nil {
		p.logger.ErrorContext(ctx, "License token could not be persisted", slog.String("error", err.Error()))
		return Status{Text: MsgActivationNotSaved, Class: ClassError}, false
	}

	return Status{Text: MsgActivated, Class: ClassSuccess}, true
}

// reevaluate runs the gate after a successful activation and switches view.
// It returns the activation panel to idle, the only path that re-enables
// the activation control after a success.
func (p *Portal) reevaluate(seq uint64) {
	view := p.gate.Evaluate(p.ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.firingLocked(timerGate, seq) {
		return
	}

	if view != p.state.View {
		p.logger.Info("View switched", slog.String("from", string(p.state.View)), slog.String("to", string(view)))
	}
	p.state.View = view
	p.state.Activation = idlePanel()
	p.publishLocked()
}

// Submit runs the submission action. Validation and remote failures are
// reported through the submission panel status, not as errors.
func (p *Portal) Submit(ctx context.Context, keyword, email string) (Snapshot, error) {
	sub, verr := p.validator.Check(keyword, email)

	p.mu.Lock()
	if err := p.admitLocked(session.ViewMain, p.state.Submission.Enabled); err != nil {
		defer p.mu.Unlock()
		return p.state, err
	}

	// a new action supersedes the clear of an earlier success
	p.stopTimerLocked(timerStatusClear)
	p.state.Submission.Keyword = keyword
	p.state.Submission.Email = email

	if verr != nil {
		defer p.mu.Unlock()
		p.state.Submission.Panel = Panel{Phase: PhaseError, Enabled: true, Status: errorStatus(verr, MsgSubmissionFailed, MsgSubmissionUnreachable)}
		p.publishLocked()
		return p.state, nil
	}

	p.state.Submission.Panel = pendingPanel(MsgSubmitting)
	p.publishLocked()
	gen := p.generation
	p.mu.Unlock()

	callCtx, cancel := p.callContext(ctx)
	defer cancel()

	err := p.submitter.Submit(callCtx, sub.Keyword, sub.Email)
	if err == nil {
		if perr := p.session.SetLastEmail(callCtx, sub.Email); perr != nil {
			p.logger.WarnContext(ctx, "Last-used email could not be persisted", slog.String("error", perr.Error()))
		}
	} else if errors.Is(err, apierrors.ErrTransport) {
		p.logger.ErrorContext(ctx, "Submission could not reach the server", slog.String("error", err.Error()))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || gen != p.generation {
		return p.state, nil
	}

	if err == nil {
		p.state.Submission.Panel = Panel{Phase: PhaseSuccess, Enabled: true, Status: Status{Text: MsgSubmitted, Class: ClassSuccess}}
		p.state.Submission.Keyword = ""
		p.state.Submission.Email = sub.Email
		p.scheduleLocked(timerStatusClear, StatusClearDelay, p.clearSubmissionStatus)
	} else {
		p.state.Submission.Panel = Panel{Phase: PhaseError, Enabled: true, Status: errorStatus(err, MsgSubmissionFailed, MsgSubmissionUnreachable)}
	}
	p.publishLocked()
	return p.state, nil
}

// clearSubmissionStatus resets the status text and class. Field values are kept.
func (p *Portal) clearSubmissionStatus(seq uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.firingLocked(timerStatusClear, seq) {
		return
	}

	p.state.Submission.Phase = PhaseIdle
	p.state.Submission.Status = Status{Class: ClassNeutral}
	p.publishLocked()
}

// Close cancels timers and in-flight requests and drops all subscribers
func (p *Portal) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}

	p.closed = true
	p.stopTimersLocked()
	p.cancel()
	clear(p.subs)
	return nil
}

func (p *Portal) admitLocked(view session.View, enabled bool) error {
	switch {
	case p.closed:
		return ErrClosed
	case p.state.View != view:
		return ErrViewInactive
	case !enabled:
		return ErrControlDisabled
	}
	return nil
}

// callContext detaches ctx from its caller's cancellation so a dropped HTTP
// request does not abort the action. The result is cancelled by Close.
func (p *Portal) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(p.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// scheduleLocked replaces any pending timer of kind with fn after d
func (p *Portal) scheduleLocked(kind timerKind, d time.Duration, fn func(seq uint64)) {
	p.stopTimerLocked(kind)
	seq := p.timerSeq[kind]
	p.timers[kind] = p.scheduler.AfterFunc(d, func() { fn(seq) })
}

// firingLocked reports whether the timer of kind with seq is still current and
// retires it
func (p *Portal) firingLocked(kind timerKind, seq uint64) bool {
	if p.closed || p.timerSeq[kind] != seq {
		return false
	}
	if _, ok := p.timers[kind]; !ok {
		return false
	}
	delete(p.timers, kind)
	p.timerSeq[kind]++
	return true
}

func (p *Portal) stopTimerLocked(kind timerKind) {
	if t, ok := p.timers[kind]; ok {
		t.Stop()
		delete(p.timers, kind)
		p.timerSeq[kind]++
	}
}

func (p *Portal) stopTimersLocked() {
	for kind := range p.timers {
		p.stopTimerLocked(kind)
	}
}

func (p *Portal) publishLocked() {
	p.state.Version++
	snap := p.state
	for _, fn := range p.subs {
		fn(snap)
	}
}

// errorStatus maps an exchange error to the text shown to the user
func errorStatus(err error, fallback, unreachable string) Status {
	text := fallback
	if ee, ok := apierrors.AsExchange(err); ok {
		switch ee.Kind {
		case apierrors.KindTransport:
			text = unreachable
		default:
			if ee.Detail != "" {
				text = ee.Detail
			}
		}
	}
	return Status{Text: text, Class: ClassError}
}
