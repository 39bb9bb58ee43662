package actor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/marmos91/aliasd/internal/logger"
	"github.com/marmos91/aliasd/internal/telemetry"
	"github.com/marmos91/aliasd/pkg/models"
	"go.opentelemetry.io/otel/trace"
)

// OverflowPolicy decides what Submit does when the queue is full.
type OverflowPolicy string

const (
	// OverflowBlock waits for a free slot until the caller's context ends.
	OverflowBlock OverflowPolicy = "block"

	// OverflowReject fails immediately with ErrQueueFull.
	OverflowReject OverflowPolicy = "reject"
)

// DefaultQueueSize is the queue capacity used when Options.QueueSize is zero.
const DefaultQueueSize = 1024

// Metrics receives actor instrumentation. A nil Metrics disables it.
type Metrics interface {
	ObserveCommand(op, outcome string, duration time.Duration)
	SetQueueDepth(depth int)
	RecordRejected(op string)
}

// Options configures an Actor.
type Options struct {
	QueueSize int
	Overflow  OverflowPolicy
	Metrics   Metrics
}

// Actor serialises every storage command onto a single worker goroutine
// that exclusively owns the Handler.
//
// Commands are executed in the order they were enqueued. A caller that stops
// waiting (context cancelled) does not cancel its command: once enqueued, it
// runs to completion.
type Actor struct {
	handler  Handler
	queue    chan *envelope
	overflow OverflowPolicy
	metrics  Metrics

	// mu guards closed and the registration of senders. It is never held
	// across a blocking send.
	mu      sync.RWMutex
	closed  bool
	closing chan struct{}
	senders sync.WaitGroup

	dead     chan struct{}
	deadOnce sync.Once
	cause    error

	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// envelope pairs a command with its one-shot completion channel.
type envelope struct {
	ctx   context.Context
	cmd   Command
	reply chan Result
}

// New starts the worker goroutine and returns the actor that feeds it.
func New(handler Handler, opts Options) *Actor {
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Overflow == "" {
		opts.Overflow = OverflowBlock
	}

	a := &Actor{
		handler:  handler,
		queue:    make(chan *envelope, opts.QueueSize),
		overflow: opts.Overflow,
		metrics:  opts.Metrics,
		closing:  make(chan struct{}),
		dead:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	logger.Debug("Connection actor started",
		logger.KeyQueueSize, opts.QueueSize,
		logger.KeyOverflow, string(opts.Overflow))

	go a.run()
	return a
}

// Submit enqueues cmd and waits for its result.
//
// The returned error is the command's own Result.Err, or one of
// ErrActorUnavailable, ErrClosed, ErrQueueFull or the context error when the
// command could not be delivered or its result could not be awaited.
func (a *Actor) Submit(ctx context.Context, cmd Command) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	env := &envelope{
		ctx:   context.WithoutCancel(ctx),
		cmd:   cmd,
		reply: make(chan Result, 1),
	}

	if err := a.enqueue(ctx, env); err != nil {
		return Result{}, err
	}

	select {
	case res := <-env.reply:
		return res, res.Err
	case <-a.dead:
		// The worker may have replied right before it died.
		select {
		case res := <-env.reply:
			return res, res.Err
		default:
		}
		return Result{}, ErrActorUnavailable
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (a *Actor) enqueue(ctx context.Context, env *envelope) error {
	a.mu.RLock()
	if a.closed {
		a.mu.RUnlock()
		return ErrClosed
	}
	a.senders.Add(1)
	a.mu.RUnlock()
	defer a.senders.Done()

	select {
	case <-a.dead:
		return ErrActorUnavailable
	default:
	}

	select {
	case a.queue <- env:
		a.setQueueDepth()
		return nil
	default:
	}

	if a.overflow == OverflowReject {
		a.rejected(env.cmd.Op)
		return ErrQueueFull
	}

	select {
	case a.queue <- env:
		a.setQueueDepth()
		return nil
	case <-a.closing:
		return ErrClosed
	case <-a.dead:
		return ErrActorUnavailable
	case <-ctx.Done():
		a.rejected(env.cmd.Op)
		return fmt.Errorf("%w: %w", ErrQueueFull, ctx.Err())
	}
}

func (a *Actor) run() {
	defer close(a.done)
	defer func() {
		if r := recover(); r != nil {
			a.die(fmt.Errorf("%w: worker panic: %v", ErrActorUnavailable, r))
			logger.Error("Connection actor worker crashed",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()

	for env := range a.queue {
		a.execute(env)
	}
}

func (a *Actor) execute(env *envelope) {
	a.setQueueDepth()

	op := env.cmd.Op.String()
	ctx, span := telemetry.StartSpan(env.ctx, "actor."+op,
		trace.WithAttributes(telemetry.Op(op)))
	defer span.End()

	start := time.Now()
	res := a.handler.Handle(ctx, env.cmd)
	elapsed := time.Since(start)
	if env.cmd.OnDone != nil {
		env.cmd.OnDone(res)
	}

	outcome := outcomeOf(res.Err)
	if res.Err != nil && outcome == "error" {
		telemetry.RecordError(ctx, res.Err)
	}
	if a.metrics != nil {
		a.metrics.ObserveCommand(op, outcome, elapsed)
	}

	logger.DebugCtx(ctx, "Actor command executed",
		logger.KeyOp, op,
		logger.KeyRows, res.RowsAffected,
		logger.KeyDurationMs, float64(elapsed.Microseconds())/1000.0,
		"outcome", outcome)

	env.reply <- res
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrAliasNotFound), errors.Is(err, models.ErrUserNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func (a *Actor) die(cause error) {
	a.deadOnce.Do(func() {
		a.cause = cause
		close(a.dead)
	})
}

func (a *Actor) setQueueDepth() {
	if a.metrics != nil {
		a.metrics.SetQueueDepth(len(a.queue))
	}
}

func (a *Actor) rejected(op Op) {
	logger.Warn("Connection actor queue full", logger.KeyOp, op.String(), logger.KeyQueueDepth, len(a.queue))
	if a.metrics != nil {
		a.metrics.RecordRejected(op.String())
	}
}

// Len returns the number of commands waiting in the queue.
func (a *Actor) Len() int {
	return len(a.queue)
}

// Dead is closed when the worker terminated unexpectedly.
func (a *Actor) Dead() <-chan struct{} {
	return a.dead
}

// Err returns why the worker died, or nil while it is healthy.
func (a *Actor) Err() error {
	select {
	case <-a.dead:
		return a.cause
	default:
		return nil
	}
}

// Close stops accepting commands, fails senders still waiting for a slot
// with ErrClosed, waits for the worker to drain everything already enqueued,
// then closes the Handler. It is safe to call more than once; later calls
// wait for the same drain.
func (a *Actor) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.closing)
		// Senders blocked on a full queue give up on closing; the queue is
		// closed once none is left.
		go func() {
			a.senders.Wait()
			close(a.queue)
		}()
	}
	a.mu.Unlock()

	select {
	case <-a.done:
	case <-ctx.Done():
		return fmt.Errorf("waiting for connection actor to drain: %w", ctx.Err())
	}

	a.closeOnce.Do(func() {
		a.closeErr = a.handler.Close()
		logger.Debug("Connection actor stopped")
	})
	return a.closeErr
}

var _ Submitter = (*Actor)(nil)
