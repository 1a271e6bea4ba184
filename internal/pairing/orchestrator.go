package pairing

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"tagprint/internal/printer"
)

// Dialer builds an unopened connection for an address.
type Dialer func(address string) (printer.Connection, error)

// Orchestrator probes and prints. Only one operation runs at a time.
type Orchestrator struct {
	dial   Dialer
	log    *zap.Logger
	sem    *semaphore.Weighted
	notify func(Result)

	mu    sync.RWMutex
	state State
}

type Option func(*Orchestrator)

// WithNotify registers a callback invoked with every finished operation.
func WithNotify(fn func(Result)) Option {
	return func(o *Orchestrator) { o.notify = fn }
}

func WithLogger(log *zap.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

func New(dial Dialer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		dial: dial,
		log:  zap.NewNop(),
		sem:  semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.Named("pairing")
	return o
}

// State returns the current pairing.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// Probe opens and closes a connection to address. The address becomes the
// paired printer only when the open succeeds.
func (o *Orchestrator) Probe(ctx context.Context, address string) Result {
	res := Result{Op: "probe", Address: address, OpID: uuid.NewString()}
	log := o.log.With(zap.String("op", res.Op), zap.String("op_id", res.OpID), zap.String("address", address))

	if err := o.sem.Acquire(ctx, 1); err != nil {
		return o.finish(log, res, ConnectionFailed, err)
	}
	defer o.sem.Release(1)

	conn, err := o.dial(address)
	if err != nil {
		return o.finish(log, res, ConnectionFailed, err)
	}
	log = log.With(zap.String("endpoint", conn.Address()))

	err = conn.Open(ctx)
	o.close(log, conn)
	if err != nil {
		return o.finish(log, res, ConnectionFailed, err)
	}

	o.setState(Paired(address))
	return o.finish(log, res, Success, nil)
}

// PrintAndClose opens a connection to address, writes content and closes
// the connection again, whatever happened in between.
func (o *Orchestrator) PrintAndClose(ctx context.Context, address string, content Content) Result {
	res := Result{Op: "print", Address: address, OpID: uuid.NewString()}
	log := o.log.With(zap.String("op", res.Op), zap.String("op_id", res.OpID), zap.String("address", address))

	if err := o.sem.Acquire(ctx, 1); err != nil {
		return o.finish(log, res, ConnectionFailed, err)
	}
	defer o.sem.Release(1)

	conn, err := o.dial(address)
	if err != nil {
		return o.finish(log, res, ConnectionFailed, err)
	}
	log = log.With(zap.String("endpoint", conn.Address()))

	outcome, err := o.print(ctx, conn, content)
	o.close(log, conn)
	return o.finish(log, res, outcome, err)
}

func (o *Orchestrator) print(ctx context.Context, conn printer.Connection, content Content) (Outcome, error) {
	if err := conn.Open(ctx); err != nil {
		return ConnectionFailed, err
	}
	if !conn.IsConnected() {
		return ConnectionFailed, printer.ErrNotConnected
	}
	if err := content.Write(ctx, conn); err != nil {
		if errors.Is(err, ErrContentUnavailable) {
			return ContentUnavailable, err
		}
		return WriteFailed, err
	}
	return Success, nil
}

// PrintPaired prints to the paired printer.
func (o *Orchestrator) PrintPaired(ctx context.Context, content Content) Result {
	address, ok := o.State().Address()
	if !ok {
		res := Result{Op: "print", OpID: uuid.NewString()}
		return o.finish(o.log.With(zap.String("op_id", res.OpID)), res, NotPaired, ErrNotPaired)
	}
	return o.PrintAndClose(ctx, address, content)
}

func (o *Orchestrator) close(log *zap.Logger, conn printer.Connection) {
	if err := conn.Close(); err != nil {
		log.Warn("close failed", zap.Error(err))
	}
}

func (o *Orchestrator) finish(log *zap.Logger, res Result, outcome Outcome, err error) Result {
	res.Outcome = outcome
	res.Err = err
	if err != nil {
		log.Error("operation failed", zap.Stringer("outcome", outcome), zap.Error(err))
	} else {
		log.Info("operation done")
	}
	if o.notify != nil {
		o.notify(res)
	}
	return res
}
