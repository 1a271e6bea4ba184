package tag

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"tagprint/internal/pairing"
)

var (
	ErrNoRecords = errors.New("scan carries no NDEF records")
	ErrNoAddress = errors.New("payload has no printer address")
)

// Prober pairs with the printer at address.
type Prober interface {
	Probe(ctx context.Context, address string) pairing.Result
}

// Listener reacts to tag scans by probing the printer named in the payload.
type Listener struct {
	prober Prober
	log    *zap.Logger
	wg     sync.WaitGroup
}

func NewListener(prober Prober, log *zap.Logger) *Listener {
	if log == nil {
		log = zap.NewNop()
	}
	return &Listener{prober: prober, log: log.Named("listener")}
}

// Handle extracts the printer address from ev and starts a probe in the
// background. It returns as soon as the probe is dispatched. The event's
// messages are cleared afterwards so it cannot be handled twice.
func (l *Listener) Handle(ctx context.Context, ev *Event) error {
	payload, ok := ev.Payload()
	if !ok {
		return ErrNoRecords
	}

	log := l.log.With(zap.String("source", ev.Source), zap.String("uid", ev.UID))

	address, ok := ExtractAddress(payload)
	if !ok {
		log.Warn("ignoring scan", zap.String("payload", payload), zap.Error(ErrNoAddress))
		return ErrNoAddress
	}

	log.Info("tag scanned", zap.String("address", address))
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.prober.Probe(ctx, address)
	}()

	ev.Messages = nil
	return nil
}

// Run handles events until events is closed or ctx is done.
func (l *Listener) Run(ctx context.Context, events <-chan *Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := l.Handle(ctx, ev); err != nil && !errors.Is(err, ErrNoAddress) {
				l.log.Debug("scan dropped", zap.String("source", ev.Source), zap.Error(err))
			}
		}
	}
}

// Wait blocks until all dispatched probes have returned.
func (l *Listener) Wait() {
	l.wg.Wait()
}
