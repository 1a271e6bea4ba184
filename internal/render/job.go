// Package render rasterizes HTML documents into images sized to their content.
package render

import (
	"context"
	"errors"
	"image"
	"sync"
)

var (
	ErrTimeout  = errors.New("render timed out")
	ErrNoBitmap = errors.New("render produced no bitmap")
)

// State tracks a render job.
type State int

const (
	Idle State = iota
	Loading
	Measuring
	Rasterized
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Measuring:
		return "measuring"
	case Rasterized:
		return "rasterized"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Future holds the outcome of one job. It resolves exactly once.
type Future struct {
	once sync.Once
	done chan struct{}
	img  image.Image
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(img image.Image, err error) {
	f.once.Do(func() {
		f.img, f.err = img, err
		close(f.done)
	})
}

// Wait blocks until the job resolves or ctx ends.
func (f *Future) Wait(ctx context.Context) (image.Image, error) {
	select {
	case <-f.done:
		return f.img, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Job is a single HTML to image conversion.
type Job struct {
	ID     string
	future *Future

	mu    sync.Mutex
	state State
}

func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

func (j *Job) setState(s State) {
	j.mu.Lock()
	j.state = s
	j.mu.Unlock()
}

func (j *Job) Future() *Future {
	return j.future
}
