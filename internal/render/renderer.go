package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tagprint/internal/imaging"
)

const (
	DefaultWidth   = 1024
	DefaultTimeout = 15 * time.Second
)

// Surface is an off-screen page that can lay out and draw a document.
type Surface interface {
	// Load starts loading the document.
	Load(ctx context.Context, html string) error
	// FirstPaint is closed once the page has painted for the first time.
	FirstPaint() <-chan struct{}
	// Measure returns the natural content height at the current width.
	Measure(ctx context.Context) (int, error)
	// Rasterize resizes the surface and draws it.
	Rasterize(ctx context.Context, width, height int) (image.Image, error)
	Close() error
}

// SurfaceFactory opens a fresh surface of the given size.
type SurfaceFactory func(ctx context.Context, width, height int) (Surface, error)

type Options struct {
	Width   int
	Timeout time.Duration
	Logger  *zap.Logger
}

// Renderer runs render jobs, each on its own surface.
type Renderer struct {
	newSurface SurfaceFactory
	width      int
	timeout    time.Duration
	log        *zap.Logger
}

func New(factory SurfaceFactory, opts Options) *Renderer {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Renderer{
		newSurface: factory,
		width:      opts.Width,
		timeout:    opts.Timeout,
		log:        opts.Logger.Named("render"),
	}
}

// Start begins rendering html in the background.
func (r *Renderer) Start(ctx context.Context, html string) *Job {
	job := &Job{ID: uuid.NewString(), future: newFuture()}
	go r.run(ctx, job, html)
	return job
}

// Render renders html and waits for the image.
func (r *Renderer) Render(ctx context.Context, html string) (image.Image, error) {
	return r.Start(ctx, html).Future().Wait(ctx)
}

func (r *Renderer) run(ctx context.Context, job *Job, html string) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	log := r.log.With(zap.String("job", job.ID))
	start := time.Now()

	img, err := r.rasterize(ctx, job, html)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s (%s)", ErrTimeout, r.timeout, job.State())
		}
		job.setState(Failed)
		log.Warn("render failed", zap.Error(err))
		job.future.resolve(nil, err)
		return
	}

	job.setState(Rasterized)
	log.Debug("rendered",
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()),
		zap.Duration("duration", time.Since(start)))
	job.future.resolve(img, nil)
}

func (r *Renderer) rasterize(ctx context.Context, job *Job, html string) (image.Image, error) {
	surface, err := r.newSurface(ctx, r.width, 1)
	if err != nil {
		return nil, fmt.Errorf("open surface: %w", err)
	}
	defer surface.Close()

	job.setState(Loading)
	if err := surface.Load(ctx, html); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	select {
	case <-surface.FirstPaint():
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	job.setState(Measuring)
	height, err := surface.Measure(ctx)
	if err != nil {
		return nil, fmt.Errorf("measure: %w", err)
	}
	if height <= 0 {
		return nil, ErrNoBitmap
	}

	img, err := surface.Rasterize(ctx, r.width, height)
	if err != nil {
		return nil, fmt.Errorf("rasterize: %w", err)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, ErrNoBitmap
	}
	return imaging.Opaque(img), nil
}
