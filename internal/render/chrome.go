package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"math"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ChromeConfig configures the headless Chrome surface.
type ChromeConfig struct {
	// RemoteURL points at a running Chrome's DevTools endpoint. When empty a
	// local browser is launched.
	RemoteURL string
	// BaseURL resolves relative asset URLs in documents.
	BaseURL   string
	NoSandbox bool
	Logger    *zap.Logger
}

// Chrome opens surfaces as tabs of one shared browser.
type Chrome struct {
	cfg         ChromeConfig
	log         *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

func NewChrome(cfg ChromeConfig) *Chrome {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	c := &Chrome{cfg: cfg, log: log.Named("chrome")}

	if cfg.RemoteURL != "" {
		c.allocCtx, c.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		return c
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	c.allocCtx, c.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return c
}

// NewSurface opens a tab with a width x height viewport. The tab closes when
// ctx ends or the surface is closed.
func (c *Chrome) NewSurface(ctx context.Context, width, height int) (Surface, error) {
	tabCtx, cancel := chromedp.NewContext(c.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			c.log.Debug(fmt.Sprintf(format, args...))
		}),
	)

	s := &chromeSurface{
		ctx:     tabCtx,
		cancel:  cancel,
		paint:   newPaintTracker(),
		baseURL: c.cfg.BaseURL,
	}
	chromedp.ListenTarget(tabCtx, func(ev any) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok {
			s.paint.observe(e.LoaderID, e.Name)
		}
	})

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-tabCtx.Done():
		}
	}()

	if err := chromedp.Run(tabCtx,
		page.SetLifecycleEventsEnabled(true),
		chromedp.EmulateViewport(int64(width), int64(height)),
	); err != nil {
		cancel()
		return nil, fmt.Errorf("start browser tab: %w", err)
	}
	return s, nil
}

func (c *Chrome) Close() error {
	c.allocCancel()
	return nil
}

type chromeSurface struct {
	ctx     context.Context
	cancel  context.CancelFunc
	baseURL string
	paint   *paintTracker
}

func (s *chromeSurface) Load(_ context.Context, html string) error {
	doc := withBase(html, s.baseURL)
	url := "data:text/html;charset=utf-8;base64," + base64.StdEncoding.EncodeToString([]byte(doc))
	return chromedp.Run(s.ctx,
		chromedp.Navigate(url),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			s.paint.expect(frameTree.Frame.LoaderID)
			return nil
		}),
	)
}

func (s *chromeSurface) FirstPaint() <-chan struct{} {
	return s.paint.done
}

func (s *chromeSurface) Measure(context.Context) (int, error) {
	var height float64
	err := chromedp.Run(s.ctx, chromedp.Evaluate(
		`Math.max(document.body.scrollHeight, document.documentElement.scrollHeight)`, &height))
	if err != nil {
		return 0, err
	}
	return int(math.Ceil(height)), nil
}

func (s *chromeSurface) Rasterize(_ context.Context, width, height int) (image.Image, error) {
	var buf []byte
	err := chromedp.Run(s.ctx,
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.CaptureScreenshot(&buf),
	)
	if err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		return nil, ErrNoBitmap
	}
	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	return img, nil
}

func (s *chromeSurface) Close() error {
	s.cancel()
	return nil
}

// paintTracker resolves once the document of one loader has painted.
// Paint events may arrive before the loader is known, so they are kept
// until expect names it. Events of other documents (the initial
// about:blank) never resolve it.
type paintTracker struct {
	mu      sync.Mutex
	loader  cdp.LoaderID
	painted map[cdp.LoaderID]bool
	once    sync.Once
	done    chan struct{}
}

func newPaintTracker() *paintTracker {
	return &paintTracker{painted: make(map[cdp.LoaderID]bool), done: make(chan struct{})}
}

func (t *paintTracker) observe(loader cdp.LoaderID, name string) {
	if name != "firstPaint" && name != "firstContentfulPaint" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.loader != "" && loader == t.loader {
		t.resolve()
		return
	}
	t.painted[loader] = true
}

func (t *paintTracker) expect(loader cdp.LoaderID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loader = loader
	if t.painted[loader] {
		t.resolve()
	}
}

func (t *paintTracker) resolve() {
	t.once.Do(func() { close(t.done) })
}
