package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"tagprint/internal/config"
	"tagprint/internal/logger"
	"tagprint/internal/pairing"
	"tagprint/internal/printer"
	"tagprint/internal/render"
	"tagprint/internal/tag"
	"tagprint/internal/tag/libnfc"
	"tagprint/internal/tag/phone"
)

const (
	AppVersion = "1.0.0"
	AppName    = "Tag Print"
)

func main() {
	configFile := pflag.StringP("config", "c", "", "path to tagprint.toml")
	pflag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		if log, lerr := logger.New(logger.DefaultConfig()); lerr == nil {
			log.Fatal("failed to load config", zap.String("file", *configFile), zap.Error(err))
		}
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chrome := render.NewChrome(render.ChromeConfig{
		RemoteURL: cfg.Render.RemoteURL,
		BaseURL:   cfg.Render.BaseURL,
		NoSandbox: cfg.Render.NoSandbox,
		Logger:    log,
	})
	defer chrome.Close()
	renderer := render.New(chrome.NewSurface, render.Options{
		Width:   cfg.Render.Width,
		Timeout: cfg.Render.Timeout,
		Logger:  log,
	})

	template, err := render.LoadTemplate(cfg.Print.TemplatePath)
	if err != nil {
		log.Fatal("load template", zap.Error(err))
	}

	a := app.New()
	w := a.NewWindow(fmt.Sprintf("%s v%s", AppName, AppVersion))
	w.Resize(fyne.NewSize(650, 550))

	ui := &App{
		fyneApp:  a,
		window:   w,
		cfg:      cfg,
		log:      log.Named("ui"),
		renderer: renderer,
		template: template,
		mode:     cfg.Print.Mode,
	}

	opts := printer.Options{
		Channel:     cfg.Printer.Channel,
		BaudRate:    cfg.Printer.BaudRate,
		DialTimeout: cfg.Printer.DialTimeout,
		Logger:      log,
	}
	ui.orchestrator = pairing.New(
		func(address string) (printer.Connection, error) { return printer.Dial(address, opts) },
		pairing.WithLogger(log),
		pairing.WithNotify(ui.onResult),
	)

	w.SetMainMenu(ui.buildMenu())
	w.SetContent(ui.buildUI())

	var wg sync.WaitGroup
	listener := startSources(ctx, &wg, cfg, log, ui.orchestrator)
	if cfg.Printer.Address != "" {
		go ui.orchestrator.Probe(ctx, cfg.Printer.Address)
	}

	w.SetOnClosed(func() {
		cancel()
		listener.Wait()
		wg.Wait()
	})
	w.ShowAndRun()
}

// startSources runs the configured scan sources and the listener consuming
// their events.
func startSources(ctx context.Context, wg *sync.WaitGroup, cfg *config.Config, log *zap.Logger, prober tag.Prober) *tag.Listener {
	events := make(chan *tag.Event, 8)
	listener := tag.NewListener(prober, log)

	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("tag source stopped", zap.String("source", name), zap.Error(err))
			}
		}()
	}

	if cfg.Tags.ListenAddr != "" {
		srv := phone.New(phone.Config{
			ListenAddr: cfg.Tags.ListenAddr,
			MDNS:       cfg.Tags.MDNS,
			Logger:     log,
		}, events)
		run(phone.Source, srv.Run)
	}

	if cfg.Tags.LibNFCDevice != "" {
		device := cfg.Tags.LibNFCDevice
		if device == "auto" {
			device = ""
		}
		reader := libnfc.New(libnfc.Config{
			Device:       device,
			PollInterval: cfg.Tags.PollInterval,
			Logger:       log,
		}, events)
		run(libnfc.Source, reader.Run)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		listener.Run(ctx, events)
	}()
	return listener
}
