package main

import (
	"context"
	"fmt"
	"image"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"tagprint/internal/config"
	"tagprint/internal/imaging"
	"tagprint/internal/pairing"
	"tagprint/internal/printer"
	"tagprint/internal/render"
)

const (
	ModeText  = "Text"
	ModeImage = "Image"

	previewWidth    = 576
	previewFontSize = 10
)

type App struct {
	fyneApp      fyne.App
	window       fyne.Window
	cfg          *config.Config
	log          *zap.Logger
	orchestrator *pairing.Orchestrator
	renderer     *render.Renderer
	template     string
	mode         string

	// Widgets that need updating
	statusLabel    *widget.Label
	pairingLabel   *widget.Label
	btDeviceSelect *widget.Select
	refreshBTBtn   *widget.Button
	probeBtn       *widget.Button
	printBtn       *widget.Button
	phraseEntry    *widget.Entry
	previewImg     *canvas.Image

	// Bluetooth devices cache, refreshed off the UI goroutine
	btMu      sync.Mutex
	btDevices []printer.BluetoothDevice
}

func (a *App) buildMenu() *fyne.MainMenu {
	aboutItem := fyne.NewMenuItem("About", func() {
		a.showAboutDialog()
	})
	return fyne.NewMainMenu(fyne.NewMenu("Help", aboutItem))
}

func (a *App) showAboutDialog() {
	content := container.NewVBox(
		widget.NewLabelWithStyle(AppName, fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		widget.NewLabel(fmt.Sprintf("Version %s", AppVersion)),
		widget.NewSeparator(),
		widget.NewLabel("Scan a printer's NFC tag to pair with it, then print."),
		widget.NewLabel("Built with Fyne and Go"),
	)
	dialog.ShowCustom("About", "Close", content, a.window)
}

func (a *App) buildUI() fyne.CanvasObject {
	a.statusLabel = widget.NewLabel("Waiting for a tag scan")
	a.pairingLabel = widget.NewLabelWithStyle(pairing.Unpaired().String(), fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	// === MANUAL PAIRING ===
	a.btDeviceSelect = widget.NewSelect([]string{}, func(string) {})
	a.refreshBTBtn = widget.NewButton("↻", func() {
		go a.refreshBluetoothDevices()
	})
	a.probeBtn = widget.NewButton("Pair", func() {
		a.probeSelected()
	})
	go a.refreshBluetoothDevices()

	btRow := container.NewBorder(
		nil, nil, nil,
		container.NewHBox(a.refreshBTBtn, a.probeBtn),
		a.btDeviceSelect,
	)

	// === CONTENT ===
	a.phraseEntry = widget.NewMultiLineEntry()
	a.phraseEntry.SetPlaceHolder("Enter phrase...")
	a.phraseEntry.SetMinRowsVisible(3)
	a.phraseEntry.OnChanged = func(string) {
		if a.mode == ModeText {
			a.updateTextPreview()
		}
	}

	modeRadio := widget.NewRadioGroup([]string{ModeText, ModeImage}, func(s string) {
		a.mode = s
		if s == ModeText {
			a.updateTextPreview()
		}
	})
	modeRadio.Horizontal = true
	if a.mode == "image" {
		a.mode = ModeImage
	} else {
		a.mode = ModeText
	}
	modeRadio.SetSelected(a.mode)

	renderBtn := widget.NewButton("Render Preview", func() {
		a.updateImagePreview()
	})

	a.printBtn = widget.NewButton("Print", func() {
		a.print()
	})
	a.printBtn.Importance = widget.HighImportance

	a.previewImg = canvas.NewImageFromImage(nil)
	a.previewImg.SetMinSize(fyne.NewSize(200, 300))
	a.previewImg.FillMode = canvas.ImageFillContain

	leftPanel := container.NewVBox(
		widget.NewLabel("Printer:"),
		a.pairingLabel,
		widget.NewSeparator(),
		widget.NewAccordion(
			widget.NewAccordionItem("Pair manually", btRow),
		),
		widget.NewSeparator(),
		widget.NewLabel("Phrase"),
		a.phraseEntry,
		widget.NewLabel("Mode"),
		modeRadio,
		renderBtn,
		widget.NewSeparator(),
		a.printBtn,
	)

	content := container.NewHSplit(leftPanel, container.NewCenter(a.previewImg))
	content.SetOffset(0.45)

	return container.NewBorder(
		nil,
		container.NewHBox(a.statusLabel),
		nil, nil,
		content,
	)
}

// onResult reflects finished operations in the window. It runs on the
// operation's goroutine.
func (a *App) onResult(res pairing.Result) {
	a.pairingLabel.SetText(a.orchestrator.State().String())
	if res.OK() {
		switch res.Op {
		case "probe":
			a.statusLabel.SetText(fmt.Sprintf("Paired with %s", res.Address))
		default:
			a.statusLabel.SetText("Print complete!")
		}
		return
	}
	a.statusLabel.SetText(res.String())
}

func (a *App) refreshBluetoothDevices() {
	a.statusLabel.SetText("Scanning for paired devices...")

	devices, err := printer.ListPairedDevices()
	if err != nil {
		a.statusLabel.SetText(fmt.Sprintf("BT scan failed: %v", err))
		return
	}
	a.btMu.Lock()
	a.btDevices = devices
	a.btMu.Unlock()

	options := make([]string, len(devices))
	for i, d := range devices {
		options[i] = fmt.Sprintf("%s (%s)", d.Name, d.MAC)
	}
	a.btDeviceSelect.Options = options
	if len(options) > 0 {
		a.btDeviceSelect.SetSelectedIndex(0)
	}
	a.statusLabel.SetText(fmt.Sprintf("Found %d paired device(s)", len(devices)))
}

func (a *App) probeSelected() {
	device, ok := a.selectedDevice()
	if !ok {
		dialog.ShowError(fmt.Errorf("no Bluetooth device selected"), a.window)
		return
	}

	a.probeBtn.Disable()
	a.statusLabel.SetText(fmt.Sprintf("Pairing with %s...", device.Name))
	go func() {
		defer a.probeBtn.Enable()
		a.orchestrator.Probe(context.Background(), device.MAC)
	}()
}

func (a *App) selectedDevice() (printer.BluetoothDevice, bool) {
	idx := a.btDeviceSelect.SelectedIndex()
	a.btMu.Lock()
	defer a.btMu.Unlock()
	if idx < 0 || idx >= len(a.btDevices) {
		return printer.BluetoothDevice{}, false
	}
	return a.btDevices[idx], true
}

func (a *App) content() pairing.Content {
	if a.mode == ModeImage {
		c := pairing.NewImageContent(a.renderer, render.Template(a.template, a.phraseEntry.Text))
		c.Language = a.cfg.Printer.Language
		c.WidthSetting = a.cfg.Printer.PrintWidthSetting
		c.Padding = a.cfg.Print.Padding
		c.YOffset = a.cfg.Print.YOffset
		c.Printer = printer.PrinterOptions{Density: a.cfg.Printer.Density}
		return c
	}
	return pairing.TextContent{Phrase: a.phraseEntry.Text}
}

func (a *App) print() {
	if !a.orchestrator.State().IsPaired() {
		dialog.ShowError(pairing.ErrNotPaired, a.window)
		return
	}

	content := a.content()
	a.statusLabel.SetText("Printing...")
	a.printBtn.Disable()

	go func() {
		defer a.printBtn.Enable()
		a.orchestrator.PrintPaired(context.Background(), content)
	}()
}

func (a *App) updateTextPreview() {
	text := a.phraseEntry.Text
	if text == "" {
		return
	}
	img, err := imaging.RenderText(text, previewWidth, previewFontSize)
	if err != nil {
		a.log.Warn("text preview failed", zap.Error(err))
		return
	}
	a.showPreview(img)
}

func (a *App) updateImagePreview() {
	doc := render.Template(a.template, a.phraseEntry.Text)
	a.statusLabel.SetText("Rendering...")

	go func() {
		img, err := a.renderer.Render(context.Background(), doc)
		if err != nil {
			a.statusLabel.SetText(fmt.Sprintf("Render failed: %v", err))
			return
		}
		a.showPreview(img)
		a.statusLabel.SetText(fmt.Sprintf("Rendered %dx%d", img.Bounds().Dx(), img.Bounds().Dy()))
	}()
}

// showPreview displays img the way the printer will: one bit per dot.
func (a *App) showPreview(img image.Image) {
	widthBytes, data := imaging.ToMonochrome(img, 128, false)
	a.previewImg.Image = imaging.PreviewMonochrome(data, widthBytes, img.Bounds().Dy())
	a.previewImg.Refresh()
}
