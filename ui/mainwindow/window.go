// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"image"
	"log"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/iamethanf20-hub/seeklens/internal/detect"
	"github.com/iamethanf20-hub/seeklens/internal/pipeline"
	"github.com/iamethanf20-hub/seeklens/pkg/geometry"
	"github.com/iamethanf20-hub/seeklens/ui/prefs"
	"github.com/iamethanf20-hub/seeklens/ui/viewfinder"
)

// MainWindow is the primary application window: the live viewfinder plus
// the search and camera controls.
type MainWindow struct {
	fyne.Window
	app     fyne.App
	session *pipeline.Session
	prefs   *prefs.Prefs

	view              *viewfinder.Viewfinder
	queryBox          *widget.Entry
	modeSelect        *widget.Select
	granularitySelect *widget.Select
	statusBar         *widget.Label

	startStopBtn *widget.Button
}

// New creates the main window wired to a capture session.
func New(fyneApp fyne.App, session *pipeline.Session, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow("SeekLens")

	mw := &MainWindow{
		Window:  win,
		app:     fyneApp,
		session: session,
		prefs:   p,
	}

	mw.setupUI()
	mw.setupSessionHandlers()

	win.Resize(fyne.NewSize(1024, 700))
	return mw
}

// setupUI creates the main layout: controls on top, viewfinder in the
// center, status bar at the bottom.
func (mw *MainWindow) setupUI() {
	maxZoom := mw.prefs.Float(prefs.KeyMaxZoom, pipeline.DefaultMaxZoom)
	mw.view = viewfinder.New(maxZoom)
	mw.view.SetMinConfidence(mw.prefs.Float(prefs.KeyMinConfidence, 0))

	mw.statusBar = widget.NewLabel("Starting camera...")

	content := container.NewBorder(
		mw.createControls(),               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		mw.view,                           // center
	)
	mw.SetContent(content)
}

// createControls builds the search and camera control bar.
func (mw *MainWindow) createControls() fyne.CanvasObject {
	mw.queryBox = widget.NewEntry()
	mw.queryBox.SetPlaceHolder("Text to find...")
	mw.queryBox.SetText(mw.prefs.String(prefs.KeyQuery, ""))
	mw.queryBox.OnChanged = func(string) { mw.applyMatchConfig() }

	mw.modeSelect = widget.NewSelect([]string{"contains", "exact"}, func(string) {
		mw.applyMatchConfig()
	})
	mw.granularitySelect = widget.NewSelect([]string{"line", "word"}, func(string) {
		mw.applyMatchConfig()
	})
	// Both selects exist before either selection fires the shared handler.
	mw.modeSelect.SetSelected(mw.prefs.String(prefs.KeyMatchMode, "contains"))
	mw.granularitySelect.SetSelected(mw.prefs.String(prefs.KeyGranularity, "word"))

	confidence := widget.NewSlider(0, 1)
	confidence.Step = 0.05
	confidence.Value = mw.prefs.Float(prefs.KeyMinConfidence, 0)
	confidence.OnChanged = func(v float64) {
		mw.view.SetMinConfidence(v)
		mw.prefs.SetFloat(prefs.KeyMinConfidence, v)
	}

	zoomOutBtn := widget.NewButton("-", mw.view.ZoomOut)
	zoomInBtn := widget.NewButton("+", mw.view.ZoomIn)
	resetBtn := widget.NewButton("1:1", mw.view.ResetView)

	camZoom := widget.NewSlider(1, mw.prefs.Float(prefs.KeyMaxZoom, pipeline.DefaultMaxZoom))
	camZoom.Step = 0.1
	camZoom.Value = 1
	camZoom.OnChanged = func(v float64) {
		mw.session.SetZoom(v)
	}

	mw.startStopBtn = widget.NewButton("Pause", mw.onStartStop)

	return container.NewVBox(
		container.NewBorder(nil, nil,
			widget.NewLabel("Find:"),
			container.NewHBox(mw.modeSelect, mw.granularitySelect, mw.startStopBtn),
			mw.queryBox,
		),
		container.NewBorder(nil, nil,
			widget.NewLabel("Confidence:"),
			container.NewHBox(
				widget.NewLabel("View:"), zoomOutBtn, zoomInBtn, resetBtn,
				widget.NewLabel("Camera:"),
			),
			confidence,
		),
		camZoom,
	)
}

// applyMatchConfig pushes the current control values into the session
// and saves them.
func (mw *MainWindow) applyMatchConfig() {
	cfg := mw.matchConfig()
	mw.session.SetMatchConfig(cfg)

	mw.prefs.SetString(prefs.KeyQuery, cfg.Query)
	mw.prefs.SetString(prefs.KeyMatchMode, mw.modeSelect.Selected)
	mw.prefs.SetString(prefs.KeyGranularity, mw.granularitySelect.Selected)
	if err := mw.prefs.Save(); err != nil {
		log.Printf("saving preferences: %v", err)
	}

	query := strings.TrimSpace(cfg.Query)
	if query == "" {
		mw.updateStatus("Showing all recognized text")
	} else {
		mw.updateStatus(fmt.Sprintf("Searching for %q", query))
	}
}

// matchConfig assembles a filter from the current control values.
func (mw *MainWindow) matchConfig() detect.MatchConfig {
	mode := detect.MatchContains
	if mw.modeSelect.Selected == "exact" {
		mode = detect.MatchExact
	}
	granularity := detect.GranularityWord
	if mw.granularitySelect.Selected == "line" {
		granularity = detect.GranularityLine
	}
	return detect.MatchConfig{
		Query:       mw.queryBox.Text,
		Mode:        mode,
		Granularity: granularity,
	}
}

// onStartStop toggles the session between running and stopped.
func (mw *MainWindow) onStartStop() {
	switch mw.session.State() {
	case pipeline.StateRunning:
		mw.session.Stop()
		mw.startStopBtn.SetText("Resume")
		mw.updateStatus("Detection paused")
	case pipeline.StateStopped:
		if err := mw.session.Start(); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.startStopBtn.SetText("Pause")
		mw.updateStatus("Detection running")
	}
}

// setupSessionHandlers subscribes the window to pipeline output.
func (mw *MainWindow) setupSessionHandlers() {
	mw.session.OnFrame(func(img image.Image) {
		mw.view.SetFrame(img)
	})
	mw.session.OnUpdate(func(dets []detect.Detection) {
		mw.view.SetDetections(dets)
		if err := mw.session.Err(); err != nil {
			mw.updateStatus("Camera error: " + err.Error())
		}
	})
	mw.view.OnViewChange(func(v geometry.ViewTransform) {
		mw.updateStatus(fmt.Sprintf("Zoom %.2fx", v.Zoom))
	})

	go func() {
		<-mw.session.Ready()
		mw.updateStatus("Camera ready")
	}()
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}
