// Package main provides the entry point for the SeekLens application.
package main

import (
	"log"
	"time"

	fyneapp "fyne.io/fyne/v2/app"

	"github.com/iamethanf20-hub/seeklens/internal/detect"
	"github.com/iamethanf20-hub/seeklens/internal/pipeline"
	"github.com/iamethanf20-hub/seeklens/internal/recog"
	"github.com/iamethanf20-hub/seeklens/internal/version"
	"github.com/iamethanf20-hub/seeklens/ui/mainwindow"
	"github.com/iamethanf20-hub/seeklens/ui/prefs"
)

const appTitle = "SeekLens"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s %s", appTitle, version.String())

	appPrefs := prefs.Load()

	engine, err := recog.NewEngine()
	if err != nil {
		log.Fatalf("Failed to create recognition engine: %v", err)
	}
	defer engine.Close()

	maxZoom := appPrefs.Float(prefs.KeyMaxZoom, pipeline.DefaultMaxZoom)
	camera := pipeline.NewWebcam(appPrefs.Int(prefs.KeyCameraDevice, 0), maxZoom)

	session := pipeline.NewSession(pipeline.Config{
		Camera:     camera,
		Recognizer: engine,
		Match: detect.MatchConfig{
			Query:       appPrefs.String(prefs.KeyQuery, ""),
			Mode:        matchMode(appPrefs),
			Granularity: granularity(appPrefs),
		},
		Recognition: recog.Options{
			Languages: appPrefs.Languages(),
			Accuracy:  recog.AccuracyFast,
		},
		MinInterval: time.Duration(appPrefs.Int(prefs.KeyThrottleMillis, 300)) * time.Millisecond,
		MaxZoom:     maxZoom,
	})

	fyneApp := fyneapp.New()
	win := mainwindow.New(fyneApp, session, appPrefs)
	win.SetTitle(appTitle)

	if err := session.Setup(); err != nil {
		log.Printf("Camera setup failed: %v", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Printf("Session close: %v", err)
		}
		if err := appPrefs.Save(); err != nil {
			log.Printf("Saving preferences: %v", err)
		}
	}()

	win.Show()
	fyneApp.Run()
}

func matchMode(p *prefs.Prefs) detect.MatchMode {
	if p.String(prefs.KeyMatchMode, "contains") == "exact" {
		return detect.MatchExact
	}
	return detect.MatchContains
}

func granularity(p *prefs.Prefs) detect.Granularity {
	if p.String(prefs.KeyGranularity, "word") == "line" {
		return detect.GranularityLine
	}
	return detect.GranularityWord
}
