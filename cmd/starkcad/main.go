package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/starkcad/internal/app"
	"github.com/ayusman/starkcad/internal/capture"
	"github.com/ayusman/starkcad/internal/config"
	"github.com/ayusman/starkcad/internal/detector"
	"github.com/ayusman/starkcad/internal/document"
	"github.com/ayusman/starkcad/internal/gesture"
	"github.com/ayusman/starkcad/internal/interaction"
	"github.com/ayusman/starkcad/internal/metrics"
	"github.com/ayusman/starkcad/internal/server"
	"github.com/ayusman/starkcad/internal/store"
	"github.com/ayusman/starkcad/internal/tracking"
	"github.com/ayusman/starkcad/internal/tray"
)

func main() {
	fmt.Println("StarkCAD - Gesture Modeling Workspace")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	doc, st := openDocument(cfg)
	if st != nil {
		defer st.Close()
	}

	m := metrics.New()
	hands := newTracker(cfg, m)

	appCfg := app.Config{
		TickHz:   cfg.TickHz,
		Document: doc,
		Metrics:  m,
	}
	appCfg.Interaction = interaction.DefaultConfig()
	appCfg.Interaction.OrbitSensitivity = cfg.OrbitSensitivity
	// A nil *Tracker must not become a non-nil HandSource.
	if hands != nil {
		appCfg.Hands = hands
	}
	if st != nil {
		appCfg.Settings = st.Settings()
	}
	a := app.New(appCfg)

	srvCfg := server.Config{StaticDir: cfg.StaticDir, App: a}
	if hands != nil && cfg.Preview {
		srvCfg.Preview = hands
	}
	srv := server.New(srvCfg)

	a.Start()
	go func() {
		if err := srv.ListenAndServe(cfg.Addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown: %v", err)
		}
		a.Stop()
	}

	if cfg.Tray {
		runTray(cfg, a, shutdown)
		return
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	shutdown()
}

// openDocument restores the persisted document, or starts an in-memory one
// when no database is configured. A fresh document gets the default cube.
func openDocument(cfg *config.Config) (*document.Document, *store.Store) {
	if cfg.DBPath == "" {
		doc := document.New(nil)
		doc.SeedDefault()
		return doc, nil
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	doc := document.New(st)
	if err := st.LoadDocument(doc); err != nil {
		log.Fatalf("Failed to load document: %v", err)
	}
	doc.SeedDefault()
	fmt.Printf("Document: %s (%d solids, %d sketches)\n", st.Path(), len(doc.Solids()), len(doc.Sketches()))
	return doc, st
}

// newTracker builds the capture and inference pipeline. It returns nil when
// no landmark model is installed; the workspace then runs without hands.
func newTracker(cfg *config.Config, m *metrics.Manager) *tracking.Tracker {
	det, err := detector.NewMediaPipeDetector(detector.Config{
		MaxHands:      cfg.MaxHands,
		MinConfidence: cfg.MinConfidence,
	})
	if err != nil {
		log.Printf("Hand tracking unavailable: %v", err)
		return nil
	}

	cam := capture.NewCamera(capture.Config{
		DeviceID: cfg.CameraID,
		FPS:      cfg.CaptureFPS,
	})
	cls := gesture.NewClassifier(gesture.Thresholds{
		Pinch:  cfg.PinchThreshold,
		Clutch: cfg.ClutchThreshold,
	})

	tcfg := tracking.DefaultConfig()
	tcfg.FPS = cfg.CaptureFPS
	tcfg.MotionGate = cfg.MotionGate
	tcfg.Preview = cfg.Preview
	return tracking.New(tcfg, cam, det, cls, m)
}

// runTray blocks in the tray event loop and mirrors the session into the
// menu until Quit.
func runTray(cfg *config.Config, a *app.App, shutdown func()) {
	t := tray.New()
	t.SetTool(a.State().Tool)
	t.SetTracking(a.Tracking())

	t.OnToggle(func(enabled bool) {
		if err := a.SetTracking(enabled); err != nil {
			log.Printf("Tracking toggle: %v", err)
			t.SetTracking(a.Tracking())
		}
	})
	t.OnTool(a.SetTool)
	t.OnOpen(func() { openBrowser("http://" + cfg.Addr) })
	t.OnQuit(shutdown)

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s := a.State()
				t.SetGesture(s.Gesture)
				t.SetTool(s.Tool)
				t.SetTracking(s.Tracking)
			}
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		shutdown()
		t.Quit()
	}()

	t.Run()
	close(stop)
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Open browser: %v", err)
	}
}
