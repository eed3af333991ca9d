// Package app wires hand tracking, the interaction state machine, the
// document and the viewport into one controller with a fixed-rate tick.
package app

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/starkcad/internal/detector"
	"github.com/ayusman/starkcad/internal/document"
	"github.com/ayusman/starkcad/internal/gesture"
	"github.com/ayusman/starkcad/internal/interaction"
	"github.com/ayusman/starkcad/internal/metrics"
	"github.com/ayusman/starkcad/internal/scene"
	"github.com/ayusman/starkcad/internal/store"
	"github.com/ayusman/starkcad/internal/tracking"
)

// DefaultTickHz is the interaction tick rate.
const DefaultTickHz = 60

// HandSource provides the latest tracked hands. *tracking.Tracker is the
// production implementation.
type HandSource interface {
	Start() error
	Stop()
	Running() bool
	Latest() *tracking.Snapshot
}

// Settings persists session preferences. *store.SettingsRepository
// satisfies it.
type Settings interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// Config holds the controller's collaborators and tunables. Only Document is
// required.
type Config struct {
	TickHz      int
	Interaction interaction.Config
	Camera      scene.CameraConfig
	Plane       scene.PlaneConfig

	Document *document.Document
	Hands    HandSource
	Settings Settings
	Metrics  *metrics.Manager
}

// State is the HUD projection published after every tick.
type State struct {
	interaction.State
	Tracking  bool       `json:"tracking"`
	Hands     int        `json:"hands"`
	Camera    scene.View `json:"camera"`
	Tick      uint64     `json:"tick"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// App is the controller. Tick and every mutator are serialized by mu;
// readers use State, which is published atomically.
type App struct {
	cfg      Config
	doc      *document.Document
	hands    HandSource
	settings Settings
	metrics  *metrics.Manager
	camera   *scene.OrbitCamera
	machine  *interaction.Machine
	cursor   *gesture.CursorMapper

	mu        sync.Mutex
	ticks     uint64
	prevLabel gesture.Label
	handCount int
	stopCh    chan struct{}
	done      chan struct{}

	state atomic.Pointer[State]
}

// New builds the controller. The tool saved in Settings, if any, is restored.
func New(cfg Config) *App {
	if cfg.TickHz <= 0 {
		cfg.TickHz = DefaultTickHz
	}
	if cfg.Interaction == (interaction.Config{}) {
		cfg.Interaction = interaction.DefaultConfig()
	}
	if cfg.Camera == (scene.CameraConfig{}) {
		cfg.Camera = scene.DefaultCameraConfig()
	}
	if cfg.Plane == (scene.PlaneConfig{}) {
		cfg.Plane = scene.DefaultPlaneConfig()
	}
	// Committed sketches record the plane the raycaster intersects.
	cfg.Interaction.PlaneNormal = cfg.Plane.Normal
	cfg.Interaction.PlaneOrigin = cfg.Plane.Origin

	doc := cfg.Document
	if doc == nil {
		doc = document.New(nil)
	}

	cam := scene.NewOrbitCamera(cfg.Camera)
	rc := scene.NewRaycaster(cam, doc, cfg.Plane)

	a := &App{
		cfg:       cfg,
		doc:       doc,
		hands:     cfg.Hands,
		settings:  cfg.Settings,
		metrics:   cfg.Metrics,
		camera:    cam,
		machine:   interaction.NewMachine(cfg.Interaction, rc, cam, doc),
		cursor:    gesture.NewCursorMapper(),
		prevLabel: gesture.Idle,
	}
	a.restoreTool()
	a.publish()
	return a
}

func (a *App) restoreTool() {
	if a.settings == nil {
		return
	}
	raw, err := a.settings.Get(store.SettingTool)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("app: read saved tool: %v", err)
		}
		return
	}
	tool, err := interaction.ParseTool(raw)
	if err != nil {
		log.Printf("app: ignoring saved tool %q: %v", raw, err)
		return
	}
	a.machine.SetTool(tool)
}

// Tick runs one interaction step: read the latest snapshot, resolve the
// primary hand, map the cursor and advance the state machine.
func (a *App) Tick() interaction.Effects {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := a.latest()
	label := gesture.Idle
	var hand *detector.HandLandmarks
	if obs, ok := snap.Primary(); ok {
		label = obs.Gesture
		hand = &obs.Hand
	}
	cursor := a.cursor.Update(hand)

	fx := a.machine.Tick(interaction.Frame{Gesture: label, Cursor: cursor})

	a.ticks++
	a.handCount = len(snap.Hands)
	a.record(label, fx)
	a.prevLabel = label
	a.publish()
	return fx
}

func (a *App) latest() *tracking.Snapshot {
	if a.hands == nil {
		return &tracking.Snapshot{}
	}
	if s := a.hands.Latest(); s != nil {
		return s
	}
	return &tracking.Snapshot{}
}

func (a *App) record(label gesture.Label, fx interaction.Effects) {
	a.metrics.Tick(string(label))

	pinching := label == gesture.Pinch
	wasPinching := a.prevLabel == gesture.Pinch
	if pinching != wasPinching {
		a.metrics.PinchEdge(pinching)
	}
	if fx.Orbited {
		a.metrics.Orbited()
	}
	if fx.SelectionChanged {
		a.metrics.SelectionChanged()
	}
	if fx.Committed != "" {
		a.metrics.SketchCommitted(string(fx.CommittedKind))
		log.Printf("app: committed %s sketch %s", fx.CommittedKind, fx.Committed)
	}
}

// publish must be called with mu held.
func (a *App) publish() {
	a.state.Store(&State{
		State:     a.machine.State(),
		Tracking:  a.hands != nil && a.hands.Running(),
		Hands:     a.handCount,
		Camera:    a.camera.View(),
		Tick:      a.ticks,
		UpdatedAt: time.Now(),
	})
}

// State returns the state published by the most recent tick or mutation.
func (a *App) State() State {
	return *a.state.Load()
}

// SetTool switches the active tool and remembers it. Any sketch in progress
// is discarded.
func (a *App) SetTool(t interaction.ToolMode) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.machine.SetTool(t) {
		log.Printf("app: sketch discarded by switch to %s", t)
	}
	if a.settings != nil {
		if err := a.settings.Set(store.SettingTool, string(t)); err != nil {
			log.Printf("app: save tool: %v", err)
		}
	}
	a.publish()
}

// ApplyCommand executes a command descriptor. The boolean reports whether a
// solid was created.
func (a *App) ApplyCommand(cmd interaction.Command) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id, ok := a.machine.Apply(cmd)
	if ok {
		a.metrics.Command("applied")
		log.Printf("app: command %s created %s", cmd.Operation, id)
	} else {
		a.metrics.Command("ignored")
	}
	a.publish()
	return id, ok
}

// DeleteSelection removes the selected entities and returns how many were
// removed.
func (a *App) DeleteSelection() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := a.machine.DeleteSelection()
	a.metrics.Deleted(n)
	a.publish()
	return n
}

// RemoveEntity deletes one solid or sketch, keeping the selection consistent.
func (a *App) RemoveEntity(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	ok := a.machine.RemoveEntity(id)
	if ok {
		a.metrics.Deleted(1)
	}
	a.publish()
	return ok
}

// UpdateSolid edits a solid's transform, color or params.
func (a *App) UpdateSolid(id string, u document.SolidUpdate) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	ok := a.doc.UpdateSolid(id, u)
	a.publish()
	return ok
}

// Select replaces the selection, e.g. from a renderer click.
func (a *App) Select(ids ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.machine.Select(ids...)
	a.publish()
}

// Document returns the CAD document.
func (a *App) Document() *document.Document {
	return a.doc
}

// Metrics returns the metrics manager, which may be nil.
func (a *App) Metrics() *metrics.Manager {
	return a.metrics
}

// SetTracking starts or stops hand tracking.
func (a *App) SetTracking(enabled bool) error {
	if a.hands == nil {
		if enabled {
			return fmt.Errorf("enable tracking: %w", tracking.ErrNoDetector)
		}
		return nil
	}

	if enabled {
		if err := a.hands.Start(); err != nil {
			return err
		}
	} else {
		a.hands.Stop()
	}

	a.mu.Lock()
	a.publish()
	a.mu.Unlock()
	return nil
}

// Tracking reports whether hand tracking is running.
func (a *App) Tracking() bool {
	return a.hands != nil && a.hands.Running()
}
