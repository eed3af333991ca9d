// Package tray provides the system tray menu for StarkCAD: tool selection,
// the tracking toggle and the live gesture readout.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/starkcad/internal/gesture"
	"github.com/ayusman/starkcad/internal/interaction"
)

// Tray is the system tray application. Menu items exist only while Run is
// active; the setters are safe to call before that.
type Tray struct {
	onToggle func(enabled bool)
	onTool   func(t interaction.ToolMode)
	onOpen   func()
	onQuit   func()
	enabled  bool
	tool     interaction.ToolMode
	gesture  gesture.Label
	mu       sync.RWMutex

	menuToggle  *systray.MenuItem
	menuGesture *systray.MenuItem
	menuTools   map[interaction.ToolMode]*systray.MenuItem
}

// New creates a Tray showing tracking enabled and the SELECT tool.
func New() *Tray {
	return &Tray{
		enabled: true,
		tool:    interaction.ToolSelect,
		gesture: gesture.Idle,
	}
}

// OnToggle sets the callback for the tracking toggle.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnTool sets the callback for tool menu clicks.
func (t *Tray) OnTool(fn func(tool interaction.ToolMode)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onTool = fn
}

// OnOpen sets the callback for "Open Workspace...".
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback run before the tray exits.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray. It blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray from outside the menu, e.g. on a signal.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("StarkCAD")
	systray.SetTooltip("StarkCAD gesture modeling")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle hand tracking")
	t.menuGesture = systray.AddMenuItem(gestureTitle(t.gesture), "Current gesture")
	t.menuGesture.Disable()
	systray.AddSeparator()

	toolsMenu := systray.AddMenuItem("Tool", "Active modeling tool")
	t.menuTools = make(map[interaction.ToolMode]*systray.MenuItem)
	for _, tool := range interaction.ToolModes() {
		item := toolsMenu.AddSubMenuItemCheckbox(string(tool), "Switch to "+string(tool), tool == t.tool)
		t.menuTools[tool] = item
		go t.watchTool(tool, item)
	}
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Workspace...", "Open the workspace in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit StarkCAD")
	toggle := t.menuToggle
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-toggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) watchTool(tool interaction.ToolMode, item *systray.MenuItem) {
	for range item.ClickedCh {
		t.handleTool(tool)
	}
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleTool(tool interaction.ToolMode) {
	t.SetTool(tool)

	t.mu.RLock()
	callback := t.onTool
	t.mu.RUnlock()

	if callback != nil {
		callback(tool)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// SetTool checks the menu entry for tool.
func (t *Tray) SetTool(tool interaction.ToolMode) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tool = tool
	for m, item := range t.menuTools {
		if m == tool {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

// SetGesture updates the gesture readout. Unchanged labels are not redrawn.
func (t *Tray) SetGesture(label gesture.Label) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if label == t.gesture {
		return
	}
	t.gesture = label
	if t.menuGesture != nil {
		t.menuGesture.SetTitle(gestureTitle(label))
	}
}

// SetTracking reflects a tracking change made elsewhere, e.g. over HTTP.
func (t *Tray) SetTracking(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// IsEnabled returns the displayed tracking state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Tool returns the checked tool.
func (t *Tray) Tool() interaction.ToolMode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tool
}

// Gesture returns the displayed gesture.
func (t *Tray) Gesture() gesture.Label {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gesture
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Tracking"
	}
	return "○ Tracking off"
}

func gestureTitle(label gesture.Label) string {
	return "Gesture: " + string(label)
}
