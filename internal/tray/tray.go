// Package tray provides the menu bar controls for a running driver.
package tray

import (
	"fmt"
	"sync"

	"github.com/ayusman/airpointer/internal/gesture"
	"github.com/getlantern/systray"
)

// Tray represents the system tray menu.
type Tray struct {
	title    string
	onToggle func(enabled bool)
	onQuit   func()
	enabled  bool
	clicks   int
	scrolls  int
	lastKind gesture.EventKind
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuLast   *systray.MenuItem
	menuCounts *systray.MenuItem
}

// New creates a Tray showing title with the given initial enabled state.
func New(title string, enabled bool) *Tray {
	return &Tray{
		title:   title,
		enabled: enabled,
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray. It blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle(t.title)
	systray.SetTooltip(t.title + " hand gesture control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle gesture control")
	systray.AddSeparator()

	t.menuLast = systray.AddMenuItem(lastTitle(gesture.Event{}), "Last gesture event")
	t.menuLast.Disable()
	t.menuCounts = systray.AddMenuItem(countsTitle(0, 0), "Events this session")
	t.menuCounts.Disable()
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit "+t.title)
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastTitle(e gesture.Event) string {
	switch e.Kind {
	case gesture.Click:
		return "Last: CLICK"
	case gesture.Scroll:
		return fmt.Sprintf("Last: SCROLL %+.1f", e.Amount)
	case gesture.Move:
		return "Last: MOVE"
	default:
		return "Last: none"
	}
}

func countsTitle(clicks, scrolls int) string {
	return fmt.Sprintf("Clicks: %d  Scrolls: %d", clicks, scrolls)
}

// handleToggle flips the enabled state and reports it.
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

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetEnabled updates the toggle without running the callback, for changes
// made elsewhere.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// ShowEvent updates the last event line. Click and Scroll also bump the
// counters; Move only updates the line once per change of kind.
func (t *Tray) ShowEvent(e gesture.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e.Kind == gesture.Move && t.lastKind == gesture.Move {
		return
	}
	t.lastKind = e.Kind

	switch e.Kind {
	case gesture.Click:
		t.clicks++
	case gesture.Scroll:
		t.scrolls++
	}

	if t.menuLast != nil {
		t.menuLast.SetTitle(lastTitle(e))
	}
	if t.menuCounts != nil && e.Kind.Discrete() {
		t.menuCounts.SetTitle(countsTitle(t.clicks, t.scrolls))
	}
}

// Counts returns the clicks and scrolls shown so far.
func (t *Tray) Counts() (clicks, scrolls int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.clicks, t.scrolls
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
