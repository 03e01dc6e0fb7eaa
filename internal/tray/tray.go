// Package tray puts the session controls in the system tray: pause and
// resume drawing, clear the canvas, show the current gesture, quit.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray owns the tray icon. Callbacks run on the tray's click goroutine and
// must not block.
type Tray struct {
	mu      sync.Mutex
	enabled bool
	mode    string

	onToggle func(enabled bool)
	onClear  func()
	onQuit   func()

	items *menu
}

// menu holds the items whose titles change after startup.
type menu struct {
	toggle *systray.MenuItem
	mode   *systray.MenuItem
	clear  *systray.MenuItem
	quit   *systray.MenuItem
}

// New returns a tray with drawing enabled and no gesture seen yet.
func New() *Tray {
	return &Tray{enabled: true, mode: "none"}
}

func (t *Tray) OnToggle(fn func(enabled bool)) { t.set(func() { t.onToggle = fn }) }
func (t *Tray) OnClear(fn func())              { t.set(func() { t.onClear = fn }) }
func (t *Tray) OnQuit(fn func())               { t.set(func() { t.onQuit = fn }) }

func (t *Tray) set(assign func()) {
	t.mu.Lock()
	assign()
	t.mu.Unlock()
}

// Run shows the icon and blocks until Stop or the Quit item. It has to be
// called on the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.build, func() {})
}

func (t *Tray) Stop() {
	systray.Quit()
}

func (t *Tray) build() {
	systray.SetTitle("airpaint")
	systray.SetTooltip("Draw in the air with your index finger")

	t.mu.Lock()
	m := &menu{
		toggle: systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume drawing"),
		mode:   systray.AddMenuItem(modeTitle(t.mode), "Gesture seen in the last frame"),
	}
	m.mode.Disable()
	systray.AddSeparator()
	m.clear = systray.AddMenuItem("Clear canvas", "Erase the drawing")
	systray.AddSeparator()
	m.quit = systray.AddMenuItem("Quit", "Quit airpaint")
	t.items = m
	t.mu.Unlock()

	go t.listen(m)
}

func (t *Tray) listen(m *menu) {
	for {
		select {
		case <-m.toggle.ClickedCh:
			t.toggle()
		case <-m.clear.ClickedCh:
			t.clear()
		case <-m.quit.ClickedCh:
			t.quit()
			return
		}
	}
}

// toggle flips the drawing state and reports the new value. The callback
// runs without the lock held.
func (t *Tray) toggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled, fn := t.enabled, t.onToggle
	if t.items != nil {
		t.items.toggle.SetTitle(toggleTitle(enabled))
	}
	t.mu.Unlock()

	if fn != nil {
		fn(enabled)
	}
}

func (t *Tray) clear() {
	t.mu.Lock()
	fn := t.onClear
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (t *Tray) quit() {
	t.mu.Lock()
	fn := t.onQuit
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
	systray.Quit()
}

// SetMode shows mode on the gesture line. Unchanged modes skip the redraw.
func (t *Tray) SetMode(mode string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if mode == t.mode {
		return
	}
	t.mode = mode
	if t.items != nil {
		t.items.mode.SetTitle(modeTitle(mode))
	}
}

func (t *Tray) Mode() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

func (t *Tray) IsEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Drawing"
	}
	return "○ Paused"
}

func modeTitle(mode string) string { return "Gesture: " + mode }
