package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/taigrr/sceneview/pkg/viewer"
)

// ANSI escape codes for positioning and styling
const (
	reset     = "\x1b[0m"
	bold      = "\x1b[1m"
	dim       = "\x1b[2m"
	bgBlack   = "\x1b[40m"
	fgWhite   = "\x1b[97m"
	fgGreen   = "\x1b[92m"
	fgYellow  = "\x1b[93m"
	fgCyan    = "\x1b[96m"
	fgRed     = "\x1b[91m"
	clearLine = "\x1b[2K"
)

// HUD renders an overlay with model info and controls.
type HUD struct {
	filename  string
	fps       float64
	fpsFrames int
	fpsTime   time.Time

	mu        sync.Mutex
	reloadErr error
}

// NewHUD creates a new HUD.
func NewHUD(filename string) *HUD {
	return &HUD{
		filename: filename,
		fpsTime:  time.Now(),
	}
}

// UpdateFPS updates the FPS counter (call once per frame).
func (h *HUD) UpdateFPS() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

// SetReloadError records the outcome of the last watch reload. It is
// called from the watcher goroutine.
func (h *HUD) SetReloadError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reloadErr = err
}

func moveTo(row, col int) string {
	return fmt.Sprintf("\x1b[%d;%dH", row, col)
}

func check(on bool) string {
	if on {
		return "[✓]"
	}
	return "[ ]"
}

// Render draws the HUD on the first and last terminal rows.
func (h *HUD) Render(w io.Writer, width, height int, v *viewer.Viewer) {
	// Always clear the HUD rows (so toggling off works)
	fmt.Fprint(w, moveTo(1, 1)+clearLine)
	fmt.Fprint(w, moveTo(height, 1)+clearLine)

	// Light mode always shows its indicator
	if v.AimingLight() {
		lightMsg := fmt.Sprintf("%s%s%s ◉ LIGHT MODE - Move mouse to position, click to set, Esc to cancel %s",
			bgBlack, bold, fgYellow, reset)
		lightCol := max((width-60)/2, 1)
		fmt.Fprint(w, moveTo(height, lightCol)+lightMsg)
		return
	}

	h.mu.Lock()
	reloadErr := h.reloadErr
	h.mu.Unlock()
	if reloadErr != nil {
		msg := fmt.Sprintf("%s%s reload failed: %v %s", bgBlack, fgRed, reloadErr, reset)
		fmt.Fprint(w, moveTo(height, 1)+msg)
	}

	// If HUD is disabled, we're done (lines already cleared)
	if !v.ShowHUD() {
		return
	}

	// Top left: FPS
	fmt.Fprintf(w, "%s%s%s %.0f FPS %s", moveTo(1, 1), bgBlack, fgGreen, h.fps, reset)

	// Top middle: filename
	titleStr := fmt.Sprintf("%s%s%s %s %s", bold, bgBlack, fgWhite, h.filename, reset)
	titleCol := max((width-len(h.filename)-2)/2, 1)
	fmt.Fprint(w, moveTo(1, titleCol)+titleStr)

	// Top right: scene and frame counters
	scene := v.SceneStats()
	frame := v.FrameStats()
	stats := fmt.Sprintf("%d faces %d meshes %d drawn", scene.Faces, scene.Meshes, frame.Batches)
	statsStr := fmt.Sprintf("%s%s%s %s %s", bgBlack, fgCyan, bold, stats, reset)
	fmt.Fprint(w, moveTo(1, max(width-len(stats)-1, 1))+statsStr)

	if reloadErr != nil {
		return
	}

	// Bottom: mode checkboxes and hint
	modeStr := fmt.Sprintf("%s%s %s X-Ray (wireframe)  %s Bounds %s",
		bgBlack, fgWhite, check(v.Wireframe()), check(v.ShowBounds()), reset)
	fmt.Fprint(w, moveTo(height, 1)+modeStr)

	hint := fmt.Sprintf("%s%s%s L: position light %s", bgBlack, dim, fgYellow, reset)
	hintCol := max(width-18, 1)
	fmt.Fprint(w, moveTo(height, hintCol)+hint)
}
