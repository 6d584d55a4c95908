// sceneview - Terminal 3D Model Viewer
// View OBJ, COLLADA, glTF and GLB scenes in your terminal with full 3D rendering.
//
// Controls:
//
//	Mouse drag  - Rotate model (yaw/pitch)
//	Scroll      - Zoom in/out
//	W/S         - Pitch up/down
//	A/D         - Yaw left/right
//	Q/E         - Roll left/right (Q rolls left, E rolls right)
//	Space       - Apply random impulse
//	R           - Reset rotation
//	X           - Toggle wireframe mode (x-ray)
//	B           - Toggle bounding box and axes
//	P           - Save a PNG snapshot of the current frame
//	L           - Light positioning mode (move mouse, click to set, Esc to cancel)
//	?           - Toggle HUD overlay (FPS, filename, scene stats, mode status)
//	+/-         - Adjust zoom
//	Esc         - Quit (or cancel light mode)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/sceneview/pkg/config"
	"github.com/taigrr/sceneview/pkg/viewer"
)

func main() {
	cfg, err := config.Load("sceneview", os.Args[1:], os.Stderr, os.Getenv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		if !errors.Is(err, config.ErrUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger writes to w at the configured level.
func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.Level()}))
}

func run(cfg config.Config) error {
	// Until the alternate screen is up, logs go to stderr.
	logger := newLogger(os.Stderr, cfg)
	if cfg.ConfigFile != "" {
		logger.Info("using config", "file", cfg.ConfigFile)
	}
	if cfg.Broken {
		logger.Info("treating clockwise faces as front facing", "env", config.BrokenModelEnv)
	}

	v := viewer.New(cfg.ViewerOptions(logger))
	if err := v.Load(cfg.Model); err != nil {
		return err
	}

	if cfg.Snapshot != "" {
		return renderSnapshot(v, cfg)
	}

	// While the viewer owns the terminal, logs go to -log or nowhere.
	var logOut io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger = newLogger(logOut, cfg)
	v.SetLogger(logger)

	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	// Enable mouse mode
	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Enable any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // Enable SGR extended mouse mode

	// Each cell shows two framebuffer rows.
	v.Resize(width, height*2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	hud := NewHUD(filepath.Base(cfg.Model))
	if cfg.Watch {
		go func() {
			err := v.Watch(ctx, cfg.Model, func(err error) { hud.SetReloadError(err) })
			if err != nil {
				logger.Error("watch stopped", "err", err)
			}
		}()
	}

	resized := make(chan [2]int, 1)
	snapshot := func() {
		name := snapshotName(cfg.Model, time.Now())
		if err := v.SavePNG(name); err != nil {
			logger.Error("snapshot failed", "err", err)
		}
	}
	go handleEvents(ctx, cancel, term, v, width, height, resized, snapshot)

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}

	targetDuration := time.Second / time.Duration(cfg.FPS)
	lastFrame := time.Now()

	for {
		select {
		case <-ctx.Done():
			cleanup()
			return nil
		case size := <-resized:
			width, height = size[0], size[1]
			term.Erase()
			term.Resize(width, height)
			v.Resize(width, height*2)
		default:
		}

		now := time.Now()
		dt := now.Sub(lastFrame)
		lastFrame = now

		v.Frame(dt)

		v.Framebuffer().Draw(term, uv.Rect(0, 0, width, height))
		if err := term.Display(); err != nil {
			cleanup()
			return fmt.Errorf("display: %w", err)
		}

		// HUD overlay (always update FPS, render clears lines when HUD off)
		hud.UpdateFPS()
		hud.Render(os.Stdout, width, height, v)

		// Frame timing
		elapsed := time.Since(now)
		if elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}

// renderSnapshot draws one frame offscreen at the configured size and
// writes it to cfg.Snapshot.
func renderSnapshot(v *viewer.Viewer, cfg config.Config) error {
	v.Resize(cfg.SnapshotWidth, cfg.SnapshotHeight)
	v.Frame(0)
	return v.SavePNG(cfg.Snapshot)
}

// snapshotName names a key-triggered snapshot after the model and time,
// in the working directory.
func snapshotName(model string, now time.Time) string {
	base := filepath.Base(model)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s-%s.png", base, now.Format("20060102-150405"))
}

// handleEvents turns terminal events into viewer calls until the
// terminal closes or the user quits.
func handleEvents(ctx context.Context, cancel context.CancelFunc, term *uv.Terminal, v *viewer.Viewer, width, height int, resized chan [2]int, snapshot func()) {
	var mouseDown bool
	var lastMouseX, lastMouseY int

	for ev := range term.Events() {
		if ctx.Err() != nil {
			return
		}
		switch ev := ev.(type) {
		case uv.WindowSizeEvent:
			width, height = ev.Width, ev.Height
			// Keep only the newest size.
			select {
			case <-resized:
			default:
			}
			resized <- [2]int{ev.Width, ev.Height}

		case uv.KeyPressEvent:
			switch {
			case ev.MatchString("escape"):
				if v.AimingLight() {
					v.CancelLight()
				} else {
					cancel()
					return
				}
			case ev.MatchString("ctrl+c"):
				cancel()
				return
			case ev.MatchString("l"):
				v.BeginAimLight()
			case ev.MatchString("p"):
				snapshot()
			default:
				v.KeyDown(viewer.Lookup(viewer.DefaultBindings, ev.MatchString))
			}

		case uv.KeyReleaseEvent:
			v.KeyUp(viewer.Lookup(viewer.DefaultBindings, ev.MatchString))

		case uv.MouseClickEvent:
			if v.AimingLight() {
				v.CommitLight()
			} else {
				mouseDown = true
				lastMouseX, lastMouseY = ev.X, ev.Y
			}

		case uv.MouseReleaseEvent:
			mouseDown = false

		case uv.MouseMotionEvent:
			if v.AimingLight() {
				v.AimLight(ev.X, ev.Y, width, height)
			} else if mouseDown {
				v.Drag(ev.X-lastMouseX, ev.Y-lastMouseY)
				lastMouseX, lastMouseY = ev.X, ev.Y
			}

		case uv.MouseWheelEvent:
			switch ev.Button {
			case uv.MouseWheelUp:
				v.Scroll(1)
			case uv.MouseWheelDown:
				v.Scroll(-1)
			}
		}
	}
}
