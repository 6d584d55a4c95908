// Package config resolves the viewer's settings from command-line flags,
// an optional TOML file and the environment. Flags given explicitly on
// the command line override the file.
package config

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/taigrr/sceneview/pkg/models"
	"github.com/taigrr/sceneview/pkg/render"
	"github.com/taigrr/sceneview/pkg/viewer"
)

// BrokenModelEnv names the environment variable that flips front-face
// winding to clockwise for models exported inside out.
const BrokenModelEnv = "MODEL_IS_BROKEN"

// ErrUsage is returned when no model path was given.
var ErrUsage = errors.New("usage: sceneview [options] <model>")

// Config is everything the binary needs to start.
type Config struct {
	FPS           int     `toml:"fps"`
	Background    string  `toml:"background"` // "R,G,B"
	FOV           float64 `toml:"fov"`        // Degrees
	LogFile       string  `toml:"log"`
	Watch         bool    `toml:"watch"`
	NoTriangulate bool    `toml:"no_triangulate"`
	ShowBounds    bool    `toml:"bounds"`
	Verbose       bool    `toml:"verbose"`
	VeryVerbose   bool    `toml:"very_verbose"`
	Quiet         bool    `toml:"quiet"`

	SnapshotWidth  int `toml:"snapshot_width"`
	SnapshotHeight int `toml:"snapshot_height"`

	// Resolved outside the file.
	ConfigFile string `toml:"-"`
	Snapshot   string `toml:"-"`
	Model      string `toml:"-"`
	Broken     bool   `toml:"-"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		FPS:            60,
		Background:     "30,30,40",
		FOV:            60,
		SnapshotWidth:  640,
		SnapshotHeight: 480,
	}
}

// FlagSet binds flags to the fields of c.
func (c *Config) FlagSet(name string, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "Path to a TOML config file")
	fs.IntVar(&c.FPS, "fps", c.FPS, "Target FPS")
	fs.StringVar(&c.Background, "bg", c.Background, "Background color (R,G,B)")
	fs.Float64Var(&c.FOV, "fov", c.FOV, "Vertical field of view in degrees")
	fs.StringVar(&c.LogFile, "log", c.LogFile, "Write logs to this file while the viewer runs")
	fs.BoolVar(&c.Watch, "watch", c.Watch, "Reload the model when the file changes")
	fs.BoolVar(&c.NoTriangulate, "no-triangulate", c.NoTriangulate, "Keep polygons as n-gons")
	fs.BoolVar(&c.ShowBounds, "bounds", c.ShowBounds, "Start with the bounding box overlay on")
	fs.BoolVar(&c.Verbose, "v", c.Verbose, "Log loading details")
	fs.BoolVar(&c.VeryVerbose, "vv", c.VeryVerbose, "Log debug output")
	fs.BoolVar(&c.Quiet, "q", c.Quiet, "Only log errors")
	fs.StringVar(&c.Snapshot, "snapshot", c.Snapshot, "Render one frame to this PNG file and exit")
	fs.IntVar(&c.SnapshotWidth, "snapshot-width", c.SnapshotWidth, "Snapshot width in pixels")
	fs.IntVar(&c.SnapshotHeight, "snapshot-height", c.SnapshotHeight, "Snapshot height in pixels")
	return fs
}

// Load parses args (without the program name). When -config names a
// file it is read first and the flags are applied again on top, so the
// command line wins. getenv is usually os.Getenv.
func Load(name string, args []string, output io.Writer, getenv func(string) string) (Config, error) {
	cfg := Default()
	fs := cfg.FlagSet(name, output)
	fs.Usage = func() { usage(fs) }
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if cfg.ConfigFile != "" {
		path := cfg.ConfigFile
		if err := cfg.readFile(path); err != nil {
			return cfg, err
		}
		cfg.ConfigFile = path
		if err := fs.Parse(args); err != nil {
			return cfg, err
		}
	}

	if fs.NArg() < 1 {
		fs.Usage()
		return cfg, ErrUsage
	}
	cfg.Model = fs.Arg(0)
	cfg.Broken = truthy(getenv(BrokenModelEnv))

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	if c.FOV <= 0 || c.FOV >= 180 {
		return fmt.Errorf("fov must be between 0 and 180 degrees, got %g", c.FOV)
	}
	if _, err := ParseColor(c.Background); err != nil {
		return err
	}
	if c.Snapshot != "" && (c.SnapshotWidth <= 0 || c.SnapshotHeight <= 0) {
		return fmt.Errorf("snapshot size must be positive, got %dx%d", c.SnapshotWidth, c.SnapshotHeight)
	}
	return nil
}

// ParseColor reads an "R,G,B" triple of 0-255 components.
func ParseColor(s string) (color.RGBA, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return color.RGBA{}, fmt.Errorf("color %q: want R,G,B", s)
	}
	var rgb [3]uint8
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
		}
		rgb[i] = uint8(n)
	}
	return render.RGB(rgb[0], rgb[1], rgb[2]), nil
}

// truthy treats any non-empty value other than an explicit false as set.
func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}

// FrontFace returns the winding that counts as front facing.
func (c Config) FrontFace() render.Winding {
	if c.Broken {
		return render.CW
	}
	return render.CCW
}

// ImportFlags returns the post-processing steps to request.
func (c Config) ImportFlags() models.ImportFlags {
	flags := models.DefaultImportFlags
	if c.NoTriangulate {
		flags &^= models.Triangulate
	}
	return flags
}

// Level returns the log level selected by -vv, -v and -q.
func (c Config) Level() slog.Level {
	return LevelFromFlags(c.VeryVerbose, c.Verbose, c.Quiet)
}

// LevelFromFlags maps the verbosity flags to a level. They are checked
// in order, so vv wins over q.
//   - vv: [slog.LevelDebug]
//   - v: [slog.LevelInfo]
//   - q: [slog.LevelError]
//   - (default: [slog.LevelWarn])
func LevelFromFlags(vv, v, q bool) slog.Level {
	switch {
	case vv:
		return slog.LevelDebug
	case v:
		return slog.LevelInfo
	case q:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// ViewerOptions converts the config into viewer options. Validate must
// have passed.
func (c Config) ViewerOptions(logger *slog.Logger) viewer.Options {
	bg, _ := ParseColor(c.Background)
	return viewer.Options{
		FPS:        c.FPS,
		Background: bg,
		FOV:        c.FOV * math.Pi / 180,
		Flags:      c.ImportFlags(),
		FrontFace:  c.FrontFace(),
		ShowBounds: c.ShowBounds,
		Logger:     logger,
	}
}

func usage(fs *flag.FlagSet) {
	w := fs.Output()
	fmt.Fprintf(w, "sceneview - Terminal 3D Model Viewer\n\n")
	fmt.Fprintf(w, "Usage: sceneview [options] <model.obj|model.dae|model.gltf|model.glb>\n\n")
	fmt.Fprintf(w, "Options:\n")
	fs.PrintDefaults()
	fmt.Fprintf(w, "\nEnvironment:\n")
	fmt.Fprintf(w, "  %s=1  Treat clockwise faces as front facing\n", BrokenModelEnv)
	fmt.Fprintf(w, "  (unset, empty, 0, false, no or off keep counter-clockwise)\n")
	fmt.Fprintf(w, "\nControls:\n")
	fmt.Fprintf(w, "  Mouse drag  - Rotate model\n")
	fmt.Fprintf(w, "  Scroll      - Zoom in/out\n")
	fmt.Fprintf(w, "  W/S/A/D     - Pitch and yaw\n")
	fmt.Fprintf(w, "  Q/E         - Roll left/right\n")
	fmt.Fprintf(w, "  Space       - Random spin\n")
	fmt.Fprintf(w, "  R           - Reset view\n")
	fmt.Fprintf(w, "  X           - Toggle wireframe\n")
	fmt.Fprintf(w, "  B           - Toggle bounding box\n")
	fmt.Fprintf(w, "  P           - Save a PNG snapshot\n")
	fmt.Fprintf(w, "  L           - Position light (mouse to aim, click to set)\n")
	fmt.Fprintf(w, "  ?           - Toggle HUD overlay\n")
	fmt.Fprintf(w, "  Esc         - Quit\n")
}
