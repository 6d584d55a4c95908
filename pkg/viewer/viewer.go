// Package viewer holds the interactive state of the model viewer: the
// loaded scene and its bounds, the compiled draw list, rotation physics
// and the display toggles. It draws into a render.Context and knows
// nothing about the terminal.
package viewer

import (
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"path/filepath"
	"sync"
	"time"

	"github.com/taigrr/sceneview/pkg/math3d"
	"github.com/taigrr/sceneview/pkg/models"
	"github.com/taigrr/sceneview/pkg/render"
	"github.com/taigrr/sceneview/pkg/scene"
)

const (
	torqueStrength = 3.0
	torqueDecay    = 0.9
	zoomStep       = 0.1
	minZoom        = 0.3
	maxZoom        = 4.0
)

// Options configure a Viewer.
type Options struct {
	FPS        int
	Background color.RGBA
	FOV        float64 // Vertical field of view in radians
	Flags      models.ImportFlags
	FrontFace  render.Winding
	ShowBounds bool
	Logger     *slog.Logger
}

// DefaultOptions returns the options the binary starts from.
func DefaultOptions() Options {
	return Options{
		FPS:        60,
		Background: render.RGB(30, 30, 40),
		FOV:        math.Pi / 3,
		Flags:      models.DefaultImportFlags,
		FrontFace:  render.CCW,
	}
}

// drawCache is a compiled display list and the inputs it was built from.
type drawCache struct {
	scene     *models.Scene
	wireframe bool
	front     render.Winding
	list      *render.List
	builds    int
}

// Viewer owns the current scene and everything needed to draw it.
type Viewer struct {
	opts Options
	log  *slog.Logger

	ctx      *render.Context
	renderer scene.Renderer
	overlay  *render.Overlay

	mu        sync.Mutex
	path      string
	scene     *models.Scene
	stats     models.Stats
	bounds    math3d.Box
	normalize math3d.Mat4
	cache     drawCache

	rotation *RotationState
	torque   struct{ pitch, yaw, roll float64 }
	zoom     float64
	showHUD  bool
	rng      *rand.Rand

	aiming     bool
	savedLight math3d.Vec3
}

// New creates a viewer with an empty scene and a zero-sized framebuffer.
// Call Resize before the first Frame.
func New(opts Options) *Viewer {
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	if opts.FOV <= 0 {
		opts.FOV = math.Pi / 3
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cam := render.NewCamera()
	cam.SetFOV(opts.FOV)

	return &Viewer{
		opts:      opts,
		log:       logger,
		ctx:       render.NewContext(render.NewFramebuffer(0, 0), cam),
		overlay:   render.NewOverlay(),
		bounds:    math3d.EmptyBox(),
		normalize: math3d.Identity(),
		rotation:  NewRotationState(opts.FPS),
		zoom:      1,
		rng:       rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
}

// SetLogger replaces the logger, for example once the terminal takes
// over stderr.
func (v *Viewer) SetLogger(l *slog.Logger) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.log = l
}

func (v *Viewer) logger() *slog.Logger {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.log
}

// Context returns the graphics context the viewer draws into.
func (v *Viewer) Context() *render.Context { return v.ctx }

// Framebuffer returns the render target.
func (v *Viewer) Framebuffer() *render.Framebuffer { return v.ctx.Framebuffer() }

// SavePNG writes the last rendered frame to path.
func (v *Viewer) SavePNG(path string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.ctx.Framebuffer().SavePNG(path); err != nil {
		return err
	}
	v.log.Info("saved snapshot", "file", path)
	return nil
}

// Path returns the path of the loaded model, or "" before the first Load.
func (v *Viewer) Path() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.path
}

// Scene returns the loaded scene, or nil.
func (v *Viewer) Scene() *models.Scene {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scene
}

// Bounds returns the world-space bounds of the loaded scene.
func (v *Viewer) Bounds() math3d.Box {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bounds
}

// SceneStats returns the size of the loaded scene.
func (v *Viewer) SceneStats() models.Stats {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stats
}

// Wireframe reports whether the x-ray override is on.
func (v *Viewer) Wireframe() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.renderer.Wireframe
}

// ShowBounds reports whether the bounds overlay is drawn.
func (v *Viewer) ShowBounds() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.opts.ShowBounds
}

// ShowHUD reports whether the HUD is toggled on.
func (v *Viewer) ShowHUD() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.showHUD
}

// Rotation returns the current pitch, yaw and roll angles.
func (v *Viewer) Rotation() (pitch, yaw, roll float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rotation.Pitch.Position, v.rotation.Yaw.Position, v.rotation.Roll.Position
}

// Load imports path and makes it the current scene. On failure the
// previous scene stays loaded and the error is returned.
func (v *Viewer) Load(path string) error {
	start := time.Now()
	s, err := models.Import(path, v.opts.Flags)
	if err != nil {
		return fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	bounds := scene.ComputeBounds(s)
	stats := s.Stats()

	v.mu.Lock()
	v.path = path
	v.scene = s
	v.stats = stats
	v.bounds = bounds
	v.normalize = normalizeTransform(bounds)
	v.reframe()
	log := v.log
	v.mu.Unlock()

	log.Info("loaded model",
		"file", filepath.Base(path),
		"nodes", stats.Nodes,
		"meshes", stats.Meshes,
		"vertices", stats.Vertices,
		"faces", stats.Faces,
		"elapsed", time.Since(start))
	for _, w := range s.Warnings {
		log.Warn("import warning", "file", filepath.Base(path), "warning", w)
	}
	if bounds.Empty() {
		log.Warn("model has no vertices", "file", filepath.Base(path))
	} else {
		log.Debug("scene bounds", "min", bounds.Min, "max", bounds.Max)
	}
	return nil
}

// normalizeTransform scales b to a largest dimension of 2 and centers it
// on the origin. An empty or flat-to-a-point box is only centered.
func normalizeTransform(b math3d.Box) math3d.Mat4 {
	if b.Empty() {
		return math3d.Identity()
	}
	center := math3d.Translate(b.Center().Negate())
	maxDim := b.Size().MaxComponent()
	if maxDim <= 0 {
		return center
	}
	return math3d.ScaleUniform(2 / maxDim).Mul(center)
}

// Resize sets the framebuffer size in pixels. The camera aspect follows.
func (v *Viewer) Resize(width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ctx.Resize(width, height)
	v.reframe()
}

// reframe places the camera so the normalized scene fits, then applies
// zoom. Callers hold mu.
func (v *Viewer) reframe() {
	cam := v.ctx.Camera()
	box := v.bounds.Transform(v.normalize)
	if box.Empty() {
		box = math3d.NewBox(math3d.V3(-1, -1, -1), math3d.V3(1, 1, 1))
	}
	dist := cam.Frame(box)
	radius := box.Radius()

	d := dist * v.zoom
	cam.SetPosition(math3d.V3(0, 0, d))
	cam.SetClipPlanes(math.Max(d-radius, d*0.01)*0.5, d+radius*2)
}

// KeyDown starts or triggers the action a.
func (v *Viewer) KeyDown(a Action) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch a {
	case PitchUp:
		v.torque.pitch = -torqueStrength
	case PitchDown:
		v.torque.pitch = torqueStrength
	case YawLeft:
		v.torque.yaw = -torqueStrength
	case YawRight:
		v.torque.yaw = torqueStrength
	case RollLeft:
		v.torque.roll = -torqueStrength
	case RollRight:
		v.torque.roll = torqueStrength
	case Spin:
		v.rotation.ApplyImpulse(
			(v.rng.Float64()-0.5)*1.5,
			(v.rng.Float64()-0.5)*1.5,
			(v.rng.Float64()-0.5)*1.5,
		)
	case Reset:
		v.rotation.Reset()
		v.torque = struct{ pitch, yaw, roll float64 }{}
		v.zoom = 1
		v.reframe()
	case ZoomIn:
		v.setZoom(v.zoom - zoomStep)
	case ZoomOut:
		v.setZoom(v.zoom + zoomStep)
	case ToggleWireframe:
		v.renderer.Wireframe = !v.renderer.Wireframe
	case ToggleBounds:
		v.opts.ShowBounds = !v.opts.ShowBounds
	case ToggleHUD:
		v.showHUD = !v.showHUD
	}
}

// KeyUp stops the torque started by a.
func (v *Viewer) KeyUp(a Action) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch a {
	case PitchUp, PitchDown:
		v.torque.pitch = 0
	case YawLeft, YawRight:
		v.torque.yaw = 0
	case RollLeft, RollRight:
		v.torque.roll = 0
	}
}

// Drag rotates by a pointer movement of dx, dy cells.
func (v *Viewer) Drag(dx, dy int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rotation.ApplyImpulse(float64(dy)*0.03, float64(dx)*0.03, 0)
}

// Scroll zooms by steps; positive moves closer.
func (v *Viewer) Scroll(steps int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.setZoom(v.zoom - float64(steps)*zoomStep)
}

func (v *Viewer) setZoom(z float64) {
	v.zoom = math.Min(maxZoom, math.Max(minZoom, z))
	v.reframe()
}

// Frame advances the rotation by dt and draws the current scene.
func (v *Viewer) Frame(dt time.Duration) {
	v.mu.Lock()
	defer v.mu.Unlock()

	secs := math.Min(dt.Seconds(), 0.1)

	// Torque decays even while held since key release events are not
	// reported by every terminal.
	v.rotation.ApplyImpulse(v.torque.pitch*secs, v.torque.yaw*secs, v.torque.roll*secs)
	v.torque.pitch *= torqueDecay
	v.torque.yaw *= torqueDecay
	v.torque.roll *= torqueDecay
	v.rotation.Update()

	ctx := v.ctx
	ctx.Clear(v.opts.Background)
	if v.scene == nil {
		return
	}

	rot := math3d.RotateX(v.rotation.Pitch.Position).
		Mul(math3d.RotateY(v.rotation.Yaw.Position)).
		Mul(math3d.RotateZ(v.rotation.Roll.Position))

	ctx.LoadIdentity()
	ctx.MultMatrix(rot.Mul(v.normalize))
	ctx.CallList(v.drawList())

	if v.opts.ShowBounds {
		v.overlay.DrawBounds(ctx, v.bounds)
		v.overlay.AxisLength = v.bounds.Size().MaxComponent() / 2
		v.overlay.DrawAxes(ctx, v.bounds.Center())
	}
}

// drawList returns the compiled list for the current scene, rebuilding it
// when the scene or a render option changed. Callers hold mu.
func (v *Viewer) drawList() *render.List {
	c := &v.cache
	if c.list != nil && c.scene == v.scene && c.wireframe == v.renderer.Wireframe && c.front == v.opts.FrontFace {
		return c.list
	}

	ctx := v.ctx
	ctx.NewList()
	ctx.FrontFace(v.opts.FrontFace)
	ctx.PushMatrix()
	v.renderer.RenderScene(ctx, v.scene)
	ctx.PopMatrix()
	list := ctx.EndList()

	c.scene = v.scene
	c.wireframe = v.renderer.Wireframe
	c.front = v.opts.FrontFace
	c.list = list
	c.builds++

	v.log.Debug("compiled draw list", "commands", list.Len(), "wireframe", c.wireframe, "builds", c.builds)
	return list
}

// FrameStats returns the render counters of the last Frame.
func (v *Viewer) FrameStats() render.Stats {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ctx.Stats()
}
