package render

import (
	"math"
	"testing"

	"github.com/taigrr/sceneview/pkg/math3d"
)

var background = Color{R: 10, G: 10, B: 20, A: 255}

// newTestContext returns a 40x40 context with the camera at (0, 0, 3)
// looking at the origin.
func newTestContext() *Context {
	cam := NewCamera()
	cam.SetFOV(math.Pi / 3)
	cam.SetAspectRatio(1)
	ctx := NewContext(NewFramebuffer(40, 40), cam)
	ctx.Clear(background)
	return ctx
}

// drawTri issues one triangle in the given vertex order.
func drawTri(ctx *Context, verts ...math3d.Vec3) {
	ctx.Begin(Triangles)
	for _, v := range verts {
		ctx.Vertex(v)
	}
	ctx.End()
}

var (
	ccwTri = []math3d.Vec3{math3d.V3(-1, -1, 0), math3d.V3(1, -1, 0), math3d.V3(0, 1, 0)}
	cwTri  = []math3d.Vec3{math3d.V3(-1, -1, 0), math3d.V3(0, 1, 0), math3d.V3(1, -1, 0)}
)

func TestContextMatrixStack(t *testing.T) {
	ctx := newTestContext()
	if ctx.MatrixDepth() != 1 {
		t.Fatalf("initial depth = %d, want 1", ctx.MatrixDepth())
	}

	ctx.PushMatrix()
	ctx.MultMatrix(math3d.Translate(math3d.V3(1, 2, 3)))
	ctx.MultMatrix(math3d.ScaleUniform(2))
	got := ctx.ModelMatrix().MulVec3(math3d.V3(1, 1, 1))
	if got != math3d.V3(3, 4, 5) {
		t.Errorf("parent*local applied to (1,1,1) = %v, want (3,4,5)", got)
	}

	ctx.PopMatrix()
	if !ctx.ModelMatrix().IsIdentity() {
		t.Error("PopMatrix should restore the identity")
	}

	ctx.PopMatrix()
	if ctx.MatrixDepth() != 1 {
		t.Error("popping the last matrix should be a no-op")
	}
}

func TestContextFaceCulling(t *testing.T) {
	tests := []struct {
		name  string
		front Winding
		cull  bool
		verts []math3d.Vec3
		drawn bool
	}{
		{"ccw front, ccw triangle", CCW, true, ccwTri, true},
		{"ccw front, cw triangle", CCW, true, cwTri, false},
		{"cw front, cw triangle", CW, true, cwTri, true},
		{"cw front, ccw triangle", CW, true, ccwTri, false},
		{"culling disabled", CCW, false, cwTri, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := newTestContext()
			ctx.FrontFace(tc.front)
			if tc.cull {
				ctx.Enable(CullFace)
			}
			drawTri(ctx, tc.verts...)

			drawn := ctx.Framebuffer().CountNot(background) > 0
			if drawn != tc.drawn {
				t.Errorf("drawn = %v, want %v (stats %+v)", drawn, tc.drawn, ctx.Stats())
			}
			if !tc.drawn && ctx.Stats().BackFaces != 1 {
				t.Errorf("BackFaces = %d, want 1", ctx.Stats().BackFaces)
			}
		})
	}
}

func TestDisplayListRecordsWithoutExecuting(t *testing.T) {
	ctx := newTestContext()

	ctx.NewList()
	ctx.PushMatrix()
	ctx.MultMatrix(math3d.Translate(math3d.V3(0.5, 0, 0)))
	ctx.Enable(Lighting)
	drawTri(ctx, ccwTri...)
	ctx.PopMatrix()
	list := ctx.EndList()

	if ctx.Framebuffer().CountNot(background) != 0 {
		t.Error("recording should not draw")
	}
	if ctx.MatrixDepth() != 1 || ctx.IsEnabled(Lighting) {
		t.Error("recording should not change state")
	}
	if list.Len() != 9 {
		t.Errorf("list length = %d, want 9", list.Len())
	}

	ctx.CallList(list)
	if ctx.Framebuffer().CountNot(background) == 0 {
		t.Error("replay should draw")
	}
	if !ctx.IsEnabled(Lighting) {
		t.Error("replay should apply state")
	}
	if ctx.MatrixDepth() != 1 {
		t.Error("replay should leave the stack balanced")
	}
}

func TestCallListWhileRecording(t *testing.T) {
	ctx := newTestContext()

	ctx.NewList()
	drawTri(ctx, ccwTri...)
	inner := ctx.EndList()

	ctx.NewList()
	ctx.CallList(inner)
	outer := ctx.EndList()

	if outer.Len() != 1 {
		t.Errorf("outer list length = %d, want 1", outer.Len())
	}
	ctx.CallList(outer)
	if ctx.Stats().Triangles != 1 {
		t.Errorf("Triangles = %d, want 1", ctx.Stats().Triangles)
	}
}

func TestContextFrustumCulling(t *testing.T) {
	ctx := newTestContext()

	// Behind the camera
	drawTri(ctx, math3d.V3(-1, -1, 10), math3d.V3(1, -1, 10), math3d.V3(0, 1, 10))
	// Far off to the side
	drawTri(ctx, math3d.V3(99, -1, 0), math3d.V3(101, -1, 0), math3d.V3(100, 1, 0))

	stats := ctx.Stats()
	if stats.Culled != 2 || stats.Batches != 0 {
		t.Errorf("stats = %+v, want 2 culled and 0 drawn", stats)
	}
	if ctx.Framebuffer().CountNot(background) != 0 {
		t.Error("culled batches should not draw")
	}
}

// onlyColor reports whether every drawn pixel equals want.
func onlyColor(t *testing.T, fb *Framebuffer, want Color) {
	t.Helper()
	n := 0
	for _, p := range fb.Pixels {
		if p == background {
			continue
		}
		n++
		if p != want {
			t.Fatalf("pixel = %v, want %v", p, want)
		}
	}
	if n == 0 {
		t.Fatal("nothing drawn")
	}
}

func TestUnlitColorSource(t *testing.T) {
	t.Run("material diffuse without vertex color", func(t *testing.T) {
		ctx := newTestContext()
		ctx.Material(Diffuse, [4]float64{0, 1, 0, 1})
		drawTri(ctx, ccwTri...)
		onlyColor(t, ctx.Framebuffer(), ColorGreen)
	})

	t.Run("vertex color wins", func(t *testing.T) {
		ctx := newTestContext()
		ctx.Material(Diffuse, [4]float64{0, 1, 0, 1})
		ctx.Begin(Triangles)
		ctx.Color([4]float64{0, 0, 1, 1})
		for _, v := range ccwTri {
			ctx.Vertex(v)
		}
		ctx.End()
		onlyColor(t, ctx.Framebuffer(), ColorBlue)
	})

	t.Run("color does not leak past End", func(t *testing.T) {
		ctx := newTestContext()
		ctx.Begin(Points)
		ctx.Color([4]float64{0, 0, 1, 1})
		ctx.End()
		ctx.Material(Diffuse, [4]float64{1, 0, 0, 1})
		drawTri(ctx, ccwTri...)
		onlyColor(t, ctx.Framebuffer(), ColorRed)
	})
}

func TestLightingFacing(t *testing.T) {
	tests := []struct {
		name   string
		normal math3d.Vec3
		wantR  uint8
	}{
		{"facing the light", math3d.V3(0, 0, 1), 255},
		// Only the global ambient term: 0.2 * 0.2
		{"facing away", math3d.V3(0, 0, -1), 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := newTestContext()
			light := DefaultLight()
			light.Direction = math3d.V3(0, 0, 1)
			ctx.SetLight(light)
			ctx.Enable(Lighting)
			ctx.Material(Diffuse, [4]float64{1, 0, 0, 1})
			ctx.Material(Ambient, [4]float64{0.2, 0, 0, 1})

			ctx.Begin(Triangles)
			ctx.Normal(tc.normal)
			for _, v := range ccwTri {
				ctx.Vertex(v)
			}
			ctx.End()

			onlyColor(t, ctx.Framebuffer(), RGB(tc.wantR, 0, 0))
		})
	}
}

func TestLightingUsesNormalMatrix(t *testing.T) {
	ctx := newTestContext()
	light := DefaultLight()
	light.Direction = math3d.V3(0, 0, 1)
	ctx.SetLight(light)
	ctx.Enable(Lighting)
	ctx.Material(Diffuse, [4]float64{1, 0, 0, 1})
	ctx.Material(Ambient, [4]float64{0, 0, 0, 1})

	// The normal points down -Z in object space but the model matrix turns
	// it toward the light.
	ctx.MultMatrix(math3d.RotateY(math.Pi))
	ctx.Begin(Triangles)
	ctx.Normal(math3d.V3(0, 0, -1))
	for _, v := range cwTri {
		ctx.Vertex(v)
	}
	ctx.End()

	onlyColor(t, ctx.Framebuffer(), ColorRed)
}

func TestPolygonModes(t *testing.T) {
	quad := []math3d.Vec3{
		math3d.V3(-1, -1, 0), math3d.V3(1, -1, 0),
		math3d.V3(1, 1, 0), math3d.V3(-1, 1, 0),
	}

	tests := []struct {
		mode PolygonMode
		want Stats
	}{
		{PolygonFill, Stats{Batches: 1, Triangles: 2}},
		{PolygonLine, Stats{Batches: 1, Lines: 4}},
		{PolygonPoint, Stats{Batches: 1, Points: 4}},
	}

	for _, tc := range tests {
		t.Run(tc.mode.String(), func(t *testing.T) {
			ctx := newTestContext()
			ctx.PolygonMode(tc.mode)
			ctx.Begin(Polygon)
			for _, v := range quad {
				ctx.Vertex(v)
			}
			ctx.End()

			if got := ctx.Stats(); got != tc.want {
				t.Errorf("stats = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestPointsAndLinesIgnorePolygonMode(t *testing.T) {
	ctx := newTestContext()
	ctx.PolygonMode(PolygonPoint)

	ctx.Begin(Lines)
	ctx.Vertex(math3d.V3(-1, 0, 0))
	ctx.Vertex(math3d.V3(1, 0, 0))
	ctx.Vertex(math3d.V3(0, 1, 0)) // Unpaired, dropped
	ctx.End()

	if got := ctx.Stats(); got.Lines != 1 || got.Points != 0 {
		t.Errorf("stats = %+v, want one line", got)
	}
}

func TestVertexOutsideBeginIsIgnored(t *testing.T) {
	ctx := newTestContext()
	ctx.Vertex(math3d.V3(0, 0, 0))
	ctx.End()
	if ctx.Stats() != (Stats{}) {
		t.Errorf("stats = %+v, want zero", ctx.Stats())
	}
}

func TestOverlayRestoresLighting(t *testing.T) {
	ctx := newTestContext()
	ctx.Enable(Lighting)

	o := NewOverlay()
	o.DrawBounds(ctx, math3d.NewBox(math3d.V3(-1, -1, -1), math3d.V3(1, 1, 1)))
	o.DrawAxes(ctx, math3d.Zero3())

	if !ctx.IsEnabled(Lighting) {
		t.Error("overlay should restore lighting")
	}
	if got := ctx.Stats().Lines; got != 15 {
		t.Errorf("Lines = %d, want 15", got)
	}

	ctx.Clear(background)
	o.DrawBounds(ctx, math3d.EmptyBox())
	if ctx.Stats().Lines != 0 {
		t.Error("empty bounds should draw nothing")
	}
}

func TestCameraFrame(t *testing.T) {
	cam := NewCamera()
	cam.SetAspectRatio(0.5)
	box := math3d.NewBox(math3d.V3(9, 9, 9), math3d.V3(11, 13, 10))

	dist := cam.Frame(box)
	if dist <= 0 {
		t.Fatalf("Frame distance = %v, want > 0", dist)
	}
	frustum := cam.Frustum()
	for _, p := range box.Corners() {
		if !frustum.IntersectAABB(math3d.NewBox(p, p)) {
			t.Errorf("corner %v not visible after Frame", p)
		}
	}

	before := cam.Position
	cam.Frame(math3d.EmptyBox())
	if cam.Position != before {
		t.Error("framing an empty box should not move the camera")
	}
}

func BenchmarkContextTriangles(b *testing.B) {
	ctx := newTestContext()
	ctx.Enable(Lighting)

	for b.Loop() {
		ctx.Clear(background)
		ctx.Begin(Triangles)
		ctx.Normal(math3d.V3(0, 0, 1))
		for range 50 {
			for _, v := range ccwTri {
				ctx.Vertex(v)
			}
		}
		ctx.End()
	}
}

func BenchmarkCallList(b *testing.B) {
	ctx := newTestContext()
	ctx.NewList()
	for range 50 {
		drawTri(ctx, ccwTri...)
	}
	list := ctx.EndList()

	for b.Loop() {
		ctx.Clear(background)
		ctx.CallList(list)
	}
}
