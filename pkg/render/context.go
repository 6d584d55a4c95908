package render

import (
	"image/color"
	"math"

	"github.com/taigrr/sceneview/pkg/math3d"
)

// batchVertex is one Vertex call with the attributes current at the time.
type batchVertex struct {
	pos      math3d.Vec3
	normal   math3d.Vec3
	color    [4]float64
	hasColor bool
}

// Context is an immediate-mode graphics state machine over the software
// rasterizer. Geometry is issued between Begin and End; state calls made
// while a display list is being recorded are stored instead of executed.
//
// A Context is not safe for concurrent use.
type Context struct {
	fb     *Framebuffer
	raster *Rasterizer
	camera *Camera

	stack    []math3d.Mat4
	enabled  [numCapabilities]bool
	front    Winding
	mode     PolygonMode
	material MaterialState
	light    Light

	color    [4]float64
	hasColor bool
	normal   math3d.Vec3

	inBatch bool
	prim    Primitive
	batch   []batchVertex
	world   []math3d.Vec3
	proj    []projected

	rec *List

	frustum    Frustum
	frustumFor math3d.Mat4
	stats      Stats
}

// NewContext creates a context drawing into fb through camera. Depth
// testing starts enabled; lighting and face culling start disabled.
func NewContext(fb *Framebuffer, camera *Camera) *Context {
	c := &Context{
		fb:       fb,
		raster:   NewRasterizer(fb),
		camera:   camera,
		stack:    []math3d.Mat4{math3d.Identity()},
		material: DefaultMaterial(),
		light:    DefaultLight(),
		normal:   math3d.V3(0, 0, 1),
	}
	c.enabled[DepthTest] = true
	return c
}

// Framebuffer returns the render target.
func (c *Context) Framebuffer() *Framebuffer { return c.fb }

// Camera returns the camera used for projection.
func (c *Context) Camera() *Camera { return c.camera }

// Stats returns the counters accumulated since the last Clear.
func (c *Context) Stats() Stats { return c.stats }

// Resize changes the framebuffer size and the camera aspect ratio.
func (c *Context) Resize(width, height int) {
	c.fb.Resize(width, height)
	if width > 0 && height > 0 {
		c.camera.SetAspectRatio(float64(width) / float64(height))
	}
}

// Clear fills the color buffer with bg, resets depth and zeroes Stats.
func (c *Context) Clear(bg color.RGBA) {
	c.fb.Clear(bg)
	c.fb.ClearDepth()
	c.stats = Stats{}
}

// Light returns the current light.
func (c *Context) Light() Light { return c.light }

// SetLight replaces the light.
func (c *Context) SetLight(l Light) {
	l.Direction = l.Direction.Normalize()
	c.light = l
}

// IsEnabled reports whether cp is enabled.
func (c *Context) IsEnabled(cp Capability) bool {
	return c.enabled[cp]
}

// CurrentFrontFace returns the front-face winding.
func (c *Context) CurrentFrontFace() Winding { return c.front }

// ModelMatrix returns the matrix on top of the stack.
func (c *Context) ModelMatrix() math3d.Mat4 {
	return c.stack[len(c.stack)-1]
}

// MatrixDepth returns the number of matrices on the stack.
func (c *Context) MatrixDepth() int {
	return len(c.stack)
}

// PushMatrix duplicates the top of the matrix stack.
func (c *Context) PushMatrix() {
	if c.recording(func(c *Context) { c.PushMatrix() }) {
		return
	}
	c.stack = append(c.stack, c.ModelMatrix())
}

// PopMatrix discards the top of the matrix stack. The bottom matrix is
// never popped.
func (c *Context) PopMatrix() {
	if c.recording(func(c *Context) { c.PopMatrix() }) {
		return
	}
	if len(c.stack) > 1 {
		c.stack = c.stack[:len(c.stack)-1]
	}
}

// MultMatrix post-multiplies the top of the stack by m.
func (c *Context) MultMatrix(m math3d.Mat4) {
	if c.recording(func(c *Context) { c.MultMatrix(m) }) {
		return
	}
	top := len(c.stack) - 1
	c.stack[top] = c.stack[top].Mul(m)
}

// LoadIdentity replaces the top of the stack with the identity.
func (c *Context) LoadIdentity() {
	if c.recording(func(c *Context) { c.LoadIdentity() }) {
		return
	}
	c.stack[len(c.stack)-1] = math3d.Identity()
}

// Enable turns cp on.
func (c *Context) Enable(cp Capability) {
	if c.recording(func(c *Context) { c.Enable(cp) }) {
		return
	}
	c.setCap(cp, true)
}

// Disable turns cp off.
func (c *Context) Disable(cp Capability) {
	if c.recording(func(c *Context) { c.Disable(cp) }) {
		return
	}
	c.setCap(cp, false)
}

func (c *Context) setCap(cp Capability, on bool) {
	if cp < 0 || cp >= numCapabilities {
		return
	}
	c.enabled[cp] = on
	if cp == DepthTest {
		c.raster.DepthTest = on
	}
}

// FrontFace sets which winding is front-facing.
func (c *Context) FrontFace(w Winding) {
	if c.recording(func(c *Context) { c.FrontFace(w) }) {
		return
	}
	c.front = w
}

// PolygonMode sets how triangles and polygons are rasterized.
func (c *Context) PolygonMode(m PolygonMode) {
	if c.recording(func(c *Context) { c.PolygonMode(m) }) {
		return
	}
	c.mode = m
}

// Material sets one color of the material state.
func (c *Context) Material(p MaterialParam, v [4]float64) {
	if c.recording(func(c *Context) { c.Material(p, v) }) {
		return
	}
	switch p {
	case Diffuse:
		c.material.Diffuse = v
	case Specular:
		c.material.Specular = v
	case Ambient:
		c.material.Ambient = v
	case Emissive:
		c.material.Emissive = v
	}
}

// Shininess sets the specular exponent.
func (c *Context) Shininess(s float64) {
	if c.recording(func(c *Context) { c.Shininess(s) }) {
		return
	}
	c.material.Shininess = s
}

// Begin starts a batch of prim. An unfinished batch is discarded.
func (c *Context) Begin(prim Primitive) {
	if c.recording(func(c *Context) { c.Begin(prim) }) {
		return
	}
	c.inBatch = true
	c.prim = prim
	c.batch = c.batch[:0]
}

// Color sets the current vertex color. It holds until End.
func (c *Context) Color(col [4]float64) {
	if c.recording(func(c *Context) { c.Color(col) }) {
		return
	}
	c.color = col
	c.hasColor = true
}

// Normal sets the current normal.
func (c *Context) Normal(n math3d.Vec3) {
	if c.recording(func(c *Context) { c.Normal(n) }) {
		return
	}
	c.normal = n
}

// Vertex adds a vertex with the current normal and color to the batch.
// Outside Begin/End it is ignored.
func (c *Context) Vertex(v math3d.Vec3) {
	if c.recording(func(c *Context) { c.Vertex(v) }) {
		return
	}
	if !c.inBatch {
		return
	}
	c.batch = append(c.batch, batchVertex{
		pos:      v,
		normal:   c.normal,
		color:    c.color,
		hasColor: c.hasColor,
	})
}

// End draws the batch.
func (c *Context) End() {
	if c.recording(func(c *Context) { c.End() }) {
		return
	}
	if !c.inBatch {
		return
	}
	c.inBatch = false
	c.hasColor = false
	if len(c.batch) == 0 {
		return
	}
	c.flush()
}

// projected is a batch vertex in clip and screen space.
type projected struct {
	screen ScreenVertex
	ndcX   float64
	ndcY   float64
	behind bool
}

func (c *Context) flush() {
	model := c.ModelMatrix()
	viewProj := c.camera.ViewProjectionMatrix()

	world := grow(c.world, len(c.batch))
	c.world = world
	box := math3d.EmptyBox()
	for i, v := range c.batch {
		world[i] = model.MulVec3(v.pos)
		box = box.Extend(world[i])
	}
	if !c.viewFrustum(viewProj).IntersectAABB(box) {
		c.stats.Culled++
		return
	}
	c.stats.Batches++

	lit := c.enabled[Lighting]
	var normalMat math3d.Mat4
	if lit {
		normalMat = model.NormalMatrix()
	}

	w, h := float64(c.fb.Width), float64(c.fb.Height)
	pv := grow(c.proj, len(c.batch))
	c.proj = pv
	for i, v := range c.batch {
		clip := viewProj.MulVec4(math3d.V4FromV3(world[i], 1))
		p := &pv[i]
		*p = projected{}
		if clip.W <= 1e-9 {
			p.behind = true
			continue
		}
		ndc := clip.PerspectiveDivide()
		p.ndcX, p.ndcY = ndc.X, ndc.Y
		p.screen = ScreenVertex{
			X: (ndc.X + 1) * 0.5 * w,
			Y: (1 - ndc.Y) * 0.5 * h, // Y flipped
			Z: ndc.Z,
		}
		if lit {
			n := normalMat.MulVec3Dir(v.normal).Normalize()
			p.screen.Color = c.shade(world[i], n, v)
		} else {
			p.screen.Color = c.unlit(v)
		}
	}

	switch c.prim {
	case Points:
		for i := range pv {
			c.point(pv[i])
		}
	case Lines:
		for i := 0; i+1 < len(pv); i += 2 {
			c.line(pv[i], pv[i+1])
		}
	case Triangles:
		for i := 0; i+2 < len(pv); i += 3 {
			c.polygon(pv[i : i+3])
		}
	case Polygon:
		if len(pv) >= 3 {
			c.polygon(pv)
		}
	}
}

// grow returns s resized to n, reusing its backing array when possible.
func grow[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}

func (c *Context) viewFrustum(viewProj math3d.Mat4) Frustum {
	if viewProj != c.frustumFor || c.frustum == (Frustum{}) {
		c.frustum = NewFrustumFromMatrix(viewProj)
		c.frustumFor = viewProj
	}
	return c.frustum
}

func (c *Context) point(p projected) {
	if p.behind {
		return
	}
	c.raster.Point(p.screen)
	c.stats.Points++
}

func (c *Context) line(a, b projected) {
	if a.behind || b.behind {
		return
	}
	c.raster.Line(a.screen, b.screen)
	c.stats.Lines++
}

// polygon culls by winding and then rasterizes according to the polygon
// mode. Fill fans from the first vertex; line mode draws only the outline.
func (c *Context) polygon(pv []projected) {
	for _, p := range pv {
		if p.behind {
			return
		}
	}

	// Shoelace area in NDC, positive for counter-clockwise
	var area float64
	for i := range pv {
		j := (i + 1) % len(pv)
		area += pv[i].ndcX*pv[j].ndcY - pv[j].ndcX*pv[i].ndcY
	}
	front := area >= 0
	if c.front == CW {
		front = area <= 0
	}
	if !front && c.enabled[CullFace] {
		c.stats.BackFaces++
		return
	}

	switch c.mode {
	case PolygonLine:
		for i := range pv {
			c.line(pv[i], pv[(i+1)%len(pv)])
		}
	case PolygonPoint:
		for _, p := range pv {
			c.point(p)
		}
	default:
		for i := 1; i+1 < len(pv); i++ {
			c.raster.Triangle(pv[0].screen, pv[i].screen, pv[i+1].screen)
			c.stats.Triangles++
		}
	}
}

// unlit returns the vertex color, or the material diffuse without one.
func (c *Context) unlit(v batchVertex) [4]float64 {
	if v.hasColor {
		return v.color
	}
	return c.material.Diffuse
}

// shade evaluates Blinn-Phong for one vertex in world space. A vertex
// color stands in for the material's diffuse and ambient terms.
func (c *Context) shade(pos, n math3d.Vec3, v batchVertex) [4]float64 {
	m := c.material
	diffuse, ambient := m.Diffuse, m.Ambient
	if v.hasColor {
		diffuse, ambient = v.color, v.color
	}

	l := c.light.Direction
	ndotl := math.Max(0, n.Dot(l))

	var spec float64
	if ndotl > 0 {
		view := c.camera.Position.Sub(pos).Normalize()
		half := l.Add(view).Normalize()
		spec = math.Pow(math.Max(0, n.Dot(half)), m.Shininess)
	}

	var out [4]float64
	for k := range 3 {
		out[k] = m.Emissive[k] +
			c.light.GlobalAmbient[k]*ambient[k] +
			c.light.Diffuse[k]*diffuse[k]*ndotl +
			c.light.Specular[k]*m.Specular[k]*spec
		out[k] = math.Min(1, math.Max(0, out[k]))
	}
	out[3] = diffuse[3]
	return out
}
