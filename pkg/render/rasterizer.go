package render

import (
	"math"
)

// ScreenVertex is a vertex after projection: pixel coordinates, NDC depth
// and a shaded color in the 0-1 range.
type ScreenVertex struct {
	X, Y  float64
	Z     float64
	Color [4]float64
}

// Rasterizer fills triangles, lines and points into a framebuffer. It knows
// nothing about winding or culling; the Context decides what reaches it.
type Rasterizer struct {
	fb *Framebuffer

	// DepthTest enables the z-buffer comparison on every write.
	DepthTest bool
}

// NewRasterizer creates a depth-testing rasterizer for fb.
func NewRasterizer(fb *Framebuffer) *Rasterizer {
	return &Rasterizer{fb: fb, DepthTest: true}
}

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Height
}

// edgeCoeffs returns A, B, C for the edge function A*x + B*y + C.
// Positive = left of edge, negative = right of edge, zero = on edge.
func edgeCoeffs(x0, y0, x1, y1 float64) (A, B, C float64) {
	A = y0 - y1 // dy
	B = x1 - x0 // -dx
	C = x0*y1 - x1*y0
	return
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}

// Triangle fills a Gouraud-shaded triangle using edge functions with
// incremental updates. Either winding is accepted.
func (r *Rasterizer) Triangle(v0, v1, v2 ScreenVertex) {
	if r.fb == nil {
		return
	}
	sv := [3]ScreenVertex{v0, v1, v2}

	area2 := (sv[1].X-sv[0].X)*(sv[2].Y-sv[0].Y) - (sv[1].Y-sv[0].Y)*(sv[2].X-sv[0].X)
	if area2 == 0 {
		return
	}
	if area2 < 0 {
		sv[1], sv[2] = sv[2], sv[1]
		area2 = -area2
	}
	invArea := 1.0 / area2

	// Bounding box (clamped to screen)
	minX := int(math.Max(0, math.Floor(min3(sv[0].X, sv[1].X, sv[2].X))))
	maxX := int(math.Min(float64(r.Width()-1), math.Ceil(max3(sv[0].X, sv[1].X, sv[2].X))))
	minY := int(math.Max(0, math.Floor(min3(sv[0].Y, sv[1].Y, sv[2].Y))))
	maxY := int(math.Min(float64(r.Height()-1), math.Ceil(max3(sv[0].Y, sv[1].Y, sv[2].Y))))
	if minX > maxX || minY > maxY {
		return
	}

	// Edge 0: v1 -> v2, Edge 1: v2 -> v0, Edge 2: v0 -> v1
	A0, B0, C0 := edgeCoeffs(sv[1].X, sv[1].Y, sv[2].X, sv[2].Y)
	A1, B1, C1 := edgeCoeffs(sv[2].X, sv[2].Y, sv[0].X, sv[0].Y)
	A2, B2, C2 := edgeCoeffs(sv[0].X, sv[0].Y, sv[1].X, sv[1].Y)

	// Evaluate edge functions at the first pixel center
	px := float64(minX) + 0.5
	py := float64(minY) + 0.5
	w0Row := A0*px + B0*py + C0
	w1Row := A1*px + B1*py + C1
	w2Row := A2*px + B2*py + C2

	for y := minY; y <= maxY; y++ {
		w0, w1, w2 := w0Row, w1Row, w2Row

		for x := minX; x <= maxX; x++ {
			if w0 >= 0 && w1 >= 0 && w2 >= 0 {
				bc0 := w0 * invArea
				bc1 := w1 * invArea
				bc2 := w2 * invArea

				z := bc0*sv[0].Z + bc1*sv[1].Z + bc2*sv[2].Z
				var c [4]float64
				for k := range c {
					c[k] = bc0*sv[0].Color[k] + bc1*sv[1].Color[k] + bc2*sv[2].Color[k]
				}
				r.fb.Plot(x, y, z, FromFloat(c), r.DepthTest)
			}

			w0 += A0
			w1 += A1
			w2 += A2
		}

		w0Row += B0
		w1Row += B1
		w2Row += B2
	}
}

// Line draws a segment with depth and color interpolated along it.
func (r *Rasterizer) Line(a, b ScreenVertex) {
	if r.fb == nil {
		return
	}
	dx := b.X - a.X
	dy := b.Y - a.Y
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))

	// Guard against runaway lines from vertices projected near W=0
	limit := 4 * (r.Width() + r.Height())
	if steps > limit {
		steps = limit
	}
	if steps == 0 {
		r.Point(a)
		return
	}

	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		var c [4]float64
		for k := range c {
			c[k] = a.Color[k] + (b.Color[k]-a.Color[k])*t
		}
		x := int(math.Floor(a.X + dx*t))
		y := int(math.Floor(a.Y + dy*t))
		// Nudge lines slightly forward so edges drawn over their own
		// filled faces win the depth test.
		z := a.Z + (b.Z-a.Z)*t - 1e-4
		r.fb.Plot(x, y, z, FromFloat(c), r.DepthTest)
	}
}

// Point draws a single pixel.
func (r *Rasterizer) Point(v ScreenVertex) {
	if r.fb == nil {
		return
	}
	r.fb.Plot(int(math.Floor(v.X)), int(math.Floor(v.Y)), v.Z-1e-4, FromFloat(v.Color), r.DepthTest)
}
