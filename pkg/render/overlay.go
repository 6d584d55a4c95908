package render

import (
	"github.com/taigrr/sceneview/pkg/math3d"
)

// boxEdges indexes math3d.Box.Corners pairwise.
var boxEdges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0}, // Near face
	{4, 5}, {5, 6}, {6, 7}, {7, 4}, // Far face
	{0, 4}, {1, 5}, {2, 6}, {3, 7}, // Connecting edges
}

// Overlay draws debug geometry through a Context with lighting off. The
// caller's lighting state is restored afterwards.
type Overlay struct {
	BoundsColor [4]float64
	AxisLength  float64
}

// NewOverlay creates an overlay with a grey bounds box and unit axes.
func NewOverlay() *Overlay {
	return &Overlay{
		BoundsColor: [4]float64{0.6, 0.6, 0.6, 1},
		AxisLength:  1,
	}
}

// DrawBounds draws the twelve edges of b. An empty box draws nothing.
func (o *Overlay) DrawBounds(c *Context, b math3d.Box) {
	if b.Empty() {
		return
	}
	defer o.unlit(c)()

	corners := b.Corners()
	c.Begin(Lines)
	c.Color(o.BoundsColor)
	for _, e := range boxEdges {
		c.Vertex(corners[e[0]])
		c.Vertex(corners[e[1]])
	}
	c.End()
}

// DrawAxes draws X, Y and Z in red, green and blue from origin.
func (o *Overlay) DrawAxes(c *Context, origin math3d.Vec3) {
	defer o.unlit(c)()

	axes := [3]struct {
		dir   math3d.Vec3
		color [4]float64
	}{
		{math3d.V3(1, 0, 0), ToFloat(ColorRed)},
		{math3d.V3(0, 1, 0), ToFloat(ColorGreen)},
		{math3d.V3(0, 0, 1), ToFloat(ColorBlue)},
	}
	for _, a := range axes {
		c.Begin(Lines)
		c.Color(a.color)
		c.Vertex(origin)
		c.Vertex(origin.Add(a.dir.Scale(o.AxisLength)))
		c.End()
	}
}

// unlit disables lighting and returns a func restoring the prior state.
func (o *Overlay) unlit(c *Context) func() {
	was := c.IsEnabled(Lighting)
	c.Disable(Lighting)
	return func() {
		if was {
			c.Enable(Lighting)
		}
	}
}
