// Package scene walks an imported scene graph: it computes the world-space
// bounding box, maps material properties to graphics state and emits every
// mesh through an immediate-mode Graphics surface.
package scene

import (
	"github.com/taigrr/sceneview/pkg/math3d"
	"github.com/taigrr/sceneview/pkg/render"
)

// Graphics is the immediate-mode surface the traversals draw through.
// *render.Context implements it.
type Graphics interface {
	PushMatrix()
	PopMatrix()
	MultMatrix(m math3d.Mat4)

	Enable(c render.Capability)
	Disable(c render.Capability)
	PolygonMode(m render.PolygonMode)
	Material(p render.MaterialParam, v [4]float64)
	Shininess(s float64)

	Begin(p render.Primitive)
	Color(c [4]float64)
	Normal(n math3d.Vec3)
	Vertex(v math3d.Vec3)
	End()
}

var _ Graphics = (*render.Context)(nil)
