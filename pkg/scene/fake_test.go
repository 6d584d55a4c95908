package scene

import (
	"fmt"

	"github.com/taigrr/sceneview/pkg/math3d"
	"github.com/taigrr/sceneview/pkg/render"
)

// recorder is a Graphics that logs every call and tracks the state a
// real context would hold.
type recorder struct {
	calls []string

	depth    int
	maxDepth int
	matrices []math3d.Mat4 // Stack contents, top last

	material  render.MaterialState
	mode      render.PolygonMode
	enabled   map[render.Capability]bool
	primitive []render.Primitive
}

func newRecorder() *recorder {
	return &recorder{
		matrices: []math3d.Mat4{math3d.Identity()},
		enabled:  make(map[render.Capability]bool),
	}
}

func (r *recorder) log(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) PushMatrix() {
	r.log("push")
	r.depth++
	r.maxDepth = max(r.maxDepth, r.depth)
	r.matrices = append(r.matrices, r.matrices[len(r.matrices)-1])
}

func (r *recorder) PopMatrix() {
	r.log("pop")
	r.depth--
	r.matrices = r.matrices[:len(r.matrices)-1]
}

func (r *recorder) MultMatrix(m math3d.Mat4) {
	r.log("mult")
	top := len(r.matrices) - 1
	r.matrices[top] = r.matrices[top].Mul(m)
}

func (r *recorder) Enable(c render.Capability) {
	r.log("enable %s", c)
	r.enabled[c] = true
}

func (r *recorder) Disable(c render.Capability) {
	r.log("disable %s", c)
	r.enabled[c] = false
}

func (r *recorder) PolygonMode(m render.PolygonMode) {
	r.log("mode %s", m)
	r.mode = m
}

func (r *recorder) Material(p render.MaterialParam, v [4]float64) {
	r.log("material %d", p)
	switch p {
	case render.Diffuse:
		r.material.Diffuse = v
	case render.Specular:
		r.material.Specular = v
	case render.Ambient:
		r.material.Ambient = v
	case render.Emissive:
		r.material.Emissive = v
	}
}

func (r *recorder) Shininess(s float64) {
	r.log("shininess")
	r.material.Shininess = s
}

func (r *recorder) Begin(p render.Primitive) {
	r.log("begin %s", p)
	r.primitive = append(r.primitive, p)
}

func (r *recorder) Color(c [4]float64)   { r.log("color") }
func (r *recorder) Normal(n math3d.Vec3) { r.log("normal") }
func (r *recorder) Vertex(v math3d.Vec3) { r.log("vertex") }
func (r *recorder) End()                 { r.log("end") }

var _ Graphics = (*recorder)(nil)
