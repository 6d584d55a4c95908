package scene

import (
	"github.com/taigrr/sceneview/pkg/models"
	"github.com/taigrr/sceneview/pkg/render"
)

// Renderer emits a node tree through a Graphics surface.
type Renderer struct {
	// Wireframe forces line fill after each material is applied.
	Wireframe bool
}

// RenderScene draws the whole scene.
func (r *Renderer) RenderScene(g Graphics, s *models.Scene) {
	if s == nil {
		return
	}
	r.Render(g, s.Root, s.Materials, s.Meshes)
}

// Render draws n and its descendants. The node's local transform is
// applied inside a matrix push that is popped on return.
func (r *Renderer) Render(g Graphics, n *models.Node, materials []*models.Material, meshes []*models.Mesh) {
	if n == nil {
		return
	}
	g.PushMatrix()
	defer g.PopMatrix()

	g.MultMatrix(n.Transform)

	for _, mi := range n.Meshes {
		if mi < 0 || mi >= len(meshes) {
			continue
		}
		r.drawMesh(g, meshes[mi], materials)
	}
	for _, c := range n.Children {
		r.Render(g, c, materials, meshes)
	}
}

func (r *Renderer) drawMesh(g Graphics, m *models.Mesh, materials []*models.Material) {
	var mat *models.Material
	if m.Material >= 0 && m.Material < len(materials) {
		mat = materials[m.Material]
	}
	ApplyMaterial(g, mat)
	if r.Wireframe {
		g.PolygonMode(render.PolygonLine)
	}

	hasNormals := m.HasNormals()
	hasColors := m.HasColors()
	if hasNormals {
		g.Enable(render.Lighting)
	} else {
		g.Disable(render.Lighting)
	}

	for _, f := range m.Faces {
		g.Begin(PrimitiveFor(f))
		for _, idx := range f.Indices {
			if hasColors {
				g.Color(m.Colors[idx])
			}
			if hasNormals {
				g.Normal(m.Normals[idx])
			}
			g.Vertex(m.Positions[idx])
		}
		g.End()
	}
}

// PrimitiveFor maps a face's index count to the primitive that draws it.
func PrimitiveFor(f models.Face) render.Primitive {
	switch f.Type() {
	case models.PrimitivePoint:
		return render.Points
	case models.PrimitiveLine:
		return render.Lines
	case models.PrimitiveTriangle:
		return render.Triangles
	default:
		return render.Polygon
	}
}
