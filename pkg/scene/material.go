package scene

import (
	"github.com/taigrr/sceneview/pkg/models"
	"github.com/taigrr/sceneview/pkg/render"
)

// Fallbacks for properties a material does not define.
var (
	DefaultDiffuse  = [4]float64{0.8, 0.8, 0.8, 1}
	DefaultSpecular = [4]float64{0, 0, 0, 1}
	DefaultAmbient  = [4]float64{0.2, 0.2, 0.2, 1}
	DefaultEmissive = [4]float64{0, 0, 0, 1}
)

// ApplyMaterial sets the graphics material, polygon mode and face culling
// from m. Every absent property falls back to its default; a nil material
// applies all defaults.
//
// Without a shininess the specular term is switched off entirely (shininess
// 0, specular fully transparent black). With one, an optional strength
// scales it.
func ApplyMaterial(g Graphics, m *models.Material) {
	specular := colorOr(m, models.KeySpecular, DefaultSpecular)
	shininess, ok := m.Float(models.KeyShininess)
	if ok {
		if strength, ok := m.Float(models.KeyShininessStrength); ok {
			shininess *= strength
		}
	} else {
		shininess = 0
		specular = [4]float64{}
	}

	g.Material(render.Diffuse, colorOr(m, models.KeyDiffuse, DefaultDiffuse))
	g.Material(render.Specular, specular)
	g.Material(render.Ambient, colorOr(m, models.KeyAmbient, DefaultAmbient))
	g.Material(render.Emissive, colorOr(m, models.KeyEmissive, DefaultEmissive))
	g.Shininess(shininess)

	if wire, _ := m.Bool(models.KeyWireframe); wire {
		g.PolygonMode(render.PolygonLine)
	} else {
		g.PolygonMode(render.PolygonFill)
	}

	if twoSided, _ := m.Bool(models.KeyTwoSided); twoSided {
		g.Disable(render.CullFace)
	} else {
		g.Enable(render.CullFace)
	}
}

func colorOr(m *models.Material, k models.Key, def [4]float64) [4]float64 {
	if c, ok := m.Color(k); ok {
		return c
	}
	return def
}
