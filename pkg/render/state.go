package render

import "github.com/taigrr/sceneview/pkg/math3d"

// Capability is a toggleable piece of Context state.
type Capability int

const (
	Lighting Capability = iota
	CullFace
	DepthTest
	numCapabilities
)

func (c Capability) String() string {
	switch c {
	case Lighting:
		return "lighting"
	case CullFace:
		return "cull_face"
	case DepthTest:
		return "depth_test"
	default:
		return "unknown"
	}
}

// Winding names the vertex order that makes a polygon front-facing.
type Winding int

const (
	CCW Winding = iota
	CW
)

// PolygonMode selects how triangles and polygons are rasterized.
type PolygonMode int

const (
	PolygonFill PolygonMode = iota
	PolygonLine
	PolygonPoint
)

func (m PolygonMode) String() string {
	switch m {
	case PolygonLine:
		return "line"
	case PolygonPoint:
		return "point"
	default:
		return "fill"
	}
}

// Primitive is the kind of batch started by Begin.
type Primitive int

const (
	Points    Primitive = iota // One vertex per point
	Lines                      // Two vertices per segment
	Triangles                  // Three vertices per triangle
	Polygon                    // All vertices form one convex polygon
)

func (p Primitive) String() string {
	switch p {
	case Points:
		return "points"
	case Lines:
		return "lines"
	case Triangles:
		return "triangles"
	default:
		return "polygon"
	}
}

// MaterialParam selects one color of the material state.
type MaterialParam int

const (
	Diffuse MaterialParam = iota
	Specular
	Ambient
	Emissive
)

// MaterialState is the surface description used by lighting.
type MaterialState struct {
	Diffuse   [4]float64
	Specular  [4]float64
	Ambient   [4]float64
	Emissive  [4]float64
	Shininess float64
}

// DefaultMaterial returns the material a fresh Context starts with.
func DefaultMaterial() MaterialState {
	return MaterialState{
		Diffuse:  [4]float64{0.8, 0.8, 0.8, 1},
		Specular: [4]float64{0, 0, 0, 1},
		Ambient:  [4]float64{0.2, 0.2, 0.2, 1},
		Emissive: [4]float64{0, 0, 0, 1},
	}
}

// Light is a single white directional light.
type Light struct {
	Direction     math3d.Vec3 // Points from the surface toward the light
	Diffuse       [4]float64
	Specular      [4]float64
	GlobalAmbient [4]float64
}

// DefaultLight returns a light above and in front of the origin.
func DefaultLight() Light {
	return Light{
		Direction:     math3d.V3(0.4, 0.6, 1).Normalize(),
		Diffuse:       [4]float64{1, 1, 1, 1},
		Specular:      [4]float64{1, 1, 1, 1},
		GlobalAmbient: [4]float64{0.2, 0.2, 0.2, 1},
	}
}

// Stats counts what the Context did since the last Clear.
type Stats struct {
	Batches   int // Begin/End pairs that reached the rasterizer
	Culled    int // Batches rejected by the frustum test
	BackFaces int // Triangles and polygons dropped by face culling
	Triangles int
	Lines     int
	Points    int
}
