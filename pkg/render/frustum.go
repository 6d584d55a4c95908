package render

import (
	"github.com/taigrr/sceneview/pkg/math3d"
)

// Plane represents a plane in 3D space using the equation: Ax + By + Cz + D = 0
// where (A, B, C) is the normal and D is the distance from origin.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

// Normalize normalizes the plane equation so the normal has unit length.
func (p *Plane) Normalize() {
	len := p.Normal.Len()
	if len == 0 {
		return
	}
	p.Normal = p.Normal.Scale(1.0 / len)
	p.D /= len
}

// DistanceToPoint returns the signed distance from the plane to a point.
// Positive = in front (same side as normal), negative = behind.
func (p Plane) DistanceToPoint(point math3d.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// Frustum represents the 6 planes of a view frustum.
// Planes are ordered: Left, Right, Bottom, Top, Near, Far.
// Each plane's normal points inward (toward the center of the frustum).
type Frustum struct {
	Planes [6]Plane
}

// FrustumPlane indices for clarity.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// NewFrustumFromMatrix extracts frustum planes from a view-projection matrix.
// Uses the Gribb/Hartmann method for extracting planes from the combined matrix.
// The resulting planes have normals pointing inward.
func NewFrustumFromMatrix(m math3d.Mat4) Frustum {
	var f Frustum

	// Extract rows of the matrix for plane extraction.
	// For column-major matrix m, row i element j is at m[i + j*4].
	// Row 0: m[0], m[4], m[8], m[12]
	// Row 1: m[1], m[5], m[9], m[13]
	// Row 2: m[2], m[6], m[10], m[14]
	// Row 3: m[3], m[7], m[11], m[15]

	// Left plane: row3 + row0
	f.Planes[FrustumLeft] = Plane{
		Normal: math3d.V3(m[3]+m[0], m[7]+m[4], m[11]+m[8]),
		D:      m[15] + m[12],
	}

	// Right plane: row3 - row0
	f.Planes[FrustumRight] = Plane{
		Normal: math3d.V3(m[3]-m[0], m[7]-m[4], m[11]-m[8]),
		D:      m[15] - m[12],
	}

	// Bottom plane: row3 + row1
	f.Planes[FrustumBottom] = Plane{
		Normal: math3d.V3(m[3]+m[1], m[7]+m[5], m[11]+m[9]),
		D:      m[15] + m[13],
	}

	// Top plane: row3 - row1
	f.Planes[FrustumTop] = Plane{
		Normal: math3d.V3(m[3]-m[1], m[7]-m[5], m[11]-m[9]),
		D:      m[15] - m[13],
	}

	// Near plane: row3 + row2
	f.Planes[FrustumNear] = Plane{
		Normal: math3d.V3(m[3]+m[2], m[7]+m[6], m[11]+m[10]),
		D:      m[15] + m[14],
	}

	// Far plane: row3 - row2
	f.Planes[FrustumFar] = Plane{
		Normal: math3d.V3(m[3]-m[2], m[7]-m[6], m[11]-m[10]),
		D:      m[15] - m[14],
	}

	// Normalize all planes
	for i := range f.Planes {
		f.Planes[i].Normalize()
	}

	return f
}

// IntersectAABB tests if box intersects or is inside the frustum.
// Returns true if any part of the box may be visible. An empty box is
// never visible.
// Uses the "positive vertex" optimization for faster rejection.
func (f Frustum) IntersectAABB(box math3d.Box) bool {
	if box.Empty() {
		return false
	}
	for i := range f.Planes {
		plane := f.Planes[i]

		// Find the "positive vertex" - the corner of the AABB furthest in the direction of the plane normal.
		// This is the corner that would be outside if the entire box is outside.
		pVertex := math3d.V3(
			selectComponent(plane.Normal.X >= 0, box.Max.X, box.Min.X),
			selectComponent(plane.Normal.Y >= 0, box.Max.Y, box.Min.Y),
			selectComponent(plane.Normal.Z >= 0, box.Max.Z, box.Min.Z),
		)

		// If the positive vertex is outside this plane, the entire box is outside the frustum
		if plane.DistanceToPoint(pVertex) < 0 {
			return false
		}
	}

	// The box is at least partially inside all planes
	return true
}

// selectComponent is a branchless conditional selection helper.
func selectComponent(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}
