// Package math3d provides the vector, matrix and bounding-box math used by
// the importer, the scene traversals and the rasterizer.
package math3d

import "math"

// Vec3 represents a 3D vector.
type Vec3 struct {
	X, Y, Z float64
}

// V3 creates a new Vec3.
func V3(x, y, z float64) Vec3 {
	return Vec3{x, y, z}
}

// Zero3 returns the zero vector.
func Zero3() Vec3 {
	return Vec3{}
}

// Add returns the vector sum a + b.
func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

// Sub returns the vector difference a - b.
func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

// Scale returns the scalar product a * s.
func (a Vec3) Scale(s float64) Vec3 {
	return Vec3{a.X * s, a.Y * s, a.Z * s}
}

// Dot returns the dot product a · b.
func (a Vec3) Dot(b Vec3) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

// Cross returns the cross product a × b.
func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

// Len returns the length (magnitude) of the vector.
func (a Vec3) Len() float64 {
	return math.Sqrt(a.X*a.X + a.Y*a.Y + a.Z*a.Z)
}

// Normalize returns the unit vector in the same direction.
func (a Vec3) Normalize() Vec3 {
	l := a.Len()
	if l == 0 {
		return Vec3{}
	}
	return Vec3{a.X / l, a.Y / l, a.Z / l}
}

// Negate returns the negated vector.
func (a Vec3) Negate() Vec3 {
	return Vec3{-a.X, -a.Y, -a.Z}
}

// Min returns the component-wise minimum.
func (a Vec3) Min(b Vec3) Vec3 {
	return Vec3{
		math.Min(a.X, b.X),
		math.Min(a.Y, b.Y),
		math.Min(a.Z, b.Z),
	}
}

// Max returns the component-wise maximum.
func (a Vec3) Max(b Vec3) Vec3 {
	return Vec3{
		math.Max(a.X, b.X),
		math.Max(a.Y, b.Y),
		math.Max(a.Z, b.Z),
	}
}


// MaxComponent returns the largest of X, Y and Z.
func (a Vec3) MaxComponent() float64 {
	return math.Max(a.X, math.Max(a.Y, a.Z))
}

// Vec2 represents a 2D vector, used for texture coordinates.
type Vec2 struct {
	X, Y float64
}

// V2 creates a new Vec2.
func V2(x, y float64) Vec2 {
	return Vec2{x, y}
}

// Sub returns the vector difference a - b.
func (a Vec2) Sub(b Vec2) Vec2 {
	return Vec2{a.X - b.X, a.Y - b.Y}
}
