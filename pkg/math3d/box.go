package math3d

import "math"

// Box is an axis-aligned bounding box. The zero-geometry box returned by
// EmptyBox has Min at +Inf and Max at -Inf so that extending it by any
// point yields exactly that point.
type Box struct {
	Min Vec3
	Max Vec3
}

// EmptyBox returns an inverted box that contains nothing.
func EmptyBox() Box {
	inf := math.Inf(1)
	return Box{
		Min: V3(inf, inf, inf),
		Max: V3(-inf, -inf, -inf),
	}
}

// NewBox creates a box from min and max corners.
func NewBox(min, max Vec3) Box {
	return Box{Min: min, Max: max}
}

// Empty reports whether the box is inverted on any axis.
func (b Box) Empty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Extend returns the smallest box containing b and p.
func (b Box) Extend(p Vec3) Box {
	return Box{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Union returns the smallest box containing both boxes.
func (b Box) Union(o Box) Box {
	return Box{Min: b.Min.Min(o.Min), Max: b.Max.Max(o.Max)}
}

// Center returns the center of the box.
func (b Box) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the dimensions of the box.
func (b Box) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Radius returns half the diagonal length.
func (b Box) Radius() float64 {
	return b.Size().Len() / 2
}

// Corners returns the eight corners of the box.
func (b Box) Corners() [8]Vec3 {
	return [8]Vec3{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z},
	}
}

// Transform returns a box that bounds all eight corners of b after
// transformation by m. An empty box stays empty.
func (b Box) Transform(m Mat4) Box {
	if b.Empty() {
		return b
	}
	out := EmptyBox()
	for _, c := range b.Corners() {
		out = out.Extend(m.MulVec3(c))
	}
	return out
}

// ContainsPoint returns true if the point is inside the box.
func (b Box) ContainsPoint(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}
