package math3d

// Vec4 represents a homogeneous 3D point in clip space.
type Vec4 struct {
	X, Y, Z, W float64
}

// V4FromV3 creates a Vec4 from Vec3 with specified W.
func V4FromV3(v Vec3, w float64) Vec4 {
	return Vec4{v.X, v.Y, v.Z, w}
}

// PerspectiveDivide returns the normalized device coordinates of v.
// A zero W leaves the components undivided.
func (v Vec4) PerspectiveDivide() Vec3 {
	if v.W == 0 {
		return Vec3{v.X, v.Y, v.Z}
	}
	inv := 1 / v.W
	return Vec3{v.X * inv, v.Y * inv, v.Z * inv}
}
