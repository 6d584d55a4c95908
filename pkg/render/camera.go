package render

import (
	"math"

	"github.com/taigrr/sceneview/pkg/math3d"
)

// Camera represents a 3D camera with position and orientation.
type Camera struct {
	// Position in world space
	Position math3d.Vec3

	// Orientation (Euler angles in radians)
	Pitch float64 // Rotation around X axis (look up/down)
	Yaw   float64 // Rotation around Y axis (look left/right)
	Roll  float64 // Rotation around Z axis (tilt)

	// Projection parameters
	FOV         float64 // Vertical field of view in radians
	AspectRatio float64 // Width / Height
	Near        float64 // Near clipping plane
	Far         float64 // Far clipping plane

	// Cached matrices (computed on demand)
	viewMatrix     math3d.Mat4
	projMatrix     math3d.Mat4
	viewProjMatrix math3d.Mat4
	viewDirty      bool
	projDirty      bool
	viewProjDirty  bool
}

// NewCamera creates a camera at (0, 0, 3) looking down -Z.
func NewCamera() *Camera {
	return &Camera{
		Position:      math3d.V3(0, 0, 3),
		FOV:           math.Pi / 3, // 60 degrees
		AspectRatio:   16.0 / 9.0,
		Near:          0.1,
		Far:           1000,
		viewDirty:     true,
		projDirty:     true,
		viewProjDirty: true,
	}
}

// SetPosition sets the camera position.
func (c *Camera) SetPosition(pos math3d.Vec3) {
	c.Position = pos
	c.invalidateView()
}

// SetRotation sets the camera rotation (pitch, yaw, roll in radians).
func (c *Camera) SetRotation(pitch, yaw, roll float64) {
	c.Pitch = pitch
	c.Yaw = yaw
	c.Roll = roll
	c.invalidateView()
}

// SetFOV sets the field of view (in radians).
func (c *Camera) SetFOV(fov float64) {
	c.FOV = fov
	c.invalidateProj()
}

// SetAspectRatio sets the aspect ratio.
func (c *Camera) SetAspectRatio(aspect float64) {
	c.AspectRatio = aspect
	c.invalidateProj()
}

// SetClipPlanes sets the near and far clipping planes.
func (c *Camera) SetClipPlanes(near, far float64) {
	c.Near = near
	c.Far = far
	c.invalidateProj()
}

func (c *Camera) invalidateView() {
	c.viewDirty = true
	c.viewProjDirty = true
}

func (c *Camera) invalidateProj() {
	c.projDirty = true
	c.viewProjDirty = true
}

// ViewMatrix returns the view matrix.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	if c.viewDirty {
		c.computeViewMatrix()
		c.viewDirty = false
	}
	return c.viewMatrix
}

// ProjectionMatrix returns the projection matrix.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	if c.projDirty {
		c.projMatrix = math3d.Perspective(c.FOV, c.AspectRatio, c.Near, c.Far)
		c.projDirty = false
	}
	return c.projMatrix
}

// ViewProjectionMatrix returns the combined view-projection matrix.
func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	if c.viewProjDirty {
		c.viewProjMatrix = c.ProjectionMatrix().Mul(c.ViewMatrix())
		c.viewProjDirty = false
	}
	return c.viewProjMatrix
}

// Frustum returns the current view frustum.
func (c *Camera) Frustum() Frustum {
	return NewFrustumFromMatrix(c.ViewProjectionMatrix())
}

func (c *Camera) computeViewMatrix() {
	// View = Rotation * Translation(-position)
	rot := math3d.RotateZ(-c.Roll).Mul(
		math3d.RotateX(-c.Pitch)).Mul(
		math3d.RotateY(-c.Yaw))

	trans := math3d.Translate(c.Position.Negate())

	c.viewMatrix = rot.Mul(trans)
}

// LookAt makes the camera look at a target point.
func (c *Camera) LookAt(target math3d.Vec3) {
	dir := target.Sub(c.Position).Normalize()

	c.Pitch = math.Asin(dir.Y)
	c.Yaw = math.Atan2(-dir.X, -dir.Z)
	c.Roll = 0

	c.invalidateView()
}

// Frame moves the camera onto the +Z side of b, far enough that b's
// bounding sphere fits the narrower field of view, and tightens the clip
// planes around it. It returns the distance from the camera to the center.
// An empty box leaves the camera unchanged.
func (c *Camera) Frame(b math3d.Box) float64 {
	if b.Empty() {
		return 0
	}
	center := b.Center()
	radius := b.Radius()
	if radius == 0 {
		radius = 1
	}

	fov := c.FOV
	if c.AspectRatio > 0 && c.AspectRatio < 1 {
		fov = 2 * math.Atan(math.Tan(fov/2)*c.AspectRatio)
	}
	dist := radius / math.Sin(fov/2)

	c.Position = center.Add(math3d.V3(0, 0, dist))
	c.LookAt(center)
	c.SetClipPlanes(math.Max(dist-radius, dist*0.01)*0.5, dist+radius*2)
	return dist
}
