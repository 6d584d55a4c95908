package viewer

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

// RotationAxis tracks position and velocity for one rotation axis with
// spring decay.
type RotationAxis struct {
	Position  float64
	Velocity  float64
	velSpring harmonica.Spring
	velAccel  float64 // internal spring velocity (for animating Velocity toward 0)
}

// NewRotationAxis creates an axis whose velocity settles at 0.
func NewRotationAxis(fps int) RotationAxis {
	return RotationAxis{
		// Frequency 4.0 = moderate speed, damping 1.0 = critically damped (no overshoot)
		velSpring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Update applies velocity to position and decays velocity toward 0.
func (a *RotationAxis) Update() {
	a.Position += a.Velocity
	a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
}

// RotationState holds pitch, yaw and roll with spring physics.
type RotationState struct {
	Pitch, Yaw, Roll RotationAxis
	fps              int
}

// NewRotationState creates a resting rotation stepped at fps.
func NewRotationState(fps int) *RotationState {
	r := &RotationState{fps: max(fps, 1)}
	r.Reset()
	return r
}

// Update advances every axis by one frame.
func (r *RotationState) Update() {
	r.Pitch.Update()
	r.Yaw.Update()
	r.Roll.Update()
}

// ApplyImpulse adds to each axis' velocity.
func (r *RotationState) ApplyImpulse(pitch, yaw, roll float64) {
	r.Pitch.Velocity += pitch
	r.Yaw.Velocity += yaw
	r.Roll.Velocity += roll
}

// Reset returns every axis to rest at angle 0.
func (r *RotationState) Reset() {
	r.Pitch = NewRotationAxis(r.fps)
	r.Yaw = NewRotationAxis(r.fps)
	r.Roll = NewRotationAxis(r.fps)
}

// Moving reports whether any axis still has noticeable velocity.
func (r *RotationState) Moving() bool {
	const eps = 1e-4
	return math.Abs(r.Pitch.Velocity) > eps || math.Abs(r.Yaw.Velocity) > eps || math.Abs(r.Roll.Velocity) > eps
}
