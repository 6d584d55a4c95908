package viewer

import (
	"math"

	"github.com/taigrr/sceneview/pkg/math3d"
)

// LightFromScreen maps a cell position to a light direction on the
// hemisphere facing the camera. The screen center points straight at
// the model.
func LightFromScreen(x, y, width, height int) math3d.Vec3 {
	if width <= 0 || height <= 0 {
		return math3d.V3(0, 0, 1)
	}
	nx := (float64(x)/float64(width))*2 - 1
	ny := (float64(y)/float64(height))*2 - 1

	lenSq := nx*nx + ny*ny
	if lenSq > 1 {
		l := math.Sqrt(lenSq)
		nx /= l
		ny /= l
		lenSq = 1
	}
	nz := math.Sqrt(1 - lenSq)
	return math3d.V3(nx, -ny, nz).Normalize()
}

// BeginAimLight enters light positioning mode. Until CommitLight or
// CancelLight, AimLight moves the light live.
func (v *Viewer) BeginAimLight() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.aiming {
		return
	}
	v.aiming = true
	v.savedLight = v.ctx.Light().Direction
}

// AimLight points the light from a cell position while aiming.
func (v *Viewer) AimLight(x, y, width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.aiming {
		return
	}
	l := v.ctx.Light()
	l.Direction = LightFromScreen(x, y, width, height)
	v.ctx.SetLight(l)
}

// CommitLight keeps the aimed light and leaves aiming mode.
func (v *Viewer) CommitLight() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.aiming = false
}

// CancelLight restores the light from before aiming started.
func (v *Viewer) CancelLight() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.aiming {
		return
	}
	v.aiming = false
	l := v.ctx.Light()
	l.Direction = v.savedLight
	v.ctx.SetLight(l)
}

// AimingLight reports whether light positioning mode is active.
func (v *Viewer) AimingLight() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.aiming
}
