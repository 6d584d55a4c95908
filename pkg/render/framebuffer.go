// Package render is the software graphics context behind the viewer: a
// framebuffer with depth, a perspective camera, a scanline rasterizer and
// an immediate-mode Context with a matrix stack, lighting and display
// lists.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
)

// Framebuffer is a 2D array of pixels with a matching depth buffer.
// We use double vertical resolution by using half-block characters (▀▄).
type Framebuffer struct {
	Width  int          // Width in "pixels" (same as terminal columns)
	Height int          // Height in "pixels" (2x terminal rows due to half-blocks)
	Pixels []color.RGBA // Row-major pixel data
	Depth  []float64    // Row-major depth, smaller is closer
}

// NewFramebuffer creates a new framebuffer with the given dimensions.
// Height should be 2x the desired terminal rows for half-block rendering.
func NewFramebuffer(width, height int) *Framebuffer {
	fb := &Framebuffer{}
	fb.Resize(width, height)
	return fb
}

// Resize reallocates the pixel and depth buffers. Contents are discarded.
func (fb *Framebuffer) Resize(width, height int) {
	fb.Width = max(width, 0)
	fb.Height = max(height, 0)
	fb.Pixels = make([]color.RGBA, fb.Width*fb.Height)
	fb.Depth = make([]float64, fb.Width*fb.Height)
	fb.ClearDepth()
}

// Clear fills the framebuffer with a solid color.
func (fb *Framebuffer) Clear(c color.RGBA) {
	for i := range fb.Pixels {
		fb.Pixels[i] = c
	}
}

// ClearDepth resets every depth sample to the far limit.
func (fb *Framebuffer) ClearDepth() {
	// Use copy-doubling for faster clearing
	n := len(fb.Depth)
	if n == 0 {
		return
	}
	fb.Depth[0] = math.MaxFloat64
	for i := 1; i < n; i *= 2 {
		copy(fb.Depth[i:], fb.Depth[:i])
	}
}

// GetPixel returns the color at (x, y).
// Returns transparent black if out of bounds.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return color.RGBA{}
	}
	return fb.Pixels[y*fb.Width+x]
}

// DepthAt returns the depth at (x, y), or the far limit if out of bounds.
func (fb *Framebuffer) DepthAt(x, y int) float64 {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return math.MaxFloat64
	}
	return fb.Depth[y*fb.Width+x]
}

// Plot writes c at (x, y). With test set the write only happens when z is
// closer than the stored depth, and the depth is updated.
func (fb *Framebuffer) Plot(x, y int, z float64, c color.RGBA, test bool) bool {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return false
	}
	i := y*fb.Width + x
	if test {
		if z >= fb.Depth[i] {
			return false
		}
		fb.Depth[i] = z
	}
	fb.Pixels[i] = c
	return true
}

// CountNot returns how many pixels differ from c. Handy for tests and for
// deciding whether a frame drew anything.
func (fb *Framebuffer) CountNot(c color.RGBA) int {
	n := 0
	for _, p := range fb.Pixels {
		if p != c {
			n++
		}
	}
	return n
}

// ToImage converts the framebuffer to a standard Go image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			img.SetRGBA(x, y, fb.Pixels[y*fb.Width+x])
		}
	}
	return img
}

// SavePNG saves the framebuffer as a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, fb.ToImage()); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
