package render

import (
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func sv(x, y, z float64, c [4]float64) ScreenVertex {
	return ScreenVertex{X: x, Y: y, Z: z, Color: c}
}

var (
	red  = [4]float64{1, 0, 0, 1}
	blue = [4]float64{0, 0, 1, 1}
)

func TestMin3Max3(t *testing.T) {
	if min3(1, 2, 3) != 1 || min3(3, 1, 2) != 1 || min3(2, 3, 1) != 1 {
		t.Error("min3 failed")
	}
	if max3(1, 2, 3) != 3 || max3(3, 1, 2) != 3 || max3(2, 3, 1) != 3 {
		t.Error("max3 failed")
	}
}

func TestFramebufferSavePNG(t *testing.T) {
	fb := NewFramebuffer(4, 3)
	fb.Clear(ColorBlack)
	fb.Plot(2, 1, 0, ColorRed, false)

	path := filepath.Join(t.TempDir(), "frame.png")
	if err := fb.SavePNG(path); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Errorf("bounds = %v, want 4x3", b)
	}
	r, g, _, _ := img.At(2, 1).RGBA()
	if r>>8 != 255 || g != 0 {
		t.Errorf("pixel (2,1) = %v, want red", img.At(2, 1))
	}

	if err := fb.SavePNG(filepath.Join(t.TempDir(), "missing", "frame.png")); err == nil {
		t.Error("SavePNG into a missing directory should fail")
	}
}

func TestFramebufferClearDepth(t *testing.T) {
	fb := NewFramebuffer(10, 10)

	if !fb.Plot(5, 5, 1.0, ColorRed, true) {
		t.Fatal("first plot should pass the depth test")
	}
	if fb.DepthAt(5, 5) != 1.0 {
		t.Errorf("DepthAt = %v, want 1.0", fb.DepthAt(5, 5))
	}

	fb.ClearDepth()
	if fb.DepthAt(5, 5) != math.MaxFloat64 {
		t.Error("ClearDepth should reset to MaxFloat64")
	}
}

func TestFramebufferBoundsCheck(t *testing.T) {
	fb := NewFramebuffer(10, 10)

	// Out of bounds should return MaxFloat64 and not panic
	if fb.DepthAt(-1, 0) != math.MaxFloat64 {
		t.Error("Out of bounds DepthAt should return MaxFloat64")
	}
	if fb.DepthAt(100, 0) != math.MaxFloat64 {
		t.Error("Out of bounds DepthAt should return MaxFloat64")
	}
	if fb.Plot(-1, 0, 0, ColorRed, true) || fb.Plot(100, 0, 0, ColorRed, false) {
		t.Error("Out of bounds Plot should report false")
	}
}

func TestFramebufferResize(t *testing.T) {
	fb := NewFramebuffer(4, 4)
	fb.Resize(8, 6)

	if len(fb.Pixels) != 48 || len(fb.Depth) != 48 {
		t.Fatalf("buffers = %d/%d, want 48", len(fb.Pixels), len(fb.Depth))
	}
	if fb.DepthAt(7, 5) != math.MaxFloat64 {
		t.Error("resized depth should start cleared")
	}
}

func TestTriangleWindingIndependent(t *testing.T) {
	tests := []struct {
		name       string
		v0, v1, v2 ScreenVertex
	}{
		{"clockwise on screen", sv(2, 2, 0, red), sv(17, 2, 0, red), sv(2, 17, 0, red)},
		{"counter-clockwise on screen", sv(2, 2, 0, red), sv(2, 17, 0, red), sv(17, 2, 0, red)},
	}

	var counts []int
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fb := NewFramebuffer(20, 20)
			NewRasterizer(fb).Triangle(tc.v0, tc.v1, tc.v2)
			n := fb.CountNot(color0)
			if n == 0 {
				t.Fatal("triangle drew no pixels")
			}
			counts = append(counts, n)
		})
	}
	if len(counts) == 2 && counts[0] != counts[1] {
		t.Errorf("pixel counts differ by winding: %v", counts)
	}
}

var color0 = Color{}

func TestTriangleDegenerate(t *testing.T) {
	fb := NewFramebuffer(20, 20)
	NewRasterizer(fb).Triangle(sv(1, 1, 0, red), sv(5, 5, 0, red), sv(9, 9, 0, red))
	if n := fb.CountNot(color0); n != 0 {
		t.Errorf("degenerate triangle drew %d pixels", n)
	}
}

func TestTriangleGouraudInterpolation(t *testing.T) {
	fb := NewFramebuffer(40, 40)
	r := NewRasterizer(fb)
	r.Triangle(sv(0, 0, 0, red), sv(40, 0, 0, blue), sv(0, 40, 0, red))

	left := fb.GetPixel(1, 1)
	right := fb.GetPixel(36, 1)
	if left.R <= left.B {
		t.Errorf("pixel near red vertex = %v, want mostly red", left)
	}
	if right.B <= right.R {
		t.Errorf("pixel near blue vertex = %v, want mostly blue", right)
	}
}

func TestTriangleDepthTest(t *testing.T) {
	tests := []struct {
		name      string
		depthTest bool
		want      Color
	}{
		{"nearer first triangle wins", true, ColorRed},
		{"later triangle wins without depth test", false, ColorBlue},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fb := NewFramebuffer(20, 20)
			r := NewRasterizer(fb)
			r.DepthTest = tc.depthTest

			r.Triangle(sv(0, 0, 0.1, red), sv(20, 0, 0.1, red), sv(0, 20, 0.1, red))
			r.Triangle(sv(0, 0, 0.5, blue), sv(20, 0, 0.5, blue), sv(0, 20, 0.5, blue))

			if got := fb.GetPixel(3, 3); got != tc.want {
				t.Errorf("pixel = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestLineEndpoints(t *testing.T) {
	fb := NewFramebuffer(20, 20)
	NewRasterizer(fb).Line(sv(2.5, 3.5, 0, red), sv(15.5, 9.5, 0, red))

	if fb.GetPixel(2, 3) != ColorRed {
		t.Error("line start not drawn")
	}
	if fb.GetPixel(15, 9) != ColorRed {
		t.Error("line end not drawn")
	}
	if n := fb.CountNot(color0); n != 14 {
		t.Errorf("line drew %d pixels, want 14", n)
	}
}

func TestLineOverFilledFace(t *testing.T) {
	fb := NewFramebuffer(20, 20)
	r := NewRasterizer(fb)
	r.Triangle(sv(0, 0, 0.3, red), sv(20, 0, 0.3, red), sv(0, 20, 0.3, red))
	r.Line(sv(0.5, 0.5, 0.3, blue), sv(10.5, 0.5, 0.3, blue))

	if got := fb.GetPixel(5, 0); got != ColorBlue {
		t.Errorf("edge at equal depth = %v, want the line color", got)
	}
}

func TestPoint(t *testing.T) {
	fb := NewFramebuffer(5, 5)
	NewRasterizer(fb).Point(sv(2.2, 3.9, 0, blue))
	if fb.GetPixel(2, 3) != ColorBlue {
		t.Error("point not drawn at floor of its coordinates")
	}
}

func TestFromFloatClamps(t *testing.T) {
	got := FromFloat([4]float64{-1, 0.5, 2, 0})
	want := Color{R: 0, G: 128, B: 255, A: 255}
	if got != want {
		t.Errorf("FromFloat = %v, want %v", got, want)
	}
}

func BenchmarkTriangle(b *testing.B) {
	fb := NewFramebuffer(200, 100)
	r := NewRasterizer(fb)

	for b.Loop() {
		fb.ClearDepth()
		r.Triangle(sv(10, 10, 0, red), sv(190, 20, 0, blue), sv(100, 90, 0, red))
	}
}

func BenchmarkLine(b *testing.B) {
	fb := NewFramebuffer(200, 100)
	r := NewRasterizer(fb)

	for b.Loop() {
		r.Line(sv(0, 0, 0, red), sv(199, 99, 0, blue))
	}
}
