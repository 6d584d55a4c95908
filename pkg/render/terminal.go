package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// Draw converts the framebuffer to terminal cells and draws them on the
// screen. The framebuffer height should be 2x the terminal height.
func (fb *Framebuffer) Draw(scr uv.Screen, area uv.Rectangle) {
	// Each terminal row represents 2 framebuffer rows
	// We use ▀ (upper half block) with fg=top color and bg=bottom color

	for row := area.Min.Y; row < area.Max.Y; row++ {
		topY := (row - area.Min.Y) * 2
		botY := topY + 1

		for col := area.Min.X; col < area.Max.X && col-area.Min.X < fb.Width; col++ {
			x := col - area.Min.X
			cell := &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: rgbaToColor(fb.GetPixel(x, topY)),
					Bg: rgbaToColor(fb.GetPixel(x, botY)),
				},
			}
			scr.SetCell(col, row, cell)
		}
	}
}

// rgbaToColor converts color.RGBA to Go's color.Color interface.
func rgbaToColor(c color.RGBA) color.Color {
	if c.A == 0 {
		return nil // Transparent = no color
	}
	return c
}

// Color is an alias for color.RGBA for convenience.
type Color = color.RGBA

// Colors for convenience
var (
	ColorBlack = color.RGBA{0, 0, 0, 255}
	ColorWhite = color.RGBA{255, 255, 255, 255}
	ColorRed   = color.RGBA{255, 0, 0, 255}
	ColorGreen = color.RGBA{0, 255, 0, 255}
	ColorBlue  = color.RGBA{0, 0, 255, 255}
	ColorGray  = color.RGBA{128, 128, 128, 255}
)

// RGB creates a color from RGB values.
func RGB(r, g, b uint8) color.RGBA {
	return color.RGBA{r, g, b, 255}
}

// FromFloat converts an RGBA color in the 0-1 range, clamping each
// channel. The result is always opaque; the framebuffer does not blend.
func FromFloat(c [4]float64) color.RGBA {
	return color.RGBA{unit8(c[0]), unit8(c[1]), unit8(c[2]), 255}
}

// ToFloat converts c to the 0-1 range.
func ToFloat(c color.RGBA) [4]float64 {
	return [4]float64{
		float64(c.R) / 255,
		float64(c.G) / 255,
		float64(c.B) / 255,
		float64(c.A) / 255,
	}
}

func unit8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
