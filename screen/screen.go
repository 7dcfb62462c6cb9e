// Package screen stages text on a monochrome framebuffer display.
// It wraps any drivers.Displayer (ssd1306 on hardware, a fake in tests):
// Fill and Text only touch the staged buffer; Show flushes it to the panel.
package screen

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

var (
	black = color.RGBA{0, 0, 0, 255}
	white = color.RGBA{255, 255, 255, 255}
)

// font baseline sits ~7px below the caller's top-left y.
const baseline = 7

// Screen draws text onto a pixel display.
type Screen struct {
	d    drivers.Displayer
	font tinyfont.Fonter
}

// New wraps a configured display. The display must already be initialised.
func New(d drivers.Displayer) *Screen {
	return &Screen{d: d, font: &proggy.TinySZ8pt7b}
}

// Fill paints every pixel of the staged buffer on or off.
func (s *Screen) Fill(on bool) {
	c := black
	if on {
		c = white
	}
	w, h := s.d.Size()
	for y := int16(0); y < h; y++ {
		for x := int16(0); x < w; x++ {
			s.d.SetPixel(x, y, c)
		}
	}
}

// Text stages one string with its top-left corner at (x, y).
func (s *Screen) Text(msg string, x, y int16) {
	tinyfont.WriteLine(s.d, s.font, x, y+baseline, msg, white)
}

// Show flushes the staged buffer to the panel.
func (s *Screen) Show() error {
	return s.d.Display()
}
