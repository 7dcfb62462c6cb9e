// board/board.go
package board

import (
	"tinygo.org/x/drivers"
)

// -----------------------------------------------------------------------------
// Wiring plans
//
// A plan specifies wiring and operating parameters for one bus controller.
// The bring-up consumes plans; Board implementations own the silicon.
// -----------------------------------------------------------------------------

type I2CPlan struct {
	Bus int    // controller index, e.g. 0 for i2c0
	SCL int    // GPIO number
	SDA int    // GPIO number
	Hz  uint32 // bus frequency
}

type SPIPlan struct {
	Bus int    // controller index, e.g. 1 for spi1
	Hz  uint32 // 0 = controller default
}

// ---- GPIO abstractions ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

type GPIOPin interface {
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
	Toggle()
	Number() int
}

// Panel is the staged-framebuffer display surface the bring-up draws on.
// Fill and Text only touch the in-memory buffer; Show flushes it to the glass.
type Panel interface {
	Fill(on bool)
	Text(s string, x, y int16)
	Show() error
}

// Board abstracts one MCU's bus controllers, pins and attached panel so the
// same bring-up sequence runs on silicon and against host fakes.
//
// Each Configure* claims the controller exclusively for the process lifetime;
// there is no release path.
type Board interface {
	// ConfigureI2C claims an I²C controller and applies the plan.
	ConfigureI2C(p I2CPlan) (drivers.I2C, error)
	// ConfigureSPI claims a SPI controller and applies the plan.
	ConfigureSPI(p SPIPlan) (drivers.SPI, error)
	// Pin maps a logical GPIO number to a pin handle.
	Pin(n int) (GPIOPin, bool)
	// Display constructs the panel driver bound to an already-configured bus.
	Display(bus drivers.I2C, width, height int16) (Panel, error)
}
