// platform/board_rp2xxx.go
//go:build rp2040 || rp2350

package platform

import (
	"machine"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/ssd1306"

	"radionode-go/board"
	"radionode-go/errcode"
	"radionode-go/screen"
)

// Default provides the real RP2 board.
func Default() board.Board { return &rp2Board{} }

const oledAddress = 0x3c

type rp2Board struct{}

func (rp2Board) ConfigureI2C(p board.I2CPlan) (drivers.I2C, error) {
	var hw *machine.I2C
	switch p.Bus {
	case 0:
		hw = machine.I2C0
	case 1:
		hw = machine.I2C1
	default:
		return nil, errcode.UnknownBus
	}
	if err := hw.Configure(machine.I2CConfig{
		Frequency: p.Hz,
		SCL:       machine.Pin(p.SCL),
		SDA:       machine.Pin(p.SDA),
	}); err != nil {
		return nil, err
	}
	return hw, nil
}

func (rp2Board) ConfigureSPI(p board.SPIPlan) (drivers.SPI, error) {
	var hw *machine.SPI
	switch p.Bus {
	case 0:
		hw = machine.SPI0
	case 1:
		hw = machine.SPI1
	default:
		return nil, errcode.UnknownBus
	}
	hz := p.Hz
	if hz == 0 {
		hz = 4 * machine.MHz
	}
	// Board-default SCK/SDO/SDI pins apply.
	if err := hw.Configure(machine.SPIConfig{Frequency: hz}); err != nil {
		return nil, err
	}
	return hw, nil
}

func (rp2Board) Pin(n int) (board.GPIOPin, bool) {
	// RP2 user GPIOs are GP0..GP28.
	if n < 0 || n > 28 {
		return nil, false
	}
	return &rp2Pin{p: machine.Pin(n), n: n}, true
}

func (rp2Board) Display(bus drivers.I2C, width, height int16) (board.Panel, error) {
	dev := ssd1306.NewI2C(bus)
	dev.Configure(ssd1306.Config{
		Address: oledAddress,
		Width:   width,
		Height:  height,
	})
	dev.ClearDisplay()
	return screen.New(&dev), nil
}

// ---- GPIO handle ----

type rp2Pin struct {
	p machine.Pin
	n int
}

func (r *rp2Pin) ConfigureInput(pull board.Pull) error {
	var mode machine.PinMode
	switch pull {
	case board.PullUp:
		mode = machine.PinInputPullup
	case board.PullDown:
		mode = machine.PinInputPulldown
	default:
		mode = machine.PinInput
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (r *rp2Pin) ConfigureOutput(initial bool) error {
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	r.p.Set(initial)
	return nil
}

func (r *rp2Pin) Set(level bool) { r.p.Set(level) }
func (r *rp2Pin) Get() bool      { return r.p.Get() }

func (r *rp2Pin) Toggle() {
	if r.p.Get() {
		r.p.Low()
	} else {
		r.p.High()
	}
}

func (r *rp2Pin) Number() int { return r.n }
