// platform/board_host.go
//go:build !rp2040 && !rp2350

package platform

import (
	"fmt"
	"sync"

	"tinygo.org/x/drivers"

	"radionode-go/board"
)

// Default provides the host board: inert recording peripherals, enough to run
// the firmware loop and to verify bring-up ordering in tests.
func Default() board.Board { return NewSimBoard() }

// ErrSim is returned by injected step failures.
type simError string

func (e simError) Error() string { return string(e) }

const ErrSim = simError("simulated fault")

// ----------------------------- SimBoard --------------------------------------

// SimBoard implements board.Board for host builds. Every hardware call is
// journalled in order with its arguments, so tests can assert the exact
// bring-up sequence. Set FailAt to a journal op name to make that step fail.
type SimBoard struct {
	mu      sync.Mutex
	journal []string
	FailAt  string

	lastI2C drivers.I2C
	SPI     *SimSPI // populated by ConfigureSPI
	DeadSPI bool    // hand out a dead SPI part (never latches writes)
	pins    map[int]*SimPin
	MaxPin  int // highest valid GPIO number, default 28
}

func NewSimBoard() *SimBoard {
	return &SimBoard{pins: map[int]*SimPin{}, MaxPin: 28}
}

// Journal returns a copy of the ordered hardware-call journal.
func (b *SimBoard) Journal() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.journal...)
}

func (b *SimBoard) log(format string, args ...any) {
	b.mu.Lock()
	b.journal = append(b.journal, fmt.Sprintf(format, args...))
	b.mu.Unlock()
}

func (b *SimBoard) failing(op string) bool { return b.FailAt == op }

func (b *SimBoard) ConfigureI2C(p board.I2CPlan) (drivers.I2C, error) {
	if b.failing("i2c_configure") {
		return nil, ErrSim
	}
	b.log("i2c_configure bus=%d scl=%d sda=%d hz=%d", p.Bus, p.SCL, p.SDA, p.Hz)
	i2c := &SimI2C{}
	b.lastI2C = i2c
	return i2c, nil
}

func (b *SimBoard) ConfigureSPI(p board.SPIPlan) (drivers.SPI, error) {
	if b.failing("spi_configure") {
		return nil, ErrSim
	}
	b.log("spi_configure bus=%d hz=%d", p.Bus, p.Hz)
	b.SPI = NewSimSPI()
	b.SPI.Dead = b.DeadSPI
	return b.SPI, nil
}

func (b *SimBoard) Pin(n int) (board.GPIOPin, bool) {
	if n < 0 || n > b.MaxPin {
		return nil, false
	}
	b.mu.Lock()
	p, ok := b.pins[n]
	if !ok {
		p = &SimPin{number: n, brd: b}
		b.pins[n] = p
	}
	b.mu.Unlock()
	return p, true
}

func (b *SimBoard) Display(bus drivers.I2C, width, height int16) (board.Panel, error) {
	if b.failing("display_new") {
		return nil, ErrSim
	}
	b.log("display_new w=%d h=%d samebus=%v", width, height, bus == b.lastI2C)
	return &SimPanel{brd: b}, nil
}

// ----------------------------- I²C (host) ------------------------------------

// SimI2C implements tinygo drivers.I2C for host-side tests.
type SimI2C struct {
	mu     sync.Mutex
	LastTx struct {
		Addr uint16
		W    []byte
		Rn   int
	}
}

func (h *SimI2C) Tx(addr uint16, w, r []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.LastTx.Addr = addr
	h.LastTx.W = append([]byte(nil), w...)
	h.LastTx.Rn = len(r)
	return nil
}

// ----------------------------- SPI (host) ------------------------------------

// SimSPI implements drivers.SPI as a minimal nRF24L01-shaped slave: register
// writes latch, reads return the latched value, and the first byte clocked
// out is always STATUS. Payload and flush commands are counted so tests can
// prove no air traffic happened.
type SimSPI struct {
	mu         sync.Mutex
	regs       [0x1e]byte
	Dead       bool // a dead part never latches writes and reads zero
	PayloadOps int  // W_TX_PAYLOAD / R_RX_PAYLOAD commands seen
}

func NewSimSPI() *SimSPI { return &SimSPI{} }

func (s *SimSPI) Tx(w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Dead {
		for i := range r {
			r[i] = 0
		}
		return nil
	}
	if len(w) == 0 {
		return nil
	}
	if len(r) > 0 {
		r[0] = s.regs[0x07] // STATUS
	}
	cmd := w[0]
	switch {
	case cmd == 0xff: // NOP
	case cmd == 0xe1 || cmd == 0xe2: // FLUSH_TX / FLUSH_RX
	case cmd == 0xa0 || cmd == 0x61: // W_TX_PAYLOAD / R_RX_PAYLOAD
		s.PayloadOps++
	case cmd&0xe0 == 0x20: // W_REGISTER
		s.regs[cmd&0x1f] = w[1]
	default: // R_REGISTER
		if len(r) > 1 {
			r[1] = s.regs[cmd&0x1f]
		}
	}
	return nil
}

func (s *SimSPI) Transfer(b byte) (byte, error) {
	var r [1]byte
	err := s.Tx([]byte{b}, r[:])
	return r[0], err
}

// Reg returns the latched value of a register.
func (s *SimSPI) Reg(reg byte) byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[reg&0x1f]
}

// ----------------------------- GPIO (host) -----------------------------------

// SimPin implements board.GPIOPin and journals configuration on the board.
type SimPin struct {
	mu      sync.Mutex
	number  int
	level   bool
	modeOut bool
	brd     *SimBoard
}

func (p *SimPin) ConfigureInput(_ board.Pull) error {
	p.mu.Lock()
	p.modeOut = false
	p.mu.Unlock()
	p.brd.log("pin_input n=%d", p.number)
	return nil
}

func (p *SimPin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.modeOut = true
	p.level = initial
	p.mu.Unlock()
	p.brd.log("pin_output n=%d initial=%v", p.number, initial)
	return nil
}

func (p *SimPin) Set(level bool) {
	p.mu.Lock()
	p.level = level
	p.mu.Unlock()
}

func (p *SimPin) Get() bool {
	p.mu.Lock()
	v := p.level
	p.mu.Unlock()
	return v
}

func (p *SimPin) Toggle() { p.Set(!p.Get()) }

func (p *SimPin) Number() int { return p.number }

// ----------------------------- Panel (host) ----------------------------------

// SimPanel journals the staged-draw calls on the owning board.
type SimPanel struct {
	brd *SimBoard
}

func (p *SimPanel) Fill(on bool) {
	p.brd.log("fill on=%v", on)
}

func (p *SimPanel) Text(s string, x, y int16) {
	p.brd.log("text x=%d y=%d s=%s", x, y, s)
}

func (p *SimPanel) Show() error {
	if p.brd.failing("show") {
		return ErrSim
	}
	p.brd.log("show")
	return nil
}
