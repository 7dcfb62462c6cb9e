package nrf24l01

import (
	"testing"
)

// simSPI emulates the nRF24L01 SPI slave: a register file plus FIFO flags.
// Every transaction clocks STATUS out as the first byte.
type simSPI struct {
	regs   [0x1e]byte
	writes []struct {
		reg byte
		val byte
	}
	commands []byte
	rxFIFO   [][]byte
	txFIFO   [][]byte
}

func newSimSPI() *simSPI {
	s := &simSPI{}
	s.regs[regFIFO] = fifoRxEmpty
	return s
}

func (s *simSPI) Tx(w, r []byte) error {
	if len(w) == 0 {
		return nil
	}
	if r != nil {
		r[0] = s.regs[regStatus]
	}
	cmd := w[0]
	switch {
	case cmd == cmdNOP:
	case cmd == cmdFlushTx:
		s.commands = append(s.commands, cmd)
		s.txFIFO = nil
	case cmd == cmdFlushRx:
		s.commands = append(s.commands, cmd)
		s.rxFIFO = nil
		s.regs[regFIFO] |= fifoRxEmpty
	case cmd == cmdRxPayload:
		s.commands = append(s.commands, cmd)
		if len(s.rxFIFO) > 0 {
			copy(r[1:], s.rxFIFO[0])
			s.rxFIFO = s.rxFIFO[1:]
		}
		if len(s.rxFIFO) == 0 {
			s.regs[regFIFO] |= fifoRxEmpty
		}
	case cmd == cmdTxPayload:
		s.commands = append(s.commands, cmd)
		p := append([]byte(nil), w[1:]...)
		s.txFIFO = append(s.txFIFO, p)
		// Auto-ack world: the packet leaves immediately.
		s.regs[regStatus] |= statTxDS
	case cmd&0xe0 == cmdWriteReg:
		reg := cmd & 0x1f
		val := w[1]
		if reg == regStatus {
			// Write-one-to-clear flags.
			s.regs[regStatus] &^= val
		} else {
			s.regs[reg] = val
		}
		s.writes = append(s.writes, struct {
			reg byte
			val byte
		}{reg, val})
	default: // register read
		reg := cmd & 0x1f
		if len(r) > 1 {
			r[1] = s.regs[reg]
		}
	}
	return nil
}

func (s *simSPI) Transfer(b byte) (byte, error) {
	var r [1]byte
	err := s.Tx([]byte{b}, r[:])
	return r[0], err
}

// queueRX loads one payload into the simulated RX FIFO.
func (s *simSPI) queueRX(p []byte) {
	s.rxFIFO = append(s.rxFIFO, append([]byte(nil), p...))
	s.regs[regFIFO] &^= fifoRxEmpty
}

// regValue returns the last value written to a register, or ok=false.
func (s *simSPI) regValue(reg byte) (byte, bool) {
	for i := len(s.writes) - 1; i >= 0; i-- {
		if s.writes[i].reg == reg {
			return s.writes[i].val, true
		}
	}
	return 0, false
}

// fakePin journals level changes.
type fakePin struct {
	level   bool
	history []bool
}

func (p *fakePin) Set(level bool) {
	p.level = level
	p.history = append(p.history, level)
}

func newDevice() (*Device, *simSPI, *fakePin, *fakePin) {
	spi := newSimSPI()
	csn := &fakePin{level: true}
	ce := &fakePin{}
	d := New(spi, csn, ce)
	return &d, spi, csn, ce
}

func TestConfigure_WritesRadioParameters(t *testing.T) {
	d, spi, _, ce := newDevice()

	err := d.Configure(Config{Channel: 7, PayloadSize: 32})
	if err != nil {
		t.Fatalf("configure: %v", err)
	}

	if v, ok := spi.regValue(regRFChannel); !ok || v != 7 {
		t.Fatalf("RF_CH = %d (ok=%v), want 7", v, ok)
	}
	if v, ok := spi.regValue(regRxPwP0); !ok || v != 32 {
		t.Fatalf("RX_PW_P0 = %d (ok=%v), want 32", v, ok)
	}
	if v, _ := spi.regValue(regSetupAW); v != 0x03 {
		t.Fatalf("SETUP_AW = %#x, want 0x03", v)
	}
	if v, _ := spi.regValue(regRFSetup); v != Power0dBm|Speed250K {
		t.Fatalf("RF_SETUP = %#x, want %#x", v, Power0dBm|Speed250K)
	}
	if ce.level {
		t.Fatal("CE must stay low after Configure")
	}
	if d.Channel() != 7 || d.PayloadSize() != 32 {
		t.Fatalf("Channel/PayloadSize = %d/%d", d.Channel(), d.PayloadSize())
	}

	// Configure alone must not move any payload.
	for _, c := range spi.commands {
		if c == cmdTxPayload || c == cmdRxPayload {
			t.Fatalf("configure issued payload command %#x", c)
		}
	}
}

func TestConfigure_ClampsChannelAndPayload(t *testing.T) {
	d, spi, _, _ := newDevice()

	if err := d.Configure(Config{Channel: 200, PayloadSize: 64}); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if v, _ := spi.regValue(regRFChannel); v != MaxChannel {
		t.Fatalf("RF_CH = %d, want %d", v, MaxChannel)
	}
	if v, _ := spi.regValue(regRxPwP0); v != MaxPayloadSize {
		t.Fatalf("RX_PW_P0 = %d, want %d", v, MaxPayloadSize)
	}
}

func TestConfigure_DetectsMissingHardware(t *testing.T) {
	// A dead bus never latches writes, so the SETUP_AW read-back fails.
	d := New(deadSPI{}, &fakePin{level: true}, &fakePin{})
	if err := d.Configure(Config{Channel: 7, PayloadSize: 32}); err != ErrNotResponding {
		t.Fatalf("err = %v, want ErrNotResponding", err)
	}
}

// deadSPI acknowledges transactions but always reads zero.
type deadSPI struct{}

func (deadSPI) Tx(w, r []byte) error {
	for i := range r {
		r[i] = 0
	}
	return nil
}
func (deadSPI) Transfer(b byte) (byte, error) { return 0, nil }

func TestSendAndReceive(t *testing.T) {
	d, spi, csn, _ := newDevice()
	if err := d.Configure(Config{Channel: 7, PayloadSize: 4}); err != nil {
		t.Fatalf("configure: %v", err)
	}

	if err := d.Send([]byte{1, 2}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(spi.txFIFO) != 1 {
		t.Fatalf("tx fifo len = %d", len(spi.txFIFO))
	}
	// Padded to the fixed payload size.
	if got := spi.txFIFO[0]; len(got) != 4 || got[0] != 1 || got[1] != 2 || got[2] != 0 {
		t.Fatalf("tx payload = %v", got)
	}
	if !csn.level {
		t.Fatal("CSN must idle high")
	}

	if err := d.StartListening(); err != nil {
		t.Fatalf("start listening: %v", err)
	}
	spi.queueRX([]byte{9, 8, 7, 6})

	ok, err := d.Any()
	if err != nil || !ok {
		t.Fatalf("Any = %v, %v", ok, err)
	}
	var p [4]byte
	if err := d.ReceiveInto(p[:]); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if p != [4]byte{9, 8, 7, 6} {
		t.Fatalf("payload = %v", p)
	}
}

func TestReceiveInto_EmptyFIFO(t *testing.T) {
	d, _, _, _ := newDevice()
	if err := d.Configure(Config{Channel: 7, PayloadSize: 4}); err != nil {
		t.Fatalf("configure: %v", err)
	}
	var p [4]byte
	if err := d.ReceiveInto(p[:]); err != ErrRxEmpty {
		t.Fatalf("err = %v, want ErrRxEmpty", err)
	}
}
