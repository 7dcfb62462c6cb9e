// Package nrf24l01 provides a driver for the Nordic nRF24L01+ 2.4 GHz
// transceiver on a SPI bus, with discrete CSN (chip-select, active low) and
// CE (chip-enable) control lines.
//
// Construction only binds the wires; Configure performs the register
// initialisation (address width, retries, RF power/rate, CRC, channel,
// fixed payload size) and verifies the part is responding. Air traffic is
// explicit: nothing is transmitted or received until Send or ReceiveInto
// is called.
//
// NOTE: SPI.Tx MUST be full duplex when both w and r are provided; the
// status register is clocked out on every transaction.
package nrf24l01

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"

	"radionode-go/x/mathx"
)

// Registers.
const (
	regConfig    = 0x00
	regSetupAW   = 0x03
	regSetupRetr = 0x04
	regRFChannel = 0x05
	regRFSetup   = 0x06
	regStatus    = 0x07
	regRxAddrP0  = 0x0a
	regTxAddr    = 0x10
	regRxPwP0    = 0x11
	regFIFO      = 0x17
	regDynPD     = 0x1c
)

// CONFIG bits.
const (
	cfgEnCRC  = 0x08
	cfgCRCO   = 0x04
	cfgPwrUp  = 0x02
	cfgPrimRX = 0x01
)

// STATUS bits.
const (
	statRxDR  = 0x40
	statTxDS  = 0x20
	statMaxRT = 0x10
)

// FIFO_STATUS bits.
const fifoRxEmpty = 0x01

// Commands.
const (
	cmdReadReg    = 0x00
	cmdWriteReg   = 0x20
	cmdRxPayload  = 0x61
	cmdTxPayload  = 0xa0
	cmdFlushTx    = 0xe1
	cmdFlushRx    = 0xe2
	cmdNOP        = 0xff
)

// RF_SETUP fields.
const (
	PowerMinus18dBm = 0x00
	PowerMinus12dBm = 0x02
	PowerMinus6dBm  = 0x04
	Power0dBm       = 0x06

	Speed1M   = 0x00
	Speed2M   = 0x08
	Speed250K = 0x20
)

// Channel and payload limits of the part.
const (
	MaxChannel     = 125
	MaxPayloadSize = 32
)

// Errors returned by the driver.
var (
	ErrNotResponding = errors.New("nrf24l01: hardware not responding")
	ErrTimeout       = errors.New("nrf24l01: timeout")
	ErrMaxRetries    = errors.New("nrf24l01: max retransmits")
	ErrPayloadSize   = errors.New("nrf24l01: bad payload size")
	ErrRxEmpty       = errors.New("nrf24l01: rx fifo empty")
)

// OutputPin is the control-line subset the driver needs.
type OutputPin interface {
	Set(level bool)
}

// Config holds the radio parameters applied by Configure.
type Config struct {
	// Channel selects the RF channel (2400 MHz + n). Clamped to 0..125.
	Channel uint8
	// PayloadSize is the fixed packet size in bytes. Clamped to 1..32.
	PayloadSize uint8
	// Power defaults to Power0dBm if zero-valued fields are all unset.
	Power uint8
	// Speed defaults to Speed250K.
	Speed uint8
	// SendTimeout bounds Send's wait for TX_DS. Default 60 ms.
	SendTimeout time.Duration
}

// Device wraps a SPI connection plus CSN/CE lines to one nRF24L01+.
type Device struct {
	bus drivers.SPI
	csn OutputPin
	ce  OutputPin

	cfg         Config
	payloadSize uint8

	buf [33]byte // command + one full payload
	rx  [33]byte
}

// New creates a connection to the transceiver. The SPI bus must already be
// configured, CSN driven high and CE driven low. This function only creates
// the Device object; it does not touch the part.
func New(bus drivers.SPI, csn, ce OutputPin) Device {
	return Device{bus: bus, csn: csn, ce: ce}
}

// Configure initialises the part and applies the radio parameters.
// It fails fast: the first SPI error or a failed read-back aborts.
func (d *Device) Configure(cfg Config) error {
	if cfg.Power == 0 {
		cfg.Power = Power0dBm
	}
	if cfg.Speed == 0 {
		cfg.Speed = Speed250K
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 60 * time.Millisecond
	}
	cfg.Channel = mathx.Clamp(cfg.Channel, 0, MaxChannel)
	cfg.PayloadSize = mathx.Clamp(cfg.PayloadSize, 1, MaxPayloadSize)
	d.cfg = cfg
	d.payloadSize = cfg.PayloadSize

	d.ce.Set(false)
	d.csn.Set(true)
	time.Sleep(5 * time.Millisecond) // power-on reset settle

	// 5-byte addresses; read back to confirm the part is wired and alive.
	if _, err := d.regWrite(regSetupAW, 0x03); err != nil {
		return err
	}
	aw, err := d.regRead(regSetupAW)
	if err != nil {
		return err
	}
	if aw != 0x03 {
		return ErrNotResponding
	}

	// 8 retries at 1750 us.
	if _, err := d.regWrite(regSetupRetr, (6<<4)|8); err != nil {
		return err
	}
	if _, err := d.regWrite(regRFSetup, cfg.Power|cfg.Speed); err != nil {
		return err
	}
	// 2-byte CRC, powered down until StartListening/Send.
	if _, err := d.regWrite(regConfig, cfgEnCRC|cfgCRCO); err != nil {
		return err
	}
	if _, err := d.regWrite(regDynPD, 0); err != nil {
		return err
	}
	if _, err := d.regWrite(regRFChannel, cfg.Channel); err != nil {
		return err
	}
	if _, err := d.regWrite(regRxPwP0, cfg.PayloadSize); err != nil {
		return err
	}
	if _, err := d.command(cmdFlushRx); err != nil {
		return err
	}
	if _, err := d.command(cmdFlushTx); err != nil {
		return err
	}
	// Clear stale IRQ flags.
	_, err = d.regWrite(regStatus, statRxDR|statTxDS|statMaxRT)
	return err
}

// Channel returns the configured RF channel.
func (d *Device) Channel() uint8 { return d.cfg.Channel }

// PayloadSize returns the fixed payload size in bytes.
func (d *Device) PayloadSize() uint8 { return d.payloadSize }

// StartListening powers the receiver up and raises CE.
func (d *Device) StartListening() error {
	if _, err := d.regWrite(regConfig, cfgEnCRC|cfgCRCO|cfgPwrUp|cfgPrimRX); err != nil {
		return err
	}
	if _, err := d.regWrite(regStatus, statRxDR|statTxDS|statMaxRT); err != nil {
		return err
	}
	if _, err := d.command(cmdFlushRx); err != nil {
		return err
	}
	d.ce.Set(true)
	time.Sleep(130 * time.Microsecond) // RX settling per datasheet
	return nil
}

// StopListening drops CE and flushes both FIFOs.
func (d *Device) StopListening() error {
	d.ce.Set(false)
	if _, err := d.command(cmdFlushTx); err != nil {
		return err
	}
	_, err := d.command(cmdFlushRx)
	return err
}

// Any reports whether a payload is waiting in the RX FIFO.
func (d *Device) Any() (bool, error) {
	st, err := d.regRead(regFIFO)
	if err != nil {
		return false, err
	}
	return st&fifoRxEmpty == 0, nil
}

// ReceiveInto copies one payload into p, which must hold PayloadSize bytes.
func (d *Device) ReceiveInto(p []byte) error {
	if len(p) < int(d.payloadSize) {
		return ErrPayloadSize
	}
	ok, err := d.Any()
	if err != nil {
		return err
	}
	if !ok {
		return ErrRxEmpty
	}
	d.buf[0] = cmdRxPayload
	for i := uint8(0); i < d.payloadSize; i++ {
		d.buf[1+i] = cmdNOP
	}
	n := int(d.payloadSize) + 1
	d.csn.Set(false)
	err = d.bus.Tx(d.buf[:n], d.rx[:n])
	d.csn.Set(true)
	if err != nil {
		return err
	}
	copy(p, d.rx[1:n])
	_, err = d.regWrite(regStatus, statRxDR)
	return err
}

// Send transmits one payload (padded to PayloadSize) and waits for the
// data-sent flag. CE must be low (not listening).
func (d *Device) Send(p []byte) error {
	if len(p) > int(d.payloadSize) {
		return ErrPayloadSize
	}
	// Power up in TX mode.
	if _, err := d.regWrite(regConfig, cfgEnCRC|cfgCRCO|cfgPwrUp); err != nil {
		return err
	}
	time.Sleep(150 * time.Microsecond) // Tpd2stby

	d.buf[0] = cmdTxPayload
	copy(d.buf[1:], p)
	for i := len(p); i < int(d.payloadSize); i++ {
		d.buf[1+i] = 0
	}
	n := int(d.payloadSize) + 1
	d.csn.Set(false)
	err := d.bus.Tx(d.buf[:n], d.rx[:n])
	d.csn.Set(true)
	if err != nil {
		return err
	}

	// Pulse CE to start the transmission.
	d.ce.Set(true)
	time.Sleep(15 * time.Microsecond)
	d.ce.Set(false)

	deadline := time.Now().Add(d.cfg.SendTimeout)
	for {
		st, err := d.status()
		if err != nil {
			return err
		}
		switch {
		case st&statTxDS != 0:
			_, err = d.regWrite(regStatus, statTxDS)
			return err
		case st&statMaxRT != 0:
			_, _ = d.regWrite(regStatus, statMaxRT)
			_, _ = d.command(cmdFlushTx)
			return ErrMaxRetries
		}
		if time.Now().After(deadline) {
			return ErrTimeout
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// ---- Register access ----

func (d *Device) regRead(reg byte) (byte, error) {
	d.buf[0] = cmdReadReg | (reg & 0x1f)
	d.buf[1] = cmdNOP
	d.csn.Set(false)
	err := d.bus.Tx(d.buf[:2], d.rx[:2])
	d.csn.Set(true)
	return d.rx[1], err
}

func (d *Device) regWrite(reg, val byte) (status byte, err error) {
	d.buf[0] = cmdWriteReg | (reg & 0x1f)
	d.buf[1] = val
	d.csn.Set(false)
	err = d.bus.Tx(d.buf[:2], d.rx[:2])
	d.csn.Set(true)
	return d.rx[0], err
}

// command issues a single-byte command; the returned byte is STATUS.
func (d *Device) command(cmd byte) (byte, error) {
	d.buf[0] = cmd
	d.csn.Set(false)
	err := d.bus.Tx(d.buf[:1], d.rx[:1])
	d.csn.Set(true)
	return d.rx[0], err
}

func (d *Device) status() (byte, error) {
	return d.command(cmdNOP)
}
