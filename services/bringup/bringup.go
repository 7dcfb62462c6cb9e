// services/bringup/bringup.go
package bringup

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"radionode-go/board"
	"radionode-go/bus"
	"radionode-go/drivers/nrf24l01"
	"radionode-go/errcode"
	"radionode-go/types"
)

// Topics.
var (
	topicConfig      = bus.Topic{"config", "bringup"}
	topicState       = bus.Topic{"bringup", "state"}
	topicDisplayInfo = bus.Topic{"bringup", "cap", "display", "info"}
	topicRadioInfo   = bus.Topic{"bringup", "cap", "radio", "info"}
)

// Service owns the power-on bring-up of the two peripherals. It runs the
// sequence exactly once; the constructed handles are held for the process
// lifetime and never released.
type Service struct {
	conn *bus.Connection
	brd  board.Board

	panel board.Panel
	radio *nrf24l01.Device
	done  bool
}

func New(conn *bus.Connection, brd board.Board) *Service {
	return &Service{conn: conn, brd: brd}
}

// Run waits for the bring-up plan on config/bringup, executes it, and then
// idles until the context is cancelled. A failed step aborts the sequence;
// later steps never run.
func (s *Service) Run(ctx context.Context) {
	cfgSub := s.conn.Subscribe(topicConfig)
	defer s.conn.Unsubscribe(cfgSub)

	s.publishState("idle", "awaiting_config", nil)

	for {
		select {
		case <-ctx.Done():
			s.publishState("stopped", "context_cancelled", nil)
			return

		case msg := <-cfgSub.Channel():
			if s.done {
				// Run-once contract: there is no re-entry path.
				s.publishState("ready", "boot_already_done", nil)
				continue
			}
			var cfg types.BringupConfig
			if err := decodeJSON(msg.Payload, &cfg); err != nil {
				s.publishState("error", string(errcode.InvalidPayload), err)
				continue
			}
			if err := s.boot(cfg); err != nil {
				s.publishState("error", string(errcode.Of(err)), err)
				return
			}
			s.done = true
			s.publishState("ready", "boot_complete", nil)
		}
	}
}

// boot performs the hardware initialisation in a fixed order:
// I²C bus, display driver, clear/draw/flush, SPI bus, transceiver.
func (s *Service) boot(cfg types.BringupConfig) error {
	// Two-wire bus first; the display driver binds to the handle.
	s.publishState("running", "i2c_configure", nil)
	i2c, err := s.brd.ConfigureI2C(board.I2CPlan{
		Bus: cfg.I2C.Bus,
		SCL: cfg.I2C.SCL,
		SDA: cfg.I2C.SDA,
		Hz:  cfg.I2C.Hz,
	})
	if err != nil {
		return errcode.Wrap(errcode.BusUnavailable, "i2c_configure", err)
	}

	s.publishState("running", "display_init", nil)
	panel, err := s.brd.Display(i2c, cfg.Display.Width, cfg.Display.Height)
	if err != nil {
		return errcode.Wrap(errcode.DisplayFault, "display_init", err)
	}
	s.panel = panel

	// One static draw; the panel is never updated again.
	panel.Fill(false)
	panel.Text(cfg.Display.Text, 0, 0)
	if err := panel.Show(); err != nil {
		return errcode.Wrap(errcode.DisplayFault, "display_show", err)
	}

	s.publishInfo(topicDisplayInfo, "ssd1306", types.DisplayInfo{
		Bus:    "i2c" + strconv.Itoa(cfg.I2C.Bus),
		Width:  cfg.Display.Width,
		Height: cfg.Display.Height,
		Addr:   0x3c,
	})

	// Four-wire bus plus control lines, then the transceiver.
	s.publishState("running", "spi_configure", nil)
	spi, err := s.brd.ConfigureSPI(board.SPIPlan{
		Bus: cfg.SPI.Bus,
		Hz:  cfg.SPI.Hz,
	})
	if err != nil {
		return errcode.Wrap(errcode.BusUnavailable, "spi_configure", err)
	}

	csn, ok := s.brd.Pin(cfg.Radio.CS)
	if !ok {
		return &errcode.E{C: errcode.UnknownPin, Op: "radio_cs", Msg: "pin " + strconv.Itoa(cfg.Radio.CS)}
	}
	ce, ok := s.brd.Pin(cfg.Radio.CE)
	if !ok {
		return &errcode.E{C: errcode.UnknownPin, Op: "radio_ce", Msg: "pin " + strconv.Itoa(cfg.Radio.CE)}
	}
	// CSN idles high (deselected), CE low (standby).
	if err := csn.ConfigureOutput(true); err != nil {
		return errcode.Wrap(errcode.PinInUse, "radio_cs", err)
	}
	if err := ce.ConfigureOutput(false); err != nil {
		return errcode.Wrap(errcode.PinInUse, "radio_ce", err)
	}

	s.publishState("running", "radio_configure", nil)
	radio := nrf24l01.New(spi, csn, ce)
	if err := radio.Configure(nrf24l01.Config{
		Channel:     cfg.Radio.Channel,
		PayloadSize: cfg.Radio.PayloadSize,
	}); err != nil {
		return errcode.Wrap(errcode.RadioFault, "radio_configure", err)
	}
	s.radio = &radio

	s.publishInfo(topicRadioInfo, "nrf24l01", types.RadioInfo{
		Bus:         "spi" + strconv.Itoa(cfg.SPI.Bus),
		CS:          cfg.Radio.CS,
		CE:          cfg.Radio.CE,
		Channel:     radio.Channel(),
		PayloadSize: radio.PayloadSize(),
	})
	return nil
}

// Radio exposes the transceiver handle, nil until bring-up completed.
// The bring-up itself never transmits or receives.
func (s *Service) Radio() *nrf24l01.Device { return s.radio }

// Panel exposes the display handle, nil until bring-up completed.
func (s *Service) Panel() board.Panel { return s.panel }

func (s *Service) publishState(level, status string, err error) {
	if err != nil {
		println("bringup:", status, "failed:", err.Error())
	}
	s.conn.Publish(s.conn.NewMessage(topicState, types.BootState{
		Level:  level,
		Status: status,
		TS:     time.Now().UnixMilli(),
	}, true))
}

func (s *Service) publishInfo(topic bus.Topic, driver string, detail any) {
	s.conn.Publish(s.conn.NewMessage(topic, types.Info{
		SchemaVersion: 1,
		Driver:        driver,
		Detail:        detail,
	}, true))
}

// decodeJSON accepts either an already-typed payload or a JSON-ish map as
// published by the config service.
func decodeJSON[T any](src any, dst *T) error {
	if v, ok := src.(T); ok {
		*dst = v
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}
