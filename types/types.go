package types

// ---- Bring-up state (retained) ----

type BootState struct {
	Level  string `json:"level"`  // "idle", "running", "ready", "error"
	Status string `json:"status"` // freeform short code, e.g. "oled_shown"
	TS     int64  `json:"ts_ms"`
}

// Info envelope each peripheral exposes (retained).
type Info struct {
	SchemaVersion int    `json:"schema_version"`
	Driver        string `json:"driver"`
	Detail        any    `json:"detail,omitempty"`
}

// ---- Peripheral info payloads (Info.Detail) ----

type DisplayInfo struct {
	Bus    string `json:"bus"` // e.g. "i2c0"
	Width  int16  `json:"width"`
	Height int16  `json:"height"`
	Addr   uint16 `json:"addr"`
}

type RadioInfo struct {
	Bus         string `json:"bus"` // e.g. "spi1"
	CS          int    `json:"cs"`
	CE          int    `json:"ce"`
	Channel     uint8  `json:"channel"`
	PayloadSize uint8  `json:"payload_size"`
}

// ---- Bring-up configuration supplied on topic "config/bringup" ----

type BringupConfig struct {
	I2C     I2CConfig     `json:"i2c"`
	SPI     SPIConfig     `json:"spi"`
	Display DisplayConfig `json:"display"`
	Radio   RadioConfig   `json:"radio"`
}

type I2CConfig struct {
	Bus int    `json:"bus"` // controller index, e.g. 0
	SCL int    `json:"scl"` // GPIO number
	SDA int    `json:"sda"` // GPIO number
	Hz  uint32 `json:"hz"`
}

type SPIConfig struct {
	Bus int    `json:"bus"` // controller index, e.g. 1
	Hz  uint32 `json:"hz,omitempty"`
}

type DisplayConfig struct {
	Width  int16  `json:"width"`
	Height int16  `json:"height"`
	Text   string `json:"text"` // staged once at (0,0)
}

type RadioConfig struct {
	CS          int   `json:"cs"` // chip-select GPIO
	CE          int   `json:"ce"` // chip-enable GPIO
	Channel     uint8 `json:"channel"`
	PayloadSize uint8 `json:"payload_size"`
}
