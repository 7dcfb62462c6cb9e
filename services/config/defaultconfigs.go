package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Populate embeddedConfigs at build time (e.g. via code generation) or
// manually during development.
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

const cfgPico = `{
  "bringup": {
    "i2c": {"bus": 0, "scl": 1, "sda": 0, "hz": 40000},
    "spi": {"bus": 1},
    "display": {"width": 128, "height": 64, "text": "testhjgjhfgjgfhg"},
    "radio": {"cs": 15, "ce": 16, "channel": 7, "payload_size": 32}
  },
  "heartbeat": {
    "interval": 2
  }
}`

var embeddedConfigs = map[string][]byte{
	"pico": []byte(cfgPico),
}
