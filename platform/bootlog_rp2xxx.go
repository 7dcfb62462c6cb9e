// platform/bootlog_rp2xxx.go
//go:build rp2040 || rp2350

package platform

import (
	"context"
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"radionode-go/bus"
	"radionode-go/types"
)

// Boot-log UART wiring. uart1 on GP8/GP9; uart0's default pins carry the
// display I2C bus.
const (
	bootLogTX   = 8
	bootLogRX   = 9
	bootLogBaud = 115200
)

// StartBootLog mirrors bringup/state transitions to UART1 alongside USB CDC,
// so a bench serial adapter sees boot progress even before CDC enumerates.
func StartBootLog(ctx context.Context, conn *bus.Connection) {
	hw := uartx.UART1
	if err := hw.Configure(uartx.UARTConfig{
		BaudRate: bootLogBaud,
		TX:       machine.Pin(bootLogTX),
		RX:       machine.Pin(bootLogRX),
	}); err != nil {
		println("bootlog: uart1 configure failed:", err.Error())
		return
	}

	sub := conn.Subscribe(bus.Topic{"bringup", "state"})
	go func() {
		defer conn.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case m := <-sub.Channel():
				st, ok := m.Payload.(types.BootState)
				if !ok {
					continue
				}
				line := "[boot] " + st.Level + " " + st.Status + "\r\n"
				_, _ = hw.Write([]byte(line))
				println("[boot]", st.Level, st.Status)
			}
		}
	}()
}
