// platform/bootlog_host.go
//go:build !rp2040 && !rp2350

package platform

import (
	"context"

	"radionode-go/bus"
	"radionode-go/types"
)

// StartBootLog prints bringup/state transitions on the host; there is no
// bench UART to mirror to.
func StartBootLog(ctx context.Context, conn *bus.Connection) {
	sub := conn.Subscribe(bus.Topic{"bringup", "state"})
	go func() {
		defer conn.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case m := <-sub.Channel():
				if st, ok := m.Payload.(types.BootState); ok {
					println("[boot]", st.Level, st.Status)
				}
			}
		}
	}()
}
