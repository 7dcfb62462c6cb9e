// cmd/boardtest/main.go
//
// Bench check for the bring-up sequence: boots the stack against the default
// board, watches bringup/#, and reports PASS/FAIL over the console.
package main

import (
	"context"
	"fmt"
	"time"

	"radionode-go/bus"
	"radionode-go/platform"
	"radionode-go/services/bringup"
	"radionode-go/services/config"
	"radionode-go/types"
)

// ---------- Configuration ----------

const (
	readyTimeout = 10 * time.Second
	infoTimeout  = 2 * time.Second
)

// ---------- Topics ----------

func tState() bus.Topic       { return bus.T("bringup", "state") }
func tDisplayInfo() bus.Topic { return bus.T("bringup", "cap", "display", "info") }
func tRadioInfo() bus.Topic   { return bus.T("bringup", "cap", "radio", "info") }

// ---------- Helpers ----------

func waitReady(c *bus.Connection, d time.Duration) (string, bool) {
	sub := c.Subscribe(tState())
	defer c.Unsubscribe(sub)

	dead := time.Now().Add(d)
	for time.Now().Before(dead) {
		select {
		case m := <-sub.Channel():
			st, ok := m.Payload.(types.BootState)
			if !ok {
				continue
			}
			fmt.Println("[boardtest] state:", st.Level, st.Status)
			switch st.Level {
			case "ready":
				return st.Status, true
			case "error":
				return st.Status, false
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	return "timeout", false
}

func awaitInfo(c *bus.Connection, topic bus.Topic, d time.Duration) (types.Info, bool) {
	sub := c.Subscribe(topic)
	defer c.Unsubscribe(sub)

	select {
	case m := <-sub.Channel():
		info, ok := m.Payload.(types.Info)
		return info, ok
	case <-time.After(d):
		return types.Info{}, false
	}
}

// ---------- Main ----------

func main() {
	time.Sleep(2 * time.Second)
	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, "pico")

	b := bus.NewBus(8)
	ui := b.NewConnection("ui")

	svc := bringup.New(b.NewConnection("bringup"), platform.Default())
	go svc.Run(ctx)

	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	pass := true

	status, ok := waitReady(ui, readyTimeout)
	if !ok {
		fmt.Println("[boardtest] bring-up failed:", status)
		pass = false
	}

	if pass {
		if info, ok := awaitInfo(ui, tDisplayInfo(), infoTimeout); !ok {
			fmt.Println("[boardtest] no display info document")
			pass = false
		} else {
			fmt.Printf("[boardtest] display: driver=%s detail=%+v\n", info.Driver, info.Detail)
			if info.Driver != "ssd1306" {
				fmt.Println("[boardtest] unexpected display driver:", info.Driver)
				pass = false
			}
		}
	}

	if pass {
		if info, ok := awaitInfo(ui, tRadioInfo(), infoTimeout); !ok {
			fmt.Println("[boardtest] no radio info document")
			pass = false
		} else {
			fmt.Printf("[boardtest] radio: driver=%s detail=%+v\n", info.Driver, info.Detail)
			if ri, ok := info.Detail.(types.RadioInfo); ok {
				if ri.Channel != 7 || ri.PayloadSize != 32 {
					fmt.Printf("[boardtest] radio params off: ch=%d payload=%d\n", ri.Channel, ri.PayloadSize)
					pass = false
				}
			}
		}
	}

	if pass {
		radio := svc.Radio()
		if radio == nil {
			fmt.Println("[boardtest] radio handle missing after ready")
			pass = false
		} else {
			fmt.Printf("[boardtest] radio handle: ch=%d payload=%d\n", radio.Channel(), radio.PayloadSize())
		}
	}

	if pass {
		fmt.Println("[boardtest] PASS")
	} else {
		fmt.Println("[boardtest] FAIL")
	}

	// Park so the bench can read the screen and probe the bus.
	select {}
}
