package main

import (
	"context"
	"time"

	"radionode-go/bus"
	"radionode-go/platform"
	"radionode-go/services/bringup"
	"radionode-go/services/config"
	"radionode-go/services/heartbeat"
)

const deviceID = "pico"

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, deviceID)

	b := bus.NewBus(8)
	platform.StartBootLog(ctx, b.NewConnection("bootlog"))

	bring := bringup.New(b.NewConnection("bringup"), platform.Default())
	go bring.Run(ctx)

	hb := &heartbeat.Service{}
	_ = hb.Start(ctx, b.NewConnection("heartbeat"))

	// Publish the embedded device config last so every subscriber above is
	// already listening when the retained keys land.
	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	select {}
}
