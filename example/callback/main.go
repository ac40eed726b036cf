package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghalamif/commsentinel"
	"github.com/ghalamif/commsentinel/example/sim"
)

func main() {
	cfg, err := commsentinel.LoadConfig("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stdout := func(msg commsentinel.Message) error {
		fmt.Printf("%s -> %s\n%s\n\n", time.Now().Format(time.RFC3339), msg.Channel, msg.Text)
		return nil
	}

	rt, err := commsentinel.NewRuntime(cfg,
		commsentinel.WithTelemetrySource(sim.New(cfg.Telemetry.HeartbeatChannel, 2*time.Minute)),
		commsentinel.WithNotifier(commsentinel.NewCallbackNotifier("stdout", stdout)),
	)
	if err != nil {
		log.Fatalf("runtime: %v", err)
	}
	if err := rt.Run(ctx); err != nil {
		log.Fatalf("runtime error: %v", err)
	}
}
