package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"strings"
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

	notifier, msgs, closeMsgs := commsentinel.NewChannelNotifier("fanout", 32)
	defer closeMsgs()

	go fanoutWorker("pager", msgs)

	rt, err := commsentinel.NewRuntime(cfg,
		commsentinel.WithTelemetrySource(sim.New(cfg.Telemetry.HeartbeatChannel, 2*time.Minute)),
		commsentinel.WithNotifier(notifier),
	)
	if err != nil {
		log.Fatalf("runtime: %v", err)
	}
	if err := rt.Run(ctx); err != nil {
		log.Fatalf("runtime error: %v", err)
	}
}

func fanoutWorker(name string, msgs <-chan commsentinel.Message) {
	for msg := range msgs {
		first, _, _ := strings.Cut(msg.Text, "\n")
		fmt.Printf("[%s] %s %s: %s\n", name, time.Now().Format(time.RFC3339), msg.Channel, first)
	}
}
