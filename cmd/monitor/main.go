package main

import (
	"context"
	"flag"
	"log"

	"github.com/commercemesh/fulfillment/internal/monitor/bootstrap"
)

func main() {
	configPath := flag.String("config", "configs/monitor.yaml", "path to the service config file")
	flag.Parse()

	ctx := context.Background()
	runtime, err := bootstrap.NewRuntime(ctx, *configPath)
	if err != nil {
		log.Fatalf("monitor-service startup failed: %v", err)
	}
	if err := runtime.Run(ctx); err != nil {
		log.Fatalf("monitor-service terminated: %v", err)
	}
}
