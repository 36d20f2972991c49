package main

import (
	"context"
	"flag"
	"log"

	"github.com/commercemesh/fulfillment/internal/inventory/bootstrap"
)

func main() {
	configPath := flag.String("config", "configs/inventory.yaml", "path to the service config file")
	flag.Parse()

	ctx := context.Background()
	runtime, err := bootstrap.NewRuntime(ctx, *configPath)
	if err != nil {
		log.Fatalf("inventory-service startup failed: %v", err)
	}
	if err := runtime.Run(ctx); err != nil {
		log.Fatalf("inventory-service terminated: %v", err)
	}
}
