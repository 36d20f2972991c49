package main

import (
	"context"
	"flag"
	"log"

	"github.com/commercemesh/fulfillment/internal/orders/bootstrap"
)

func main() {
	configPath := flag.String("config", "configs/orders.yaml", "path to the service config file")
	flag.Parse()

	ctx := context.Background()
	runtime, err := bootstrap.NewRuntime(ctx, *configPath)
	if err != nil {
		log.Fatalf("orders-service startup failed: %v", err)
	}
	if err := runtime.Run(ctx); err != nil {
		log.Fatalf("orders-service terminated: %v", err)
	}
}
