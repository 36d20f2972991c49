package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceID string
	HTTPPort  int

	KafkaBrokers       []string
	KafkaConsumerGroup string

	InventoryHealthURL string
	OrdersHealthURL    string
	PostgresAddr       string
	KafkaAddr          string

	PollInterval         time.Duration
	ConsumerPollInterval time.Duration
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
	} `yaml:"service"`
	Dependencies struct {
		KafkaBrokers       []string `yaml:"kafka_brokers"`
		KafkaConsumerGroup string   `yaml:"kafka_consumer_group"`
	} `yaml:"dependencies"`
	Targets struct {
		InventoryHealthURL string `yaml:"inventory_health_url"`
		OrdersHealthURL    string `yaml:"orders_health_url"`
		PostgresAddr       string `yaml:"postgres_addr"`
		KafkaAddr          string `yaml:"kafka_addr"`
	} `yaml:"targets"`
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:            "monitor-service",
		HTTPPort:             5003,
		KafkaConsumerGroup:   "monitor-service-group",
		InventoryHealthURL:   "http://inventory-service:5001/health",
		OrdersHealthURL:      "http://orders-service:5002/health",
		PostgresAddr:         "postgres:5432",
		KafkaAddr:            "kafka:9092",
		PollInterval:         30 * time.Second,
		ConsumerPollInterval: 2 * time.Second,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
		}
		if f.Dependencies.KafkaConsumerGroup != "" {
			cfg.KafkaConsumerGroup = f.Dependencies.KafkaConsumerGroup
		}
		if f.Targets.InventoryHealthURL != "" {
			cfg.InventoryHealthURL = f.Targets.InventoryHealthURL
		}
		if f.Targets.OrdersHealthURL != "" {
			cfg.OrdersHealthURL = f.Targets.OrdersHealthURL
		}
		if f.Targets.PostgresAddr != "" {
			cfg.PostgresAddr = f.Targets.PostgresAddr
		}
		if f.Targets.KafkaAddr != "" {
			cfg.KafkaAddr = f.Targets.KafkaAddr
		}
		if f.PollIntervalSeconds > 0 {
			cfg.PollInterval = time.Duration(f.PollIntervalSeconds) * time.Second
		}
	}

	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaConsumerGroup = envOrDefault("KAFKA_CONSUMER_GROUP", cfg.KafkaConsumerGroup)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.InventoryHealthURL = envOrDefault("INVENTORY_SERVICE_URL", cfg.InventoryHealthURL)
	cfg.OrdersHealthURL = envOrDefault("ORDERS_SERVICE_URL", cfg.OrdersHealthURL)
	cfg.PostgresAddr = envOrDefault("POSTGRES_ADDR", cfg.PostgresAddr)
	cfg.KafkaAddr = envOrDefault("KAFKA_ADDR", cfg.KafkaAddr)
	cfg.PollInterval = time.Duration(envInt("HEALTH_POLL_SECONDS", int(cfg.PollInterval.Seconds()))) * time.Second
	cfg.ConsumerPollInterval = time.Duration(envInt("CONSUMER_POLL_SECONDS", int(cfg.ConsumerPollInterval.Seconds()))) * time.Second

	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	return trimNonEmpty(strings.Split(raw, ","))
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
