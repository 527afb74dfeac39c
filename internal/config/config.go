package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Database struct {
	DSN string `envconfig:"DATABASE_DSN" required:"true"`
}

type Collector struct {
	Database

	ServiceName     string        `envconfig:"SERVICE_NAME" default:"ollyllm-collector"`
	GrpcAddr        string        `envconfig:"GRPC_ADDR" default:":50051"`
	MetricsAddr     string        `envconfig:"METRICS_ADDR" default:":9090"`
	TraceEndpoint   string        `envconfig:"OTLP_ENDPOINT"`
	APIKeys         []string      `envconfig:"API_KEYS"`
	Development     bool          `envconfig:"DEVELOPMENT"`
	HealthInterval  time.Duration `envconfig:"HEALTH_INTERVAL" default:"10s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
}

func LoadCollector() (Collector, error) {
	var cfg Collector
	if err := envconfig.Process("", &cfg); err != nil {
		return Collector{}, err
	}
	return cfg, nil
}

func LoadDatabase() (Database, error) {
	var cfg Database
	if err := envconfig.Process("", &cfg); err != nil {
		return Database{}, err
	}
	return cfg, nil
}
