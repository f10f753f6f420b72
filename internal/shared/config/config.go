package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppEnv          string        `envconfig:"APP_ENV" default:"dev"`
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	MaxBodyBytes    int64         `envconfig:"MAX_BODY_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	MetricsAddr     string        `envconfig:"METRICS_ADDR" default:":9091"`

	Kafka Kafka `envconfig:"KAFKA"`
}

type Kafka struct {
	// Brokers is empty when event publishing is disabled.
	Brokers      []string      `envconfig:"BROKERS"`
	Topic        string        `envconfig:"TOPIC" default:"tickets.events"`
	GroupID      string        `envconfig:"GROUP_ID" default:"notification-service"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"5s"`
	StartOffset  string        `envconfig:"START_OFFSET" default:"last"`
}

func (k Kafka) Enabled() bool { return len(k.Brokers) > 0 }

// Load reads .env (if present, without overriding the process env) and
// decodes the environment into Config.
func Load() (Config, error) {
	return LoadFile(".env")
}

func LoadFile(path string) (Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", path, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode env: %w", err)
	}
	cfg.Kafka.Brokers = compact(cfg.Kafka.Brokers)

	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", cfg.MaxBodyBytes)
	}
	return cfg, nil
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
