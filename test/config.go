package test

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config drives the integration scenario from the environment so CI can
// tighten or loosen timings without a rebuild.
type Config struct {
	PollInterval   time.Duration `envconfig:"TEST_POLL_INTERVAL" default:"50ms"`
	PresenceWindow time.Duration `envconfig:"TEST_PRESENCE_WINDOW" default:"5m"`
	WaitTimeout    time.Duration `envconfig:"TEST_WAIT_TIMEOUT" default:"5s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
