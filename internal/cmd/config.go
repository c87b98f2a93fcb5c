package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/evergreen-games/ecocity/internal/outbox"
	"github.com/evergreen-games/ecocity/internal/scheduler"
)

// Config is the service configuration loaded from YAML. Database
// credentials stay in the environment.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	NATS struct {
		URL           string `yaml:"url"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`

	Outbox struct {
		PollInterval time.Duration `yaml:"poll_interval"`
		BatchSize    int32         `yaml:"batch_size"`
		MaxRetries   int           `yaml:"max_retries"`
		RetryDelay   time.Duration `yaml:"retry_delay"`
	} `yaml:"outbox"`

	Scheduler struct {
		MinChallengesPerDay int           `yaml:"min_challenges_per_day"`
		MaxChallengesPerDay int           `yaml:"max_challenges_per_day"`
		DisasterInterval    time.Duration `yaml:"disaster_interval"`
	} `yaml:"scheduler"`

	Auth struct {
		// Static token -> user id table for development.
		Tokens map[string]string `yaml:"tokens"`
	} `yaml:"auth"`
}

func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return config, nil
}

func defaultConfig() *Config {
	c := &Config{}
	c.Server.Port = getEnv("PORT", "8080")
	c.NATS.URL = getEnv("NATS_URL", "nats://localhost:4222")
	c.NATS.SubjectPrefix = "ecocity.events"

	ob := outbox.DefaultConfig()
	c.Outbox.PollInterval = ob.PollInterval
	c.Outbox.BatchSize = ob.BatchSize
	c.Outbox.MaxRetries = ob.MaxRetries
	c.Outbox.RetryDelay = ob.RetryDelay

	sc := scheduler.DefaultConfig()
	c.Scheduler.MinChallengesPerDay = sc.MinChallengesPerDay
	c.Scheduler.MaxChallengesPerDay = sc.MaxChallengesPerDay
	c.Scheduler.DisasterInterval = sc.DisasterInterval

	return c
}

func (c *Config) outboxConfig() outbox.Config {
	return outbox.Config{
		PollInterval: c.Outbox.PollInterval,
		BatchSize:    c.Outbox.BatchSize,
		MaxRetries:   c.Outbox.MaxRetries,
		RetryDelay:   c.Outbox.RetryDelay,
	}
}

func (c *Config) schedulerConfig() scheduler.Config {
	return scheduler.Config{
		MinChallengesPerDay: c.Scheduler.MinChallengesPerDay,
		MaxChallengesPerDay: c.Scheduler.MaxChallengesPerDay,
		DisasterInterval:    c.Scheduler.DisasterInterval,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
