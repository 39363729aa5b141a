package config

import "time"

// Config is the configuration of a single bot identity (one worker process).
type Config struct {
	BotID           int
	Bot             BotConfig
	APIKey          string
	APIBaseURL      string
	AnthropicAPIKey string
	ModelsFile      string
	Progress        ProgressConfig
	Bulk            BulkConfig
	Storage         StorageConfig
}

type BotConfig struct {
	Provider string
	Token    string
}

type ProgressConfig struct {
	Backend       string // json or sqlite
	Path          string
	PruneSchedule string // cron expression, empty disables pruning
	PruneAfter    time.Duration
}

type BulkConfig struct {
	MinDelay time.Duration
	MaxDelay time.Duration
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// SupervisorConfig drives the process supervisor binary.
type SupervisorConfig struct {
	EnvFile       string
	WorkerBinary  string
	Grace         time.Duration
	BackoffBase   time.Duration
	BackoffMax    time.Duration
	MaxRestarts   int
	Cooldown      time.Duration
	StatsInterval time.Duration
}
