package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ExitConfig is the exit status of a worker that cannot start because of
// missing or invalid configuration (EX_CONFIG from sysexits.h).
const ExitConfig = 78

var (
	ErrInvalidBotID      = errors.New("invalid or missing BOT_ID")
	ErrMissingCredential = errors.New("missing bot credential")
	ErrUnknownProvider   = errors.New("unknown bot provider")
)

const (
	defaultAPIBaseURL = "https://api.hyperbolic.xyz/v1"
	defaultMinDelay   = 2 * time.Minute
	defaultMaxDelay   = 5 * time.Minute
	defaultPruneAfter = 30 * 24 * time.Hour
)

// Load reads the worker configuration for the identity named by BOT_ID.
func Load() (*Config, error) {
	botID, err := loadBotID()
	if err != nil {
		return nil, err
	}

	botConfig, err := loadBotConfig(botID)
	if err != nil {
		return nil, err
	}

	apiKey := os.Getenv(fmt.Sprintf("API_KEY_%d", botID))
	if apiKey == "" {
		apiKey = os.Getenv("API_KEY")
	}

	baseURL := os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}

	progressConfig, err := loadProgressConfig(botID)
	if err != nil {
		return nil, err
	}

	bulkConfig, err := loadBulkConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		BotID:           botID,
		Bot:             botConfig,
		APIKey:          apiKey,
		APIBaseURL:      strings.TrimRight(baseURL, "/"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		ModelsFile:      os.Getenv("MODELS_FILE"),
		Progress:        progressConfig,
		Bulk:            bulkConfig,
		Storage:         loadStorageConfig(),
	}, nil
}

func loadBotID() (int, error) {
	raw := os.Getenv("BOT_ID")
	if raw == "" {
		raw = os.Getenv("TELEGRAM_BOT_ID")
	}

	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBotID, raw)
	}

	return id, nil
}

func loadBotConfig(botID int) (BotConfig, error) {
	provider := os.Getenv(fmt.Sprintf("BOT_PROVIDER_%d", botID))
	if provider == "" {
		provider = "telegram"
		// a discord-only identity needs no explicit provider
		if os.Getenv(fmt.Sprintf("TELEGRAM_BOT_TOKEN_%d", botID)) == "" && os.Getenv(fmt.Sprintf("DISCORD_BOT_TOKEN_%d", botID)) != "" {
			provider = "discord"
		}
	}

	var tokenKey string
	switch provider {
	case "telegram":
		tokenKey = fmt.Sprintf("TELEGRAM_BOT_TOKEN_%d", botID)
	case "discord":
		tokenKey = fmt.Sprintf("DISCORD_BOT_TOKEN_%d", botID)
	default:
		return BotConfig{}, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	token := os.Getenv(tokenKey)
	if token == "" {
		return BotConfig{}, fmt.Errorf("%w: %s not set", ErrMissingCredential, tokenKey)
	}

	return BotConfig{
		Provider: provider,
		Token:    token,
	}, nil
}

func loadProgressConfig(botID int) (ProgressConfig, error) {
	backend := os.Getenv("PROGRESS_BACKEND")
	if backend == "" {
		backend = "json"
	}
	if backend != "json" && backend != "sqlite" {
		return ProgressConfig{}, fmt.Errorf("unknown PROGRESS_BACKEND: %s", backend)
	}

	path := os.Getenv("PROGRESS_PATH")
	if path == "" {
		ext := ".json"
		if backend == "sqlite" {
			ext = ".db"
		}
		// one partition per identity, so two bots never share a record for the same user id
		path = filepath.Join(".", fmt.Sprintf("bulk_progress_%d%s", botID, ext))
	}

	pruneAfter, err := durationEnv("PROGRESS_PRUNE_AFTER", defaultPruneAfter)
	if err != nil {
		return ProgressConfig{}, err
	}

	return ProgressConfig{
		Backend:       backend,
		Path:          path,
		PruneSchedule: os.Getenv("PROGRESS_PRUNE_SCHEDULE"),
		PruneAfter:    pruneAfter,
	}, nil
}

func loadBulkConfig() (BulkConfig, error) {
	minDelay, err := durationEnv("BULK_MIN_DELAY", defaultMinDelay)
	if err != nil {
		return BulkConfig{}, err
	}

	maxDelay, err := durationEnv("BULK_MAX_DELAY", defaultMaxDelay)
	if err != nil {
		return BulkConfig{}, err
	}

	if maxDelay < minDelay {
		return BulkConfig{}, fmt.Errorf("BULK_MAX_DELAY (%s) is below BULK_MIN_DELAY (%s)", maxDelay, minDelay)
	}

	return BulkConfig{
		MinDelay: minDelay,
		MaxDelay: maxDelay,
	}, nil
}

func loadStorageConfig() StorageConfig {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "minio:9000"
	}

	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = "tgbot-results"
	}

	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")

	return StorageConfig{
		Enabled:   accessKey != "" && secretKey != "",
		Endpoint:  endpoint,
		AccessKey: accessKey,
		SecretKey: secretKey,
		UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		Bucket:    bucket,
	}
}

// LoadSupervisor reads the supervisor configuration.
func LoadSupervisor() (*SupervisorConfig, error) {
	envFile := os.Getenv("SUPERVISOR_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}

	worker := os.Getenv("SUPERVISOR_WORKER_BIN")
	if worker == "" {
		worker = "tgbot"
		if exe, err := os.Executable(); err == nil {
			worker = filepath.Join(filepath.Dir(exe), "tgbot")
		}
	}

	grace, err := durationEnv("SUPERVISOR_GRACE", 500*time.Millisecond)
	if err != nil {
		return nil, err
	}

	backoffBase, err := durationEnv("SUPERVISOR_BACKOFF_BASE", time.Second)
	if err != nil {
		return nil, err
	}

	backoffMax, err := durationEnv("SUPERVISOR_BACKOFF_MAX", time.Minute)
	if err != nil {
		return nil, err
	}

	cooldown, err := durationEnv("SUPERVISOR_COOLDOWN", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	statsInterval, err := durationEnv("SUPERVISOR_STATS_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}

	maxRestarts := 5
	if v := os.Getenv("SUPERVISOR_MAX_RESTARTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid SUPERVISOR_MAX_RESTARTS: %q", v)
		}
		maxRestarts = n
	}

	return &SupervisorConfig{
		EnvFile:       envFile,
		WorkerBinary:  worker,
		Grace:         grace,
		BackoffBase:   backoffBase,
		BackoffMax:    backoffMax,
		MaxRestarts:   maxRestarts,
		Cooldown:      cooldown,
		StatsInterval: statsInterval,
	}, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: negative duration", key)
	}

	return d, nil
}
