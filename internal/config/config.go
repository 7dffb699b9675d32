package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/clubgpt/clubsync/internal/platform/logging"
)

// Config stores runtime configuration for the sync tool.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string
	LogLevel       logging.Level

	ImpectUsername string
	ImpectPassword string
	ImpectBaseURL  string
	ImpectTokenURL string
	ImpectClientID string

	ImpectTimeout               time.Duration
	ImpectMaxRetries            int
	ImpectMinRequestInterval    time.Duration
	ImpectCircuitEnabled        bool
	ImpectCircuitFailureCount   int
	ImpectCircuitOpenTimeout    time.Duration
	ImpectCircuitHalfOpenMaxReq int

	OutputPath  string
	SyncWorkers int
	SyncTimeout time.Duration

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	impectTimeout, err := getEnvAsDuration("IMPECT_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse IMPECT_TIMEOUT: %w", err)
	}
	if impectTimeout <= 0 {
		return Config{}, fmt.Errorf("IMPECT_TIMEOUT must be > 0")
	}

	impectMaxRetries, err := getEnvAsInt("IMPECT_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse IMPECT_MAX_RETRIES: %w", err)
	}
	if impectMaxRetries < 0 {
		return Config{}, fmt.Errorf("IMPECT_MAX_RETRIES must be >= 0")
	}

	impectMinRequestInterval, err := getEnvAsDuration("IMPECT_MIN_REQUEST_INTERVAL", 150*time.Millisecond)
	if err != nil {
		return Config{}, fmt.Errorf("parse IMPECT_MIN_REQUEST_INTERVAL: %w", err)
	}
	if impectMinRequestInterval <= 0 {
		return Config{}, fmt.Errorf("IMPECT_MIN_REQUEST_INTERVAL must be > 0")
	}

	impectCircuitEnabled, err := getEnvAsBool("IMPECT_CIRCUIT_ENABLED", true)
	if err != nil {
		return Config{}, fmt.Errorf("parse IMPECT_CIRCUIT_ENABLED: %w", err)
	}
	impectCircuitFailureCount, err := getEnvAsInt("IMPECT_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse IMPECT_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if impectCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("IMPECT_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	impectCircuitOpenTimeout, err := getEnvAsDuration("IMPECT_CIRCUIT_OPEN_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse IMPECT_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if impectCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("IMPECT_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	impectCircuitHalfOpenMaxReq, err := getEnvAsInt("IMPECT_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse IMPECT_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if impectCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("IMPECT_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	outputPath := strings.TrimSpace(getEnv("SYNC_OUTPUT_PATH", "data/matches.json"))
	if outputPath == "" {
		return Config{}, fmt.Errorf("SYNC_OUTPUT_PATH cannot be empty")
	}

	syncWorkers, err := getEnvAsInt("SYNC_WORKERS", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_WORKERS: %w", err)
	}
	if syncWorkers < 1 {
		return Config{}, fmt.Errorf("SYNC_WORKERS must be >= 1")
	}

	syncTimeout, err := getEnvAsDuration("SYNC_TIMEOUT", 10*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_TIMEOUT: %w", err)
	}
	if syncTimeout <= 0 {
		return Config{}, fmt.Errorf("SYNC_TIMEOUT must be > 0")
	}

	uptraceEnabled, err := getEnvAsBool("UPTRACE_ENABLED", false)
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := getEnvAsBool("PYROSCOPE_ENABLED", false)
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", 15*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("APP_SERVICE_NAME", "clubsync"),
		ServiceVersion: getEnv("APP_SERVICE_VERSION", "dev"),
		LogLevel:       parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),

		ImpectUsername: strings.TrimSpace(getEnv("IMPECT_USERNAME", "")),
		ImpectPassword: getEnv("IMPECT_PASSWORD", ""),
		ImpectBaseURL:  strings.TrimSpace(getEnv("IMPECT_BASE_URL", "https://api.impect.com")),
		ImpectTokenURL: strings.TrimSpace(getEnv("IMPECT_TOKEN_URL", "https://login.impect.com/auth/realms/production/protocol/openid-connect/token")),
		ImpectClientID: strings.TrimSpace(getEnv("IMPECT_CLIENT_ID", "api")),

		ImpectTimeout:               impectTimeout,
		ImpectMaxRetries:            impectMaxRetries,
		ImpectMinRequestInterval:    impectMinRequestInterval,
		ImpectCircuitEnabled:        impectCircuitEnabled,
		ImpectCircuitFailureCount:   impectCircuitFailureCount,
		ImpectCircuitOpenTimeout:    impectCircuitOpenTimeout,
		ImpectCircuitHalfOpenMaxReq: impectCircuitHalfOpenMaxReq,

		OutputPath:  outputPath,
		SyncWorkers: syncWorkers,
		SyncTimeout: syncTimeout,

		UptraceEnabled: uptraceEnabled,
		UptraceDSN:     uptraceDSN,

		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
	}

	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}

	return cfg, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	return strconv.ParseBool(value)
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	return time.ParseDuration(value)
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
