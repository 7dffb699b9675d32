package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceName != "clubsync" {
		t.Fatalf("unexpected service name: %q", cfg.ServiceName)
	}
	if cfg.ImpectBaseURL != "https://api.impect.com" {
		t.Fatalf("unexpected impect base url: %q", cfg.ImpectBaseURL)
	}
	if cfg.ImpectClientID != "api" {
		t.Fatalf("unexpected impect client id: %q", cfg.ImpectClientID)
	}
	if cfg.ImpectTimeout != 30*time.Second {
		t.Fatalf("unexpected impect timeout: %s", cfg.ImpectTimeout)
	}
	if cfg.ImpectMaxRetries != 2 {
		t.Fatalf("unexpected impect max retries: %d", cfg.ImpectMaxRetries)
	}
	if cfg.ImpectMinRequestInterval != 150*time.Millisecond {
		t.Fatalf("unexpected impect min request interval: %s", cfg.ImpectMinRequestInterval)
	}
	if !cfg.ImpectCircuitEnabled {
		t.Fatalf("expected circuit breaker enabled by default")
	}
	if cfg.OutputPath != "data/matches.json" {
		t.Fatalf("unexpected output path: %q", cfg.OutputPath)
	}
	if cfg.SyncWorkers != 1 {
		t.Fatalf("unexpected sync workers: %d", cfg.SyncWorkers)
	}
	if cfg.SyncTimeout != 10*time.Minute {
		t.Fatalf("unexpected sync timeout: %s", cfg.SyncTimeout)
	}
}

func TestLoad_ImpectSettingsParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("credentials pass through untouched", func(t *testing.T) {
		t.Setenv("IMPECT_USERNAME", "analyst@club.example")
		t.Setenv("IMPECT_PASSWORD", "  spaces kept  ")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.ImpectUsername != "analyst@club.example" {
			t.Fatalf("unexpected username: %q", cfg.ImpectUsername)
		}
		if cfg.ImpectPassword != "  spaces kept  " {
			t.Fatalf("password must not be trimmed, got %q", cfg.ImpectPassword)
		}
	})

	t.Run("invalid timeout", func(t *testing.T) {
		t.Setenv("IMPECT_TIMEOUT", "soon")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for invalid IMPECT_TIMEOUT")
		}
	})

	t.Run("negative retries rejected", func(t *testing.T) {
		t.Setenv("IMPECT_TIMEOUT", "30s")
		t.Setenv("IMPECT_MAX_RETRIES", "-1")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for negative IMPECT_MAX_RETRIES")
		}
	})

	t.Run("zero interval rejected", func(t *testing.T) {
		t.Setenv("IMPECT_MAX_RETRIES", "2")
		t.Setenv("IMPECT_MIN_REQUEST_INTERVAL", "0s")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for zero IMPECT_MIN_REQUEST_INTERVAL")
		}
	})
}

func TestLoad_SyncSettingsValidation(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")

	t.Run("workers below one rejected", func(t *testing.T) {
		t.Setenv("SYNC_WORKERS", "0")
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for SYNC_WORKERS=0")
		}
	})

	t.Run("custom workers and output", func(t *testing.T) {
		t.Setenv("SYNC_WORKERS", "4")
		t.Setenv("SYNC_OUTPUT_PATH", "out/dataset.json")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.SyncWorkers != 4 {
			t.Fatalf("unexpected sync workers: %d", cfg.SyncWorkers)
		}
		if cfg.OutputPath != "out/dataset.json" {
			t.Fatalf("unexpected output path: %q", cfg.OutputPath)
		}
	})
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_UptraceDSNFromOTLPHeaders(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "uptrace-dsn='https://token@api.uptrace.dev/1'")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.UptraceDSN != "https://token@api.uptrace.dev/1" {
		t.Fatalf("unexpected uptrace dsn: %q", cfg.UptraceDSN)
	}
}

func TestLoad_PyroscopeRequiresServerAddressWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when PYROSCOPE_ENABLED=true without PYROSCOPE_SERVER_ADDRESS")
	}
}

func TestLoad_PyroscopeAppNameDefaultsToServiceName(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "false")
	t.Setenv("APP_SERVICE_NAME", "clubsync-test")
	t.Setenv("PYROSCOPE_ENABLED", "true")
	t.Setenv("PYROSCOPE_SERVER_ADDRESS", "http://localhost:4040")
	t.Setenv("PYROSCOPE_APP_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PyroscopeAppName != "clubsync-test" {
		t.Fatalf("unexpected pyroscope app name: %q", cfg.PyroscopeAppName)
	}
}
