package config

import (
	"strings"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"DATABASE_URL", "PORT", "BOM_WORKERS", "BOM_SPEC_ACTIVE_STATUS", "BOM_REPORT_MULTIPLE_SPECS", "BOM_ARCHIVE_ENDPOINT", "BOM_RUN_TIMEOUT"} {
		t.Setenv(k, "")
	}
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Port != "8080" || cfg.Workers != 4 || cfg.SpecActiveStatus != "Действует" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ReportMultipleSpecs {
		t.Fatalf("multiple specs reporting should be off by default")
	}
	if cfg.RunTimeout != 10*time.Minute {
		t.Fatalf("run timeout = %v", cfg.RunTimeout)
	}
	if cfg.Archive.Enabled() {
		t.Fatalf("archive should be disabled without endpoint")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("BOM_WORKERS", "12")
	t.Setenv("BOM_REPORT_MULTIPLE_SPECS", "true")
	t.Setenv("BOM_ARCHIVE_ENDPOINT", "localhost:9000")
	t.Setenv("BOM_ARCHIVE_USE_SSL", "false")
	t.Setenv("BOM_RUN_TIMEOUT", "30s")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Workers != 12 || !cfg.ReportMultipleSpecs || cfg.RunTimeout != 30*time.Second {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if !cfg.Archive.Enabled() || cfg.Archive.UseSSL {
		t.Fatalf("archive config not applied: %+v", cfg.Archive)
	}
}

func TestFromEnvInvalid(t *testing.T) {
	t.Setenv("BOM_WORKERS", "many")
	t.Setenv("BOM_REPORT_CACHE_SIZE", "0")

	_, err := FromEnv()
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "BOM_WORKERS") || !strings.Contains(err.Error(), "BOM_REPORT_CACHE_SIZE") {
		t.Fatalf("error should name both keys: %v", err)
	}
}
