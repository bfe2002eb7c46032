package config

import "testing"

func TestDefaultConfigFailsValidationWithoutRequiredSecrets(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected Default() alone to fail validation: JWTSecret and DatabaseURL are required")
	}
}

func TestDefaultConfigValidAfterRequiredFieldsSet(t *testing.T) {
	cfg := Default()
	cfg.JWTSecret = "s3cr3t"
	cfg.DatabaseURL = "postgres://localhost/backtest"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestFromEnvOverridesDefaults(t *testing.T) {
	t.Setenv("BACKTEST_INITIAL_CASH", "250000")
	t.Setenv("BACKTEST_JWT_SECRET", "s3cr3t")
	t.Setenv("BACKTEST_DATABASE_URL", "postgres://localhost/backtest")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.InitialCash != 250000 {
		t.Fatalf("InitialCash = %v, want 250000", cfg.InitialCash)
	}
}

func TestFromEnvRejectsBadVolumeLimit(t *testing.T) {
	t.Setenv("BACKTEST_VOLUME_LIMIT", "1.5")
	t.Setenv("BACKTEST_JWT_SECRET", "s3cr3t")
	t.Setenv("BACKTEST_DATABASE_URL", "postgres://localhost/backtest")

	if _, err := FromEnv(); err == nil {
		t.Fatal("expected volumeLimit > 1 to fail validation")
	}
}
