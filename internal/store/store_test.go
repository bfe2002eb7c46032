package store

import (
	"context"
	"testing"
)

func TestToDecimalPreservesValue(t *testing.T) {
	got := toDecimal(100020.5)
	if f, _ := got.Float64(); f != 100020.5 {
		t.Fatalf("toDecimal(100020.5) round-trips to %v, want 100020.5", f)
	}
}

func TestDefaultConfigMatchesDatabaseLibDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxConns != 25 {
		t.Fatalf("MaxConns = %d, want 25", cfg.MaxConns)
	}
	if cfg.RetryAttempts != 3 {
		t.Fatalf("RetryAttempts = %d, want 3", cfg.RetryAttempts)
	}
}

func TestConnectRejectsEmptyDSN(t *testing.T) {
	if _, err := Connect(context.Background(), Config{}); err == nil {
		t.Fatal("expected empty DSN to fail before attempting a connection")
	}
}
