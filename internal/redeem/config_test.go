package redeem

import (
	"errors"
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got, want := cfg.FeeBaseUnits(), uint64(15_000_000); got != want {
		t.Fatalf("FeeBaseUnits = %d, want %d", got, want)
	}
	if !strings.Contains(cfg.Description(), "15 USDC") {
		t.Fatalf("description missing fee: %q", cfg.Description())
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing collection", mutate: func(c *Config) { c.Collection = [32]byte{} }},
		{name: "empty allow-list", mutate: func(c *Config) { c.WinnerNames = nil }},
		{name: "zero fee", mutate: func(c *Config) { c.FeeAmount = 0 }},
		{name: "missing fee mint", mutate: func(c *Config) { c.FeeMint = [32]byte{} }},
		{name: "missing fee payee", mutate: func(c *Config) { c.FeePayee = [32]byte{} }},
		{name: "missing title", mutate: func(c *Config) { c.Title = "" }},
		{name: "missing base path", mutate: func(c *Config) { c.BasePath = "" }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
