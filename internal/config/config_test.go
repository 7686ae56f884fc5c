package config

import (
	"os"
	"testing"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	if _, err := Load(); err == nil {
		t.Error("expected error when DATABASE_URL is missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/practice")
	defer os.Unsetenv("DATABASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.FormMode != FormModeService {
		t.Errorf("expected default form mode %q, got %q", FormModeService, cfg.FormMode)
	}
	if cfg.DefaultTenant != "default" {
		t.Errorf("expected default tenant, got %s", cfg.DefaultTenant)
	}
	if cfg.RequestTimeout != 30 {
		t.Errorf("expected default timeout 30, got %d", cfg.RequestTimeout)
	}
}

func TestResolvedAuthMode(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{"explicit", Config{AuthMode: "external"}, "external"},
		{"dev inferred", Config{Env: "development"}, "development"},
		{"production inferred", Config{Env: "production"}, "external"},
	}
	for _, tc := range cases {
		if got := tc.cfg.ResolvedAuthMode(); got != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestValidate_FormMode(t *testing.T) {
	cfg := Config{Env: "development", FormMode: "per_session", RequestTimeout: 30}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown form mode")
	}

	cfg.FormMode = FormModeTreatmentTarget
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_ExternalRequiresIssuer(t *testing.T) {
	cfg := Config{Env: "production", FormMode: FormModeService, RequestTimeout: 30}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when external mode has no issuer")
	}

	cfg.AuthIssuer = "https://auth.example.com"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
