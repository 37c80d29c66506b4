package configs

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("PORT", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Environment != "development" {
		t.Errorf("expected development default, got %q", cfg.Environment)
	}
	if cfg.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port)
	}
	if len(cfg.AllowedOrigins) != 0 {
		t.Errorf("expected no default origins, got %v", cfg.AllowedOrigins)
	}
}

func TestLoadConfigPortValidation(t *testing.T) {
	tests := []struct {
		name string
		port string
	}{
		{"not a number", "abc"},
		{"privileged", "80"},
		{"out of range", "70000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", "")
			t.Setenv("PORT", tt.port)
			t.Setenv("ALLOWED_ORIGINS", "")

			if _, err := LoadConfig(); err == nil {
				t.Errorf("expected error for PORT=%q", tt.port)
			}
		})
	}
}

func TestLoadConfigOrigins(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example.com , https://b.example.com ,, ")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.AllowedOrigins)
	}
	if cfg.AllowedOrigins[0] != "https://a.example.com" || cfg.AllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("origins not trimmed correctly: %v", cfg.AllowedOrigins)
	}
}

func TestLoadConfigProductionRequiresOrigins(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error when ALLOWED_ORIGINS is missing outside development")
	}
}
