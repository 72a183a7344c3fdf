package config

import (
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				App: AppConfig{Name: "test-service"},
				Log: LogConfig{Level: "info"},
				VRP: VRPConfig{AmountSize: 1, Router: RouterOSRM, NbThread: 2},
			},
			wantErr: false,
		},
		{
			name: "missing app name",
			cfg: Config{
				Log: LogConfig{Level: "info"},
			},
			wantErr: true,
		},
		{
			name: "negative amount size",
			cfg: Config{
				App: AppConfig{Name: "test"},
				VRP: VRPConfig{AmountSize: -1},
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			cfg: Config{
				App: AppConfig{Name: "test"},
				Log: LogConfig{Level: "invalid"},
			},
			wantErr: true,
		},
		{
			name: "valid debug level",
			cfg: Config{
				App: AppConfig{Name: "test"},
				Log: LogConfig{Level: "debug"},
			},
			wantErr: false,
		},
		{
			name: "invalid router",
			cfg: Config{
				App: AppConfig{Name: "test"},
				VRP: VRPConfig{Router: "BOGUS"},
			},
			wantErr: true,
		},
		{
			name: "valid router",
			cfg: Config{
				App: AppConfig{Name: "test"},
				VRP: VRPConfig{Router: RouterValhalla},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_DefaultsNbThread(t *testing.T) {
	cfg := Config{App: AppConfig{Name: "test"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.VRP.NbThread != 1 {
		t.Errorf("expected nb_thread defaulted to 1, got %d", cfg.VRP.NbThread)
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"development", true},
		{"dev", true},
		{"production", false},
		{"staging", false},
	}

	for _, tt := range tests {
		cfg := &Config{App: AppConfig{Environment: tt.env}}
		if got := cfg.IsDevelopment(); got != tt.want {
			t.Errorf("IsDevelopment() for %s = %v, want %v", tt.env, got, tt.want)
		}
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		env  string
		want bool
	}{
		{"production", true},
		{"prod", true},
		{"development", false},
		{"staging", false},
	}

	for _, tt := range tests {
		cfg := &Config{App: AppConfig{Environment: tt.env}}
		if got := cfg.IsProduction(); got != tt.want {
			t.Errorf("IsProduction() for %s = %v, want %v", tt.env, got, tt.want)
		}
	}
}

func TestServerConfig_Address(t *testing.T) {
	srv := ServerConfig{
		Host: "localhost",
		Port: 5000,
	}

	addr := srv.Address()
	if addr != "localhost:5000" {
		t.Errorf("expected 'localhost:5000', got %s", addr)
	}
}

func TestCacheConfig_Address(t *testing.T) {
	cfg := CacheConfig{
		Host: "redis.local",
		Port: 6379,
	}

	addr := cfg.Address()
	if addr != "redis.local:6379" {
		t.Errorf("expected 'redis.local:6379', got %s", addr)
	}
}

func TestVRPConfig_Servers(t *testing.T) {
	cfg := VRPConfig{
		AmountSize: 2,
		Router:     RouterORS,
		Servers: map[string]ServerConfig{
			"car":  {Host: "ors-car", Port: 8080, Timeout: 30 * time.Second},
			"bike": {Host: "ors-bike", Port: 8081, Timeout: 30 * time.Second},
		},
	}

	if len(cfg.Servers) != 2 {
		t.Errorf("expected 2 servers, got %d", len(cfg.Servers))
	}
	if cfg.Servers["car"].Address() != "ors-car:8080" {
		t.Errorf("unexpected car server address: %s", cfg.Servers["car"].Address())
	}
}
