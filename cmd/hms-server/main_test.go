package main

import (
	"strings"
	"testing"
	"time"

	"github.com/carelink/hms/internal/config"
	"github.com/carelink/hms/internal/domain/identity"
	"github.com/carelink/hms/internal/platform/db"
)

func TestBroadcastEvent(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		title   string
		message string
		wantErr bool
	}{
		{"doctor broadcast", "doctor", "Staff meeting", "Friday 9am", false},
		{"unknown role", "nurse", "Staff meeting", "Friday 9am", true},
		{"empty role", "", "Staff meeting", "Friday 9am", true},
		{"blank title", "patient", "   ", "Clinic closed", true},
		{"blank message", "patient", "Closure", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := broadcastEvent(tt.role, tt.title, tt.message)
			if (err != nil) != tt.wantErr {
				t.Fatalf("broadcastEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && ev.Role != identity.Role(tt.role) {
				t.Errorf("expected role %q, got %q", tt.role, ev.Role)
			}
		})
	}
}

func TestBroadcastEvent_TrimsText(t *testing.T) {
	ev, err := broadcastEvent("admin", "  Audit  ", " Quarterly review ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Title != "Audit" || ev.Message != "Quarterly review" {
		t.Errorf("expected trimmed text, got %q / %q", ev.Title, ev.Message)
	}
}

func TestDispatcherOptions(t *testing.T) {
	cfg := &config.Config{NotifyWriteTimeout: 2 * time.Second, NotifyMaxRetries: 1, NotifyConcurrency: 4, NotifyEventTimeout: 8 * time.Second}
	opts := dispatcherOptions(cfg)
	if opts.WriteTimeout != 2*time.Second || opts.MaxRetries != 1 || opts.Concurrency != 4 || opts.EventTimeout != 8*time.Second {
		t.Errorf("unexpected options: %+v", opts)
	}
	if opts.RetryInterval <= 0 {
		t.Error("expected the default retry interval to be kept")
	}
}

func TestDeliveryChannels(t *testing.T) {
	cfg := &config.Config{}
	if got := deliveryChannels(cfg, ""); len(got) != 0 {
		t.Errorf("expected no options, got %d", len(got))
	}
	if got := deliveryChannels(cfg, "St. Mary"); len(got) != 1 {
		t.Errorf("expected templates only, got %d", len(got))
	}

	cfg.SMTPHost, cfg.SMTPFrom = "smtp.test", "noreply@test"
	cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber = "AC1", "tok", "+15550000"
	if got := deliveryChannels(cfg, "St. Mary"); len(got) != 3 {
		t.Errorf("expected templates, email and sms, got %d", len(got))
	}
}

func TestRateLimitConfig_FallsBackToDefaults(t *testing.T) {
	rl := rateLimitConfig(&config.Config{})
	if rl.RequestsPerSecond != 50 || rl.BurstSize != 100 {
		t.Errorf("expected defaults, got %+v", rl)
	}
	rl = rateLimitConfig(&config.Config{RateLimitRPS: 5, RateLimitBurst: 10})
	if rl.RequestsPerSecond != 5 || rl.BurstSize != 10 {
		t.Errorf("expected configured values, got %+v", rl)
	}
	if rl.IdleTTL <= 0 {
		t.Error("expected default idle ttl")
	}
}

func TestUsesDevAuth(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want bool
	}{
		{"development without keys", config.Config{Env: "development"}, true},
		{"development with signing key", config.Config{Env: "development", AuthSigningKey: "k"}, false},
		{"development with jwks", config.Config{Env: "development", AuthJWKSURL: "https://idp/jwks"}, false},
		{"production", config.Config{Env: "production"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := usesDevAuth(&tt.cfg); got != tt.want {
				t.Errorf("usesDevAuth() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMigrationsDir(t *testing.T) {
	cfg := &config.Config{MigrationsDir: "migrations"}
	if got := migrationsDir("", cfg); got != "migrations" {
		t.Errorf("expected config dir, got %q", got)
	}
	if got := migrationsDir("/opt/sql", cfg); got != "/opt/sql" {
		t.Errorf("expected flag dir, got %q", got)
	}
}

func TestFormatStatus(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	out := formatStatus([]db.MigrationStatus{
		{Version: 1, Name: "core", Applied: true, AppliedAt: &at},
		{Version: 2, Name: "documents_settings"},
	})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, rule and two rows, got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[2], "applied") || !strings.Contains(lines[2], "2026-03-01 10:30:00") {
		t.Errorf("unexpected applied row: %q", lines[2])
	}
	if !strings.Contains(lines[3], "pending") {
		t.Errorf("unexpected pending row: %q", lines[3])
	}
}
