package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"SHIFTVOTE_HTTP_PORT",
		"SHIFTVOTE_SQLITE_DSN",
		"SHIFTVOTE_TIMEZONE",
		"SHIFTVOTE_PERIOD_MODEL",
		"SHIFTVOTE_QUOTA_FIXED",
		"SHIFTVOTE_QUOTA_ROTATING",
		"SHIFTVOTE_QUOTA_UPPER_BOUND",
		"SHIFTVOTE_CROSS_CATEGORY_RULE",
		"SHIFTVOTE_ROSTER_PATH",
		"SHIFTVOTE_ADMIN_ID",
		"SHIFTVOTE_ADMIN_PASSWORD",
		"SHIFTVOTE_SESSION_TTL",
	}
	for _, key := range keys {
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func TestLoad(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHIFTVOTE_ADMIN_ID", "admin")
		t.Setenv("SHIFTVOTE_ADMIN_PASSWORD", "secret")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Errorf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:shiftvote.db" {
			t.Errorf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.PeriodModel != PeriodModelMonth {
			t.Errorf("expected month period model, got %q", cfg.PeriodModel)
		}
		if cfg.QuotaFixed != 3 || cfg.QuotaRotating != 2 || cfg.QuotaUpperBound != 20 {
			t.Errorf("unexpected quota defaults: %+v", cfg)
		}
		if !cfg.CrossCategoryRule {
			t.Errorf("expected cross-category rule on by default")
		}
		if cfg.SessionTTL != 24*time.Hour {
			t.Errorf("expected 24h session TTL, got %v", cfg.SessionTTL)
		}
		if cfg.Timezone != "Asia/Taipei" {
			t.Errorf("expected default timezone Asia/Taipei, got %q", cfg.Timezone)
		}
	})

	t.Run("errors when admin credentials are missing", func(t *testing.T) {
		clearEnv(t)

		_, err := Load()
		if err == nil {
			t.Fatal("expected error for missing admin credentials")
		}
		if !strings.Contains(err.Error(), "SHIFTVOTE_ADMIN_ID") || !strings.Contains(err.Error(), "SHIFTVOTE_ADMIN_PASSWORD") {
			t.Errorf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("parses overrides", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHIFTVOTE_ADMIN_ID", "admin")
		t.Setenv("SHIFTVOTE_ADMIN_PASSWORD", "secret")
		t.Setenv("SHIFTVOTE_HTTP_PORT", "9090")
		t.Setenv("SHIFTVOTE_PERIOD_MODEL", "isoweek")
		t.Setenv("SHIFTVOTE_QUOTA_FIXED", "5")
		t.Setenv("SHIFTVOTE_CROSS_CATEGORY_RULE", "false")
		t.Setenv("SHIFTVOTE_SESSION_TTL", "1h")
		t.Setenv("SHIFTVOTE_ROSTER_PATH", "/data/emoinfo.json")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 || cfg.PeriodModel != PeriodModelISOWeek {
			t.Errorf("unexpected overrides: %+v", cfg)
		}
		if cfg.QuotaFixed != 5 || cfg.CrossCategoryRule || cfg.SessionTTL != time.Hour {
			t.Errorf("unexpected overrides: %+v", cfg)
		}
		if cfg.RosterPath != "/data/emoinfo.json" {
			t.Errorf("unexpected roster path: %q", cfg.RosterPath)
		}
	})

	t.Run("rejects malformed values", func(t *testing.T) {
		cases := map[string]string{
			"SHIFTVOTE_HTTP_PORT":    "not-a-port",
			"SHIFTVOTE_PERIOD_MODEL": "fortnight",
			"SHIFTVOTE_QUOTA_FIXED":  "0",
			"SHIFTVOTE_SESSION_TTL":  "-1h",
			"SHIFTVOTE_TIMEZONE":     "Mars/Olympus",
		}
		for key, value := range cases {
			t.Run(key, func(t *testing.T) {
				clearEnv(t)
				t.Setenv("SHIFTVOTE_ADMIN_ID", "admin")
				t.Setenv("SHIFTVOTE_ADMIN_PASSWORD", "secret")
				t.Setenv(key, value)

				_, err := Load()
				if err == nil {
					t.Fatalf("expected error for %s=%s", key, value)
				}
				if !strings.Contains(err.Error(), key) {
					t.Errorf("expected %s named in error, got %q", key, err.Error())
				}
			})
		}
	})

	t.Run("rejects quota above upper bound", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SHIFTVOTE_ADMIN_ID", "admin")
		t.Setenv("SHIFTVOTE_ADMIN_PASSWORD", "secret")
		t.Setenv("SHIFTVOTE_QUOTA_FIXED", "25")

		if _, err := Load(); err == nil {
			t.Fatal("expected error when quota exceeds upper bound")
		}
	})
}
