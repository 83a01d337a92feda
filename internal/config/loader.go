// Package config loads service configuration from the process environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// PeriodModel selects how voting periods are keyed.
type PeriodModel string

const (
	// PeriodModelMonth keys periods as calendar months ("2006-01").
	PeriodModelMonth PeriodModel = "month"
	// PeriodModelISOWeek keys periods as ISO 8601 weeks ("2006-W02").
	PeriodModelISOWeek PeriodModel = "isoweek"
)

// Config captures environment driven configuration values for the voting
// service.
type Config struct {
	HTTPPort          int
	SQLiteDSN         string
	Timezone          string
	PeriodModel       PeriodModel
	QuotaFixed        int
	QuotaRotating     int
	QuotaUpperBound   int
	CrossCategoryRule bool
	RosterPath        string
	AdminID           string
	AdminPassword     string
	SessionTTL        time.Duration
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to defaults; required values and malformed
// entries are reported with localized error messages.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:          8080,
		SQLiteDSN:         "file:shiftvote.db",
		Timezone:          "Asia/Taipei",
		PeriodModel:       PeriodModelMonth,
		QuotaFixed:        3,
		QuotaRotating:     2,
		QuotaUpperBound:   20,
		CrossCategoryRule: true,
		SessionTTL:        24 * time.Hour,
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("SHIFTVOTE_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "SHIFTVOTE_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("SHIFTVOTE_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if tz := strings.TrimSpace(os.Getenv("SHIFTVOTE_TIMEZONE")); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			invalid = append(invalid, "SHIFTVOTE_TIMEZONE")
		} else {
			cfg.Timezone = tz
		}
	}

	if model := strings.TrimSpace(os.Getenv("SHIFTVOTE_PERIOD_MODEL")); model != "" {
		switch PeriodModel(model) {
		case PeriodModelMonth, PeriodModelISOWeek:
			cfg.PeriodModel = PeriodModel(model)
		default:
			invalid = append(invalid, "SHIFTVOTE_PERIOD_MODEL")
		}
	}

	parseQuota := func(key string, target *int) {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			quota, err := strconv.Atoi(value)
			if err != nil || quota < 1 {
				invalid = append(invalid, key)
			} else {
				*target = quota
			}
		}
	}
	parseQuota("SHIFTVOTE_QUOTA_FIXED", &cfg.QuotaFixed)
	parseQuota("SHIFTVOTE_QUOTA_ROTATING", &cfg.QuotaRotating)
	parseQuota("SHIFTVOTE_QUOTA_UPPER_BOUND", &cfg.QuotaUpperBound)

	if ruleValue := strings.TrimSpace(os.Getenv("SHIFTVOTE_CROSS_CATEGORY_RULE")); ruleValue != "" {
		rule, err := strconv.ParseBool(ruleValue)
		if err != nil {
			invalid = append(invalid, "SHIFTVOTE_CROSS_CATEGORY_RULE")
		} else {
			cfg.CrossCategoryRule = rule
		}
	}

	cfg.RosterPath = strings.TrimSpace(os.Getenv("SHIFTVOTE_ROSTER_PATH"))

	if adminID := strings.TrimSpace(os.Getenv("SHIFTVOTE_ADMIN_ID")); adminID == "" {
		missing = append(missing, "SHIFTVOTE_ADMIN_ID")
	} else {
		cfg.AdminID = adminID
	}

	if password := os.Getenv("SHIFTVOTE_ADMIN_PASSWORD"); password == "" {
		missing = append(missing, "SHIFTVOTE_ADMIN_PASSWORD")
	} else {
		cfg.AdminPassword = password
	}

	if ttlValue := strings.TrimSpace(os.Getenv("SHIFTVOTE_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "SHIFTVOTE_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if cfg.QuotaFixed > cfg.QuotaUpperBound || cfg.QuotaRotating > cfg.QuotaUpperBound {
		invalid = append(invalid, "SHIFTVOTE_QUOTA_UPPER_BOUND")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("缺少必要的環境變數: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境變數的值無效: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// Location resolves the configured timezone. Load has already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
