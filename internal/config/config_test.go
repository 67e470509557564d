package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, int32(25), cfg.Database.MaxConns)
	assert.Equal(t, 6379, cfg.Redis.Port)

	assert.Equal(t, 3, cfg.Library.MaxBooksPerMember)
	assert.Equal(t, 14, cfg.Library.MaxIssueDuration)
	assert.Equal(t, "KFGC-000", cfg.Library.RackNumberFormat)
	assert.Equal(t, "MBR-2025-000", cfg.Library.MemberIDFormat)
	assert.Equal(t, 25*time.Hour, cfg.Library.StaleAfter())

	fine, err := cfg.Library.FinePerDayDecimal()
	require.NoError(t, err)
	assert.Equal(t, "10", fine.String())

	assert.Equal(t, "notifications", cfg.Notifications.QueuePrefix)
	assert.Equal(t, 3, cfg.Notifications.MaxRetries)
	assert.Equal(t, 15*time.Second, cfg.Notifications.PollInterval)
	assert.False(t, cfg.Events.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("LMS_SERVER_PORT", "9090")
	t.Setenv("LMS_DATABASE_HOST", "testhost")
	t.Setenv("LMS_LIBRARY_MAX_BOOKS_PER_MEMBER", "5")
	t.Setenv("LMS_LIBRARY_FINE_PER_DAY", "2.50")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/lms?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "testhost", cfg.Database.Host)
	assert.Equal(t, 5, cfg.Library.MaxBooksPerMember)
	assert.Equal(t, "postgres://u:p@db:5432/lms?sslmode=disable", cfg.Database.ConnString())

	fine, err := cfg.Library.FinePerDayDecimal()
	require.NoError(t, err)
	assert.Equal(t, "2.5", fine.String())
}

func TestLoad_RejectsInvalidLibrarySettings(t *testing.T) {
	t.Setenv("LMS_LIBRARY_MAX_ISSUE_DURATION", "0")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "max_issue_duration")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{Library: LibraryConfig{
			MaxBooksPerMember:     3,
			MaxIssueDuration:      14,
			FinePerDay:            "10.00",
			StaleReservationHours: 25,
			Timezone:              "UTC",
		}}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero cap", mutate: func(c *Config) { c.Library.MaxBooksPerMember = 0 }, wantErr: "max_books_per_member"},
		{name: "negative fine", mutate: func(c *Config) { c.Library.FinePerDay = "-1" }, wantErr: "fine_per_day"},
		{name: "garbage fine", mutate: func(c *Config) { c.Library.FinePerDay = "ten" }, wantErr: "not a decimal"},
		{name: "bad timezone", mutate: func(c *Config) { c.Library.Timezone = "Mars/Olympus" }, wantErr: "timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_ConnString(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: 5432, User: "u", Password: "p", Name: "lms", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/lms?sslmode=disable", d.ConnString())
}
