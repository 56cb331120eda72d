package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(nil, "")
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.UserID)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "0 0 * * *", cfg.DailyReplan)
	assert.Equal(t, 30*time.Second, cfg.Reconcile)
	assert.Equal(t, "desktop", cfg.Notifier)
	assert.Equal(t, "gymbuddy.db", filepath.Base(cfg.DBPath))
	assert.False(t, cfg.Firestore.Enabled)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
user_id: ana
log_level: debug
daily_replan: "30 5 * * *"
notifier: none
metrics_addr: ":9090"
firestore:
  enabled: true
  project_id: gymbuddy-prod
`)
	cfg, err := Load(nil, path)
	require.NoError(t, err)

	assert.Equal(t, "ana", cfg.UserID)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "30 5 * * *", cfg.DailyReplan)
	assert.Equal(t, "none", cfg.Notifier)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.True(t, cfg.Firestore.Enabled)
	assert.Equal(t, "gymbuddy-prod", cfg.Firestore.ProjectID)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "user_id: ana\n")
	t.Setenv("GYMBUDDY_USER_ID", "bruno")
	t.Setenv("GYMBUDDY_FIRESTORE_PROJECT_ID", "from-env")

	cfg, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, "bruno", cfg.UserID)
	assert.Equal(t, "from-env", cfg.Firestore.ProjectID)
}

func TestExplicitValueWins(t *testing.T) {
	path := writeConfig(t, "user_id: ana\n")
	v := viper.New()
	v.Set("user_id", "flag-user")

	cfg, err := Load(v, path)
	require.NoError(t, err)
	assert.Equal(t, "flag-user", cfg.UserID)
}

func TestMissingExplicitFileFails(t *testing.T) {
	_, err := Load(nil, filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	cases := map[string]string{
		"bad notifier":              "notifier: pager\n",
		"bad cron":                  "daily_replan: \"every day\"\n",
		"bad level":                 "log_level: loud\n",
		"bad metrics addr":          "metrics_addr: \"nope\"\n",
		"firestore without project": "firestore:\n  enabled: true\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(nil, writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}
