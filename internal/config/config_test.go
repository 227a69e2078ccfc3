package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/progress/internal/store"
)

// isolate runs the test in an empty directory with no store override set.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv(EnvStore, "")
	return dir
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	dir := isolate(t)
	cfg, err := Load(filepath.Join(dir, "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, []int{3, 7, 30}, cfg.Milestones)
	assert.Equal(t, filepath.Join(DefaultDir(), "state.json"), cfg.StoreLocation())
}

func TestLoad_YAML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	doc := `
store:
  backend: sqlite
  path: /tmp/progress.db
milestones: [5, 10]
review:
  max_interval_days: 180
remind:
  every: 30m
  start_hour: 9
  end_hour: 21
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, store.BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "/tmp/progress.db", cfg.StoreLocation())
	assert.Equal(t, []int{5, 10}, cfg.Milestones)
	assert.Equal(t, 180, cfg.Review.MaxIntervalDays)
	assert.Equal(t, 30*time.Minute, cfg.Remind.Every)
	assert.Equal(t, 9, cfg.Remind.StartHour)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: [unclosed"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	dir := isolate(t)
	cases := map[string]string{
		"backend":   "store:\n  backend: redis\n",
		"milestone": "milestones: [3, 0]\n",
		"hours":     "remind:\n  start_hour: 25\n",
		"interval":  "review:\n  max_interval_days: -1\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv(EnvStore, "/data/state.json")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/data/state.json", cfg.StoreLocation())
}

func TestLoad_EnvOverridePostgresDSN(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: postgres\n"), 0o600))
	t.Setenv(EnvStore, "postgres://localhost/progress")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/progress", cfg.StoreLocation())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.Unsetenv(EnvStore))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(EnvStore+"=from-dotenv.json\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.json", cfg.StoreLocation())
	require.NoError(t, os.Unsetenv(EnvStore))
}

func TestSaveRoundTrip(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "config.yaml")
	want := DefaultConfig()
	want.Store.Backend = store.BackendSQLite
	want.Remind.Every = 15 * time.Minute
	require.NoError(t, want.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
