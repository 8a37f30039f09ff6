package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMainConfig_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ABSTRACTFIX_JOURNAL_CONFIG_DIR", filepath.Join(dir, "journals"))

	cfg, err := LoadMainConfig(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, BackendFile, cfg.StoreBackend)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 3, cfg.MaxPromptAttempts)
	assert.False(t, cfg.ReportXLSX)
	assert.DirExists(t, filepath.Join(dir, "journals"))
}

func TestLoadMainConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
journal_config_dir: `+dir+`
store_backend: sqlite
species_list: species.txt
backup_dir: backup
log_level: debug
report_xlsx: true
max_prompt_attempts: 5
`)

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, dir+"/journals.db", cfg.SQLitePath)
	assert.Equal(t, "species.txt", cfg.SpeciesList)
	assert.Equal(t, "backup", cfg.BackupDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.ReportXLSX)
	assert.Equal(t, 5, cfg.MaxPromptAttempts)
}

func TestLoadMainConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "journal_config_dir: "+dir+"\nlog_level: info\n")

	t.Setenv("ABSTRACTFIX_LOG_LEVEL", "warn")
	t.Setenv("ABSTRACTFIX_STORE_BACKEND", "memory")
	t.Setenv("ABSTRACTFIX_REPORT_XLSX", "true")
	t.Setenv("ABSTRACTFIX_MAX_PROMPT_ATTEMPTS", "7")

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.True(t, cfg.ReportXLSX)
	assert.Equal(t, 7, cfg.MaxPromptAttempts)
}

func TestLoadMainConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
	}{
		{"unknown backend", "journal_config_dir: " + dir + "\nstore_backend: redis\n"},
		{"bad level", "journal_config_dir: " + dir + "\nlog_level: loud\n"},
		{"too many attempts", "journal_config_dir: " + dir + "\nmax_prompt_attempts: 100\n"},
		{"not yaml", "journal_config_dir: [unclosed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadMainConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}

	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("ABSTRACTFIX_REPORT_XLSX", "sometimes")
		_, err := LoadMainConfig(writeConfig(t, "journal_config_dir: "+dir+"\n"))
		assert.Error(t, err)
	})
}

func TestApplyEnvOverrides_SwitchToSQLite(t *testing.T) {
	cfg := MainConfig{JournalConfigDir: "journals"}
	applyMainConfigDefaults(&cfg)

	env := map[string]string{"ABSTRACTFIX_STORE_BACKEND": "sqlite"}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	require.NoError(t, applyEnvOverrides(&cfg, lookup))
	assert.Equal(t, "journals/journals.db", cfg.SQLitePath)
}
