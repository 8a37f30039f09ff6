package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/abstract-preprocessor/internal/config"
	"github.com/ginjaninja78/abstract-preprocessor/internal/journal"
	"github.com/ginjaninja78/abstract-preprocessor/internal/prompt"
)

func TestParseAssignments(t *testing.T) {
	values, err := parseAssignments([]string{"issue-date=2020-03", "bold-headers = true"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		journal.KeyIssueDate:   "2020-03",
		journal.KeyBoldHeaders: "true",
	}, values)

	_, err = parseAssignments([]string{"issue-date"})
	assert.Error(t, err)

	_, err = parseAssignments([]string{"colour=blue"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown key")

	// Per-document and per-issue fields are never journal defaults.
	_, err = parseAssignments([]string{"title=x"})
	assert.Error(t, err)
	_, err = parseAssignments([]string{"volume=20"})
	assert.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  config.MainConfig
		want interface{}
	}{
		{"file", config.MainConfig{StoreBackend: config.BackendFile, JournalConfigDir: dir}, &journal.FileStore{}},
		{"sqlite", config.MainConfig{StoreBackend: config.BackendSQLite, SQLitePath: filepath.Join(dir, "j.db")}, &journal.SQLiteStore{}},
		{"memory", config.MainConfig{StoreBackend: config.BackendMemory}, &journal.MemoryStore{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, closeStore, err := openStore(&tt.cfg)
			require.NoError(t, err)
			defer closeStore()
			assert.IsType(t, tt.want, store)
		})
	}
}

func TestChoosePrompter(t *testing.T) {
	defer func() { debugMode, noInput, answersFile = false, false, "" }()

	debugMode = true
	p, err := choosePrompter(strings.NewReader(""), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Nil(t, p)

	debugMode, noInput = false, false
	p, err = choosePrompter(strings.NewReader(""), &bytes.Buffer{})
	require.NoError(t, err)
	assert.IsType(t, &prompt.Terminal{}, p)

	answersFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = choosePrompter(strings.NewReader(""), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "abstractfix.log")

	l, err := newLogger(&config.MainConfig{LogLevel: "warn", LogFile: logFile}, false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(-1))

	l, err = newLogger(&config.MainConfig{LogLevel: "warn"}, true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(-1))

	_, err = newLogger(&config.MainConfig{LogLevel: "loud"}, false)
	assert.Error(t, err)
}
