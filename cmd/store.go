package cmd

import (
	"fmt"

	"github.com/ginjaninja78/abstract-preprocessor/internal/config"
	"github.com/ginjaninja78/abstract-preprocessor/internal/journal"
)

// openStore opens the journal store selected by the configuration. The
// returned close function is never nil.
func openStore(cfg *config.MainConfig) (journal.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreBackend {
	case config.BackendSQLite:
		store, err := journal.OpenSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	case config.BackendMemory:
		return journal.NewMemoryStore(), noop, nil
	default:
		store, err := journal.NewFileStore(cfg.JournalConfigDir)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open journal config directory: %w", err)
		}
		return store, noop, nil
	}
}
