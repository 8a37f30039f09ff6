package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/abstract-preprocessor/internal/journal"
	"github.com/ginjaninja78/abstract-preprocessor/internal/resolver"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect or edit saved journal defaults",
}

var journalShowCmd = &cobra.Command{
	Use:   "show <journal-id>",
	Short: "Print the saved defaults of a journal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openStore(mainConfig)
		if err != nil {
			return err
		}
		defer closeStore()

		cfg, err := store.Load(args[0])
		if err != nil {
			return err
		}
		for _, key := range cfg.Keys() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", key, cfg.Get(key))
		}
		return nil
	},
}

var journalSetCmd = &cobra.Command{
	Use:   "set <journal-id> key=value...",
	Short: "Change saved defaults, creating the journal config if needed",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := parseAssignments(args[1:])
		if err != nil {
			return err
		}

		store, closeStore, err := openStore(mainConfig)
		if err != nil {
			return err
		}
		defer closeStore()

		cfg, err := store.Load(args[0])
		if errors.Is(err, journal.ErrNotFound) {
			_, err = store.Create(args[0], values)
			return err
		}
		if err != nil {
			return err
		}

		for key, value := range values {
			cfg.Set(key, value)
		}
		return store.Save(cfg)
	},
}

func init() {
	journalCmd.AddCommand(journalShowCmd, journalSetCmd)
	rootCmd.AddCommand(journalCmd)
}

// knownKeys lists the journal defaults the preprocessor reads.
func knownKeys() map[string]bool {
	keys := make(map[string]bool)
	for _, f := range resolver.Fields {
		if f.Shared {
			keys[f.Name] = true
		}
	}
	for _, opt := range resolver.Questionnaire {
		keys[opt.Key] = true
	}
	return keys
}

func parseAssignments(args []string) (map[string]string, error) {
	known := knownKeys()
	values := make(map[string]string, len(args))

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		if !known[key] {
			names := make([]string, 0, len(known))
			for k := range known {
				names = append(names, k)
			}
			sort.Strings(names)
			return nil, fmt.Errorf("unknown key %q (known: %s)", key, strings.Join(names, ", "))
		}
		values[key] = strings.TrimSpace(value)
	}
	return values, nil
}
