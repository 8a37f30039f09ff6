// =============================================================================
// Abstract Preprocessor - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs the preprocessor over
// one or more issue folders.
//
// COMMAND USAGE:
//   abstractfix process [issue-path...] [flags]
//
// FLAGS:
//   --path, -p  : Issue folder (.../jjVV(N)/xml), repeatable; positional
//                 arguments are accepted too
//   --debug, -d : Print corrected documents instead of writing them; never
//                 prompts and never saves journal defaults
//   --no-input  : Write results but never prompt
//   --answers   : Answer prompts from a YAML file
//   --xlsx      : Also write the problems report as a spreadsheet
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/abstract-preprocessor/internal/processor"
	"github.com/ginjaninja78/abstract-preprocessor/internal/prompt"
	"github.com/ginjaninja78/abstract-preprocessor/internal/resolver"
	"github.com/ginjaninja78/abstract-preprocessor/internal/species"
	"github.com/ginjaninja78/abstract-preprocessor/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	issuePaths  []string
	debugMode   bool
	noInput     bool
	answersFile string
	writeXLSX   bool
)

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process [issue-path...]",
	Short: "Fill in metadata and fix known errors in an issue's abstracts",
	Long: `The process command reads every XML file in an issue folder
(.../jjVV(N)/xml), in file-name order, and for each document:

  1. resolves required fields (document, then journal defaults, then you)
  2. fixes known submission errors
  3. writes the document back in place (the original is backed up first
     when backup_dir is configured)

Anything that could not be resolved or safely fixed is listed in
"jjVV(N) Problems.txt" next to the xml folder. Documents that cannot be
parsed are listed there too and left untouched.

The first time a journal is seen you are asked a few formatting questions
and may save the answers as that journal's defaults.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		paths := append(append([]string{}, issuePaths...), args...)
		if len(paths) == 0 {
			return fmt.Errorf("no issue path given (use --path or a positional argument)")
		}
		return runProcess(cmd, paths)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringSliceVarP(&issuePaths, "path", "p", nil, "Issue folder to process (repeatable)")
	processCmd.Flags().BoolVarP(&debugMode, "debug", "d", false, "Print corrected documents instead of writing them")
	processCmd.Flags().BoolVar(&noInput, "no-input", false, "Never prompt; unresolved fields are reported")
	processCmd.Flags().StringVar(&answersFile, "answers", "", "YAML file with answers for unattended runs")
	processCmd.Flags().BoolVar(&writeXLSX, "xlsx", false, "Also write the problems report as a spreadsheet")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(cmd *cobra.Command, paths []string) error {
	out := cmd.OutOrStdout()

	store, closeStore, err := openStore(mainConfig)
	if err != nil {
		return err
	}
	defer closeStore()

	prompter, err := choosePrompter(cmd.InOrStdin(), out)
	if err != nil {
		return err
	}

	var speciesList *species.List
	if mainConfig.SpeciesList != "" {
		speciesList, err = species.Load(mainConfig.SpeciesList)
		if err != nil {
			return err
		}
		logger.Debug("species list loaded", zap.Int("entries", speciesList.Len()))
	}

	files := utils.NewFileManager(mainConfig.BackupDir)

	p := processor.New(processor.Options{
		Store:       store,
		Prompter:    prompter,
		MaxAttempts: mainConfig.MaxPromptAttempts,
		Species:     speciesList,
		Files:       files,
		Debug:       debugMode,
		Output:      out,
		Workbook:    writeXLSX || mainConfig.ReportXLSX,
		Logger:      logger.With(zap.String("run", files.RunID)),
	})

	for _, path := range paths {
		result, err := p.Run(cmd.Context(), path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		printSummary(out, result)
	}
	return nil
}

// choosePrompter returns nil when the run must not block on input.
func choosePrompter(in io.Reader, out io.Writer) (resolver.Prompter, error) {
	switch {
	case debugMode || noInput:
		return nil, nil
	case answersFile != "":
		return prompt.LoadScripted(answersFile)
	default:
		return prompt.NewTerminal(in, out), nil
	}
}

func printSummary(out io.Writer, result *processor.Result) {
	stats := result.Stats
	heading := color.New(color.Bold)

	fmt.Fprintln(out)
	heading.Fprintf(out, "=== %s ===\n", result.Issue.Name)
	fmt.Fprintf(out, "Documents:       %d\n", stats.Documents)
	fmt.Fprintf(out, "Clean:           %d\n", stats.Clean)
	fmt.Fprintf(out, "With problems:   %d\n", stats.WithProblems)
	if stats.Failed > 0 {
		color.New(color.FgRed).Fprintf(out, "Unprocessed:     %d\n", stats.Failed)
	}
	fmt.Fprintf(out, "Fixes applied:   %d\n", stats.Fixed)
	fmt.Fprintf(out, "Files rewritten: %d\n", stats.Written)
	fmt.Fprintf(out, "Time elapsed:    %s\n", stats.ProcessingTime)
	fmt.Fprintf(out, "Report:          %s\n", relative(result.ReportPath))
	if result.WorkbookPath != "" {
		fmt.Fprintf(out, "Workbook:        %s\n", relative(result.WorkbookPath))
	}
}

func relative(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(wd, path); err == nil {
		return rel
	}
	return path
}
