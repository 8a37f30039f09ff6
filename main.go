// =============================================================================
// Abstract Preprocessor - Main Entry Point
// =============================================================================
//
// abstractfix fills in missing metadata and corrects common submission errors
// in journal abstract XML files, then writes a problems report per issue.
//
// USAGE:
//   abstractfix process <issue-path>   - Process an issue folder (jjVV(N)/xml)
//   abstractfix journal show|set       - Inspect or edit saved journal defaults
//   abstractfix version                - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : preprocessing logic (documents, resolver, corrector, report)
//   - pkg/       : shared file utilities
//
// =============================================================================

package main

import (
	"github.com/joho/godotenv"

	"github.com/ginjaninja78/abstract-preprocessor/cmd"
)

func main() {
	// ABSTRACTFIX_* overrides may live in a .env file.
	_ = godotenv.Load()

	cmd.Execute()
}
