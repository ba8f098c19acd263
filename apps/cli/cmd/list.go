package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/apiflow/packages/core/parser"
)

var listCmd = &cobra.Command{
	Use:   "list <file|directory>...",
	Short: "List all tests in suite files",
	Long: `List all tests defined in suite files.

Examples:
  apiflow list tests/users.yaml
  apiflow list ./tests/`,
	Args: cobra.MinimumNArgs(1),
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}
	if len(files) == 0 {
		return withExitCode(ExitUsageError, fmt.Errorf("no .yaml or .yml files found"))
	}

	for _, file := range files {
		suite, err := parser.ParseFile(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error parsing %s: %v\n", file, err)
			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n%s: %s\n", file, suite.Name)
		for _, tc := range suite.Tests {
			fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s (%s %s)\n", tc.Index, tc.Name, tc.Request.Method, tc.Request.URL)
		}
	}

	return nil
}
