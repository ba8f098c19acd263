package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/apiflow/packages/import/curl"
)

var (
	importOutputFlag string
	importNameFlag   string
	importStatusFlag int
)

var importCmd = &cobra.Command{
	Use:   "import <format> <source>",
	Short: "Generate suites from other request formats",
	Long: `Generate apiflow suites from other request formats.

Supported formats:
  curl - a file of curl commands, one per line (backslash continuations allowed)

Examples:
  apiflow import curl requests.sh
  apiflow import curl requests.sh -o tests/users.yaml --name users
  pbpaste | apiflow import curl -`,
}

var importCurlCmd = &cobra.Command{
	Use:   "curl <file|->",
	Short: "Import curl commands",
	Long: `Convert curl commands into an apiflow suite. When every command targets
the same host it becomes the suite baseUrl; query strings become query
parameters and JSON bodies are kept structured.`,
	Args: cobra.ExactArgs(1),
	RunE: importCurlCommand,
}

func init() {
	importCurlCmd.Flags().StringVarP(&importOutputFlag, "output", "o", "", "Output file path (default: stdout)")
	importCurlCmd.Flags().StringVar(&importNameFlag, "name", "", "Suite name (default: source file name)")
	importCurlCmd.Flags().IntVar(&importStatusFlag, "status", 200, "Status code every generated test expects")

	importCmd.AddCommand(importCurlCmd)
}

func importCurlCommand(cmd *cobra.Command, args []string) error {
	source := args[0]

	name := importNameFlag
	if name == "" {
		name = "imported"
		if source != "-" {
			name = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
		}
	}

	converter := curl.NewConverter(curl.WithSuiteName(name), curl.WithStatusCode(importStatusFlag))
	content, err := converter.ConvertFile(source)
	if err != nil {
		return withExitCode(ExitParseError, fmt.Errorf("failed to convert curl commands: %w", err))
	}

	if importOutputFlag == "" {
		_, err := cmd.OutOrStdout().Write(content)
		return err
	}

	if dir := filepath.Dir(importOutputFlag); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(importOutputFlag, content, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported to %s\n", importOutputFlag)
	return nil
}
