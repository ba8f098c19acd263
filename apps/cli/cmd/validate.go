package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/apiflow/packages/capture"
	"github.com/abdul-hamid-achik/apiflow/packages/core/env"
	"github.com/abdul-hamid-achik/apiflow/packages/core/parser"
	"github.com/abdul-hamid-achik/apiflow/packages/value"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>...",
	Short: "Validate suite files without executing them",
	Long: `Validate suite files without executing them. Each file is parsed and
checked for the required fields; variables that no layer defines and no
earlier test captures are reported as warnings.

Examples:
  apiflow validate tests/users.yaml
  apiflow validate ./tests/ -e API_KEY=x`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

var validateEnvFlag []string

func init() {
	validateCmd.Flags().StringArrayVarP(&validateEnvFlag, "env", "e", nil, "Set a variable as KEY=VALUE (repeatable)")
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}
	if len(files) == 0 {
		return withExitCode(ExitUsageError, fmt.Errorf("no .yaml or .yml files found"))
	}

	cliVars, err := env.ParseOverrides(validateEnvFlag)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}
	dotenvVars, err := env.LoadDotenvLayer(projectConfig.DefaultEnv, false)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	hasErrors := false
	for _, file := range files {
		suite, err := parser.ParseFile(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s (%d tests)\n", file, len(suite.Tests))

		vars := env.NewContext()
		vars.SetStrings(env.LayerCLI, cliVars)
		vars.SetStrings(env.LayerDotenv, dotenvVars)
		vars.SetMapping(env.LayerYAML, suite.Variables)
		for _, w := range unresolvedWarnings(suite, vars) {
			fmt.Fprintf(cmd.OutOrStdout(), "  warning: %s\n", w)
		}
	}

	if hasErrors {
		return silentExit(ExitParseError)
	}
	return nil
}

// unresolvedWarnings lists variable references no layer can resolve.
// Names captured by an earlier test count as defined from then on.
func unresolvedWarnings(suite *parser.Suite, vars *env.Context) []string {
	var warnings []string
	captured := make(map[string]value.Value)

	if base := suite.BaseURL; base != "" {
		for _, name := range env.UnresolvedVariables(base, vars) {
			warnings = append(warnings, fmt.Sprintf("baseUrl references undefined variable %s", name))
		}
	}

	for _, tc := range suite.Tests {
		seen := make(map[string]bool)
		walkStrings(tc.Raw, func(s string) {
			for _, name := range env.UnresolvedVariables(s, vars) {
				if !seen[name] {
					seen[name] = true
					warnings = append(warnings, fmt.Sprintf("test %q references undefined variable %s", tc.Name, name))
				}
			}
		})
		walkStrings(tc.Expect.Body, func(s string) {
			if name, ok := capture.SaveAsMarker(s); ok {
				captured[name] = value.NewString("")
			}
		})
		vars.Save(captured)
	}
	return warnings
}

func walkStrings(v value.Value, fn func(string)) {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()
		fn(s)
	case value.KindSequence:
		for _, item := range v.Items() {
			walkStrings(item, fn)
		}
	case value.KindMapping:
		m := v.Map()
		for _, k := range m.Keys() {
			item, _ := m.Get(k)
			walkStrings(item, fn)
		}
	}
}
