package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/apiflow/packages/core/config"
)

var (
	forceInit   bool
	initName    string
	initBaseURL string
	initDir     string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new apiflow project",
	Long: `Initialize a new apiflow project in the current directory.

This creates:
  - tests/<name>.yaml - Example test suite
  - apiflow.yaml      - Project configuration
  - .env.example      - Example environment variables

Examples:
  apiflow init
  apiflow init --name users --base-url http://localhost:8080
  apiflow init --force`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
	initCmd.Flags().StringVar(&initName, "name", "example", "Name of the example suite")
	initCmd.Flags().StringVar(&initBaseURL, "base-url", "http://localhost:3000", "Base URL of the API under test")
	initCmd.Flags().StringVar(&initDir, "dir", "tests", "Directory for the example suite")
}

var suiteNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

const exampleSuite = `name: %[1]s
baseUrl: %[2]s

variables:
  userName: John Doe

tests:
  - name: ping
    request:
      method: GET
      url: /ping
    expect:
      statusCode: 200

  - name: create user
    request:
      method: POST
      url: /users
      headers:
        Authorization: "Bearer {{API_KEY}}"
      body:
        name: "{{userName}}"
        email: "john+{{random.string(6)}}@example.com"
    expect:
      statusCode: 201
      headers:
        Content-Type: /application\/json/
      body:
        id: "{{saveAs:userId}}"
        name: "{{userName}}"

  - name: get user
    request:
      method: GET
      url: /users/{{userId}}
      headers:
        Authorization: "Bearer {{API_KEY}}"
    expect:
      statusCode: 200
      jsonpath:
        $.id: "{{userId}}"
        $.email: /@example\.com$/
`

const exampleEnv = `# API Configuration
API_KEY=your_api_key_here

# Custom Variables
USER_EMAIL=test@example.com
`

func initCommand(cmd *cobra.Command, args []string) error {
	if !suiteNamePattern.MatchString(initName) {
		return withExitCode(ExitUsageError, fmt.Errorf("invalid suite name %q: use letters, digits, '-' and '_'", initName))
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	suiteFile := filepath.Join(cwd, initDir, initName+".yaml")
	configFile := filepath.Join(cwd, config.ConfigFilenames[0])
	envFile := filepath.Join(cwd, ".env.example")

	if !forceInit {
		for _, f := range []string{suiteFile, configFile, envFile} {
			if _, err := os.Stat(f); err == nil {
				return withExitCode(ExitUsageError, fmt.Errorf("file already exists: %s (use --force to overwrite)", f))
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(suiteFile), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(suiteFile), err)
	}
	if err := os.WriteFile(suiteFile, []byte(fmt.Sprintf(exampleSuite, initName, initBaseURL)), 0644); err != nil {
		return fmt.Errorf("failed to create example suite: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", suiteFile)

	cfg := config.DefaultConfig()
	cfg.BaseURL = initBaseURL
	cfg.Headers = map[string]string{"User-Agent": "apiflow/" + version}
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.WriteFile(envFile, []byte(exampleEnv), 0644); err != nil {
		return fmt.Errorf("failed to create %s: %w", envFile, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", envFile)

	rel := filepath.Join(initDir, initName+".yaml")
	fmt.Fprintf(cmd.OutOrStdout(), "\napiflow project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Next steps:\n")
	fmt.Fprintf(cmd.OutOrStdout(), "  1. Copy .env.example to .env and fill in API_KEY\n")
	fmt.Fprintf(cmd.OutOrStdout(), "  2. Edit %s\n", rel)
	fmt.Fprintf(cmd.OutOrStdout(), "  3. Run 'apiflow run %s'\n", rel)

	return nil
}
