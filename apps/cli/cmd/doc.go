// Package cmd implements the apiflow CLI commands using Cobra.
//
// Available commands:
//   - run: Execute API tests from YAML suite files
//   - validate: Check suite files without executing them
//   - list: Display all tests defined in suite files
//   - init: Create an example suite, config and .env.example
//   - version: Show apiflow version information
//
// Exit codes are listed in exitcodes.go.
package cmd
