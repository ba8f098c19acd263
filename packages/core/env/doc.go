// Package env handles the variable namespace of a suite run and the
// interpolation of {{...}} tokens.
//
// It provides functionality for:
//   - The layered Context (saved, yaml, cliEnv, dotenvEnv)
//   - Loading .env files and the process environment
//   - Parsing KEY=VALUE command line overrides
//   - Interpolating tokens throughout a value tree, including the
//     random.* generators and pass-through of saveAs markers
package env
