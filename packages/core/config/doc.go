// Package config handles the apiflow project configuration.
//
// It provides functionality for:
//   - Loading apiflow.yaml, .apiflow.yaml or apiflow.json from the working directory
//   - Default values and validation of the loaded settings
//   - Merging command line settings on top, with the command line winning
package config
