package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// LoadSystemEnv returns the process environment. With a prefix, only
// matching keys are returned and the prefix is stripped.
func LoadSystemEnv(prefix string) map[string]string {
	result := make(map[string]string)
	for _, e := range os.Environ() {
		key, value, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		if prefix == "" {
			result[key] = value
		} else if len(key) > len(prefix) && strings.HasPrefix(key, prefix) {
			result[key[len(prefix):]] = value
		}
	}
	return result
}

// LoadDotenvLayer builds the dotenvEnv layer: the process environment
// overlaid with the entries of the env file at path. A missing file is
// only an error when required is set.
func LoadDotenvLayer(path string, required bool) (map[string]string, error) {
	result := LoadSystemEnv("")
	if path == "" {
		return result, nil
	}

	fileVars, err := LoadDotEnv(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return result, nil
		}
		return nil, err
	}
	return MergeStrings(result, fileVars), nil
}

// ParseOverrides parses KEY=VALUE pairs supplied on the command line.
func ParseOverrides(pairs []string) (map[string]string, error) {
	result := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid variable override %q: expected KEY=VALUE", pair)
		}
		result[key] = value
	}
	return result, nil
}

// MergeStrings merges maps left to right; later sources win.
func MergeStrings(sources ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}
