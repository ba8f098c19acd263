package parser

import (
	"errors"
	"os"

	"github.com/abdul-hamid-achik/apiflow/packages/value"
	"gopkg.in/yaml.v3"
)

func ParseFile(path string) (*Suite, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(content, path)
}

// Parse reads a suite from YAML. Malformed YAML yields a *ParseError and a
// structurally invalid suite a *ValidationError; in both cases no test of
// the file should run.
func Parse(data []byte, path string) (*Suite, error) {
	raw, err := ParseRaw(data, path)
	if err != nil {
		return nil, err
	}

	if err := ValidateConfig(raw); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			verr.File = path
		}
		return nil, err
	}

	return DecodeSuite(raw, path)
}

// ParseRaw reads YAML into a value tree without validating it.
func ParseRaw(data []byte, path string) (value.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return value.Undefined, newParseError(path, err)
	}
	if doc.Kind == 0 {
		return value.Null, nil
	}

	raw, err := value.FromYAML(&doc)
	if err != nil {
		return value.Undefined, newParseError(path, err)
	}
	return raw, nil
}
