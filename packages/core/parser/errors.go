package parser

import (
	"fmt"
	"regexp"
	"strconv"
)

// ParseError reports a suite file that is not well-formed YAML.
type ParseError struct {
	File    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ValidationError reports a structurally invalid suite. TestIndex is the
// 1-based position of the offending test, or 0 for suite-level problems.
type ValidationError struct {
	File      string
	TestIndex int
	Field     string
	Message   string
}

func (e *ValidationError) Error() string {
	if e.File != "" {
		return e.File + ": " + e.Message
	}
	return e.Message
}

var yamlLinePattern = regexp.MustCompile(`line (\d+)`)

func newParseError(file string, err error) *ParseError {
	pe := &ParseError{File: file, Message: err.Error()}
	if m := yamlLinePattern.FindStringSubmatch(err.Error()); m != nil {
		pe.Line, _ = strconv.Atoi(m[1])
	}
	return pe
}
