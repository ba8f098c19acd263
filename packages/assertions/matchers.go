package assertions

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/apiflow/packages/value"
	"github.com/dlclark/regexp2"
)

var regexLiteral = regexp.MustCompile(`^/(.*)/([gimsuy]*)$`)

// matchTimeout bounds a single regex evaluation.
const matchTimeout = 2 * time.Second

// IsRegex reports whether v is a string shaped like /pattern/flags.
func IsRegex(v value.Value) bool {
	s, ok := v.AsString()
	return ok && regexLiteral.MatchString(s)
}

// ToRegexp compiles a /pattern/flags literal. The i, m and s flags are
// honoured; g, u and y have no meaning for a single match and are ignored.
func ToRegexp(literal string) (*regexp2.Regexp, error) {
	m := regexLiteral.FindStringSubmatch(literal)
	if m == nil {
		return nil, fmt.Errorf("invalid regex string: %s", literal)
	}
	pattern, flags := m[1], m[2]

	var opts regexp2.RegexOptions = regexp2.ECMAScript
	if strings.Contains(flags, "s") {
		// ECMAScript mode rejects Singleline
		opts = regexp2.Singleline
	}
	if strings.Contains(flags, "i") {
		opts |= regexp2.IgnoreCase
	}
	if strings.Contains(flags, "m") {
		opts |= regexp2.Multiline
	}

	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %s: %w", literal, err)
	}
	re.MatchTimeout = matchTimeout
	return re, nil
}

// MatchRegex tests actual against a regex literal. Non-string actual
// values never match.
func MatchRegex(literal string, actual value.Value) (bool, error) {
	re, err := ToRegexp(literal)
	if err != nil {
		return false, err
	}
	s, ok := actual.AsString()
	if !ok {
		return false, nil
	}
	return re.MatchString(s)
}
