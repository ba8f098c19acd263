// Package assertions checks HTTP responses against the expect block of a
// test case.
//
// Checks run in a fixed order and stop at the first failure:
//   - Status code equality
//   - Headers, by exact value or /regex/flags literal
//   - JSONPath expressions compared with the declared values
//   - Body, compared structurally with DeepCompare
//
// In an expected body, strings shaped like /pattern/flags are matched as
// regular expressions against the actual string, and {{saveAs:name}}
// leaves capture the actual value instead of comparing it. There is no way
// to escape a literal string that looks like a regex.
package assertions
