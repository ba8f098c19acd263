// Package runner executes apiflow suite files.
//
// Tests within a file run strictly in order: each test is interpolated
// against the file's variable context right before it runs, so values
// captured with saveAs by one test are visible to every later test of the
// same file. Every test yields exactly one TestResult, whose Status tells
// a failed assertion apart from a test that could not be executed.
//
// Files are independent. RunFiles can run them in parallel with a bounded
// number of workers; each file gets its own copy of the base context.
package runner
