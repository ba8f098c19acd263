// Package builtin provides the generator functions available inside
// {{...}} tokens of apiflow suites.
//
// Available generators:
//   - random.string(N): N random alphanumeric characters (10 when N is missing)
//   - random.number(min,max): random integer in the inclusive range
//   - random.uuid(): random UUID v4
//
// Generators never fail; random.number with unusable arguments is left to
// regular variable resolution.
package builtin
