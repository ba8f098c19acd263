// Package value defines the JSON-like tree used for test suites, request
// bodies and response bodies.
//
// A Value is one of Undefined, Null, Bool, Number, String, Sequence or
// Mapping. Mappings keep key order, which matters for the comparator:
// expected keys are checked in the order they were written.
package value
