// Package output renders run results.
//
// Console output is meant for people; json, junit and tap are reports for
// other tools and are written without colour. Formatters that need the
// whole run before writing anything (json, junit) implement Flushable.
package output
