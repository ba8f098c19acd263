// Package parser loads apiflow suite files.
//
// A suite is a YAML document with a name, an optional baseUrl, a variables
// block and a list of tests. Each test has a request (method, url, headers,
// query, body, timeout) and an expect block (statusCode, headers, body,
// jsonpath).
//
// Loading keeps the raw value tree of every test alongside the decoded
// form. Tests are interpolated from that tree right before they run, so
// values captured by earlier tests are visible to later ones.
package parser
