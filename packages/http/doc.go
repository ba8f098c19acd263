// Package http executes the requests described by test cases.
//
// It wraps resty with:
//   - Per-request timeouts enforced through the request context
//   - Optional request pacing (requests per second)
//   - JSON encoding of structured request bodies
//   - Order-preserving decoding of JSON response bodies
//   - Classification of transport failures into network, timeout and
//     request errors
//
// Any completed response is returned without error, whatever its status
// code. Deciding pass or fail is left to the assertions package.
package http
