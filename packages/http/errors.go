package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"
)

// NetworkError reports that the server could not be reached: the
// connection was refused or the host could not be resolved.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("Network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError reports that no response arrived within the request timeout.
type TimeoutError struct {
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("Request timed out after %dms", e.Timeout.Milliseconds())
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// RequestError covers every other transport failure.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("Request failed: %v", e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// classifyError maps a transport error onto NetworkError, TimeoutError or
// RequestError.
func classifyError(err error, timeout time.Duration) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &TimeoutError{Timeout: timeout, Err: err}
	}

	var dnsErr *net.DNSError
	if errors.Is(err, syscall.ECONNREFUSED) || errors.As(err, &dnsErr) {
		return &NetworkError{Err: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return &NetworkError{Err: err}
	}

	return &RequestError{Err: err}
}
