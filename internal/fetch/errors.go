package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// PolicyError marks a URL rejected by crawling policy (robots disallow or
// hourly ceiling). Fatal for the URL, never for the run.
type PolicyError struct {
	URL    string
	Reason string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("policy: %s: %s", e.Reason, e.URL)
}

// TerminalHTTPError is a non-retryable HTTP failure (4xx other than 429).
type TerminalHTTPError struct {
	URL    string
	Status int
}

func (e *TerminalHTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.URL)
}

// TransientError wraps the last failure after the retry budget is spent.
type TransientError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure after %d attempts: %s: %v", e.Attempts, e.URL, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// transient network-level failure signatures worth a retry
var transientSignatures = []string{
	"connection reset",
	"connection refused",
	"broken pipe",
	"no such host",
	"timeout",
	"timed out",
}

// isTransientNetErr reports whether a request error is a retryable
// network-level condition. Context cancellation is never retried.
func isTransientNetErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range transientSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

func isRetryableStatus(status int) bool {
	return status == 429 || status >= 500
}
