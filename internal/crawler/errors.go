package crawler

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Error classes used across the pipeline.
var (
	ErrFetch       = errors.New("fetch failed")
	ErrParse       = errors.New("parse failed")
	ErrTranslation = errors.New("translation failed")
	ErrDetection   = errors.New("language detection failed")
	ErrStore       = errors.New("store operation failed")
	ErrStoreAuth   = errors.New("store authentication failed")
)

// FetchError describes a failed page fetch.
type FetchError struct {
	URL        string
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
}

// Unwrap exposes the cause to errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// Is matches ErrFetch.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// CategorizeFetchError returns a short label suitable for logs and metrics.
func CategorizeFetchError(err error) string {
	if err == nil {
		return "none"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var fe *FetchError
	if errors.As(err, &fe) && fe.StatusCode > 0 {
		switch {
		case fe.StatusCode >= 500:
			return "http_5xx"
		case fe.StatusCode >= 400:
			return "http_4xx"
		}
	}
	var certErr *tls.CertificateVerificationError
	var unknownAuth x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	if errors.As(err, &certErr) || errors.As(err, &unknownAuth) || errors.As(err, &hostErr) ||
		strings.Contains(strings.ToLower(err.Error()), "tls") {
		return "tls"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "timeout"
		}
		return "network"
	}
	if strings.Contains(strings.ToLower(err.Error()), "timeout") {
		return "timeout"
	}
	return "network"
}

// ErrQueueClosed is returned by Dequeue once a closed queue is drained.
var ErrQueueClosed = errors.New("queue closed")

// IsTransientFetchError reports whether a fetch failure is worth retrying.
func IsTransientFetchError(err error) bool {
	switch CategorizeFetchError(err) {
	case "timeout", "http_5xx", "network":
		return true
	default:
		return false
	}
}
