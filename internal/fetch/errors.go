package fetch

import (
	"errors"
	"fmt"
	"net"
)

// Kind classifies a fetch failure for retry and reporting decisions.
type Kind int

const (
	// KindTransient marks failures worth retrying: timeouts, connection
	// resets, and server-side errors.
	KindTransient Kind = iota

	// KindPermanent marks failures that will not improve with retries:
	// DNS resolution errors and client-side rejections.
	KindPermanent
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Error is a typed fetch failure carrying the target URL and the
// failure classification.
type Error struct {
	// URL is the request URL that failed.
	URL string

	// Kind classifies the failure.
	Kind Kind

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s: %s failure: %v", e.URL, e.Kind, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a transient fetch failure.
func IsTransient(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == KindTransient
}

// IsPermanent reports whether err is a permanent fetch failure.
func IsPermanent(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == KindPermanent
}

// classifyNetErr decides whether a transport-level error is worth
// retrying. DNS failures are permanent: the host will not start
// resolving between attempts. Everything else (resets, timeouts,
// EOF mid-body) is transient.
func classifyNetErr(err error) Kind {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindPermanent
	}
	return KindTransient
}
