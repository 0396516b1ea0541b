package flowstore

import "errors"

var (
	// ErrDisabled is returned when no base URL or API key is configured
	ErrDisabled = errors.New("flow store not configured")
	// ErrTransport wraps connection, timeout and circuit-breaker failures
	ErrTransport = errors.New("flow store transport failure")
	// ErrHTTPStatus is returned for any response other than 200 OK
	ErrHTTPStatus = errors.New("flow store returned non-OK status")
	// ErrDecode wraps malformed, oversized or invalid template payloads
	ErrDecode = errors.New("flow store returned malformed template")
)

// Kind names the failure class of err for logs and metrics
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrDisabled):
		return "disabled"
	case errors.Is(err, ErrHTTPStatus):
		return "http_status"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "unknown"
	}
}
