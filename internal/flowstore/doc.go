/*
Package flowstore reads flow templates from the remote flow store.

A Client issues one authenticated GET per call:

	GET <base>/FLOWS/<id>
	x-api-key: <key>

Get reports failures with the sentinel errors ErrTransport, ErrHTTPStatus and
ErrDecode. FetchTemplate absorbs every failure into "absent", logging the
failure class, so callers can fall back to their static copy.

Requests go through the shared HTTP client: no retries by default, a
configurable timeout, a circuit breaker, and a 5 MiB cap on response bodies.
A client without a base URL or API key is disabled and never touches the
network.
*/
package flowstore
