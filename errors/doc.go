// Package errors provides the structured error type shared by the hub,
// the HTTP API and the ingress consumers.
//
// Every error carries a machine-readable ErrorCode. Delivery failures
// (SEND_FAILURE, CLIENT_TIMEOUT, MISSING_TARGET_ID) are recorded by the hub
// and never returned to broadcast callers; CAPACITY_EXCEEDED is returned from
// Connect and mapped to 503 by the HTTP layer.
package errors
