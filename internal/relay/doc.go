// Package relay provides an HTTP implementation of the domain.GatewayClient
// interface, used by telemetry producers and the CLI demo.
//
// The client speaks the gateway's JSON API. It only carries public keys,
// ciphertexts and plaintext fixes the caller chose to send; it never sees a
// session key. Non-2xx responses are returned as *StatusError, which wraps
// the matching domain sentinel where one exists so callers can use
// errors.Is across the wire.
package relay
