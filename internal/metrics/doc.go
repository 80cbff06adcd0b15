// Package metrics exports Prometheus series for the encryption core and the
// HTTP gateway.
//
// Metrics implements domain.Observer so the manager and the vault can report
// events without importing Prometheus. Each Metrics owns its registry; two
// instances never collide.
package metrics
