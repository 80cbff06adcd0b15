// Package app wires the ridecipher runtime: configuration, logging, the
// session vault and manager, the record sink, metrics and the HTTP gateway.
//
// NewWire builds the object graph from a Config; App.Run serves it until the
// context ends and then shuts down in order: HTTP first, then the manager,
// which stops the sweeper and wipes every remaining session key.
package app
