// Package commands defines the ridecipher CLI.
//
// Commands
//
//   - serve      Run the HTTP gateway (configured from RIDECIPHER_* env)
//   - token      Issue a bearer token for a device, operator or admin
//   - secret     Print a fresh random JWT secret
//   - selftest   Run the key exchange and record round trip in process
//   - demo       Drive a running gateway as a device would
//
// # Implementation
//
// The root command builds a gateway client from --gateway and --token before
// any subcommand runs. serve ignores it and wires the server side through
// internal/app instead.
package commands
