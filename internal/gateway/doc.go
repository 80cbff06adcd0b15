// Package gateway exposes an encryption.Manager over JSON/HTTP.
//
// Routes:
//
//	POST   /v1/sessions                 key exchange, returns a handshake
//	POST   /v1/sessions/{id}/encrypt    seal one location fix
//	POST   /v1/sessions/{id}/decrypt    open one record
//	DELETE /v1/sessions/{id}            end a session
//	GET    /v1/stats                    vault occupancy
//	GET    /v1/rides/{ride}/records     stored records of a ride
//	GET    /metrics                     Prometheus exposition
//	GET    /healthz                     liveness
//
// Binary fields travel as base64 strings. When a TokenVerifier is configured
// every /v1 route requires a bearer token whose role grants the route's
// capability; without one the gateway is open.
package gateway
