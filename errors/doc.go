// Package errors provides the structured error type shared by the plugin,
// the auth subsystem and the HTTP host. Errors carry a machine-readable code,
// an HTTP status and an optional cause, and render to RFC 7807 style bodies.
package errors
