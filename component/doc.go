// Package component manages the lifecycle of the long-running parts of a
// service: the HTTP host and the telemetry exporters.
//
// Components are started in registration order, stopped in reverse order and
// report their health to the /health endpoint.
package component
