// Package bootstrap runs a service through its lifecycle: configure
// (plugins and routes), start components, ready check, wait for a signal,
// graceful shutdown in reverse order.
package bootstrap
