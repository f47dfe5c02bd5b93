// Package logger is the zerolog-backed structured logger used across the
// module.
//
//	logging:
//	  level: info
//	  format: json # or console
//
// Loggers are scoped with WithComponent and WithContext; the latter picks
// up the request ID set by the request-ID middleware and the active
// OpenTelemetry span. Fields named authorization, token, tokens, publicKey,
// password or secret are written as [REDACTED].
//
//	log := logger.WithComponent("auth")
//	log.Info("strategy registered", logger.Fields(logger.FieldStrategy, "bearer"))
package logger
