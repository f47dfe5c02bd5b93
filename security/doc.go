// Package security builds the server-side TLS configuration for services
// that accept bearer, plan3Key and JWT credentials.
//
//	tls:
//	  cert_file: /etc/newsroom/tls.crt
//	  key_file: /etc/newsroom/tls.key
//	  client_ca_file: /etc/newsroom/partners-ca.pem
//	  client_auth: verify_if_given
//
// A zero TLSConfig means plain HTTP (h2c).
package security
