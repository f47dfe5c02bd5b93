package security

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// Client certificate policies accepted in TLSConfig.ClientAuth.
const (
	ClientAuthNone          = "none"
	ClientAuthRequest       = "request"
	ClientAuthVerifyIfGiven = "verify_if_given"
	ClientAuthRequire       = "require"
)

var clientAuthModes = map[string]tls.ClientAuthType{
	ClientAuthNone:          tls.NoClientCert,
	ClientAuthRequest:       tls.RequestClientCert,
	ClientAuthVerifyIfGiven: tls.VerifyClientCertIfGiven,
	ClientAuthRequire:       tls.RequireAndVerifyClientCert,
}

var tlsVersions = map[string]uint16{
	"1.2": tls.VersionTLS12,
	"1.3": tls.VersionTLS13,
}

// TLSConfig holds the listener's TLS settings.
type TLSConfig struct {
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile  string `yaml:"key_file" mapstructure:"key_file"`

	// ClientCAFile verifies client certificates (mTLS).
	ClientCAFile string `yaml:"client_ca_file" mapstructure:"client_ca_file"`
	// ClientAuth is one of none, request, verify_if_given, require.
	// Defaults to require when ClientCAFile is set.
	ClientAuth string `yaml:"client_auth" mapstructure:"client_auth"`

	// MinVersion is "1.2" or "1.3". Defaults to 1.2.
	MinVersion string `yaml:"min_version" mapstructure:"min_version"`
}

// IsEnabled reports whether a certificate is configured.
func (c *TLSConfig) IsEnabled() bool {
	return c != nil && c.CertFile != ""
}

// Validate checks that the settings are consistent.
func (c *TLSConfig) Validate() error {
	if c == nil {
		return nil
	}
	if (c.CertFile != "") != (c.KeyFile != "") {
		return fmt.Errorf("security/tls: cert_file and key_file must be provided together")
	}
	if c.ClientCAFile != "" && c.CertFile == "" {
		return fmt.Errorf("security/tls: client_ca_file requires cert_file")
	}
	if c.ClientAuth != "" {
		if _, ok := clientAuthModes[c.ClientAuth]; !ok {
			return fmt.Errorf("security/tls: unknown client_auth %q", c.ClientAuth)
		}
	}
	if c.MinVersion != "" {
		if _, ok := tlsVersions[c.MinVersion]; !ok {
			return fmt.Errorf("security/tls: unsupported min_version %q", c.MinVersion)
		}
	}
	return nil
}

// Build loads the key pair and client CA. It returns nil, nil when TLS is
// not enabled.
func (c *TLSConfig) Build() (*tls.Config, error) {
	if !c.IsEnabled() {
		return nil, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("security/tls: load key pair: %w", err)
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		NextProtos:   []string{"h2", "http/1.1"},
	}
	if v, ok := tlsVersions[c.MinVersion]; ok {
		cfg.MinVersion = v
	}

	if c.ClientCAFile != "" {
		pool, err := loadPool(c.ClientCAFile)
		if err != nil {
			return nil, err
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	if mode, ok := clientAuthModes[c.ClientAuth]; ok {
		cfg.ClientAuth = mode
	}
	return cfg, nil
}

func loadPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("security/tls: read client CA: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("security/tls: no certificates in %s", path)
	}
	return pool, nil
}
