package jwt

import "strings"

const (
	pemHeader     = "-----BEGIN PUBLIC KEY-----"
	pemFooter     = "-----END PUBLIC KEY-----"
	pemLineLength = 64
)

// Base64ToPEM wraps a bare base64 public key (the DER body of a PEM block)
// into PEM text: header, body split into 64-character lines, footer.
// The input is not decoded or checked.
func Base64ToPEM(s string) string {
	var b strings.Builder
	b.Grow(len(pemHeader) + len(pemFooter) + len(s) + len(s)/pemLineLength + 2)
	b.WriteString(pemHeader)
	b.WriteByte('\n')
	for i := 0; i < len(s); i += pemLineLength {
		b.WriteString(s[i:min(i+pemLineLength, len(s))])
		b.WriteByte('\n')
	}
	b.WriteString(pemFooter)
	return b.String()
}
