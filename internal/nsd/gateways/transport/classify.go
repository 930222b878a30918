package transport

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"strings"

	"github.com/haukened/nsdctl/internal/nsd/domain"
)

// certAlerts are the TLS alert descriptions a peer sends when it rejects a
// certificate. Go surfaces remote alerts as opaque errors, so the message
// text is the only handle on them.
var certAlerts = []string{
	"tls: bad certificate",
	"tls: unsupported certificate",
	"tls: certificate required",
	"tls: expired certificate",
	"tls: revoked certificate",
	"tls: certificate unknown",
	"tls: unknown certificate authority",
	"tls: access denied",
}

// classifyHandshakeError distinguishes certificate rejection from generic
// connection failure, so callers can treat credential problems as
// non-retryable configuration issues.
func classifyHandshakeError(addr string, err error) error {
	if isCertificateError(err) {
		return &domain.AuthenticationError{Addr: addr, Err: err}
	}
	return &domain.ConnectionError{Op: "dial", Addr: addr, Err: err}
}

// isCertificateError reports whether the handshake failed because a
// certificate was rejected, locally or by the peer.
func isCertificateError(err error) bool {
	var verifyErr *tls.CertificateVerificationError
	if errors.As(err, &verifyErr) {
		return true
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return true
	}
	var invalidCert x509.CertificateInvalidError
	if errors.As(err, &invalidCert) {
		return true
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return true
	}

	msg := err.Error()
	for _, alert := range certAlerts {
		if strings.Contains(msg, alert) {
			return true
		}
	}
	return false
}

// isEOF reports whether a read error means the peer closed the channel.
func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
