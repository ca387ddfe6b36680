package sarama

import (
	"crypto/tls"
	"crypto/x509"
	"net"
)

// tlsDial dials addr and then immediately performs the TLS handshake over
// the resulting connection, reusing the dialer's Timeout/KeepAlive for both
// steps.
func tlsDial(dialer net.Dialer, addr string, tlsConfig *tls.Config) (net.Conn, error) {
	if tlsConfig == nil {
		tlsConfig = &tls.Config{}
	}

	d := tls.Dialer{NetDialer: &dialer, Config: tlsConfig}
	return d.Dial("tcp", addr)
}

// tlsClient wraps an already-established connection (e.g. one dialed
// through a SOCKS5 proxy, which has no notion of TLS itself) in a TLS
// handshake targeting addr's hostname for SNI/certificate validation.
func tlsClient(conn net.Conn, addr string, tlsConfig *tls.Config) (net.Conn, error) {
	if tlsConfig == nil {
		tlsConfig = &tls.Config{}
	}
	if tlsConfig.ServerName == "" {
		if host, _, err := net.SplitHostPort(addr); err == nil {
			tlsConfig = tlsConfig.Clone()
			tlsConfig.ServerName = host
		}
	}

	tlsConn := tls.Client(conn, tlsConfig)
	if err := tlsConn.Handshake(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

// NewTLSConfig builds a *tls.Config presenting clientCert and trusting
// caCertPool, the shape every broker-facing TLS setup in this client needs:
// a client certificate for mutual TLS plus a CA pool to validate the
// broker's certificate against.
func NewTLSConfig(clientCert []tls.Certificate, caCertPool *x509.CertPool) *tls.Config {
	return &tls.Config{
		Certificates: clientCert,
		RootCAs:      caCertPool,
	}
}
