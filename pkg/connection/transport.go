package connection

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"strconv"
)

// Context strings identifying which transport step failed.
const (
	stepOpeningSocket     = "opening socket"
	stepSettingCACert     = "setting CA certificate"
	stepSettingClientCert = "setting client certificate"
)

// TransportOpener dials the broker, plain or over TLS. TLSSupported models
// builds without TLS capability: when false, OpenSecure fails deterministically
// instead of falling back to plaintext.
type TransportOpener struct {
	TLSSupported bool
}

func NewTransportOpener() *TransportOpener {
	return &TransportOpener{TLSSupported: true}
}

// Open connects a plain stream socket to host:port.
func (o *TransportOpener) Open(host string, port int) (net.Conn, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, &TransportError{Step: stepOpeningSocket, Err: err}
	}
	return conn, nil
}

// OpenSecure connects a TLS stream socket to host:port. The TLS configuration
// is validated and assembled in full before any network I/O happens, so a bad
// certificate path never costs a dial.
func (o *TransportOpener) OpenSecure(host string, port int, params TLSParameters) (net.Conn, error) {
	if !o.TLSSupported {
		return nil, &UnsupportedSecureError{Reason: "TLS support is not enabled in this build"}
	}
	if err := params.validate(); err != nil {
		return nil, &TransportError{Step: stepSettingClientCert, Err: err}
	}

	cfg := &tls.Config{
		ServerName: host,
		// Peer and hostname verification toggle together.
		InsecureSkipVerify: !params.VerifyHostname,
	}

	caPEM, err := os.ReadFile(params.PathToCACert)
	if err != nil {
		return nil, &TransportError{Step: stepSettingCACert, Err: err}
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, &TransportError{Step: stepSettingCACert, Err: fmt.Errorf("no certificates found in %s", params.PathToCACert)}
	}
	cfg.RootCAs = pool

	if params.PathToClientCert != "" {
		cert, err := tls.LoadX509KeyPair(params.PathToClientCert, params.PathToClientKey)
		if err != nil {
			return nil, &TransportError{Step: stepSettingClientCert, Err: err}
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := tls.Dial("tcp", addr, cfg)
	if err != nil {
		return nil, &TransportError{Step: stepOpeningSocket, Err: err}
	}
	return conn, nil
}
