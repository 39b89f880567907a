package connection

import "fmt"

// AMQPError is implemented by errors that carry a broker-declared AMQP fault.
type AMQPError interface {
	error
	ReplyText() string
	ReplyCode() uint16
	ClassID() uint16
	MethodID() uint16
}

// ProtocolError means the broker explicitly rejected the handshake (bad
// credentials, vhost access refused, connection forced). It carries the
// broker's reply verbatim.
type ProtocolError struct {
	code     uint16
	text     string
	classID  uint16
	methodID uint16
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("AMQP Connection Error %d: %s", e.code, e.text)
}

func (e *ProtocolError) ReplyText() string { return e.text }

func (e *ProtocolError) ReplyCode() uint16 { return e.code }

func (e *ProtocolError) ClassID() uint16 { return e.classID }

func (e *ProtocolError) MethodID() uint16 { return e.methodID }

func NewProtocolError(text string, code, classID, methodID uint16) *ProtocolError {
	return &ProtocolError{
		text:     text,
		code:     code,
		classID:  classID,
		methodID: methodID,
	}
}

var _ AMQPError = (*ProtocolError)(nil)

// TransportError means opening or configuring the transport failed. Step
// identifies which stage failed; the socket is not usable afterwards.
type TransportError struct {
	Step string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error %s: %v", e.Step, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// LibraryError means the negotiation layer hit a local fault mid-handshake,
// typically because the peer already closed the socket. The transport is not
// safe to reuse.
type LibraryError struct {
	Err error
}

func (e *LibraryError) Error() string {
	return fmt.Sprintf("connection handshake failed: %v", e.Err)
}

func (e *LibraryError) Unwrap() error { return e.Err }

// BadURIError means the AMQP URI could not be parsed into connection
// parameters.
type BadURIError struct {
	URI string
	Err error
}

func (e *BadURIError) Error() string {
	return fmt.Sprintf("bad AMQP URI %q: %v", e.URI, e.Err)
}

func (e *BadURIError) Unwrap() error { return e.Err }

// UnsupportedSecureError means secure construction was requested but cannot be
// honored: either TLS support is disabled for this opener or a non-TLS URI was
// passed to the secure entry point.
type UnsupportedSecureError struct {
	Reason string
}

func (e *UnsupportedSecureError) Error() string { return e.Reason }
