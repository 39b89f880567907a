package connection

import "errors"

// Check maps a HandshakeReply onto the error taxonomy. A nil return means the
// handshake was accepted and the pipeline may proceed.
//
// Any reply that is neither normal nor a library fault is classified as a
// server fault, matching the broker-rejection precedence rule: unknown shapes
// fail closed.
func (r HandshakeReply) Check() error {
	switch r.Kind {
	case ReplyNormal:
		return nil

	case ReplyLibraryFault:
		// Usually means the socket is already closed underneath us.
		err := r.LibraryErr
		if err == nil {
			err = errors.New("unspecified library fault")
		}
		var transportErr *TransportError
		if errors.As(err, &transportErr) {
			return transportErr
		}
		return &LibraryError{Err: err}

	default:
		if r.ServerClose != nil {
			return NewProtocolError(
				r.ServerClose.ReplyText,
				r.ServerClose.ReplyCode,
				r.ServerClose.ClassID,
				r.ServerClose.MethodID,
			)
		}
		return NewProtocolError("broker rejected handshake without detail", 0, 0, 0)
	}
}
