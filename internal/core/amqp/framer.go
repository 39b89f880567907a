package amqp

import (
	"net"

	"github.com/rs/zerolog"
)

// package logger used for wire-level logs. A library should default to a
// no-op logger and let the embedding application configure logging.
var logger zerolog.Logger = zerolog.Nop()

// SetLogger sets the package logger used by the wire codec. Callers should
// pass a configured zerolog.Logger (for example one created with
// zerolog.New(os.Stderr).With().Timestamp().Logger()).
func SetLogger(l zerolog.Logger) { logger = l }

// Framer is the narrow transport interface the login negotiator drives.
// DefaultFramer speaks the real wire format; tests substitute a double.
type Framer interface {
	SendProtocolHeader(conn net.Conn) error
	ReadFrame(conn net.Conn) (Frame, error)
	SendMethod(conn net.Conn, channel uint16, classID TypeClass, methodID TypeMethod, args []byte) error
}

type DefaultFramer struct{}

func (d *DefaultFramer) SendProtocolHeader(conn net.Conn) error {
	return SendProtocolHeader(conn)
}

func (d *DefaultFramer) ReadFrame(conn net.Conn) (Frame, error) {
	frame, err := ReadFrame(conn)
	if err != nil {
		return Frame{}, err
	}
	logger.Trace().Uint8("type", uint8(frame.Type)).Uint16("channel", frame.Channel).Int("payload", len(frame.Payload)).Msg("Received frame")
	return frame, nil
}

func (d *DefaultFramer) SendMethod(conn net.Conn, channel uint16, classID TypeClass, methodID TypeMethod, args []byte) error {
	logger.Trace().Uint16("channel", channel).Uint16("class_id", uint16(classID)).Uint16("method_id", uint16(methodID)).Msg("Sending method frame")
	return SendMethod(conn, channel, classID, methodID, args)
}
