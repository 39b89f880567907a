package testutil

import (
	"io"
	"net"

	"github.com/metsfan/SimpleAmqpClient/internal/core/amqp"
)

// MockFramer is a configurable test double for amqp.Framer
type MockFramer struct {
	SentHeader  bool
	SentMethods []SentMethod // Records all sent methods
	Frames      []amqp.Frame // Returned by ReadFrame in order

	HeaderError error // If non-nil, SendProtocolHeader returns this error
	SendError   error // If non-nil, SendMethod returns this error
	ReadError   error // If non-nil, ReadFrame returns this error

	readIndex int
}

type SentMethod struct {
	Channel  uint16
	ClassID  amqp.TypeClass
	MethodID amqp.TypeMethod
	Args     []byte
}

func (m *MockFramer) SendProtocolHeader(conn net.Conn) error {
	if m.HeaderError != nil {
		return m.HeaderError
	}
	m.SentHeader = true
	return nil
}

func (m *MockFramer) ReadFrame(conn net.Conn) (amqp.Frame, error) {
	if m.ReadError != nil {
		return amqp.Frame{}, m.ReadError
	}
	if m.readIndex >= len(m.Frames) {
		return amqp.Frame{}, io.EOF
	}
	frame := m.Frames[m.readIndex]
	m.readIndex++
	return frame, nil
}

func (m *MockFramer) SendMethod(conn net.Conn, channel uint16, classID amqp.TypeClass, methodID amqp.TypeMethod, args []byte) error {
	if m.SendError != nil {
		return m.SendError
	}
	m.SentMethods = append(m.SentMethods, SentMethod{
		Channel:  channel,
		ClassID:  classID,
		MethodID: methodID,
		Args:     args,
	})
	return nil
}
