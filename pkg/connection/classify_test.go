package connection

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metsfan/SimpleAmqpClient/internal/core/amqp"
)

func TestCheckNormalReply(t *testing.T) {
	reply := HandshakeReply{Kind: ReplyNormal}
	assert.NoError(t, reply.Check())
}

func TestCheckLibraryFault(t *testing.T) {
	reply := HandshakeReply{Kind: ReplyLibraryFault, LibraryErr: io.ErrUnexpectedEOF}

	err := reply.Check()
	require.Error(t, err)

	var libErr *LibraryError
	require.ErrorAs(t, err, &libErr)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestCheckLibraryFaultPassesThroughTransportError(t *testing.T) {
	cause := &TransportError{Step: "opening socket", Err: io.EOF}
	reply := HandshakeReply{Kind: ReplyLibraryFault, LibraryErr: cause}

	err := reply.Check()
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "opening socket", transportErr.Step)
}

func TestCheckLibraryFaultWithoutCause(t *testing.T) {
	reply := HandshakeReply{Kind: ReplyLibraryFault}
	err := reply.Check()
	var libErr *LibraryError
	require.ErrorAs(t, err, &libErr)
}

func TestCheckServerFault(t *testing.T) {
	reply := HandshakeReply{
		Kind: ReplyServerFault,
		ServerClose: &amqp.ConnectionClose{
			ReplyCode: 403,
			ReplyText: "ACCESS_REFUSED - Login was refused using authentication mechanism PLAIN",
			ClassID:   10,
			MethodID:  11,
		},
	}

	err := reply.Check()
	require.Error(t, err)

	var protocolErr *ProtocolError
	require.ErrorAs(t, err, &protocolErr)
	assert.Equal(t, uint16(403), protocolErr.ReplyCode())
	assert.Equal(t, "ACCESS_REFUSED - Login was refused using authentication mechanism PLAIN", protocolErr.ReplyText())
	assert.Equal(t, uint16(10), protocolErr.ClassID())
	assert.Equal(t, uint16(11), protocolErr.MethodID())
	assert.Contains(t, err.Error(), "AMQP Connection Error 403")
}

func TestCheckUnknownKindFailsClosed(t *testing.T) {
	reply := HandshakeReply{Kind: ReplyKind(99)}

	err := reply.Check()
	var protocolErr *ProtocolError
	require.ErrorAs(t, err, &protocolErr)
	assert.Equal(t, uint16(0), protocolErr.ReplyCode())
}

func TestProtocolErrorImplementsAMQPError(t *testing.T) {
	var err error = NewProtocolError("NOT_ALLOWED", 530, 10, 40)
	var amqpErr AMQPError
	require.True(t, errors.As(err, &amqpErr))
	assert.Equal(t, uint16(530), amqpErr.ReplyCode())
}
