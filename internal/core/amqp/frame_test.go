package amqp

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendProtocolHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SendProtocolHeader(&buf))
	assert.Equal(t, []byte{'A', 'M', 'Q', 'P', 0, 0, 9, 1}, buf.Bytes())
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	sent := Frame{Type: TYPE_METHOD, Channel: 0, Payload: []byte{0, 10, 0, 10, 1, 2, 3}}
	require.NoError(t, SendFrame(&buf, sent))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, sent, got)
}

func TestReadFrameRejectsBadFrameEnd(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SendFrame(&buf, Frame{Type: TYPE_METHOD, Payload: []byte{1}}))
	raw := buf.Bytes()
	raw[len(raw)-1] = 0x00

	_, err := ReadFrame(bytes.NewReader(raw))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid frame end")
}

func TestReadFrameRejectsOversizedFrame(t *testing.T) {
	var hdr [7]byte
	hdr[0] = byte(TYPE_METHOD)
	binary.BigEndian.PutUint32(hdr[3:7], MaxFrameSize+1)

	_, err := ReadFrame(bytes.NewReader(hdr[:]))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds limit")
}

func TestSendMethodParseMethod(t *testing.T) {
	var buf bytes.Buffer
	args := []byte{0xDE, 0xAD}
	require.NoError(t, SendMethod(&buf, 0, CONNECTION, CONNECTION_START_OK, args))

	frame, err := ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, TYPE_METHOD, frame.Type)

	classID, methodID, gotArgs, err := ParseMethod(frame.Payload)
	require.NoError(t, err)
	assert.Equal(t, CONNECTION, classID)
	assert.Equal(t, CONNECTION_START_OK, methodID)
	assert.Equal(t, args, gotArgs)
}

func TestParseMethodRejectsShortPayload(t *testing.T) {
	_, _, _, err := ParseMethod([]byte{0, 10})
	require.Error(t, err)
}
