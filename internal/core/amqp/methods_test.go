package amqp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConnectionStart(t *testing.T) {
	args := BuildConnectionStart(
		map[string]any{"product": "RabbitMQ", "version": "3.8.2"},
		"PLAIN AMQPLAIN",
		"en_US en_GB",
	)

	start, err := ParseConnectionStart(args)
	require.NoError(t, err)

	assert.Equal(t, byte(0), start.VersionMajor)
	assert.Equal(t, byte(9), start.VersionMinor)
	assert.Equal(t, "RabbitMQ", start.ServerProperties["product"])
	assert.Equal(t, "3.8.2", start.ServerProperties["version"])
	assert.Equal(t, []string{"PLAIN", "AMQPLAIN"}, start.Mechanisms)
	assert.Equal(t, []string{"en_US", "en_GB"}, start.Locales)
}

func TestParseConnectionStartTooShort(t *testing.T) {
	_, err := ParseConnectionStart([]byte{0})
	require.Error(t, err)
}

func TestConnectionStartOkCarriesCredentials(t *testing.T) {
	props := map[string]any{
		"capabilities": map[string]any{"consumer_cancel_notify": true},
	}
	args := BuildConnectionStartOk(props, "PLAIN", EncodeSecurityPlain("guest", "secret"), "en_US")

	clientProps, mechanism, response, locale, err := ParseConnectionStartOk(args)
	require.NoError(t, err)

	assert.Equal(t, "PLAIN", mechanism)
	assert.Equal(t, []byte("\x00guest\x00secret"), response)
	assert.Equal(t, "en_US", locale)

	capabilities, ok := clientProps["capabilities"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, capabilities["consumer_cancel_notify"])
}

func TestConnectionTuneLayout(t *testing.T) {
	tune := ConnectionTune{ChannelMax: 2047, FrameMax: 131072, Heartbeat: 60}
	parsed, err := ParseConnectionTune(BuildConnectionTune(tune))
	require.NoError(t, err)
	assert.Equal(t, tune, *parsed)
}

func TestParseConnectionTuneTooShort(t *testing.T) {
	_, err := ParseConnectionTune([]byte{0, 0, 0})
	require.Error(t, err)
}

func TestConnectionOpenCarriesVhost(t *testing.T) {
	args := BuildConnectionOpen("/production")
	require.Len(t, args, len("/production")+3, "shortstr plus two reserved octets")

	vhost, err := ParseConnectionOpen(args)
	require.NoError(t, err)
	assert.Equal(t, "/production", vhost)
}

func TestConnectionClosePreservesBrokerReply(t *testing.T) {
	sent := ConnectionClose{
		ReplyCode: uint16(ACCESS_REFUSED),
		ReplyText: "ACCESS_REFUSED - Login was refused",
		ClassID:   uint16(CONNECTION),
		MethodID:  uint16(CONNECTION_START_OK),
	}

	parsed, err := ParseConnectionClose(BuildConnectionClose(sent))
	require.NoError(t, err)
	assert.Equal(t, sent, *parsed)
}

func TestReplyCodeString(t *testing.T) {
	assert.Equal(t, "ACCESS_REFUSED", ACCESS_REFUSED.String())
	assert.Equal(t, "UNKNOWN_REPLY_CODE", ReplyCode(999).String())
	assert.Equal(t, "CONNECTION_FORCED - shutdown", CONNECTION_FORCED.Format("shutdown"))
}
