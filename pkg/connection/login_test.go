package connection

import (
	"encoding/binary"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metsfan/SimpleAmqpClient/internal/core/amqp"
	"github.com/metsfan/SimpleAmqpClient/internal/testutil"
)

func runLogin(t *testing.T, script testutil.BrokerScript, params ConnectionParameters) (HandshakeReply, *testutil.Broker) {
	t.Helper()

	clientSide, serverSide := net.Pipe()
	broker := testutil.Serve(serverSide, script)

	reply := login(&amqp.DefaultFramer{}, clientSide, params, BuildClientProperties())

	clientSide.Close()
	broker.Wait()
	return reply, broker
}

func TestLoginSucceeds(t *testing.T) {
	params := DefaultParameters()
	reply, broker := runLogin(t, testutil.BrokerScript{ServerVersion: "3.8.2"}, params)

	require.Equal(t, ReplyNormal, reply.Kind)
	assert.Equal(t, "3.8.2", reply.ServerProperties["version"])

	assert.Equal(t, "PLAIN", broker.Mechanism)
	assert.Equal(t, []byte("\x00guest\x00guest"), broker.Response)
	assert.Equal(t, "en_US", broker.Locale)
	assert.Equal(t, "/", broker.Vhost)
}

func TestLoginAnnouncesCapabilities(t *testing.T) {
	_, broker := runLogin(t, testutil.BrokerScript{}, DefaultParameters())

	capabilities, ok := broker.ClientProperties["capabilities"].(map[string]any)
	require.True(t, ok, "client-properties should carry a capabilities table")
	assert.Equal(t, true, capabilities["consumer_cancel_notify"])
}

func TestLoginTuneRequestsCallerFrameMax(t *testing.T) {
	params := DefaultParameters()
	params.FrameMax = 65536

	reply, broker := runLogin(t, testutil.BrokerScript{ChannelMax: 2047, FrameMax: 131072}, params)

	require.Equal(t, ReplyNormal, reply.Kind)
	assert.Equal(t, uint32(65536), broker.TuneOk.FrameMax)
	// Channel-max follows the broker's offer, heartbeats stay off.
	assert.Equal(t, uint16(2047), broker.TuneOk.ChannelMax)
	assert.Equal(t, uint16(0), broker.TuneOk.Heartbeat)
}

func TestLoginTuneAdoptsBrokerFrameMaxWhenUnset(t *testing.T) {
	params := DefaultParameters()
	params.FrameMax = 0

	reply, broker := runLogin(t, testutil.BrokerScript{FrameMax: 4096}, params)

	require.Equal(t, ReplyNormal, reply.Kind)
	assert.Equal(t, uint32(4096), broker.TuneOk.FrameMax)
	assert.Equal(t, uint32(4096), reply.Tune.FrameMax)
}

func TestLoginRefusedCredentials(t *testing.T) {
	script := testutil.BrokerScript{
		RefuseLogin: &amqp.ConnectionClose{
			ReplyCode: uint16(amqp.ACCESS_REFUSED),
			ReplyText: "ACCESS_REFUSED - Login was refused using authentication mechanism PLAIN",
			ClassID:   uint16(amqp.CONNECTION),
			MethodID:  uint16(amqp.CONNECTION_START_OK),
		},
	}

	reply, broker := runLogin(t, script, DefaultParameters())

	require.Equal(t, ReplyServerFault, reply.Kind)
	require.NotNil(t, reply.ServerClose)
	assert.Equal(t, uint16(403), reply.ServerClose.ReplyCode)
	assert.Equal(t, "ACCESS_REFUSED - Login was refused using authentication mechanism PLAIN", reply.ServerClose.ReplyText)
	assert.True(t, broker.GotCloseOk, "rejection should be acknowledged with close-ok")
}

func TestLoginRefusedVhost(t *testing.T) {
	params := DefaultParameters()
	params.Vhost = "nonexistent"
	script := testutil.BrokerScript{
		RefuseOpen: &amqp.ConnectionClose{
			ReplyCode: uint16(amqp.NOT_ALLOWED),
			ReplyText: "NOT_ALLOWED - access to vhost 'nonexistent' refused",
			ClassID:   uint16(amqp.CONNECTION),
			MethodID:  uint16(amqp.CONNECTION_OPEN),
		},
	}

	reply, broker := runLogin(t, script, params)

	require.Equal(t, ReplyServerFault, reply.Kind)
	assert.Equal(t, uint16(530), reply.ServerClose.ReplyCode)
	assert.Equal(t, "nonexistent", broker.Vhost)
}

func TestLoginConnectionForced(t *testing.T) {
	script := testutil.BrokerScript{
		RefuseLogin: &amqp.ConnectionClose{
			ReplyCode: uint16(amqp.CONNECTION_FORCED),
			ReplyText: "CONNECTION_FORCED - broker is shutting down",
		},
	}

	reply, _ := runLogin(t, script, DefaultParameters())

	require.Equal(t, ReplyServerFault, reply.Kind)
	assert.Equal(t, uint16(320), reply.ServerClose.ReplyCode)
	assert.Equal(t, "CONNECTION_FORCED - broker is shutting down", reply.ServerClose.ReplyText)
}

func TestLoginBrokerDropsConnection(t *testing.T) {
	reply, _ := runLogin(t, testutil.BrokerScript{DropAfterStart: true}, DefaultParameters())

	require.Equal(t, ReplyLibraryFault, reply.Kind)
	assert.Error(t, reply.LibraryErr)
}

func TestLoginWithoutPlainMechanism(t *testing.T) {
	reply, _ := runLogin(t, testutil.BrokerScript{Mechanisms: "AMQPLAIN EXTERNAL"}, DefaultParameters())

	require.Equal(t, ReplyLibraryFault, reply.Kind)
	assert.Contains(t, reply.LibraryErr.Error(), "PLAIN")
}

func TestLoginHeaderSendFailure(t *testing.T) {
	framer := &testutil.MockFramer{HeaderError: errors.New("broken pipe")}

	reply := login(framer, nil, DefaultParameters(), BuildClientProperties())

	require.Equal(t, ReplyLibraryFault, reply.Kind)
	assert.ErrorContains(t, reply.LibraryErr, "sending protocol header")
}

func TestLoginUnexpectedMethodFailsClosed(t *testing.T) {
	framer := &testutil.MockFramer{
		Frames: []amqp.Frame{methodFrame(amqp.CHANNEL, 10)},
	}

	reply := login(framer, nil, DefaultParameters(), BuildClientProperties())

	require.Equal(t, ReplyServerFault, reply.Kind)
	require.NotNil(t, reply.ServerClose)
	assert.Equal(t, uint16(amqp.COMMAND_INVALID), reply.ServerClose.ReplyCode)
}

func TestLoginSkipsHeartbeatFrames(t *testing.T) {
	framer := &testutil.MockFramer{
		Frames: []amqp.Frame{{Type: amqp.TYPE_HEARTBEAT}},
	}

	reply := login(framer, nil, DefaultParameters(), BuildClientProperties())

	// The heartbeat is skipped, the stream then ends: a library fault, not a
	// parse error.
	require.Equal(t, ReplyLibraryFault, reply.Kind)
}

func methodFrame(classID amqp.TypeClass, methodID amqp.TypeMethod) amqp.Frame {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint16(payload[0:2], uint16(classID))
	binary.BigEndian.PutUint16(payload[2:4], uint16(methodID))
	return amqp.Frame{Type: amqp.TYPE_METHOD, Payload: payload}
}
