package connection

import (
	"fmt"
	"net"

	"github.com/metsfan/SimpleAmqpClient/internal/core/amqp"
)

// Heartbeats are disabled: no keepalive scheduling happens in this library.
// Callers wanting liveness detection should impose socket-level deadlines.
const brokerHeartbeat uint16 = 0

const (
	saslPlain     = "PLAIN"
	defaultLocale = "en_US"
)

type ReplyKind int

const (
	// ReplyNormal means the broker accepted the handshake.
	ReplyNormal ReplyKind = iota
	// ReplyLibraryFault means a local or transport-level fault interrupted the
	// handshake; the socket is not usable afterwards.
	ReplyLibraryFault
	// ReplyServerFault means the broker explicitly rejected the handshake with
	// a connection.close.
	ReplyServerFault
)

// HandshakeReply is the outcome of one login attempt. Exactly one variant is
// populated, selected by Kind.
type HandshakeReply struct {
	Kind ReplyKind

	// ServerProperties is the broker's advertised property table, set on
	// ReplyNormal only.
	ServerProperties map[string]any
	// Tune holds the values confirmed in tune-ok, set on ReplyNormal only.
	Tune amqp.ConnectionTune

	// LibraryErr is set on ReplyLibraryFault.
	LibraryErr error
	// ServerClose is the broker's connection.close detail, set on
	// ReplyServerFault.
	ServerClose *amqp.ConnectionClose
}

func libraryFault(err error) HandshakeReply {
	return HandshakeReply{Kind: ReplyLibraryFault, LibraryErr: err}
}

// login drives the AMQP handshake over an opened transport: protocol header,
// start/start-ok with SASL PLAIN credentials and the client property table,
// tune/tune-ok with the requested frame limit and heartbeats disabled, then
// open/open-ok for the virtual host. It blocks until the broker answers or the
// transport faults, and never retries.
func login(framer amqp.Framer, conn net.Conn, params ConnectionParameters, clientProperties map[string]any) HandshakeReply {
	if err := framer.SendProtocolHeader(conn); err != nil {
		return libraryFault(fmt.Errorf("sending protocol header: %w", err))
	}

	classID, methodID, args, err := nextMethod(framer, conn)
	if err != nil {
		return libraryFault(err)
	}
	if reply, rejected := rejectedBy(framer, conn, classID, methodID, args); rejected {
		return reply
	}
	if classID != amqp.CONNECTION || methodID != amqp.CONNECTION_START {
		return unexpectedMethod(classID, methodID)
	}
	start, err := amqp.ParseConnectionStart(args)
	if err != nil {
		return libraryFault(err)
	}
	logger.Debug().
		Uint8("version_major", start.VersionMajor).
		Uint8("version_minor", start.VersionMinor).
		Strs("mechanisms", start.Mechanisms).
		Msg("Received connection.start")
	if !containsMechanism(start.Mechanisms, saslPlain) {
		return libraryFault(fmt.Errorf("broker does not offer SASL %s (mechanisms: %v)", saslPlain, start.Mechanisms))
	}

	startOk := amqp.BuildConnectionStartOk(
		clientProperties,
		saslPlain,
		amqp.EncodeSecurityPlain(params.Username, params.Password),
		defaultLocale,
	)
	if err := framer.SendMethod(conn, 0, amqp.CONNECTION, amqp.CONNECTION_START_OK, startOk); err != nil {
		return libraryFault(fmt.Errorf("sending connection.start-ok: %w", err))
	}

	classID, methodID, args, err = nextMethod(framer, conn)
	if err != nil {
		return libraryFault(err)
	}
	if reply, rejected := rejectedBy(framer, conn, classID, methodID, args); rejected {
		return reply
	}
	if classID != amqp.CONNECTION || methodID != amqp.CONNECTION_TUNE {
		return unexpectedMethod(classID, methodID)
	}
	tune, err := amqp.ParseConnectionTune(args)
	if err != nil {
		return libraryFault(err)
	}

	// Channel-max stays at the broker default; the frame limit is the caller's
	// request, or the broker's offer when no limit was requested.
	tuneOk := amqp.ConnectionTune{
		ChannelMax: tune.ChannelMax,
		FrameMax:   params.FrameMax,
		Heartbeat:  brokerHeartbeat,
	}
	if tuneOk.FrameMax == 0 {
		tuneOk.FrameMax = tune.FrameMax
	}
	if err := framer.SendMethod(conn, 0, amqp.CONNECTION, amqp.CONNECTION_TUNE_OK, amqp.BuildConnectionTune(tuneOk)); err != nil {
		return libraryFault(fmt.Errorf("sending connection.tune-ok: %w", err))
	}

	if err := framer.SendMethod(conn, 0, amqp.CONNECTION, amqp.CONNECTION_OPEN, amqp.BuildConnectionOpen(params.Vhost)); err != nil {
		return libraryFault(fmt.Errorf("sending connection.open: %w", err))
	}

	classID, methodID, args, err = nextMethod(framer, conn)
	if err != nil {
		return libraryFault(err)
	}
	if reply, rejected := rejectedBy(framer, conn, classID, methodID, args); rejected {
		return reply
	}
	if classID != amqp.CONNECTION || methodID != amqp.CONNECTION_OPEN_OK {
		return unexpectedMethod(classID, methodID)
	}

	logger.Debug().Str("vhost", params.Vhost).Uint32("frame_max", tuneOk.FrameMax).Msg("Handshake accepted")
	return HandshakeReply{
		Kind:             ReplyNormal,
		ServerProperties: start.ServerProperties,
		Tune:             tuneOk,
	}
}

// nextMethod reads frames until a channel-0 method arrives, skipping
// heartbeats.
func nextMethod(framer amqp.Framer, conn net.Conn) (amqp.TypeClass, amqp.TypeMethod, []byte, error) {
	for {
		frame, err := framer.ReadFrame(conn)
		if err != nil {
			return 0, 0, nil, err
		}
		if frame.Type != amqp.TYPE_METHOD {
			continue
		}
		classID, methodID, args, err := amqp.ParseMethod(frame.Payload)
		if err != nil {
			return 0, 0, nil, err
		}
		return classID, methodID, args, nil
	}
}

// rejectedBy recognizes a broker-initiated connection.close, acknowledges it
// best-effort, and folds it into a ReplyServerFault.
func rejectedBy(framer amqp.Framer, conn net.Conn, classID amqp.TypeClass, methodID amqp.TypeMethod, args []byte) (HandshakeReply, bool) {
	if classID != amqp.CONNECTION || methodID != amqp.CONNECTION_CLOSE {
		return HandshakeReply{}, false
	}
	closeMsg, err := amqp.ParseConnectionClose(args)
	if err != nil {
		return libraryFault(err), true
	}
	logger.Debug().
		Uint16("reply_code", closeMsg.ReplyCode).
		Str("reply_text", closeMsg.ReplyText).
		Msg("Broker rejected handshake")
	_ = framer.SendMethod(conn, 0, amqp.CONNECTION, amqp.CONNECTION_CLOSE_OK, amqp.BuildConnectionCloseOk())
	return HandshakeReply{Kind: ReplyServerFault, ServerClose: closeMsg}, true
}

// unexpectedMethod treats an unrecognized reply shape as a server fault:
// the classifier fails closed rather than guessing.
func unexpectedMethod(classID amqp.TypeClass, methodID amqp.TypeMethod) HandshakeReply {
	return HandshakeReply{
		Kind: ReplyServerFault,
		ServerClose: &amqp.ConnectionClose{
			ReplyCode: uint16(amqp.COMMAND_INVALID),
			ReplyText: fmt.Sprintf("unexpected method during handshake: class %d method %d", classID, methodID),
			ClassID:   uint16(classID),
			MethodID:  uint16(methodID),
		},
	}
}

func containsMechanism(mechanisms []string, want string) bool {
	for _, m := range mechanisms {
		if m == want {
			return true
		}
	}
	return false
}
