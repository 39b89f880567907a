package connection

import (
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/metsfan/SimpleAmqpClient/internal/core/amqp"
	"github.com/metsfan/SimpleAmqpClient/pkg/metrics"
)

// State tracks where a Connection is in its lifecycle.
type State int

const (
	StateUnopened State = iota
	StateOpening
	StateLoggingIn
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateOpening:
		return "opening"
	case StateLoggingIn:
		return "logging-in"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// closeTimeout bounds the graceful teardown: after sending connection.close
// we wait at most this long for the broker's close-ok before dropping the
// socket anyway.
const closeTimeout = 1 * time.Second

// Connection is an authenticated, opened AMQP connection. It is created
// through one of the Create constructors; the zero value is not usable.
//
// A Connection is safe to Close from any goroutine, but the handle itself is
// not meant for concurrent method dispatch.
type Connection struct {
	id     string
	params ConnectionParameters

	conn   net.Conn
	framer amqp.Framer
	opener *TransportOpener

	brokerVersion BrokerVersion

	mu    sync.Mutex
	state State

	closeOnce sync.Once

	recorder metrics.Recorder
}

// Option customizes construction of a Connection.
type Option func(*Connection)

// WithMetrics attaches a metrics recorder to the connection lifecycle.
func WithMetrics(r metrics.Recorder) Option {
	return func(c *Connection) { c.recorder = r }
}

// WithFramer replaces the wire codec, mainly for tests.
func WithFramer(f amqp.Framer) Option {
	return func(c *Connection) { c.framer = f }
}

// WithTransportOpener replaces the dialer used to open the socket.
func WithTransportOpener(o *TransportOpener) Option {
	return func(c *Connection) { c.opener = o }
}

// Create opens a plain TCP connection to the broker described by params and
// performs the full login handshake. On any failure the socket is torn down
// and no Connection escapes.
func Create(params ConnectionParameters, opts ...Option) (*Connection, error) {
	c := newConnection(params, opts...)
	return c.establish(func() (net.Conn, error) {
		return c.opener.Open(params.Host, params.Port)
	})
}

// CreateSecure is Create over TLS, configured by tlsParams.
func CreateSecure(params ConnectionParameters, tlsParams TLSParameters, opts ...Option) (*Connection, error) {
	c := newConnection(params, opts...)
	return c.establish(func() (net.Conn, error) {
		return c.opener.OpenSecure(params.Host, params.Port, tlsParams)
	})
}

// CreateFromURI parses an amqp:// or amqps:// URI into connection parameters
// and connects. amqps URIs use default TLS settings with hostname
// verification enabled and no client certificate.
func CreateFromURI(uri string, opts ...Option) (*Connection, error) {
	params, secure, err := parseURI(uri)
	if err != nil {
		return nil, err
	}
	if secure {
		return CreateSecure(params, TLSParameters{VerifyHostname: true}, opts...)
	}
	return Create(params, opts...)
}

// CreateSecureFromURI parses an amqps:// URI and connects with the given TLS
// settings. Plain amqp:// URIs are refused before any socket is opened.
func CreateSecureFromURI(uri string, tlsParams TLSParameters, opts ...Option) (*Connection, error) {
	params, secure, err := parseURI(uri)
	if err != nil {
		return nil, err
	}
	if !secure {
		return nil, &UnsupportedSecureError{Reason: "CreateSecureFromURI only supports SSL-enabled URIs"}
	}
	return CreateSecure(params, tlsParams, opts...)
}

func newConnection(params ConnectionParameters, opts ...Option) *Connection {
	c := &Connection{
		id:     uuid.New().String(),
		params: params,
		framer: &amqp.DefaultFramer{},
		opener: NewTransportOpener(),
		state:  StateUnopened,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// establish runs the dial-then-login pipeline and rolls the transport back on
// any failure.
func (c *Connection) establish(dial func() (net.Conn, error)) (*Connection, error) {
	started := time.Now()

	if err := c.params.validate(); err != nil {
		c.observe(metrics.OutcomeLibraryFault, started)
		return nil, &LibraryError{Err: err}
	}

	c.state = StateOpening
	conn, err := dial()
	if err != nil {
		c.state = StateClosed
		c.observe(metrics.OutcomeTransportError, started)
		return nil, err
	}
	c.conn = conn

	c.state = StateLoggingIn
	reply := login(c.framer, c.conn, c.params, BuildClientProperties())
	if err := reply.Check(); err != nil {
		// The handle must not escape half-opened: drop the socket before
		// surfacing the failure.
		_ = c.conn.Close()
		c.conn = nil
		c.state = StateClosed
		c.observe(outcomeFor(err), started)
		return nil, err
	}

	c.brokerVersion = ExtractVersion(reply.ServerProperties)
	c.state = StateConnected
	c.observe(metrics.OutcomeConnected, started)
	logger.Info().
		Str("connection_id", c.id).
		Str("host", c.params.Host).
		Int("port", c.params.Port).
		Str("vhost", c.params.Vhost).
		Str("broker_version", c.brokerVersion.String()).
		Msg("Connection established")
	return c, nil
}

func (c *Connection) observe(outcome string, started time.Time) {
	if c.recorder != nil {
		c.recorder.ObserveHandshake(outcome, time.Since(started))
	}
}

func outcomeFor(err error) string {
	switch err.(type) {
	case *TransportError:
		return metrics.OutcomeTransportError
	case *ProtocolError:
		return metrics.OutcomeProtocolError
	default:
		return metrics.OutcomeLibraryFault
	}
}

// Close shuts the connection down. The first call sends connection.close with
// a success reply code, waits briefly for the broker's close-ok, and releases
// the socket; later calls are no-ops. Close never fails: teardown faults are
// logged and swallowed.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.conn == nil {
			c.state = StateClosed
			return
		}

		closeArgs := amqp.BuildConnectionClose(amqp.ConnectionClose{
			ReplyCode: uint16(amqp.REPLY_SUCCESS),
			ReplyText: amqp.ReplyText[amqp.REPLY_SUCCESS],
		})
		if err := c.framer.SendMethod(c.conn, 0, amqp.CONNECTION, amqp.CONNECTION_CLOSE, closeArgs); err == nil {
			c.awaitCloseOk()
		} else {
			logger.Debug().Err(err).Str("connection_id", c.id).Msg("Failed to send connection.close")
		}

		if err := c.conn.Close(); err != nil {
			logger.Debug().Err(err).Str("connection_id", c.id).Msg("Failed to close socket")
		}
		c.conn = nil
		c.state = StateClosed
		if c.recorder != nil {
			c.recorder.RecordClose()
		}
		logger.Info().Str("connection_id", c.id).Msg("Connection closed")
	})
}

// awaitCloseOk drains frames until the broker confirms the close or the
// deadline passes. Best-effort only.
func (c *Connection) awaitCloseOk() {
	_ = c.conn.SetReadDeadline(time.Now().Add(closeTimeout))
	defer c.conn.SetReadDeadline(time.Time{})

	for {
		frame, err := c.framer.ReadFrame(c.conn)
		if err != nil {
			return
		}
		if frame.Type != amqp.TYPE_METHOD {
			continue
		}
		classID, methodID, _, err := amqp.ParseMethod(frame.Payload)
		if err != nil {
			return
		}
		if classID == amqp.CONNECTION && methodID == amqp.CONNECTION_CLOSE_OK {
			return
		}
	}
}

// ID returns the locally generated identifier for this connection, used to
// correlate log lines.
func (c *Connection) ID() string { return c.id }

// BrokerVersion returns the packed broker version advertised during the
// handshake. Zero when the broker did not advertise a parseable version.
func (c *Connection) BrokerVersion() BrokerVersion { return c.brokerVersion }

// IsConnected reports whether the connection is open and logged in.
func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateConnected
}

// State returns the connection's lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transport exposes the underlying socket for callers that need to layer
// channel traffic on top of the established connection.
func (c *Connection) Transport() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}
