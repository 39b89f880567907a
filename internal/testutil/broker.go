package testutil

import (
	"bytes"
	"fmt"
	"io"
	"net"

	"github.com/metsfan/SimpleAmqpClient/internal/core/amqp"
)

// BrokerScript tells the scripted broker how to answer one client handshake.
// The zero value accepts the login with a PLAIN-capable connection.start and
// RabbitMQ-ish defaults.
type BrokerScript struct {
	// ServerVersion is advertised under the "version" server property. Empty
	// omits the property entirely.
	ServerVersion string
	// ServerProperties overrides the advertised property table when non-nil;
	// ServerVersion is ignored in that case.
	ServerProperties map[string]any
	// Mechanisms is the space-separated SASL mechanism list. Empty means
	// "PLAIN AMQPLAIN".
	Mechanisms string

	// Tune values offered in connection.tune. Zero FrameMax defaults to 131072.
	ChannelMax uint16
	FrameMax   uint32
	Heartbeat  uint16

	// RefuseLogin, when set, is sent as connection.close instead of
	// connection.tune after start-ok arrives.
	RefuseLogin *amqp.ConnectionClose
	// RefuseOpen, when set, is sent as connection.close instead of
	// connection.open-ok.
	RefuseOpen *amqp.ConnectionClose
	// DropAfterStart severs the socket right after connection.start is sent,
	// simulating a broker crash mid-handshake.
	DropAfterStart bool
}

// Broker replays a BrokerScript over one connection and records what the
// client sent. Read the captured fields only after Wait returns.
type Broker struct {
	Script BrokerScript

	ClientProperties map[string]any
	Mechanism        string
	Response         []byte
	Locale           string
	TuneOk           amqp.ConnectionTune
	Vhost            string
	GotCloseOk       bool
	GotClose         *amqp.ConnectionClose

	Err  error
	done chan struct{}
}

// Serve starts the scripted broker on conn in a background goroutine.
func Serve(conn net.Conn, script BrokerScript) *Broker {
	b := &Broker{Script: script, done: make(chan struct{})}
	go func() {
		defer close(b.done)
		defer conn.Close()
		b.Err = b.serve(conn)
	}()
	return b
}

// Wait blocks until the scripted conversation is over.
func (b *Broker) Wait() { <-b.done }

func (b *Broker) serve(conn net.Conn) error {
	var header [8]byte
	if _, err := io.ReadFull(conn, header[:]); err != nil {
		return fmt.Errorf("reading protocol header: %w", err)
	}
	if !bytes.Equal(header[:], amqp.ProtocolHeader) {
		return fmt.Errorf("unexpected protocol header % x", header[:])
	}

	props := b.Script.ServerProperties
	if props == nil {
		props = map[string]any{"product": "scripted-broker"}
		if b.Script.ServerVersion != "" {
			props["version"] = b.Script.ServerVersion
		}
	}
	mechanisms := b.Script.Mechanisms
	if mechanisms == "" {
		mechanisms = "PLAIN AMQPLAIN"
	}
	start := amqp.BuildConnectionStart(props, mechanisms, "en_US")
	if err := amqp.SendMethod(conn, 0, amqp.CONNECTION, amqp.CONNECTION_START, start); err != nil {
		return fmt.Errorf("sending connection.start: %w", err)
	}
	if b.Script.DropAfterStart {
		return conn.Close()
	}

	classID, methodID, args, err := b.readMethod(conn)
	if err != nil {
		return err
	}
	if classID != amqp.CONNECTION || methodID != amqp.CONNECTION_START_OK {
		return fmt.Errorf("expected connection.start-ok, got class %d method %d", classID, methodID)
	}
	b.ClientProperties, b.Mechanism, b.Response, b.Locale, err = amqp.ParseConnectionStartOk(args)
	if err != nil {
		return err
	}

	if b.Script.RefuseLogin != nil {
		return b.refuse(conn, *b.Script.RefuseLogin)
	}

	frameMax := b.Script.FrameMax
	if frameMax == 0 {
		frameMax = 131072
	}
	tune := amqp.BuildConnectionTune(amqp.ConnectionTune{
		ChannelMax: b.Script.ChannelMax,
		FrameMax:   frameMax,
		Heartbeat:  b.Script.Heartbeat,
	})
	if err := amqp.SendMethod(conn, 0, amqp.CONNECTION, amqp.CONNECTION_TUNE, tune); err != nil {
		return fmt.Errorf("sending connection.tune: %w", err)
	}

	classID, methodID, args, err = b.readMethod(conn)
	if err != nil {
		return err
	}
	if classID != amqp.CONNECTION || methodID != amqp.CONNECTION_TUNE_OK {
		return fmt.Errorf("expected connection.tune-ok, got class %d method %d", classID, methodID)
	}
	tuneOk, err := amqp.ParseConnectionTune(args)
	if err != nil {
		return err
	}
	b.TuneOk = *tuneOk

	classID, methodID, args, err = b.readMethod(conn)
	if err != nil {
		return err
	}
	if classID != amqp.CONNECTION || methodID != amqp.CONNECTION_OPEN {
		return fmt.Errorf("expected connection.open, got class %d method %d", classID, methodID)
	}
	if b.Vhost, err = amqp.ParseConnectionOpen(args); err != nil {
		return err
	}

	if b.Script.RefuseOpen != nil {
		return b.refuse(conn, *b.Script.RefuseOpen)
	}

	if err := amqp.SendMethod(conn, 0, amqp.CONNECTION, amqp.CONNECTION_OPEN_OK, amqp.BuildConnectionOpenOk()); err != nil {
		return fmt.Errorf("sending connection.open-ok: %w", err)
	}

	// Serve teardown: answer the client's connection.close, or stop when the
	// socket drops.
	for {
		classID, methodID, args, err = b.readMethod(conn)
		if err != nil {
			return nil
		}
		if classID == amqp.CONNECTION && methodID == amqp.CONNECTION_CLOSE {
			closeMsg, err := amqp.ParseConnectionClose(args)
			if err != nil {
				return err
			}
			b.GotClose = closeMsg
			return amqp.SendMethod(conn, 0, amqp.CONNECTION, amqp.CONNECTION_CLOSE_OK, amqp.BuildConnectionCloseOk())
		}
	}
}

// refuse sends connection.close and drains for the client's close-ok.
func (b *Broker) refuse(conn net.Conn, closeMsg amqp.ConnectionClose) error {
	if err := amqp.SendMethod(conn, 0, amqp.CONNECTION, amqp.CONNECTION_CLOSE, amqp.BuildConnectionClose(closeMsg)); err != nil {
		return fmt.Errorf("sending connection.close: %w", err)
	}
	classID, methodID, _, err := b.readMethod(conn)
	if err != nil {
		return nil
	}
	b.GotCloseOk = classID == amqp.CONNECTION && methodID == amqp.CONNECTION_CLOSE_OK
	return nil
}

func (b *Broker) readMethod(conn net.Conn) (amqp.TypeClass, amqp.TypeMethod, []byte, error) {
	for {
		frame, err := amqp.ReadFrame(conn)
		if err != nil {
			return 0, 0, nil, err
		}
		if frame.Type != amqp.TYPE_METHOD {
			continue
		}
		return amqp.ParseMethod(frame.Payload)
	}
}
