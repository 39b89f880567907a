package amqp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// ClassID: 10 (connection) |
// MethodID: 10 (start)
type ConnectionStart struct {
	VersionMajor     byte
	VersionMinor     byte
	ServerProperties map[string]any
	Mechanisms       []string
	Locales          []string
}

// ClassID: 10 (connection) |
// MethodID: 30 (tune)
type ConnectionTune struct {
	ChannelMax uint16
	FrameMax   uint32
	Heartbeat  uint16
}

// ClassID: 10 (connection) |
// MethodID: 50 (close)
type ConnectionClose struct {
	ReplyCode uint16
	ReplyText string
	ClassID   uint16
	MethodID  uint16
}

// ParseConnectionStart decodes the method arguments of connection.start.
func ParseConnectionStart(args []byte) (*ConnectionStart, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("connection.start args too short")
	}
	start := &ConnectionStart{
		VersionMajor: args[0],
		VersionMinor: args[1],
	}

	buf := bytes.NewReader(args[2:])
	rawProps, err := DecodeLongStr(buf)
	if err != nil {
		return nil, fmt.Errorf("connection.start server-properties: %w", err)
	}
	props, err := DecodeTable([]byte(rawProps))
	if err != nil {
		return nil, fmt.Errorf("connection.start server-properties: %w", err)
	}
	start.ServerProperties = props

	mechanisms, err := DecodeLongStr(buf)
	if err != nil {
		return nil, fmt.Errorf("connection.start mechanisms: %w", err)
	}
	start.Mechanisms = strings.Fields(mechanisms)

	locales, err := DecodeLongStr(buf)
	if err != nil {
		return nil, fmt.Errorf("connection.start locales: %w", err)
	}
	start.Locales = strings.Fields(locales)

	return start, nil
}

// BuildConnectionStart encodes connection.start method arguments. The client
// never sends this; it exists for the scripted test broker.
func BuildConnectionStart(serverProperties map[string]any, mechanisms, locales string) []byte {
	var buf bytes.Buffer
	buf.WriteByte(0) // version-major
	buf.WriteByte(9) // version-minor
	EncodeLongStr(&buf, EncodeTable(serverProperties))
	EncodeLongStr(&buf, []byte(mechanisms))
	EncodeLongStr(&buf, []byte(locales))
	return buf.Bytes()
}

// BuildConnectionStartOk encodes connection.start-ok method arguments:
// client-properties table, SASL mechanism, SASL response, locale.
func BuildConnectionStartOk(clientProperties map[string]any, mechanism string, response []byte, locale string) []byte {
	var buf bytes.Buffer
	EncodeLongStr(&buf, EncodeTable(clientProperties))
	EncodeShortStr(&buf, mechanism)
	EncodeLongStr(&buf, response)
	EncodeShortStr(&buf, locale)
	return buf.Bytes()
}

// ParseConnectionStartOk decodes connection.start-ok (test broker side).
func ParseConnectionStartOk(args []byte) (clientProperties map[string]any, mechanism string, response []byte, locale string, err error) {
	buf := bytes.NewReader(args)
	rawProps, err := DecodeLongStr(buf)
	if err != nil {
		return nil, "", nil, "", fmt.Errorf("connection.start-ok client-properties: %w", err)
	}
	clientProperties, err = DecodeTable([]byte(rawProps))
	if err != nil {
		return nil, "", nil, "", fmt.Errorf("connection.start-ok client-properties: %w", err)
	}
	if mechanism, err = DecodeShortStr(buf); err != nil {
		return nil, "", nil, "", fmt.Errorf("connection.start-ok mechanism: %w", err)
	}
	rawResponse, err := DecodeLongStr(buf)
	if err != nil {
		return nil, "", nil, "", fmt.Errorf("connection.start-ok response: %w", err)
	}
	response = []byte(rawResponse)
	if locale, err = DecodeShortStr(buf); err != nil {
		return nil, "", nil, "", fmt.Errorf("connection.start-ok locale: %w", err)
	}
	return clientProperties, mechanism, response, locale, nil
}

// ParseConnectionTune decodes connection.tune method arguments.
func ParseConnectionTune(args []byte) (*ConnectionTune, error) {
	if len(args) < 8 {
		return nil, fmt.Errorf("connection.tune args too short: %d bytes", len(args))
	}
	return &ConnectionTune{
		ChannelMax: binary.BigEndian.Uint16(args[0:2]),
		FrameMax:   binary.BigEndian.Uint32(args[2:6]),
		Heartbeat:  binary.BigEndian.Uint16(args[6:8]),
	}, nil
}

// BuildConnectionTune encodes connection.tune / connection.tune-ok arguments
// (both methods share the argument layout).
func BuildConnectionTune(tune ConnectionTune) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, tune.ChannelMax)
	_ = binary.Write(&buf, binary.BigEndian, tune.FrameMax)
	_ = binary.Write(&buf, binary.BigEndian, tune.Heartbeat)
	return buf.Bytes()
}

// BuildConnectionOpen encodes connection.open: virtual-host shortstr followed
// by the two reserved fields (capabilities shortstr and insist bit).
func BuildConnectionOpen(vhost string) []byte {
	var buf bytes.Buffer
	EncodeShortStr(&buf, vhost)
	buf.WriteByte(0) // reserved-1 (capabilities)
	buf.WriteByte(0) // reserved-2 (insist)
	return buf.Bytes()
}

// ParseConnectionOpen decodes the virtual-host from connection.open (test
// broker side).
func ParseConnectionOpen(args []byte) (vhost string, err error) {
	return DecodeShortStr(bytes.NewReader(args))
}

// BuildConnectionOpenOk encodes connection.open-ok: a single reserved shortstr.
func BuildConnectionOpenOk() []byte {
	return []byte{0}
}

// ParseConnectionClose decodes connection.close method arguments.
func ParseConnectionClose(args []byte) (*ConnectionClose, error) {
	buf := bytes.NewReader(args)
	replyCode, err := DecodeShortInt(buf)
	if err != nil {
		return nil, fmt.Errorf("connection.close reply-code: %w", err)
	}
	replyText, err := DecodeShortStr(buf)
	if err != nil {
		return nil, fmt.Errorf("connection.close reply-text: %w", err)
	}
	classID, err := DecodeShortInt(buf)
	if err != nil {
		return nil, fmt.Errorf("connection.close class-id: %w", err)
	}
	methodID, err := DecodeShortInt(buf)
	if err != nil {
		return nil, fmt.Errorf("connection.close method-id: %w", err)
	}
	return &ConnectionClose{
		ReplyCode: replyCode,
		ReplyText: replyText,
		ClassID:   classID,
		MethodID:  methodID,
	}, nil
}

// BuildConnectionClose encodes connection.close method arguments.
func BuildConnectionClose(close ConnectionClose) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, close.ReplyCode)
	EncodeShortStr(&buf, close.ReplyText)
	_ = binary.Write(&buf, binary.BigEndian, close.ClassID)
	_ = binary.Write(&buf, binary.BigEndian, close.MethodID)
	return buf.Bytes()
}

// BuildConnectionCloseOk encodes connection.close-ok (no arguments).
func BuildConnectionCloseOk() []byte {
	return nil
}
