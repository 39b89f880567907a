package amqp

import "fmt"

// ProtocolHeader is the 8-octet preamble a client sends before any frame.
// It announces AMQP 0-9-1.
var ProtocolHeader = []byte{'A', 'M', 'Q', 'P', 0, 0, 9, 1}

const (
	FRAME_END = 0xCE

	// MaxFrameSize bounds incoming frames before any tune negotiation has
	// happened. RabbitMQ defaults to 131072; 1MB gives generous headroom.
	MaxFrameSize = 1 << 20
)

type FrameType uint8

const (
	TYPE_METHOD    FrameType = 1
	TYPE_HEADER    FrameType = 2
	TYPE_BODY      FrameType = 3
	TYPE_HEARTBEAT FrameType = 8
)

type TypeClass uint16

// Class constants
const (
	CONNECTION TypeClass = 10
	CHANNEL    TypeClass = 20
)

type TypeMethod uint16

const (
	CONNECTION_START     TypeMethod = 10
	CONNECTION_START_OK  TypeMethod = 11
	CONNECTION_SECURE    TypeMethod = 20
	CONNECTION_SECURE_OK TypeMethod = 21
	CONNECTION_TUNE      TypeMethod = 30
	CONNECTION_TUNE_OK   TypeMethod = 31
	CONNECTION_OPEN      TypeMethod = 40
	CONNECTION_OPEN_OK   TypeMethod = 41
	CONNECTION_CLOSE     TypeMethod = 50
	CONNECTION_CLOSE_OK  TypeMethod = 51
)

// AMQP Reply Codes as defined in AMQP 0-9-1 specification
type ReplyCode uint16

const (
	REPLY_SUCCESS       ReplyCode = 200 // reply-success
	CONNECTION_FORCED   ReplyCode = 320 // connection-forced
	INVALID_PATH        ReplyCode = 402 // invalid-path
	ACCESS_REFUSED      ReplyCode = 403 // access-refused
	NOT_FOUND           ReplyCode = 404 // not-found
	RESOURCE_LOCKED     ReplyCode = 405 // resource-locked
	PRECONDITION_FAILED ReplyCode = 406 // precondition-failed
	FRAME_ERROR         ReplyCode = 501 // frame-error
	SYNTAX_ERROR        ReplyCode = 502 // syntax-error
	COMMAND_INVALID     ReplyCode = 503 // command-invalid
	CHANNEL_ERROR       ReplyCode = 504 // channel-error
	UNEXPECTED_FRAME    ReplyCode = 505 // unexpected-frame
	RESOURCE_ERROR      ReplyCode = 506 // resource-error
	NOT_ALLOWED         ReplyCode = 530 // not-allowed
	NOT_IMPLEMENTED     ReplyCode = 540 // not-implemented
	INTERNAL_ERROR      ReplyCode = 541 // internal-error
)

// ReplyText holds the default reply text for each reply code
var ReplyText = map[ReplyCode]string{
	REPLY_SUCCESS:       "REPLY_SUCCESS",
	CONNECTION_FORCED:   "CONNECTION_FORCED",
	INVALID_PATH:        "INVALID_PATH",
	ACCESS_REFUSED:      "ACCESS_REFUSED",
	NOT_FOUND:           "NOT_FOUND",
	RESOURCE_LOCKED:     "RESOURCE_LOCKED",
	PRECONDITION_FAILED: "PRECONDITION_FAILED",
	FRAME_ERROR:         "FRAME_ERROR",
	SYNTAX_ERROR:        "SYNTAX_ERROR",
	COMMAND_INVALID:     "COMMAND_INVALID",
	CHANNEL_ERROR:       "CHANNEL_ERROR",
	UNEXPECTED_FRAME:    "UNEXPECTED_FRAME",
	RESOURCE_ERROR:      "RESOURCE_ERROR",
	NOT_ALLOWED:         "NOT_ALLOWED",
	NOT_IMPLEMENTED:     "NOT_IMPLEMENTED",
	INTERNAL_ERROR:      "INTERNAL_ERROR",
}

func (rc ReplyCode) String() string {
	if text, exists := ReplyText[rc]; exists {
		return text
	}
	return "UNKNOWN_REPLY_CODE"
}

func (rc ReplyCode) Format(reason string) string {
	return fmt.Sprintf("%s - %s", rc.String(), reason)
}
