package amqp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Frame is a raw AMQP frame: one octet type, two-octet channel, payload,
// terminated on the wire by the frame-end octet.
type Frame struct {
	Type    FrameType
	Channel uint16
	Payload []byte
}

// SendProtocolHeader writes the AMQP 0-9-1 protocol preamble. It must be the
// first thing a client sends on a fresh transport.
func SendProtocolHeader(w io.Writer) error {
	_, err := w.Write(ProtocolHeader)
	return err
}

// ReadFrame reads a single frame from r, validating the frame-end octet.
func ReadFrame(r io.Reader) (Frame, error) {
	var hdr [7]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Frame{}, err
	}
	frameType := hdr[0]
	channel := binary.BigEndian.Uint16(hdr[1:3])
	size := binary.BigEndian.Uint32(hdr[3:7])
	if size > MaxFrameSize {
		return Frame{}, fmt.Errorf("frame size %d exceeds limit %d", size, MaxFrameSize)
	}
	payload := make([]byte, size)
	if size > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Frame{}, err
		}
	}
	var end [1]byte
	if _, err := io.ReadFull(r, end[:]); err != nil {
		return Frame{}, err
	}
	if end[0] != FRAME_END {
		return Frame{}, errors.New("invalid frame end")
	}
	return Frame{Type: FrameType(frameType), Channel: channel, Payload: payload}, nil
}

// SendFrame writes a single frame to w.
func SendFrame(w io.Writer, f Frame) error {
	var hdr [7]byte
	hdr[0] = byte(f.Type)
	binary.BigEndian.PutUint16(hdr[1:3], f.Channel)
	binary.BigEndian.PutUint32(hdr[3:7], uint32(len(f.Payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if len(f.Payload) > 0 {
		if _, err := w.Write(f.Payload); err != nil {
			return err
		}
	}
	if _, err := w.Write([]byte{FRAME_END}); err != nil {
		return err
	}
	return nil
}

// SendMethod writes a method frame. args does NOT include the class/method ids.
func SendMethod(w io.Writer, channel uint16, classID TypeClass, methodID TypeMethod, args []byte) error {
	payload := make([]byte, 4+len(args))
	binary.BigEndian.PutUint16(payload[0:2], uint16(classID))
	binary.BigEndian.PutUint16(payload[2:4], uint16(methodID))
	copy(payload[4:], args)
	return SendFrame(w, Frame{Type: TYPE_METHOD, Channel: channel, Payload: payload})
}

// ParseMethod splits a method frame payload into class id, method id and the
// remaining argument bytes.
func ParseMethod(payload []byte) (classID TypeClass, methodID TypeMethod, args []byte, err error) {
	if len(payload) < 4 {
		return 0, 0, nil, fmt.Errorf("method payload too short: %d bytes", len(payload))
	}
	classID = TypeClass(binary.BigEndian.Uint16(payload[0:2]))
	methodID = TypeMethod(binary.BigEndian.Uint16(payload[2:4]))
	args = payload[4:]
	return classID, methodID, args, nil
}
