package amqp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// DecodeTable decodes an AMQP field table from a byte slice. RabbitMQ's
// server-properties table uses long strings, booleans and nested tables; the
// remaining field types are handled so an unusual broker does not break the
// handshake.
func DecodeTable(data []byte) (map[string]any, error) {
	table := make(map[string]any)
	buf := bytes.NewReader(data)

	for buf.Len() > 0 {
		fieldName, err := DecodeShortStr(buf)
		if err != nil {
			return nil, err
		}

		value, err := decodeValue(buf)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", fieldName, err)
		}
		table[fieldName] = value
	}
	return table, nil
}

func decodeValue(buf *bytes.Reader) (any, error) {
	fieldType, err := buf.ReadByte()
	if err != nil {
		return nil, err
	}

	switch fieldType {
	case 't':
		return DecodeBoolean(buf)

	case 'b': // Signed 8-bit integer
		var v int8
		err := binary.Read(buf, binary.BigEndian, &v)
		return v, err

	case 'B': // Unsigned 8-bit integer
		var v uint8
		err := binary.Read(buf, binary.BigEndian, &v)
		return v, err

	case 'U': // Signed short integer (16-bit)
		var v int16
		err := binary.Read(buf, binary.BigEndian, &v)
		return v, err

	case 'u': // Unsigned short integer (16-bit)
		var v uint16
		err := binary.Read(buf, binary.BigEndian, &v)
		return v, err

	case 'I': // Long-int (signed 32-bit)
		var v int32
		err := binary.Read(buf, binary.BigEndian, &v)
		return v, err

	case 'i': // Long-uint (unsigned 32-bit)
		var v uint32
		err := binary.Read(buf, binary.BigEndian, &v)
		return v, err

	case 'L': // Long long signed integer (64-bit)
		var v int64
		err := binary.Read(buf, binary.BigEndian, &v)
		return v, err

	case 'l': // Long long unsigned integer (64-bit)
		var v uint64
		err := binary.Read(buf, binary.BigEndian, &v)
		return v, err

	case 'f': // float (32-bit)
		var v float32
		err := binary.Read(buf, binary.BigEndian, &v)
		return v, err

	case 'd': // double (64-bit)
		var v float64
		err := binary.Read(buf, binary.BigEndian, &v)
		return v, err

	case 's': // Short string
		return DecodeShortStr(buf)

	case 'S': // Long string
		return DecodeLongStr(buf)

	case 'A': // Field array
		var length uint32
		if err := binary.Read(buf, binary.BigEndian, &length); err != nil {
			return nil, err
		}
		raw := make([]byte, length)
		if _, err := io.ReadFull(buf, raw); err != nil {
			return nil, err
		}
		arr := make([]any, 0)
		arrBuf := bytes.NewReader(raw)
		for arrBuf.Len() > 0 {
			item, err := decodeValue(arrBuf)
			if err != nil {
				return nil, err
			}
			arr = append(arr, item)
		}
		return arr, nil

	case 'T': // Timestamp
		return DecodeTimestamp(buf)

	case 'F': // Nested field table
		var length uint32
		if err := binary.Read(buf, binary.BigEndian, &length); err != nil {
			return nil, err
		}
		raw := make([]byte, length)
		if _, err := io.ReadFull(buf, raw); err != nil {
			return nil, err
		}
		return DecodeTable(raw)

	case 'V': // Void (null)
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown field type: %c", fieldType)
	}
}

// DecodeTimestamp reads and decodes a 64-bit POSIX timestamp
func DecodeTimestamp(buf *bytes.Reader) (time.Time, error) {
	var timestamp int64
	if err := binary.Read(buf, binary.BigEndian, &timestamp); err != nil {
		return time.Time{}, fmt.Errorf("failed to decode timestamp: %w", err)
	}
	return time.Unix(timestamp, 0), nil
}

func DecodeLongStr(buf *bytes.Reader) (string, error) {
	var strLen uint32
	if err := binary.Read(buf, binary.BigEndian, &strLen); err != nil {
		return "", err
	}
	if strLen == 0 {
		return "", nil
	}
	strData := make([]byte, strLen)
	if _, err := io.ReadFull(buf, strData); err != nil {
		return "", err
	}
	return string(strData), nil
}

func DecodeShortStr(buf *bytes.Reader) (string, error) {
	strLen, err := buf.ReadByte()
	if err != nil {
		return "", err
	}
	strData := make([]byte, strLen)
	if _, err := io.ReadFull(buf, strData); err != nil {
		return "", err
	}
	return string(strData), nil
}

func DecodeShortInt(buf *bytes.Reader) (uint16, error) {
	var value uint16
	if err := binary.Read(buf, binary.BigEndian, &value); err != nil {
		return 0, err
	}
	return value, nil
}

func DecodeLongUInt(buf *bytes.Reader) (uint32, error) {
	var value uint32
	if err := binary.Read(buf, binary.BigEndian, &value); err != nil {
		return 0, err
	}
	return value, nil
}

func DecodeBoolean(buf *bytes.Reader) (bool, error) {
	value, err := buf.ReadByte()
	if err != nil {
		return false, err
	}
	return value != 0, nil
}
