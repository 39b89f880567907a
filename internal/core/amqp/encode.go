package amqp

import (
	"bytes"
	"encoding/binary"
	"sort"
	"time"
)

// encodeValueToBuffer encodes a single AMQP field value into the provided buffer
// by selecting the appropriate type encoding based on the value's Go type.
func encodeValueToBuffer(value any, buf *bytes.Buffer) {
	switch v := value.(type) {
	case bool:
		buf.WriteByte('t')
		if v {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}

	case int8:
		buf.WriteByte('b')
		_ = binary.Write(buf, binary.BigEndian, v)

	case uint8:
		buf.WriteByte('B')
		_ = binary.Write(buf, binary.BigEndian, v)

	case int16:
		buf.WriteByte('U')
		_ = binary.Write(buf, binary.BigEndian, v)

	case uint16:
		buf.WriteByte('u')
		_ = binary.Write(buf, binary.BigEndian, v)

	case int32:
		buf.WriteByte('I')
		_ = binary.Write(buf, binary.BigEndian, v)

	case int:
		buf.WriteByte('I')
		_ = binary.Write(buf, binary.BigEndian, int32(v))

	case uint32:
		buf.WriteByte('i')
		_ = binary.Write(buf, binary.BigEndian, v)

	case int64:
		buf.WriteByte('L')
		_ = binary.Write(buf, binary.BigEndian, v)

	case uint64:
		buf.WriteByte('l')
		_ = binary.Write(buf, binary.BigEndian, v)

	case float32:
		buf.WriteByte('f')
		_ = binary.Write(buf, binary.BigEndian, v)

	case float64:
		buf.WriteByte('d')
		_ = binary.Write(buf, binary.BigEndian, v)

	case string:
		buf.WriteByte('S')
		EncodeLongStr(buf, []byte(v))

	case map[string]any:
		buf.WriteByte('F')
		data := EncodeTable(v)
		EncodeLongStr(buf, data)

	case []string:
		buf.WriteByte('A')
		arr := make([]any, len(v))
		for i, item := range v {
			arr[i] = item
		}
		EncodeLongStr(buf, EncodeArray(arr))

	case []any:
		buf.WriteByte('A')
		EncodeLongStr(buf, EncodeArray(v))

	case time.Time:
		buf.WriteByte('T')
		_ = binary.Write(buf, binary.BigEndian, uint64(v.Unix()))

	default:
		logger.Warn().Interface("value", v).Msg("Unsupported AMQP field value type, encoding as null")
		buf.WriteByte('V')
	}
}

// EncodeTable encodes an AMQP field table. Keys are written in sorted order so
// the same table always produces the same bytes.
func EncodeTable(table map[string]any) []byte {
	keys := make([]string, 0, len(table))
	for key := range table {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, key := range keys {
		EncodeShortStr(&buf, key)
		encodeValueToBuffer(table[key], &buf)
	}
	return buf.Bytes()
}

// EncodeArray encodes an AMQP field array (a sequence of typed values).
func EncodeArray(arr []any) []byte {
	var buf bytes.Buffer
	for _, value := range arr {
		encodeValueToBuffer(value, &buf)
	}
	return buf.Bytes()
}

func EncodeLongStr(buf *bytes.Buffer, data []byte) {
	_ = binary.Write(buf, binary.BigEndian, uint32(len(data)))
	buf.Write(data)
}

func EncodeShortStr(buf *bytes.Buffer, data string) {
	_ = buf.WriteByte(byte(len(data)))
	buf.WriteString(data)
}

// EncodeSecurityPlain builds the SASL PLAIN response: NUL authzid, NUL-separated
// authcid and password.
func EncodeSecurityPlain(username, password string) []byte {
	response := make([]byte, 0, len(username)+len(password)+2)
	response = append(response, 0)
	response = append(response, username...)
	response = append(response, 0)
	response = append(response, password...)
	return response
}
