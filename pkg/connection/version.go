package connection

import (
	"fmt"
	"strconv"
	"strings"
)

// BrokerVersion packs a dotted three-component broker version into 24 bits,
// one byte per component. Zero means the broker did not advertise a parseable
// version.
type BrokerVersion uint32

func (v BrokerVersion) Major() uint8 { return uint8(v >> 16) }

func (v BrokerVersion) Minor() uint8 { return uint8(v >> 8) }

func (v BrokerVersion) Patch() uint8 { return uint8(v) }

func (v BrokerVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
}

// ExtractVersion recovers the broker version from the server property table
// advertised in connection.start. It never fails: any shape other than a
// three-component dotted numeric string under the exact key "version" yields
// zero. Components above 255 are truncated to their low byte.
func ExtractVersion(serverProperties map[string]any) BrokerVersion {
	raw, ok := serverProperties["version"]
	if !ok {
		return 0
	}
	text, ok := raw.(string)
	if !ok {
		return 0
	}

	components := strings.Split(text, ".")
	if len(components) != 3 {
		return 0
	}

	var packed uint32
	for _, component := range components {
		value, err := strconv.ParseUint(component, 10, 32)
		if err != nil {
			return 0
		}
		packed = packed<<8 | uint32(value)&0xFF
	}
	return BrokerVersion(packed)
}
