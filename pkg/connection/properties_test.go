package connection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metsfan/SimpleAmqpClient/internal/core/amqp"
)

func TestBuildClientPropertiesAnnouncesConsumerCancelNotify(t *testing.T) {
	props := BuildClientProperties()

	capabilities, ok := props["capabilities"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, capabilities["consumer_cancel_notify"])
}

func TestClientPropertiesEncodeDeterministically(t *testing.T) {
	first := amqp.EncodeTable(BuildClientProperties())
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, amqp.EncodeTable(BuildClientProperties()))
	}
}
