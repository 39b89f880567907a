package connection

// BuildClientProperties builds the client-properties table announced in
// connection.start-ok. The capabilities sub-table tells the broker which
// optional protocol extensions this client understands; consumer_cancel_notify
// means broker-initiated basic.cancel notifications are handled. Future
// capability flags are additional boolean entries in the same inner table.
func BuildClientProperties() map[string]any {
	return map[string]any{
		"capabilities": map[string]any{
			"consumer_cancel_notify": true,
		},
	}
}
