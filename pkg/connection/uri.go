package connection

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// parseURI converts an amqp:// or amqps:// URI into connection parameters.
// Missing components fall back to the usual defaults: guest/guest against
// 127.0.0.1, port 5672 (5671 for amqps), vhost "/". The secure flag reports
// whether the URI named the TLS scheme.
func parseURI(uri string) (ConnectionParameters, bool, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return ConnectionParameters{}, false, &BadURIError{URI: uri, Err: err}
	}

	var secure bool
	switch parsed.Scheme {
	case "amqp":
		secure = false
	case "amqps":
		secure = true
	default:
		return ConnectionParameters{}, false, &BadURIError{
			URI: uri,
			Err: fmt.Errorf("unsupported scheme %q", parsed.Scheme),
		}
	}

	params := DefaultParameters()
	if secure {
		params.Port = DefaultTLSPort
	}

	if host := parsed.Hostname(); host != "" {
		params.Host = host
	}
	if port := parsed.Port(); port != "" {
		value, err := strconv.Atoi(port)
		if err != nil || value < 1 || value > 65535 {
			return ConnectionParameters{}, false, &BadURIError{
				URI: uri,
				Err: fmt.Errorf("invalid port %q", port),
			}
		}
		params.Port = value
	}

	if user := parsed.User; user != nil {
		params.Username = user.Username()
		if password, ok := user.Password(); ok {
			params.Password = password
		}
	}

	if vhost, err := vhostFromPath(parsed.EscapedPath()); err != nil {
		return ConnectionParameters{}, false, &BadURIError{URI: uri, Err: err}
	} else if vhost != "" {
		params.Vhost = vhost
	}

	return params, secure, nil
}

// vhostFromPath extracts the virtual host from the URI path. An empty or bare
// "/" path means the default vhost; everything after the leading slash is
// percent-decoded, so "/%2f" names the vhost "/".
func vhostFromPath(path string) (string, error) {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return "", nil
	}
	if strings.Contains(trimmed, "/") {
		return "", fmt.Errorf("vhost path %q must not contain a slash", path)
	}
	vhost, err := url.PathUnescape(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid vhost escape in %q: %w", path, err)
	}
	return vhost, nil
}
