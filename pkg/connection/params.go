package connection

import "fmt"

const (
	DefaultHost     = "127.0.0.1"
	DefaultPort     = 5672
	DefaultTLSPort  = 5671
	DefaultUsername = "guest"
	DefaultPassword = "guest"
	DefaultVhost    = "/"
	DefaultFrameMax = 131072
)

// ConnectionParameters carries everything needed to reach and log in to a
// broker. Values are treated as immutable once handed to a constructor.
type ConnectionParameters struct {
	Host     string
	Port     int
	Username string
	Password string
	Vhost    string
	// FrameMax is the frame size requested at tune time; 0 means "accept
	// whatever the broker offers".
	FrameMax uint32
}

// DefaultParameters returns the parameter set for a local broker with the
// stock guest account.
func DefaultParameters() ConnectionParameters {
	return ConnectionParameters{
		Host:     DefaultHost,
		Port:     DefaultPort,
		Username: DefaultUsername,
		Password: DefaultPassword,
		Vhost:    DefaultVhost,
		FrameMax: DefaultFrameMax,
	}
}

func (p ConnectionParameters) validate() error {
	if p.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if p.Port < 1 || p.Port > 65535 {
		return fmt.Errorf("port %d out of range 1-65535", p.Port)
	}
	return nil
}

// TLSParameters configures the secure transport. PathToClientCert and
// PathToClientKey must be supplied together or not at all.
type TLSParameters struct {
	PathToCACert     string
	PathToClientCert string
	PathToClientKey  string
	// VerifyHostname toggles both peer and hostname verification.
	VerifyHostname bool
}

func (t TLSParameters) validate() error {
	if t.PathToCACert == "" {
		return fmt.Errorf("CA certificate path must not be empty")
	}
	if (t.PathToClientCert == "") != (t.PathToClientKey == "") {
		return fmt.Errorf("client certificate and key must be supplied together")
	}
	return nil
}
