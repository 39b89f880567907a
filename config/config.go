package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/metsfan/SimpleAmqpClient/pkg/connection"
)

type Config struct {
	// Broker
	BrokerHost string
	BrokerPort int
	Username   string
	Password   string
	Vhost      string
	FrameMax   uint32

	// TLS
	Ssl            bool
	CACertPath     string
	ClientCertPath string
	ClientKeyPath  string
	VerifyHostname bool

	// Logging
	LogLevel string
}

// LoadConfig loads configuration from .env file, environment variables, or defaults
// Priority: environment variables > .env file > default values
func LoadConfig() *Config {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	return &Config{
		BrokerHost: getEnv("SAC_BROKER_HOST", connection.DefaultHost),
		BrokerPort: getEnvAsInt("SAC_BROKER_PORT", connection.DefaultPort),
		Username:   getEnv("SAC_USERNAME", connection.DefaultUsername),
		Password:   getEnv("SAC_PASSWORD", connection.DefaultPassword),
		Vhost:      getEnv("SAC_VHOST", connection.DefaultVhost),
		FrameMax:   getEnvAsUint32("SAC_FRAME_MAX", connection.DefaultFrameMax),

		Ssl:            getEnvAsBool("SAC_SSL", false),
		CACertPath:     getEnv("SAC_CA_CERT", ""),
		ClientCertPath: getEnv("SAC_CLIENT_CERT", ""),
		ClientKeyPath:  getEnv("SAC_CLIENT_KEY", ""),
		VerifyHostname: getEnvAsBool("SAC_VERIFY_HOSTNAME", true),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// ConnectionParameters converts the loaded config into handshake parameters.
func (c *Config) ConnectionParameters() connection.ConnectionParameters {
	return connection.ConnectionParameters{
		Host:     c.BrokerHost,
		Port:     c.BrokerPort,
		Username: c.Username,
		Password: c.Password,
		Vhost:    c.Vhost,
		FrameMax: c.FrameMax,
	}
}

// TLSParameters converts the loaded config into TLS settings.
func (c *Config) TLSParameters() connection.TLSParameters {
	return connection.TLSParameters{
		PathToCACert:     c.CACertPath,
		PathToClientCert: c.ClientCertPath,
		PathToClientKey:  c.ClientKeyPath,
		VerifyHostname:   c.VerifyHostname,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		fmt.Printf("Warning: Invalid value for %s: %s, using default: %d\n", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsUint32(key string, defaultValue uint32) uint32 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseUint(valueStr, 10, 32)
	if err != nil {
		fmt.Printf("Warning: Invalid value for %s: %s, using default: %d\n", key, valueStr, defaultValue)
		return defaultValue
	}
	return uint32(value)
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		fmt.Printf("Warning: Invalid value for %s: %s, using default: %t\n", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
