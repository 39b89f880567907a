package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/metsfan/SimpleAmqpClient/config"
	"github.com/metsfan/SimpleAmqpClient/internal/core/amqp"
	"github.com/metsfan/SimpleAmqpClient/pkg/connection"
)

var version = "dev"

func main() {
	cfg := config.LoadConfig()

	var (
		uri     string
		host    string
		port    int
		user    string
		pass    string
		vhost   string
		useTLS  bool
		verbose bool
	)

	rootCmd := &cobra.Command{
		Use:   "amqping",
		Short: "Check connectivity and credentials against an AMQP broker",
		Long: `amqping opens a connection to an AMQP 0-9-1 broker, authenticates,
prints the broker version it advertised, and closes the connection cleanly.
Connection settings come from flags, SAC_* environment variables, or a .env
file, in that order.`,
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cfg.LogLevel, verbose)

			if uri != "" {
				return pingURI(uri, useTLS, cfg)
			}

			params := cfg.ConnectionParameters()
			if cmd.Flags().Changed("host") {
				params.Host = host
			}
			if cmd.Flags().Changed("port") {
				params.Port = port
			}
			if cmd.Flags().Changed("user") {
				params.Username = user
			}
			if cmd.Flags().Changed("password") {
				params.Password = pass
			}
			if cmd.Flags().Changed("vhost") {
				params.Vhost = vhost
			}

			if useTLS || cfg.Ssl {
				return ping(func() (*connection.Connection, error) {
					if params.Port == connection.DefaultPort && !cmd.Flags().Changed("port") {
						params.Port = connection.DefaultTLSPort
					}
					return connection.CreateSecure(params, cfg.TLSParameters())
				})
			}
			return ping(func() (*connection.Connection, error) {
				return connection.Create(params)
			})
		},
	}

	rootCmd.Flags().StringVar(&uri, "uri", "", "broker URI (amqp:// or amqps://), overrides host/port/user flags")
	rootCmd.Flags().StringVar(&host, "host", cfg.BrokerHost, "broker host")
	rootCmd.Flags().IntVar(&port, "port", cfg.BrokerPort, "broker port")
	rootCmd.Flags().StringVar(&user, "user", cfg.Username, "username")
	rootCmd.Flags().StringVar(&pass, "password", cfg.Password, "password")
	rootCmd.Flags().StringVar(&vhost, "vhost", cfg.Vhost, "virtual host")
	rootCmd.Flags().BoolVar(&useTLS, "tls", false, "connect over TLS")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log the handshake at debug level")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func pingURI(uri string, useTLS bool, cfg *config.Config) error {
	if useTLS {
		return ping(func() (*connection.Connection, error) {
			return connection.CreateSecureFromURI(uri, cfg.TLSParameters())
		})
	}
	return ping(func() (*connection.Connection, error) {
		return connection.CreateFromURI(uri)
	})
}

func ping(connect func() (*connection.Connection, error)) error {
	conn, err := connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("connected, broker version %s\n", conn.BrokerVersion())
	return nil
}

func setupLogging(level string, verbose bool) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	if verbose {
		parsed = zerolog.DebugLevel
	}
	logger := log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(parsed)
	connection.SetLogger(logger)
	amqp.SetLogger(logger)
}
