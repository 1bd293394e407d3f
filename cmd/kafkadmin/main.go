package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ppiankov/kafkadmin/internal/admin"
	"github.com/ppiankov/kafkadmin/internal/cluster"
	"github.com/ppiankov/kafkadmin/internal/config"
	"github.com/ppiankov/kafkadmin/internal/logging"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const defaultRequestTimeout = 30 * time.Second

func main() {
	// A local .env may carry credentials; a missing file is fine.
	_ = godotenv.Load()
	logging.Init(false)

	if err := newRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		_, _ = fmt.Fprintf(os.Stderr, "Tip: Use 'kafkadmin --help' for usage information.\n")
		os.Exit(1)
	}
}

// connectionOptions are the flags shared by every command that talks to a
// cluster.
type connectionOptions struct {
	bootstrapServer string
	clientID        string
	authMechanism   string
	username        string
	password        string
	tlsEnabled      bool
	tlsCert         string
	tlsKey          string
	tlsCA           string
	timeout         time.Duration
	output          string
}

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:           "kafkadmin",
		Short:         "kafkadmin administers Kafka topics, configs, ACLs, groups, and offsets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(newTopicsCmd())
	cmd.AddCommand(newConfigsCmd())
	cmd.AddCommand(newACLsCmd())
	cmd.AddCommand(newGroupsCmd())
	cmd.AddCommand(newOffsetsCmd())
	cmd.AddCommand(newClusterCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "version: %s\n", Version); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(out, "commit:  %s\n", GitCommit); err != nil {
				return err
			}
			_, err := fmt.Fprintf(out, "date:    %s\n", BuildDate)
			return err
		},
	}
}

func addConnectionFlags(cmd *cobra.Command, opts *connectionOptions) {
	flags := cmd.Flags()
	flags.StringVar(&opts.bootstrapServer, "bootstrap-server", "", "Kafka bootstrap server(s) (host:port, comma-separated)")
	flags.StringVar(&opts.clientID, "client-id", "", "Client id presented to the brokers")
	flags.StringVar(&opts.authMechanism, "auth-mechanism", "", "SASL mechanism (PLAIN, SCRAM-SHA-256, SCRAM-SHA-512)")
	flags.StringVar(&opts.username, "username", "", "SASL username")
	flags.StringVar(&opts.password, "password", "", "SASL password")
	flags.BoolVar(&opts.tlsEnabled, "tls", false, "Enable TLS")
	flags.StringVar(&opts.tlsCert, "tls-cert", "", "Path to TLS client certificate")
	flags.StringVar(&opts.tlsKey, "tls-key", "", "Path to TLS client private key")
	flags.StringVar(&opts.tlsCA, "tls-ca", "", "Path to TLS CA certificate")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Request timeout (for example: 10s, 1m)")
	flags.StringVar(&opts.output, "output", "text", "Output format (json|text)")
}

// resolveConnection applies config-file defaults and validates the
// resulting connection settings. Flags set explicitly always win.
func resolveConnection(cmd *cobra.Command, opts connectionOptions) (connectionOptions, error) {
	cfg, cfgPath, err := config.Load()
	if err != nil {
		return opts, err
	}
	if cfg != nil {
		slog.Debug("loaded defaults from config", "path", cfgPath)
		opts = applyConfigDefaults(cmd, opts, cfg)
	}

	if opts.timeout == 0 {
		opts.timeout = defaultRequestTimeout
	}

	if strings.TrimSpace(opts.bootstrapServer) == "" {
		return opts, errors.New("bootstrap-server is required")
	}
	if opts.authMechanism != "" && (opts.username == "" || opts.password == "") {
		return opts, errors.New("auth-mechanism requires both --username and --password")
	}
	if (opts.tlsCert == "") != (opts.tlsKey == "") {
		return opts, errors.New("--tls-cert and --tls-key must be provided together")
	}
	if opts.timeout <= 0 {
		return opts, errors.New("timeout must be greater than zero")
	}

	return opts, nil
}

func applyConfigDefaults(cmd *cobra.Command, opts connectionOptions, cfg *config.Config) connectionOptions {
	if !flagChanged(cmd, "bootstrap-server") && strings.TrimSpace(opts.bootstrapServer) == "" && strings.TrimSpace(cfg.BootstrapServers) != "" {
		opts.bootstrapServer = cfg.BootstrapServers
	}
	if !flagChanged(cmd, "client-id") && opts.clientID == "" && cfg.ClientID != "" {
		opts.clientID = cfg.ClientID
	}
	if !flagChanged(cmd, "auth-mechanism") && opts.authMechanism == "" && cfg.AuthMechanism != "" {
		opts.authMechanism = cfg.AuthMechanism
	}
	if !flagChanged(cmd, "username") && opts.username == "" && cfg.Username != "" {
		opts.username = cfg.Username
	}
	if !flagChanged(cmd, "password") && opts.password == "" && cfg.Password != "" {
		opts.password = cfg.Password
	}
	if !flagChanged(cmd, "tls") && cfg.TLS.Enabled {
		opts.tlsEnabled = true
	}
	if !flagChanged(cmd, "tls-cert") && opts.tlsCert == "" && cfg.TLS.CertFile != "" {
		opts.tlsCert = cfg.TLS.CertFile
	}
	if !flagChanged(cmd, "tls-key") && opts.tlsKey == "" && cfg.TLS.KeyFile != "" {
		opts.tlsKey = cfg.TLS.KeyFile
	}
	if !flagChanged(cmd, "tls-ca") && opts.tlsCA == "" && cfg.TLS.CAFile != "" {
		opts.tlsCA = cfg.TLS.CAFile
	}
	if !flagChanged(cmd, "timeout") && cfg.Timeout != 0 {
		opts.timeout = cfg.Timeout.Std()
	}

	return opts
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}

	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		return false
	}

	return flag.Changed
}

// withAdmin resolves the connection settings, connects, runs fn with a
// context bounded by the request timeout, and disconnects.
func withAdmin(cmd *cobra.Command, opts connectionOptions, fn func(ctx context.Context, a *admin.Admin) error) error {
	resolved, err := resolveConnection(cmd, opts)
	if err != nil {
		return err
	}

	cl, err := cluster.New(cluster.Config{
		BootstrapServers: resolved.bootstrapServer,
		ClientID:         resolved.clientID,
		AuthMechanism:    resolved.authMechanism,
		Username:         resolved.username,
		Password:         resolved.password,
		TLSEnabled:       resolved.tlsEnabled,
		TLSCertFile:      resolved.tlsCert,
		TLSKeyFile:       resolved.tlsKey,
		TLSCAFile:        resolved.tlsCA,
		RequestTimeout:   resolved.timeout,
	})
	if err != nil {
		return err
	}

	a := admin.New(cl, admin.Options{})

	ctx, cancel := context.WithTimeout(cmd.Context(), resolved.timeout)
	defer cancel()

	slog.Info("connecting to Kafka", "bootstrap_servers", resolved.bootstrapServer)
	if err := a.Connect(ctx); err != nil {
		return err
	}
	defer a.Disconnect()

	return fn(ctx, a)
}
