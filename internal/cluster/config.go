package cluster

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl/plain"
	"github.com/twmb/franz-go/pkg/sasl/scram"
)

// Config holds the connection settings for a cluster handle.
type Config struct {
	BootstrapServers string
	ClientID         string
	AuthMechanism    string // PLAIN, SCRAM-SHA-256, SCRAM-SHA-512
	Username         string
	Password         string
	TLSEnabled       bool
	TLSCertFile      string
	TLSKeyFile       string
	TLSCAFile        string
	RequestTimeout   time.Duration
}

func (c Config) seeds() []string {
	seeds := strings.Split(c.BootstrapServers, ",")
	for i, seed := range seeds {
		seeds[i] = strings.TrimSpace(seed)
	}
	return seeds
}

func (c Config) clientOpts() ([]kgo.Opt, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(c.seeds()...),
	}
	if c.ClientID != "" {
		opts = append(opts, kgo.ClientID(c.ClientID))
	}
	if c.RequestTimeout > 0 {
		opts = append(opts, kgo.RequestTimeoutOverhead(c.RequestTimeout))
	}

	if c.AuthMechanism != "" {
		saslOpt, err := buildSASL(c)
		if err != nil {
			return nil, fmt.Errorf("configure SASL: %w", err)
		}
		opts = append(opts, saslOpt)
	}

	if c.TLSEnabled || c.TLSCertFile != "" || c.TLSCAFile != "" {
		tlsConfig, err := buildTLS(c)
		if err != nil {
			return nil, fmt.Errorf("configure TLS: %w", err)
		}
		opts = append(opts, kgo.DialTLSConfig(tlsConfig))
	}

	return opts, nil
}

// buildSASL creates SASL authentication options based on the mechanism.
func buildSASL(cfg Config) (kgo.Opt, error) {
	switch strings.ToUpper(cfg.AuthMechanism) {
	case "PLAIN":
		return kgo.SASL(plain.Auth{
			User: cfg.Username,
			Pass: cfg.Password,
		}.AsMechanism()), nil

	case "SCRAM-SHA-256":
		mechanism := scram.Auth{
			User: cfg.Username,
			Pass: cfg.Password,
		}.AsSha256Mechanism()
		return kgo.SASL(mechanism), nil

	case "SCRAM-SHA-512":
		mechanism := scram.Auth{
			User: cfg.Username,
			Pass: cfg.Password,
		}.AsSha512Mechanism()
		return kgo.SASL(mechanism), nil

	default:
		return nil, fmt.Errorf("unsupported SASL mechanism: %s", cfg.AuthMechanism)
	}
}

// buildTLS creates TLS configuration from the provided cert files.
func buildTLS(cfg Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}

	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	if cfg.TLSCAFile != "" {
		caCert, err := os.ReadFile(cfg.TLSCAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA certificate: %w", err)
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("parse CA certificate")
		}
		tlsConfig.RootCAs = caCertPool
	}

	return tlsConfig, nil
}
