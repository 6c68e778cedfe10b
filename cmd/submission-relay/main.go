// Package main is the entry point for the submission relay server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shineum/submission-relay/internal/config"
	"github.com/shineum/submission-relay/internal/httpserver"
	"github.com/shineum/submission-relay/internal/identity"
	"github.com/shineum/submission-relay/internal/provider"
	"github.com/shineum/submission-relay/internal/provider/gateway"
	"github.com/shineum/submission-relay/internal/provider/graph"
	"github.com/shineum/submission-relay/internal/provider/ses"
	"github.com/shineum/submission-relay/internal/provider/smtprelay"
	"github.com/shineum/submission-relay/internal/provider/spool"
	"github.com/shineum/submission-relay/internal/provider/stdout"
	"github.com/shineum/submission-relay/internal/submission"
	relaytls "github.com/shineum/submission-relay/internal/tls"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	setupLogger(cfg.Logging.Level)

	tlsConfig, err := relaytls.Configure(cfg.TLS.Mode, cfg.TLS.CertFile, cfg.TLS.KeyFile)
	if err != nil {
		slog.Error("failed to setup TLS", "error", err)
		os.Exit(1)
	}

	// Select email delivery provider
	prov, err := selectProvider(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to select provider", "error", err)
		os.Exit(1)
	}

	composer := submission.NewComposer(cfg.SubmissionAddressing())
	server := httpserver.New(httpserver.ServerConfig{
		ListenAddr:   cfg.HTTP.Listen,
		Dispatcher:   submission.NewDispatcher(composer, prov),
		Composer:     composer,
		TLSConfig:    tlsConfig,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
	})

	slog.Info("starting submission-relay",
		"listen", cfg.HTTP.Listen,
		"provider", prov.Name(),
		"recipient", cfg.Submission.Recipient,
		"tls_mode", cfg.TLS.Mode,
	)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		slog.Info("received signal, initiating shutdown", "signal", sig)
		cancel()
	}()

	// Start the server (blocks until context is cancelled)
	if err := server.ListenAndServe(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("submission-relay stopped")
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level.
func setupLogger(level string) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// selectProvider chooses the email delivery backend based on configuration.
// An explicit PROVIDER takes precedence. Otherwise the first configured
// backend wins in the order gateway, Graph, SES, SMTP, spool, falling back
// to stdout.
func selectProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	switch cfg.Provider {
	case "gateway":
		return newGateway(cfg), nil

	case "graph":
		if !cfg.GraphConfigured() {
			return nil, errors.New("Graph provider selected but GRAPH_TENANT_ID, GRAPH_CLIENT_ID, GRAPH_CLIENT_SECRET, and GRAPH_SENDER are required")
		}
		return newGraph(cfg), nil

	case "ses":
		if !cfg.SESConfigured() {
			return nil, errors.New("SES provider selected but SES_REGION and SES_SENDER are required")
		}
		return newSES(ctx, cfg)

	case "smtp":
		if !cfg.SMTPConfigured() {
			return nil, errors.New("SMTP provider selected but SMTP_HOST and SMTP_SENDER are required")
		}
		return newSMTP(cfg), nil

	case "spool":
		if !cfg.SpoolConfigured() {
			return nil, errors.New("spool provider selected but SPOOL_DIR is required")
		}
		return newSpool(cfg)

	case "stdout":
		slog.Info("using stdout provider")
		return stdout.New(), nil

	case "":
		switch {
		case cfg.GatewayConfigured():
			return newGateway(cfg), nil
		case cfg.GraphConfigured():
			return newGraph(cfg), nil
		case cfg.SESConfigured():
			return newSES(ctx, cfg)
		case cfg.SMTPConfigured():
			return newSMTP(cfg), nil
		case cfg.SpoolConfigured():
			return newSpool(cfg)
		}
		slog.Info("no provider configured, using stdout provider")
		return stdout.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// newGateway never fails: a missing hostname is reported on each send.
func newGateway(cfg *config.Config) *gateway.Provider {
	var tokens identity.TokenSource = identity.NewCommand(cfg.Gateway.IdentityCommand)
	if cfg.Gateway.Token != "" {
		tokens = identity.Static{Token: cfg.Gateway.Token}
	}

	if !cfg.GatewayConfigured() {
		slog.Warn("gateway provider selected without a connectors hostname; sends will fail",
			"setting", gateway.HostnameSetting,
		)
	}
	slog.Info("using mail gateway provider",
		"hostname", cfg.Gateway.Hostname,
		"static_token", cfg.Gateway.Token != "",
	)

	return gateway.New(gateway.Config{
		Hostname: cfg.Gateway.Hostname,
		Tokens:   tokens,
	})
}

func newGraph(cfg *config.Config) *graph.Provider {
	slog.Info("using Microsoft Graph provider", "sender", cfg.Graph.Sender)
	return graph.New(graph.Config{
		TenantID:     cfg.Graph.TenantID,
		ClientID:     cfg.Graph.ClientID,
		ClientSecret: cfg.Graph.ClientSecret,
		Sender:       cfg.Graph.Sender,
	})
}

func newSES(ctx context.Context, cfg *config.Config) (*ses.SESProvider, error) {
	slog.Info("using AWS SES provider",
		"region", cfg.SES.Region,
		"sender", cfg.SES.Sender,
	)
	p, err := ses.New(ctx, ses.SESProviderConfig{
		Region:          cfg.SES.Region,
		AccessKeyID:     cfg.SES.AccessKeyID,
		SecretAccessKey: cfg.SES.SecretAccessKey,
		Sender:          cfg.SES.Sender,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create SES provider: %w", err)
	}
	return p, nil
}

func newSMTP(cfg *config.Config) *smtprelay.Provider {
	slog.Info("using SMTP relay provider",
		"host", cfg.SMTP.Host,
		"port", cfg.SMTP.Port,
		"sender", cfg.SMTP.Sender,
	)
	return smtprelay.New(smtprelay.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		Sender:   cfg.SMTP.Sender,
	})
}

func newSpool(cfg *config.Config) (*spool.Provider, error) {
	slog.Info("using spool provider", "dir", cfg.Spool.Dir)
	sender := cfg.SMTP.Sender
	if sender == "" {
		sender = cfg.SES.Sender
	}
	if sender == "" {
		sender = cfg.Graph.Sender
	}
	p, err := spool.New(cfg.Spool.Dir, sender)
	if err != nil {
		return nil, fmt.Errorf("failed to create spool provider: %w", err)
	}
	return p, nil
}
