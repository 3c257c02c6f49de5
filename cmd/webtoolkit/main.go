// Command webtoolkit runs the web interaction MCP server over stdio.
//
// Configuration comes from MCP_-prefixed environment variables (all
// optional): MCP_SSL_VERIFY, MCP_MAX_CONNECTIONS,
// MCP_MAX_CONNECTIONS_PER_HOST, MCP_ENABLE_CACHE, MCP_CACHE_TTL,
// MCP_MAX_RETRIES, MCP_TIMEOUT, MCP_RATE_LIMIT_REQUESTS,
// MCP_RATE_LIMIT_PERIOD. Durations are in seconds.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	webtoolkit "github.com/kimasplund/mcp-web-interaction-toolkit"
	"github.com/kimasplund/mcp-web-interaction-toolkit/mcpserver"
)

var verbose bool

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "webtoolkit",
		Short:         "Web interaction MCP server with a per-domain reliability layer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newServeCmd(), newVersionCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(verbose)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			cfg := loadConfig()
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger.Info("starting web interaction toolkit",
				zap.String("version", webtoolkit.Version),
				zap.Bool("verify_ssl", cfg.VerifySSL),
				zap.Bool("cache_enabled", cfg.CacheEnabled),
				zap.Int("rate_limit_requests", cfg.RateLimitRequests),
				zap.Duration("rate_limit_period", cfg.RateLimitPeriod),
			)

			opts := []webtoolkit.Option{
				webtoolkit.WithConfig(cfg),
				webtoolkit.WithMetrics(),
				webtoolkit.WithZapLogger(logger),
			}
			if verbose {
				opts = append(opts, webtoolkit.WithDebug())
			}

			client := webtoolkit.New(opts...)
			server := mcpserver.New(client, logger)
			return server.RunStdio(cmd.Context())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), webtoolkit.VersionInfo())
		},
	}
}

// loadConfig builds the toolkit configuration once at startup from
// MCP_-prefixed environment variables layered over defaults.
func loadConfig() webtoolkit.Config {
	v := viper.New()
	v.SetEnvPrefix("MCP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := webtoolkit.DefaultConfig()
	v.SetDefault("ssl_verify", defaults.VerifySSL)
	v.SetDefault("max_connections", defaults.MaxConnections)
	v.SetDefault("max_connections_per_host", defaults.MaxConnsPerHost)
	v.SetDefault("enable_cache", defaults.CacheEnabled)
	v.SetDefault("cache_ttl", int(defaults.CacheTTL/time.Second))
	v.SetDefault("max_retries", defaults.MaxRetries)
	v.SetDefault("timeout", int(defaults.Timeout/time.Second))
	v.SetDefault("rate_limit_requests", defaults.RateLimitRequests)
	v.SetDefault("rate_limit_period", int(defaults.RateLimitPeriod/time.Second))

	return webtoolkit.Config{
		VerifySSL:         v.GetBool("ssl_verify"),
		MaxConnections:    v.GetInt("max_connections"),
		MaxConnsPerHost:   v.GetInt("max_connections_per_host"),
		CacheEnabled:      v.GetBool("enable_cache"),
		CacheTTL:          time.Duration(v.GetInt("cache_ttl")) * time.Second,
		MaxRetries:        v.GetInt("max_retries"),
		Timeout:           time.Duration(v.GetInt("timeout")) * time.Second,
		RateLimitRequests: v.GetInt("rate_limit_requests"),
		RateLimitPeriod:   time.Duration(v.GetInt("rate_limit_period")) * time.Second,
		FailureThreshold:  defaults.FailureThreshold,
		RecoveryTimeout:   defaults.RecoveryTimeout,
	}
}

// newLogger builds a zap logger writing to stderr; stdout belongs to the
// MCP stdio transport.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
