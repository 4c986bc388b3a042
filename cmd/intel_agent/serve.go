package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/interview-intel/internal/server"
	"github.com/jonathan/interview-intel/internal/server/ratelimit"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: "Start an HTTP server that exposes interview intelligence over REST. Without an API key the server " +
		"answers from curated profiles and discovery memory only.",
	Args: cobra.NoArgs,
	RunE: runServe,
}

var servePort int

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, discoveryOptional)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.llm == nil {
		a.logger.Warn("no API key configured, discovery is disabled")
	}

	port := a.cfg.Server.Port
	if servePort > 0 {
		port = servePort
	}
	rl := a.cfg.Server.RateLimit

	srv := server.New(a.intel, a.repo, server.Config{
		Port:      port,
		RateLimit: ratelimit.ForDiscovery(rl.Enabled, rl.Limit, rl.Window, rl.Burst),
		Logger:    a.logger,
		Metrics:   a.metrics,
	})

	a.logger.Info("serving interview intelligence",
		zap.Int("port", port),
		zap.Int("curated_companies", a.repo.Count()),
		zap.String("memory_backend", string(a.cfg.Memory.Backend)))
	return srv.Start(ctx)
}
