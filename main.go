package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/surelook/holmes-mcp/internal/config"
	"github.com/surelook/holmes-mcp/internal/logging"
	"github.com/surelook/holmes-mcp/internal/metrics"
	"github.com/surelook/holmes-mcp/internal/profile"
	"github.com/surelook/holmes-mcp/internal/records"
	"github.com/surelook/holmes-mcp/internal/server"
	"github.com/surelook/holmes-mcp/internal/store"
)

func main() {
	envFile := flag.String("env-file", ".env", "Dotenv file to load before reading the environment")
	transport := flag.String("transport", "", "Transport mode: http or stdio (overrides MCP_TRANSPORT)")
	host := flag.String("host", "", "HTTP host (overrides HOST)")
	port := flag.String("port", "", "HTTP port (overrides PORT)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warnf("Failed to load %s", *envFile)
	}
	overrideEnv("MCP_TRANSPORT", *transport)
	overrideEnv("HOST", *host)
	overrideEnv("PORT", *port)
	overrideEnv("LOG_LEVEL", *logLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logCloser, err := logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()

	storeOpts := cfg.StoreOptions()
	if !storeOpts.Configured() {
		log.WithField("backend", storeOpts.Backend).Warn("Store credentials missing; session, identity and event tools will report an error")
	}
	db := store.NewLazy(store.NewOpener(storeOpts))
	defer db.Close()

	var profiles profile.Provider
	if cfg.ProfileAPIKey != "" {
		profiles = profile.NewHTTPProvider(cfg.ProfileAPIKey, cfg.ProfileAPIURL)
	} else {
		log.Warn("PROFILE_API_KEY not set; who_is_this will report an error")
	}

	m := metrics.New()
	srv := server.New(server.Deps{
		Records:  records.New(db),
		Profiles: profiles,
		Metrics:  m,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch cfg.Transport {
	case config.TransportStdio:
		log.Info("Holmes MCP server starting (stdio)")
		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("Server error: %v", err)
		}
	case config.TransportHTTP:
		if err := serveHTTP(ctx, cfg, srv, m); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	}
}

func serveHTTP(ctx context.Context, cfg *config.Config, srv *mcp.Server, m *metrics.Metrics) error {
	if cfg.BearerToken == "" {
		log.Warn("MCP_BEARER_TOKEN not set; the MCP endpoint is unauthenticated")
	}

	// Streamable responses can stay open, so there is no write timeout.
	httpServer := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     server.NewHTTPHandler(srv, server.HTTPOptions{BearerToken: cfg.BearerToken, Metrics: m}),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{"addr": httpServer.Addr, "path": server.MCPPath}).Info("Holmes MCP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("Server stopped")
	return nil
}

// overrideEnv lets a non-empty flag value take precedence over the
// environment.
func overrideEnv(key, value string) {
	if value != "" {
		os.Setenv(key, value)
	}
}
