package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joshdurbin/stryd-dashboard/internal/api"
	"github.com/joshdurbin/stryd-dashboard/internal/config"
	"github.com/joshdurbin/stryd-dashboard/internal/dashboard"
	"github.com/joshdurbin/stryd-dashboard/internal/db"
	"github.com/joshdurbin/stryd-dashboard/internal/llm"
	"github.com/joshdurbin/stryd-dashboard/internal/logging"
	"github.com/joshdurbin/stryd-dashboard/internal/metrics"
	"github.com/joshdurbin/stryd-dashboard/internal/server"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pkg/browser"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API and the MCP server (default command)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return Serve(runtimeConfig(cmd))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	log := logging.Logger
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// openDashboard opens the activity store read-only and wraps it in the
// dashboard service. The returned close func releases the store.
func openDashboard(ctx context.Context, path string) (*dashboard.Service, func(), error) {
	logging.Logger.Info().Str("path", path).Msg("opening activity store")
	sqlDB, err := db.Open(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening activity store: %w", err)
	}
	return dashboard.New(db.New(sqlDB)), func() { sqlDB.Close() }, nil
}

// Serve runs the dashboard API and the MCP server until a shutdown signal.
func Serve(cfg config.Runtime) error {
	log := logging.Logger

	log.Info().
		Str("db_path", cfg.DBPath).
		Int("port", cfg.Port).
		Int("mcp_port", cfg.MCPPort).
		Str("llm_url", cfg.LLMURL).
		Dur("chat_timeout", cfg.ChatTimeout).
		Str("prefs_path", cfg.PrefsPath).
		Msg("starting stryd-dashboard")

	ctx, cancel := signalContext()
	defer cancel()

	svc, closeStore, err := openDashboard(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer closeStore()

	// Log database statistics
	svc.LogDatabaseStats(ctx)

	prefs := config.NewPreferenceStore(cfg.PrefsPath)
	client := llm.NewClient(llm.Options{ChatTimeout: cfg.ChatTimeout})
	relay := llm.NewRelay(client, svc, cfg.LLMURL)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metricsManager := metrics.NewManager("stryd", "dashboard", reg)

	handler := api.NewHandler(svc, relay, prefs, metricsManager)
	router := api.NewRouter(handler, reg)

	srv := server.New(svc)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runHTTPServer(gCtx, "dashboard API", router, cfg.Port)
	})

	switch {
	case cfg.MCPPort > 0:
		g.Go(func() error {
			return runHTTPServer(gCtx, "MCP HTTP/SSE", mcpHandler(srv.MCPServer()), cfg.MCPPort)
		})
	case cfg.MCPPort == 0:
		g.Go(func() error {
			log.Info().Msg("MCP server running via stdio")
			return srv.Run(gCtx)
		})
	default:
		log.Info().Msg("MCP server disabled")
	}

	if cfg.OpenBrowser {
		url := fmt.Sprintf("http://localhost:%d", cfg.Port)
		if err := browser.OpenURL(url); err != nil {
			log.Warn().Err(err).Str("url", url).Msg("failed to open browser")
		}
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Info().Msg("stryd-dashboard stopped")
	return err
}

// mcpHandler serves the MCP server over HTTP/SSE
func mcpHandler(mcpServer *mcp.Server) http.Handler {
	return mcp.NewSSEHandler(func(r *http.Request) *mcp.Server {
		return mcpServer
	}, nil)
}

// runHTTPServer serves handler on port until ctx is done
func runHTTPServer(ctx context.Context, name string, handler http.Handler, port int) error {
	log := logging.Logger

	addr := fmt.Sprintf(":%d", port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().
			Str("server", name).
			Str("address", addr).
			Str("endpoint", fmt.Sprintf("http://localhost%s", addr)).
			Msg("HTTP server running")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Str("server", name).Msg("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("%s: %w", name, err)
	}
}
