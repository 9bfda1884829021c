package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/face-attendance/internal/announce"
	"github.com/kozaktomas/face-attendance/internal/metrics"
	"github.com/kozaktomas/face-attendance/internal/recognition"
	"github.com/kozaktomas/face-attendance/internal/web"
	"github.com/kozaktomas/face-attendance/internal/web/handlers"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance web server",
	Long: `Start the attendance server.
The camera side posts detected face embeddings (or raw images) to
/api/v1/frames; recognized people are recorded in the ledger, announced, and
streamed to display clients over /api/v1/events.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (env WEB_PORT, default 8080)")
	serveCmd.Flags().String("host", "", "Host to bind to (env WEB_HOST, default 0.0.0.0)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}
	stringOverride(cmd, "host", &cfg.Web.Host)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broadcaster := announce.NewBroadcaster()
	m := metrics.NewManager()

	p, err := buildPipeline(ctx, cfg, logger,
		recognition.WithAnnouncer(announce.Multi{&announce.LogAnnouncer{Logger: logger}, broadcaster}),
		recognition.WithStatusSink(handlers.BroadcastStatuses(broadcaster)),
		recognition.WithRecorder(m),
	)
	if err != nil {
		return err
	}
	defer p.Close()
	m.SetCatalogSize(p.catalog.Len())

	server := web.NewServer(cfg.Web, web.Deps{
		Catalog:     p.catalog,
		Processor:   p.cycle,
		Ledger:      p.ledger,
		Broadcaster: broadcaster,
		Extractor:   newExtractor(cfg),
		Metrics:     m.Handler(),
	}, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Attendance server on http://%s\n", server.Addr())
	fmt.Printf("Ledger: %s (%s), %d known identities\n", cfg.Ledger.Path, cfg.Ledger.Backend, p.catalog.Len())
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
