package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/stefando/ingestGatewayAWS/internal/app"
	"github.com/stefando/ingestGatewayAWS/internal/config"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway as a local HTTP server",
		Long: `Run the presigned-urls API on plain net/http. Credentials are signed with the
local AWS profile and batch completion is tracked in SQLite unless --store says otherwise.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().String("addr", "", "Listen address (default from config, :8080)")
	cmd.Flags().String("store", config.StoreSQLite, "Completion store: sqlite, redis, memory or dynamodb")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.ListenAddr
	}
	store, _ := cmd.Flags().GetString("store")
	cfg.Completion.Store = serveStore(cfg.Completion.Store, store, cmd.Flags().Changed("store"))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsConfig(ctx)
	if err != nil {
		return err
	}
	gw, err := app.NewGateway(ctx, cfg, awsCfg, logger)
	if err != nil {
		return err
	}
	defer gw.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           gw.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serve(ctx, srv)
}

// serveStore keeps a configured local store, but never serves from the
// Lambda default unless the flag asks for it explicitly.
func serveStore(configured, flag string, flagSet bool) string {
	if flagSet || configured == config.StoreDynamoDB {
		return flag
	}
	return configured
}

func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down gateway")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
