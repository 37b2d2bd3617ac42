package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/specimenworks/fieldlens/internal/common"
	"github.com/specimenworks/fieldlens/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE:  runServe,
	}

	cmd.Flags().String("listen", "", "listen address (default :8080)")
	_ = viper.BindPFlag("server.listen", cmd.Flags().Lookup("listen"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	app, err := newAppContext()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()

	if err := app.store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	classifier, err := app.orchestratorFor("insect")
	if err != nil {
		return err
	}

	restorer, err := app.orchestratorFor("building")
	if err != nil {
		return err
	}

	srv := server.New(classifier, restorer, app.store, slog.Default())

	common.LogInfo("server configured", common.Fields{
		"listen":   app.cfg.ListenAddr,
		"provider": app.cfg.Provider.Provider,
		"database": app.cfg.DatabasePath,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(app.cfg.ListenAddr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			common.LogError(err, "shutdown failed", common.Fields{"listen": app.cfg.ListenAddr})
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return <-errCh
	}
}
