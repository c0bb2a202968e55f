package cli

import (
	"context"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // For pprof profiling
	"os"
	"os/signal"
	"syscall"

	"stock_sim/internal/app"

	"github.com/spf13/cobra"
)

func newRunCmd(rc *RootConfig) *cobra.Command {
	var pprofAddr string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the market simulation until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Graceful Shutdown Context
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSimulation(ctx, rc.ConfigPath, pprofAddr)
		},
	}

	cmd.Flags().StringVar(&pprofAddr, "pprof", "", "serve pprof on this address (e.g. localhost:6060)")
	return cmd
}

func runSimulation(ctx context.Context, configPath, pprofAddr string) error {
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(configPath); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		return err
	}

	if pprofAddr != "" {
		go func() {
			slog.Info("🕵️ Pprof server started", slog.String("addr", pprofAddr))
			if err := http.ListenAndServe(pprofAddr, nil); err != nil {
				slog.Error("Pprof server failed", slog.Any("error", err))
			}
		}()
	}

	defer bootstrap.Close()

	// Catalogue sync runs alongside the simulation
	syncDone := make(chan struct{})
	go func() {
		defer close(syncDone)
		bootstrap.SyncInstruments(ctx)
	}()

	err := bootstrap.Run(ctx)
	<-syncDone
	return err
}

// contextOrBackground guards commands executed without ExecuteContext
func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
