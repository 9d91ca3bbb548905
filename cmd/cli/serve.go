package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lcalzada-xor/wifiradar/internal/app"
	"github.com/lcalzada-xor/wifiradar/internal/telemetry"
)

func newServeCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, WebSocket and gRPC service",
		Long: `Run wifiradar as a service. Scans are started through the HTTP API or
the configured schedules; completed scans are stored in the history database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), e)
		},
	}
	f := cmd.Flags()
	f.String("addr", "", "HTTP listen address")
	f.Bool("grpc", false, "enable the gRPC server")
	f.String("grpc-addr", "", "gRPC listen address")
	f.Bool("auth", false, "require API keys")
	f.Bool("trace", false, "export OpenTelemetry spans")
	annotate(f, "addr", "api.addr")
	annotate(f, "grpc", "grpc.enabled")
	annotate(f, "grpc-addr", "grpc.addr")
	annotate(f, "auth", "auth.enabled")
	annotate(f, "trace", "telemetry.tracing")
	return cmd
}

func runServe(parent context.Context, e *env) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if e.cfg.Telemetry.Tracing {
		w, closer, err := app.TraceOutput(e.cfg.Telemetry.TraceOutput)
		if err != nil {
			return err
		}
		defer closer.Close()

		shutdown, err := telemetry.InitTracer(w, version)
		if err != nil {
			e.logger.Error("Failed to init tracer", "error", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					e.logger.Error("Failed to shutdown tracer", "error", err)
				}
			}()
		}
	}

	application, err := app.New(e.cfg, version, e.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			e.logger.Error("Failed to close application", "error", err)
		}
	}()

	e.logger.Info("wifiradar starting", "version", versionString())
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("service stopped: %w", err)
	}
	return nil
}
