package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/lcalzada-xor/wifiradar/internal/adapters/rpc"
	"github.com/lcalzada-xor/wifiradar/internal/app"
	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
	"github.com/lcalzada-xor/wifiradar/internal/core/services/scan"
)

type scanOptions struct {
	duration int
	format   string
	remote   string
	save     bool
}

func newScanCmd(e *env) *cobra.Command {
	opts := scanOptions{}
	cmd := &cobra.Command{
		Use:   "scan <interface>",
		Short: "Run one scan and print the access points",
		Example: `  wifiradar scan wlan0
  wifiradar scan wlan0 --duration 5 --format json
  wifiradar scan wlan0 --remote 192.168.1.10:9000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, e, args[0], opts)
		},
	}
	f := cmd.Flags()
	f.IntVarP(&opts.duration, "duration", "d", 0, "scan timeout in seconds (default from scan.default_duration)")
	f.StringVarP(&opts.format, "format", "f", "table", "output format: table, json, csv or pdf")
	f.StringVar(&opts.remote, "remote", "", "run the scan on a wifiradar gRPC server")
	f.BoolVar(&opts.save, "save", false, "store the result in the history database")
	return cmd
}

func runScan(cmd *cobra.Command, e *env, iface string, opts scanOptions) error {
	if opts.duration == 0 {
		opts.duration = e.cfg.Scan.DefaultDuration
	}
	req := domain.ScanRequest{Interface: iface, DurationSeconds: opts.duration}
	if err := scan.ValidateRequest(scan.NewValidator(), req); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	session := domain.ScanSession{
		ID:        uuid.New().String(),
		Interface: iface,
		StartedAt: time.Now().UTC(),
	}

	var (
		records []domain.AccessPointRecord
		err     error
	)
	if opts.remote != "" {
		records, err = remoteScan(ctx, opts.remote, req)
	} else {
		p := app.NewPipeline(e.cfg, e.logger)
		defer p.Close()
		records, err = p.Scanner.RunScan(ctx, iface, req.Timeout())
	}
	if err != nil {
		return err
	}

	session.Status = domain.ScanCompleted
	session.FinishedAt = time.Now().UTC()
	session.Duration = session.FinishedAt.Sub(session.StartedAt).Seconds()
	session.AccessPoints = records
	session.TotalCount = len(records)

	if opts.save {
		history, err := e.openHistory()
		if err != nil {
			return err
		}
		defer history.Close()
		if err := history.SaveScan(ctx, session); err != nil {
			return fmt.Errorf("failed to save scan: %w", err)
		}
		e.logger.Info("Scan saved", "scan_id", session.ID)
	}

	return writeRecords(cmd.OutOrStdout(), opts.format, session)
}

func remoteScan(ctx context.Context, addr string, req domain.ScanRequest) ([]domain.AccessPointRecord, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer conn.Close()

	// allow the server its full scan plus the iwlist fallback
	ctx, cancel := context.WithTimeout(ctx, 2*req.Timeout()+5*time.Second)
	defer cancel()

	out, err := rpc.NewClient(conn).RunScan(ctx, req.Interface, req.DurationSeconds)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(out.AsMap()["access_points"])
	if err != nil {
		return nil, err
	}
	var records []domain.AccessPointRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to decode scan result: %w", err)
	}
	return records, nil
}
