package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lcalzada-xor/wifiradar/internal/core/domain"
	"github.com/lcalzada-xor/wifiradar/internal/core/ports"
	"github.com/lcalzada-xor/wifiradar/internal/core/services/scan"
)

// Server implements ScannerServer on top of a ScanRunner.
type Server struct {
	runner   ports.ScanRunner
	validate *validator.Validate
	health   *health.Server
	logger   *slog.Logger
}

// NewServer creates a server. It reports NOT_SERVING until SetServing is
// called.
func NewServer(runner ports.ScanRunner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		runner:   runner,
		validate: scan.NewValidator(),
		health:   health.NewServer(),
		logger:   logger,
	}
	s.SetServing(false)
	return s
}

// SetServing updates the health status of the scanner service.
func (s *Server) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// GRPCServer builds a grpc.Server with the scanner and health services.
func (s *Server) GRPCServer() *grpc.Server {
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(s.logInterceptor))
	RegisterScannerServer(gs, s)
	healthpb.RegisterHealthServer(gs, s.health)
	return gs
}

// Serve listens on addr until ctx is done.
func (s *Server) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	gs := s.GRPCServer()

	go func() {
		<-ctx.Done()
		s.health.Shutdown()
		gs.GracefulStop()
	}()

	s.logger.Info("gRPC server listening", "addr", lis.Addr().String())
	if err := gs.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// RunScan runs one synchronous scan. The request carries "interface" and an
// optional "duration" in seconds.
func (s *Server) RunScan(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := domain.ScanRequest{DurationSeconds: scan.DefaultDurationSeconds}
	fields := in.GetFields()
	if v, ok := fields["interface"]; ok {
		req.Interface = v.GetStringValue()
	}
	if v, ok := fields["duration"]; ok {
		req.DurationSeconds = int(v.GetNumberValue())
	}
	if err := scan.ValidateRequest(s.validate, req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	records, err := s.runner.RunScan(ctx, req.Interface, req.Timeout())
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeResult(req.Interface, records)
}

func encodeResult(iface string, records []domain.AccessPointRecord) (*structpb.Struct, error) {
	if records == nil {
		records = []domain.AccessPointRecord{}
	}
	// structpb only accepts plain JSON values
	raw, err := json.Marshal(records)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	var aps []any
	if err := json.Unmarshal(raw, &aps); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out, err := structpb.NewStruct(map[string]any{
		"interface":     iface,
		"total_count":   len(records),
		"access_points": aps,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func toStatus(err error) error {
	if sf, ok := domain.AsScanFailure(err); ok {
		code := codes.Unavailable
		switch sf.Cause {
		case domain.CauseTimeout:
			code = codes.DeadlineExceeded
		case domain.CausePermissionDenied:
			code = codes.PermissionDenied
		case domain.CauseNotFound:
			code = codes.FailedPrecondition
		case domain.CauseCancelled:
			code = codes.Canceled
		}
		return status.Error(code, sf.Error())
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

func (s *Server) logInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	code := status.Code(err)
	attrs := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start)}
	if err != nil && code != codes.InvalidArgument {
		s.logger.Warn("gRPC call failed", append(attrs, "error", err)...)
	} else {
		s.logger.Debug("gRPC call", attrs...)
	}
	return resp, err
}
