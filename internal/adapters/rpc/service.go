// Package rpc exposes the scan pipeline over gRPC. Messages are
// google.protobuf.Struct values so no generated code is needed; the
// standard health service reports scanner readiness.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "wifiradar.v1.Scanner"

	runScanMethod = "/" + ServiceName + "/RunScan"
)

// ScannerServer is the server API for wifiradar.v1.Scanner.
type ScannerServer interface {
	RunScan(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterScannerServer registers srv on s.
func RegisterScannerServer(s grpc.ServiceRegistrar, srv ScannerServer) {
	s.RegisterService(&scannerServiceDesc, srv)
}

var scannerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScannerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RunScan", Handler: runScanHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "wifiradar/v1/scanner.proto",
}

func runScanHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ScannerServer).RunScan(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: runScanMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ScannerServer).RunScan(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls a remote wifiradar.v1.Scanner.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// RunScan asks the remote side to scan iface for up to durationSeconds.
func (c *Client) RunScan(ctx context.Context, iface string, durationSeconds int, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(map[string]any{
		"interface": iface,
		"duration":  durationSeconds,
	})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, runScanMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
