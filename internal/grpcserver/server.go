// Package grpcserver implements the jobcheck.v1.Verifier gRPC service.
//
// It delegates all business logic to verifier.Service and handles
// only the gRPC transport concerns: metadata extraction, error mapping,
// and conversion between the domain model and google.protobuf.Struct.
package grpcserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"jobmate/verifier-service/internal/apperr"
	"jobmate/verifier-service/internal/logger"
	"jobmate/verifier-service/internal/model"
	"jobmate/verifier-service/internal/verifier"
)

const (
	ServiceName   = "jobcheck.v1.Verifier"
	analyzeMethod = "/" + ServiceName + "/Analyze"
	requestIDKey  = "x-request-id"
)

// VerifierServer is the server API for jobcheck.v1.Verifier.
type VerifierServer interface {
	Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes jobcheck.v1.Verifier. Requests and responses are
// google.protobuf.Struct values with the same fields as the HTTP API.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VerifierServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Analyze", Handler: analyzeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "jobcheck/v1/verifier.proto",
}

func analyzeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VerifierServer).Analyze(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: analyzeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(VerifierServer).Analyze(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ─── Server ──────────────────────────────────────────────────────────────────

// Server implements VerifierServer.
type Server struct {
	svc verifier.Analyzer
}

// NewServer constructs a gRPC Server backed by the given analyzer.
func NewServer(svc verifier.Analyzer) *Server {
	return &Server{svc: svc}
}

// Analyze classifies the posting carried in req.
func (s *Server) Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx = verifier.WithRequestID(ctx, requestIDFromCtx(ctx))

	res, err := s.svc.Analyze(ctx, postingFromStruct(req))
	if err != nil {
		return nil, toGRPCError(err)
	}

	out, err := resultToStruct(res)
	if err != nil {
		return nil, toGRPCError(apperr.Internal("encode response", err))
	}
	return out, nil
}

// Register mounts the Verifier and the standard health service on gs.
func Register(gs *grpc.Server, srv *Server) *health.Server {
	gs.RegisterService(&ServiceDesc, srv)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)
	return hs
}

// NewGRPCServer builds a *grpc.Server with request logging.
func NewGRPCServer(log *zap.Logger, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(loggingInterceptor(logger.OrNop(log).Named("grpc"))))
	return grpc.NewServer(opts...)
}

// ─── Client ──────────────────────────────────────────────────────────────────

// Client calls jobcheck.v1.Verifier over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Analyze(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, analyzeMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// requestIDFromCtx returns the x-request-id forwarded by the caller via gRPC
// metadata, generating one when absent.
func requestIDFromCtx(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(requestIDKey); len(vals) > 0 && vals[0] != "" {
			return vals[0]
		}
	}
	return uuid.NewString()
}

// toGRPCError maps domain errors to gRPC status errors.
func toGRPCError(err error) error {
	switch apperr.KindOf(err) {
	case apperr.KindInvalidInput:
		return status.Error(codes.InvalidArgument, apperr.MessageOf(err))
	case apperr.KindUnavailable:
		return status.Error(codes.Unavailable, apperr.MessageOf(err))
	}
	return status.Error(codes.Internal, "internal server error")
}

func postingFromStruct(req *structpb.Struct) model.JobPosting {
	f := req.GetFields()
	return model.JobPosting{
		Title:       f["title"].GetStringValue(),
		Description: f["description"].GetStringValue(),
		Company:     f["company"].GetStringValue(),
		Location:    f["location"].GetStringValue(),
	}
}

// resultToStruct goes through the JSON shape so both transports agree on
// field names.
func resultToStruct(res *model.AnalysisResult) (*structpb.Struct, error) {
	b, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("structpb.NewStruct: %w", err)
	}
	return out, nil
}

func loggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("rpc",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)))
		return resp, err
	}
}
