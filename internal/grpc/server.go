package grpcserver

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"net"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"roomBookingManagement/internal/app"
	"roomBookingManagement/internal/archive"
	"roomBookingManagement/internal/auth"
	"roomBookingManagement/internal/config"
	"roomBookingManagement/internal/errs"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Server implements RoomBookingServer on top of app.Service.
type Server struct {
	Service  *app.Service
	Secret   string
	TokenTTL time.Duration
	Archive  archive.Provider // nil disables ExportBundle and ImportBundle
	Log      logrus.FieldLogger
}

// NewGRPCServer builds a grpc.Server with the auth interceptor, the booking service
// and the standard health service registered.
func NewGRPCServer(secret string, s *Server) *grpc.Server {
	srv := grpc.NewServer(grpc.UnaryInterceptor(auth.NewUnaryAuthInterceptor(secret,
		healthCheckMethod,
		FullMethod("Login"),
		FullMethod("Register"),
	)))
	RegisterRoomBookingServer(srv, s)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return srv
}

// StartGRPC starts the gRPC server on the configured address and returns a shutdown function.
func StartGRPC(cfg *config.Config, svc *app.Service, provider archive.Provider, log logrus.FieldLogger) (func(context.Context) error, error) {
	if cfg == nil {
		panic("config is required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	addr := cfg.GRPC.Address
	if addr == "" {
		addr = ":50051"
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := NewGRPCServer(cfg.Auth.JWTSecret, &Server{
		Service:  svc,
		Secret:   cfg.Auth.JWTSecret,
		TokenTTL: cfg.Auth.TokenTTL,
		Archive:  provider,
		Log:      log.WithField("component", "grpc"),
	})

	go func() {
		if err := srv.Serve(lis); err != nil {
			log.WithError(err).Error("grpc serve stopped")
		}
	}()
	log.WithField("addr", lis.Addr().String()).Info("grpc server listening")

	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() { srv.GracefulStop(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			srv.Stop()
			return ctx.Err()
		}
	}, nil
}

func (s *Server) logger() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

// toStatus maps domain errors onto gRPC codes. Status errors pass through.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, errs.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, errs.ErrConflict):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, errs.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, errs.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, errs.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}
	return status.Errorf(codes.Internal, "internal error: %v", err)
}

// args reads typed fields out of a request body.
type args map[string]any

func argsOf(req *structpb.Struct) args {
	if req == nil {
		return args{}
	}
	return args(req.AsMap())
}

func (a args) str(key string) string {
	v, _ := a[key].(string)
	return v
}

func (a args) has(key string) bool {
	v, ok := a[key]
	return ok && v != nil
}

func (a args) integer(key string) (int, error) {
	f, ok := a[key].(float64)
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a number", key)
	}
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", key)
	}
	return int(f), nil
}

func (a args) boolean(key string, def bool) bool {
	if v, ok := a[key].(bool); ok {
		return v
	}
	return def
}

func (a args) strings(key string) []string {
	raw, _ := a[key].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func reply(body map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(body)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// encodeCursor and decodeCursor wrap the history keyset position in an opaque token.
func encodeCursor(id int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
}

func decodeCursor(token string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("decode cursor: %w", err)
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid cursor")
	}
	return id, nil
}
