package grpc

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/mikeday37/maneuver-autothrottle/internal/application/autothrottle"
)

// The master switch service uses only well-known protobuf types, so the
// descriptor is written out here instead of generated from a .proto file.
const (
	switchServiceName = "autothrottle.v1.MasterSwitch"

	methodGetStatus    = "/" + switchServiceName + "/GetStatus"
	methodToggle       = "/" + switchServiceName + "/Toggle"
	methodToggleRepeat = "/" + switchServiceName + "/ToggleRepeat"
	methodDisable      = "/" + switchServiceName + "/Disable"
)

// SwitchServiceServer is the operator surface of the controller: it reads
// the latest snapshot and flips the master switch.
type SwitchServiceServer interface {
	GetStatus(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Toggle(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error)
	ToggleRepeat(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error)
	Disable(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error)
}

// SwitchServiceDesc describes autothrottle.v1.MasterSwitch.
var SwitchServiceDesc = grpc.ServiceDesc{
	ServiceName: switchServiceName,
	HandlerType: (*SwitchServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetStatus", Handler: getStatusHandler},
		{MethodName: "Toggle", Handler: unaryBoolHandler(methodToggle, SwitchServiceServer.Toggle)},
		{MethodName: "ToggleRepeat", Handler: unaryBoolHandler(methodToggleRepeat, SwitchServiceServer.ToggleRepeat)},
		{MethodName: "Disable", Handler: unaryBoolHandler(methodDisable, SwitchServiceServer.Disable)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "autothrottle/v1/switch.proto",
}

// RegisterSwitchServiceServer registers srv on s.
func RegisterSwitchServiceServer(s grpc.ServiceRegistrar, srv SwitchServiceServer) {
	s.RegisterService(&SwitchServiceDesc, srv)
}

func getStatusHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SwitchServiceServer).GetStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetStatus}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SwitchServiceServer).GetStatus(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

type boolMethod func(SwitchServiceServer, context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error)

func unaryBoolHandler(fullMethod string, call boolMethod) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(emptypb.Empty)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SwitchServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(SwitchServiceServer), ctx, req.(*emptypb.Empty))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// switchService implements SwitchServiceServer over a live controller.
type switchService struct {
	sw       *autothrottle.MasterSwitch
	snapshot func() autothrottle.Snapshot
	logger   *slog.Logger
}

// NewSwitchService creates the service for sw. snapshot is usually
// Controller.Snapshot.
func NewSwitchService(sw *autothrottle.MasterSwitch, snapshot func() autothrottle.Snapshot, logger *slog.Logger) SwitchServiceServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &switchService{sw: sw, snapshot: snapshot, logger: logger}
}

func (s *switchService) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return SnapshotToStruct(s.snapshot())
}

func (s *switchService) Toggle(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	enabled := s.sw.Toggle()
	s.logger.Info("master switch toggled", "enabled", enabled)
	return wrapperspb.Bool(enabled), nil
}

func (s *switchService) ToggleRepeat(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	repeat := s.sw.ToggleRepeat()
	s.logger.Info("repeat toggled", "repeat", repeat)
	return wrapperspb.Bool(repeat), nil
}

// Disable returns whether the switch was enabled before the call.
func (s *switchService) Disable(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	was := s.sw.Disable()
	if was {
		s.logger.Info("master switch disabled")
	}
	return wrapperspb.Bool(was), nil
}
