// Package grpcapi exposes the ledger command and stats surface over gRPC.
//
// Messages are google.protobuf.Struct values; field names follow the JSON
// wire form used by the live-connection protocol.
package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "pitchside.ledger.v1.LedgerService"

// Method names of the ledger service.
const (
	MethodAppendEvent        = "AppendEvent"
	MethodCorrectEvent       = "CorrectEvent"
	MethodTransitionMatch    = "TransitionMatch"
	MethodComputeMatchStats  = "ComputeMatchStats"
	MethodComputeSeasonStats = "ComputeSeasonStats"
	MethodGetSnapshot        = "GetSnapshot"
	MethodCreateMatch        = "CreateMatch"
	MethodSetLineup          = "SetLineup"
)

// LedgerServer is the server API of the ledger service.
type LedgerServer interface {
	AppendEvent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CorrectEvent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TransitionMatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ComputeMatchStats(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ComputeSeasonStats(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSnapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateMatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetLineup(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type method func(LedgerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func handler(name string, call method) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(LedgerServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(LedgerServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

// ServiceDesc describes the ledger service for registration.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		handler(MethodAppendEvent, LedgerServer.AppendEvent),
		handler(MethodCorrectEvent, LedgerServer.CorrectEvent),
		handler(MethodTransitionMatch, LedgerServer.TransitionMatch),
		handler(MethodComputeMatchStats, LedgerServer.ComputeMatchStats),
		handler(MethodComputeSeasonStats, LedgerServer.ComputeSeasonStats),
		handler(MethodGetSnapshot, LedgerServer.GetSnapshot),
		handler(MethodCreateMatch, LedgerServer.CreateMatch),
		handler(MethodSetLineup, LedgerServer.SetLineup),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pitchside/ledger/v1/ledger.proto",
}

// RegisterLedgerServer registers srv on s.
func RegisterLedgerServer(s grpc.ServiceRegistrar, srv LedgerServer) {
	s.RegisterService(&ServiceDesc, srv)
}
