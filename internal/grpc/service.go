package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/Billy-Davies-2/teamforge/internal/cache"
	"github.com/Billy-Davies-2/teamforge/internal/commands"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "teamforge.v1.RosterService"

// RosterServiceServer is the server API for RosterService
type RosterServiceServer interface {
	AddMember(context.Context, *AddMemberRequest) (*commands.MemberResult, error)
	RemoveMember(context.Context, *RemoveMemberRequest) (*commands.MemberResult, error)
	RenameMember(context.Context, *RenameMemberRequest) (*commands.MemberResult, error)
	SetPower(context.Context, *SetPowerRequest) (*commands.MemberResult, error)
	SwapPower(context.Context, *SwapPowerRequest) (*commands.SwapResult, error)
	ListMembers(context.Context, *ListMembersRequest) (*commands.ListResult, error)
	FormTeams(context.Context, *FormTeamsRequest) (*cache.Entry, error)
	StreamEvents(*StreamEventsRequest, grpc.ServerStream) error
}

// unary builds a MethodDesc that decodes Req and dispatches through any interceptor
func unary[Req any, Resp any](name string, call func(RosterServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(Req)
			if err := dec(req); err != nil {
				return nil, err
			}
			s := srv.(RosterServiceServer)
			if interceptor == nil {
				return call(s, ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			return interceptor(ctx, req, info, func(ctx context.Context, r any) (any, error) {
				return call(s, ctx, r.(*Req))
			})
		},
	}
}

// RosterServiceDesc describes RosterService for grpc.Server.RegisterService
var RosterServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RosterServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("AddMember", RosterServiceServer.AddMember),
		unary("RemoveMember", RosterServiceServer.RemoveMember),
		unary("RenameMember", RosterServiceServer.RenameMember),
		unary("SetPower", RosterServiceServer.SetPower),
		unary("SwapPower", RosterServiceServer.SwapPower),
		unary("ListMembers", RosterServiceServer.ListMembers),
		unary("FormTeams", RosterServiceServer.FormTeams),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamEvents",
			ServerStreams: true,
			Handler: func(srv any, stream grpc.ServerStream) error {
				req := new(StreamEventsRequest)
				if err := stream.RecvMsg(req); err != nil {
					return err
				}
				return srv.(RosterServiceServer).StreamEvents(req, stream)
			},
		},
	},
	Metadata: "teamforge/v1/roster.json",
}

// RegisterRosterServiceServer registers srv on s
func RegisterRosterServiceServer(s grpc.ServiceRegistrar, srv RosterServiceServer) {
	s.RegisterService(&RosterServiceDesc, srv)
}
