// Package grpc exposes the roster commands as teamforge.v1.RosterService.
// Messages are plain Go structs carried by a JSON codec, so the service
// descriptor is written by hand instead of generated.
package grpc

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Billy-Davies-2/teamforge/internal/cache"
	"github.com/Billy-Davies-2/teamforge/internal/commands"
	"github.com/Billy-Davies-2/teamforge/internal/dal"
	"github.com/Billy-Davies-2/teamforge/internal/formation"
	"github.com/Billy-Davies-2/teamforge/internal/logger"
	"github.com/Billy-Davies-2/teamforge/internal/models"
	"github.com/Billy-Davies-2/teamforge/internal/pubsub"
)

// OperatorMetadataKey names the calling operator
const OperatorMetadataKey = "x-operator-id"

// EventSource is the bus StreamEvents subscribes to
type EventSource interface {
	Subscribe() chan pubsub.Event
	Unsubscribe(chan pubsub.Event)
}

// Server implements RosterService on top of the command layer
type Server struct {
	svc     *commands.Service
	events  EventSource
	history *pubsub.History
}

// NewServer creates a new gRPC server. history may be nil.
func NewServer(svc *commands.Service, events EventSource, history *pubsub.History) *Server {
	return &Server{
		svc:     svc,
		events:  events,
		history: history,
	}
}

// toStatus maps domain errors to gRPC status codes
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	code := codes.Internal
	switch {
	case errors.Is(err, dal.ErrPlayerNotFound), errors.Is(err, commands.ErrNoFormation):
		code = codes.NotFound
	case errors.Is(err, dal.ErrPlayerExists):
		code = codes.AlreadyExists
	case errors.Is(err, commands.ErrInvalidName),
		errors.Is(err, commands.ErrInvalidPower),
		errors.Is(err, commands.ErrInvalidProbability),
		errors.Is(err, commands.ErrInvalidCap),
		errors.Is(err, commands.ErrNoNames),
		errors.Is(err, models.ErrUnknownProfession),
		errors.Is(err, formation.ErrInvalidStrategy),
		errors.Is(err, formation.ErrCarryListEmpty):
		code = codes.InvalidArgument
	case formation.StatusOf(err) != "":
		code = codes.FailedPrecondition
	}
	if code == codes.Internal {
		logger.Error("gRPC: Request failed", "error", err)
	}
	return status.Error(code, err.Error())
}

func operatorFrom(ctx context.Context, fallback string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(OperatorMetadataKey); len(vals) > 0 && strings.TrimSpace(vals[0]) != "" {
			return strings.TrimSpace(vals[0])
		}
	}
	return fallback
}

func (s *Server) AddMember(ctx context.Context, req *AddMemberRequest) (*commands.MemberResult, error) {
	logger.Info("gRPC: Adding member", "name", req.Name, "profession", req.Profession)
	res, err := s.svc.AddMember(req.Name, req.Profession, req.Power)
	return res, toStatus(err)
}

func (s *Server) RemoveMember(ctx context.Context, req *RemoveMemberRequest) (*commands.MemberResult, error) {
	logger.Info("gRPC: Removing member", "name", req.Name)
	res, err := s.svc.RemoveMember(req.Name)
	return res, toStatus(err)
}

func (s *Server) RenameMember(ctx context.Context, req *RenameMemberRequest) (*commands.MemberResult, error) {
	res, err := s.svc.RenameMember(req.OldName, req.NewName)
	return res, toStatus(err)
}

func (s *Server) SetPower(ctx context.Context, req *SetPowerRequest) (*commands.MemberResult, error) {
	res, err := s.svc.SetPower(req.Name, req.Power)
	return res, toStatus(err)
}

func (s *Server) SwapPower(ctx context.Context, req *SwapPowerRequest) (*commands.SwapResult, error) {
	res, err := s.svc.SwapPower(req.A, req.B)
	return res, toStatus(err)
}

func (s *Server) ListMembers(ctx context.Context, req *ListMembersRequest) (*commands.ListResult, error) {
	res, err := s.svc.MemberList()
	return res, toStatus(err)
}

// FormTeams runs auto_create_group. Formation failures return a status whose
// message is the rendered explanation.
func (s *Server) FormTeams(ctx context.Context, req *FormTeamsRequest) (*cache.Entry, error) {
	r := *req
	r.OperatorID = operatorFrom(ctx, req.OperatorID)
	if r.OperatorID == "" {
		return nil, status.Error(codes.InvalidArgument, "operator id is required")
	}

	logger.Info("gRPC: Forming groups", "operator_id", r.OperatorID, "strategy", r.Strategy)
	entry, err := s.svc.Form(ctx, r)
	if err != nil {
		if entry != nil {
			return nil, status.Error(status.Code(toStatus(err)), entry.Message)
		}
		return nil, toStatus(err)
	}
	return entry, nil
}

// StreamEvents replays recent events, then streams live ones until the client leaves
func (s *Server) StreamEvents(req *StreamEventsRequest, stream grpc.ServerStream) error {
	logger.Debug("gRPC: New client connected to event stream")
	eventChan := s.events.Subscribe()
	defer s.events.Unsubscribe(eventChan)

	if s.history != nil && req.Replay > 0 {
		for _, event := range s.history.Recent(req.Replay) {
			if err := stream.SendMsg(&event); err != nil {
				return err
			}
		}
	}

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return nil
			}
			if err := stream.SendMsg(&event); err != nil {
				logger.Error("gRPC: Failed to send event to stream", "error", err)
				return err
			}
		case <-stream.Context().Done():
			logger.Debug("gRPC: Client disconnected from event stream")
			return nil
		}
	}
}

// loggingInterceptor logs each unary call with its outcome
func loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	logger.Debug("gRPC: Call finished",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, err
}

// NewGRPCServer registers the roster and health services on a new grpc.Server
func NewGRPCServer(srv *Server, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(loggingInterceptor)}, opts...)
	gs := grpc.NewServer(opts...)
	RegisterRosterServiceServer(gs, srv)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)

	return gs, hs
}
