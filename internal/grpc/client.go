package grpc

import (
	"context"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/Billy-Davies-2/teamforge/internal/cache"
	"github.com/Billy-Davies-2/teamforge/internal/commands"
	"github.com/Billy-Davies-2/teamforge/internal/pubsub"
)

// Client calls RosterService over an existing connection using the JSON codec
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// WithOperator attaches the operator id to outgoing calls
func WithOperator(ctx context.Context, operatorID string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, OperatorMetadataKey, operatorID)
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	return c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, grpc.CallContentSubtype(CodecName))
}

func (c *Client) AddMember(ctx context.Context, req *AddMemberRequest) (*commands.MemberResult, error) {
	out := new(commands.MemberResult)
	if err := c.invoke(ctx, "AddMember", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RemoveMember(ctx context.Context, req *RemoveMemberRequest) (*commands.MemberResult, error) {
	out := new(commands.MemberResult)
	if err := c.invoke(ctx, "RemoveMember", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RenameMember(ctx context.Context, req *RenameMemberRequest) (*commands.MemberResult, error) {
	out := new(commands.MemberResult)
	if err := c.invoke(ctx, "RenameMember", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SetPower(ctx context.Context, req *SetPowerRequest) (*commands.MemberResult, error) {
	out := new(commands.MemberResult)
	if err := c.invoke(ctx, "SetPower", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SwapPower(ctx context.Context, req *SwapPowerRequest) (*commands.SwapResult, error) {
	out := new(commands.SwapResult)
	if err := c.invoke(ctx, "SwapPower", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListMembers(ctx context.Context) (*commands.ListResult, error) {
	out := new(commands.ListResult)
	if err := c.invoke(ctx, "ListMembers", &ListMembersRequest{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FormTeams(ctx context.Context, req *FormTeamsRequest) (*cache.Entry, error) {
	out := new(cache.Entry)
	if err := c.invoke(ctx, "FormTeams", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// StreamEvents delivers events to fn until the context ends, the server
// closes the stream, or fn returns an error
func (c *Client) StreamEvents(ctx context.Context, replay int, fn func(pubsub.Event) error) error {
	desc := &RosterServiceDesc.Streams[0]
	stream, err := c.conn.NewStream(ctx, desc, "/"+ServiceName+"/"+desc.StreamName, grpc.CallContentSubtype(CodecName))
	if err != nil {
		return err
	}
	if err := stream.SendMsg(&StreamEventsRequest{Replay: replay}); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}
	for {
		var event pubsub.Event
		if err := stream.RecvMsg(&event); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if err := fn(event); err != nil {
			return err
		}
	}
}
