// Package rpc exposes gacha pulls and profile reads over gRPC. Messages are
// protobuf well-known types, so no generated code is needed.
package rpc

import (
	"context"
	"errors"
	"math"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/xtding233/pocket-encounters/internal/bot"
	"github.com/xtding233/pocket-encounters/internal/profile"
)

const (
	ServiceName   = "pocket.v1.Gacha"
	pullMethod    = "/" + ServiceName + "/Pull"
	profileMethod = "/" + ServiceName + "/Profile"

	maxPullCount = 10
)

// GachaServer is the server API.
type GachaServer interface {
	// Pull takes {"user_id": string, "count": number}.
	Pull(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Profile(ctx context.Context, userID *wrapperspb.StringValue) (*structpb.Struct, error)
}

// Puller charges and runs gacha pulls.
type Puller interface {
	Pull(ctx context.Context, userID string, n int) (bot.PullResult, error)
}

// ProfileReader returns a copy of a player's profile.
type ProfileReader interface {
	Get(ctx context.Context, userID string) (profile.Profile, error)
}

// Service implements GachaServer.
type Service struct {
	puller   Puller
	profiles ProfileReader
}

var _ GachaServer = (*Service)(nil)

func NewService(p Puller, r ProfileReader) *Service {
	return &Service{puller: p, profiles: r}
}

func (s *Service) Pull(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	userID := strings.TrimSpace(fields["user_id"].GetStringValue())
	if userID == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id is required")
	}
	count := 1.0
	if v, ok := fields["count"]; ok {
		count = v.GetNumberValue()
	}
	if math.Trunc(count) != count || count < 1 || count > maxPullCount {
		return nil, status.Errorf(codes.InvalidArgument, "count must be a whole number between 1 and %d", maxPullCount)
	}
	n := int(count)

	res, err := s.puller.Pull(ctx, userID, n)
	if err != nil {
		return nil, toStatus(err)
	}
	outs := make([]any, len(res.Outcomes))
	for i, o := range res.Outcomes {
		outs[i] = map[string]any{
			"tier":     int(o.Tier),
			"item":     o.Item,
			"featured": o.Featured,
		}
	}
	out, err := structpb.NewStruct(map[string]any{
		"outcomes":   outs,
		"cost":       res.Cost,
		"balance":    res.Balance,
		"big_pity":   res.Pity.Big,
		"small_pity": res.Pity.Small,
		"guarantee":  res.Pity.Guarantee,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode pull: %v", err)
	}
	return out, nil
}

func (s *Service) Profile(ctx context.Context, userID *wrapperspb.StringValue) (*structpb.Struct, error) {
	id := strings.TrimSpace(userID.GetValue())
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "user id is required")
	}
	p, err := s.profiles.Get(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	items := make(map[string]any, len(p.Items))
	for k, v := range p.Items {
		items[k] = v
	}
	team := make([]any, len(p.Roster.Creatures))
	for i, c := range p.Roster.Creatures {
		team[i] = map[string]any{
			"species":    c.Species,
			"name":       c.Name,
			"health":     c.Health,
			"max_health": c.MaxHealth,
		}
	}
	out, err := structpb.NewStruct(map[string]any{
		"user_id":    p.UserID,
		"coins":      p.Coins,
		"xp":         p.XP,
		"level":      p.Level(),
		"wins":       p.Wins,
		"losses":     p.Losses,
		"big_pity":   p.Pity.Big,
		"small_pity": p.Pity.Small,
		"guarantee":  p.Pity.Guarantee,
		"items":      items,
		"team":       team,
		"active":     p.Roster.ActiveIdx,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode profile: %v", err)
	}
	return out, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, profile.ErrInsufficientFunds):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// ServiceDesc describes the Gacha service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GachaServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Pull", Handler: pullHandler},
		{MethodName: "Profile", Handler: profileHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pocket/v1/gacha.proto",
}

func RegisterGachaServer(s grpc.ServiceRegistrar, srv GachaServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func pullHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GachaServer).Pull(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: pullMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(GachaServer).Pull(ctx, req.(*structpb.Struct))
	})
}

func profileHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GachaServer).Profile(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: profileMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(GachaServer).Profile(ctx, req.(*wrapperspb.StringValue))
	})
}

// Client calls a remote Gacha service.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

func (c *Client) Pull(ctx context.Context, userID string, count int, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(map[string]any{"user_id": userID, "count": count})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, pullMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Profile(ctx context.Context, userID string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, profileMethod, wrapperspb.String(userID), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
