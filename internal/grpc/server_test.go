package grpc

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/Billy-Davies-2/teamforge/internal/commands"
	"github.com/Billy-Davies-2/teamforge/internal/dal"
	"github.com/Billy-Davies-2/teamforge/internal/formation"
	"github.com/Billy-Davies-2/teamforge/internal/logger"
	"github.com/Billy-Davies-2/teamforge/internal/models"
	"github.com/Billy-Davies-2/teamforge/internal/pubsub"
)

func init() {
	logger.Init("error")
}

const bufSize = 1024 * 1024

func seedPlayers(n int) *models.Seed {
	profs := []models.Profession{models.ProfessionKnight, models.ProfessionSage, models.ProfessionMage, models.ProfessionSwordsman}
	seed := &models.Seed{LeaderCandidates: []string{"p0"}}
	for i := 0; i < n; i++ {
		seed.Players = append(seed.Players, models.Player{
			Name:       fmt.Sprintf("p%d", i),
			Profession: profs[i%len(profs)],
			Power:      1000 + i*10,
		})
	}
	return seed
}

type harness struct {
	client  *Client
	conn    *grpc.ClientConn
	ps      *pubsub.PubSub
	history *pubsub.History
}

func setup(t *testing.T, players int) *harness {
	t.Helper()
	ps := pubsub.New()
	svc := commands.NewService(dal.NewMemoryDAL(seedPlayers(players)), formation.NewSeededSource(3, 4), ps)
	history := pubsub.NewHistory(ps, 16)
	t.Cleanup(history.Close)

	lis := bufconn.Listen(bufSize)
	gs, _ := NewGRPCServer(NewServer(svc, ps, history))
	go gs.Serve(lis)
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &harness{client: NewClient(conn), conn: conn, ps: ps, history: history}
}

func TestMemberLifecycle(t *testing.T) {
	h := setup(t, 4)
	ctx := context.Background()

	added, err := h.client.AddMember(ctx, &AddMemberRequest{Name: "zed", Profession: "mage", Power: 1500})
	require.NoError(t, err)
	assert.Equal(t, "zed", added.Player.Name)
	assert.Equal(t, models.ProfessionMage, added.Player.Profession)

	_, err = h.client.SetPower(ctx, &SetPowerRequest{Name: "zed", Power: 1600})
	require.NoError(t, err)

	_, err = h.client.RenameMember(ctx, &RenameMemberRequest{OldName: "zed", NewName: "zoe"})
	require.NoError(t, err)

	swapped, err := h.client.SwapPower(ctx, &SwapPowerRequest{A: "zoe", B: "p0"})
	require.NoError(t, err)
	assert.Equal(t, 1000, swapped.A.Power)
	assert.Equal(t, 1600, swapped.B.Power)

	list, err := h.client.ListMembers(ctx)
	require.NoError(t, err)
	assert.Len(t, list.Players, 5)

	_, err = h.client.RemoveMember(ctx, &RemoveMemberRequest{Name: "zoe"})
	require.NoError(t, err)

	list, err = h.client.ListMembers(ctx)
	require.NoError(t, err)
	assert.Len(t, list.Players, 4)
}

func TestErrorCodes(t *testing.T) {
	h := setup(t, 4)
	ctx := context.Background()

	_, err := h.client.RemoveMember(ctx, &RemoveMemberRequest{Name: "ghost"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = h.client.AddMember(ctx, &AddMemberRequest{Name: "p1", Profession: "mage", Power: 1})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = h.client.AddMember(ctx, &AddMemberRequest{Name: "new", Profession: "bard", Power: 1})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.client.SetPower(ctx, &SetPowerRequest{Name: "p1", Power: -5})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestFormTeams(t *testing.T) {
	h := setup(t, 8)

	_, err := h.client.FormTeams(context.Background(), &FormTeamsRequest{Strategy: string(formation.StrategyHighPower)})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	ctx := WithOperator(context.Background(), "op-1")
	entry, err := h.client.FormTeams(ctx, &FormTeamsRequest{Strategy: string(formation.StrategyHighPower)})
	require.NoError(t, err)
	assert.Equal(t, "op-1", entry.OperatorID)
	require.NotNil(t, entry.Result)
	assert.Equal(t, formation.StatusOK, entry.Result.Status)
	assert.Len(t, entry.Result.Teams, 2)
	assert.Contains(t, entry.Message, "Team 1")

	_, err = h.client.FormTeams(ctx, &FormTeamsRequest{Strategy: "random"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestFormTeamsOperatorFromRequest(t *testing.T) {
	h := setup(t, 8)

	entry, err := h.client.FormTeams(context.Background(), &FormTeamsRequest{OperatorID: "op-body"})
	require.NoError(t, err)
	assert.Equal(t, "op-body", entry.OperatorID)
}

func TestFormTeamsInsufficientMembers(t *testing.T) {
	h := setup(t, 3)

	_, err := h.client.FormTeams(WithOperator(context.Background(), "op-1"), &FormTeamsRequest{})
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.FailedPrecondition, st.Code())
	assert.Contains(t, st.Message(), "at least 4")
}

func TestStreamEvents(t *testing.T) {
	h := setup(t, 4)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := h.client.AddMember(ctx, &AddMemberRequest{Name: "early", Profession: "sage", Power: 1})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return h.history.Len() == 1
	}, time.Second, 10*time.Millisecond)

	received := make(chan pubsub.Event, 4)
	go h.client.StreamEvents(ctx, 5, func(e pubsub.Event) error {
		received <- e
		return nil
	})

	select {
	case e := <-received:
		assert.Equal(t, pubsub.MemberAdded, e.Type)
	case <-ctx.Done():
		t.Fatal("no replayed event")
	}

	require.Eventually(t, func() bool {
		return h.ps.SubscriberCount() == 2
	}, time.Second, 10*time.Millisecond)

	_, err = h.client.RemoveMember(ctx, &RemoveMemberRequest{Name: "early"})
	require.NoError(t, err)

	select {
	case e := <-received:
		assert.Equal(t, pubsub.MemberRemoved, e.Type)
	case <-ctx.Done():
		t.Fatal("no live event")
	}
}

func TestHealth(t *testing.T) {
	h := setup(t, 4)

	resp, err := healthpb.NewHealthClient(h.conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
