package commands

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Billy-Davies-2/teamforge/internal/dal"
	"github.com/Billy-Davies-2/teamforge/internal/formation"
	"github.com/Billy-Davies-2/teamforge/internal/logger"
	"github.com/Billy-Davies-2/teamforge/internal/metrics"
	"github.com/Billy-Davies-2/teamforge/internal/models"
	"github.com/Billy-Davies-2/teamforge/internal/pubsub"
)

func init() {
	logger.Init("error")
}

type recorder struct {
	mu     sync.Mutex
	events []pubsub.Event
}

func (r *recorder) Publish(e pubsub.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func testSeed() *models.Seed {
	profs := []models.Profession{
		models.ProfessionKnight, models.ProfessionSage, models.ProfessionMage, models.ProfessionSwordsman,
		models.ProfessionKnight, models.ProfessionSage, models.ProfessionMage, models.ProfessionSwordsman,
	}
	seed := &models.Seed{LeaderCandidates: []string{"m0", "m4"}}
	for i, prof := range profs {
		seed.Players = append(seed.Players, models.Player{
			Name:       fmt.Sprintf("m%d", i),
			Profession: prof,
			Power:      2000 - i*100,
		})
	}
	return seed
}

func newTestService(t *testing.T, opts ...Option) (*Service, *recorder) {
	t.Helper()
	events := &recorder{}
	svc := NewService(dal.NewMemoryDAL(testSeed()), formation.NewSeededSource(1, 2), events, opts...)
	return svc, events
}

func TestAddMember(t *testing.T) {
	svc, events := newTestService(t)

	res, err := svc.AddMember("newbie", "騎士", 1234)
	require.NoError(t, err)
	assert.Equal(t, models.ProfessionKnight, res.Player.Profession)
	assert.NotEmpty(t, res.Player.ID)
	assert.Contains(t, res.Message, "`newbie`")

	_, err = svc.AddMember("newbie", "knight", 1)
	assert.ErrorIs(t, err, dal.ErrPlayerExists)

	_, err = svc.AddMember("other", "bard", 1)
	assert.Error(t, err)

	_, err = svc.AddMember("two words", "knight", 1)
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = svc.AddMember("neg", "knight", -1)
	assert.ErrorIs(t, err, ErrInvalidPower)

	assert.Equal(t, []string{pubsub.MemberAdded}, events.types())
}

func TestRenameKeepsListMembership(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ExcludeMembers("op", []string{"m1"})
	require.NoError(t, err)

	_, err = svc.RenameMember("m1", "renamed")
	require.NoError(t, err)

	cfg, err := svc.OperatorConfig("op")
	require.NoError(t, err)
	assert.Equal(t, []string{"renamed"}, cfg.Names[models.ListExcluded])

	_, err = svc.RenameMember("m2", "renamed")
	assert.ErrorIs(t, err, dal.ErrPlayerExists)
	_, err = svc.RenameMember("ghost", "x")
	assert.ErrorIs(t, err, dal.ErrPlayerNotFound)
}

func TestRemoveMemberPrunesLists(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SetCarried("op", []string{"m0"})
	require.NoError(t, err)

	_, err = svc.RemoveMember("m0")
	require.NoError(t, err)

	cfg, err := svc.OperatorConfig("op")
	require.NoError(t, err)
	assert.Empty(t, cfg.Names[models.ListCarried])

	leaders, err := svc.LeaderList()
	require.NoError(t, err)
	assert.Equal(t, []string{"m4"}, leaders.Leaders)
}

func TestSwapPower(t *testing.T) {
	svc, events := newTestService(t)

	res, err := svc.SwapPower("m0", "m7")
	require.NoError(t, err)
	assert.Equal(t, 1300, res.A.Power)
	assert.Equal(t, 2000, res.B.Power)

	_, err = svc.SwapPower("m0", "ghost")
	assert.ErrorIs(t, err, dal.ErrPlayerNotFound)

	assert.Equal(t, []string{pubsub.MemberSwapped}, events.types())
}

func TestBatchCommandsReportAddedNotFoundAlready(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.ExcludeMembers("op", []string{"m1", "ghost", "m2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, res.Added)
	assert.Equal(t, []string{"ghost"}, res.NotFound)
	assert.Empty(t, res.Already)

	res, err = svc.ExcludeMembers("op", []string{"m1"})
	require.NoError(t, err)
	assert.Empty(t, res.Added)
	assert.Equal(t, []string{"m1"}, res.Already)
	assert.Equal(t, "Every listed member is already excluded.", res.Message)

	_, err = svc.ExcludeMembers("op", nil)
	assert.ErrorIs(t, err, ErrNoNames)

	cleared, err := svc.ClearExcluded("op")
	require.NoError(t, err)
	assert.Equal(t, 2, cleared.Removed)

	cleared, err = svc.ClearExcluded("op")
	require.NoError(t, err)
	assert.Equal(t, 0, cleared.Removed)
	assert.Contains(t, cleared.Message, "already empty")
}

func TestFixTeamAndClearFixed(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.FixTeam("op", []string{"m0"}, []string{"m1", "nobody"})
	require.NoError(t, err)
	assert.Equal(t, []string{"m0"}, res.Fixed.Added)
	assert.Equal(t, []string{"m1"}, res.Preferred.Added)
	assert.Equal(t, []string{"nobody"}, res.Preferred.NotFound)

	avail, err := svc.CheckAvailable("op")
	require.NoError(t, err)
	assert.Equal(t, 6, avail.Available)

	cleared, err := svc.ClearFixed("op")
	require.NoError(t, err)
	assert.Equal(t, 2, cleared.Removed)
	assert.Contains(t, cleared.Message, "fixed and preferred")
}

func TestSetFormationDefaults(t *testing.T) {
	svc, _ := newTestService(t)

	p := 0.25
	res, err := svc.SetFormationDefaults("op", Settings{Probability: &p})
	require.NoError(t, err)
	assert.Equal(t, 0.25, res.Config.Probability)
	assert.Equal(t, models.DefaultMaxSages, res.Config.MaxSages)

	bad := 1.5
	_, err = svc.SetFormationDefaults("op", Settings{Probability: &bad})
	assert.ErrorIs(t, err, ErrInvalidProbability)

	neg := -1
	_, err = svc.SetFormationDefaults("op", Settings{MaxKnights: &neg})
	assert.ErrorIs(t, err, ErrInvalidCap)
}

func TestLeaderCandidates(t *testing.T) {
	svc, events := newTestService(t)

	res, err := svc.AddLeaderCandidates([]string{"m1", "m0", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, res.Added)
	assert.Equal(t, []string{"m0"}, res.Already)
	assert.Equal(t, []string{"ghost"}, res.NotFound)
	assert.Contains(t, res.Message, "Already set: `m0`")

	res, err = svc.RemoveLeaderCandidates([]string{"m4", "m2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"m4"}, res.Added)
	assert.Equal(t, []string{"m2"}, res.NotFound)

	list, err := svc.LeaderList()
	require.NoError(t, err)
	assert.Equal(t, []string{"m0", "m1"}, list.Leaders)

	assert.Equal(t, []string{pubsub.LeadersUpdated, pubsub.LeadersUpdated}, events.types())
}

func TestFormPublishesAndCaches(t *testing.T) {
	collector := metrics.NewCollector("test")
	svc, events := newTestService(t, WithMetrics(collector))
	ctx := context.Background()

	_, err := svc.LastGroup(ctx, "op")
	assert.ErrorIs(t, err, ErrNoFormation)

	entry, err := svc.Form(ctx, FormRequest{OperatorID: "op", Strategy: "high_power"})
	require.NoError(t, err)
	assert.Equal(t, formation.StatusOK, entry.Result.Status)
	assert.Len(t, entry.Result.Teams, 2)
	assert.Equal(t, 8, entry.Result.Members())
	assert.Contains(t, entry.Message, "Team 2")

	last, err := svc.LastGroup(ctx, "op")
	require.NoError(t, err)
	assert.Equal(t, entry.Message, last.Message)

	assert.Equal(t, []string{pubsub.FormationCreated}, events.types())
	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `test_formations_total{status="ok",strategy="high_power"} 1`)
}

func TestFormFailureReturnsEntry(t *testing.T) {
	svc, events := newTestService(t)
	ctx := context.Background()

	_, err := svc.ExcludeMembers("op", []string{"m0", "m1", "m2", "m3", "m4"})
	require.NoError(t, err)

	entry, err := svc.Form(ctx, FormRequest{OperatorID: "op"})
	assert.ErrorIs(t, err, formation.ErrInsufficientMembers)
	require.NotNil(t, entry)
	assert.Contains(t, entry.Message, "3 available")

	entry, err = svc.Form(ctx, FormRequest{OperatorID: "other", Strategy: "zerg"})
	assert.ErrorIs(t, err, formation.ErrInvalidStrategy)
	assert.Contains(t, entry.Message, "`zerg`")

	_, err = svc.LastGroup(ctx, "op")
	assert.ErrorIs(t, err, ErrNoFormation)

	for _, typ := range events.types() {
		assert.NotEqual(t, pubsub.FormationCreated, typ)
	}
}

func TestFormCarryOverride(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SetCarried("op", []string{"m7"})
	require.NoError(t, err)

	entry, err := svc.Form(ctx, FormRequest{OperatorID: "op", Strategy: "balance"})
	require.NoError(t, err)
	assert.True(t, entry.Result.Overridden)
	assert.Equal(t, formation.StrategyCarry, entry.Result.Strategy)
	assert.Contains(t, entry.Message, "forced to `carry`")

	_, err = svc.ExcludeMembers("op", []string{"m7"})
	require.NoError(t, err)
	entry, err = svc.Form(ctx, FormRequest{OperatorID: "op"})
	assert.ErrorIs(t, err, formation.ErrCarryTargetNotFound)
	assert.Contains(t, entry.Message, "`m7`")
}

func TestFormRejectsBadOverride(t *testing.T) {
	svc, _ := newTestService(t)

	p := -0.1
	entry, err := svc.Form(context.Background(), FormRequest{OperatorID: "op", Settings: Settings{Probability: &p}})
	assert.ErrorIs(t, err, ErrInvalidProbability)
	assert.Nil(t, entry)
}

func TestSyncPowers(t *testing.T) {
	svc, events := newTestService(t)

	changed, err := svc.SyncPowers(map[string]int{"m0": 9999, "m1": 1900, "ghost": 1})
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	list, err := svc.MemberList()
	require.NoError(t, err)
	assert.Equal(t, 9999, list.Players[0].Power)
	assert.Equal(t, []string{pubsub.PowerSynced}, events.types())

	ranking, err := svc.PowerList()
	require.NoError(t, err)
	assert.Contains(t, ranking.Message, "1. m0 (knight): power 9999")
}

func TestSplitNames(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitNames("  a b\tc \n"))
	assert.Empty(t, SplitNames("   "))
}
