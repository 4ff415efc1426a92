package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Billy-Davies-2/teamforge/internal/formation"
	"github.com/Billy-Davies-2/teamforge/internal/models"
)

var players = []models.Player{
	{ID: "1", Name: "alice", Profession: models.ProfessionKnight, Power: 1200},
	{ID: "2", Name: "bob", Profession: models.ProfessionSage, Power: 1500},
	{ID: "3", Name: "carol", Profession: models.ProfessionKnight, Power: 1300},
}

func TestBatchResult(t *testing.T) {
	msg := BatchResult(Batch{
		Action:   "excluded from auto selection",
		Added:    []string{"alice", "bob"},
		NotFound: []string{"zed"},
	})
	assert.Equal(t, "`alice, bob` excluded from auto selection.\n⚠️ Not registered: `zed`", msg)

	assert.Equal(t, "all set", BatchResult(Batch{Already: []string{"alice"}, AlreadyNote: "all set"}))
	assert.NotEmpty(t, BatchResult(Batch{}))
}

func TestBatchResultListsAlreadySet(t *testing.T) {
	msg := BatchResult(Batch{
		Action:   "set as carried",
		Added:    []string{"alice"},
		NotFound: []string{"zed"},
		Already:  []string{"bob"},
	})
	assert.Equal(t, "`alice` set as carried.\nAlready set: `bob`\n⚠️ Not registered: `zed`", msg)

	msg = BatchResult(Batch{NotFound: []string{"zed"}, Already: []string{"bob"}, AlreadyNote: "all set"})
	assert.Equal(t, "Already set: `bob`\n⚠️ Not registered: `zed`", msg)
}

func TestCleared(t *testing.T) {
	assert.Equal(t, "The excluded list is already empty.", Cleared("excluded", 0))
	assert.Equal(t, "Cleared the excluded list (2 removed).", Cleared("excluded", 2))
}

func TestMemberListKeepsInsertionOrder(t *testing.T) {
	msg := MemberList(players)
	lines := strings.Split(msg, "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, "1. Name: alice, Profession: knight, Power: 1200", lines[1])
	assert.Equal(t, "3. Name: carol, Profession: knight, Power: 1300", lines[3])
}

func TestPowerList(t *testing.T) {
	msg := PowerList(players, models.DefaultCatalog())

	assert.Contains(t, msg, "1. bob (sage): power 1500\n2. carol (knight): power 1300\n3. alice (knight): power 1200")
	assert.Contains(t, msg, "**knight**\n1. carol: power 1300\n2. alice: power 1200")
	assert.Contains(t, msg, "**sage**\n1. bob: power 1500")
	assert.Contains(t, msg, "**mage**")
}

func TestFormationRendersTeams(t *testing.T) {
	leader := players[1]
	res := &formation.Result{
		Status:   formation.StatusOK,
		Strategy: formation.StrategyBalance,
		Teams: []formation.Team{
			{Members: players[:2], Leader: &leader, TotalPower: 2700},
			{
				Members:    players[2:],
				TotalPower: 1300,
				Warnings:   []formation.Warning{{Code: formation.WarnBelowMinimum, Actual: 1, Limit: 4}},
			},
		},
	}

	msg := Formation(res, "")
	assert.Contains(t, msg, "**=== Team 1 ===**\nLeader: **bob** (sage)")
	assert.Contains(t, msg, "Members: alice (knight), bob (sage)")
	assert.Contains(t, msg, "Total power: **2700**")
	assert.Contains(t, msg, "Leader: **"+NoLeader+"**")
	assert.Contains(t, msg, "fewer than 4 members (1)")
	assert.NotContains(t, msg, "forced")
}

func TestFormationFailuresAndNotices(t *testing.T) {
	res := &formation.Result{
		Status:     formation.StatusCarryTargetNotFound,
		Strategy:   formation.StrategyCarry,
		Requested:  "balance",
		Overridden: true,
		Missing:    []string{"gone-id", "lost-id"},
	}
	msg := Formation(res, "alice")
	assert.Contains(t, msg, "forced to `carry`")
	assert.Contains(t, msg, "2 configured member(s) no longer on the roster were ignored.")
	assert.NotContains(t, msg, "gone-id")
	assert.Contains(t, msg, "Carried member `alice` was not found")

	invalid := Formation(&formation.Result{Status: formation.StatusInvalidStrategy, Requested: "zerg"}, "")
	assert.Contains(t, invalid, "`zerg`")
	for _, st := range formation.Strategies {
		assert.Contains(t, invalid, string(st))
	}

	short := Formation(&formation.Result{Status: formation.StatusInsufficientMembers, Strategy: formation.StrategyBalance, Candidates: 3}, "")
	assert.Contains(t, short, "3 available")
}

func TestOperatorConfig(t *testing.T) {
	cfg := models.NewOperatorConfig("op")
	cfg.Excluded = []string{"1"}
	msg := OperatorConfig(cfg, func(ids []string) []string {
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = "name-" + id
		}
		return out
	})
	assert.Contains(t, msg, "excluded: name-1")
	assert.Contains(t, msg, "carried: (none)")
	assert.Contains(t, msg, "probability: 1.00, max sages: 1, max knights: 1")
}
