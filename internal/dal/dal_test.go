package dal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Billy-Davies-2/teamforge/internal/models"
)

func testSeed() *models.Seed {
	return &models.Seed{
		Players: []models.Player{
			{Name: "alice", Profession: models.ProfessionKnight, Power: 1500},
			{Name: "bob", Profession: models.ProfessionSage, Power: 1200},
			{Name: "carol", Profession: models.ProfessionMage, Power: 1300},
		},
		LeaderCandidates: []string{"alice", "carol"},
	}
}

// forEachDAL runs fn against every store that needs no external service
func forEachDAL(t *testing.T, fn func(t *testing.T, d RosterDAL)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryDAL(testSeed()))
	})
	t.Run("sqlite", func(t *testing.T) {
		d, err := NewSQLiteDAL(filepath.Join(t.TempDir(), "roster.db"), testSeed())
		require.NoError(t, err)
		t.Cleanup(func() { d.Close() })
		fn(t, d)
	})
}

func names(players []models.Player) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.Name
	}
	return out
}

func TestSeededRosterKeepsOrder(t *testing.T) {
	forEachDAL(t, func(t *testing.T, d RosterDAL) {
		players, err := d.ListPlayers()
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "bob", "carol"}, names(players))

		leaders, err := d.ListLeaders()
		require.NoError(t, err)
		assert.Equal(t, []string{players[0].ID, players[2].ID}, leaders)
	})
}

func TestAddPlayerRejectsDuplicateName(t *testing.T) {
	forEachDAL(t, func(t *testing.T, d RosterDAL) {
		p, err := d.AddPlayer(&models.Player{Name: " dave ", Profession: models.ProfessionSwordsman, Power: 900})
		require.NoError(t, err)
		assert.NotEmpty(t, p.ID)
		assert.Equal(t, "dave", p.Name)

		_, err = d.AddPlayer(&models.Player{Name: "dave", Profession: models.ProfessionMage, Power: 1})
		assert.ErrorIs(t, err, ErrPlayerExists)

		players, err := d.ListPlayers()
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, names(players))
	})
}

func TestRenameKeepsReferences(t *testing.T) {
	forEachDAL(t, func(t *testing.T, d RosterDAL) {
		bob, err := d.GetPlayerByName("bob")
		require.NoError(t, err)
		_, err = d.AppendToList("op", models.ListFixed, []string{bob.ID})
		require.NoError(t, err)

		_, err = d.RenamePlayer("bob", "alice")
		assert.ErrorIs(t, err, ErrPlayerExists)
		_, err = d.RenamePlayer("nobody", "x")
		assert.ErrorIs(t, err, ErrPlayerNotFound)

		renamed, err := d.RenamePlayer("bob", "robert")
		require.NoError(t, err)
		assert.Equal(t, bob.ID, renamed.ID)

		snap, err := d.Snapshot("op")
		require.NoError(t, err)
		assert.Equal(t, []string{bob.ID}, snap.Config.Fixed)
		assert.Equal(t, "robert", snap.Players[1].Name)
	})
}

func TestRemovePlayerPrunesEverySequence(t *testing.T) {
	forEachDAL(t, func(t *testing.T, d RosterDAL) {
		alice, err := d.GetPlayerByName("alice")
		require.NoError(t, err)
		carol, err := d.GetPlayerByName("carol")
		require.NoError(t, err)

		for _, kind := range models.ListKinds {
			_, err := d.AppendToList("op", kind, []string{alice.ID, carol.ID})
			require.NoError(t, err)
		}

		removed, err := d.RemovePlayer("alice")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, removed.ID)

		cfg, err := d.GetOperatorConfig("op")
		require.NoError(t, err)
		for _, kind := range models.ListKinds {
			assert.Equal(t, []string{carol.ID}, cfg.List(kind), "list %s", kind)
		}
		leaders, err := d.ListLeaders()
		require.NoError(t, err)
		assert.Equal(t, []string{carol.ID}, leaders)

		_, err = d.RemovePlayer("alice")
		assert.ErrorIs(t, err, ErrPlayerNotFound)
	})
}

func TestPowerUpdates(t *testing.T) {
	forEachDAL(t, func(t *testing.T, d RosterDAL) {
		p, err := d.SetPower("bob", 2000)
		require.NoError(t, err)
		assert.Equal(t, 2000, p.Power)

		a, b, err := d.SwapPower("alice", "bob")
		require.NoError(t, err)
		assert.Equal(t, 2000, a.Power)
		assert.Equal(t, 1500, b.Power)

		_, _, err = d.SwapPower("alice", "ghost")
		assert.ErrorIs(t, err, ErrPlayerNotFound)

		changed, err := d.UpdatePowers(map[string]int{"alice": 2000, "carol": 1000, "ghost": 5})
		require.NoError(t, err)
		assert.Equal(t, 1, changed)

		carol, err := d.GetPlayerByName("carol")
		require.NoError(t, err)
		assert.Equal(t, 1000, carol.Power)
	})
}

func TestOperatorConfigLifecycle(t *testing.T) {
	forEachDAL(t, func(t *testing.T, d RosterDAL) {
		cfg, err := d.GetOperatorConfig("fresh")
		require.NoError(t, err)
		assert.Equal(t, models.DefaultProbability, cfg.Probability)
		assert.Empty(t, cfg.Excluded)

		added, err := d.AppendToList("op", models.ListExcluded, []string{"x", "y"})
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y"}, added)
		added, err = d.AppendToList("op", models.ListExcluded, []string{"y", "z"})
		require.NoError(t, err)
		assert.Equal(t, []string{"z"}, added)

		cfg, err = d.SetSettings("op", 0.25, 2, 0)
		require.NoError(t, err)
		assert.Equal(t, 0.25, cfg.Probability)
		assert.Equal(t, 2, cfg.MaxSages)
		assert.Equal(t, 0, cfg.MaxKnights)
		assert.Equal(t, []string{"x", "y", "z"}, cfg.Excluded)

		n, err := d.ClearList("op", models.ListExcluded)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		n, err = d.ClearList("op", models.ListExcluded)
		require.NoError(t, err)
		assert.Zero(t, n)

		_, err = d.AppendToList("op", models.ListKind("bogus"), []string{"x"})
		assert.ErrorIs(t, err, ErrInvalidList)
	})
}

func TestLeaders(t *testing.T) {
	forEachDAL(t, func(t *testing.T, d RosterDAL) {
		bob, err := d.GetPlayerByName("bob")
		require.NoError(t, err)
		carol, err := d.GetPlayerByName("carol")
		require.NoError(t, err)

		added, err := d.AddLeaders([]string{bob.ID, carol.ID})
		require.NoError(t, err)
		assert.Equal(t, []string{bob.ID}, added)

		removed, err := d.RemoveLeaders([]string{carol.ID, "ghost"})
		require.NoError(t, err)
		assert.Equal(t, []string{carol.ID}, removed)

		leaders, err := d.ListLeaders()
		require.NoError(t, err)
		assert.Len(t, leaders, 2)
		assert.Equal(t, bob.ID, leaders[1])
	})
}

func TestResetRestoresSeed(t *testing.T) {
	forEachDAL(t, func(t *testing.T, d RosterDAL) {
		_, err := d.RemovePlayer("alice")
		require.NoError(t, err)
		_, err = d.AppendToList("op", models.ListCarried, []string{"x"})
		require.NoError(t, err)

		require.NoError(t, d.Reset())

		players, err := d.ListPlayers()
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "bob", "carol"}, names(players))
		cfg, err := d.GetOperatorConfig("op")
		require.NoError(t, err)
		assert.Empty(t, cfg.Carried)
	})
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.db")
	d, err := NewSQLiteDAL(path, testSeed())
	require.NoError(t, err)
	_, err = d.AddPlayer(&models.Player{Name: "dave", Profession: models.ProfessionKnight, Power: 10})
	require.NoError(t, err)
	require.NoError(t, d.Close())

	d, err = NewSQLiteDAL(path, testSeed())
	require.NoError(t, err)
	defer d.Close()
	players, err := d.ListPlayers()
	require.NoError(t, err)
	assert.Len(t, players, 4)
}

func TestDefaultSeedIsValid(t *testing.T) {
	seed := DefaultSeed()
	assert.Len(t, seed.Players, 37)
	assert.Len(t, seed.LeaderCandidates, 9)

	d := NewMemoryDAL(nil)
	leaders, err := d.ListLeaders()
	require.NoError(t, err)
	assert.Len(t, leaders, 9)
}

func TestParseSeed(t *testing.T) {
	data := []byte(`
players:
  - name: alice
    profession: 騎士
    power: 1500
  - name: bob
    profession: Sage
    power: 1200
leader_candidates: [alice]
`)
	seed, err := ParseSeed(data, models.DefaultCatalog())
	require.NoError(t, err)
	require.Len(t, seed.Players, 2)
	assert.Equal(t, models.ProfessionKnight, seed.Players[0].Profession)
	assert.Equal(t, models.ProfessionSage, seed.Players[1].Profession)

	_, err = ParseSeed([]byte("players:\n  - {name: a, profession: bard, power: 1}\n"), models.DefaultCatalog())
	assert.ErrorContains(t, err, "unknown profession")

	_, err = ParseSeed([]byte("players:\n  - {name: a, profession: mage, power: 1}\nleader_candidates: [b]\n"), models.DefaultCatalog())
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}
