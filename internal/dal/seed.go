package dal

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Billy-Davies-2/teamforge/internal/models"
)

func genID() string {
	return uuid.NewString()
}

func normalizeName(name string) string {
	return strings.TrimSpace(name)
}

// LoadSeedFile reads a YAML roster seed. Professions may use English or in-game names.
func LoadSeedFile(path string, catalog models.Catalog) (*models.Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file %s: %w", path, err)
	}
	return ParseSeed(data, catalog)
}

// ParseSeed decodes and validates a YAML roster seed
func ParseSeed(data []byte, catalog models.Catalog) (*models.Seed, error) {
	var seed models.Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse roster seed: %w", err)
	}

	names := make(map[string]bool, len(seed.Players))
	for i := range seed.Players {
		p := &seed.Players[i]
		p.Name = normalizeName(p.Name)
		if p.Name == "" {
			return nil, fmt.Errorf("roster seed player %d has no name", i)
		}
		if names[p.Name] {
			return nil, fmt.Errorf("roster seed player %q: %w", p.Name, ErrPlayerExists)
		}
		names[p.Name] = true

		prof, err := catalog.ParseProfession(string(p.Profession))
		if err != nil {
			return nil, fmt.Errorf("roster seed player %q: %w", p.Name, err)
		}
		p.Profession = prof
	}
	for _, name := range seed.LeaderCandidates {
		if !names[normalizeName(name)] {
			return nil, fmt.Errorf("roster seed leader %q: %w", name, ErrPlayerNotFound)
		}
	}
	return &seed, nil
}

// seedIDs assigns fresh IDs to the seed's players and resolves leader names
func seedIDs(seed *models.Seed) ([]models.Player, []string) {
	players := make([]models.Player, len(seed.Players))
	byName := make(map[string]string, len(seed.Players))
	for i, p := range seed.Players {
		p.ID = genID()
		players[i] = p
		byName[p.Name] = p.ID
	}
	var leaders []string
	for _, name := range seed.LeaderCandidates {
		if id, ok := byName[normalizeName(name)]; ok {
			leaders = append(leaders, id)
		}
	}
	return players, leaders
}

// DefaultSeed is the built-in guild roster used when the store starts empty
func DefaultSeed() *models.Seed {
	sw, kn, mg, sg := models.ProfessionSwordsman, models.ProfessionKnight, models.ProfessionMage, models.ProfessionSage
	return &models.Seed{
		Players: []models.Player{
			{Name: "ちるっと", Profession: sw, Power: 2000},
			{Name: "ほんあり", Profession: kn, Power: 1980},
			{Name: "ひらぱー", Profession: mg, Power: 1960},
			{Name: "炭酸", Profession: mg, Power: 1940},
			{Name: "きゅーりー", Profession: kn, Power: 1920},
			{Name: "chami", Profession: mg, Power: 1900},
			{Name: "ノク", Profession: mg, Power: 1880},
			{Name: "金パチ", Profession: sg, Power: 1860},
			{Name: "Jackal", Profession: mg, Power: 1840},
			{Name: "シュシュリカ", Profession: sg, Power: 1820},
			{Name: "乳酸菌", Profession: mg, Power: 1800},
			{Name: "もや", Profession: kn, Power: 1780},
			{Name: "かなり", Profession: sw, Power: 1760},
			{Name: "つきみや", Profession: mg, Power: 1740},
			{Name: "おなまえ", Profession: sg, Power: 1720},
			{Name: "ことりり", Profession: mg, Power: 1700},
			{Name: "Coco", Profession: mg, Power: 1680},
			{Name: "しの", Profession: sg, Power: 1660},
			{Name: "せど", Profession: sw, Power: 1640},
			{Name: "kazu", Profession: mg, Power: 1620},
			{Name: "もん", Profession: sw, Power: 1600},
			{Name: "あい", Profession: sw, Power: 1580},
			{Name: "INTP", Profession: sg, Power: 1560},
			{Name: "Tera", Profession: mg, Power: 1540},
			{Name: "JIN", Profession: sg, Power: 1520},
			{Name: "96", Profession: mg, Power: 1500},
			{Name: "しらす", Profession: sg, Power: 1480},
			{Name: "ジークアクス", Profession: kn, Power: 1460},
			{Name: "くにお", Profession: sw, Power: 1440},
			{Name: "みんふぁ", Profession: mg, Power: 1420},
			{Name: "ぽんずー", Profession: mg, Power: 1400},
			{Name: "らいち", Profession: sw, Power: 1380},
			{Name: "ぽりんきー", Profession: sw, Power: 1360},
			{Name: "おとも", Profession: mg, Power: 1340},
			{Name: "ぱんどら", Profession: kn, Power: 1320},
			{Name: "うさちゃ", Profession: mg, Power: 1300},
			{Name: "黒紫音", Profession: sw, Power: 1280},
		},
		LeaderCandidates: []string{"きゅーりー", "もや", "炭酸", "INTP", "シュシュリカ", "しの", "つきみや", "ぽんずー", "96"},
	}
}
