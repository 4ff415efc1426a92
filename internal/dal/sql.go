package dal

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Billy-Davies-2/teamforge/internal/models"
)

// sqlStore holds the queries shared by the SQLite and Postgres DALs.
// Queries are written with ? placeholders and rebound for Postgres.
type sqlStore struct {
	db       *sql.DB
	seed     *models.Seed
	numbered bool
}

func (s *sqlStore) rebind(query string) string {
	if !s.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
}

func (s *sqlStore) queryRow(q queryer, query string, args ...any) *sql.Row {
	return q.QueryRow(s.rebind(query), args...)
}

func (s *sqlStore) exec(q queryer, query string, args ...any) (sql.Result, error) {
	return q.Exec(s.rebind(query), args...)
}

func (s *sqlStore) query(q queryer, query string, args ...any) (*sql.Rows, error) {
	return q.Query(s.rebind(query), args...)
}

// withTx runs fn in a transaction and commits when it returns nil
func (s *sqlStore) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// seedIfEmpty loads the seed when the players table has no rows
func (s *sqlStore) seedIfEmpty() error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM players").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return s.seedData()
}

func (s *sqlStore) seedData() error {
	players, leaders := seedIDs(s.seed)
	return s.withTx(func(tx *sql.Tx) error {
		for i, p := range players {
			if _, err := s.exec(tx, `
				INSERT INTO players (id, name, profession, power, seq)
				VALUES (?, ?, ?, ?, ?)
			`, p.ID, p.Name, string(p.Profession), p.Power, i+1); err != nil {
				return fmt.Errorf("failed to seed player %q: %w", p.Name, err)
			}
		}
		for i, id := range leaders {
			if _, err := s.exec(tx, `INSERT INTO leader_candidates (player_id, seq) VALUES (?, ?)`, id, i+1); err != nil {
				return fmt.Errorf("failed to seed leader: %w", err)
			}
		}
		return nil
	})
}

func (s *sqlStore) Reset() error {
	err := s.withTx(func(tx *sql.Tx) error {
		for _, table := range []string{"operator_lists", "operator_settings", "leader_candidates", "players"} {
			if _, err := tx.Exec("DELETE FROM " + table); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.seedData()
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func scanPlayers(rows *sql.Rows) ([]models.Player, error) {
	defer rows.Close()

	players := []models.Player{}
	for rows.Next() {
		var p models.Player
		var prof string
		if err := rows.Scan(&p.ID, &p.Name, &prof, &p.Power); err != nil {
			return nil, err
		}
		p.Profession = models.Profession(prof)
		players = append(players, p)
	}
	return players, rows.Err()
}

func (s *sqlStore) listPlayers(q queryer) ([]models.Player, error) {
	rows, err := s.query(q, `SELECT id, name, profession, power FROM players ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	return scanPlayers(rows)
}

func (s *sqlStore) ListPlayers() ([]models.Player, error) {
	return s.listPlayers(s.db)
}

func (s *sqlStore) playerByName(q queryer, name string) (*models.Player, error) {
	var p models.Player
	var prof string
	err := s.queryRow(q, `SELECT id, name, profession, power FROM players WHERE name = ?`, normalizeName(name)).
		Scan(&p.ID, &p.Name, &prof, &p.Power)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%q: %w", name, ErrPlayerNotFound)
	}
	if err != nil {
		return nil, err
	}
	p.Profession = models.Profession(prof)
	return &p, nil
}

func (s *sqlStore) GetPlayerByName(name string) (*models.Player, error) {
	return s.playerByName(s.db, name)
}

func (s *sqlStore) AddPlayer(player *models.Player) (*models.Player, error) {
	player.Name = normalizeName(player.Name)
	if player.ID == "" {
		player.ID = genID()
	}

	err := s.withTx(func(tx *sql.Tx) error {
		if _, err := s.playerByName(tx, player.Name); err == nil {
			return fmt.Errorf("%q: %w", player.Name, ErrPlayerExists)
		} else if !errors.Is(err, ErrPlayerNotFound) {
			return err
		}
		_, err := s.exec(tx, `
			INSERT INTO players (id, name, profession, power, seq)
			VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM players))
		`, player.ID, player.Name, string(player.Profession), player.Power)
		return err
	})
	if err != nil {
		return nil, err
	}
	return player, nil
}

func (s *sqlStore) RemovePlayer(name string) (*models.Player, error) {
	var removed *models.Player
	err := s.withTx(func(tx *sql.Tx) error {
		p, err := s.playerByName(tx, name)
		if err != nil {
			return err
		}
		if _, err := s.exec(tx, `DELETE FROM operator_lists WHERE player_id = ?`, p.ID); err != nil {
			return err
		}
		if _, err := s.exec(tx, `DELETE FROM leader_candidates WHERE player_id = ?`, p.ID); err != nil {
			return err
		}
		if _, err := s.exec(tx, `DELETE FROM players WHERE id = ?`, p.ID); err != nil {
			return err
		}
		removed = p
		return nil
	})
	return removed, err
}

func (s *sqlStore) RenamePlayer(oldName, newName string) (*models.Player, error) {
	newName = normalizeName(newName)
	var renamed *models.Player
	err := s.withTx(func(tx *sql.Tx) error {
		p, err := s.playerByName(tx, oldName)
		if err != nil {
			return err
		}
		if other, err := s.playerByName(tx, newName); err == nil && other.ID != p.ID {
			return fmt.Errorf("%q: %w", newName, ErrPlayerExists)
		} else if err != nil && !errors.Is(err, ErrPlayerNotFound) {
			return err
		}
		if _, err := s.exec(tx, `UPDATE players SET name = ? WHERE id = ?`, newName, p.ID); err != nil {
			return err
		}
		p.Name = newName
		renamed = p
		return nil
	})
	return renamed, err
}

func (s *sqlStore) SetPower(name string, power int) (*models.Player, error) {
	var updated *models.Player
	err := s.withTx(func(tx *sql.Tx) error {
		p, err := s.playerByName(tx, name)
		if err != nil {
			return err
		}
		if _, err := s.exec(tx, `UPDATE players SET power = ? WHERE id = ?`, power, p.ID); err != nil {
			return err
		}
		p.Power = power
		updated = p
		return nil
	})
	return updated, err
}

func (s *sqlStore) SwapPower(nameA, nameB string) (*models.Player, *models.Player, error) {
	var a, b *models.Player
	err := s.withTx(func(tx *sql.Tx) error {
		var err error
		if a, err = s.playerByName(tx, nameA); err != nil {
			return err
		}
		if b, err = s.playerByName(tx, nameB); err != nil {
			return err
		}
		a.Power, b.Power = b.Power, a.Power
		if _, err := s.exec(tx, `UPDATE players SET power = ? WHERE id = ?`, a.Power, a.ID); err != nil {
			return err
		}
		_, err = s.exec(tx, `UPDATE players SET power = ? WHERE id = ?`, b.Power, b.ID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func (s *sqlStore) UpdatePowers(powers map[string]int) (int, error) {
	changed := 0
	err := s.withTx(func(tx *sql.Tx) error {
		for name, power := range powers {
			res, err := s.exec(tx, `UPDATE players SET power = ? WHERE name = ? AND power <> ?`, power, name, power)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			changed += int(n)
		}
		return nil
	})
	return changed, err
}

func (s *sqlStore) operatorConfig(q queryer, operatorID string) (*models.OperatorConfig, error) {
	cfg := models.NewOperatorConfig(operatorID)
	err := s.queryRow(q, `
		SELECT probability, max_sages, max_knights FROM operator_settings WHERE operator_id = ?
	`, operatorID).Scan(&cfg.Probability, &cfg.MaxSages, &cfg.MaxKnights)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	rows, err := s.query(q, `
		SELECT kind, player_id FROM operator_lists WHERE operator_id = ? ORDER BY kind, seq
	`, operatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var kind, id string
		if err := rows.Scan(&kind, &id); err != nil {
			return nil, err
		}
		k := models.ListKind(kind)
		cfg.SetList(k, append(cfg.List(k), id))
	}
	return cfg, rows.Err()
}

func (s *sqlStore) GetOperatorConfig(operatorID string) (*models.OperatorConfig, error) {
	return s.operatorConfig(s.db, operatorID)
}

// ensureOperator creates the settings row with defaults on first write
func (s *sqlStore) ensureOperator(tx *sql.Tx, operatorID string) error {
	_, err := s.exec(tx, `
		INSERT INTO operator_settings (operator_id, probability, max_sages, max_knights)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (operator_id) DO NOTHING
	`, operatorID, models.DefaultProbability, models.DefaultMaxSages, models.DefaultMaxKnights)
	return err
}

func (s *sqlStore) AppendToList(operatorID string, kind models.ListKind, ids []string) ([]string, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%q: %w", kind, ErrInvalidList)
	}
	var added []string
	err := s.withTx(func(tx *sql.Tx) error {
		if err := s.ensureOperator(tx, operatorID); err != nil {
			return err
		}
		for _, id := range ids {
			var exists int
			err := s.queryRow(tx, `
				SELECT COUNT(*) FROM operator_lists WHERE operator_id = ? AND kind = ? AND player_id = ?
			`, operatorID, string(kind), id).Scan(&exists)
			if err != nil {
				return err
			}
			if exists > 0 {
				continue
			}
			if _, err := s.exec(tx, `
				INSERT INTO operator_lists (operator_id, kind, player_id, seq)
				VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM operator_lists WHERE operator_id = ? AND kind = ?))
			`, operatorID, string(kind), id, operatorID, string(kind)); err != nil {
				return err
			}
			added = append(added, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

func (s *sqlStore) ClearList(operatorID string, kind models.ListKind) (int, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("%q: %w", kind, ErrInvalidList)
	}
	var cleared int
	err := s.withTx(func(tx *sql.Tx) error {
		if err := s.ensureOperator(tx, operatorID); err != nil {
			return err
		}
		res, err := s.exec(tx, `DELETE FROM operator_lists WHERE operator_id = ? AND kind = ?`, operatorID, string(kind))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		cleared = int(n)
		return err
	})
	return cleared, err
}

func (s *sqlStore) SetSettings(operatorID string, probability float64, maxSages, maxKnights int) (*models.OperatorConfig, error) {
	var cfg *models.OperatorConfig
	err := s.withTx(func(tx *sql.Tx) error {
		if err := s.ensureOperator(tx, operatorID); err != nil {
			return err
		}
		if _, err := s.exec(tx, `
			UPDATE operator_settings SET probability = ?, max_sages = ?, max_knights = ? WHERE operator_id = ?
		`, probability, maxSages, maxKnights, operatorID); err != nil {
			return err
		}
		var err error
		cfg, err = s.operatorConfig(tx, operatorID)
		return err
	})
	return cfg, err
}

func (s *sqlStore) listLeaders(q queryer) ([]string, error) {
	rows, err := s.query(q, `SELECT player_id FROM leader_candidates ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *sqlStore) ListLeaders() ([]string, error) {
	return s.listLeaders(s.db)
}

func (s *sqlStore) AddLeaders(ids []string) ([]string, error) {
	var added []string
	err := s.withTx(func(tx *sql.Tx) error {
		current, err := s.listLeaders(tx)
		if err != nil {
			return err
		}
		_, added = appendUnique(current, ids)
		for _, id := range added {
			if _, err := s.exec(tx, `
				INSERT INTO leader_candidates (player_id, seq)
				VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM leader_candidates))
			`, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

func (s *sqlStore) RemoveLeaders(ids []string) ([]string, error) {
	var removed []string
	err := s.withTx(func(tx *sql.Tx) error {
		for _, id := range ids {
			res, err := s.exec(tx, `DELETE FROM leader_candidates WHERE player_id = ?`, id)
			if err != nil {
				return err
			}
			if n, err := res.RowsAffected(); err != nil {
				return err
			} else if n > 0 {
				removed = append(removed, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *sqlStore) Snapshot(operatorID string) (*models.Snapshot, error) {
	var snap models.Snapshot
	err := s.withTx(func(tx *sql.Tx) error {
		players, err := s.listPlayers(tx)
		if err != nil {
			return err
		}
		cfg, err := s.operatorConfig(tx, operatorID)
		if err != nil {
			return err
		}
		leaders, err := s.listLeaders(tx)
		if err != nil {
			return err
		}
		snap = models.Snapshot{Players: players, Config: *cfg, Leaders: leaders}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
