package dal

import (
	"errors"

	"github.com/Billy-Davies-2/teamforge/internal/models"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrPlayerExists   = errors.New("player already exists")
	ErrInvalidList    = errors.New("invalid list kind")
)

// RosterDAL defines the interface for the roster and operator configuration store.
// Operator sequences and leader candidates hold player IDs; removing a player prunes
// its ID everywhere.
type RosterDAL interface {
	ListPlayers() ([]models.Player, error)
	GetPlayerByName(name string) (*models.Player, error)
	AddPlayer(player *models.Player) (*models.Player, error)
	RemovePlayer(name string) (*models.Player, error)
	RenamePlayer(oldName, newName string) (*models.Player, error)
	SetPower(name string, power int) (*models.Player, error)
	SwapPower(nameA, nameB string) (*models.Player, *models.Player, error)
	// UpdatePowers sets power by player name and returns how many players changed
	UpdatePowers(powers map[string]int) (int, error)

	// GetOperatorConfig never creates state; unknown operators read as defaults
	GetOperatorConfig(operatorID string) (*models.OperatorConfig, error)
	// AppendToList returns the IDs that were newly added, skipping ones already present
	AppendToList(operatorID string, kind models.ListKind, ids []string) ([]string, error)
	// ClearList returns how many entries were removed
	ClearList(operatorID string, kind models.ListKind) (int, error)
	SetSettings(operatorID string, probability float64, maxSages, maxKnights int) (*models.OperatorConfig, error)

	AddLeaders(ids []string) ([]string, error)
	RemoveLeaders(ids []string) ([]string, error)
	ListLeaders() ([]string, error)

	Snapshot(operatorID string) (*models.Snapshot, error)
	Reset() error
	Close() error
}
