package models

// Player is a roster entry. ID is stable for the lifetime of the player; Name is unique across the roster.
type Player struct {
	ID         string     `json:"id" yaml:"-"`
	Name       string     `json:"name" yaml:"name"`
	Profession Profession `json:"profession" yaml:"profession"`
	Power      int        `json:"power" yaml:"power"`
}

// ListKind names one of the per-operator player sequences
type ListKind string

const (
	ListExcluded  ListKind = "excluded"
	ListCarried   ListKind = "carried"
	ListFixed     ListKind = "fixed"
	ListPreferred ListKind = "preferred"
)

// ListKinds is every per-operator sequence, in display order
var ListKinds = []ListKind{ListExcluded, ListCarried, ListFixed, ListPreferred}

// Valid reports whether k is a known sequence kind
func (k ListKind) Valid() bool {
	switch k {
	case ListExcluded, ListCarried, ListFixed, ListPreferred:
		return true
	}
	return false
}

// Formation defaults applied when an operator has not set their own
const (
	DefaultProbability = 1.0
	DefaultMaxSages    = 1
	DefaultMaxKnights  = 1
)

// OperatorConfig is the per-operator formation configuration. Sequences hold player IDs.
type OperatorConfig struct {
	OperatorID  string   `json:"operatorId"`
	Excluded    []string `json:"excluded"`
	Carried     []string `json:"carried"`
	Fixed       []string `json:"fixed"`
	Preferred   []string `json:"preferred"`
	Probability float64  `json:"probability"`
	MaxSages    int      `json:"maxSages"`
	MaxKnights  int      `json:"maxKnights"`
}

// NewOperatorConfig returns an empty configuration carrying the default settings
func NewOperatorConfig(operatorID string) *OperatorConfig {
	return &OperatorConfig{
		OperatorID:  operatorID,
		Excluded:    []string{},
		Carried:     []string{},
		Fixed:       []string{},
		Preferred:   []string{},
		Probability: DefaultProbability,
		MaxSages:    DefaultMaxSages,
		MaxKnights:  DefaultMaxKnights,
	}
}

// List returns the sequence of the given kind
func (c *OperatorConfig) List(kind ListKind) []string {
	switch kind {
	case ListExcluded:
		return c.Excluded
	case ListCarried:
		return c.Carried
	case ListFixed:
		return c.Fixed
	case ListPreferred:
		return c.Preferred
	}
	return nil
}

// SetList replaces the sequence of the given kind
func (c *OperatorConfig) SetList(kind ListKind, ids []string) {
	switch kind {
	case ListExcluded:
		c.Excluded = ids
	case ListCarried:
		c.Carried = ids
	case ListFixed:
		c.Fixed = ids
	case ListPreferred:
		c.Preferred = ids
	}
}

// Clone returns a deep copy so snapshots never alias store state
func (c *OperatorConfig) Clone() *OperatorConfig {
	out := *c
	out.Excluded = append([]string{}, c.Excluded...)
	out.Carried = append([]string{}, c.Carried...)
	out.Fixed = append([]string{}, c.Fixed...)
	out.Preferred = append([]string{}, c.Preferred...)
	return &out
}

// Snapshot is a point-in-time, read-only view of everything a formation needs
type Snapshot struct {
	Players []Player       `json:"players"`
	Config  OperatorConfig `json:"config"`
	Leaders []string       `json:"leaders"`
}

// Seed is the initial roster loaded into an empty store
type Seed struct {
	Players          []Player `yaml:"players"`
	LeaderCandidates []string `yaml:"leader_candidates"`
}
