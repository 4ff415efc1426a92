package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownProfession is returned for input that names no catalogued profession
var ErrUnknownProfession = errors.New("unknown profession")

// Profession is a player's class
type Profession string

const (
	ProfessionSwordsman Profession = "swordsman"
	ProfessionKnight    Profession = "knight"
	ProfessionMage      Profession = "mage"
	ProfessionSage      Profession = "sage"
)

// RoleCategory groups professions by battle line
type RoleCategory string

const (
	FrontLine RoleCategory = "front"
	BackLine  RoleCategory = "back"
)

// Catalog maps every known profession to its role category
type Catalog map[Profession]RoleCategory

// DefaultCatalog is the closed profession set of the game
func DefaultCatalog() Catalog {
	return Catalog{
		ProfessionSwordsman: FrontLine,
		ProfessionKnight:    FrontLine,
		ProfessionMage:      BackLine,
		ProfessionSage:      BackLine,
	}
}

// Professions lists the catalog entries in a stable display order
func (c Catalog) Professions() []Profession {
	order := []Profession{ProfessionSwordsman, ProfessionKnight, ProfessionMage, ProfessionSage}
	out := make([]Profession, 0, len(c))
	for _, p := range order {
		if _, ok := c[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Role returns the category of a profession and whether it is catalogued
func (c Catalog) Role(p Profession) (RoleCategory, bool) {
	r, ok := c[p]
	return r, ok
}

// localNames accepts the in-game (Japanese) profession names as input aliases
var localNames = map[string]Profession{
	"剣士":  ProfessionSwordsman,
	"騎士":  ProfessionKnight,
	"魔導士": ProfessionMage,
	"賢者":  ProfessionSage,
}

// ParseProfession resolves user input (English or in-game name) against the catalog
func (c Catalog) ParseProfession(s string) (Profession, error) {
	s = strings.TrimSpace(s)
	if p, ok := localNames[s]; ok {
		s = string(p)
	}
	p := Profession(strings.ToLower(s))
	if _, ok := c[p]; !ok {
		names := make([]string, 0, len(c))
		for _, known := range c.Professions() {
			names = append(names, string(known))
		}
		return "", fmt.Errorf("%w %q (valid: %s)", ErrUnknownProfession, s, strings.Join(names, ", "))
	}
	return p, nil
}
