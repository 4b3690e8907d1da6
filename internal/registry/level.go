package registry

import (
	"fmt"
	"strings"
	"time"
)

// Level is the competition level an appearance was recorded at.
type Level int

const (
	LevelCollegiate Level = iota
	LevelMinor
	LevelPartner
	LevelMajor

	levelCount = int(LevelMajor) + 1
)

// Levels returns every level in reporting order.
func Levels() []Level {
	return []Level{LevelCollegiate, LevelMinor, LevelPartner, LevelMajor}
}

func (l Level) valid() bool { return l >= LevelCollegiate && l <= LevelMajor }

func (l Level) String() string {
	switch l {
	case LevelCollegiate:
		return "collegiate"
	case LevelMinor:
		return "minor"
	case LevelPartner:
		return "partner"
	case LevelMajor:
		return "major"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Label is the short display name used in reports.
func (l Level) Label() string {
	switch l {
	case LevelCollegiate:
		return "NCAA"
	case LevelMinor:
		return "MiLB"
	case LevelPartner:
		return "Partner"
	case LevelMajor:
		return "MLB"
	default:
		return l.String()
	}
}

// ParseLevel accepts either the level name or its label.
func ParseLevel(value string) (Level, error) {
	needle := strings.ToLower(strings.TrimSpace(value))
	for _, level := range Levels() {
		if needle == level.String() || needle == strings.ToLower(level.Label()) {
			return level, nil
		}
	}
	return 0, fmt.Errorf("unknown level %q", value)
}

// Role distinguishes batting from pitching lines.
type Role string

const (
	RoleBatting  Role = "batting"
	RolePitching Role = "pitching"
)

// Appearance is one batting or pitching line in one game. It is never
// modified after Attach.
type Appearance struct {
	Date     time.Time
	Team     string
	Opponent string
	Level    Level
	Role     Role
	Stats    map[string]float64

	Venue     string
	ParentOrg string
	League    string
}

func (a Appearance) clone() Appearance {
	if a.Stats != nil {
		stats := make(map[string]float64, len(a.Stats))
		for k, v := range a.Stats {
			stats[k] = v
		}
		a.Stats = stats
	}
	return a
}
