package registry

import "sort"

// Player is one resolved athlete. Identifiers are filled in as evidence
// arrives and never change once set.
type Player struct {
	key        string
	name       string
	registerID string
	majorID    string
	leagueID   int64

	appearances  [levelCount][]Appearance
	teams        map[string]struct{}
	teamsByLevel [levelCount]map[string]struct{}
}

func newPlayer(key, name string) *Player {
	p := &Player{
		key:   key,
		name:  name,
		teams: map[string]struct{}{},
	}
	for i := range p.teamsByLevel {
		p.teamsByLevel[i] = map[string]struct{}{}
	}
	return p
}

func (p *Player) Key() string        { return p.key }
func (p *Player) Name() string       { return p.name }
func (p *Player) RegisterID() string { return p.registerID }
func (p *Player) MajorID() string    { return p.majorID }
func (p *Player) LeagueID() int64    { return p.leagueID }

// Appearances returns copies of the appearances recorded at level, in attach
// order. Stat maps are copied too; stored appearances never change.
func (p *Player) Appearances(level Level) []Appearance {
	if !level.valid() {
		return nil
	}
	out := make([]Appearance, 0, len(p.appearances[level]))
	for _, a := range p.appearances[level] {
		out = append(out, a.clone())
	}
	return out
}

// Games returns the number of appearances at level.
func (p *Player) Games(level Level) int {
	if !level.valid() {
		return 0
	}
	return len(p.appearances[level])
}

// TotalAppearances counts appearances across every level.
func (p *Player) TotalAppearances() int {
	total := 0
	for _, list := range p.appearances {
		total += len(list)
	}
	return total
}

// LevelsSeen lists the levels with at least one appearance, in Levels order.
func (p *Player) LevelsSeen() []Level {
	var seen []Level
	for _, level := range Levels() {
		if len(p.appearances[level]) > 0 {
			seen = append(seen, level)
		}
	}
	return seen
}

// HasLevel reports whether the player appeared at level.
func (p *Player) HasLevel(level Level) bool {
	return level.valid() && len(p.appearances[level]) > 0
}

// IsCrossover reports appearances at more than one level.
func (p *Player) IsCrossover() bool {
	return len(p.LevelsSeen()) > 1
}

// Teams returns every team the player appeared for, sorted.
func (p *Player) Teams() []string {
	return sortedKeys(p.teams)
}

// TeamsAt returns the teams at one level, sorted.
func (p *Player) TeamsAt(level Level) []string {
	if !level.valid() {
		return nil
	}
	return sortedKeys(p.teamsByLevel[level])
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
