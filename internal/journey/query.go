package journey

import (
	"strconv"
	"strings"

	"journey/internal/registry"
)

// Source is the read side of a registry.
type Source interface {
	Player(key string) (*registry.Player, bool)
	Players() []*registry.Player
}

// Crossovers returns players seen at more than one level, in creation order.
func Crossovers(src Source) []*registry.Player {
	var out []*registry.Player
	for _, p := range src.Players() {
		if p.IsCrossover() {
			out = append(out, p)
		}
	}
	return out
}

// Search returns players whose display name contains text, ignoring case.
// A blank query matches nothing.
func Search(src Source, text string) []*registry.Player {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return nil
	}
	var out []*registry.Player
	for _, p := range src.Players() {
		if strings.Contains(strings.ToLower(p.Name()), needle) {
			out = append(out, p)
		}
	}
	return out
}

// Lookup returns the player stored under a canonical key.
func Lookup(src Source, key string) (*registry.Player, bool) {
	return src.Player(strings.TrimSpace(key))
}

// Find resolves a canonical key first and then any identifier a player
// carries: register id, major-format id or numeric league id.
func Find(src Source, id string) (*registry.Player, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, false
	}
	if p, ok := src.Player(id); ok {
		return p, true
	}
	league, _ := strconv.ParseInt(id, 10, 64)
	for _, p := range src.Players() {
		if p.RegisterID() == id || p.MajorID() == id {
			return p, true
		}
		if league > 0 && p.LeagueID() == league {
			return p, true
		}
	}
	return nil, false
}
