package registry

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"journey/internal/identity"
	"journey/internal/logging"
	"journey/internal/names"
)

// IdentitySource answers cross-namespace lookups. *identity.Dataset and
// *identity.Service both satisfy it. Unknown ids return a zero Identity.
type IdentitySource interface {
	LookupRegister(id string) identity.Identity
	LookupMajor(id string) identity.Identity
	LookupLeague(id int64) identity.Identity
}

// Hints are the identifiers an appearance carries. Zero fields are absent.
type Hints struct {
	RegisterID string
	MajorID    string
	LeagueID   int64
}

// IsZero reports whether no identifier is present.
func (h Hints) IsZero() bool {
	return h.RegisterID == "" && h.MajorID == "" && h.LeagueID == 0
}

// Match names the step of Resolve that produced a key.
type Match string

const (
	MatchRegister Match = "register"
	MatchMajor    Match = "major"
	MatchLeague   Match = "league"
	MatchName     Match = "name"
	MatchPartial  Match = "partial"
	MatchCreated  Match = "created"
)

// Matches lists every match kind in precedence order.
func Matches() []Match {
	return []Match{MatchRegister, MatchMajor, MatchLeague, MatchName, MatchPartial, MatchCreated}
}

// Observer receives resolution outcomes, typically to feed metrics.
type Observer interface {
	Resolved(match Match)
	Conflict()
}

// Stats counts resolution outcomes.
type Stats struct {
	Matches   map[Match]int
	Rejected  int
	Conflicts int
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logging.NewComponentLogger(logger, "registry") }
}

// WithObserver registers an observer for resolution outcomes.
func WithObserver(observer Observer) Option {
	return func(r *Registry) { r.observer = observer }
}

// WithNormalizer replaces the default name normalizer.
func WithNormalizer(n names.Normalizer) Option {
	return func(r *Registry) { r.normalizer = n }
}

// Registry owns canonical player records and the indices that map
// identifiers and names back to them. It is not safe for concurrent use;
// a single goroutine must drive Resolve and Attach.
type Registry struct {
	source     IdentitySource
	normalizer names.Normalizer
	logger     *slog.Logger
	observer   Observer

	players map[string]*Player
	order   []*Player

	// Register and major-format ids share one index.
	byStableID map[string]string
	byLeagueID map[int64]string
	byName     map[string][]string
	byPartial  map[string][]string

	stats Stats
}

// New builds an empty registry. A nil source runs without enrichment, using
// only the identifiers each feed supplies.
func New(source IdentitySource, opts ...Option) *Registry {
	r := &Registry{
		source:     source,
		logger:     logging.NewComponentLogger(nil, "registry"),
		players:    map[string]*Player{},
		byStableID: map[string]string{},
		byLeagueID: map[int64]string{},
		byName:     map[string][]string{},
		byPartial:  map[string][]string{},
		stats:      Stats{Matches: map[Match]int{}},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the canonical key for an appearance, creating a player
// when nothing matches. Precedence is fixed: enrichment, then register id,
// major id and league id, then exact normalized name, then partial name,
// then creation. Name matches skip players whose identifiers contradict the
// hints. Existing identifiers are never overwritten and two existing players
// are never merged.
func (r *Registry) Resolve(name string, hints Hints) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		r.stats.Rejected++
		return "", ErrMissingIdentity
	}
	h := r.enrich(normalizeHints(hints))
	normalized := r.normalizer.Normalize(name)

	if h.RegisterID != "" {
		if key, ok := r.byStableID[h.RegisterID]; ok {
			return r.matched(key, h, MatchRegister), nil
		}
	}
	if h.MajorID != "" {
		if key, ok := r.byStableID[h.MajorID]; ok {
			return r.matched(key, h, MatchMajor), nil
		}
	}
	if h.LeagueID != 0 {
		if key, ok := r.byLeagueID[h.LeagueID]; ok {
			return r.matched(key, h, MatchLeague), nil
		}
	}

	if normalized != "" {
		if key, ok := r.firstCompatible(r.byName[normalized], h); ok {
			return r.matched(key, h, MatchName), nil
		}
	}
	partial := r.normalizer.PartialKey(name)
	if partial != "" {
		if key, ok := r.firstCompatible(r.byPartial[partial], h); ok {
			return r.matched(key, h, MatchPartial), nil
		}
	}

	key := canonicalKey(h, normalized)
	if key == "" {
		r.stats.Rejected++
		return "", ErrMissingIdentity
	}
	if _, exists := r.players[key]; exists {
		return r.matched(key, h, MatchCreated), nil
	}

	player := newPlayer(key, name)
	r.players[key] = player
	r.order = append(r.order, player)
	r.fill(player, h)
	if normalized != "" {
		r.byName[normalized] = append(r.byName[normalized], key)
	}
	if partial != "" {
		r.byPartial[partial] = append(r.byPartial[partial], key)
	}
	r.record(MatchCreated)
	return key, nil
}

// Attach appends an appearance to the player's history. Attaching to a key
// Resolve never returned, or with an unknown level, panics with
// *InvariantError.
func (r *Registry) Attach(key string, appearance Appearance) {
	player, ok := r.players[key]
	if !ok {
		panic(&InvariantError{Op: "Attach", Key: key, Reason: "unknown canonical key"})
	}
	if !appearance.Level.valid() {
		panic(&InvariantError{Op: "Attach", Key: key, Reason: fmt.Sprintf("invalid level %d", int(appearance.Level))})
	}
	appearance = appearance.clone()
	player.appearances[appearance.Level] = append(player.appearances[appearance.Level], appearance)
	if team := strings.TrimSpace(appearance.Team); team != "" {
		player.teams[team] = struct{}{}
		player.teamsByLevel[appearance.Level][team] = struct{}{}
	}
}

// Player returns the record for key.
func (r *Registry) Player(key string) (*Player, bool) {
	p, ok := r.players[key]
	return p, ok
}

// Players returns every record in creation order.
func (r *Registry) Players() []*Player {
	out := make([]*Player, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of players.
func (r *Registry) Len() int { return len(r.order) }

// Stats returns a copy of the resolution counters.
func (r *Registry) Stats() Stats {
	out := Stats{Matches: make(map[Match]int, len(r.stats.Matches)), Rejected: r.stats.Rejected, Conflicts: r.stats.Conflicts}
	for k, v := range r.stats.Matches {
		out.Matches[k] = v
	}
	return out
}

// Verify checks that every identifier on a record is indexed to that
// record and every index entry points at a record carrying the identifier.
func (r *Registry) Verify() error {
	for _, p := range r.order {
		if p.registerID != "" && r.byStableID[p.registerID] != p.key {
			return fmt.Errorf("register id %q of %q indexed to %q", p.registerID, p.key, r.byStableID[p.registerID])
		}
		if p.majorID != "" && r.byStableID[p.majorID] != p.key {
			return fmt.Errorf("major id %q of %q indexed to %q", p.majorID, p.key, r.byStableID[p.majorID])
		}
		if p.leagueID != 0 && r.byLeagueID[p.leagueID] != p.key {
			return fmt.Errorf("league id %d of %q indexed to %q", p.leagueID, p.key, r.byLeagueID[p.leagueID])
		}
	}
	for id, key := range r.byStableID {
		p, ok := r.players[key]
		if !ok || (p.registerID != id && p.majorID != id) {
			return fmt.Errorf("stable id %q indexed to %q which does not carry it", id, key)
		}
	}
	for id, key := range r.byLeagueID {
		p, ok := r.players[key]
		if !ok || p.leagueID != id {
			return fmt.Errorf("league id %d indexed to %q which does not carry it", id, key)
		}
	}
	for _, index := range []map[string][]string{r.byName, r.byPartial} {
		for nameKey, keys := range index {
			for _, key := range keys {
				if _, ok := r.players[key]; !ok {
					return fmt.Errorf("name key %q points at unknown player %q", nameKey, key)
				}
			}
		}
	}
	return nil
}

// firstCompatible returns the earliest-created key whose identifiers do not
// contradict h. A player already carrying a different id of the same
// namespace is a different person.
func (r *Registry) firstCompatible(keys []string, h Hints) (string, bool) {
	for _, key := range keys {
		p := r.players[key]
		if p.registerID != "" && h.RegisterID != "" && p.registerID != h.RegisterID {
			continue
		}
		if p.majorID != "" && h.MajorID != "" && p.majorID != h.MajorID {
			continue
		}
		if p.leagueID != 0 && h.LeagueID != 0 && p.leagueID != h.LeagueID {
			continue
		}
		return key, true
	}
	return "", false
}

// enrich fills absent hints from the identity source until nothing changes.
func (r *Registry) enrich(h Hints) Hints {
	if r.source == nil || h.IsZero() {
		return h
	}
	for range 3 {
		before := h
		if h.RegisterID != "" {
			h = mergeIdentity(h, r.source.LookupRegister(h.RegisterID))
		}
		if h.MajorID != "" {
			h = mergeIdentity(h, r.source.LookupMajor(h.MajorID))
		}
		if h.LeagueID != 0 {
			h = mergeIdentity(h, r.source.LookupLeague(h.LeagueID))
		}
		if h == before {
			break
		}
	}
	return h
}

func mergeIdentity(h Hints, id identity.Identity) Hints {
	if h.RegisterID == "" {
		h.RegisterID = id.RegisterID
	}
	if h.MajorID == "" {
		h.MajorID = id.MajorID
	}
	if h.LeagueID == 0 {
		h.LeagueID = id.LeagueID
	}
	return h
}

func (r *Registry) matched(key string, h Hints, match Match) string {
	r.fill(r.players[key], h)
	r.record(match)
	return key
}

// fill sets identifiers the player lacks. An identifier already indexed to a
// different player is left alone and counted as a conflict.
func (r *Registry) fill(p *Player, h Hints) {
	if p.registerID == "" && h.RegisterID != "" {
		if r.claimStable(p, h.RegisterID) {
			p.registerID = h.RegisterID
		}
	}
	if p.majorID == "" && h.MajorID != "" {
		if r.claimStable(p, h.MajorID) {
			p.majorID = h.MajorID
		}
	}
	if p.leagueID == 0 && h.LeagueID != 0 {
		if owner, ok := r.byLeagueID[h.LeagueID]; ok && owner != p.key {
			r.conflict(p, "league", strconv.FormatInt(h.LeagueID, 10), owner)
		} else {
			r.byLeagueID[h.LeagueID] = p.key
			p.leagueID = h.LeagueID
		}
	}
}

func (r *Registry) claimStable(p *Player, id string) bool {
	if owner, ok := r.byStableID[id]; ok && owner != p.key {
		r.conflict(p, "stable", id, owner)
		return false
	}
	r.byStableID[id] = p.key
	return true
}

func (r *Registry) conflict(p *Player, kind, id, owner string) {
	r.stats.Conflicts++
	if r.observer != nil {
		r.observer.Conflict()
	}
	r.logger.Debug("identifier already linked to another player",
		logging.String(logging.FieldPlayerKey, p.key),
		logging.String("id_kind", kind),
		logging.String("id", id),
		logging.String("owner", owner),
	)
}

func (r *Registry) record(match Match) {
	r.stats.Matches[match]++
	if r.observer != nil {
		r.observer.Resolved(match)
	}
}

func normalizeHints(h Hints) Hints {
	h.RegisterID = strings.TrimSpace(h.RegisterID)
	h.MajorID = strings.TrimSpace(h.MajorID)
	if h.LeagueID < 0 {
		h.LeagueID = 0
	}
	return h
}

// canonicalKey picks the key for a new player: register id, then major id,
// then "mlb_<league id>", then "name_<normalized name>".
func canonicalKey(h Hints, normalized string) string {
	switch {
	case h.RegisterID != "":
		return h.RegisterID
	case h.MajorID != "":
		return h.MajorID
	case h.LeagueID != 0:
		return "mlb_" + strconv.FormatInt(h.LeagueID, 10)
	case normalized != "":
		return "name_" + normalized
	default:
		return ""
	}
}
