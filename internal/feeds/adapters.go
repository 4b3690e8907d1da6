package feeds

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"journey/internal/registry"
)

var battingFields = []statField{
	{name: "AB", keys: []string{"at_bats", "ab", "AB"}},
	{name: "R", keys: []string{"runs", "r", "R"}},
	{name: "H", keys: []string{"hits", "h", "H"}},
	{name: "RBI", keys: []string{"rbi", "RBI"}},
	{name: "BB", keys: []string{"walks", "bb", "BB"}},
	{name: "K", keys: []string{"strikeouts", "k", "so", "K", "SO"}},
}

var pitchingFields = []statField{
	{name: "IP", keys: []string{"innings_pitched", "ip", "IP"}},
	{name: "H", keys: []string{"hits", "h", "H"}},
	{name: "R", keys: []string{"runs", "r", "R"}},
	{name: "ER", keys: []string{"earned_runs", "er", "ER"}},
	{name: "BB", keys: []string{"walks", "bb", "BB"}},
	{name: "K", keys: []string{"strikeouts", "k", "so", "K", "SO"}},
}

func fieldsFor(role registry.Role) []statField {
	if role == registry.RolePitching {
		return pitchingFields
	}
	return battingFields
}

// gameContext carries the per-game values every line in the game shares.
type gameContext struct {
	feed       Feed
	date       time.Time
	teams      sidePair
	venue      string
	parentOrgs sidePair
	league     leagueField
}

func (c gameContext) appearance(side string, role registry.Role, stats map[string]float64) registry.Appearance {
	appearance := registry.Appearance{
		Date:     c.date,
		Team:     c.teams.get(side),
		Opponent: c.teams.get(opponentSide(side)),
		Level:    c.feed.Level(),
		Role:     role,
		Stats:    stats,
		Venue:    c.venue,
	}
	switch c.feed {
	case FeedMinor:
		appearance.ParentOrg = c.parentOrgs.get(side)
		appearance.League = c.league.forSide(side, "")
	case FeedPartner:
		appearance.League = c.league.forSide(side, "Partner")
	}
	return appearance
}

// lineDecoder turns one raw line into a name and hints for a feed.
type lineDecoder func(l line) (string, registry.Hints)

// collectLines decodes the lines of one side and role into game, dropping
// unnamed and repeated lines.
func collectLines(game *Game, ctx gameContext, cleaner Cleaner, decode lineDecoder, side string, role registry.Role, rows []json.RawMessage, seen map[string]struct{}) []error {
	var errs []error
	for i, raw := range rows {
		var l line
		if err := json.Unmarshal(raw, &l); err != nil || l == nil {
			game.skip(SkipMalformedLine)
			errs = append(errs, fmt.Errorf("%w: %s %s line %d: not an object", ErrMalformedRecord, side, role, i))
			continue
		}
		rawName, hints := decode(l)
		name := cleaner.Name(rawName)
		if name == "" {
			game.skip(SkipMissingName)
			continue
		}
		stats, err := l.stats(fieldsFor(role))
		if err != nil {
			game.skip(SkipMalformedLine)
			errs = append(errs, fmt.Errorf("%w: %s %s line %d (%s): %w", ErrMalformedRecord, side, role, i, name, err))
			continue
		}
		key := lineKey(side, role, name, hints)
		if _, dup := seen[key]; dup {
			game.skip(SkipDuplicateLine)
			continue
		}
		seen[key] = struct{}{}
		game.Submissions = append(game.Submissions, Submission{
			Name:       name,
			Hints:      hints,
			Appearance: ctx.appearance(side, role, stats),
		})
	}
	return errs
}

func lineKey(side string, role registry.Role, name string, hints registry.Hints) string {
	return strings.Join([]string{
		side,
		string(role),
		strings.ToLower(name),
		hints.RegisterID,
		hints.MajorID,
		strconv.FormatInt(hints.LeagueID, 10),
	}, "|")
}

type boxMetadata struct {
	Date        string          `json:"date"`
	DateCompact json.RawMessage `json:"date_yyyymmdd"`
	AwayTeam    string          `json:"away_team"`
	HomeTeam    string          `json:"home_team"`
	ParentOrgs  sidePair        `json:"parent_orgs"`
	League      leagueField     `json:"league"`
	Venue       string          `json:"venue"`
	GamePK      json.RawMessage `json:"game_pk"`
	GameID      json.RawMessage `json:"game_id"`
	GameNumber  json.RawMessage `json:"game_number"`
}

type boxGame struct {
	Metadata *boxMetadata                 `json:"metadata"`
	BoxScore map[string][]json.RawMessage `json:"box_score"`
}

// boxScoreAdapter reads the metadata/box_score layout shared by the
// collegiate, minor and partner feeds.
type boxScoreAdapter struct {
	feed    Feed
	cleaner Cleaner
}

func (a *boxScoreAdapter) Feed() Feed { return a.feed }

func (a *boxScoreAdapter) Decode(data []byte) ([]Game, []error, error) {
	records, err := splitRecords(data)
	if err != nil {
		return nil, nil, err
	}
	var (
		games []Game
		errs  []error
	)
	for i, record := range records {
		var raw boxGame
		if err := json.Unmarshal(record, &raw); err != nil {
			games = append(games, malformedGame())
			errs = append(errs, fmt.Errorf("%w: game %d: %w", ErrMalformedRecord, i, err))
			continue
		}
		if raw.Metadata == nil || raw.BoxScore == nil {
			games = append(games, malformedGame())
			errs = append(errs, fmt.Errorf("%w: game %d: missing metadata or box_score", ErrMalformedRecord, i))
			continue
		}
		game, lineErrs := a.decodeGame(raw)
		games = append(games, game)
		errs = append(errs, lineErrs...)
	}
	return games, errs, nil
}

func (a *boxScoreAdapter) decodeGame(raw boxGame) (Game, []error) {
	meta := raw.Metadata
	compact := rawText(meta.DateCompact)
	ctx := gameContext{
		feed:       a.feed,
		date:       parseDate(compact, meta.Date),
		teams:      sidePair{Away: meta.AwayTeam, Home: meta.HomeTeam},
		venue:      meta.Venue,
		parentOrgs: meta.ParentOrgs,
		league:     meta.League,
	}
	explicit := rawText(meta.GamePK)
	if explicit == "" {
		explicit = rawText(meta.GameID)
	}
	game := Game{Key: gameKey(explicit, compact, meta.Date, meta.AwayTeam, meta.HomeTeam, rawText(meta.GameNumber))}

	decode := a.lineDecoder()
	seen := map[string]struct{}{}
	var errs []error
	for _, side := range sides {
		errs = append(errs, collectLines(&game, ctx, a.cleaner, decode, side, registry.RoleBatting, raw.BoxScore[side+"_batting"], seen)...)
		errs = append(errs, collectLines(&game, ctx, a.cleaner, decode, side, registry.RolePitching, raw.BoxScore[side+"_pitching"], seen)...)
	}
	return game, errs
}

func (a *boxScoreAdapter) lineDecoder() lineDecoder {
	switch a.feed {
	case FeedMinor:
		return func(l line) (string, registry.Hints) {
			return l.str("name", "full_name"), registry.Hints{LeagueID: leagueID(l.str("player_id"))}
		}
	case FeedPartner:
		return func(l line) (string, registry.Hints) {
			id := l.str("bref_id")
			if id == "" {
				// Numeric partner ids are league-local and carry no register meaning.
				if pid := l.str("player_id"); !isNumeric(pid) {
					id = pid
				}
			}
			return l.str("name", "full_name"), registry.Hints{RegisterID: id}
		}
	default:
		return func(l line) (string, registry.Hints) {
			return l.str("full_name", "name"), registry.Hints{RegisterID: l.str("bref_id")}
		}
	}
}

type majorInfo struct {
	Date        string          `json:"date"`
	DateCompact json.RawMessage `json:"date_yyyymmdd"`
	AwayTeam    string          `json:"away_team"`
	HomeTeam    string          `json:"home_team"`
	Venue       string          `json:"venue"`
	GamePK      json.RawMessage `json:"game_pk"`
	GameID      json.RawMessage `json:"game_id"`
	GameNumber  json.RawMessage `json:"game_number"`
}

type majorGame struct {
	BasicInfo *majorInfo                   `json:"basic_info"`
	Batting   map[string][]json.RawMessage `json:"batting"`
	Pitching  map[string][]json.RawMessage `json:"pitching"`
}

// majorAdapter reads major-league game files keyed by basic_info.
type majorAdapter struct {
	cleaner Cleaner
}

func (a *majorAdapter) Feed() Feed { return FeedMajor }

func (a *majorAdapter) Decode(data []byte) ([]Game, []error, error) {
	records, err := splitRecords(data)
	if err != nil {
		return nil, nil, err
	}
	var (
		games []Game
		errs  []error
	)
	for i, record := range records {
		var raw majorGame
		if err := json.Unmarshal(record, &raw); err != nil {
			games = append(games, malformedGame())
			errs = append(errs, fmt.Errorf("%w: game %d: %w", ErrMalformedRecord, i, err))
			continue
		}
		if raw.BasicInfo == nil || raw.Batting == nil {
			games = append(games, malformedGame())
			errs = append(errs, fmt.Errorf("%w: game %d: missing basic_info or batting", ErrMalformedRecord, i))
			continue
		}
		game, lineErrs := a.decodeGame(raw)
		games = append(games, game)
		errs = append(errs, lineErrs...)
	}
	return games, errs, nil
}

func (a *majorAdapter) decodeGame(raw majorGame) (Game, []error) {
	info := raw.BasicInfo
	compact := rawText(info.DateCompact)
	ctx := gameContext{
		feed:  FeedMajor,
		date:  parseDate(compact, info.Date),
		teams: sidePair{Away: info.AwayTeam, Home: info.HomeTeam},
		venue: info.Venue,
	}
	explicit := rawText(info.GamePK)
	if explicit == "" {
		explicit = rawText(info.GameID)
	}
	game := Game{Key: gameKey(explicit, compact, info.Date, info.AwayTeam, info.HomeTeam, rawText(info.GameNumber))}

	seen := map[string]struct{}{}
	var errs []error
	for _, side := range sides {
		errs = append(errs, collectLines(&game, ctx, a.cleaner, decodeMajorLine, side, registry.RoleBatting, raw.Batting[side], seen)...)
		errs = append(errs, collectLines(&game, ctx, a.cleaner, decodeMajorLine, side, registry.RolePitching, raw.Pitching[side], seen)...)
	}
	return game, errs
}

// decodeMajorLine reads player_id as a league id when it is a whole number,
// including "123456.0", and as a major-format id when it is not a number.
// Fractional numbers are dropped. mlbam_id backfills the league id.
func decodeMajorLine(l line) (string, registry.Hints) {
	var hints registry.Hints
	if pid := l.str("player_id"); pid != "" {
		if id, ok := integralID(pid); ok {
			hints.LeagueID = id
		} else if !isNumeric(pid) {
			hints.MajorID = pid
		}
	}
	if hints.LeagueID == 0 {
		hints.LeagueID = leagueID(l.str("mlbam_id"))
	}
	return l.str("name", "full_name"), hints
}

func malformedGame() Game {
	game := Game{}
	game.skip(SkipMalformedGame)
	return game
}
