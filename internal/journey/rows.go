package journey

import (
	"sort"

	"journey/internal/registry"
)

// Row is one player's journey flattened for export.
type Row struct {
	Name       string              `json:"name"`
	Key        string              `json:"key"`
	RegisterID string              `json:"register_id,omitempty"`
	MajorID    string              `json:"major_id,omitempty"`
	LeagueID   int64               `json:"league_id,omitempty"`
	Levels     []string            `json:"levels"`
	Games      map[string]int      `json:"games"`
	Total      int                 `json:"total_games"`
	Teams      map[string][]string `json:"teams"`
}

// GamesAt returns the game count for level.
func (r Row) GamesAt(level registry.Level) int {
	return r.Games[level.String()]
}

// TeamsAt returns the sorted teams for level.
func (r Row) TeamsAt(level registry.Level) []string {
	return r.Teams[level.String()]
}

// RowOptions filters Rows.
type RowOptions struct {
	// IncludeAll keeps players seen at a single level.
	IncludeAll bool
}

// Rows flattens players into export rows sorted by total games descending.
// Ties keep creation order. By default only crossover players are kept.
func Rows(src Source, opts RowOptions) []Row {
	var rows []Row
	for _, p := range src.Players() {
		if !opts.IncludeAll && !p.IsCrossover() {
			continue
		}
		rows = append(rows, NewRow(p))
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Total > rows[j].Total })
	return rows
}

// NewRow flattens one player.
func NewRow(p *registry.Player) Row {
	row := Row{
		Name:       p.Name(),
		Key:        p.Key(),
		RegisterID: p.RegisterID(),
		MajorID:    p.MajorID(),
		LeagueID:   p.LeagueID(),
		Levels:     []string{},
		Games:      map[string]int{},
		Total:      p.TotalAppearances(),
		Teams:      map[string][]string{},
	}
	for _, level := range p.LevelsSeen() {
		row.Levels = append(row.Levels, level.Label())
	}
	for _, level := range registry.Levels() {
		row.Games[level.String()] = p.Games(level)
		if teams := p.TeamsAt(level); len(teams) > 0 {
			row.Teams[level.String()] = teams
		}
	}
	return row
}

// Report bundles the summary with the rows of one run.
type Report struct {
	RunID   string  `json:"run_id,omitempty"`
	Summary Summary `json:"summary"`
	Players []Row   `json:"players"`
}

// BuildReport summarizes src and flattens its rows.
func BuildReport(src Source, opts RowOptions) Report {
	rows := Rows(src, opts)
	if rows == nil {
		rows = []Row{}
	}
	return Report{Summary: Summarize(src), Players: rows}
}
