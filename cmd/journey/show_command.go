package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"journey/internal/journey"
	"journey/internal/registry"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <key|id>",
		Short: "Show one player's appearances at every level",
		Long: `Show one player's journey.

The argument may be a canonical player key, a register id, a major-league
format id or a numeric league id.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := ctx.ingest(cmd.Context())
			if err != nil {
				return err
			}
			player, ok := journey.Find(result.registry, args[0])
			if !ok {
				return fmt.Errorf("no player matches %q", args[0])
			}
			if jsonOutput {
				return writeJSON(cmd, newPlayerView(player))
			}
			printPlayer(cmd.OutOrStdout(), player)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

type playerView struct {
	journey.Row
	Appearances map[string][]appearanceView `json:"appearances"`
}

type appearanceView struct {
	Date      string             `json:"date,omitempty"`
	Team      string             `json:"team"`
	Opponent  string             `json:"opponent,omitempty"`
	Role      string             `json:"role"`
	Stats     map[string]float64 `json:"stats,omitempty"`
	Venue     string             `json:"venue,omitempty"`
	ParentOrg string             `json:"parent_org,omitempty"`
	League    string             `json:"league,omitempty"`
}

func newPlayerView(p *registry.Player) playerView {
	view := playerView{Row: journey.NewRow(p), Appearances: map[string][]appearanceView{}}
	for _, level := range p.LevelsSeen() {
		apps := p.Appearances(level)
		items := make([]appearanceView, 0, len(apps))
		for _, a := range apps {
			items = append(items, appearanceView{
				Date:      formatDate(a),
				Team:      a.Team,
				Opponent:  a.Opponent,
				Role:      string(a.Role),
				Stats:     a.Stats,
				Venue:     a.Venue,
				ParentOrg: a.ParentOrg,
				League:    a.League,
			})
		}
		view.Appearances[level.String()] = items
	}
	return view
}

func printPlayer(out io.Writer, p *registry.Player) {
	printHeading(out, p.Name())
	league := ""
	if p.LeagueID() != 0 {
		league = strconv.FormatInt(p.LeagueID(), 10)
	}
	fmt.Fprintf(out, "Key:         %s\n", p.Key())
	fmt.Fprintf(out, "Register ID: %s\n", valueOrDash(p.RegisterID()))
	fmt.Fprintf(out, "Major ID:    %s\n", valueOrDash(p.MajorID()))
	fmt.Fprintf(out, "League ID:   %s\n", valueOrDash(league))
	fmt.Fprintf(out, "Teams:       %s\n", joinOrDash(p.Teams()))

	for _, level := range p.LevelsSeen() {
		apps := p.Appearances(level)
		fmt.Fprintln(out)
		printHeading(out, fmt.Sprintf("%s (%d games)", level.Label(), p.Games(level)))
		rows := make([][]string, 0, len(apps))
		for _, a := range apps {
			rows = append(rows, []string{
				valueOrDash(formatDate(a)),
				a.Team,
				valueOrDash(a.Opponent),
				string(a.Role),
				formatStats(a.Stats),
			})
		}
		fmt.Fprintln(out, renderTable([]string{"Date", "Team", "Opponent", "Role", "Line"}, rows, nil))
	}
}

func formatDate(a registry.Appearance) string {
	if a.Date.IsZero() {
		return ""
	}
	return a.Date.Format("2006-01-02")
}

// formatStats renders a stat line in a fixed key order, e.g. "AB 4 H 2".
func formatStats(stats map[string]float64) string {
	if len(stats) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return statRank(keys[i]) < statRank(keys[j]) ||
			(statRank(keys[i]) == statRank(keys[j]) && keys[i] < keys[j])
	})
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+strconv.FormatFloat(stats[k], 'f', -1, 64))
	}
	return strings.Join(parts, " ")
}

var statOrder = []string{"IP", "AB", "R", "H", "ER", "RBI", "BB", "K"}

func statRank(key string) int {
	for i, k := range statOrder {
		if k == key {
			return i
		}
	}
	return len(statOrder)
}
