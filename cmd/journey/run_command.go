package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"journey/internal/config"
	"journey/internal/feeds"
	"journey/internal/journey"
	"journey/internal/journeydb"
	"journey/internal/logging"
	"journey/internal/registry"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string
	var includeAll bool
	var dbPath string
	var metricsPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Ingest every configured feed and report player journeys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(formatFlag)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			result, err := ctx.ingest(cmd.Context())
			if err != nil {
				return err
			}

			report := journey.BuildReport(result.registry, journey.RowOptions{IncludeAll: includeAll})
			report.RunID = result.runID

			if err := exportRun(cmd, ctx, cfg, result, dbPath, metricsPath); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case formatJSON:
				return writeJSON(cmd, runOutput{Report: report, Feeds: result.report.Feeds, Identity: identityView(result)})
			case formatCSV:
				headers, rows := journeyRows(report.Players)
				fmt.Fprintln(out, renderCSV(headers, rows))
				return nil
			default:
				printRunTable(out, result, report)
				return nil
			}
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", "table", "Output format: table, json or csv")
	cmd.Flags().BoolVar(&includeAll, "all", false, "Include players seen at only one level")
	cmd.Flags().StringVar(&dbPath, "db", "", "Export the run to this SQLite database (overrides export.database_path)")
	cmd.Flags().StringVar(&metricsPath, "metrics", "", "Write metrics to this textfile (overrides export.metrics_textfile)")
	return cmd
}

type runOutput struct {
	journey.Report
	Feeds    []feeds.FeedReport `json:"feeds"`
	Identity identitySummary    `json:"identity"`
}

type identitySummary struct {
	Origin   string `json:"origin"`
	Links    int    `json:"links"`
	Degraded bool   `json:"degraded"`
}

func identityView(result *runResult) identitySummary {
	return identitySummary{
		Origin:   string(result.identity.Origin),
		Links:    result.identity.Links,
		Degraded: result.degraded,
	}
}

// exportRun writes the optional SQLite export and metrics textfile. Flags
// override the configured paths.
func exportRun(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, result *runResult, dbFlag, metricsFlag string) error {
	logger := ctx.runLogger()

	dbPath, err := exportPath(dbFlag, cfg.Export.DatabasePath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		store, err := journeydb.Open(cmd.Context(), dbPath)
		if err != nil {
			return fmt.Errorf("open export database: %w", err)
		}
		defer store.Close()
		run := journeydb.Run{
			ID:             result.runID,
			StartedAt:      result.started,
			FinishedAt:     result.finished,
			IdentityOrigin: string(result.identity.Origin),
		}
		if err := store.WriteRun(cmd.Context(), run, result.registry.Players()); err != nil {
			return fmt.Errorf("export run: %w", err)
		}
		logger.Info("run exported", logging.String(logging.FieldPath, dbPath))
	}

	metricsPath, err := exportPath(metricsFlag, cfg.Export.MetricsTextfile)
	if err != nil {
		return err
	}
	if metricsPath != "" {
		if err := result.metrics.WriteTextfile(metricsPath); err != nil {
			logging.WarnWithContext(logger, "metrics textfile not written", "metrics_write_failed",
				logging.String(logging.FieldPath, metricsPath),
				logging.Error(err),
				logging.String(logging.FieldImpact, "run results are unaffected"),
			)
		}
	}
	return nil
}

func exportPath(flagValue, configured string) (string, error) {
	value := strings.TrimSpace(flagValue)
	if value == "" {
		return configured, nil
	}
	return config.ExpandPath(value)
}

func printRunTable(out io.Writer, result *runResult, report journey.Report) {
	printHeading(out, "Summary")
	s := report.Summary
	summaryRows := [][]string{
		{"Total players", strconv.Itoa(s.TotalPlayers)},
		{"Crossover players", strconv.Itoa(s.CrossoverPlayers)},
		{"NCAA only", strconv.Itoa(s.CollegiateOnly)},
		{"MiLB only", strconv.Itoa(s.MinorOnly)},
		{"Partner only", strconv.Itoa(s.PartnerOnly)},
		{"MLB only", strconv.Itoa(s.MajorOnly)},
		{"NCAA to MiLB", strconv.Itoa(s.CollegiateToMinor)},
		{"MiLB to MLB", strconv.Itoa(s.MinorToMajor)},
		{"NCAA to MLB", strconv.Itoa(s.CollegiateToMajor)},
		{"MiLB and Partner", strconv.Itoa(s.MinorAndPartner)},
		{"All levels", strconv.Itoa(s.AllLevels)},
	}
	fmt.Fprintln(out, renderTable([]string{"Metric", "Players"}, summaryRows, []columnAlignment{alignLeft, alignRight}))

	fmt.Fprintln(out)
	printHeading(out, "Feeds")
	feedRows := make([][]string, 0, len(result.report.Feeds))
	for _, fr := range result.report.Feeds {
		feedRows = append(feedRows, []string{
			string(fr.Feed),
			strconv.Itoa(fr.Files),
			strconv.Itoa(fr.Games),
			strconv.Itoa(fr.Attached),
			strconv.Itoa(fr.SkippedTotal()),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Feed", "Files", "Games", "Appearances", "Skipped"},
		feedRows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
	))
	identityLine := fmt.Sprintf("Identity register: %s (%d links)", result.identity.Origin, result.identity.Links)
	if result.degraded {
		identityLine += ", degraded"
	}
	fmt.Fprintln(out, identityLine)

	fmt.Fprintln(out)
	printHeading(out, "Players")
	if len(report.Players) == 0 {
		fmt.Fprintln(out, "No players to report")
		return
	}
	headers, rows := journeyRows(report.Players)
	aligns := make([]columnAlignment, len(headers))
	for i := 5; i < 10; i++ {
		aligns[i] = alignRight
	}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
}

// journeyRows lays out export rows in the column order shared by the table
// and CSV outputs.
func journeyRows(players []journey.Row) ([]string, [][]string) {
	headers := []string{"Name", "Key", "Register ID", "League ID", "Levels"}
	for _, level := range registry.Levels() {
		headers = append(headers, level.Label()+" Games")
	}
	headers = append(headers, "Total Games")
	for _, level := range registry.Levels() {
		headers = append(headers, level.Label()+" Teams")
	}

	rows := make([][]string, 0, len(players))
	for _, p := range players {
		league := ""
		if p.LeagueID != 0 {
			league = strconv.FormatInt(p.LeagueID, 10)
		}
		row := []string{p.Name, p.Key, p.RegisterID, league, strings.Join(p.Levels, ", ")}
		for _, level := range registry.Levels() {
			row = append(row, strconv.Itoa(p.GamesAt(level)))
		}
		row = append(row, strconv.Itoa(p.Total))
		for _, level := range registry.Levels() {
			row = append(row, strings.Join(p.TeamsAt(level), ", "))
		}
		rows = append(rows, row)
	}
	return headers, rows
}
