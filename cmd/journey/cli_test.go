package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"journey/internal/journey"
	"journey/internal/journeydb"
)

const testCollegiateGame = `{
  "metadata": {"date_yyyymmdd": "20220401", "away_team": "Tulane", "home_team": "LSU", "game_id": "ncaa-100"},
  "box_score": {
    "away_batting": [{"full_name": "Smith, John", "bref_id": "smithjo01", "ab": 4, "h": 2}],
    "home_batting": [{"name": "Doe, Jane", "ab": 3, "h": 1}]
  }
}`

const testMinorGame = `{
  "metadata": {"date_yyyymmdd": "20230615", "away_team": "Durham Bulls", "home_team": "Norfolk Tides",
    "parent_orgs": {"away": "Rays", "home": "Orioles"}, "league": "International League"},
  "box_score": {
    "away_batting": [{"name": "John Smith", "player_id": 123456, "ab": 4, "h": 1}],
    "home_pitching": [{"name": "Pat Pitcher", "player_id": 654321, "ip": "6.0", "k": 8}]
  }
}`

const testRegister = "key_bbref_minors,key_bbref,key_mlbam,name_first,name_last\n" +
	"smithjo01,smithjo02,123456,John,Smith\n"

type cliTestEnv struct {
	configPath string
	baseDir    string
}

type cliEnvOption func(*testing.T, *cliTestEnv)

// withoutRegister leaves the identity source directory empty.
func withoutRegister() cliEnvOption {
	return func(t *testing.T, env *cliTestEnv) {
		if err := os.Remove(filepath.Join(env.baseDir, "register", "people-0.csv")); err != nil {
			t.Fatalf("remove register shard: %v", err)
		}
	}
}

func setupCLITestEnv(t *testing.T, opts ...cliEnvOption) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("JOURNEY_LOG_LEVEL", "error")

	writeTestFile(t, filepath.Join(base, "ncaa", "game-1.json"), testCollegiateGame)
	writeTestFile(t, filepath.Join(base, "milb", "game-1.json"), testMinorGame)
	writeTestFile(t, filepath.Join(base, "register", "people-0.csv"), testRegister)

	env := &cliTestEnv{
		configPath: filepath.Join(base, "config.toml"),
		baseDir:    base,
	}
	for _, opt := range opts {
		opt(t, env)
	}

	config := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[identity]
cache_path = %q
source_dir = %q
retry_attempts = 1
retry_backoff_ms = 1
lock_timeout = 5

[feeds]
collegiate_dir = %q
minor_dir = %q
workers = 2

[logging]
level = "error"
`,
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "cache", "register.json"),
		filepath.Join(base, "register"),
		filepath.Join(base, "ncaa"),
		filepath.Join(base, "milb"),
	)
	writeTestFile(t, env.configPath, config)
	return env
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n%s", needle, haystack)
	}
}

type runJSON struct {
	RunID    string          `json:"run_id"`
	Summary  journey.Summary `json:"summary"`
	Players  []journey.Row   `json:"players"`
	Identity identitySummary `json:"identity"`
	Feeds    []struct {
		Feed     string `json:"feed"`
		Attached int    `json:"attached"`
	} `json:"feeds"`
}

func decodeRun(t *testing.T, out string) runJSON {
	t.Helper()
	var decoded runJSON
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("decode run output: %v\n%s", err, out)
	}
	return decoded
}

func TestRunJSONLinksPlayersAcrossLevels(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"run", "--format", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	report := decodeRun(t, out)

	if report.RunID == "" {
		t.Fatal("expected run id in report")
	}
	if report.Summary.TotalPlayers != 3 || report.Summary.CrossoverPlayers != 1 {
		t.Fatalf("unexpected summary: %+v", report.Summary)
	}
	if report.Summary.CollegiateToMinor != 1 || report.Summary.CollegiateOnly != 1 || report.Summary.MinorOnly != 1 {
		t.Fatalf("unexpected level buckets: %+v", report.Summary)
	}
	if len(report.Players) != 1 {
		t.Fatalf("players = %d, want 1 crossover row", len(report.Players))
	}
	row := report.Players[0]
	if row.Key != "smithjo01" || row.Total != 2 || row.LeagueID != 123456 {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.Games["collegiate"] != 1 || row.Games["minor"] != 1 {
		t.Fatalf("unexpected games: %+v", row.Games)
	}
	if report.Identity.Degraded || report.Identity.Origin != "remote" {
		t.Fatalf("unexpected identity: %+v", report.Identity)
	}
	if len(report.Feeds) != 2 || report.Feeds[0].Feed != "collegiate" || report.Feeds[1].Attached != 2 {
		t.Fatalf("unexpected feed reports: %+v", report.Feeds)
	}
}

func TestRunAllIncludesSingleLevelPlayers(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"run", "--format", "json", "--all"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	report := decodeRun(t, out)
	if len(report.Players) != 3 {
		t.Fatalf("players = %d, want 3", len(report.Players))
	}
	if report.Players[0].Key != "smithjo01" {
		t.Fatalf("expected crossover first, got %s", report.Players[0].Key)
	}
}

func TestRunExportsDatabaseAndMetrics(t *testing.T) {
	env := setupCLITestEnv(t)
	dbPath := filepath.Join(env.baseDir, "export", "journey.db")
	metricsPath := filepath.Join(env.baseDir, "textfile", "journey.prom")

	out, _, err := runCLI(t, []string{"run", "--format", "json", "--db", dbPath, "--metrics", metricsPath}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	report := decodeRun(t, out)

	store, err := journeydb.Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer store.Close()
	summary, err := store.RunSummary(context.Background(), report.RunID)
	if err != nil {
		t.Fatalf("RunSummary: %v", err)
	}
	if summary.Players != 3 || summary.Crossovers != 1 || summary.Appearances != 4 {
		t.Fatalf("unexpected stored summary: %+v", summary)
	}
	if summary.IdentityOrigin != "remote" {
		t.Fatalf("identity origin = %q", summary.IdentityOrigin)
	}

	data, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	requireContains(t, string(data), "journey_players 3")
	requireContains(t, string(data), "journey_crossover_players 1")
}

func TestRunDegradesWithoutRegister(t *testing.T) {
	env := setupCLITestEnv(t, withoutRegister())

	out, _, err := runCLI(t, []string{"run", "--format", "json", "--all"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	report := decodeRun(t, out)
	if !report.Identity.Degraded {
		t.Fatalf("expected degraded identity, got %+v", report.Identity)
	}
	if report.Identity.Origin != "none" {
		t.Fatalf("origin = %q, want none", report.Identity.Origin)
	}
	// Without the register the two Smith lines still meet on the name.
	if report.Summary.TotalPlayers != 3 || report.Summary.CrossoverPlayers != 1 {
		t.Fatalf("unexpected summary: %+v", report.Summary)
	}
	if report.Players[0].Key != "smithjo01" || report.Players[0].MajorID != "" {
		t.Fatalf("unexpected row: %+v", report.Players[0])
	}
}

func TestRunTableAndCSV(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"run"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Summary")
	requireContains(t, out, "Crossover players")
	requireContains(t, out, "smithjo01")
	requireContains(t, out, "Identity register: remote")

	out, _, err = runCLI(t, []string{"run", "--format", "csv"}, env.configPath)
	if err != nil {
		t.Fatalf("run csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("csv lines = %d, want header and one row\n%s", len(lines), out)
	}
	requireContains(t, lines[1], "smithjo01")
	requireContains(t, lines[1], "Tulane")
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"run", "--format", "xml"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestSearchCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"search", "smith"}, env.configPath)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	requireContains(t, out, "smithjo01")

	out, _, err = runCLI(t, []string{"search", "--json", "DOE"}, env.configPath)
	if err != nil {
		t.Fatalf("search json: %v", err)
	}
	var rows []journey.Row
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 || !strings.Contains(rows[0].Name, "Doe") {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	out, _, err = runCLI(t, []string{"search", "nobody"}, env.configPath)
	if err != nil {
		t.Fatalf("search none: %v", err)
	}
	requireContains(t, out, "No players match")
}

func TestShowCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"show", "smithjo01"}, env.configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, "Register ID: smithjo01")
	requireContains(t, out, "League ID:   123456")
	requireContains(t, out, "NCAA (1 games)")
	requireContains(t, out, "MiLB (1 games)")
	requireContains(t, out, "Durham Bulls")

	out, _, err = runCLI(t, []string{"show", "--json", "123456"}, env.configPath)
	if err != nil {
		t.Fatalf("show by league id: %v", err)
	}
	var view playerView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Key != "smithjo01" {
		t.Fatalf("key = %q", view.Key)
	}
	minor := view.Appearances["minor"]
	if len(minor) != 1 || minor[0].ParentOrg != "Rays" || minor[0].Date != "2023-06-15" {
		t.Fatalf("unexpected minor appearances: %+v", minor)
	}

	if _, _, err := runCLI(t, []string{"show", "nobody01"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown player")
	}
}

func TestIdentityLookup(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"identity", "lookup", "--json", "123456"}, env.configPath)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	var result lookupResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Namespace != "league" || result.RegisterID != "smithjo01" || result.MajorID != "smithjo02" {
		t.Fatalf("unexpected lookup: %+v", result)
	}

	out, _, err = runCLI(t, []string{"identity", "lookup", "--namespace", "major", "smithjo02"}, env.configPath)
	if err != nil {
		t.Fatalf("lookup major: %v", err)
	}
	requireContains(t, out, "Matched major id smithjo02")
	requireContains(t, out, "League ID:   123456")

	if _, _, err := runCLI(t, []string{"identity", "lookup", "--namespace", "nope", "x"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown namespace")
	}
	if _, _, err := runCLI(t, []string{"identity", "lookup", "missing99"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown id")
	}
}

func TestIdentityRefreshAndStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"identity", "refresh"}, env.configPath)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	requireContains(t, out, "Register refreshed")
	requireContains(t, out, "Origin:  remote")

	out, _, err = runCLI(t, []string{"identity", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Origin:  cache")
}

func TestIdentityRefreshFailsWithoutSource(t *testing.T) {
	env := setupCLITestEnv(t, withoutRegister())
	if _, _, err := runCLI(t, []string{"identity", "refresh"}, env.configPath); err == nil {
		t.Fatal("expected refresh error")
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Feed directories configured: 2 of 4")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config exists")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    outputFormat
		wantErr bool
	}{
		{"", formatTable, false},
		{"TABLE", formatTable, false},
		{" json ", formatJSON, false},
		{"csv", formatCSV, false},
		{"yaml", "", true},
	}
	for _, tc := range tests {
		got, err := parseFormat(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("parseFormat(%q) err = %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("parseFormat(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatStats(t *testing.T) {
	got := formatStats(map[string]float64{"K": 7, "IP": 5.1, "ER": 2, "XBH": 1})
	if got != "IP 5.1 ER 2 K 7 XBH 1" {
		t.Fatalf("formatStats = %q", got)
	}
	if formatStats(nil) != "-" {
		t.Fatal("expected dash for empty stats")
	}
}
