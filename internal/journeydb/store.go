package journeydb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"journey/internal/registry"
)

// ErrRunNotFound is returned by RunSummary for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Store persists run exports in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the export database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("export database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps pragmas and the write transaction on one handle.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Run describes one batch run being exported.
type Run struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	IdentityOrigin string
}

// WriteRun stores every player, per-level count and appearance of a run in
// one transaction. A run id can be written only once.
func (s *Store) WriteRun(ctx context.Context, run Run, players []*registry.Player) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id is required")
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	crossovers := 0
	for _, p := range players {
		if p.IsCrossover() {
			crossovers++
		}
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO runs (id, started_at, finished_at, identity_origin, player_count, crossover_count)
             VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID,
			formatTime(run.StartedAt),
			formatTime(run.FinishedAt),
			nullableString(run.IdentityOrigin),
			len(players),
			crossovers,
		); err != nil {
			return fmt.Errorf("insert run %s: %w", run.ID, err)
		}

		insertPlayer, err := tx.PrepareContext(ctx,
			`INSERT INTO players (run_id, player_key, name, register_id, major_id, league_id, total_games, crossover)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare player insert: %w", err)
		}
		defer insertPlayer.Close()

		insertLevel, err := tx.PrepareContext(ctx,
			`INSERT INTO player_levels (run_id, player_key, level, games, teams) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare level insert: %w", err)
		}
		defer insertLevel.Close()

		insertAppearance, err := tx.PrepareContext(ctx,
			`INSERT INTO appearances (
                run_id, player_key, level, role, game_date, team, opponent, venue, parent_org, league, stats_json
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare appearance insert: %w", err)
		}
		defer insertAppearance.Close()

		for _, p := range players {
			if _, err := insertPlayer.ExecContext(ctx,
				run.ID,
				p.Key(),
				p.Name(),
				nullableString(p.RegisterID()),
				nullableString(p.MajorID()),
				nullableInt(p.LeagueID()),
				p.TotalAppearances(),
				boolInt(p.IsCrossover()),
			); err != nil {
				return fmt.Errorf("insert player %s: %w", p.Key(), err)
			}
			for _, level := range p.LevelsSeen() {
				if _, err := insertLevel.ExecContext(ctx,
					run.ID,
					p.Key(),
					level.String(),
					p.Games(level),
					nullableString(strings.Join(p.TeamsAt(level), ", ")),
				); err != nil {
					return fmt.Errorf("insert %s level for %s: %w", level, p.Key(), err)
				}
				for _, a := range p.Appearances(level) {
					stats, err := json.Marshal(a.Stats)
					if err != nil {
						return fmt.Errorf("marshal stats for %s: %w", p.Key(), err)
					}
					if _, err := insertAppearance.ExecContext(ctx,
						run.ID,
						p.Key(),
						level.String(),
						string(a.Role),
						nullableDate(a.Date),
						nullableString(a.Team),
						nullableString(a.Opponent),
						nullableString(a.Venue),
						nullableString(a.ParentOrg),
						nullableString(a.League),
						string(stats),
					); err != nil {
						return fmt.Errorf("insert appearance for %s: %w", p.Key(), err)
					}
				}
			}
		}
		return nil
	})
}

// RunSummary is what a stored run contains.
type RunSummary struct {
	ID             string         `json:"id"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
	IdentityOrigin string         `json:"identity_origin,omitempty"`
	Players        int            `json:"players"`
	Crossovers     int            `json:"crossovers"`
	Appearances    int            `json:"appearances"`
	PlayersByLevel map[string]int `json:"players_by_level"`
}

// RunSummary reads back the counts recorded for runID.
func (s *Store) RunSummary(ctx context.Context, runID string) (RunSummary, error) {
	var (
		summary     = RunSummary{ID: runID, PlayersByLevel: map[string]int{}}
		startedRaw  string
		finishedRaw string
		origin      sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT started_at, finished_at, identity_origin, player_count, crossover_count FROM runs WHERE id = ?`,
		runID,
	).Scan(&startedRaw, &finishedRaw, &origin, &summary.Players, &summary.Crossovers)
	if errors.Is(err, sql.ErrNoRows) {
		return RunSummary{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return RunSummary{}, fmt.Errorf("read run %s: %w", runID, err)
	}
	summary.IdentityOrigin = origin.String
	summary.StartedAt, _ = parseTime(startedRaw)
	summary.FinishedAt, _ = parseTime(finishedRaw)

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM appearances WHERE run_id = ?`, runID,
	).Scan(&summary.Appearances); err != nil {
		return RunSummary{}, fmt.Errorf("count appearances: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT level, COUNT(1) FROM player_levels WHERE run_id = ? GROUP BY level`, runID)
	if err != nil {
		return RunSummary{}, fmt.Errorf("count levels: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			level string
			count int
		)
		if err := rows.Scan(&level, &count); err != nil {
			return RunSummary{}, fmt.Errorf("scan level count: %w", err)
		}
		summary.PlayersByLevel[level] = count
	}
	if err := rows.Err(); err != nil {
		return RunSummary{}, fmt.Errorf("iterate level counts: %w", err)
	}
	return summary, nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
