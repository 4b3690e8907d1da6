package identity

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"journey/internal/logging"
)

const (
	defaultDownloadTimeout   = 60 * time.Second
	defaultRequestsPerSecond = 2
)

// Source streams register rows. Implementations must deliver rows in a stable
// order so repeated refreshes build identical datasets.
type Source interface {
	Rows(ctx context.Context, fn func(Row) error) error
	String() string
}

// ShardNames lists the register shard files people-0.csv through people-f.csv.
func ShardNames() []string {
	const digits = "0123456789abcdef"
	names := make([]string, 0, len(digits))
	for _, c := range digits {
		names = append(names, "people-"+string(c)+".csv")
	}
	return names
}

// HTTPSource downloads the register shards from a base URL.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewHTTPSource paces shard requests at requestsPerSecond. Non-positive
// values fall back to defaults.
func NewHTTPSource(baseURL string, timeout time.Duration, requestsPerSecond float64, logger *slog.Logger) *HTTPSource {
	if timeout <= 0 {
		timeout = defaultDownloadTimeout
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = defaultRequestsPerSecond
	}
	return &HTTPSource{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:  logging.NewComponentLogger(logger, "identity"),
	}
}

func (s *HTTPSource) String() string { return s.baseURL }

// Rows fetches every shard in order and streams its rows to fn.
func (s *HTTPSource) Rows(ctx context.Context, fn func(Row) error) error {
	for _, shard := range ShardNames() {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := s.fetchShard(ctx, shard, fn); err != nil {
			return err
		}
	}
	return nil
}

func (s *HTTPSource) fetchShard(ctx context.Context, shard string, fn func(Row) error) error {
	url := s.baseURL + "/" + shard
	s.logger.Debug("downloading register shard", logging.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("download %s: %w", shard, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", shard, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %d", shard, resp.StatusCode)
	}
	if err := parseShard(resp.Body, fn); err != nil {
		return fmt.Errorf("parse %s: %w", shard, err)
	}
	return nil
}

// DirSource reads register shards from a local directory.
type DirSource struct {
	dir string
}

// NewDirSource returns a source over dir/people-*.csv.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) String() string { return s.dir }

// Rows streams every shard found in the directory, in name order.
func (s *DirSource) Rows(_ context.Context, fn func(Row) error) error {
	paths, err := filepath.Glob(filepath.Join(s.dir, "people-*.csv"))
	if err != nil {
		return fmt.Errorf("list register shards: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no register shards in %s", s.dir)
	}
	sort.Strings(paths)
	for _, path := range paths {
		if err := readShardFile(path, fn); err != nil {
			return err
		}
	}
	return nil
}

func readShardFile(path string, fn func(Row) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer file.Close()
	if err := parseShard(file, fn); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

var errNoIdentifierColumns = errors.New("header has no identifier columns")

// parseShard reads a header-driven register CSV. Malformed records are
// skipped; only I/O failures and a missing header abort the shard.
func parseShard(r io.Reader, fn func(Row) error) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("read header: %w", err)
	}
	columns := map[string]int{}
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	index := func(name string) int {
		if i, ok := columns[name]; ok {
			return i
		}
		return -1
	}
	registerCol := index("key_bbref_minors")
	majorCol := index("key_bbref")
	leagueCol := index("key_mlbam")
	firstCol := index("name_first")
	lastCol := index("name_last")
	if registerCol < 0 && majorCol < 0 && leagueCol < 0 {
		return errNoIdentifierColumns
	}

	field := func(record []string, i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return record[i]
	}

	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return err
		}
		row := Row{
			RegisterID: field(record, registerCol),
			MajorID:    field(record, majorCol),
			LeagueID:   field(record, leagueCol),
			FirstName:  field(record, firstCol),
			LastName:   field(record, lastCol),
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}
