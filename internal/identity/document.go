package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// document is the persisted cache layout. League ids appear as string keys
// and integer values.
type document struct {
	RegisterToMajor  map[string]string `json:"register_to_major"`
	MajorToRegister  map[string]string `json:"major_to_register"`
	MajorToLeague    map[string]int64  `json:"major_to_league"`
	LeagueToMajor    map[string]string `json:"league_to_major"`
	RegisterToLeague map[string]int64  `json:"register_to_league"`
	LeagueToRegister map[string]string `json:"league_to_register"`
	RegisterNames    map[string]string `json:"register_names"`
	MajorNames       map[string]string `json:"major_names"`
	LeagueNames      map[string]string `json:"league_names"`
}

func toDocument(d *Dataset) document {
	doc := document{
		RegisterToMajor:  d.registerToMajor,
		MajorToRegister:  d.majorToRegister,
		MajorToLeague:    d.majorToLeague,
		LeagueToMajor:    make(map[string]string, len(d.leagueToMajor)),
		RegisterToLeague: d.registerToLeague,
		LeagueToRegister: make(map[string]string, len(d.leagueToRegister)),
		RegisterNames:    d.registerNames,
		MajorNames:       d.majorNames,
		LeagueNames:      make(map[string]string, len(d.leagueNames)),
	}
	for k, v := range d.leagueToMajor {
		doc.LeagueToMajor[strconv.FormatInt(k, 10)] = v
	}
	for k, v := range d.leagueToRegister {
		doc.LeagueToRegister[strconv.FormatInt(k, 10)] = v
	}
	for k, v := range d.leagueNames {
		doc.LeagueNames[strconv.FormatInt(k, 10)] = v
	}
	return doc
}

func fromDocument(doc document) *Dataset {
	d := newDataset()
	copyStrings(d.registerToMajor, doc.RegisterToMajor)
	copyStrings(d.majorToRegister, doc.MajorToRegister)
	copyStrings(d.registerNames, doc.RegisterNames)
	copyStrings(d.majorNames, doc.MajorNames)
	for k, v := range doc.MajorToLeague {
		if k != "" && v > 0 {
			d.majorToLeague[k] = v
		}
	}
	for k, v := range doc.RegisterToLeague {
		if k != "" && v > 0 {
			d.registerToLeague[k] = v
		}
	}
	copyLeagueKeyed(d.leagueToMajor, doc.LeagueToMajor)
	copyLeagueKeyed(d.leagueToRegister, doc.LeagueToRegister)
	copyLeagueKeyed(d.leagueNames, doc.LeagueNames)
	return d
}

func copyStrings(dst, src map[string]string) {
	for k, v := range src {
		if k != "" && v != "" {
			dst[k] = v
		}
	}
}

func copyLeagueKeyed(dst map[int64]string, src map[string]string) {
	for k, v := range src {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil || id <= 0 || v == "" {
			continue
		}
		dst[id] = v
	}
}

// readDocument loads the cache file and returns its dataset and modification
// time.
func readDocument(path string) (*Dataset, time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, time.Time{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("read identity cache: %w", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode identity cache: %w", err)
	}
	return fromDocument(doc), info.ModTime(), nil
}

// writeDocument replaces the cache file atomically.
func writeDocument(path string, d *Dataset) error {
	data, err := json.Marshal(toDocument(d))
	if err != nil {
		return fmt.Errorf("encode identity cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create identity cache directory: %w", err)
	}
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("write identity cache temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("replace identity cache: %w", err)
	}
	return nil
}
