package feeds

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"journey/internal/names"
)

// Cleaner prepares raw box-score names for resolution.
type Cleaner struct {
	Corrections names.Corrections
}

// Name applies typo corrections and then strips box-score artifacts.
func (c Cleaner) Name(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(names.Clean(c.Corrections.Apply(name)))
}

// splitRecords accepts a single JSON object or an array of objects.
func splitRecords(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\ufeff")))
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedRecord)
	}
	switch trimmed[0] {
	case '[':
		var records []json.RawMessage
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
		}
		return records, nil
	case '{':
		if !json.Valid(trimmed) {
			return nil, fmt.Errorf("%w: invalid json object", ErrMalformedRecord)
		}
		return []json.RawMessage{json.RawMessage(trimmed)}, nil
	default:
		return nil, fmt.Errorf("%w: expected object or array", ErrMalformedRecord)
	}
}

// line is one player row. Feeds disagree on field names and on whether
// numbers arrive quoted, so fields are read lazily.
type line map[string]json.RawMessage

// str returns the first non-empty string (or number rendered as text)
// among keys.
func (l line) str(keys ...string) string {
	for _, key := range keys {
		raw, ok := l[key]
		if !ok {
			continue
		}
		if value := rawText(raw); value != "" {
			return value
		}
	}
	return ""
}

// num returns the first present numeric value among keys. Absent keys, null,
// empty strings and "-" read as zero.
func (l line) num(keys ...string) (float64, error) {
	for _, key := range keys {
		raw, ok := l[key]
		if !ok {
			continue
		}
		value, present, err := rawNumber(raw)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		if present {
			return value, nil
		}
	}
	return 0, nil
}

func rawText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}
	if raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9') {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return ""
		}
		return n.String()
	}
	return ""
}

func rawNumber(raw json.RawMessage) (float64, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false, err
		}
		s = strings.TrimSpace(s)
		if s == "" || s == "-" {
			return 0, false, nil
		}
		value, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false, fmt.Errorf("not a number: %q", s)
		}
		return value, true, nil
	}
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, false, fmt.Errorf("not a number: %s", raw)
	}
	return value, true, nil
}

// statField maps one canonical stat name to the keys a feed may use for it.
type statField struct {
	name string
	keys []string
}

func (l line) stats(fields []statField) (map[string]float64, error) {
	out := make(map[string]float64, len(fields))
	for _, field := range fields {
		value, err := l.num(field.keys...)
		if err != nil {
			return nil, err
		}
		out[field.name] = value
	}
	return out, nil
}

// leagueID parses a numeric identifier. Non-numeric values are not league
// ids and yield zero.
// leagueID reads a positive integral league id. Feeds sometimes write ids as
// JSON floats ("123456.0"), which count as long as they are whole.
func leagueID(value string) int64 {
	id, ok := integralID(value)
	if !ok {
		return 0
	}
	return id
}

func integralID(value string) (int64, bool) {
	if value == "" {
		return 0, false
	}
	if isDigits(value) {
		id, err := strconv.ParseInt(value, 10, 64)
		return id, err == nil && id > 0
	}
	if !isNumeric(value) {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 || f != math.Trunc(f) || f > maxExactFloatID {
		return 0, false
	}
	return int64(f), true
}

// maxExactFloatID is the largest integer a float64 holds exactly.
const maxExactFloatID = 1 << 53

// isNumeric reports whether value is a plain decimal number such as "12",
// "-3" or "1.5e5". Words ParseFloat would accept ("Inf", "0x1p4") are not.
func isNumeric(value string) bool {
	if value == "" {
		return false
	}
	start := value
	if start[0] == '-' || start[0] == '+' {
		start = start[1:]
	}
	if start == "" || start[0] < '0' || start[0] > '9' || strings.ContainsAny(start, "xXpP_") {
		return false
	}
	_, err := strconv.ParseFloat(value, 64)
	return err == nil
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"Monday, January 2, 2006",
}

// parseDate prefers the compact yyyymmdd form and falls back to the display
// date. Unparseable dates yield the zero time.
func parseDate(compact, display string) time.Time {
	if compact = strings.TrimSpace(compact); compact != "" {
		if t, err := time.Parse("20060102", compact); err == nil {
			return t
		}
	}
	display = strings.TrimSpace(display)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, display); err == nil {
			return t
		}
	}
	return time.Time{}
}

// sidePair is a field that appears once per side of the game.
type sidePair struct {
	Away string `json:"away"`
	Home string `json:"home"`
}

func (p sidePair) get(side string) string {
	if side == "home" {
		return p.Home
	}
	return p.Away
}

// leagueField accepts either a league name or a per-side object.
type leagueField struct {
	name  string
	sides sidePair
}

func (f *leagueField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '{' {
		return json.Unmarshal(data, &f.sides)
	}
	return json.Unmarshal(data, &f.name)
}

// forSide returns the league for one side of the game, falling back to the
// home side and then to fallback.
func (f leagueField) forSide(side, fallback string) string {
	if f.name != "" {
		return f.name
	}
	if value := f.sides.get(side); value != "" {
		return value
	}
	if f.sides.Home != "" {
		return f.sides.Home
	}
	return fallback
}

func opponentSide(side string) string {
	if side == "home" {
		return "away"
	}
	return "home"
}

var sides = []string{"away", "home"}

// gameKey identifies a game for duplicate detection within a run.
func gameKey(explicit, compactDate, display, away, home, gameNumber string) string {
	if explicit != "" {
		return "id:" + explicit
	}
	date := compactDate
	if date == "" {
		if t := parseDate("", display); !t.IsZero() {
			date = t.Format("20060102")
		} else {
			date = display
		}
	}
	if date == "" && away == "" && home == "" {
		return ""
	}
	if gameNumber == "" {
		gameNumber = "1"
	}
	return strings.Join([]string{date, strings.ToLower(away), strings.ToLower(home), gameNumber}, "|")
}
