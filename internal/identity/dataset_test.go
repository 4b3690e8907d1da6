package identity

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func sampleRows() []Row {
	return []Row{
		{RegisterID: "johnsk001kyl", MajorID: "johnsky01", LeagueID: "123456", FirstName: "Kyle", LastName: "Johnson"},
		{RegisterID: "smithj002joh", LeagueID: "654321", FirstName: "John", LastName: "Smith"},
		{MajorID: "ruthba01", FirstName: "Babe", LastName: "Ruth"},
		{RegisterID: "doejan001jan", MajorID: "doeja01", LeagueID: "n/a", FirstName: "Jane", LastName: "Doe"},
		{FirstName: "No", LastName: "Identifiers"},
	}
}

func buildSample() *Dataset {
	builder := NewBuilder()
	for _, row := range sampleRows() {
		builder.Add(row)
	}
	return builder.Build()
}

func TestDatasetResolvesEveryNamespaceToSameIdentity(t *testing.T) {
	dataset := buildSample()
	want := Identity{RegisterID: "johnsk001kyl", MajorID: "johnsky01", LeagueID: 123456, Name: "Kyle Johnson"}

	byRegister := dataset.LookupRegister("johnsk001kyl")
	byMajor := dataset.LookupMajor("johnsky01")
	byLeague := dataset.LookupLeague(123456)
	for label, got := range map[string]Identity{"register": byRegister, "major": byMajor, "league": byLeague} {
		if got != want {
			t.Fatalf("lookup by %s = %+v, want %+v", label, got, want)
		}
	}
	if got := dataset.Lookup(NamespaceLeague, " 123456 "); got != want {
		t.Fatalf("namespace lookup = %+v, want %+v", got, want)
	}
}

func TestDatasetPartialRows(t *testing.T) {
	dataset := buildSample()

	got := dataset.LookupLeague(654321)
	if got.RegisterID != "smithj002joh" || got.MajorID != "" || got.Name != "John Smith" {
		t.Fatalf("unexpected league lookup %+v", got)
	}

	got = dataset.LookupMajor("ruthba01")
	if got.MajorID != "ruthba01" || got.RegisterID != "" || got.LeagueID != 0 || got.Name != "Babe Ruth" {
		t.Fatalf("unexpected name-only major lookup %+v", got)
	}

	got = dataset.LookupRegister("doejan001jan")
	if got.MajorID != "doeja01" || got.LeagueID != 0 {
		t.Fatalf("expected non-integer league id to be dropped, got %+v", got)
	}
}

func TestDatasetUnknownIDsAreAbsent(t *testing.T) {
	dataset := buildSample()
	if got := dataset.LookupRegister("nobody000xyz"); !got.IsZero() || got.Name != "" {
		t.Fatalf("expected zero identity, got %+v", got)
	}
	if got := dataset.Lookup(NamespaceLeague, "abc"); !got.IsZero() {
		t.Fatalf("expected zero identity for non-numeric league id, got %+v", got)
	}

	var missing *Dataset
	if got := missing.LookupLeague(123456); !got.IsZero() {
		t.Fatalf("expected nil dataset to answer absent, got %+v", got)
	}
	if missing.Len() != 0 {
		t.Fatal("expected nil dataset length zero")
	}
}

func TestBuilderIsDeterministic(t *testing.T) {
	first := buildSample()
	second := buildSample()
	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected identical datasets for identical input")
	}
	builder := NewBuilder()
	for _, row := range sampleRows() {
		builder.Add(row)
	}
	if builder.Rows() != 4 {
		t.Fatalf("expected 4 contributing rows, got %d", builder.Rows())
	}
}

func TestParseNamespace(t *testing.T) {
	tests := map[string]Namespace{
		"register": NamespaceRegister,
		"BREF":     NamespaceRegister,
		"major":    NamespaceMajor,
		"mlbam":    NamespaceLeague,
		" league ": NamespaceLeague,
	}
	for input, want := range tests {
		got, err := ParseNamespace(input)
		if err != nil || got != want {
			t.Fatalf("ParseNamespace(%q) = %q, %v; want %q", input, got, err, want)
		}
	}
	if _, err := ParseNamespace("espn"); err == nil {
		t.Fatal("expected error for unknown namespace")
	}
}

func TestParseShardIsHeaderDriven(t *testing.T) {
	csvData := strings.Join([]string{
		"key_person,name_last,name_first,key_mlbam,key_bbref,key_bbref_minors",
		"aaaa,Johnson,Kyle,123456,johnsky01,johnsk001kyl",
		"bbbb,Short",
		"cccc,Doe,Jane,,,",
	}, "\n")

	var rows []Row
	if err := parseShard(strings.NewReader(csvData), func(r Row) error {
		rows = append(rows, r)
		return nil
	}); err != nil {
		t.Fatalf("parseShard returned error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	want := Row{RegisterID: "johnsk001kyl", MajorID: "johnsky01", LeagueID: "123456", FirstName: "Kyle", LastName: "Johnson"}
	if rows[0] != want {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if rows[1].LastName != "Short" || rows[1].RegisterID != "" {
		t.Fatalf("expected short record padded with empties, got %+v", rows[1])
	}

	if err := parseShard(strings.NewReader("name_first,name_last\nA,B\n"), func(Row) error { return nil }); err == nil {
		t.Fatal("expected error for header without identifier columns")
	}
	if err := parseShard(strings.NewReader(""), func(Row) error { return nil }); err != nil {
		t.Fatalf("expected empty shard to be accepted, got %v", err)
	}
}

func TestDocumentSkipsUnparsableLeagueKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.json")
	content := `{
		"register_to_major": {"johnsk001kyl": "johnsky01"},
		"major_to_register": {"johnsky01": "johnsk001kyl"},
		"major_to_league": {"johnsky01": 123456},
		"league_to_major": {"123456": "johnsky01", "abc": "bogus01"},
		"register_to_league": {"johnsk001kyl": 123456},
		"league_to_register": {"123456": "johnsk001kyl", "-4": "neg"},
		"register_names": {"johnsk001kyl": "Kyle Johnson"},
		"major_names": {"johnsky01": "Kyle Johnson"},
		"league_names": {"123456": "Kyle Johnson"}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write cache: %v", err)
	}

	dataset, _, err := readDocument(path)
	if err != nil {
		t.Fatalf("readDocument returned error: %v", err)
	}
	if dataset.Len() != 6 {
		t.Fatalf("expected 6 links after skipping bad keys, got %d", dataset.Len())
	}
	if got := dataset.LookupLeague(123456); got.RegisterID != "johnsk001kyl" || got.MajorID != "johnsky01" {
		t.Fatalf("unexpected league lookup %+v", got)
	}
}

func TestWriteDocumentPreservesLookups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ids.json")
	original := buildSample()
	if err := writeDocument(path, original); err != nil {
		t.Fatalf("writeDocument returned error: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be renamed away, stat err=%v", err)
	}
	loaded, _, err := readDocument(path)
	if err != nil {
		t.Fatalf("readDocument returned error: %v", err)
	}
	if !reflect.DeepEqual(original, loaded) {
		t.Fatal("expected reloaded dataset to match the written one")
	}
}
