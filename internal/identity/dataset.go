package identity

import (
	"fmt"
	"strconv"
	"strings"
)

// Namespace names one of the three identifier systems the register links.
type Namespace string

const (
	// NamespaceRegister is the cross-organization register id ("johnsk001kyl").
	NamespaceRegister Namespace = "register"
	// NamespaceMajor is the major-league reference format id ("johnsky01").
	NamespaceMajor Namespace = "major"
	// NamespaceLeague is the numeric league API id.
	NamespaceLeague Namespace = "league"
)

// Namespaces lists every namespace in lookup precedence order.
func Namespaces() []Namespace {
	return []Namespace{NamespaceRegister, NamespaceMajor, NamespaceLeague}
}

// ParseNamespace resolves a user supplied namespace name.
func ParseNamespace(value string) (Namespace, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "register", "bref", "bbref_minors":
		return NamespaceRegister, nil
	case "major", "mlb", "bbref":
		return NamespaceMajor, nil
	case "league", "mlbam", "api":
		return NamespaceLeague, nil
	default:
		return "", fmt.Errorf("unknown identity namespace %q", value)
	}
}

// Identity is the linked view of one player across namespaces. Zero fields
// are unknown.
type Identity struct {
	RegisterID string `json:"register_id,omitempty"`
	MajorID    string `json:"major_id,omitempty"`
	LeagueID   int64  `json:"league_id,omitempty"`
	Name       string `json:"name,omitempty"`
}

// IsZero reports whether no identifier is known.
func (i Identity) IsZero() bool {
	return i.RegisterID == "" && i.MajorID == "" && i.LeagueID == 0
}

// Dataset holds the typed lookup tables between namespaces. It is built once
// and read-only afterwards. A nil Dataset answers every lookup with a zero
// Identity.
type Dataset struct {
	registerToMajor  map[string]string
	majorToRegister  map[string]string
	majorToLeague    map[string]int64
	leagueToMajor    map[int64]string
	registerToLeague map[string]int64
	leagueToRegister map[int64]string
	registerNames    map[string]string
	majorNames       map[string]string
	leagueNames      map[int64]string
}

func newDataset() *Dataset {
	return &Dataset{
		registerToMajor:  map[string]string{},
		majorToRegister:  map[string]string{},
		majorToLeague:    map[string]int64{},
		leagueToMajor:    map[int64]string{},
		registerToLeague: map[string]int64{},
		leagueToRegister: map[int64]string{},
		registerNames:    map[string]string{},
		majorNames:       map[string]string{},
		leagueNames:      map[int64]string{},
	}
}

// Len returns the number of identifier-to-identifier links.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.registerToMajor) + len(d.majorToRegister) +
		len(d.majorToLeague) + len(d.leagueToMajor) +
		len(d.registerToLeague) + len(d.leagueToRegister)
}

// Lookup resolves id within namespace ns. League ids that do not parse as
// integers are unknown.
func (d *Dataset) Lookup(ns Namespace, id string) Identity {
	id = strings.TrimSpace(id)
	switch ns {
	case NamespaceRegister:
		return d.LookupRegister(id)
	case NamespaceMajor:
		return d.LookupMajor(id)
	case NamespaceLeague:
		leagueID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return Identity{}
		}
		return d.LookupLeague(leagueID)
	default:
		return Identity{}
	}
}

// LookupRegister returns everything linked to a register id.
func (d *Dataset) LookupRegister(id string) Identity {
	if d == nil || id == "" {
		return Identity{}
	}
	major, hasMajor := d.registerToMajor[id]
	league, hasLeague := d.registerToLeague[id]
	name, hasName := d.registerNames[id]
	if !hasMajor && !hasLeague && !hasName {
		return Identity{}
	}
	out := Identity{RegisterID: id, MajorID: major, LeagueID: league, Name: name}
	d.complete(&out)
	return out
}

// LookupMajor returns everything linked to a major-league format id.
func (d *Dataset) LookupMajor(id string) Identity {
	if d == nil || id == "" {
		return Identity{}
	}
	register, hasRegister := d.majorToRegister[id]
	league, hasLeague := d.majorToLeague[id]
	name, hasName := d.majorNames[id]
	if !hasRegister && !hasLeague && !hasName {
		return Identity{}
	}
	out := Identity{RegisterID: register, MajorID: id, LeagueID: league, Name: name}
	d.complete(&out)
	return out
}

// LookupLeague returns everything linked to a league API id.
func (d *Dataset) LookupLeague(id int64) Identity {
	if d == nil || id == 0 {
		return Identity{}
	}
	register, hasRegister := d.leagueToRegister[id]
	major, hasMajor := d.leagueToMajor[id]
	name, hasName := d.leagueNames[id]
	if !hasRegister && !hasMajor && !hasName {
		return Identity{}
	}
	out := Identity{RegisterID: register, MajorID: major, LeagueID: id, Name: name}
	d.complete(&out)
	return out
}

// complete fills fields reachable through a second hop.
func (d *Dataset) complete(out *Identity) {
	if out.MajorID == "" && out.RegisterID != "" {
		out.MajorID = d.registerToMajor[out.RegisterID]
	}
	if out.MajorID == "" && out.LeagueID != 0 {
		out.MajorID = d.leagueToMajor[out.LeagueID]
	}
	if out.RegisterID == "" && out.MajorID != "" {
		out.RegisterID = d.majorToRegister[out.MajorID]
	}
	if out.RegisterID == "" && out.LeagueID != 0 {
		out.RegisterID = d.leagueToRegister[out.LeagueID]
	}
	if out.LeagueID == 0 && out.RegisterID != "" {
		out.LeagueID = d.registerToLeague[out.RegisterID]
	}
	if out.LeagueID == 0 && out.MajorID != "" {
		out.LeagueID = d.majorToLeague[out.MajorID]
	}
	if out.Name == "" {
		switch {
		case out.RegisterID != "" && d.registerNames[out.RegisterID] != "":
			out.Name = d.registerNames[out.RegisterID]
		case out.MajorID != "" && d.majorNames[out.MajorID] != "":
			out.Name = d.majorNames[out.MajorID]
		case out.LeagueID != 0:
			out.Name = d.leagueNames[out.LeagueID]
		}
	}
}
