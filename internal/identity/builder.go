package identity

import (
	"strconv"
	"strings"
)

// Row is one register entry as read from a shard.
type Row struct {
	RegisterID string
	MajorID    string
	LeagueID   string
	FirstName  string
	LastName   string
}

// Builder accumulates rows into a Dataset. Later rows overwrite earlier ones
// for the same key, so the same ordered input always builds the same tables.
type Builder struct {
	data *Dataset
	rows int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{data: newDataset()}
}

// Add folds one row into the tables. Rows without any identifier are ignored
// and a league id that is not an integer drops only the league links.
func (b *Builder) Add(row Row) {
	register := strings.TrimSpace(row.RegisterID)
	major := strings.TrimSpace(row.MajorID)
	leagueRaw := strings.TrimSpace(row.LeagueID)
	name := strings.TrimSpace(strings.TrimSpace(row.FirstName) + " " + strings.TrimSpace(row.LastName))

	if register == "" && major == "" && leagueRaw == "" {
		return
	}
	b.rows++
	d := b.data

	if register != "" && major != "" {
		d.registerToMajor[register] = major
		d.majorToRegister[major] = register
	}

	if leagueRaw != "" {
		if league, err := strconv.ParseInt(leagueRaw, 10, 64); err == nil && league > 0 {
			if register != "" {
				d.leagueToRegister[league] = register
				d.registerToLeague[register] = league
			}
			if major != "" {
				d.leagueToMajor[league] = major
				d.majorToLeague[major] = league
			}
			if name != "" {
				d.leagueNames[league] = name
			}
		}
	}

	if name != "" {
		if register != "" {
			d.registerNames[register] = name
		}
		if major != "" {
			d.majorNames[major] = name
		}
	}
}

// Rows returns how many rows contributed at least one identifier.
func (b *Builder) Rows() int { return b.rows }

// Build returns the dataset. The builder must not be used afterwards.
func (b *Builder) Build() *Dataset {
	d := b.data
	b.data = nil
	return d
}
