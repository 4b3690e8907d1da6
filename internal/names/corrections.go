package names

import (
	"errors"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"journey/internal/logging"
)

// Corrections maps known misspelled box-score names to their fixed form.
type Corrections map[string]string

type correctionsFile struct {
	Corrections map[string]string `yaml:"corrections"`
}

// LoadCorrections reads a YAML document of the form
//
//	corrections:
//	  "FUNY, Matty": "Fung, Matty"
//
// A missing path yields no corrections. Unreadable or invalid files are logged
// and also yield no corrections; the run continues without them.
func LoadCorrections(path string, logger *slog.Logger) Corrections {
	logger = logging.NewComponentLogger(logger, "names")
	out := Corrections{}
	if path == "" {
		return out
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("corrections file not found", logging.String(logging.FieldPath, path))
			return out
		}
		logging.WarnWithContext(logger, "corrections file unreadable", "corrections_read_failed",
			logging.String(logging.FieldPath, path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "names are matched without typo corrections"),
		)
		return out
	}
	if len(data) == 0 {
		return out
	}

	var doc correctionsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		logging.WarnWithContext(logger, "corrections file invalid", "corrections_parse_failed",
			logging.String(logging.FieldPath, path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "expected a top-level corrections mapping"),
			logging.String(logging.FieldImpact, "names are matched without typo corrections"),
		)
		return out
	}
	for raw, fixed := range doc.Corrections {
		if raw == "" || fixed == "" {
			continue
		}
		out[raw] = fixed
	}
	logger.Debug("corrections loaded", logging.String(logging.FieldPath, path), logging.Int("entries", len(out)))
	return out
}

// Apply returns the corrected spelling of name, or name unchanged.
func (c Corrections) Apply(name string) string {
	if fixed, ok := c[name]; ok {
		return fixed
	}
	return name
}
