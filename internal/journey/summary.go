package journey

import "journey/internal/registry"

// Summary counts players by the levels they reached. Minor and partner
// appearances together form the minor tier for the pairwise counts.
type Summary struct {
	TotalPlayers      int `json:"total_players"`
	CollegiateOnly    int `json:"collegiate_only"`
	MinorOnly         int `json:"minor_only"`
	PartnerOnly       int `json:"partner_only"`
	MajorOnly         int `json:"major_only"`
	CrossoverPlayers  int `json:"crossover_players"`
	CollegiateToMinor int `json:"collegiate_to_minor"`
	MinorToMajor      int `json:"minor_to_major"`
	CollegiateToMajor int `json:"collegiate_to_major"`
	MinorAndPartner   int `json:"minor_and_partner"`
	AllLevels         int `json:"all_levels"`
}

// Summarize computes a Summary over every player in src.
func Summarize(src Source) Summary {
	var s Summary
	for _, p := range src.Players() {
		s.TotalPlayers++
		college := p.HasLevel(registry.LevelCollegiate)
		minor := p.HasLevel(registry.LevelMinor)
		partner := p.HasLevel(registry.LevelPartner)
		major := p.HasLevel(registry.LevelMajor)
		tier := minor || partner

		if p.IsCrossover() {
			s.CrossoverPlayers++
		} else {
			switch {
			case college:
				s.CollegiateOnly++
			case minor:
				s.MinorOnly++
			case partner:
				s.PartnerOnly++
			case major:
				s.MajorOnly++
			}
		}
		if college && tier {
			s.CollegiateToMinor++
		}
		if tier && major {
			s.MinorToMajor++
		}
		if college && major {
			s.CollegiateToMajor++
		}
		if minor && partner {
			s.MinorAndPartner++
		}
		if college && tier && major {
			s.AllLevels++
		}
	}
	return s
}
