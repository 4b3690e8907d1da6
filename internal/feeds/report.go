package feeds

// FeedReport counts what one feed contributed to a run.
type FeedReport struct {
	Feed        Feed               `json:"feed"`
	Dir         string             `json:"dir"`
	Files       int                `json:"files"`
	Games       int                `json:"games"`
	Submissions int                `json:"submissions"`
	Attached    int                `json:"attached"`
	Skipped     map[SkipReason]int `json:"skipped,omitempty"`
}

// SkippedTotal sums skips across reasons.
func (r FeedReport) SkippedTotal() int {
	total := 0
	for _, n := range r.Skipped {
		total += n
	}
	return total
}

// Report is the outcome of Loader.Load.
type Report struct {
	Feeds []FeedReport `json:"feeds"`
}

// Feed returns the report for feed, if it was loaded.
func (r Report) Feed(feed Feed) (FeedReport, bool) {
	for _, fr := range r.Feeds {
		if fr.Feed == feed {
			return fr, true
		}
	}
	return FeedReport{}, false
}

// Totals sums every feed.
func (r Report) Totals() FeedReport {
	total := FeedReport{Skipped: map[SkipReason]int{}}
	for _, fr := range r.Feeds {
		total.Files += fr.Files
		total.Games += fr.Games
		total.Submissions += fr.Submissions
		total.Attached += fr.Attached
		for reason, n := range fr.Skipped {
			total.Skipped[reason] += n
		}
	}
	return total
}
