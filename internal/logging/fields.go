package logging

// Structured keys shared by every package. The console handler lifts
// component, feed, player_key and run_id out of the key=value tail.
const (
	FieldComponent = "component"
	// FieldRunID tags every line emitted during one batch run.
	FieldRunID = "run_id"
	// FieldFeed names the source feed being ingested.
	FieldFeed = "feed"
	// FieldPlayerKey is a canonical registry key.
	FieldPlayerKey = "player_key"
	FieldPath      = "path"
	// FieldEventType classifies a warning for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint carries the next step an operator should take.
	FieldErrorHint = "error_hint"
	// FieldImpact says what the warning means for the run's output.
	FieldImpact = "impact"
)
