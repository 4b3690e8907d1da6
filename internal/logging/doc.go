// Package logging assembles the slog loggers used across journey.
//
// The console handler puts the fields that identify a line (component, feed,
// player key and run id) in fixed places so a run log reads top to bottom;
// everything else trails as key=value pairs. The JSON handler keeps slog's
// shape with short ts/level keys for shipping. WarnWithContext guarantees
// every warning says what happened, what to do and what it cost.
package logging
