package logging

import "log/slog"

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldDecisionID is the standardized structured logging key for queueing-decision correlation ids.
	FieldDecisionID = "decision_id"
	// FieldArtist is the standardized structured logging key for artist names.
	FieldArtist = "artist"
	// FieldTitle is the standardized structured logging key for track titles.
	FieldTitle = "title"
	// FieldTrackID is the standardized structured logging key for similarity-store track ids.
	FieldTrackID = "track_id"
	// FieldScore is the standardized structured logging key for candidate scores.
	FieldScore = "score"
)

// Error wraps an error for structured output, tolerating nil.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}
