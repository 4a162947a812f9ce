package core

import "context"

// Extractor converts a raw source blob into a single plain-text document.
// The contentType hint selects the parsing strategy. Fails with
// ErrUnsupportedFormat when no handler matches the declared type and with
// ErrEmptyContent when the normalized result is empty or whitespace-only.
type Extractor interface {
	Extract(ctx context.Context, raw []byte, contentType string) (string, error)
}

// TranscriptFetcher retrieves the caption track of a remotely hosted video and
// returns it as plain text. Fails with ErrTranscriptUnavailable when the
// platform exposes no discoverable track, instructing the caller to supply a
// caption file instead.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoURL string) (string, error)
}
