package core

import "errors"

// Pipeline error kinds. Stage failures are wrapped with one of these sentinels
// so the ingestion engine can classify them with errors.Is before recording a
// human-readable message on the failed source item.
var (
	// ErrUnsupportedFormat indicates the declared content type matches no known extractor.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrEmptyContent indicates extraction produced no usable text.
	ErrEmptyContent = errors.New("empty content")

	// ErrTranscriptUnavailable indicates a video source exposes no caption track.
	ErrTranscriptUnavailable = errors.New("transcript unavailable")

	// ErrStorageUnavailable indicates the raw source bytes could not be fetched or stored.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrEmbeddingFailure indicates the embedder call failed or timed out.
	ErrEmbeddingFailure = errors.New("embedding failure")

	// ErrPersistenceFailure indicates a chunk store write failed.
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrSourceNotFound indicates the requested source item does not exist.
	ErrSourceNotFound = errors.New("source not found")
)
