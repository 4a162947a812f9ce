package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praeceptor-ai/corpus/internal/core"
)

func TestParseVideoID(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://example.com/video", "", false},
		{"not a url at all", "", false},
	}
	for _, tc := range cases {
		got, err := ParseVideoID(tc.in)
		if tc.ok {
			require.NoError(t, err, tc.in)
			assert.Equal(t, tc.want, got, tc.in)
		} else {
			assert.ErrorIs(t, err, core.ErrTranscriptUnavailable, tc.in)
		}
	}
}

func TestFetchTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "dQw4w9WgXcQ", r.URL.Query().Get("v"))
		w.Write([]byte(`<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.0" dur="2.0">Welcome to the course.</text>
  <text start="2.0" dur="3.0">Today we cover &amp;quot;limits&amp;quot;.</text>
</transcript>`))
	}))
	defer srv.Close()

	f := NewYouTubeTranscriptFetcher(5 * time.Second)
	f.baseURL = srv.URL

	got, err := f.Fetch(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Contains(t, got, "Welcome to the course.")
	assert.Contains(t, got, "Today we cover")
}

func TestFetchTranscriptEmptyTrack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// YouTube answers 200 with an empty body for videos without captions.
	}))
	defer srv.Close()

	f := NewYouTubeTranscriptFetcher(5 * time.Second)
	f.baseURL = srv.URL

	_, err := f.Fetch(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	assert.ErrorIs(t, err, core.ErrTranscriptUnavailable)
}

func TestFetchTranscriptServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewYouTubeTranscriptFetcher(5 * time.Second)
	f.baseURL = srv.URL

	_, err := f.Fetch(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	assert.ErrorIs(t, err, core.ErrTranscriptUnavailable)
}

func TestFetchTranscriptTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	f := NewYouTubeTranscriptFetcher(50 * time.Millisecond)
	f.baseURL = srv.URL

	_, err := f.Fetch(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	assert.ErrorIs(t, err, core.ErrTranscriptUnavailable)
}
