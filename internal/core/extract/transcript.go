package extract

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/praeceptor-ai/corpus/internal/core"
)

const defaultTranscriptTimeout = 20 * time.Second

var _ core.TranscriptFetcher = (*YouTubeTranscriptFetcher)(nil)

// YouTubeTranscriptFetcher pulls the caption track of a YouTube video from the
// timedtext endpoint. Videos without a published track fail with
// ErrTranscriptUnavailable so the caller can ask for a caption file instead.
type YouTubeTranscriptFetcher struct {
	client  *http.Client
	baseURL string
	lang    string
}

func NewYouTubeTranscriptFetcher(timeout time.Duration) *YouTubeTranscriptFetcher {
	if timeout <= 0 {
		timeout = defaultTranscriptTimeout
	}
	return &YouTubeTranscriptFetcher{
		client:  &http.Client{Timeout: timeout},
		baseURL: "https://video.google.com/timedtext",
		lang:    "en",
	}
}

// timedtext response shape: <transcript><text start="..." dur="...">line</text>...</transcript>
type timedText struct {
	Texts []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

// Fetch downloads and flattens the caption track for videoURL. Timeouts and
// transport failures surface as ErrTranscriptUnavailable rather than leaving
// the item hanging in processing.
func (f *YouTubeTranscriptFetcher) Fetch(ctx context.Context, videoURL string) (string, error) {
	videoID, err := ParseVideoID(videoURL)
	if err != nil {
		return "", err
	}

	reqURL := fmt.Sprintf("%s?lang=%s&v=%s", f.baseURL, url.QueryEscape(f.lang), url.QueryEscape(videoID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrTranscriptUnavailable, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetch caption track: %v", core.ErrTranscriptUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: caption endpoint returned %d", core.ErrTranscriptUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read caption track: %v", core.ErrTranscriptUnavailable, err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", fmt.Errorf("%w: no caption track published for video %s", core.ErrTranscriptUnavailable, videoID)
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("%w: malformed caption track: %v", core.ErrTranscriptUnavailable, err)
	}

	var lines []string
	for _, t := range tt.Texts {
		// Caption cues may themselves carry markup; apply the same stripping
		// rules as uploaded caption files.
		if text := cleanCueText(html.UnescapeString(t.Value)); text != "" {
			lines = append(lines, text)
		}
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("%w: caption track for video %s is empty", core.ErrTranscriptUnavailable, videoID)
	}
	return strings.Join(lines, " "), nil
}

// ParseVideoID extracts the video identifier from watch, shorts, embed and
// youtu.be style URLs, or accepts a bare 11-character ID.
func ParseVideoID(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		// Possibly a bare video ID.
		if id := strings.TrimSpace(raw); len(id) == 11 && !strings.ContainsAny(id, "/?&= ") {
			return id, nil
		}
		return "", fmt.Errorf("%w: unrecognized video URL %q", core.ErrTranscriptUnavailable, raw)
	}

	host := strings.TrimPrefix(u.Host, "www.")
	switch host {
	case "youtu.be":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return id, nil
		}
	case "youtube.com", "m.youtube.com":
		if id := u.Query().Get("v"); id != "" {
			return id, nil
		}
		for _, prefix := range []string{"/embed/", "/shorts/", "/live/"} {
			if strings.HasPrefix(u.Path, prefix) {
				if id := strings.Trim(strings.TrimPrefix(u.Path, prefix), "/"); id != "" {
					return id, nil
				}
			}
		}
	}
	return "", fmt.Errorf("%w: unrecognized video URL %q", core.ErrTranscriptUnavailable, raw)
}
