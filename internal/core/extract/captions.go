package extract

import (
	"regexp"
	"strings"
)

var (
	tagRe        = regexp.MustCompile(`<[^>]*>|\{[^}]*\}`)
	timestampRe  = regexp.MustCompile(`-->`)
	seqNumberRe  = regexp.MustCompile(`^\d+$`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// StripSRT reduces an SRT caption file to its spoken lines in original order,
// joined by single spaces. Sequence numbers, timestamp lines and markup tags
// are dropped.
func StripSRT(s string) string {
	var lines []string
	for _, line := range splitLines(s) {
		line = strings.TrimSpace(line)
		if line == "" || seqNumberRe.MatchString(line) || timestampRe.MatchString(line) {
			continue
		}
		if text := cleanCueText(line); text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, " ")
}

// StripVTT reduces a WebVTT caption file to its spoken lines. On top of the
// SRT rules it drops the WEBVTT header, NOTE/STYLE/REGION blocks and cue
// identifiers (the line immediately preceding a timestamp line).
func StripVTT(s string) string {
	raw := splitLines(s)
	var (
		lines    []string
		skipping bool
	)
	for i, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" {
			skipping = false
			continue
		}
		if skipping {
			continue
		}
		if strings.HasPrefix(line, "WEBVTT") {
			continue
		}
		if strings.HasPrefix(line, "NOTE") || strings.HasPrefix(line, "STYLE") || strings.HasPrefix(line, "REGION") {
			// Block continues until the next blank line.
			skipping = true
			continue
		}
		if seqNumberRe.MatchString(line) || timestampRe.MatchString(line) {
			continue
		}
		if i+1 < len(raw) && timestampRe.MatchString(raw[i+1]) {
			// Cue identifier, not spoken text.
			continue
		}
		if text := cleanCueText(line); text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, " ")
}

// cleanCueText removes markup tags and collapses runs of whitespace.
func cleanCueText(line string) string {
	text := tagRe.ReplaceAllString(line, "")
	text = multiSpaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func splitLines(s string) []string {
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}
