package extract

import (
	"regexp"
	"strings"
)

var (
	cueTimingPattern = regexp.MustCompile(`^\d{1,2}:\d{2}(?::\d{2})?[.,]\d{3}\s+-->\s+`)
	cueIndexPattern  = regexp.MustCompile(`^\d+$`)
	voiceTagPattern  = regexp.MustCompile(`^<v\s+([^>]+)>`)
	markupPattern    = regexp.MustCompile(`</?[^>]+>`)
)

// CaptionExtractor flattens WebVTT and SRT recordings into speaker-labelled
// paragraphs. Consecutive cues from the same speaker are merged.
type CaptionExtractor struct{}

// NewCaptionExtractor creates a caption extractor
func NewCaptionExtractor() *CaptionExtractor {
	return &CaptionExtractor{}
}

// Name returns "caption"
func (e *CaptionExtractor) Name() string {
	return "caption"
}

// CanHandle matches .vtt and .srt files
func (e *CaptionExtractor) CanHandle(name string, contentType string) bool {
	return strings.Contains(contentType, "text/vtt") || hasExt(name, ".vtt", ".srt")
}

// ExtractText drops headers, cue numbers and timings
func (e *CaptionExtractor) ExtractText(data []byte) (string, error) {
	text, err := NewPlainExtractor().ExtractText(data)
	if err != nil {
		return "", err
	}

	var paragraphs []string
	var speaker string
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		p := strings.Join(current, " ")
		if speaker != "" {
			p = speaker + ": " + p
		}
		paragraphs = append(paragraphs, p)
		current = nil
	}

	for _, line := range strings.Split(normalizeText(text), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "", strings.HasPrefix(line, "WEBVTT"), strings.HasPrefix(line, "NOTE"),
			cueIndexPattern.MatchString(line), cueTimingPattern.MatchString(line):
			continue
		}

		cueSpeaker := ""
		if m := voiceTagPattern.FindStringSubmatch(line); m != nil {
			cueSpeaker = strings.TrimSpace(m[1])
		} else if i := strings.Index(line, ": "); i > 0 && i < 40 && !strings.ContainsAny(line[:i], ".?!") {
			cueSpeaker = line[:i]
			line = line[i+2:]
		}
		line = strings.TrimSpace(markupPattern.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}

		if cueSpeaker != "" && cueSpeaker != speaker {
			flush()
			speaker = cueSpeaker
		}
		current = append(current, line)
	}
	flush()

	return strings.Join(paragraphs, "\n\n"), nil
}
