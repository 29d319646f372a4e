package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// boilerplatePattern matches conversational filler that carries no evidence
var boilerplatePattern = regexp.MustCompile(`(?i)^(?:[\w .'-]{1,40}:\s*)?(?:` +
	`h(?:i|ello|ey)(?: there| everyone| all)?|good (?:morning|afternoon|evening)|` +
	`thanks?(?: you)?(?: so much| for (?:having|joining|your time|coming)[^.!?]*)?|` +
	`nice to (?:meet|see) you(?: too)?|how are you(?: doing)?(?: today)?|` +
	`(?:i'?m |doing )?(?:good|great|fine|well)(?:,? thanks?(?: you)?)?(?:,? (?:and )?you)?|` +
	`can you (?:hear|see) me|(?:yes|yeah|yep),? (?:i can hear you|loud and clear)|` +
	`let me (?:share my screen|start (?:the )?recording)|is it ok(?:ay)? if (?:i|we) record[^.!?]*|` +
	`(?:ok(?:ay)?|alright|sure|great|perfect|awesome|cool|right|yeah|yes|mm-?hmm|uh-?huh|sounds good)|` +
	`bye|goodbye|talk (?:to you )?soon|have a (?:good|great) (?:one|day|weekend)|see you` +
	`)[\s,.!?]*$`)

// Chunk splits text into paragraph-aligned chunks of roughly size
// characters. Chunks shorter than minLen or made of structural noise or
// pleasantries are discarded.
func Chunk(text string, size, minLen int) []string {
	if size <= 0 {
		size = 2000
	}

	paragraphs := splitParagraphs(normalizeText(text), size)
	chunks := make([]string, 0)
	current := make([]string, 0)
	currentLen := 0

	emit := func() {
		if len(current) == 0 {
			return
		}
		c := strings.Join(current, "\n\n")
		if len(c) >= minLen && !IsNoise(c) {
			chunks = append(chunks, c)
		}
		current = current[:0]
		currentLen = 0
	}

	for _, p := range paragraphs {
		if currentLen+len(p) > size && len(current) > 0 {
			emit()
		}
		current = append(current, p)
		currentLen += len(p)
	}
	emit()

	return chunks
}

// splitParagraphs splits on blank lines. Paragraphs longer than size are
// split at line breaks, then at sentence ends.
func splitParagraphs(text string, size int) []string {
	var out []string
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if len(block) <= size {
			out = append(out, block)
			continue
		}
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if len(line) <= size {
				out = append(out, line)
				continue
			}
			out = append(out, packSentences(splitSentences(line), size)...)
		}
	}
	return out
}

// packSentences greedily joins sentences into pieces of at most size
func packSentences(sentences []string, size int) []string {
	var out []string
	var b strings.Builder
	for _, s := range sentences {
		if b.Len() > 0 && b.Len()+1+len(s) > size {
			out = append(out, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(s)
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

// splitSentences splits text into sentences (simple heuristic)
func splitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			// Look ahead to avoid splitting on abbreviations and decimals
			if i+1 < len(text) && (text[i+1] == ' ' || text[i+1] == '\t') {
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// IsNoise reports chunks that are mostly non-letters (timestamps, page
// furniture, tables of numbers) or consist only of pleasantries
func IsNoise(chunk string) bool {
	letters, visible := 0, 0
	for _, r := range chunk {
		if unicode.IsSpace(r) {
			continue
		}
		visible++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if visible == 0 || float64(letters)/float64(visible) < 0.5 {
		return true
	}

	substantive := 0
	for _, line := range strings.Split(chunk, "\n") {
		for _, s := range splitSentences(line) {
			if !boilerplatePattern.MatchString(strings.TrimSpace(s)) {
				substantive += len(s)
			}
		}
	}
	return substantive < len(chunk)/5
}
