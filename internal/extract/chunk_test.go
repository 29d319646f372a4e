package extract

import (
	"strings"
	"testing"
)

const greetingParagraphs = `Interviewer: Hi there! Good morning. How are you doing today?

Dana: I'm good, thanks, and you? Can you hear me?

Interviewer: Yes, loud and clear. Thanks for joining us today, we really appreciate it.

Dana: Sure. Great. Let me share my screen. Okay.

Interviewer: Perfect. Is it okay if I record this call for our notes?

Dana: Yeah. Sure. Sounds good.`

const intakeParagraph = `Dana: Our biggest problem is intake. We spend about 10 hours a week re-typing client details from the web form into our case management system, and the paralegals hate it. Last quarter we lost two clients because nobody called them back within a day.`

const approvalParagraph = `Dana: As managing partner I approve every software purchase over $500. Our office manager usually does the research and brings me two or three options, and I sign off after a demo. We have 14 attorneys and 9 paralegals across two offices.`

func TestChunk_ParagraphAware(t *testing.T) {
	text := intakeParagraph + "\n\n" + approvalParagraph
	chunks := Chunk(text, len(intakeParagraph)+10, 100)

	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d: %q", len(chunks), chunks)
	}
	if chunks[0] != intakeParagraph {
		t.Errorf("Expected first chunk to be the intake paragraph, got %q", chunks[0])
	}
}

func TestChunk_MergesSmallParagraphs(t *testing.T) {
	text := intakeParagraph + "\n\n" + approvalParagraph
	chunks := Chunk(text, 2000, 100)

	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0], "\n\n") {
		t.Error("Expected paragraphs joined by a blank line")
	}
}

func TestChunk_DropsBoilerplateAndShortChunks(t *testing.T) {
	text := greetingParagraphs + "\n\n\n" + intakeParagraph + "\n\n" + approvalParagraph + "\n\nPage 3"
	size := len(greetingParagraphs) + 1

	chunks := Chunk(text, size, 50)

	for _, c := range chunks {
		if strings.Contains(c, "Good morning") {
			t.Errorf("Expected greeting chunk to be dropped, got %q", c)
		}
		if c == "Page 3" {
			t.Error("Expected short chunk to be dropped")
		}
	}
	if len(chunks) == 0 {
		t.Fatal("Expected substantive chunks to survive")
	}
}

func TestChunk_SplitsOversizedParagraph(t *testing.T) {
	long := strings.Repeat("We re-key every client record by hand. ", 100)
	chunks := Chunk(long, 300, 10)

	if len(chunks) < 10 {
		t.Fatalf("Expected the paragraph to be split, got %d chunks", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 300 {
			t.Errorf("Chunk %d is %d chars, want <= 300", i, len(c))
		}
	}
}

func TestIsNoise(t *testing.T) {
	tests := []struct {
		name  string
		chunk string
		want  bool
	}{
		{"greetings", greetingParagraphs, true},
		{"timestamps", "00:01:02 00:01:09 00:01:15\n00:02:00 00:02:07", true},
		{"substance", intakeParagraph, false},
		{"greeting then substance", "Dana: Hi there! Good morning.\n\n" + intakeParagraph, false},
		{"empty", "   ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNoise(tt.chunk); got != tt.want {
				t.Errorf("IsNoise() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("It costs $4.50 per file. Really? Yes! We pay it")
	want := []string{"It costs $4.50 per file.", "Really?", "Yes!", "We pay it"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d sentences, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Sentence %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
