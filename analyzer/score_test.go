package analyzer

import (
	"reflect"
	"strings"
	"testing"
)

func TestScoreEmptyInput(t *testing.T) {
	inputs := []string{"", " ", "\n\t  \r\n", "\u00a0", "\uFEFF", "\u2028\u2029", "\u3000\v\f"}

	want := Result{SEOScore: 0, GEOScore: 0, Notes: []string{EmptyNote}}
	for _, input := range inputs {
		got := Score(input)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Score(%q) = %+v, want %+v", input, got, want)
		}
	}
}

func TestScoreNextLineIsContent(t *testing.T) {
	// U+0085 is not trimmed by JavaScript
	got := Score("\u0085")
	if got.SEOScore != minScore || got.GEOScore != minScore {
		t.Errorf("Expected floored scores, got %+v", got)
	}
	if len(got.Notes) != 3 {
		t.Errorf("Expected 3 notes, got %d", len(got.Notes))
	}
}

func TestScoreScenarios(t *testing.T) {
	threeHeadings := strings.Repeat("a", 3088) + strings.Repeat("\n# b", 3)

	tests := []struct {
		name  string
		input string
		seo   int
		geo   int
		notes []string
	}{
		{
			name:  "filler without structure",
			input: strings.Repeat("x", 2000),
			seo:   50,
			geo:   36,
			notes: []string{NoteAddHeadings, NoteAddQuestions, NoteContentLengthOK},
		},
		{
			name:  "three headings",
			input: threeHeadings,
			seo:   90, // round(3100/40 + 12)
			geo:   56,
			notes: []string{NoteHeadingsOK, NoteAddQuestions, NoteContentLengthOK},
		},
		{
			name:  "capped at 100",
			input: strings.Repeat("a", 4000) + strings.Repeat("\n# b?", 3),
			seo:   100,
			geo:   91, // round(4015/55 + 18)
			notes: []string{NoteHeadingsOK, NoteQuestionsOK, NoteContentLengthOK},
		},
		{
			name:  "short text floored",
			input: "Hello world",
			seo:   20,
			geo:   20,
			notes: []string{NoteAddHeadings, NoteAddQuestions, NoteShortContent},
		},
		{
			name:  "surrounding whitespace ignored",
			input: "   " + strings.Repeat("x", 2000) + "\n\n\t",
			seo:   50,
			geo:   36,
			notes: []string{NoteAddHeadings, NoteAddQuestions, NoteContentLengthOK},
		},
		{
			name:  "questions lift geo",
			input: strings.Repeat("a", 1100) + strings.Repeat("?", 10),
			seo:   28, // round(1110/40)
			geo:   80, // round(1110/55 + 60)
			notes: []string{NoteAddHeadings, NoteQuestionsOK, NoteContentLengthOK},
		},
		{
			name:  "halves round up",
			input: strings.Repeat("a", 2020),
			seo:   51, // 50.5
			geo:   37,
			notes: []string{NoteAddHeadings, NoteAddQuestions, NoteContentLengthOK},
		},
		{
			name:  "799 is still short",
			input: strings.Repeat("a", 799),
			seo:   20,
			geo:   20,
			notes: []string{NoteAddHeadings, NoteAddQuestions, NoteShortContent},
		},
		{
			name:  "800 is solid",
			input: strings.Repeat("a", 800),
			seo:   20,
			geo:   20,
			notes: []string{NoteAddHeadings, NoteAddQuestions, NoteContentLengthOK},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.input)
			if got.SEOScore != tt.seo {
				t.Errorf("SEOScore = %d, want %d", got.SEOScore, tt.seo)
			}
			if got.GEOScore != tt.geo {
				t.Errorf("GEOScore = %d, want %d", got.GEOScore, tt.geo)
			}
			if !reflect.DeepEqual(got.Notes, tt.notes) {
				t.Errorf("Notes = %v, want %v", got.Notes, tt.notes)
			}
		})
	}
}

func TestHeadingDetection(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"leading heading is not newline prefixed", "# Title\nbody", 0},
		{"single", "intro\n# Title", 1},
		{"multiple hashes", "intro\n### Deep", 1},
		{"tab separator", "intro\n##\tTabbed", 1},
		{"no-break space separator", "intro\n#\u00a0Title", 1},
		{"missing separator", "intro\n#Title", 0},
		{"hash in the middle of a line", "intro # not a heading", 0},
		{"carriage return line ending", "intro\r\n# Title", 1},
		{"consumed newline is not reused", "intro\n#\n# Title", 1},
		{"blank heading line", "intro\n# \n# b", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(headingPattern.FindAllStringIndex(tt.input, -1)); got != tt.want {
				t.Errorf("heading count for %q = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestScoreHeadingThreshold(t *testing.T) {
	one := Score("intro\n# A")
	if one.Notes[0] != NoteAddHeadings {
		t.Errorf("one heading: got %q", one.Notes[0])
	}

	two := Score("intro\n# A\n# B")
	if two.Notes[0] != NoteHeadingsOK {
		t.Errorf("two headings: got %q", two.Notes[0])
	}
}

func TestScoreQuestionThreshold(t *testing.T) {
	if got := Score("Why?").Notes[1]; got != NoteAddQuestions {
		t.Errorf("one question: got %q", got)
	}
	if got := Score("Why? How?").Notes[1]; got != NoteQuestionsOK {
		t.Errorf("two questions: got %q", got)
	}
}

func TestScoreBounds(t *testing.T) {
	inputs := []string{
		"a",
		strings.Repeat("?", 5000),
		strings.Repeat("\n# h", 2000),
		strings.Repeat("word ", 100000),
		"日本語のテキスト？",
		strings.Repeat("😀", 3000),
	}

	for _, input := range inputs {
		got := Score(input)
		if got.SEOScore < minScore || got.SEOScore > maxScore {
			t.Errorf("SEOScore %d out of bounds for input of length %d", got.SEOScore, len(input))
		}
		if got.GEOScore < minScore || got.GEOScore > maxScore {
			t.Errorf("GEOScore %d out of bounds for input of length %d", got.GEOScore, len(input))
		}
		if len(got.Notes) != 3 {
			t.Errorf("Expected 3 notes, got %d", len(got.Notes))
		}
	}
}

func TestScoreMonotonicity(t *testing.T) {
	base := strings.Repeat("a", 1200)

	prevSEO := 0
	for headings := 0; headings <= 30; headings++ {
		// Keep the length fixed while trading filler for headings
		text := base[:len(base)-headings*4] + strings.Repeat("\n# h", headings)
		seo := Score(text).SEOScore
		if seo < prevSEO {
			t.Fatalf("SEOScore decreased from %d to %d at %d headings", prevSEO, seo, headings)
		}
		prevSEO = seo
	}

	prevGEO := 0
	for questions := 0; questions <= 30; questions++ {
		text := base[:len(base)-questions] + strings.Repeat("?", questions)
		geo := Score(text).GEOScore
		if geo < prevGEO {
			t.Fatalf("GEOScore decreased from %d to %d at %d questions", prevGEO, geo, questions)
		}
		prevGEO = geo
	}
}

func TestScoreReturnsFreshNotes(t *testing.T) {
	first := Score("")
	first.Notes[0] = "mutated"

	if got := Score("").Notes[0]; got != EmptyNote {
		t.Errorf("sentinel note was shared between calls: %q", got)
	}
}

func TestTextLengthCountsUTF16Units(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"abc", 3},
		{"\u00e9", 1},
		{"日本", 2},
		{"😀", 2},
		{"a😀b", 4},
	}
	for _, tt := range tests {
		if got := textLength(tt.input); got != tt.want {
			t.Errorf("textLength(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{0.49, 0},
		{0.5, 1},
		{2.5, 3},
		{50.5, 51},
		{89.5, 90},
	}
	for _, tt := range tests {
		if got := round(tt.in); got != tt.want {
			t.Errorf("round(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestIsBlank(t *testing.T) {
	if !IsBlank(" \n\uFEFF") {
		t.Error("Expected whitespace and BOM to be blank")
	}
	if IsBlank(" x ") {
		t.Error("Expected text to be non blank")
	}
}
