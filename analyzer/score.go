package analyzer

import (
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf16"
)

const (
	EmptyNote = "Paste some content first to run an analysis."

	NoteAddHeadings     = "Add clearer section headings so search and AI can parse structure."
	NoteHeadingsOK      = "Heading structure looks reasonable – review H1 / H2 labels."
	NoteAddQuestions    = "Try adding a short Q&A or FAQ style section for GEO."
	NoteQuestionsOK     = "Nice use of questions – good for featured snippets and AI prompts."
	NoteShortContent    = "Content is on the shorter side – consider expanding key sections."
	NoteContentLengthOK = "Length is solid for deeper SEO and GEO coverage."
)

const (
	minScore = 20
	maxScore = 100

	seoCharsPerPoint = 40
	geoCharsPerPoint = 55
	headingWeight    = 4
	questionWeight   = 6

	minHeadings  = 2
	minQuestions = 2
	solidLength  = 800
)

// headingPattern matches a line break followed by one or more '#' and a
// whitespace character. The class mirrors the JavaScript \s set, Go's \s is ASCII only.
var headingPattern = regexp.MustCompile(`\n#+[\t\n\v\f\r \p{Zs}\x{2028}\x{2029}\x{FEFF}]`)

// Score maps content to bounded SEO and GEO scores plus three notes.
// Empty or whitespace-only content yields a zero result with a single note.
func Score(text string) Result {
	clean := strings.TrimFunc(text, isSpace)
	if clean == "" {
		return Result{
			SEOScore: 0,
			GEOScore: 0,
			Notes:    []string{EmptyNote},
		}
	}

	length := textLength(clean)
	headings := len(headingPattern.FindAllStringIndex(clean, -1))
	questions := strings.Count(clean, "?")

	seo := clamp(round(float64(length)/seoCharsPerPoint + float64(headings*headingWeight)))
	geo := clamp(round(float64(length)/geoCharsPerPoint + float64(questions*questionWeight)))

	notes := make([]string, 0, 3)

	if headings < minHeadings {
		notes = append(notes, NoteAddHeadings)
	} else {
		notes = append(notes, NoteHeadingsOK)
	}

	if questions < minQuestions {
		notes = append(notes, NoteAddQuestions)
	} else {
		notes = append(notes, NoteQuestionsOK)
	}

	if length < solidLength {
		notes = append(notes, NoteShortContent)
	} else {
		notes = append(notes, NoteContentLengthOK)
	}

	return Result{
		SEOScore: seo,
		GEOScore: geo,
		Notes:    notes,
	}
}

// IsBlank reports whether text has nothing left to score after trimming
func IsBlank(text string) bool {
	return strings.TrimFunc(text, isSpace) == ""
}

// round rounds halves up, matching Math.round for the non-negative values used here
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}

// clamp caps at maxScore first and then floors at minScore
func clamp(v int) int {
	if v > maxScore {
		v = maxScore
	}
	if v < minScore {
		v = minScore
	}
	return v
}

// textLength counts UTF-16 code units so scores stay identical to the browser prototype
func textLength(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// isSpace reports whether r is trimmed by JavaScript's String.prototype.trim.
// U+0085 is a space for unicode.IsSpace but not for JavaScript.
func isSpace(r rune) bool {
	if r == '\u0085' {
		return false
	}
	return r == '\uFEFF' || unicode.IsSpace(r)
}
