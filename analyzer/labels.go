package analyzer

// SEOLabel returns the quality band for an SEO score
func SEOLabel(score int) string {
	switch {
	case score >= 80:
		return "Strong"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Needs focus"
	default:
		return "Weak"
	}
}

// GEOLabel returns the quality band for a GEO score
func GEOLabel(score int) string {
	switch {
	case score >= 80:
		return "AI-ready"
	case score >= 60:
		return "Promising"
	case score >= 40:
		return "Under-leveraged"
	default:
		return "Needs work"
	}
}

// NewReport attaches labels to a scoring result
func NewReport(result Result, source Source) Report {
	return Report{
		Result:   result,
		SEOLabel: SEOLabel(result.SEOScore),
		GEOLabel: GEOLabel(result.GEOScore),
		Source:   source,
	}
}
