package analyzer

// Result is the outcome of scoring a single piece of content
type Result struct {
	SEOScore int      `json:"seo"`
	GEOScore int      `json:"geo"`
	Notes    []string `json:"notes"`
}

// Report is a Result together with the human readable quality labels
type Report struct {
	Result
	SEOLabel string `json:"seoLabel"`
	GEOLabel string `json:"geoLabel"`
	Source   Source `json:"source"`
}

// Source describes what kind of input a report was produced from
type Source string

const (
	SourceText Source = "text"
	SourceHTML Source = "html"
	SourceURL  Source = "url"
)

// CacheStats provides statistics about the analyzer's result cache
type CacheStats struct {
	Entries int `json:"entries"`
	Size    int `json:"size"`
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
}
