package analyzer

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// blockSelector lists the elements rendered as their own line of text
const blockSelector = "h1, h2, h3, h4, h5, h6, p, li, blockquote, pre, dt, dd, td"

// TextFromHTML flattens an HTML document into markdown-like text.
// Headings become "#" prefixed lines so the scorer can count them.
func TextFromHTML(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	body.Find("script, style, noscript, template").Remove()

	var b strings.Builder
	body.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		// Nested blocks are emitted by their innermost element only
		if s.Find(blockSelector).Length() > 0 {
			return
		}

		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			return
		}

		if level := headingLevel(goquery.NodeName(s)); level > 0 {
			b.WriteString("\n")
			b.WriteString(strings.Repeat("#", level))
			b.WriteString(" ")
		}
		b.WriteString(text)
		b.WriteString("\n")
	})

	// Documents without block markup still carry text worth scoring
	if b.Len() == 0 {
		return strings.Join(strings.Fields(body.Text()), " "), nil
	}

	return b.String(), nil
}

func headingLevel(name string) int {
	if len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6' {
		return int(name[1] - '0')
	}
	return 0
}
