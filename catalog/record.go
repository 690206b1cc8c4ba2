package catalog

import (
	"strings"

	"github.com/ecogroup/ecgsite/pdfs"
	"golang.org/x/net/html"
)

// RecordFromProduct maps a product to the document composer input
func RecordFromProduct(p *Product) pdfs.ContentRecord {
	rec := pdfs.ContentRecord{
		ID:             p.ID,
		Name:           p.Name,
		Category:       p.Category,
		Description:    PlainText(p.Description),
		Price:          p.Price.Ptr(),
		Specifications: append(pdfs.Specs(nil), p.Specifications...),
		ImageRef:       p.ImageURL.ForceValue(),
	}
	return rec
}

// PlainText drops markup from rich-text descriptions.
// Block-level elements become paragraph breaks; whitespace runs collapse.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return tidy(b.String())
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				skip++
			case "br", "p", "div", "li", "ul", "ol", "h1", "h2", "h3", "h4", "tr":
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				if skip > 0 {
					skip--
				}
			case "p", "div", "li", "h1", "h2", "h3", "h4", "tr":
				b.WriteByte('\n')
			}
		}
	}
}

func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, ln := range lines {
		ln = strings.Join(strings.Fields(ln), " ")
		if ln != "" {
			out = append(out, ln)
		}
	}
	return strings.Join(out, "\n")
}
