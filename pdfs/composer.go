package pdfs

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Page geometry in mm
const (
	marginX       = 20.0
	headerHeight  = 40.0
	contentTop    = 50.0 // cursor position right below the header banner
	bottomMargin  = 40.0
	footerOffset  = 20.0
	textLineH     = 5.0
	bulletLineH   = 5.0
	titleLineH    = 10.0
	subtitleLineH = 8.0
)

// Section names recorded in a Layout
const (
	SectionTitle          = "title"
	SectionImage          = "image"
	SectionOverview       = "overview"
	SectionSpecifications = "specifications"
	SectionMetrics        = "metrics"
	SectionMethodology    = "methodology"
	SectionPartners       = "partners"
	SectionTechnology     = "technology"
	SectionContact        = "contact"
	SectionProfile        = "profile"
)

type SectionMark struct {
	Name string  `json:"name"`
	Page int     `json:"page"`
	Y    float64 `json:"y"`
}

type RowMark struct {
	Parameter string  `json:"parameter"`
	Page      int     `json:"page"`
	Y         float64 `json:"y"`
}

// Layout is the trace of one render
type Layout struct {
	Pages    int           `json:"pages"`
	Sections []SectionMark `json:"sections"`
	Rows     []RowMark     `json:"rows"`
}

func (l Layout) SectionNames() []string {
	names := make([]string, len(l.Sections))
	for i, s := range l.Sections {
		names[i] = s.Name
	}
	return names
}

// Section finds the first mark with the given name
func (l Layout) Section(name string) (SectionMark, bool) {
	for _, s := range l.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return SectionMark{}, false
}

// Composer holds the state of one document render: the cursor and the page index.
// A Composer is used for a single document and is not safe for concurrent use.
type Composer struct {
	Brand  Brand
	Images ImageResolver

	s      Surface
	pageW  float64
	pageH  float64
	page   int
	y      float64
	layout Layout
}

func NewComposer(s Surface, paper PaperSize) *Composer {
	w, h := paper.SizeMM()
	return &Composer{
		Brand: DefaultBrand,
		s:     s,
		pageW: w,
		pageH: h,
	}
}

func (c *Composer) Layout() Layout {
	return c.layout
}

// Cursor returns the current page index (1-based) and vertical position
func (c *Composer) Cursor() (int, float64) {
	return c.page, c.y
}

func (c *Composer) bottom() float64 {
	return c.pageH - bottomMargin
}

func (c *Composer) capacity() float64 {
	return c.bottom() - contentTop
}

func (c *Composer) printableWidth() float64 {
	return c.pageW - 2*marginX
}

func (c *Composer) reset() {
	c.page = 0
	c.y = contentTop
	c.layout = Layout{}
}

// newPage starts a page with its header banner and footer and puts the cursor under the banner
func (c *Composer) newPage() {
	c.s.AddPage()
	c.page++
	c.layout.Pages = c.page
	c.drawHeader()
	c.drawFooter()
	c.y = contentTop
}

// ensure breaks the page when h more millimeters would cross the bottom limit
func (c *Composer) ensure(h float64) {
	if c.page == 0 || c.y+h > c.bottom() {
		c.newPage()
	}
}

// gap advances the cursor by padding, clamped to the bottom limit
func (c *Composer) gap(d float64) {
	c.y += d
	if c.y > c.bottom() {
		c.y = c.bottom()
	}
}

func (c *Composer) mark(name string) {
	c.layout.Sections = append(c.layout.Sections, SectionMark{Name: name, Page: c.page, Y: c.y})
}

func (c *Composer) font(style string, size float64, color RGB) {
	c.s.SetFont(style, size)
	c.s.SetTextColor(color)
}

func (c *Composer) drawHeader() {
	c.s.SetFillColor(colorBrand)
	c.s.Rect(0, 0, c.pageW, headerHeight, "F")
	c.font("B", 24, colorWhite)
	c.s.Text(marginX, 18, c.Brand.Name)
	c.font("", 12, colorWhite)
	c.s.Text(marginX, 28, c.Brand.Tagline)
	c.font("", 10, colorWhite)
	c.s.Text(marginX, 36, fmt.Sprintf("Phone: %s  |  Email: %s", c.Brand.Phone, c.Brand.Email))
	c.font("", 10, colorBlack)
}

func (c *Composer) drawFooter() {
	y := c.pageH - footerOffset
	c.font("", 8, colorFooter)
	c.s.Text(marginX, y, c.Brand.Name+" - "+c.Brand.Address)
	c.s.Text(c.pageW-60, y, c.Brand.Website)
	c.font("", 10, colorBlack)
}

// title draws a bold heading in the brand color, one line per 10mm
func (c *Composer) title(text string, size float64) {
	c.ensure(15)
	c.font("B", size, colorBrand)
	for _, line := range c.wrap(text, c.printableWidth()) {
		c.ensure(titleLineH)
		c.s.Text(marginX, c.y, line)
		c.y += titleLineH
	}
	c.font("", 10, colorBlack)
}

func (c *Composer) subtitle(text string) {
	c.ensure(subtitleLineH + textLineH)
	c.font("B", 12, colorBlack)
	c.s.Text(marginX, c.y, text)
	c.y += subtitleLineH
	c.font("", 10, colorBlack)
}

// paragraph wraps text to the printable width and paginates it line by line
func (c *Composer) paragraph(text string, size float64, indent float64) {
	c.font("", size, colorBlack)
	for _, line := range c.wrap(text, c.printableWidth()-indent) {
		c.ensure(textLineH)
		c.s.Text(marginX+indent, c.y, line)
		c.y += textLineH
	}
	c.gap(3)
}

func (c *Composer) bullet(text string) {
	c.font("", 10, colorBlack)
	lines := c.wrap(text, c.pageW-50)
	for i, line := range lines {
		c.ensure(bulletLineH)
		if i == 0 {
			c.s.Text(marginX+5, c.y, "•")
		}
		c.s.Text(marginX+10, c.y, line)
		c.y += bulletLineH
	}
	c.gap(2)
}

// wrap splits text into lines no wider than width in the current font.
// Explicit newlines are kept; words wider than a line are split between runes.
func (c *Composer) wrap(text string, width float64) []string {
	var out []string
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := ""
		for _, w := range words {
			for c.s.StringWidth(w) > width {
				cut := c.fitPrefix(w, width)
				if line != "" {
					out = append(out, line)
					line = ""
				}
				out = append(out, w[:cut])
				w = w[cut:]
			}
			if w == "" {
				continue
			}
			if line == "" {
				line = w
				continue
			}
			if candidate := line + " " + w; c.s.StringWidth(candidate) <= width {
				line = candidate
			} else {
				out = append(out, line)
				line = w
			}
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// fitPrefix returns the byte length of the longest rune prefix of w that fits width, at least one rune
func (c *Composer) fitPrefix(w string, width float64) int {
	_, first := utf8.DecodeRuneInString(w)
	cut := first
	for i := first; i < len(w); {
		_, size := utf8.DecodeRuneInString(w[i:])
		if c.s.StringWidth(w[:i+size]) > width {
			break
		}
		i += size
		cut = i
	}
	return cut
}

// bytes renders the finished document
func (c *Composer) bytes() ([]byte, error) {
	if err := c.s.Err(); err != nil {
		return nil, fmt.Errorf("drawing document: %w", err)
	}
	var buf bytes.Buffer
	if err := c.s.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing document: %w", err)
	}
	return buf.Bytes(), nil
}
