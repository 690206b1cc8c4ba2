package pdfs

import (
	"context"
	"log"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	tableHeaderH = 8.0
	tableRowH    = 6.0
	phaseBarH    = 10.0
	partnerBoxH  = 12.0
	metricsBoxH  = 30.0
	contactBoxH  = 26.0
	imageMaxH    = 60.0
)

var pricePrinter = message.NewPrinter(language.English)

// RenderRecord draws the whole specification document of rec.
// Sections come in a fixed order; opts only switch optional ones off.
func (c *Composer) RenderRecord(ctx context.Context, rec ContentRecord, opts Options) {
	c.reset()
	c.s.SetInfo(rec.Name+" - Technical Specification", c.Brand.Name)
	c.newPage()

	c.mark(SectionTitle)
	c.title(rec.Name, 18)
	c.font("", 12, colorBlack)
	c.ensure(textLineH)
	c.s.Text(marginX, c.y, "Category: "+rec.Category)
	c.y += 7
	if rec.Price != nil {
		c.ensure(textLineH)
		c.s.Text(marginX, c.y, pricePrinter.Sprintf("Price: %.2f USD", *rec.Price))
		c.y += 7
	}
	if opts.IncludeImages && rec.ImageRef != "" && c.Images != nil {
		c.image(ctx, rec.ImageRef)
	}
	c.gap(5)

	c.mark(SectionOverview)
	c.subtitle("Project Overview")
	c.paragraph(rec.Description, 10, 0)
	c.gap(5)

	if opts.IncludeTechnicalSpecs && len(rec.Specifications) > 0 {
		c.specTable(rec.Specifications)
	}
	c.metrics()

	if opts.IncludeConstructionProcess {
		c.newPage()
		c.methodology()
	}
	if opts.IncludePartners {
		c.newPage()
		c.partners()
		c.technology()
	}
	c.newPage()
	c.contact()
}

// RenderCompanyProfile draws the short company profile document
func (c *Composer) RenderCompanyProfile() {
	c.reset()
	c.s.SetInfo("Company Profile", c.Brand.Name)
	c.newPage()
	c.mark(SectionProfile)
	c.title("Company Profile", 18)
	c.paragraph(companyProfileText, 10, 0)
}

func (c *Composer) image(ctx context.Context, ref string) {
	png, w, h, err := loadImagePNG(ctx, c.Images, ref)
	if err != nil {
		log.Printf("[WARN][PDF] image %q skipped: %v", ref, err)
		return
	}
	// fit into the printable width and imageMaxH, keeping the aspect ratio
	dh := imageMaxH
	dw := dh * float64(w) / float64(h)
	if dw > c.printableWidth() {
		dw = c.printableWidth()
		dh = dw * float64(h) / float64(w)
	}
	c.ensure(dh + 3)
	c.mark(SectionImage)
	if err = c.s.Image("record-image", png, marginX, c.y, dw, dh); err != nil {
		log.Printf("[WARN][PDF] image %q not placed: %v", ref, err)
		return
	}
	c.y += dh + 3
}

func (c *Composer) tableHeader() {
	c.s.SetFillColor(colorTableHead)
	c.s.Rect(marginX, c.y, c.printableWidth(), tableHeaderH, "F")
	c.font("B", 10, colorBlack)
	c.s.Text(marginX+5, c.y+5.5, "Parameter")
	c.s.Text(c.pageW/2+10, c.y+5.5, "Specification")
	c.y += tableHeaderH
	c.font("", 10, colorBlack)
}

// specTable draws the parameter/value rows with alternating shading.
// A table that fits on one page is kept together; a longer one repeats its header row after each break.
func (c *Composer) specTable(specs []Spec) {
	paramX, valueX := marginX+5, c.pageW/2+10
	paramW, valueW := valueX-paramX-3, c.pageW-marginX-valueX-3
	maxLines := int((c.capacity()-tableHeaderH-tableRowH)/textLineH) + 1

	c.font("", 10, colorBlack)
	type row struct {
		param, value []string
		h            float64
	}
	rows := make([]row, len(specs))
	total := subtitleLineH + tableHeaderH
	for i, sp := range specs {
		p := clampLines(c.wrap(sp.Parameter, paramW), maxLines)
		v := clampLines(c.wrap(sp.Value, valueW), maxLines)
		n := max(len(p), len(v))
		rows[i] = row{param: p, value: v, h: tableRowH + textLineH*float64(n-1)}
		total += rows[i].h
	}
	if total <= c.capacity() {
		c.ensure(total)
	} else {
		c.ensure(subtitleLineH + tableHeaderH + rows[0].h)
	}

	c.mark(SectionSpecifications)
	c.subtitle("Technical Specifications")
	c.tableHeader()
	for i, r := range rows {
		if c.y+r.h > c.bottom() {
			c.newPage()
			c.tableHeader()
		}
		if i%2 == 0 {
			c.s.SetFillColor(colorRowShade)
			c.s.Rect(marginX, c.y, c.printableWidth(), r.h, "F")
		}
		c.layout.Rows = append(c.layout.Rows, RowMark{Parameter: specs[i].Parameter, Page: c.page, Y: c.y})
		for j, line := range r.param {
			c.s.Text(paramX, c.y+4.2+textLineH*float64(j), line)
		}
		for j, line := range r.value {
			c.s.Text(valueX, c.y+4.2+textLineH*float64(j), line)
		}
		c.y += r.h
	}
	c.gap(5)
}

func clampLines(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	out := append([]string(nil), lines[:n]...)
	out[n-1] += "..."
	return out
}

func (c *Composer) metrics() {
	c.ensure(titleLineH + metricsBoxH + 8)
	c.mark(SectionMetrics)
	c.title("Proven Performance Metrics", 14)

	top := c.y - 3
	c.s.SetFillColor(colorMetricsBox)
	c.s.SetDrawColor(colorMetricsRim)
	c.s.SetLineWidth(0.3)
	c.s.Rect(marginX, top, c.printableWidth(), metricsBoxH, "FD")

	y := top + 5.5
	c.font("", 9, colorBlack)
	for _, m := range performanceMetrics {
		c.tick(marginX+5, y)
		c.s.Text(marginX+12, y, m)
		y += 4.5
	}
	c.y = top + metricsBoxH + 8
	c.s.SetLineWidth(0.2)
}

// tick draws a check mark with its baseline at y
func (c *Composer) tick(x, y float64) {
	c.s.SetDrawColor(colorTick)
	c.s.SetLineWidth(0.5)
	c.s.Line(x, y-1.3, x+1.1, y)
	c.s.Line(x+1.1, y, x+3, y-2.8)
	c.s.SetLineWidth(0.3)
}

func (c *Composer) methodology() {
	c.mark(SectionMethodology)
	c.title("Construction Methodology", 14)
	for _, ph := range constructionPhases {
		c.ensure(40)
		c.s.SetFillColor(colorBrand)
		c.s.Rect(marginX, c.y-3, c.printableWidth(), phaseBarH, "F")
		c.font("B", 12, colorWhite)
		c.s.Text(marginX+5, c.y+3.5, ph.Name)
		c.font("", 10, colorWhite)
		c.s.Text(c.pageW-80, c.y+3.5, "Duration: "+ph.Duration)
		c.y += phaseBarH + 2
		for _, a := range ph.Activities {
			c.bullet(a)
		}
		c.gap(5)
	}
}

func (c *Composer) partners() {
	c.mark(SectionPartners)
	c.title("European Technology Partners", 14)
	for _, p := range technologyPartners {
		c.ensure(partnerBoxH + 3)
		c.s.SetFillColor(colorPartnerBox)
		c.s.SetDrawColor(colorBrand)
		c.s.Rect(marginX, c.y-3, c.printableWidth(), partnerBoxH, "FD")
		c.font("B", 11, colorBrand)
		c.s.Text(marginX+5, c.y+2, p.Name+" ("+p.Country+")")
		c.font("", 9, colorMuted)
		c.s.Text(marginX+5, c.y+7, p.Specialty)
		c.y += partnerBoxH + 3
	}
	c.font("", 10, colorBlack)
	c.gap(5)
}

func (c *Composer) technology() {
	c.ensure(titleLineH + 3*textLineH)
	c.mark(SectionTechnology)
	c.title("HDPE Container Technology Innovation", 14)
	c.paragraph(hdpeIntro, 10, 0)
	for _, f := range hdpeFeatures {
		c.bullet(f)
	}
}

func (c *Composer) contact() {
	c.mark(SectionContact)
	c.title("Next Steps & Contact Information", 14)
	c.paragraph(contactIntro, 10, 0)
	c.gap(3)
	for _, s := range contactServices {
		c.bullet(s)
	}
	c.gap(5)

	c.ensure(contactBoxH + 3)
	top := c.y
	c.s.SetFillColor(colorBrand)
	c.s.Rect(marginX, top, c.printableWidth(), contactBoxH, "F")
	c.font("B", 12, colorWhite)
	c.s.Text(marginX+5, top+7, "Contact "+c.Brand.Name)
	c.font("", 10, colorWhite)
	c.s.Text(marginX+5, top+13, "Phone: "+c.Brand.Phone)
	c.s.Text(marginX+5, top+18, "Email: "+c.Brand.Email)
	c.s.Text(marginX+5, top+23, "Address: "+c.Brand.Address)

	if c.Brand.Website != "" {
		const side = 22.0
		png, err := qrCodePNG("https://"+c.Brand.Website, 256)
		if err == nil {
			c.s.SetFillColor(colorWhite)
			c.s.Rect(c.pageW-marginX-side-3, top+1.5, side+1, side+1, "F")
			err = c.s.Image("contact-qr", png, c.pageW-marginX-side-2.5, top+2, side, side)
		}
		if err != nil {
			log.Printf("[WARN][PDF] contact QR code skipped: %v", err)
		}
	}
	c.y = top + contactBoxH + 3
	c.font("", 10, colorBlack)
}
