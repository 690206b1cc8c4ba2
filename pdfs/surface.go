package pdfs

import (
	"bytes"
	"io"

	"github.com/jung-kurt/gofpdf"
)

type RGB struct {
	R, G, B int
}

// Surface is the page-drawing primitive a Composer draws onto.
// Units are millimeters from the top-left corner of the current page.
type Surface interface {
	AddPage()
	SetInfo(title, author string)
	SetFont(style string, size float64) // style: "" or "B"
	SetFillColor(c RGB)
	SetDrawColor(c RGB)
	SetTextColor(c RGB)
	SetLineWidth(w float64)
	Rect(x, y, w, h float64, style string) // style: "F", "D" or "FD"
	Line(x1, y1, x2, y2 float64)
	Text(x, y float64, s string)
	StringWidth(s string) float64
	Image(name string, png []byte, x, y, w, h float64) error
	Err() error
	Output(w io.Writer) error
}

const fontFamily = "Helvetica"

// FpdfSurface draws with the gofpdf core fonts.
// UTF-8 text is translated into cp1252, which covers the glyphs the documents use (•, ³, Ö).
type FpdfSurface struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func NewFpdfSurface(paper PaperSize) *FpdfSurface {
	w, h := paper.SizeMM()
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont(fontFamily, "", 10)
	return &FpdfSurface{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (s *FpdfSurface) AddPage() { s.pdf.AddPage() }

func (s *FpdfSurface) SetInfo(title, author string) {
	s.pdf.SetTitle(title, true)
	s.pdf.SetAuthor(author, true)
	s.pdf.SetCreator(author, true)
}

func (s *FpdfSurface) SetFont(style string, size float64) {
	s.pdf.SetFont(fontFamily, style, size)
}

func (s *FpdfSurface) SetFillColor(c RGB) { s.pdf.SetFillColor(c.R, c.G, c.B) }
func (s *FpdfSurface) SetDrawColor(c RGB) { s.pdf.SetDrawColor(c.R, c.G, c.B) }
func (s *FpdfSurface) SetTextColor(c RGB) { s.pdf.SetTextColor(c.R, c.G, c.B) }
func (s *FpdfSurface) SetLineWidth(w float64) { s.pdf.SetLineWidth(w) }

func (s *FpdfSurface) Rect(x, y, w, h float64, style string) { s.pdf.Rect(x, y, w, h, style) }
func (s *FpdfSurface) Line(x1, y1, x2, y2 float64) { s.pdf.Line(x1, y1, x2, y2) }
func (s *FpdfSurface) Text(x, y float64, str string) { s.pdf.Text(x, y, s.tr(str)) }

func (s *FpdfSurface) StringWidth(str string) float64 {
	return s.pdf.GetStringWidth(s.tr(str))
}

// Image places PNG bytes at x,y. A zero w or h keeps the aspect ratio.
func (s *FpdfSurface) Image(name string, png []byte, x, y, w, h float64) error {
	opt := gofpdf.ImageOptions{ImageType: "PNG"}
	s.pdf.RegisterImageOptionsReader(name, opt, bytes.NewReader(png))
	if s.pdf.Err() {
		return s.pdf.Error()
	}
	s.pdf.ImageOptions(name, x, y, w, h, false, opt, 0, "")
	return s.pdf.Error()
}

func (s *FpdfSurface) Err() error { return s.pdf.Error() }

func (s *FpdfSurface) Output(w io.Writer) error {
	return s.pdf.Output(w)
}
