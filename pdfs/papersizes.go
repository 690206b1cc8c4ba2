package pdfs

type PaperSize struct {
	Name   string
	Width  float64 // in `pt` (1" = 72pts)
	Height float64 // in `pt`
}

var (
	LetterSize = PaperSize{Name: "Letter", Width: 612, Height: 792}         // 8.5" x 11"
	A4Size     = PaperSize{Name: "A4", Width: 595.27559, Height: 841.88976} // 210mm x 297mm
)

const mmPerPt = 25.4 / 72

// SizeMM returns width and height in millimeters, the unit every composer works in
func (p PaperSize) SizeMM() (float64, float64) {
	return round2(p.Width * mmPerPt), round2(p.Height * mmPerPt)
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
