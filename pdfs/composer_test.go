package pdfs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type drawnText struct {
	page int
	x, y float64
	s    string
}

// recordingSurface records the pages and texts drawn through a real surface
type recordingSurface struct {
	Surface
	page  int
	texts []drawnText
}

func (r *recordingSurface) AddPage() {
	r.page++
	r.Surface.AddPage()
}

func (r *recordingSurface) Text(x, y float64, s string) {
	r.texts = append(r.texts, drawnText{page: r.page, x: x, y: y, s: s})
	r.Surface.Text(x, y, s)
}

func (r *recordingSurface) find(s string) []drawnText {
	var out []drawnText
	for _, t := range r.texts {
		if t.s == s {
			out = append(out, t)
		}
	}
	return out
}

func recordingGenerator() (Generator, **recordingSurface) {
	var last *recordingSurface
	g := Generator{NewSurface: func(p PaperSize) Surface {
		last = &recordingSurface{Surface: NewFpdfSurface(p)}
		return last
	}}
	return g, &last
}

func words(n int) string {
	base := strings.Fields("treated water flows to the tank")
	out := make([]string, n)
	for i := range out {
		out[i] = base[i%len(base)]
	}
	return strings.Join(out, " ")
}

func bioSteps() ContentRecord {
	return ContentRecord{
		ID:          "bs-200",
		Name:        "BioSteps BS-200",
		Category:    "BioSteps BS Systems",
		Description: words(500),
		Specifications: []Spec{
			{Parameter: "Capacity", Value: "200 m³/day"},
			{Parameter: "Efficiency", Value: "98%"},
		},
	}
}

func TestComposeBioStepsEndToEnd(t *testing.T) {
	g, rs := recordingGenerator()
	saver := &BufferSaver{}

	layout, err := g.ComposeRecordDocument(context.Background(), bioSteps(), DefaultOptions(), saver)
	require.NoError(t, err)

	assert.Equal(t, "ECG_BioSteps_BS-200_Specification.pdf", saver.Filename)
	assert.Equal(t, 1, saver.Saves)
	assert.True(t, bytes.HasPrefix(saver.Data, []byte("%PDF-")))
	assert.GreaterOrEqual(t, layout.Pages, 4)
	assert.Equal(t, layout.Pages, (*rs).page)

	assert.Equal(t, []string{
		SectionTitle, SectionOverview, SectionSpecifications, SectionMetrics,
		SectionMethodology, SectionPartners, SectionTechnology, SectionContact,
	}, layout.SectionNames())

	require.Len(t, layout.Rows, 2)
	for _, row := range layout.Rows {
		assert.Equal(t, 1, row.Page, row.Parameter)
	}
	for _, name := range []string{SectionMethodology, SectionPartners, SectionContact} {
		m, ok := layout.Section(name)
		require.True(t, ok)
		assert.Equal(t, contentTop, m.Y, name)
	}
	meth, _ := layout.Section(SectionMethodology)
	part, _ := layout.Section(SectionPartners)
	cont, _ := layout.Section(SectionContact)
	assert.Less(t, meth.Page, part.Page)
	assert.Less(t, part.Page, cont.Page)

	assert.Len(t, (*rs).find("200 m³/day"), 1)
	assert.Len(t, (*rs).find("BÖRGER (Germany)"), 1)
}

func TestHeaderAndFooterOnEveryPage(t *testing.T) {
	g, rs := recordingGenerator()
	layout, err := g.ComposeRecordDocument(context.Background(), bioSteps(), DefaultOptions(), &BufferSaver{})
	require.NoError(t, err)

	banners := (*rs).find(DefaultBrand.Name)
	footers := (*rs).find(DefaultBrand.Website)
	require.Len(t, banners, layout.Pages)
	require.Len(t, footers, layout.Pages)
	for i := range banners {
		assert.Equal(t, i+1, banners[i].page)
		assert.Equal(t, i+1, footers[i].page)
	}
}

func TestSpecTableRowsPaginate(t *testing.T) {
	const k = 60
	rec := ContentRecord{Name: "Pumping Station PS-9", Category: "Pumping Stations", Description: "Station."}
	for i := 0; i < k; i++ {
		rec.Specifications = append(rec.Specifications, Spec{
			Parameter: fmt.Sprintf("Parameter %02d", i),
			Value:     fmt.Sprintf("Value %02d", i),
		})
	}

	g, rs := recordingGenerator()
	layout, err := g.ComposeRecordDocument(context.Background(), rec, DefaultOptions(), &BufferSaver{})
	require.NoError(t, err)

	require.Len(t, layout.Rows, k)
	bottom := A4Size.Height*mmPerPt - bottomMargin
	pages := map[int]bool{}
	for i, row := range layout.Rows {
		assert.Equal(t, rec.Specifications[i].Parameter, row.Parameter)
		assert.LessOrEqual(t, row.Y+tableRowH, bottom+0.01)
		pages[row.Page] = true
		if i > 0 && layout.Rows[i-1].Page == row.Page {
			assert.Greater(t, row.Y, layout.Rows[i-1].Y)
		}
		assert.Len(t, (*rs).find(row.Parameter), 1)
	}
	assert.Greater(t, len(pages), 1, "a 60 row table spans pages")

	// the header row is repeated on every page the table touches
	assert.Len(t, (*rs).find("Specification"), len(pages))
}

func TestEmptySpecTableOmitsSection(t *testing.T) {
	rec := bioSteps()
	rec.Specifications = nil

	g, rs := recordingGenerator()
	layout, err := g.ComposeRecordDocument(context.Background(), rec, DefaultOptions(), &BufferSaver{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		SectionTitle, SectionOverview, SectionMetrics,
		SectionMethodology, SectionPartners, SectionTechnology, SectionContact,
	}, layout.SectionNames())
	assert.Empty(t, layout.Rows)
	assert.Empty(t, (*rs).find("Technical Specifications"))
}

func TestMissingCategoryRendersEmptyLine(t *testing.T) {
	rec := bioSteps()
	rec.Category = ""

	g, rs := recordingGenerator()
	_, err := g.ComposeRecordDocument(context.Background(), rec, DefaultOptions(), &BufferSaver{})
	require.NoError(t, err)
	assert.Len(t, (*rs).find("Category: "), 1)
}

func TestLongOverviewBreaksInsideSection(t *testing.T) {
	lines := make([]string, 40)
	for i := range lines {
		lines[i] = fmt.Sprintf("Overview line %02d", i)
	}
	rec := ContentRecord{Name: "Modular Unit MU-40", Category: "Modular Treatment Units", Description: strings.Join(lines, "\n")}

	g, rs := recordingGenerator()
	layout, err := g.ComposeRecordDocument(context.Background(), rec, Options{}, &BufferSaver{})
	require.NoError(t, err)

	overview, ok := layout.Section(SectionOverview)
	require.True(t, ok)
	assert.Equal(t, 1, overview.Page)

	first := (*rs).find(lines[0])
	last := (*rs).find(lines[len(lines)-1])
	require.Len(t, first, 1)
	require.Len(t, last, 1)
	assert.Equal(t, 1, first[0].page)
	assert.Equal(t, 2, last[0].page)

	// the overview resumes right under the banner of page 2
	var resumed *drawnText
	for i, tx := range (*rs).texts {
		if tx.page == 2 && strings.HasPrefix(tx.s, "Overview line") {
			resumed = &(*rs).texts[i]
			break
		}
	}
	require.NotNil(t, resumed)
	assert.Equal(t, contentTop, resumed.y)

	bottom := A4Size.Height*mmPerPt - bottomMargin
	for _, tx := range (*rs).texts {
		if strings.HasPrefix(tx.s, "Overview line") {
			assert.LessOrEqual(t, tx.y+textLineH, bottom+0.01)
		}
	}
}

func TestComposeIsIdempotent(t *testing.T) {
	rec := bioSteps()
	rec.Description = words(900)

	g1, _ := recordingGenerator()
	l1, err := g1.ComposeRecordDocument(context.Background(), rec, DefaultOptions(), &BufferSaver{})
	require.NoError(t, err)
	g2, _ := recordingGenerator()
	l2, err := g2.ComposeRecordDocument(context.Background(), rec, DefaultOptions(), &BufferSaver{})
	require.NoError(t, err)

	assert.Equal(t, l1, l2)
}

func TestOptionsDropSections(t *testing.T) {
	opts := Options{IncludeTechnicalSpecs: true}
	layout, err := Generator{}.ComposeRecordDocument(context.Background(), bioSteps(), opts, &BufferSaver{})
	require.NoError(t, err)

	assert.Equal(t, []string{SectionTitle, SectionOverview, SectionSpecifications, SectionMetrics, SectionContact}, layout.SectionNames())
	contact, _ := layout.Section(SectionContact)
	assert.Equal(t, layout.Pages, contact.Page)
}

func TestLongWordIsSplit(t *testing.T) {
	c := NewComposer(NewFpdfSurface(A4Size), A4Size)
	c.s.SetFont("", 10)
	long := strings.Repeat("W", 200)
	lines := c.wrap("short "+long, 50)
	require.Greater(t, len(lines), 2)
	assert.Equal(t, "short", lines[0])
	assert.Equal(t, long, strings.Join(lines[1:], ""))
	for _, l := range lines {
		assert.LessOrEqual(t, c.s.StringWidth(l), 50.0)
	}
}

func TestCompanyProfile(t *testing.T) {
	saver := &BufferSaver{}
	layout, err := Generator{}.ComposeCompanyProfileDocument(context.Background(), saver)
	require.NoError(t, err)
	assert.Equal(t, CompanyProfileFilename, saver.Filename)
	assert.Equal(t, 1, layout.Pages)
	assert.Equal(t, []string{SectionProfile}, layout.SectionNames())
}

func testPNG(t *testing.T, w, h int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.NRGBA{R: 45, G: 85, B: 153, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRecordImage(t *testing.T) {
	data := testPNG(t, 80, 40)
	rec := bioSteps()
	rec.ImageRef = "products/bs-200.png"
	opts := DefaultOptions()
	opts.IncludeImages = true

	t.Run("placed", func(t *testing.T) {
		g := Generator{Images: ImageResolverFunc(func(_ context.Context, ref string) (io.ReadCloser, error) {
			assert.Equal(t, rec.ImageRef, ref)
			return io.NopCloser(bytes.NewReader(data)), nil
		})}
		layout, err := g.ComposeRecordDocument(context.Background(), rec, opts, &BufferSaver{})
		require.NoError(t, err)
		assert.Contains(t, layout.SectionNames(), SectionImage)
	})

	t.Run("skipped on failure", func(t *testing.T) {
		g := Generator{Images: ImageResolverFunc(func(context.Context, string) (io.ReadCloser, error) {
			return nil, errors.New("gone")
		})}
		saver := &BufferSaver{}
		layout, err := g.ComposeRecordDocument(context.Background(), rec, opts, saver)
		require.NoError(t, err)
		assert.NotContains(t, layout.SectionNames(), SectionImage)
		assert.Equal(t, 1, saver.Saves)
	})
}

func TestDirSaver(t *testing.T) {
	dir := t.TempDir()
	saver := DirSaver{Dir: filepath.Join(dir, "out")}
	require.NoError(t, ComposeRecordDocument(context.Background(), bioSteps(), DefaultOptions(), saver))

	entries, err := os.ReadDir(saver.Dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ECG_BioSteps_BS-200_Specification.pdf", entries[0].Name())

	assert.Error(t, saver.Save(context.Background(), "../escape.pdf", []byte("x")))
}

func TestSaveErrorIsReturned(t *testing.T) {
	boom := errors.New("disk full")
	err := ComposeCompanyProfileDocument(context.Background(), SaverFunc(func(context.Context, string, []byte) error {
		return boom
	}))
	assert.ErrorIs(t, err, boom)
}
