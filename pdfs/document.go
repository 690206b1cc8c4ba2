package pdfs

import (
	"context"
	"fmt"
)

// Generator builds documents with a fresh Composer per call
type Generator struct {
	Paper  PaperSize
	Brand  *Brand
	Images ImageResolver
	// NewSurface overrides the drawing surface; FpdfSurface when nil
	NewSurface func(PaperSize) Surface
}

func (g Generator) composer() *Composer {
	paper := g.Paper
	if paper.Width == 0 || paper.Height == 0 {
		paper = A4Size
	}
	var s Surface
	if g.NewSurface != nil {
		s = g.NewSurface(paper)
	} else {
		s = NewFpdfSurface(paper)
	}
	c := NewComposer(s, paper)
	if g.Brand != nil {
		c.Brand = *g.Brand
	}
	c.Images = g.Images
	return c
}

// ComposeRecordDocument renders rec and hands the document to saver under RecordFilename(rec.Name).
// Nothing is saved when drawing fails.
func (g Generator) ComposeRecordDocument(ctx context.Context, rec ContentRecord, opts Options, saver Saver) (Layout, error) {
	c := g.composer()
	c.RenderRecord(ctx, rec, opts)
	data, err := c.bytes()
	if err != nil {
		return c.Layout(), fmt.Errorf("composing %q: %w", rec.Name, err)
	}
	return c.Layout(), saver.Save(ctx, RecordFilename(rec.Name), data)
}

// ComposeCompanyProfileDocument renders the company profile and saves it as CompanyProfileFilename
func (g Generator) ComposeCompanyProfileDocument(ctx context.Context, saver Saver) (Layout, error) {
	c := g.composer()
	c.RenderCompanyProfile()
	data, err := c.bytes()
	if err != nil {
		return c.Layout(), fmt.Errorf("composing company profile: %w", err)
	}
	return c.Layout(), saver.Save(ctx, CompanyProfileFilename, data)
}

func ComposeRecordDocument(ctx context.Context, rec ContentRecord, opts Options, saver Saver) error {
	_, err := Generator{}.ComposeRecordDocument(ctx, rec, opts, saver)
	return err
}

func ComposeCompanyProfileDocument(ctx context.Context, saver Saver) error {
	_, err := Generator{}.ComposeCompanyProfileDocument(ctx, saver)
	return err
}
