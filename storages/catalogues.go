package storages

import (
	"context"
	"log"
	"path"
	"strings"

	"github.com/ecogroup/ecgsite/catalog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const DefaultCatalogueImage = "https://images.pexels.com/photos/3862132/pexels-photo-3862132.jpeg?auto=compress&cs=tinysrgb&w=400"

var titleCaser = cases.Title(language.Und, cases.NoLower)

// SampleCatalogues are shown while no file store is configured
func SampleCatalogues() []catalog.Catalogue {
	return []catalog.Catalogue{
		{Name: "AVK Gaz", URL: "#demo-catalogue", Size: 2500000, Image: DefaultCatalogueImage},
		{Name: "AVK Water", URL: "#demo-catalogue", Size: 3200000, Image: DefaultCatalogueImage},
		{Name: "TIS", URL: "#demo-catalogue", Size: 1800000, Image: DefaultCatalogueImage},
	}
}

// CatalogueDisplayName maps a PDF file name to the name shown on the site
func CatalogueDisplayName(filename string) string {
	name := strings.TrimSuffix(filename, path.Ext(filename))
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "avk") && strings.Contains(lower, "gaz"):
		return "AVK Gaz"
	case strings.Contains(lower, "avk") && strings.Contains(lower, "water"):
		return "AVK Water"
	case strings.Contains(lower, "tis"):
		return "TIS"
	}
	return titleCaser.String(name)
}

// coverCandidates are searched in order; the first hit is the cover image
func coverCandidates(displayName string) []string {
	lower := strings.ToLower(displayName)
	fields := strings.Fields(lower)
	return []string{
		strings.Join(fields, "-") + "-coverPage",
		strings.Join(fields, "_") + "-coverPage",
		lower + "-cover",
		"avk-coverPage",
		"Tis-CoverPage",
	}
}

// ListCatalogues lists the PDF files of the catalogues bucket with their cover images.
// A nil store yields the sample catalogues.
func ListCatalogues(ctx context.Context, fs FileStore) ([]catalog.Catalogue, error) {
	if fs == nil {
		return SampleCatalogues(), nil
	}
	objects, err := fs.List(ctx, BucketCatalogues, ListOptions{Limit: 100})
	if err != nil {
		return nil, err
	}
	out := []catalog.Catalogue{}
	for _, obj := range objects {
		if !strings.HasSuffix(strings.ToLower(obj.Name), ".pdf") {
			continue
		}
		c := catalog.Catalogue{
			Name:         CatalogueDisplayName(obj.Name),
			URL:          fs.PublicURL(BucketCatalogues, obj.Name),
			Size:         obj.Size,
			OriginalName: obj.Name,
			Image:        DefaultCatalogueImage,
		}
		for _, candidate := range coverCandidates(c.Name) {
			found, err := fs.List(ctx, BucketCatalogues, ListOptions{Search: candidate, Limit: 1})
			if err != nil {
				log.Printf("[WARN][STORAGE] cover lookup %q failed: %v", candidate, err)
				continue
			}
			if len(found) > 0 {
				c.Image = fs.PublicURL(BucketCatalogues, found[0].Name)
				break
			}
		}
		out = append(out, c)
	}
	return out, nil
}
