package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ecogroup/ecgsite/catalog"
	"github.com/ecogroup/ecgsite/nullable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := Open(dir)
	require.NoError(t, err)
	clock := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	s.newID = func() string { n++; return fmt.Sprintf("id-%d", n) }
	return s
}

func TestOpenSeedsCategories(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir)
	cats, err := s.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 6)
	assert.Equal(t, "Wastewater Treatment Plants", cats[0].Name)
	assert.Equal(t, "BioSteps BS Systems", cats[3].Name)
	assert.Equal(t, "Five-stage biological treatment systems", cats[3].Description.ForceValue())
	assert.FileExists(t, filepath.Join(dir, "categories.json"))

	// a second open reads the file instead of seeding again
	require.NoError(t, s.DeleteCategory(context.Background(), "6"))
	s2 := openTestStore(t, dir)
	cats, err = s2.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, cats, 5)
}

func TestProductsFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, t.TempDir())
	mk := func(name, cat string, order int, featured, active bool) {
		_, err := s.CreateProduct(ctx, &catalog.Product{Name: name, Category: cat, SortOrder: order, IsFeatured: featured, IsActive: active})
		require.NoError(t, err)
	}
	mk("BS-500", "BioSteps BS Systems", 2, true, true)
	mk("BS-200", "BioSteps BS Systems", 1, false, true)
	mk("KNS-1", "Pumping Stations", 3, true, true)
	mk("Old", "Pumping Stations", 0, true, false)

	all, err := s.ListProducts(ctx, catalog.ProductFilter{Category: catalog.CategoryAll})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"BS-200", "BS-500", "KNS-1"}, []string{all[0].Name, all[1].Name, all[2].Name})

	bio, _ := s.ListProducts(ctx, catalog.ProductFilter{Category: "BioSteps BS Systems"})
	assert.Len(t, bio, 2)

	featured, _ := s.ListProducts(ctx, catalog.ProductFilter{Featured: true, Limit: 1})
	require.Len(t, featured, 1)
	assert.Equal(t, "BS-500", featured[0].Name)

	// inactive products stay reachable by id for the admin panel
	p, err := s.GetProduct(ctx, "id-4")
	require.NoError(t, err)
	assert.False(t, p.IsActive)
}

func TestReturnedItemsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, t.TempDir())
	p, err := s.CreateProduct(ctx, &catalog.Product{Name: "BS-200", Category: "c", IsActive: true})
	require.NoError(t, err)
	p.Name = "mutated"
	got, err := s.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "BS-200", got.Name)
}

func TestUpdateKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, t.TempDir())
	c, err := s.CreateClient(ctx, &catalog.Client{Name: "Toshkent Suv"})
	require.NoError(t, err)

	upd := *c
	upd.Name = "Toshkent Suv Taminoti"
	upd.CreatedAt = time.Time{}
	out, err := s.UpdateClient(ctx, &upd)
	require.NoError(t, err)
	assert.Equal(t, c.CreatedAt, out.CreatedAt)
	assert.True(t, out.UpdatedAt.After(c.UpdatedAt))

	_, err = s.UpdateClient(ctx, &catalog.Client{ID: "nope", Name: "x"})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.ErrorIs(t, s.DeleteClient(ctx, "nope"), catalog.ErrNotFound)
}

func TestInboxStatusesAndEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := openTestStore(t, t.TempDir())
	events, err := s.Events(ctx)
	require.NoError(t, err)

	sub, err := s.CreateContactSubmission(ctx, &catalog.ContactSubmission{
		Name: "Aziz", Email: "aziz@example.com", Message: "Need a WWTP", Status: catalog.SubmissionResolved,
	})
	require.NoError(t, err)
	assert.Equal(t, catalog.SubmissionNew, sub.Status)
	ev := <-events
	assert.Equal(t, catalog.EventContactSubmitted, ev.Kind)
	assert.Equal(t, sub.ID, ev.ID)

	q, err := s.CreateQuoteRequest(ctx, &catalog.QuoteRequest{
		ProductID: "p1", ProductName: "BS-200", ClientName: "Dilnoza", ClientEmail: "d@example.com", Quantity: 1,
		Status: catalog.QuoteAccepted,
	})
	require.NoError(t, err)
	assert.Equal(t, catalog.QuotePending, q.Status)
	assert.Equal(t, catalog.EventQuoteRequested, (<-events).Kind)

	require.NoError(t, s.UpdateContactSubmissionStatus(ctx, sub.ID, catalog.SubmissionInProgress))
	assert.ErrorIs(t, s.UpdateContactSubmissionStatus(ctx, sub.ID, "done"), catalog.ErrInvalid)

	newOnes, _ := s.ListContactSubmissions(ctx, catalog.StatusFilter{Status: "new"})
	assert.Empty(t, newOnes)

	q, err = s.UpdateQuoteRequest(ctx, q.ID, catalog.QuoteUpdate{
		Status: catalog.QuoteQuoted, QuotedPrice: nullable.Float64Of(48000), QuoteNotes: nullable.StringOf("incl. delivery"),
	})
	require.NoError(t, err)
	assert.Equal(t, 48000.0, q.QuotedPrice.Float64)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), st.NewMessages)
	assert.Equal(t, int64(0), st.PendingQuotes)
}

func TestListsNewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, t.TempDir())
	for i := 1; i <= 3; i++ {
		_, err := s.CreateTestimonial(ctx, &catalog.Testimonial{
			ClientName: fmt.Sprintf("C%d", i), Content: "good", Rating: 5, IsFeatured: i != 2,
		})
		require.NoError(t, err)
	}
	items, err := s.ListTestimonials(ctx, catalog.Filter{Featured: true, Limit: 5})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "C3", items[0].ClientName)
	assert.Equal(t, "C1", items[1].ClientName)
}

func TestProjectsFilter(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, t.TempDir())
	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	_, err := s.CreateProject(ctx, &catalog.Project{Name: "Samarkand WWTP", ClientID: "c1", StartDate: start, Status: catalog.ProjectInProgress})
	require.NoError(t, err)
	_, err = s.CreateProject(ctx, &catalog.Project{Name: "Bukhara KNS", ClientID: "c2", StartDate: start})
	require.NoError(t, err)

	items, _ := s.ListProjects(ctx, catalog.ProjectFilter{ClientID: "c2"})
	require.Len(t, items, 1)
	assert.Equal(t, catalog.ProjectPlanning, items[0].Status)
	assert.NotNil(t, items[0].Attachments)

	items, _ = s.ListProjects(ctx, catalog.ProjectFilter{Status: catalog.ProjectInProgress})
	require.Len(t, items, 1)
	assert.Equal(t, "Samarkand WWTP", items[0].Name)
}

func TestSiteSettingsUpsertAndPersist(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := openTestStore(t, dir)
	first, err := s.UpsertSiteSetting(ctx, "phone", json.RawMessage(`"+998 71 200 00 00"`))
	require.NoError(t, err)
	second, err := s.UpsertSiteSetting(ctx, "phone", json.RawMessage(`"+998 71 200 00 01"`))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	s2 := openTestStore(t, dir)
	got, err := s2.GetSiteSetting(ctx, "phone")
	require.NoError(t, err)
	assert.Equal(t, `"+998 71 200 00 01"`, string(got.Value))

	_, err = s2.GetSiteSetting(ctx, "missing")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestOpenRejectsCorruptTable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "products.json"), []byte("{not json"), 0o644))
	_, err := Open(dir)
	assert.Error(t, err)
}

func TestFailedWriteLeavesTablesUnchanged(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := openTestStore(t, dir)
	kept, err := s.CreateProduct(ctx, &catalog.Product{Name: "BS-200", Category: "BioSteps BS Systems", IsActive: true})
	require.NoError(t, err)
	_, err = s.CreateContactSubmission(ctx, &catalog.ContactSubmission{Name: "Aziz", Email: "aziz@example.com", Message: "Price list please"})
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(dir))

	created, err := s.CreateProduct(ctx, &catalog.Product{Name: "BS-500", Category: "BioSteps BS Systems", IsActive: true})
	assert.Error(t, err)
	assert.Nil(t, created)

	edit := *kept
	edit.Name = "BS-200 Compact"
	updated, err := s.UpdateProduct(ctx, &edit)
	assert.Error(t, err)
	assert.Nil(t, updated)

	assert.Error(t, s.DeleteProduct(ctx, kept.ID))

	products, err := s.ListProducts(ctx, catalog.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "BS-200", products[0].Name)

	msgs, err := s.ListContactSubmissions(ctx, catalog.StatusFilter{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Error(t, s.UpdateContactSubmissionStatus(ctx, msgs[0].ID, catalog.SubmissionResolved))
	msgs, err = s.ListContactSubmissions(ctx, catalog.StatusFilter{})
	require.NoError(t, err)
	assert.Equal(t, catalog.SubmissionNew, msgs[0].Status)

	_, err = s.UpsertSiteSetting(ctx, "phone", json.RawMessage(`"+998 71 000 00 00"`))
	assert.Error(t, err)
	_, err = s.GetSiteSetting(ctx, "phone")
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	// once the directory is back, writes go through again
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, s.DeleteProduct(ctx, kept.ID))
	products, err = s.ListProducts(ctx, catalog.ProductFilter{})
	require.NoError(t, err)
	assert.Empty(t, products)
}
