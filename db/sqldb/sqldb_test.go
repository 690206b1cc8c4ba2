package sqldb

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceStaticPlaceholders(t *testing.T) {
	in := "UPDATE quote_requests SET status = ?, notes = ? WHERE id = ?"
	assert.Equal(t, "UPDATE quote_requests SET status = $1, notes = $2 WHERE id = $3", ReplaceStaticPlaceholders(in, '$'))
	assert.Equal(t, in, ReplaceStaticPlaceholders(in, '?'))
}

func TestQueryBuilder(t *testing.T) {
	sortOrder := NewColumnOrPanic("sort_order")
	q := NewQuery("SELECT id FROM products WHERE is_active = ?;", '$', true).
		And("category = ?", "Pumping Stations").
		And("featured = ?", true).
		OrderBy(OrderBy{Column: sortOrder}).
		Limit(6)

	assert.Equal(t, "SELECT id FROM products WHERE is_active = ? AND category = $2 AND featured = $3 ORDER BY sort_order ASC LIMIT 6", q.String())
	assert.Equal(t, []any{true, "Pumping Stations", true}, q.Args())

	my := NewQuery("SELECT id FROM clients WHERE 1 = 1", '?').And("featured = ?", true).Limit(0)
	assert.Equal(t, "SELECT id FROM clients WHERE 1 = 1 AND featured = ?", my.String())
}

func TestNewColumnRejectsInjection(t *testing.T) {
	_, err := NewColumn("created_at; DROP TABLE products")
	assert.Error(t, err)
	c, err := NewColumn("products.created_at")
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY products.created_at DESC", OrderByClause([]OrderBy{{Column: c, Desc: true}}))
	assert.Panics(t, func() { NewColumnOrPanic("1abc") })
}

func TestLoadRawStmtsDialectOverride(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/get.sql":    {Data: []byte("SELECT * FROM site_settings WHERE key = ?")},
		"sql/upsert.sql": {Data: []byte("INSERT INTO site_settings (key, value) VALUES (?, ?)")},
		"sql/upsert.pgsql": {Data: []byte("INSERT INTO site_settings (key, value) VALUES ($1, $2) " +
			"ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value")},
		"sql/notes.txt": {Data: []byte("ignored")},
	}

	pg := NewRawStore()
	require.NoError(t, LoadRawStmtsToStore(pg, "pgsql", GroupFS{Group: "settings", FS: fsys}))
	assert.Equal(t, 2, pg.Len())
	assert.Equal(t, "SELECT * FROM site_settings WHERE key = $1", pg.MustGet("settings.get"))
	assert.Contains(t, pg.MustGet("settings.upsert"), "ON CONFLICT")

	my := NewRawStore()
	require.NoError(t, LoadRawStmtsToStore(my, "mysql", GroupFS{Group: "settings", FS: fsys}))
	assert.Equal(t, "INSERT INTO site_settings (key, value) VALUES (?, ?)", my.MustGet("settings.upsert"))
	assert.Panics(t, func() { my.MustGet("settings.missing") })
}
