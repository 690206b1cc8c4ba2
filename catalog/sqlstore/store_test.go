package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ecogroup/ecgsite/catalog"
	"github.com/ecogroup/ecgsite/db/sqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	query string
	args  []any
}

// fakeDB records statements and serves canned rows
type fakeDB struct {
	dbType   string
	execs    []call
	queries  []call
	rows     [][]any
	affected int64
	rowErr   error
	notified []string
	listen   chan sqldb.Notification
	commits  int
	rollback int
}

func newFakeDB(dbType string) *fakeDB {
	return &fakeDB{dbType: dbType, affected: 1}
}

func (f *fakeDB) Init() error { return nil }
func (f *fakeDB) Close() error { return nil }
func (f *fakeDB) DBType() string { return f.dbType }
func (f *fakeDB) GetConf() *sqldb.Conf { return &sqldb.Conf{Type: f.dbType} }
func (f *fakeDB) Ping(context.Context) error { return nil }
func (f *fakeDB) BeginTx(context.Context) (sqldb.Tx, error) { return fakeTx{f}, nil }

// fakeTx runs statements on its fakeDB and counts the outcome
type fakeTx struct{ *fakeDB }

func (tx fakeTx) Commit(context.Context) error   { tx.commits++; return nil }
func (tx fakeTx) Rollback(context.Context) error { tx.rollback++; return nil }

func (f *fakeDB) Exec(_ context.Context, query string, args ...any) (sqldb.Result, error) {
	f.execs = append(f.execs, call{query, args})
	return fakeResult(f.affected), nil
}

func (f *fakeDB) QueryRows(_ context.Context, query string, args ...any) (sqldb.Rows, error) {
	f.queries = append(f.queries, call{query, args})
	return &fakeRows{rows: f.rows, i: -1}, nil
}

func (f *fakeDB) QueryRow(_ context.Context, query string, args ...any) sqldb.Row {
	f.queries = append(f.queries, call{query, args})
	if f.rowErr != nil || len(f.rows) == 0 {
		return fakeRow{err: sqldb.ErrNoRows}
	}
	return fakeRow{values: f.rows[0]}
}

func (f *fakeDB) Listen(ctx context.Context, channel string) (<-chan sqldb.Notification, error) {
	if f.dbType != "pgsql" {
		return nil, sqldb.ErrNotSupported
	}
	f.listen = make(chan sqldb.Notification, 4)
	return f.listen, nil
}

func (f *fakeDB) Notify(_ context.Context, channel string, payload string) error {
	if f.dbType != "pgsql" {
		return sqldb.ErrNotSupported
	}
	f.notified = append(f.notified, channel+" "+payload)
	return nil
}

func (f *fakeDB) lastExec() call {
	return f.execs[len(f.execs)-1]
}

func (f *fakeDB) lastQuery() call {
	return f.queries[len(f.queries)-1]
}

type fakeResult int64

func (r fakeResult) RowsAffected() (int64, error) { return int64(r), nil }

type fakeRows struct {
	rows [][]any
	i    int
}

func (r *fakeRows) Next() bool {
	r.i++
	return r.i < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error { return scanValues(r.rows[r.i], dest) }
func (r *fakeRows) Close() error { return nil }
func (r *fakeRows) Err() error { return nil }

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanValues(r.values, dest)
}

func scanValues(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("expected %d destinations, got %d", len(values), len(dest))
	}
	for i, d := range dest {
		if sc, ok := d.(sql.Scanner); ok {
			if err := sc.Scan(values[i]); err != nil {
				return err
			}
			continue
		}
		dv := reflect.ValueOf(d).Elem()
		sv := reflect.ValueOf(values[i])
		if !sv.Type().ConvertibleTo(dv.Type()) {
			return fmt.Errorf("column %d: cannot assign %T to %s", i, values[i], dv.Type())
		}
		dv.Set(sv.Convert(dv.Type()))
	}
	return nil
}

var t0 = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func productRow(id, name string, sortOrder int) []any {
	return []any{id, name, "desc", "BioSteps BS Systems", nil, nil, `{"Capacity":"200 m3/day"}`,
		25000.0, true, true, sortOrder, t0, t0}
}

func newTestStore(t *testing.T, dbType string) (*Store, *fakeDB) {
	t.Helper()
	db := newFakeDB(dbType)
	s, err := New(db)
	require.NoError(t, err)
	n := 0
	s.newID = func() string { n++; return fmt.Sprintf("id-%d", n) }
	s.now = func() time.Time { return t0 }
	return s, db
}

func TestListProductsFilters(t *testing.T) {
	s, db := newTestStore(t, "pgsql")
	db.rows = [][]any{productRow("a", "BS-200", 1), productRow("b", "BS-500", 2)}

	items, err := s.ListProducts(context.Background(), catalog.ProductFilter{Category: "BioSteps BS Systems", Featured: true, Limit: 3})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "BS-500", items[1].Name)
	v, _ := items[0].Specifications.Get("Capacity")
	assert.Equal(t, "200 m3/day", v)
	assert.Equal(t, 25000.0, items[0].Price.Float64)

	q := db.lastQuery()
	assert.True(t, strings.HasSuffix(q.query,
		"WHERE is_active = TRUE AND category = $1 AND is_featured = $2 ORDER BY sort_order ASC LIMIT 3"), q.query)
	assert.Equal(t, []any{"BioSteps BS Systems", true}, q.args)
}

func TestListProductsAllCategoriesMySQL(t *testing.T) {
	s, db := newTestStore(t, "mysql")
	_, err := s.ListProducts(context.Background(), catalog.ProductFilter{Category: catalog.CategoryAll})
	require.NoError(t, err)
	q := db.lastQuery()
	assert.True(t, strings.HasSuffix(q.query, "WHERE is_active = TRUE ORDER BY sort_order ASC"), q.query)
	assert.Empty(t, q.args)

	_, err = s.ListQuoteRequests(context.Background(), catalog.StatusFilter{Status: "pending", Limit: 10})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(db.lastQuery().query, "AND status = ? ORDER BY created_at DESC LIMIT 10"))
}

func TestGetProductNotFound(t *testing.T) {
	s, _ := newTestStore(t, "pgsql")
	_, err := s.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestUpdateMissingRow(t *testing.T) {
	s, db := newTestStore(t, "pgsql")
	db.affected = 0
	_, err := s.UpdateProduct(context.Background(), &catalog.Product{ID: "x", Name: "n", Category: "c"})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.ErrorIs(t, s.DeleteClient(context.Background(), "x"), catalog.ErrNotFound)
}

func TestCreateContactSubmissionForcesNewAndNotifies(t *testing.T) {
	s, db := newTestStore(t, "pgsql")
	in := &catalog.ContactSubmission{Name: "Aziz", Email: "aziz@example.com", Message: "Need a WWTP", Status: catalog.SubmissionResolved}
	out, err := s.CreateContactSubmission(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "id-1", out.ID)
	assert.Equal(t, catalog.SubmissionNew, out.Status)
	assert.Equal(t, catalog.SubmissionResolved, in.Status)

	ex := db.lastExec()
	assert.Contains(t, ex.query, "INSERT INTO contact_submissions")
	assert.Contains(t, ex.query, "$9")
	assert.Equal(t, catalog.SubmissionNew, ex.args[6])

	require.Len(t, db.notified, 1)
	assert.True(t, strings.HasPrefix(db.notified[0], catalog.EventsChannel+" "))
	assert.Contains(t, db.notified[0], `"kind":"contact_submitted"`)
}

func TestCreateRejectsInvalid(t *testing.T) {
	s, db := newTestStore(t, "pgsql")
	_, err := s.CreateQuoteRequest(context.Background(), &catalog.QuoteRequest{ClientName: "x"})
	assert.ErrorIs(t, err, catalog.ErrInvalid)
	assert.Empty(t, db.execs)
}

func TestEventsInProcessWhenNotifyUnsupported(t *testing.T) {
	s, _ := newTestStore(t, "mysql")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := s.Events(ctx)
	require.NoError(t, err)

	_, err = s.CreateQuoteRequest(ctx, &catalog.QuoteRequest{
		ProductID: "p1", ProductName: "BS-200", ClientName: "Dilnoza", ClientEmail: "d@example.com", Quantity: 2,
	})
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, catalog.EventQuoteRequested, ev.Kind)
		assert.Equal(t, "Dilnoza", ev.Name)
	case <-time.After(time.Second):
		t.Fatal("no event")
	}
}

func TestEventsFromNotifications(t *testing.T) {
	s, db := newTestStore(t, "pgsql")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := s.Events(ctx)
	require.NoError(t, err)

	payload, _ := json.Marshal(catalog.Event{Kind: catalog.EventContactSubmitted, ID: "c1", Name: "Aziz", At: t0})
	db.listen <- sqldb.Notification{Channel: catalog.EventsChannel, Payload: "not json"}
	db.listen <- sqldb.Notification{Channel: catalog.EventsChannel, Payload: string(payload)}

	select {
	case ev := <-events:
		assert.Equal(t, "c1", ev.ID)
	case <-time.After(time.Second):
		t.Fatal("no event")
	}
}

func TestUpsertSiteSettingUsesDialect(t *testing.T) {
	s, db := newTestStore(t, "pgsql")
	db.rows = [][]any{{"id-1", "hero_title", `"Clean water"`, nil, t0, t0}}
	st, err := s.UpsertSiteSetting(context.Background(), "hero_title", json.RawMessage(`"Clean water"`))
	require.NoError(t, err)
	assert.Equal(t, `"Clean water"`, string(st.Value))
	assert.Contains(t, db.lastExec().query, "ON CONFLICT")

	s, db = newTestStore(t, "mysql")
	db.rows = [][]any{{"id-1", "hero_title", `"x"`, nil, t0, t0}}
	_, err = s.UpsertSiteSetting(context.Background(), "hero_title", json.RawMessage(`"x"`))
	require.NoError(t, err)
	assert.Contains(t, db.lastExec().query, "ON DUPLICATE KEY UPDATE")

	assert.Equal(t, 1, db.commits)

	_, err = s.UpsertSiteSetting(context.Background(), "hero_title", json.RawMessage(`{bad`))
	assert.ErrorIs(t, err, catalog.ErrInvalid)
}

func TestUpdateQuoteRequestInTransaction(t *testing.T) {
	s, db := newTestStore(t, "pgsql")
	db.affected = 0
	_, err := s.UpdateQuoteRequest(context.Background(), "q1", catalog.QuoteUpdate{Status: catalog.QuoteQuoted})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Equal(t, 1, db.rollback)
	assert.Zero(t, db.commits)
}

func TestStats(t *testing.T) {
	s, db := newTestStore(t, "pgsql")
	db.rows = [][]any{{int64(12), int64(8), int64(5), int64(2), int64(3), int64(1)}}
	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, catalog.Stats{Products: 12, Clients: 8, Projects: 5, ActiveProjects: 2, NewMessages: 3, PendingQuotes: 1}, st)
}

func TestMigrateRunsEveryTable(t *testing.T) {
	s, db := newTestStore(t, "mysql")
	require.NoError(t, s.Migrate(context.Background()))
	assert.Len(t, db.execs, 8)
	for _, ex := range db.execs {
		assert.True(t, strings.HasPrefix(ex.query, "CREATE TABLE IF NOT EXISTS"), ex.query)
	}
}

func TestProductSpecsKeepEntryOrder(t *testing.T) {
	for dbType, column := range map[string]string{
		"pgsql": "specifications json NOT NULL",
		"mysql": "specifications LONGTEXT NOT NULL",
	} {
		t.Run(dbType, func(t *testing.T) {
			s, db := newTestStore(t, dbType)
			require.NoError(t, s.Migrate(context.Background()))
			assert.Contains(t, db.execs[0].query, column)

			specs := catalog.Specs{{Parameter: "Stages", Value: "5"}, {Parameter: "Capacity", Value: "200 m3/day"}}
			_, err := s.CreateProduct(context.Background(), &catalog.Product{
				Name: "BS-200", Category: "BioSteps BS Systems", Specifications: specs,
			})
			require.NoError(t, err)
			stored, err := db.lastExec().args[6].(catalog.Specs).Value()
			require.NoError(t, err)
			assert.Equal(t, `{"Stages":"5","Capacity":"200 m3/day"}`, stored)

			row := productRow("a", "BS-200", 1)
			row[6] = stored
			db.rows = [][]any{row}
			p, err := s.GetProduct(context.Background(), "a")
			require.NoError(t, err)
			assert.Equal(t, specs, p.Specifications)
		})
	}
}
