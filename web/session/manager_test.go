package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecogroup/ecgsite/db/kvdb/impls/memory"
	"github.com/ecogroup/ecgsite/sec"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newManager(t *testing.T, conf Conf) (*Manager, *memory.Client, *clock) {
	t.Helper()
	cipher, err := sec.NewXChaCha20Poly1305CipherBase64([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	kv := memory.New()
	clk := &clock{t: time.Now()}
	return &Manager{
		Conf:              conf,
		Cipher:            cipher,
		AppName:           "ecg",
		BackendKVDBClient: kv,
		Now:               clk.now,
	}, kv, clk
}

func login(t *testing.T, m *Manager, subject string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	_, err := m.Create(context.Background(), rec, subject)
	require.NoError(t, err)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func requestWith(c *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if c != nil {
		r.AddCookie(c)
	}
	return r
}

func TestCreateAndLookup(t *testing.T) {
	m, _, _ := newManager(t, Conf{})
	c := login(t, m, "admin@ecg.uz")
	assert.Equal(t, DefaultCookieName, c.Name)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)

	info, err := m.Lookup(context.Background(), requestWith(c))
	require.NoError(t, err)
	assert.Equal(t, "admin@ecg.uz", info.Subject)
	assert.True(t, info.ValidUntil.After(info.CreatedAt))
}

func TestLookupRejectsMissingOrForgedCookie(t *testing.T) {
	m, _, _ := newManager(t, Conf{})
	_, err := m.Lookup(context.Background(), requestWith(nil))
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = m.Lookup(context.Background(), requestWith(&http.Cookie{Name: DefaultCookieName, Value: "forged"}))
	assert.ErrorIs(t, err, ErrNoSession)

	// valid ciphertext for an id that was never stored
	enc, err := m.Cipher.EncryptEncodeWith([]byte("deadbeef"), []byte(DefaultCookieName))
	require.NoError(t, err)
	_, err = m.Lookup(context.Background(), requestWith(&http.Cookie{Name: DefaultCookieName, Value: enc}))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestHardcapEndsSession(t *testing.T) {
	m, _, clk := newManager(t, Conf{ExpireSliding: 600, ExpireHardcap: 3600})
	c := login(t, m, "admin")
	clk.t = clk.t.Add(2 * time.Hour)
	_, err := m.Lookup(context.Background(), requestWith(c))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestDestroy(t *testing.T) {
	m, kv, _ := newManager(t, Conf{})
	c := login(t, m, "admin")
	rec := httptest.NewRecorder()
	require.NoError(t, m.Destroy(context.Background(), rec, requestWith(c)))
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, -1, cleared[0].MaxAge)

	_, err := m.Lookup(context.Background(), requestWith(c))
	assert.ErrorIs(t, err, ErrNoSession)

	keys, _, err := kv.ScanKeys(context.Background(), nil, "ecg_wsession:*", 10)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMaxCntPerUserDropsOldest(t *testing.T) {
	m, _, _ := newManager(t, Conf{MaxCntPerUser: 2})
	first := login(t, m, "admin")
	second := login(t, m, "admin")
	third := login(t, m, "admin")

	_, err := m.Lookup(context.Background(), requestWith(first))
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = m.Lookup(context.Background(), requestWith(second))
	assert.NoError(t, err)
	_, err = m.Lookup(context.Background(), requestWith(third))
	assert.NoError(t, err)
}

func TestSweep(t *testing.T) {
	m, _, clk := newManager(t, Conf{ExpireSliding: 7200, ExpireHardcap: 3600})
	login(t, m, "a")
	login(t, m, "b")

	n, err := m.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	clk.t = clk.t.Add(90 * time.Minute)
	n, err = m.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestInsecureCookieAndContext(t *testing.T) {
	m, _, _ := newManager(t, Conf{InsecureCookie: true, CookieName: "sid"})
	c := login(t, m, "admin")
	assert.Equal(t, "sid", c.Name)
	assert.False(t, c.Secure)

	ctx := WithInfo(context.Background(), &Info{Subject: "admin"})
	info, ok := InfoFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "admin", info.Subject)
	_, ok = InfoFromContext(context.Background())
	assert.False(t, ok)
}
