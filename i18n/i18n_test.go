package i18n

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupFallbacks(t *testing.T) {
	b, err := New("")
	require.NoError(t, err)
	assert.Equal(t, "Home", b.T(En, "nav.home"))
	assert.Equal(t, "Главная", b.T(Ru, "nav.home"))
	assert.Equal(t, "Home", b.T("de", "nav.home"))
	assert.Equal(t, "no.such.key", b.T(Uz, "no.such.key"))
	// present in Russian only
	assert.Equal(t, "pricing.tiers.popular", b.T(En, "pricing.tiers.popular"))
	assert.NotEqual(t, "pricing.tiers.popular", b.T(Ru, "pricing.tiers.popular"))
}

func TestDictFillsGapsFromEnglish(t *testing.T) {
	b, err := New("")
	require.NoError(t, err)
	en := b.Dict(En)
	uz := b.Dict(Uz)
	assert.GreaterOrEqual(t, len(uz), len(en))
	assert.Equal(t, "Chiqish", uz["admin.signout"])

	uz["admin.signout"] = "changed"
	assert.Equal(t, "Chiqish", b.T(Uz, "admin.signout"))
}

func TestReloadWithOverrides(t *testing.T) {
	dir := t.TempDir()
	b, err := New(dir)
	require.NoError(t, err)
	assert.Equal(t, "Home", b.T(En, "nav.home"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.yaml"), []byte("nav.home: Start\nnav.extra: Extra\n"), 0o644))
	require.NoError(t, b.Reload())
	assert.Equal(t, "Start", b.T(En, "nav.home"))
	assert.Equal(t, "Extra", b.T(Ru, "nav.extra"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ru.yaml"), []byte("nav.home: [broken"), 0o644))
	assert.Error(t, b.Reload())
	assert.Equal(t, "Start", b.T(En, "nav.home"))
}

func TestNegotiate(t *testing.T) {
	tests := []struct {
		name   string
		target string
		cookie string
		accept string
		want   string
	}{
		{"default", "/", "", "", En},
		{"query", "/?lang=uz", "ru", "ru", Uz},
		{"bad query falls through", "/?lang=xx", "ru", "", Ru},
		{"cookie", "/", "ru", "uz", Ru},
		{"accept language", "/", "", "ru-RU,ru;q=0.9,en;q=0.8", Ru},
		{"accept uzbek", "/", "", "uz-Latn-UZ", Uz},
		{"unsupported", "/", "", "ja-JP", En},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: CookieName, Value: tt.cookie})
			}
			if tt.accept != "" {
				r.Header.Set("Accept-Language", tt.accept)
			}
			assert.Equal(t, tt.want, Negotiate(r))
		})
	}
}
