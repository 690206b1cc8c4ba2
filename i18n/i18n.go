// Package i18n looks up site texts by key in English, Russian and Uzbek
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"maps"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localesFS embed.FS

const (
	En = "en"
	Ru = "ru"
	Uz = "uz"

	Default = En

	CookieName = "language"
)

var Languages = []string{En, Ru, Uz}

var matcher = language.NewMatcher([]language.Tag{language.English, language.Russian, language.Uzbek})

type dictionaries map[string]map[string]string

// Bundle holds the dictionaries of every language.
// Reload swaps them atomically; lookups never block.
type Bundle struct {
	OverrideDir string // optional: <dir>/<lang>.yaml entries win over the embedded ones
	dicts       atomic.Pointer[dictionaries]
}

func New(overrideDir string) (*Bundle, error) {
	b := &Bundle{OverrideDir: overrideDir}
	if err := b.Reload(); err != nil {
		return nil, err
	}
	return b, nil
}

func readDict(fsys fs.FS, name string) (map[string]string, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	dict := map[string]string{}
	if err = yaml.Unmarshal(data, &dict); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return dict, nil
}

func (b *Bundle) Reload() error {
	next := dictionaries{}
	overrides := 0
	for _, lang := range Languages {
		dict, err := readDict(localesFS, "locales/"+lang+".yaml")
		if err != nil {
			return err
		}
		if b.OverrideDir != "" {
			extra, err := readDict(os.DirFS(b.OverrideDir), lang+".yaml")
			switch {
			case errors.Is(err, fs.ErrNotExist):
			case err != nil:
				return fmt.Errorf("%s: %w", filepath.Join(b.OverrideDir, lang+".yaml"), err)
			default:
				maps.Copy(dict, extra)
				overrides += len(extra)
			}
		}
		next[lang] = dict
	}
	b.dicts.Store(&next)
	log.Printf("[INFO][I18N] %d languages loaded, %d overridden keys", len(next), overrides)
	return nil
}

// T looks key up in lang, then in English, and finally returns the key itself
func (b *Bundle) T(lang, key string) string {
	dicts := *b.dicts.Load()
	if v, ok := dicts[lang][key]; ok && v != "" {
		return v
	}
	if v, ok := dicts[Default][key]; ok && v != "" {
		return v
	}
	return key
}

// Dict returns the full dictionary of lang with English filling the gaps
func (b *Bundle) Dict(lang string) map[string]string {
	dicts := *b.dicts.Load()
	out := maps.Clone(dicts[Default])
	maps.Copy(out, dicts[lang])
	return out
}

func Supported(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// Negotiate picks the language of a request:
// `lang` query parameter, then the language cookie, then Accept-Language.
func Negotiate(r *http.Request) string {
	if l := r.URL.Query().Get("lang"); Supported(l) {
		return l
	}
	if c, err := r.Cookie(CookieName); err == nil && Supported(c.Value) {
		return c.Value
	}
	accept := r.Header.Get("Accept-Language")
	if accept == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	return Languages[idx]
}
