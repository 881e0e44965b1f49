// Package labels resolves user-facing strings by key from per-locale YAML
// tables, always with a caller-supplied fallback.
package labels

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/de"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/es"
	"github.com/go-playground/locales/fr"
	ut "github.com/go-playground/universal-translator"
	"gopkg.in/yaml.v3"

	"planboard/internal/domain"
	"planboard/internal/fswatch"
)

// supported lists the locales a table file may be named after.
func supported() []locales.Translator {
	return []locales.Translator{en.New(), es.New(), fr.New(), de.New()}
}

// Bundle holds every loaded label table. Reload swaps the whole set, so
// keys removed from a file disappear.
type Bundle struct {
	mu          sync.RWMutex
	uni         *ut.UniversalTranslator
	keys        map[string]int // locale -> number of keys
	defaultLang string
	log         *slog.Logger
}

// NewBundle returns an empty bundle. defaultLocale is used when none of
// the requested locales is available.
func NewBundle(defaultLocale string, log *slog.Logger) (*Bundle, error) {
	if log == nil {
		log = slog.Default()
	}
	if defaultLocale == "" {
		defaultLocale = "en"
	}
	b := &Bundle{defaultLang: defaultLocale, log: log}
	uni, err := newUniversal(defaultLocale)
	if err != nil {
		return nil, err
	}
	b.uni = uni
	b.keys = map[string]int{}
	return b, nil
}

func newUniversal(defaultLocale string) (*ut.UniversalTranslator, error) {
	all := supported()
	var fallback locales.Translator
	for _, l := range all {
		if l.Locale() == defaultLocale {
			fallback = l
		}
	}
	if fallback == nil {
		return nil, fmt.Errorf("unsupported default locale %q", defaultLocale)
	}
	return ut.New(fallback, all...), nil
}

// Tables maps locale -> key -> text.
type Tables map[string]map[string]string

// Replace installs tables as the complete label set.
func (b *Bundle) Replace(tables Tables) error {
	uni, err := newUniversal(b.defaultLang)
	if err != nil {
		return err
	}
	keys := make(map[string]int, len(tables))
	for locale, table := range tables {
		trans, found := uni.GetTranslator(locale)
		if !found {
			return fmt.Errorf("unsupported locale %q", locale)
		}
		for key, text := range table {
			if err := trans.Add(key, text, true); err != nil {
				return fmt.Errorf("add %s/%s: %w", locale, key, err)
			}
		}
		keys[locale] = len(table)
	}
	b.mu.Lock()
	b.uni = uni
	b.keys = keys
	b.mu.Unlock()
	return nil
}

// LoadDir reads every <locale>.yaml (or .yml) file in dir. Each file is a
// flat map of key to text.
func (b *Bundle) LoadDir(dir string) error {
	tables, err := ReadDir(dir)
	if err != nil {
		return err
	}
	if err := b.Replace(tables); err != nil {
		return err
	}
	b.log.Info("labels loaded", "dir", dir, "locales", b.Locales())
	return nil
}

// ReadDir parses the label files in dir without installing them.
func ReadDir(dir string) (Tables, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read labels dir: %w", err)
	}
	tables := Tables{}
	for _, e := range entries {
		if e.IsDir() || !isTableFile(e.Name()) {
			continue
		}
		locale := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		table := map[string]string{}
		if err := yaml.Unmarshal(raw, &table); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		tables[locale] = table
	}
	return tables, nil
}

func isTableFile(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}

// Watch reloads dir whenever one of its table files changes. A file that
// fails to parse leaves the previous tables in place.
func (b *Bundle) Watch(dir string) (*fswatch.Watcher, error) {
	w, err := fswatch.New(func(path string) {
		if err := b.LoadDir(dir); err != nil {
			b.log.Warn("labels reload failed", "path", path, "error", err)
		}
	}, 100*time.Millisecond, b.log)
	if err != nil {
		return nil, err
	}
	if err := w.WatchDir(dir, isTableFile); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

// Locales lists the locales that have a table, sorted.
func (b *Bundle) Locales() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.keys))
	for l := range b.keys {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// For returns a Labeler preferring the given locales in order, then the
// bundle default. Lookups see later reloads.
func (b *Bundle) For(preferred ...string) domain.Labeler {
	return &labeler{bundle: b, preferred: preferred}
}

func (b *Bundle) lookup(preferred []string, key, fallback string) string {
	b.mu.RLock()
	uni := b.uni
	b.mu.RUnlock()

	candidates := append(append([]string(nil), preferred...), b.defaultLang)
	for _, locale := range candidates {
		trans, found := uni.GetTranslator(locale)
		if !found {
			continue
		}
		if text, err := trans.T(key); err == nil && text != "" {
			return text
		}
	}
	return fallback
}

type labeler struct {
	bundle    *Bundle
	preferred []string
}

func (l *labeler) Label(key, fallback string) string {
	return l.bundle.lookup(l.preferred, key, fallback)
}

// ParseAcceptLanguage turns an Accept-Language header into base language
// codes in preference order ("fr-CA;q=0.8, en" -> [fr en]). Quality values
// other than ordering are ignored.
func ParseAcceptLanguage(header string) []string {
	var out []string
	seen := map[string]bool{}
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if tag == "" || tag == "*" {
			continue
		}
		base := strings.ToLower(strings.SplitN(strings.ReplaceAll(tag, "_", "-"), "-", 2)[0])
		if !seen[base] {
			seen[base] = true
			out = append(out, base)
		}
	}
	return out
}
