package labels_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"planboard/internal/labels"
)

func writeTables(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestBundle_LookupWithFallbacks(t *testing.T) {
	dir := t.TempDir()
	writeTables(t, dir, map[string]string{
		"en.yaml": "canvas.toolbar.note: Add note\ncanvas.toolbar.drill: Add drill\n",
		"fr.yaml": "canvas.toolbar.note: Ajouter une note\n",
		"README":  "ignored",
	})

	b, err := labels.NewBundle("en", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.LoadDir(dir); err != nil {
		t.Fatal(err)
	}

	fr := b.For("fr")
	if got := fr.Label("canvas.toolbar.note", "x"); got != "Ajouter une note" {
		t.Errorf("fr note = %q", got)
	}
	if got := fr.Label("canvas.toolbar.drill", "x"); got != "Add drill" {
		t.Errorf("missing fr key should fall back to default locale, got %q", got)
	}
	if got := fr.Label("canvas.unknown", "Fallback"); got != "Fallback" {
		t.Errorf("unknown key should use the in-code fallback, got %q", got)
	}
	if got := b.For("ja").Label("canvas.toolbar.note", "x"); got != "Add note" {
		t.Errorf("unsupported locale should use default, got %q", got)
	}
	if got := b.Locales(); !reflect.DeepEqual(got, []string{"en", "fr"}) {
		t.Errorf("locales = %v", got)
	}
}

func TestBundle_UnsupportedLocaleFile(t *testing.T) {
	dir := t.TempDir()
	writeTables(t, dir, map[string]string{"xx.yaml": "a: b\n"})
	b, _ := labels.NewBundle("en", nil)
	if err := b.LoadDir(dir); err == nil {
		t.Fatal("expected error for unknown locale")
	}
}

func TestBundle_EmptyIsAllFallbacks(t *testing.T) {
	b, _ := labels.NewBundle("", nil)
	if got := b.For().Label("k", "Default"); got != "Default" {
		t.Errorf("got %q", got)
	}
}

func TestBundle_WatchReloads(t *testing.T) {
	dir := t.TempDir()
	writeTables(t, dir, map[string]string{"en.yaml": "greeting: Hello\n"})
	b, _ := labels.NewBundle("en", nil)
	if err := b.LoadDir(dir); err != nil {
		t.Fatal(err)
	}
	w, err := b.Watch(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	l := b.For("en")
	writeTables(t, dir, map[string]string{"en.yaml": "greeting: Welcome back\n"})

	deadline := time.Now().Add(3 * time.Second)
	for l.Label("greeting", "") != "Welcome back" {
		if time.Now().After(deadline) {
			t.Fatalf("reload not observed, still %q", l.Label("greeting", ""))
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestParseAcceptLanguage(t *testing.T) {
	got := labels.ParseAcceptLanguage("fr-CA, fr;q=0.9, en_US;q=0.8, *;q=0.1")
	if !reflect.DeepEqual(got, []string{"fr", "en"}) {
		t.Errorf("got %v", got)
	}
}
