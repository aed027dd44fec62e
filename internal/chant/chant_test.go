package chant

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMatchExactPhrase(t *testing.T) {
	m := NewMatcher()
	if !m.Match("nam mô a di đà phật") {
		t.Error("exact phrase should match")
	}
}

func TestMatchVariants(t *testing.T) {
	m := NewMatcher()
	cases := []string{
		"năm mo à dì da phat",
		"nam mồ a đi đa phất",
		"Nam Mô A Di Đà Phật",
	}
	for _, phrase := range cases {
		if !m.Match(phrase) {
			t.Errorf("variant phrase %q should match", phrase)
		}
	}
}

func TestMatchRejectsSubstitution(t *testing.T) {
	m := NewMatcher()
	cases := []string{
		"xin mô a di đà phật",
		"nam chào a di đà phật",
		"nam mô ê di đà phật",
		"nam mô a xe đà phật",
		"nam mô a di ông phật",
		"nam mô a di đà chùa",
	}
	for _, phrase := range cases {
		if m.Match(phrase) {
			t.Errorf("substituted phrase %q should not match", phrase)
		}
	}
}

func TestMatchRejectsShortPhrase(t *testing.T) {
	m := NewMatcher()
	cases := []string{
		"",
		"nam",
		"nam mô a di đà",
	}
	for _, phrase := range cases {
		if m.Match(phrase) {
			t.Errorf("short phrase %q should not match", phrase)
		}
	}
}

func TestMatchIgnoresTrailingTokens(t *testing.T) {
	m := NewMatcher()
	if !m.Match("nam mô a di đà phật nam mô") {
		t.Error("trailing tokens beyond the sixth must be ignored")
	}
}

func TestMatchRejectsReorderedTokens(t *testing.T) {
	m := NewMatcher()
	if m.Match("phật đà di a mô nam") {
		t.Error("matcher is positional, reordered phrase should not match")
	}
}

func TestMatchStripsPunctuation(t *testing.T) {
	m := NewMatcher()
	if !m.Match("nam mô, a di... đà phật!") {
		t.Error("punctuation should be stripped before matching")
	}
}

func TestProgress(t *testing.T) {
	m := NewMatcher()
	cases := []struct {
		phrase string
		want   int
	}{
		{"", 0},
		{"nam", 1},
		{"nam mô", 2},
		{"nam mô a di", 4},
		{"nam mô a di đà phật", 6},
		{"nam xo a di", 1},
	}
	for _, c := range cases {
		if got := m.Progress(c.phrase); got != c.want {
			t.Errorf("Progress(%q) = %d, want %d", c.phrase, got, c.want)
		}
	}
}

func TestPhrase(t *testing.T) {
	m := NewMatcher()
	if got := m.Phrase(); got != "nam mô a di đà phật" {
		t.Errorf("Phrase() = %q", got)
	}
}

func TestLoadMatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chant.yaml")
	data := `name: test chant
syllables:
  - [om]
  - [mani]
  - [padme]
  - [hum]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadMatcher(path)
	if err != nil {
		t.Fatalf("LoadMatcher: %v", err)
	}
	if m.Len() != 4 {
		t.Errorf("Len = %d, want 4", m.Len())
	}
	if !m.Match("om mani padme hum") {
		t.Error("loaded chant should match its own phrase")
	}
}

func TestLoadMatcherRejectsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(path, []byte("name: empty\nsyllables: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMatcher(path); err == nil {
		t.Error("expected error for chant with no syllables")
	}
}
