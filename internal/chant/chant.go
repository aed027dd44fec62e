// Package chant verifies transcribed spoken phrases against a fixed
// six-syllable target chant.
//
// Matching is positional. Each syllable has a closed set of accepted
// phonetic variants, and a token matches a variant when either one
// contains the other as a substring. This tolerates the diacritic loss
// and trailing fragments typical of speech transcription without
// accepting reordered or substituted words.
package chant

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Matcher checks phrases against its configured syllable sequence.
// A Matcher is stateless and safe for concurrent use.
type Matcher struct {
	syllables [][]string
}

// defaultSyllables covers the common transcriptions of
// "nam mô a di đà phật".
var defaultSyllables = [][]string{
	{"nam", "năm"},
	{"mô", "mo", "mồ", "mố"},
	{"a", "à"},
	{"di", "dì", "đi", "đì"},
	{"đà", "da", "đa", "dà"},
	{"phật", "phat", "phất"},
}

// NewMatcher returns a Matcher for the default chant.
func NewMatcher() *Matcher {
	return &Matcher{syllables: defaultSyllables}
}

type chantFile struct {
	Name      string     `yaml:"name"`
	Syllables [][]string `yaml:"syllables"`
}

// LoadMatcher reads a chant definition from a YAML file.
func LoadMatcher(path string) (*Matcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chant file: %w", err)
	}
	var cf chantFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parsing chant file %s: %w", path, err)
	}
	if len(cf.Syllables) == 0 {
		return nil, fmt.Errorf("chant file %s defines no syllables", path)
	}
	for i, variants := range cf.Syllables {
		if len(variants) == 0 {
			return nil, fmt.Errorf("chant file %s: syllable %d has no variants", path, i)
		}
	}
	return &Matcher{syllables: cf.Syllables}, nil
}

// Len returns the number of syllables in the target phrase.
func (m *Matcher) Len() int {
	return len(m.syllables)
}

// Phrase returns the canonical form of the target phrase, built from
// each syllable's first variant.
func (m *Matcher) Phrase() string {
	first := make([]string, len(m.syllables))
	for i, variants := range m.syllables {
		first[i] = variants[0]
	}
	return strings.Join(first, " ")
}

// Normalize lowercases a transcript, strips punctuation, and splits it
// into whitespace-separated tokens.
func Normalize(phrase string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(phrase) {
		if unicode.IsPunct(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Fields(b.String())
}

// Match reports whether the transcript matches the target phrase. The
// transcript must supply at least one token per syllable; tokens beyond
// the last syllable are ignored.
func (m *Matcher) Match(phrase string) bool {
	tokens := Normalize(phrase)
	if len(tokens) < len(m.syllables) {
		return false
	}
	for i, variants := range m.syllables {
		if !matchesAny(tokens[i], variants) {
			return false
		}
	}
	return true
}

// Progress returns how many leading syllables of the transcript match,
// for interim feedback while the player is still speaking. It stops at
// the first miss.
func (m *Matcher) Progress(phrase string) int {
	tokens := Normalize(phrase)
	n := 0
	for i, variants := range m.syllables {
		if i >= len(tokens) || !matchesAny(tokens[i], variants) {
			break
		}
		n++
	}
	return n
}

func matchesAny(token string, variants []string) bool {
	for _, v := range variants {
		if strings.Contains(token, v) || strings.Contains(v, token) {
			return true
		}
	}
	return false
}
