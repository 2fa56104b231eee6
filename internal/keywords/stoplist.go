package keywords

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultStopwords are the common English words dropped before keyword counting.
var DefaultStopwords = []string{
	"the", "and", "is", "to", "a", "of", "in", "for", "on", "at", "with",
	"this", "that", "it", "as", "are", "was", "be",
}

// Stoplist is a set of lowercase tokens excluded from keyword results.
// A nil *Stoplist stops nothing.
type Stoplist struct {
	terms map[string]struct{}
}

func NewStoplist(terms ...string) *Stoplist {
	s := &Stoplist{terms: make(map[string]struct{}, len(terms))}
	s.add(terms)
	return s
}

// DefaultStoplist returns DefaultStopwords plus extra.
func DefaultStoplist(extra ...string) *Stoplist {
	s := NewStoplist(DefaultStopwords...)
	s.add(extra)
	return s
}

func (s *Stoplist) add(terms []string) {
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		s.terms[t] = struct{}{}
	}
}

func (s *Stoplist) IsStop(token string) bool {
	if s == nil {
		return false
	}
	_, ok := s.terms[token]
	return ok
}

// With returns a copy of s extended with terms. s is left unchanged.
func (s *Stoplist) With(terms ...string) *Stoplist {
	out := NewStoplist(s.All()...)
	out.add(terms)
	return out
}

// WithEntity returns a copy of s that also stops every token of the entity
// name, so the entity being analyzed does not dominate its own keyword list.
func (s *Stoplist) WithEntity(entity string) *Stoplist {
	return s.With(Normalize([]string{entity}, nil)...)
}

// All returns the stopwords in lexical order.
func (s *Stoplist) All() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.terms))
	for t := range s.terms {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

func (s *Stoplist) Len() int {
	if s == nil {
		return 0
	}
	return len(s.terms)
}

type stoplistFile struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplistFile reads extra stopwords from a YAML file of the form
//
//	terms:
//	  - bank
//	  - rt
func LoadStoplistFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stoplist file: %w", err)
	}

	var sl stoplistFile
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, fmt.Errorf("failed to parse stoplist file %s: %w", path, err)
	}

	return sl.Terms, nil
}
