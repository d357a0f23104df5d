package stencil

import (
	"fmt"
	"strings"
	"sync"
)

// Substitution pairs a placeholder token with its replacement value
type Substitution struct {
	Token string
	Value string
}

// SubstitutionMap is an ordered set of token to value pairs. Tokens are unique;
// values may be empty. All tokens are replaced in a single pass, so a value
// that itself looks like a token is never substituted again.
type SubstitutionMap struct {
	pairs []Substitution
	index map[string]int

	once     sync.Once
	replacer *strings.Replacer
}

// NewSubstitutionMap builds a map from pairs, rejecting blank or duplicate tokens
func NewSubstitutionMap(pairs ...Substitution) (*SubstitutionMap, error) {
	m := &SubstitutionMap{index: make(map[string]int, len(pairs))}
	for _, pair := range pairs {
		if err := m.add(pair.Token, pair.Value); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *SubstitutionMap) add(token, value string) error {
	if token == "" {
		return fmt.Errorf("substitution token must not be empty")
	}
	if _, dup := m.index[token]; dup {
		return fmt.Errorf("duplicate substitution token %q", token)
	}
	m.index[token] = len(m.pairs)
	m.pairs = append(m.pairs, Substitution{Token: token, Value: value})
	return nil
}

// Len returns the number of pairs
func (m *SubstitutionMap) Len() int {
	return len(m.pairs)
}

// Tokens returns the tokens in insertion order
func (m *SubstitutionMap) Tokens() []string {
	tokens := make([]string, len(m.pairs))
	for i, pair := range m.pairs {
		tokens[i] = pair.Token
	}
	return tokens
}

// Value returns the replacement for token
func (m *SubstitutionMap) Value(token string) (string, bool) {
	idx, ok := m.index[token]
	if !ok {
		return "", false
	}
	return m.pairs[idx].Value, true
}

// Matches reports whether text contains any token of the map
func (m *SubstitutionMap) Matches(text string) bool {
	for _, pair := range m.pairs {
		if strings.Contains(text, pair.Token) {
			return true
		}
	}
	return false
}

// Apply replaces every token occurrence in text. The boolean reports whether
// any token was present.
func (m *SubstitutionMap) Apply(text string) (string, bool) {
	if !m.Matches(text) {
		return text, false
	}
	m.once.Do(func() {
		oldnew := make([]string, 0, 2*len(m.pairs))
		for _, pair := range m.pairs {
			oldnew = append(oldnew, pair.Token, pair.Value)
		}
		m.replacer = strings.NewReplacer(oldnew...)
	})
	return m.replacer.Replace(text), true
}
