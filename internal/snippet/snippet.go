package snippet

import (
	"fmt"
	"sort"
	"strings"
)

// Snippet pairs a stored command template with its description. The
// template is the identity of the snippet: the store keys on it and two
// snippets with the same template are the same entry.
type Snippet struct {
	Template    string `json:"template"`
	Description string `json:"description"`
}

// String renders the snippet the way the CLI displays it.
func (s Snippet) String() string {
	return fmt.Sprintf("$ %s :: %s", s.Template, s.Description)
}

// SortByTemplate orders snippets lexicographically by template so
// listings and store writes are stable across invocations.
func SortByTemplate(snippets []Snippet) {
	sort.Slice(snippets, func(i, j int) bool {
		return snippets[i].Template < snippets[j].Template
	})
}

// Validate rejects snippets that cannot be stored: an empty template has
// no identity, and templates with leading/trailing whitespace would make
// exact-key removal a guessing game.
func (s Snippet) Validate() error {
	if s.Template == "" {
		return fmt.Errorf("snippet template is empty")
	}
	if strings.TrimSpace(s.Template) != s.Template {
		return fmt.Errorf("snippet template has surrounding whitespace")
	}
	return nil
}
