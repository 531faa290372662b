package search

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/NeverVane/keepsake/internal/logger"
	"github.com/NeverVane/keepsake/internal/snippet"
)

// Matcher finds stored snippets by pattern. Each call builds a
// memory-only Bleve index over the snippet set, which stays cheap at
// personal-collection sizes, and unions the scored hits with a plain
// case-insensitive substring scan over the template keys so patterns
// like "-czf" or "s {d" always land.
type Matcher struct {
	opts   Options
	logger *logger.Logger
}

// Options controls match behavior.
type Options struct {
	// Fuzziness is the edit distance tolerated on single terms.
	Fuzziness int `json:"fuzziness"`

	// BoostExactMatch raises the score of templates containing the
	// pattern terms verbatim.
	BoostExactMatch float64 `json:"boost_exact"`

	// BoostPrefix raises the score of templates with a term starting
	// with the pattern.
	BoostPrefix float64 `json:"boost_prefix"`

	// MinScore drops low-relevance Bleve hits before the substring
	// union.
	MinScore float64 `json:"min_score"`

	// MaxCandidates caps how many Bleve hits are evaluated.
	MaxCandidates int `json:"max_candidates"`
}

// searchableSnippet is the document shape stored in the index.
type searchableSnippet struct {
	Template    string `json:"template"`
	Description string `json:"description"`
}

// DefaultOptions returns the match tuning used by the CLI.
func DefaultOptions() Options {
	return Options{
		Fuzziness:       1,
		BoostExactMatch: 3.0,
		BoostPrefix:     2.0,
		MinScore:        0.1,
		MaxCandidates:   1000,
	}
}

// NewMatcher creates a Matcher. A nil opts selects DefaultOptions.
func NewMatcher(opts *Options) *Matcher {
	o := DefaultOptions()
	if opts != nil {
		o = *opts
	}
	return &Matcher{
		opts:   o,
		logger: logger.GetLogger().WithComponent("search"),
	}
}

// Match returns the snippets matching pattern, best first: Bleve hits
// in score order, then substring-only hits in the input order. An empty
// pattern matches everything. A slice of length zero means nothing
// matched; the caller decides what an empty store means.
func (m *Matcher) Match(snippets []snippet.Snippet, pattern string) ([]snippet.Snippet, error) {
	if pattern == "" {
		out := make([]snippet.Snippet, len(snippets))
		copy(out, snippets)
		return out, nil
	}
	if len(snippets) == 0 {
		return []snippet.Snippet{}, nil
	}

	index, err := bleve.NewMemOnly(m.createIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}
	defer index.Close()

	batch := index.NewBatch()
	for _, sn := range snippets {
		doc := searchableSnippet{Template: sn.Template, Description: sn.Description}
		if err := batch.Index(sn.Template, doc); err != nil {
			return nil, fmt.Errorf("failed to index snippet: %w", err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return nil, fmt.Errorf("failed to build search index: %w", err)
	}

	request := bleve.NewSearchRequest(m.buildQuery(pattern))
	request.Size = m.opts.MaxCandidates
	request.Fields = []string{"template", "description"}

	result, err := index.Search(request)
	if err != nil {
		return nil, fmt.Errorf("search execution failed: %w", err)
	}

	matched := make([]snippet.Snippet, 0, len(result.Hits))
	seen := make(map[string]bool, len(result.Hits))
	for _, hit := range result.Hits {
		if hit.Score < m.opts.MinScore {
			continue
		}
		sn, err := m.extractSnippetFromHit(hit)
		if err != nil {
			m.logger.Warn().Err(err).Str("doc_id", hit.ID).Msg("Failed to extract snippet from search hit")
			continue
		}
		if seen[sn.Template] {
			continue
		}
		seen[sn.Template] = true
		matched = append(matched, sn)
	}

	// Substring union over the template keys, case-insensitive.
	needle := strings.ToLower(pattern)
	for _, sn := range snippets {
		if seen[sn.Template] {
			continue
		}
		if strings.Contains(strings.ToLower(sn.Template), needle) {
			seen[sn.Template] = true
			matched = append(matched, sn)
		}
	}

	m.logger.Debug().
		Str("pattern", pattern).
		Int("candidates", len(snippets)).
		Int("matched", len(matched)).
		Msg("Pattern match completed")

	return matched, nil
}

// createIndexMapping indexes both fields with English analysis so
// multi-word patterns land on templates and descriptions alike.
func (m *Matcher) createIndexMapping() mapping.IndexMapping {
	snippetMapping := bleve.NewDocumentMapping()

	templateMapping := bleve.NewTextFieldMapping()
	templateMapping.Analyzer = en.AnalyzerName
	templateMapping.Store = true
	templateMapping.Index = true
	templateMapping.IncludeTermVectors = true
	snippetMapping.AddFieldMappingsAt("template", templateMapping)

	descriptionMapping := bleve.NewTextFieldMapping()
	descriptionMapping.Analyzer = en.AnalyzerName
	descriptionMapping.Store = true
	descriptionMapping.Index = true
	snippetMapping.AddFieldMappingsAt("description", descriptionMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("snippet", snippetMapping)
	indexMapping.DefaultMapping = snippetMapping
	return indexMapping
}

// buildQuery combines several strategies as shoulds of one boolean
// query: exact terms boosted highest, then prefix, then fuzzy, then
// description terms.
func (m *Matcher) buildQuery(pattern string) query.Query {
	boolQuery := bleve.NewBooleanQuery()

	if m.opts.BoostExactMatch > 0 {
		exactQuery := bleve.NewMatchQuery(pattern)
		exactQuery.SetField("template")
		exactQuery.SetBoost(m.opts.BoostExactMatch)
		boolQuery.AddShould(exactQuery)
	}

	// Prefix and fuzzy queries skip analysis, so the pattern is
	// lowercased to line up with the analyzer's terms.
	term := strings.ToLower(pattern)

	if m.opts.BoostPrefix > 0 {
		prefixQuery := bleve.NewPrefixQuery(term)
		prefixQuery.SetField("template")
		prefixQuery.SetBoost(m.opts.BoostPrefix)
		boolQuery.AddShould(prefixQuery)
	}

	fuzzyQuery := bleve.NewFuzzyQuery(term)
	fuzzyQuery.SetField("template")
	fuzzyQuery.SetFuzziness(m.opts.Fuzziness)
	fuzzyQuery.SetBoost(1.0)
	boolQuery.AddShould(fuzzyQuery)

	descQuery := bleve.NewMatchQuery(pattern)
	descQuery.SetField("description")
	descQuery.SetBoost(0.8)
	boolQuery.AddShould(descQuery)

	return boolQuery
}

// extractSnippetFromHit converts a Bleve hit back into a snippet.
func (m *Matcher) extractSnippetFromHit(hit *search.DocumentMatch) (snippet.Snippet, error) {
	var sn snippet.Snippet
	if template, ok := hit.Fields["template"].(string); ok {
		sn.Template = template
	}
	if desc, ok := hit.Fields["description"].(string); ok {
		sn.Description = desc
	}
	if sn.Template == "" {
		return snippet.Snippet{}, fmt.Errorf("invalid hit: missing template field")
	}
	return sn, nil
}
