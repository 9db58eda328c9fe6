// Package search provides full-text search over the faculty catalogue.
package search

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/ru"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/tusur-bots/faculty-advisor/internal/lexicon"
	"github.com/tusur-bots/faculty-advisor/internal/logging"
)

const defaultLimit = 5

// Result is a faculty matching a query.
type Result struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Indexer is an in-memory index of faculty profiles.
type Indexer struct {
	bleveIndex bleve.Index
	mu         sync.RWMutex
}

// NewIndexer creates an empty in-memory index.
func NewIndexer() (*Indexer, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}
	return &Indexer{bleveIndex: index}, nil
}

// NewCatalogue creates an index holding every faculty of the lexicon.
func NewCatalogue(lex *lexicon.Lexicon) (*Indexer, error) {
	idx, err := NewIndexer()
	if err != nil {
		return nil, err
	}
	if err := idx.IndexFaculties(lex.Faculties()); err != nil {
		idx.Close()
		return nil, err
	}
	return idx, nil
}

// buildIndexMapping creates the Bleve index mapping. Text fields use the
// Russian analyzer so inflected query words find their stems.
func buildIndexMapping() mapping.IndexMapping {
	facultyMapping := bleve.NewDocumentMapping()

	for _, field := range []string{"name", "summary", "keywords", "programmes"} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = ru.AnalyzerName
		facultyMapping.AddFieldMappingsAt(field, fm)
	}

	codeMapping := bleve.NewKeywordFieldMapping()
	codeMapping.IncludeInAll = false
	facultyMapping.AddFieldMappingsAt("code", codeMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = ru.AnalyzerName
	indexMapping.AddDocumentMapping("_default", facultyMapping)

	return indexMapping
}

// IndexFaculties (re)indexes the given profiles by code.
func (i *Indexer) IndexFaculties(faculties []lexicon.Faculty) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	batch := i.bleveIndex.NewBatch()
	for _, f := range faculties {
		doc := map[string]interface{}{
			"code":       f.Code,
			"name":       f.Name,
			"summary":    f.Summary,
			"keywords":   strings.Join(f.Keywords, " "),
			"programmes": strings.Join(f.Programmes, " "),
		}
		if err := batch.Index(f.Code, doc); err != nil {
			logging.Warn().Err(err).Str("faculty", f.Code).Msg("failed to index faculty")
		}
	}

	if err := i.bleveIndex.Batch(batch); err != nil {
		return fmt.Errorf("failed to batch index faculties: %w", err)
	}
	return nil
}

// Search returns faculties matching text, best first.
func (i *Indexer) Search(text string, limit int) ([]Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(text), limit, 0, false)
	req.Fields = []string{"name"}

	res, err := i.bleveIndex.Search(req)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	results := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		name, _ := hit.Fields["name"].(string)
		results = append(results, Result{Code: hit.ID, Name: name, Score: hit.Score})
	}
	return results, nil
}

// Count returns the number of indexed faculties.
func (i *Indexer) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	n, err := i.bleveIndex.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to get doc count: %w", err)
	}
	return n, nil
}

// Close releases the index.
func (i *Indexer) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.bleveIndex != nil {
		return i.bleveIndex.Close()
	}
	return nil
}
