package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"resume-analyzer/internal/storage"
)

// Query describes one search request. Term is free text matched with
// weighted per-field relevance; every other field is a structured filter
// composed with AND semantics.
type Query struct {
	Term       string   `json:"term,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Name       string   `json:"name,omitempty"`
	Department string   `json:"department,omitempty"`
	AgeMin     *int     `json:"age_min,omitempty"`
	AgeMax     *int     `json:"age_max,omitempty"`
	SalaryMin  *int     `json:"salary_min,omitempty"`
	SalaryMax  *int     `json:"salary_max,omitempty"`
	Page       int      `json:"page,omitempty"`
	PageSize   int      `json:"page_size,omitempty"`
}

// Result is one page of ranked records plus pagination metadata.
type Result struct {
	Records  []*storage.Document `json:"records"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
	Pages    int                 `json:"pages"`
}

// Relevance weights per field group. Names dominate, email barely counts.
const (
	weightName       = 10.0
	weightFilename   = 6.0
	weightTag        = 6.0
	weightSkill      = 4.0
	weightDepartment = 4.0
	weightLanguage   = 2.0
	weightEducation  = 2.0
	weightEmail      = 1.0
)

// Engine ranks stored document records. Structured filtering is delegated
// to the store; scoring, ordering, pagination and output normalization
// happen here.
type Engine struct {
	store           storage.Store
	defaultPageSize int
	logger          *zap.Logger
}

func NewEngine(store storage.Store, defaultPageSize int, logger *zap.Logger) *Engine {
	if defaultPageSize <= 0 {
		defaultPageSize = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, defaultPageSize: defaultPageSize, logger: logger}
}

// Search returns the requested page of matching records. Free-text queries
// rank by relevance descending; without a term, records order by upload
// time descending. An empty result set is a valid response, not an error.
func (e *Engine) Search(ctx context.Context, q Query) (*Result, error) {
	q.normalize(e.defaultPageSize)

	docs, err := e.store.Query(ctx, storage.Filter{
		Tags:       q.Tags,
		Name:       q.Name,
		Department: q.Department,
		AgeMin:     q.AgeMin,
		AgeMax:     q.AgeMax,
		SalaryMin:  q.SalaryMin,
		SalaryMax:  q.SalaryMax,
	})
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}

	if tokens := tokenize(q.Term); len(tokens) > 0 {
		docs = rank(docs, tokens)
	}

	total := len(docs)
	pages := (total + q.PageSize - 1) / q.PageSize
	docs = page(docs, q.Page, q.PageSize)

	for _, doc := range docs {
		normalizeRecord(doc)
	}

	e.logger.Debug("search executed",
		zap.String("term", q.Term),
		zap.Strings("tags", q.Tags),
		zap.Int("total", total),
		zap.Int("page", q.Page))

	return &Result{
		Records:  docs,
		Total:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
		Pages:    pages,
	}, nil
}

func (q *Query) normalize(defaultPageSize int) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
}

// rank drops records with no term overlap and sorts the rest by relevance,
// breaking ties on upload time so results stay stable.
func rank(docs []*storage.Document, tokens []string) []*storage.Document {
	type scored struct {
		doc   *storage.Document
		score float64
	}
	matched := make([]scored, 0, len(docs))
	for _, doc := range docs {
		if s := relevance(doc, tokens); s > 0 {
			matched = append(matched, scored{doc: doc, score: s})
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].score != matched[j].score {
			return matched[i].score > matched[j].score
		}
		return matched[i].doc.UploadedAt.After(matched[j].doc.UploadedAt)
	})
	out := make([]*storage.Document, len(matched))
	for i, s := range matched {
		out[i] = s.doc
	}
	return out
}

// relevance sums field weights for every token found in the record.
func relevance(doc *storage.Document, tokens []string) float64 {
	var score float64
	for _, token := range tokens {
		score += weightName * hits(token, doc.FirstName, doc.LastName)
		score += weightFilename * hits(token, doc.Filename)
		score += weightTag * hits(token, doc.Tags...)
		score += weightDepartment * hits(token, doc.Department)
		score += weightEmail * hits(token, doc.Email)
		if doc.Analysis != nil {
			score += weightSkill * hits(token, doc.Analysis.TechnicalSkills...)
			score += weightSkill * hits(token, doc.Analysis.SoftSkills...)
			score += weightLanguage * hits(token, doc.Analysis.Languages...)
			score += weightEducation * hits(token, doc.Analysis.Education...)
		}
	}
	return score
}

func hits(token string, fields ...string) float64 {
	var n float64
	for _, field := range fields {
		if field != "" && strings.Contains(strings.ToLower(field), token) {
			n++
		}
	}
	return n
}

func tokenize(term string) []string {
	return strings.Fields(strings.ToLower(term))
}

func page(docs []*storage.Document, pageNum, size int) []*storage.Document {
	offset := (pageNum - 1) * size
	if offset >= len(docs) {
		return []*storage.Document{}
	}
	end := offset + size
	if end > len(docs) {
		end = len(docs)
	}
	return docs[offset:end]
}

// normalizeRecord guarantees the fields consumers branch on are present:
// tags default to an empty set and analysis to an empty structure, so
// downstream formatting never deals with null.
func normalizeRecord(doc *storage.Document) {
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if doc.Analysis == nil {
		doc.Analysis = &storage.AnalysisSummary{}
	}
}
