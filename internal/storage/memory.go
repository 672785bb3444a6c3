package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store with the same predicate semantics as
// the Postgres implementation. It backs tests and local development runs
// without a database.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*Document)}
}

func (m *MemoryStore) Create(_ context.Context, doc *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[doc.ID]; ok {
		return fmt.Errorf("duplicate document id %s", doc.ID)
	}
	for _, existing := range m.docs {
		if existing.FileID == doc.FileID {
			return fmt.Errorf("duplicate file id %s", doc.FileID)
		}
	}
	m.docs[doc.ID] = clone(doc)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(doc), nil
}

func (m *MemoryStore) GetByFileID(_ context.Context, fileID string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, doc := range m.docs {
		if doc.FileID == fileID {
			return clone(doc), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) List(_ context.Context) ([]*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := make([]*Document, 0, len(m.docs))
	for _, doc := range m.docs {
		docs = append(docs, clone(doc))
	}
	sortByUploadDesc(docs)
	return docs, nil
}

func (m *MemoryStore) Update(_ context.Context, doc *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[doc.ID]; !ok {
		return ErrNotFound
	}
	m.docs[doc.ID] = clone(doc)
	return nil
}

func (m *MemoryStore) SetStatus(_ context.Context, id string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	doc.Status = status
	return nil
}

func (m *MemoryStore) SetError(_ context.Context, id, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	doc.Status = StatusError
	doc.Error = msg
	doc.Analyzed = false
	return nil
}

func (m *MemoryStore) Query(_ context.Context, f Filter) ([]*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var docs []*Document
	for _, doc := range m.docs {
		if f.Matches(doc) {
			docs = append(docs, clone(doc))
		}
	}
	sortByUploadDesc(docs)
	return docs, nil
}

func sortByUploadDesc(docs []*Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})
}

func clone(doc *Document) *Document {
	c := *doc
	if doc.Tags != nil {
		c.Tags = append([]string(nil), doc.Tags...)
	}
	if doc.ParsedData != nil {
		c.ParsedData = append([]byte(nil), doc.ParsedData...)
	}
	if doc.Analysis != nil {
		a := *doc.Analysis
		c.Analysis = &a
	}
	return &c
}
