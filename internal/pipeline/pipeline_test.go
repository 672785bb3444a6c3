package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"resume-analyzer/internal/extract"
	"resume-analyzer/internal/profile"
	"resume-analyzer/internal/storage"
)

type stubAcquirer struct {
	err error
}

func (s *stubAcquirer) Extract(_ context.Context, filename string, data []byte) (*extract.Extracted, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &extract.Extracted{Text: "raw text of " + string(data), Kind: ".txt"}, nil
}

type stubNormalizer struct {
	err error
}

func (s *stubNormalizer) NormalizeText(_ context.Context, text string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "fixed: " + text, nil
}

type stubParser struct {
	failOn string // substring of input text that triggers failure
	block  bool   // block until context cancellation
}

func (s *stubParser) ExtractProfile(ctx context.Context, text string) (*profile.Analysis, json.RawMessage, error) {
	if s.block {
		<-ctx.Done()
		return nil, nil, ctx.Err()
	}
	if s.failOn != "" && strings.Contains(text, s.failOn) {
		return nil, nil, fmt.Errorf("model returned garbage")
	}
	a := &profile.Analysis{
		CandidateName:     "Ayse Yilmaz",
		Age:               30,
		ExperienceLevel:   profile.ExperienceSenior,
		PrimaryDepartment: "Housekeeping",
		DepartmentScores: []profile.DepartmentScore{
			{Category: profile.CategoryAccommodation, Department: "Housekeeping", Score: 85},
		},
		RoleSkills: profile.RoleSkills{
			CustomerFacing: []profile.Skill{{Name: "Teamwork", Level: 4}},
		},
		Personal:   profile.Personal{Email: "ayse@example.com"},
		Attributes: profile.Attributes{SalaryExpectation: 42000},
	}
	a.Normalize()
	raw, _ := json.Marshal(a)
	return a, raw, nil
}

type memBlobs struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemBlobs() *memBlobs { return &memBlobs{m: make(map[string][]byte)} }

func (b *memBlobs) Store(key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.m[key] = append([]byte(nil), data...)
	return nil
}

func (b *memBlobs) Load(key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.m[key]
	if !ok {
		return nil, fmt.Errorf("blob %s not found", key)
	}
	return data, nil
}

func (b *memBlobs) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.m[key]
	return ok
}

type fixture struct {
	store *storage.MemoryStore
	blobs *memBlobs
}

func seedDocument(t *testing.T, f *fixture, id, content string) {
	t.Helper()
	fileID := "file-" + id
	if err := f.blobs.Store(fileID, []byte(content)); err != nil {
		t.Fatal(err)
	}
	err := f.store.Create(context.Background(), &storage.Document{
		ID:         id,
		FileID:     fileID,
		Filename:   id + ".txt",
		UploadedAt: time.Now(),
		Status:     storage.StatusPending,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func newFixture() *fixture {
	return &fixture{store: storage.NewMemoryStore(), blobs: newMemBlobs()}
}

func newRunner(f *fixture, acq *stubAcquirer, norm *stubNormalizer, parser *stubParser, cfg Config) *Runner {
	return NewRunner(f.store, f.blobs, acq, norm, parser, cfg, nil)
}

func TestAnalyzeSuccess(t *testing.T) {
	f := newFixture()
	seedDocument(t, f, "doc1", "resume body")
	r := newRunner(f, &stubAcquirer{}, &stubNormalizer{}, &stubParser{}, Config{})

	outcome, err := r.Analyze(context.Background(), "doc1")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if outcome.Status != storage.StatusCompleted || outcome.Err != "" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	doc, _ := f.store.Get(context.Background(), "doc1")
	if !doc.Analyzed || doc.Analysis == nil || doc.Error != "" {
		t.Errorf("completed invariant violated: %+v", doc)
	}
	if doc.FirstName != "Ayse" || doc.LastName != "Yilmaz" || doc.Age != 30 {
		t.Errorf("demographics not applied: %+v", doc)
	}
	if doc.Email != "ayse@example.com" || doc.ExpectedSalary != 42000 {
		t.Errorf("contact fields not applied: %+v", doc)
	}
	if len(doc.Tags) == 0 || doc.Tags[0] != "dept:Housekeeping" {
		t.Errorf("tags not derived: %v", doc.Tags)
	}
	if !f.blobs.has("doc1_original") || !f.blobs.has("doc1_fixed") {
		t.Error("stage artifacts missing")
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	f := newFixture()
	seedDocument(t, f, "doc1", "resume body")
	r := newRunner(f, &stubAcquirer{}, &stubNormalizer{}, &stubParser{}, Config{})

	ctx := context.Background()
	if _, err := r.Analyze(ctx, "doc1"); err != nil {
		t.Fatal(err)
	}
	first, _ := f.store.Get(ctx, "doc1")

	if _, err := r.Analyze(ctx, "doc1"); err != nil {
		t.Fatal(err)
	}
	second, _ := f.store.Get(ctx, "doc1")

	firstJSON, _ := json.Marshal(first.Analysis)
	secondJSON, _ := json.Marshal(second.Analysis)
	if string(firstJSON) != string(secondJSON) {
		t.Errorf("analysis differs between runs:\n%s\n%s", firstJSON, secondJSON)
	}
	if strings.Join(first.Tags, ",") != strings.Join(second.Tags, ",") {
		t.Errorf("tags differ between runs: %v vs %v", first.Tags, second.Tags)
	}
}

func TestAnalyzeAcquisitionFailure(t *testing.T) {
	f := newFixture()
	seedDocument(t, f, "doc1", "resume body")
	r := newRunner(f, &stubAcquirer{err: fmt.Errorf("unreadable scan")}, &stubNormalizer{}, &stubParser{}, Config{})

	outcome, err := r.Analyze(context.Background(), "doc1")
	if err != nil {
		t.Fatalf("stage failure should not surface as an error: %v", err)
	}
	if outcome.Status != storage.StatusError || !strings.HasPrefix(outcome.Err, "acquisition failed:") {
		t.Errorf("unexpected outcome: %+v", outcome)
	}

	doc, _ := f.store.Get(context.Background(), "doc1")
	if doc.Status != storage.StatusError || doc.Error == "" || doc.Analyzed {
		t.Errorf("error invariant violated: %+v", doc)
	}
	if f.blobs.has("doc1_original") {
		t.Error("failed acquisition should write no artifact")
	}
}

func TestAnalyzeNormalizationFallback(t *testing.T) {
	f := newFixture()
	seedDocument(t, f, "doc1", "resume body")
	r := newRunner(f, &stubAcquirer{}, &stubNormalizer{err: fmt.Errorf("model timeout")}, &stubParser{}, Config{})

	outcome, err := r.Analyze(context.Background(), "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Status != storage.StatusError || !strings.HasPrefix(outcome.Err, "normalization failed:") {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	doc, _ := f.store.Get(context.Background(), "doc1")
	// Non-fatal policy: the document is marked error but extraction still ran
	// against the raw text, so partial results remain searchable.
	if doc.Analysis == nil || len(doc.Tags) == 0 {
		t.Errorf("fallback should still produce analysis and tags: %+v", doc)
	}
	if doc.Analyzed {
		t.Error("errored document must not be marked analyzed")
	}
	if !f.blobs.has("doc1_original") {
		t.Error("raw artifact should be kept")
	}
	if f.blobs.has("doc1_fixed") {
		t.Error("fixed artifact should be skipped when normalization fails")
	}
}

func TestAnalyzeExtractionFailure(t *testing.T) {
	f := newFixture()
	seedDocument(t, f, "doc1", "garbage-body")
	r := newRunner(f, &stubAcquirer{}, &stubNormalizer{}, &stubParser{failOn: "garbage"}, Config{})

	outcome, err := r.Analyze(context.Background(), "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Status != storage.StatusError || !strings.HasPrefix(outcome.Err, "extraction failed:") {
		t.Errorf("unexpected outcome: %+v", outcome)
	}
	// Earlier artifacts survive the failure.
	if !f.blobs.has("doc1_original") || !f.blobs.has("doc1_fixed") {
		t.Error("artifacts from successful stages should be kept")
	}
}

func TestAnalyzeStageTimeout(t *testing.T) {
	f := newFixture()
	seedDocument(t, f, "doc1", "resume body")
	r := newRunner(f, &stubAcquirer{}, &stubNormalizer{}, &stubParser{block: true},
		Config{StageTimeout: 20 * time.Millisecond})

	outcome, err := r.Analyze(context.Background(), "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Status != storage.StatusError || !strings.HasPrefix(outcome.Err, "extraction failed:") {
		t.Errorf("timed-out stage should fail like any stage: %+v", outcome)
	}
}

func TestAnalyzeUnknownDocument(t *testing.T) {
	f := newFixture()
	r := newRunner(f, &stubAcquirer{}, &stubNormalizer{}, &stubParser{}, Config{})

	outcome, err := r.Analyze(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unknown id should be a per-document outcome, got error: %v", err)
	}
	if outcome.Status != storage.StatusError || outcome.Err != "document not found" {
		t.Errorf("unexpected outcome: %+v", outcome)
	}
}

func TestAnalyzeManyIndependence(t *testing.T) {
	f := newFixture()
	ids := make([]string, 0, 5)
	for i := 1; i <= 5; i++ {
		id := fmt.Sprintf("doc%d", i)
		content := "resume body"
		if i == 3 {
			content = "poison resume body"
		}
		seedDocument(t, f, id, content)
		ids = append(ids, id)
	}
	r := newRunner(f, &stubAcquirer{}, &stubNormalizer{}, &stubParser{failOn: "poison"}, Config{Concurrency: 3})

	outcomes, err := r.AnalyzeMany(context.Background(), ids)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(outcomes) != 5 {
		t.Fatalf("expected 5 outcomes, got %d", len(outcomes))
	}
	for _, id := range ids {
		outcome, ok := outcomes[id]
		if !ok {
			t.Fatalf("missing outcome for %s", id)
		}
		if id == "doc3" {
			if outcome.Status != storage.StatusError {
				t.Errorf("doc3 should fail, got %+v", outcome)
			}
			continue
		}
		if outcome.Status != storage.StatusCompleted {
			t.Errorf("%s should complete unaffected, got %+v", id, outcome)
		}
	}
}

func TestAnalyzeManyDeduplicatesIDs(t *testing.T) {
	f := newFixture()
	seedDocument(t, f, "doc1", "resume body")
	r := newRunner(f, &stubAcquirer{}, &stubNormalizer{}, &stubParser{}, Config{})

	outcomes, err := r.AnalyzeMany(context.Background(), []string{"doc1", "doc1", "doc1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 1 {
		t.Errorf("expected 1 outcome for duplicated id, got %d", len(outcomes))
	}
}

func TestAnalyzeManyUnknownIDs(t *testing.T) {
	f := newFixture()
	seedDocument(t, f, "doc1", "resume body")
	r := newRunner(f, &stubAcquirer{}, &stubNormalizer{}, &stubParser{}, Config{})

	outcomes, err := r.AnalyzeMany(context.Background(), []string{"doc1", "ghost"})
	if err != nil {
		t.Fatal(err)
	}
	if outcomes["ghost"].Err != "document not found" {
		t.Errorf("unknown id should yield a failed outcome: %+v", outcomes["ghost"])
	}
	if outcomes["doc1"].Status != storage.StatusCompleted {
		t.Errorf("known id should be unaffected: %+v", outcomes["doc1"])
	}
}
