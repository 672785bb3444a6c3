package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"resume-analyzer/internal/extract"
	"resume-analyzer/internal/profile"
	"resume-analyzer/internal/storage"
)

// Capability interfaces consumed by the orchestrator. Each is an
// out-of-process round trip that may be slow, fail, or return garbage.

type Acquirer interface {
	Extract(ctx context.Context, filename string, data []byte) (*extract.Extracted, error)
}

type Normalizer interface {
	NormalizeText(ctx context.Context, text string) (string, error)
}

type Parser interface {
	ExtractProfile(ctx context.Context, text string) (*profile.Analysis, json.RawMessage, error)
}

// Blobs stores per-stage text artifacts keyed by document identity.
type Blobs interface {
	Store(key string, data []byte) error
	Load(key string) ([]byte, error)
}

// Outcome is the per-document result of one pipeline run. Err is set for
// stage failures; infrastructure failures surface as Go errors instead.
type Outcome struct {
	DocumentID string         `json:"document_id"`
	Status     storage.Status `json:"status"`
	Err        string         `json:"error,omitempty"`
	Tags       []string       `json:"tags,omitempty"`
}

// Runner sequences the analysis stages for single documents and fans out
// batches. All collaborators are injected.
type Runner struct {
	store        storage.Store
	blobs        Blobs
	acquirer     Acquirer
	normalizer   Normalizer
	parser       Parser
	logger       *zap.Logger
	stageTimeout time.Duration
	concurrency  int
}

type Config struct {
	StageTimeout time.Duration // 0 disables per-stage timeouts
	Concurrency  int           // batch fan-out width
}

func NewRunner(store storage.Store, blobs Blobs, acquirer Acquirer, normalizer Normalizer, parser Parser, cfg Config, logger *zap.Logger) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		store:        store,
		blobs:        blobs,
		acquirer:     acquirer,
		normalizer:   normalizer,
		parser:       parser,
		logger:       logger,
		stageTimeout: cfg.StageTimeout,
		concurrency:  cfg.Concurrency,
	}
}

// Analyze runs the full pipeline for one document: acquisition, raw-text
// artifact, normalization, fixed-text artifact, structured extraction, tag
// derivation, final persist. Every stage failure is converted here into a
// terminal per-document error state; the returned error is reserved for
// store-level failures. Re-invocation re-runs all stages and overwrites.
func (r *Runner) Analyze(ctx context.Context, id string) (Outcome, error) {
	log := r.logger.With(zap.String("document_id", id))

	doc, err := r.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return Outcome{DocumentID: id, Status: storage.StatusError, Err: "document not found"}, nil
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("load document %s: %w", id, err)
	}

	if err := r.store.SetStatus(ctx, id, storage.StatusProcessing); err != nil {
		return Outcome{}, fmt.Errorf("mark %s processing: %w", id, err)
	}

	data, err := r.blobs.Load(doc.FileID)
	if err != nil {
		return r.fail(ctx, log, id, fmt.Sprintf("acquisition failed: %v", err))
	}

	// Stage 1: acquire raw text.
	var extracted *extract.Extracted
	err = r.stage(ctx, func(ctx context.Context) error {
		var stageErr error
		extracted, stageErr = r.acquirer.Extract(ctx, doc.Filename, data)
		return stageErr
	})
	if err != nil {
		return r.fail(ctx, log, id, fmt.Sprintf("acquisition failed: %v", err))
	}

	// Stage 2: persist the raw text artifact before advancing.
	doc.RawTextKey = doc.ID + "_original"
	if err := r.blobs.Store(doc.RawTextKey, []byte(extracted.Text)); err != nil {
		return r.fail(ctx, log, id, fmt.Sprintf("persist raw text: %v", err))
	}

	// Stage 3: normalization. Non-fatal: fall back to the raw text and keep
	// going so partial results stay searchable, but the document finishes in
	// the error state with the reason recorded.
	text := extracted.Text
	var normFailure string
	err = r.stage(ctx, func(ctx context.Context) error {
		fixed, stageErr := r.normalizer.NormalizeText(ctx, text)
		if stageErr != nil {
			return stageErr
		}
		text = fixed
		return nil
	})
	if err != nil {
		normFailure = fmt.Sprintf("normalization failed: %v", err)
		log.Warn("text normalization failed, continuing with raw text", zap.Error(err))
	} else {
		doc.FixedTextKey = doc.ID + "_fixed"
		if err := r.blobs.Store(doc.FixedTextKey, []byte(text)); err != nil {
			return r.fail(ctx, log, id, fmt.Sprintf("persist normalized text: %v", err))
		}
	}

	// Stage 4: structured extraction from the best text available.
	var analysis *profile.Analysis
	var parsedData json.RawMessage
	err = r.stage(ctx, func(ctx context.Context) error {
		var stageErr error
		analysis, parsedData, stageErr = r.parser.ExtractProfile(ctx, text)
		return stageErr
	})
	if err != nil {
		return r.fail(ctx, log, id, fmt.Sprintf("extraction failed: %v", err))
	}

	// Stage 5: pure derivation. Cannot fail on a validated profile.
	tags := profile.TagStrings(profile.Derive(analysis))

	applyAnalysis(doc, analysis, parsedData, tags)
	if normFailure != "" {
		doc.Status = storage.StatusError
		doc.Error = normFailure
		doc.Analyzed = false
	} else {
		doc.Status = storage.StatusCompleted
		doc.Error = ""
		doc.Analyzed = true
	}

	if err := r.store.Update(ctx, doc); err != nil {
		return Outcome{}, fmt.Errorf("persist analysis for %s: %w", id, err)
	}

	log.Info("document analyzed",
		zap.String("status", string(doc.Status)),
		zap.Int("tags", len(tags)),
		zap.String("candidate", analysis.CandidateName))
	return Outcome{DocumentID: id, Status: doc.Status, Err: doc.Error, Tags: tags}, nil
}

// stage runs one capability call under the per-stage timeout. A timed-out
// stage returns an error before writing anything, exactly like a failed
// stage.
func (r *Runner) stage(ctx context.Context, fn func(context.Context) error) error {
	if r.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.stageTimeout)
		defer cancel()
	}
	return fn(ctx)
}

// fail records the terminal error state for a document. Partial artifacts
// written by earlier stages are deliberately kept.
func (r *Runner) fail(ctx context.Context, log *zap.Logger, id, msg string) (Outcome, error) {
	if err := r.store.SetError(ctx, id, msg); err != nil {
		return Outcome{}, fmt.Errorf("record error state for %s: %w", id, err)
	}
	log.Warn("document analysis failed", zap.String("reason", msg))
	return Outcome{DocumentID: id, Status: storage.StatusError, Err: msg}, nil
}

// applyAnalysis copies the derived fields onto the record. Demographics are
// best-effort: extraction success populates them, anything missing stays
// empty.
func applyAnalysis(doc *storage.Document, analysis *profile.Analysis, parsedData json.RawMessage, tags []string) {
	doc.ParsedData = parsedData
	doc.Analysis = storage.Summarize(analysis)
	doc.Tags = tags

	first, last := analysis.Personal.FirstName, analysis.Personal.LastName
	if first == "" && last == "" {
		first, last = splitName(analysis.CandidateName)
	}
	doc.FirstName = first
	doc.LastName = last
	doc.Age = analysis.Age
	doc.Department = analysis.PrimaryDepartment
	doc.Email = analysis.Personal.Email
	doc.Phone = analysis.Personal.Phone
	doc.Birthdate = analysis.Personal.Birthdate
	doc.Gender = analysis.Personal.Gender
	doc.ExpectedSalary = analysis.Attributes.SalaryExpectation
}

func splitName(full string) (first, last string) {
	fields := strings.Fields(full)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
	}
}
