package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"resume-analyzer/internal/profile"
)

// ErrNotFound is returned when no document matches the requested id.
var ErrNotFound = errors.New("document not found")

// Status is the lifecycle state of a document record.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Document is the persisted record for one ingested resume.
//
// FileID is assigned at ingestion, unique and immutable; it is the identity
// used for idempotent re-processing. Tags, Analysis and the demographic
// fields are derived by the pipeline and overwritten wholesale on
// re-analysis, never hand-edited.
type Document struct {
	ID         string    `json:"id"`
	FileID     string    `json:"file_id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`

	Status   Status `json:"status"`
	Analyzed bool   `json:"analyzed"`
	Error    string `json:"error,omitempty"`

	RawTextKey   string `json:"raw_text_key,omitempty"`
	FixedTextKey string `json:"fixed_text_key,omitempty"`

	ParsedData json.RawMessage  `json:"parsed_data,omitempty"`
	Analysis   *AnalysisSummary `json:"analysis,omitempty"`
	Tags       []string         `json:"tags"`

	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	Age            int    `json:"age,omitempty"`
	Department     string `json:"department,omitempty"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Birthdate      string `json:"birthdate,omitempty"`
	Gender         string `json:"gender,omitempty"`
	ExpectedSalary int    `json:"expected_salary,omitempty"`
}

// AnalysisSummary is the condensed profile view kept on the record for
// listing and search formatting.
type AnalysisSummary struct {
	Languages       []string `json:"languages,omitempty"`
	Education       []string `json:"education,omitempty"`
	Experience      []string `json:"experience,omitempty"`
	TechnicalSkills []string `json:"technicalSkills,omitempty"`
	SoftSkills      []string `json:"softSkills,omitempty"`
	Certifications  []string `json:"certifications,omitempty"`
}

// Summarize builds the record-level summary from a full analysis.
func Summarize(a *profile.Analysis) *AnalysisSummary {
	if a == nil {
		return &AnalysisSummary{}
	}
	s := &AnalysisSummary{
		Education:  a.Education,
		Experience: []string{a.ExperienceLevel},
	}
	for _, l := range a.Languages {
		s.Languages = append(s.Languages, l.Language)
	}
	for _, sk := range a.RoleSkills.Operational {
		s.TechnicalSkills = append(s.TechnicalSkills, sk.Name)
	}
	for _, sk := range a.RoleSkills.Administrative {
		s.TechnicalSkills = append(s.TechnicalSkills, sk.Name)
	}
	for _, sk := range a.RoleSkills.CustomerFacing {
		s.SoftSkills = append(s.SoftSkills, sk.Name)
	}
	for _, c := range a.Certifications {
		s.Certifications = append(s.Certifications, c.Name)
	}
	return s
}

// Filter describes the structured predicates of a record query. All fields
// are optional and compose with AND semantics; Tags requires every listed
// tag to be present on a record.
type Filter struct {
	Tags       []string
	Name       string
	Department string
	AgeMin     *int
	AgeMax     *int
	SalaryMin  *int
	SalaryMax  *int
}

// Matches applies the filter to a single record. The in-memory store and
// the search engine share this predicate; the Postgres store compiles the
// same semantics to SQL.
func (f Filter) Matches(d *Document) bool {
	for _, want := range f.Tags {
		found := false
		for _, have := range d.Tags {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Name != "" {
		full := strings.ToLower(strings.TrimSpace(d.FirstName + " " + d.LastName))
		if !strings.Contains(full, strings.ToLower(f.Name)) {
			return false
		}
	}
	if f.Department != "" {
		if !strings.Contains(strings.ToLower(d.Department), strings.ToLower(f.Department)) {
			return false
		}
	}
	if f.AgeMin != nil && d.Age < *f.AgeMin {
		return false
	}
	if f.AgeMax != nil && d.Age > *f.AgeMax {
		return false
	}
	if f.SalaryMin != nil && d.ExpectedSalary < *f.SalaryMin {
		return false
	}
	if f.SalaryMax != nil && d.ExpectedSalary > *f.SalaryMax {
		return false
	}
	return true
}

// Store is the injected document repository. The pipeline and search engine
// depend on this interface so tests can substitute the in-memory
// implementation.
type Store interface {
	Create(ctx context.Context, doc *Document) error
	Get(ctx context.Context, id string) (*Document, error)
	GetByFileID(ctx context.Context, fileID string) (*Document, error)
	List(ctx context.Context) ([]*Document, error)
	Update(ctx context.Context, doc *Document) error
	SetStatus(ctx context.Context, id string, status Status) error
	SetError(ctx context.Context, id, msg string) error
	Query(ctx context.Context, f Filter) ([]*Document, error)
}
