package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"resume-analyzer/internal/profile"
)

const parserSystem = "You are a resume parser for hospitality recruiting. Return only valid JSON."

// ExtractProfile converts normalized resume text into a validated candidate
// profile. The second return value is the raw model JSON, stored as the
// opaque parsedData artifact. Malformed or incomplete model output comes
// back as *ExtractionError; a profile is never returned unvalidated.
func (s *Service) ExtractProfile(ctx context.Context, text string) (*profile.Analysis, json.RawMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, &ExtractionError{Reason: "empty input text"}
	}

	response, err := s.generate(ctx, parserSystem, buildProfilePrompt(text), true)
	if err != nil {
		return nil, nil, &ExtractionError{Reason: "model call failed", Err: err}
	}

	analysis, raw, err := decodeProfile(response)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Debug("profile extracted",
		zap.String("candidate", analysis.CandidateName),
		zap.String("department", analysis.PrimaryDepartment),
		zap.Int("skills", len(analysis.AllSkills())))
	return analysis, raw, nil
}

// decodeProfile unmarshals and validates a model response. Split out of
// ExtractProfile so the validation gate is testable without a live model.
func decodeProfile(response string) (*profile.Analysis, json.RawMessage, error) {
	cleaned := stripFences(response)

	var analysis profile.Analysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		return nil, nil, &ExtractionError{Reason: "malformed model output", Err: err}
	}

	analysis.Normalize()
	if err := analysis.Validate(); err != nil {
		return nil, nil, &ExtractionError{Reason: "incomplete schema", Err: err}
	}

	return &analysis, json.RawMessage(cleaned), nil
}

// stripFences removes a surrounding markdown code fence some models emit
// despite JSON mode.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func buildProfilePrompt(text string) string {
	return fmt.Sprintf(`Extract a structured candidate profile from this resume.

Resume text:
"""
%s
"""

Return ONLY valid JSON (no markdown, no explanation) with this exact structure:
{
  "candidate_name": "Full name",
  "age": 0,
  "experience_level": "Entry Level|Mid-Level|Senior|Management",
  "primary_department": "Best matching department",
  "scores": {
    "department_match": 0,
    "technical_qualification": 0,
    "experience_value": 0,
    "language_proficiency": 0,
    "practical_factors": 0
  },
  "department_scores": [
    {"category": "Guest Services|Accommodation Services|Food & Beverage|Business Operations|Facilities Management", "department": "Department name", "score": 0}
  ],
  "role_skills": {
    "customer_facing": [{"name": "Skill", "level": 1}],
    "operational": [{"name": "Skill", "level": 1}],
    "administrative": [{"name": "Skill", "level": 1}]
  },
  "languages": [{"language": "Language", "level": 1}],
  "education": ["Degree, institution"],
  "certifications": [{"name": "Certificate", "issuer": "Issuer", "expires": "YYYY-MM-DD"}],
  "personal": {"first_name": "", "last_name": "", "email": "", "phone": "", "birthdate": "", "gender": ""},
  "attributes": {"availability": "", "accommodation": "", "salary_expectation": 0, "notice_period": ""},
  "recommended_positions": [{"title": "Role", "department": "Department", "match": 0}]
}

Important:
- All scores are integers 0-100; skill and language levels are integers 1-5
- Score every department category even when the resume shows no direct experience there
- Normalize skill names to canonical English terms
- Use 0 for unknown numeric values and empty arrays when a section has no data
- salary_expectation is a monthly amount as a plain integer, 0 if not stated
- For non-English resumes, extract values in English`, text)
}
