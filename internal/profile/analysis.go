package profile

import (
	"fmt"
	"strings"
)

// Experience levels the extractor is allowed to return.
const (
	ExperienceEntry      = "Entry Level"
	ExperienceMid        = "Mid-Level"
	ExperienceSenior     = "Senior"
	ExperienceManagement = "Management"
)

// Department categories used for category scoring.
const (
	CategoryGuestServices      = "Guest Services"
	CategoryAccommodation      = "Accommodation Services"
	CategoryFoodBeverage       = "Food & Beverage"
	CategoryBusinessOperations = "Business Operations"
	CategoryFacilities         = "Facilities Management"
)

// Analysis is the structured candidate profile produced by the LLM parser.
// It is created once per successful extraction and replaced wholesale on
// re-analysis.
type Analysis struct {
	CandidateName        string            `json:"candidate_name"`
	Age                  int               `json:"age,omitempty"`
	ExperienceLevel      string            `json:"experience_level"`
	PrimaryDepartment    string            `json:"primary_department"`
	Scores               Scores            `json:"scores"`
	DepartmentScores     []DepartmentScore `json:"department_scores"`
	RoleSkills           RoleSkills        `json:"role_skills"`
	Languages            []Language        `json:"languages"`
	Education            []string          `json:"education"`
	Certifications       []Certification   `json:"certifications"`
	Personal             Personal          `json:"personal"`
	Attributes           Attributes        `json:"attributes"`
	RecommendedPositions []Position        `json:"recommended_positions"`
}

// Scores is the five-component fit vector, each 0-100.
type Scores struct {
	DepartmentMatch        int `json:"department_match"`
	TechnicalQualification int `json:"technical_qualification"`
	ExperienceValue        int `json:"experience_value"`
	LanguageProficiency    int `json:"language_proficiency"`
	PracticalFactors       int `json:"practical_factors"`
}

// DepartmentScore rates the candidate for one department within a category.
type DepartmentScore struct {
	Category   string `json:"category"`
	Department string `json:"department"`
	Score      int    `json:"score"`
}

// RoleSkills groups skills by the kind of work they support.
type RoleSkills struct {
	CustomerFacing []Skill `json:"customer_facing"`
	Operational    []Skill `json:"operational"`
	Administrative []Skill `json:"administrative"`
}

// Skill is a named skill with proficiency level 1-5.
type Skill struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// Language is a spoken language with proficiency level 1-5.
type Language struct {
	Language string `json:"language"`
	Level    int    `json:"level"`
}

// Certification is a named certificate with issuer and optional expiry.
type Certification struct {
	Name    string `json:"name"`
	Issuer  string `json:"issuer,omitempty"`
	Expires string `json:"expires,omitempty"`
}

// Personal holds contact and demographic details.
type Personal struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Birthdate string `json:"birthdate,omitempty"`
	Gender    string `json:"gender,omitempty"`
}

// Attributes holds practical employment factors.
type Attributes struct {
	Availability      string `json:"availability,omitempty"`
	Accommodation     string `json:"accommodation,omitempty"`
	SalaryExpectation int    `json:"salary_expectation,omitempty"`
	NoticePeriod      string `json:"notice_period,omitempty"`
}

// Position is a recommended role with a 0-100 match score.
type Position struct {
	Title      string `json:"title"`
	Department string `json:"department"`
	Match      int    `json:"match"`
}

// experienceLevels indexes the allowed enum values.
var experienceLevels = map[string]bool{
	ExperienceEntry:      true,
	ExperienceMid:        true,
	ExperienceSenior:     true,
	ExperienceManagement: true,
}

// Validate checks the fields every downstream consumer depends on. Optional
// sections are allowed to be empty; Normalize fills their defaults.
func (a *Analysis) Validate() error {
	var missing []string
	if strings.TrimSpace(a.CandidateName) == "" {
		missing = append(missing, "candidate_name")
	}
	if strings.TrimSpace(a.ExperienceLevel) == "" {
		missing = append(missing, "experience_level")
	}
	if strings.TrimSpace(a.PrimaryDepartment) == "" {
		missing = append(missing, "primary_department")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if !experienceLevels[a.ExperienceLevel] {
		return fmt.Errorf("unknown experience level %q", a.ExperienceLevel)
	}
	return nil
}

// Normalize replaces nil collections with empty ones and clamps scores into
// 0-100 so partially populated profiles stay usable.
func (a *Analysis) Normalize() {
	if a.DepartmentScores == nil {
		a.DepartmentScores = []DepartmentScore{}
	}
	if a.RoleSkills.CustomerFacing == nil {
		a.RoleSkills.CustomerFacing = []Skill{}
	}
	if a.RoleSkills.Operational == nil {
		a.RoleSkills.Operational = []Skill{}
	}
	if a.RoleSkills.Administrative == nil {
		a.RoleSkills.Administrative = []Skill{}
	}
	if a.Languages == nil {
		a.Languages = []Language{}
	}
	if a.Education == nil {
		a.Education = []string{}
	}
	if a.Certifications == nil {
		a.Certifications = []Certification{}
	}
	if a.RecommendedPositions == nil {
		a.RecommendedPositions = []Position{}
	}

	a.Scores.DepartmentMatch = clampScore(a.Scores.DepartmentMatch)
	a.Scores.TechnicalQualification = clampScore(a.Scores.TechnicalQualification)
	a.Scores.ExperienceValue = clampScore(a.Scores.ExperienceValue)
	a.Scores.LanguageProficiency = clampScore(a.Scores.LanguageProficiency)
	a.Scores.PracticalFactors = clampScore(a.Scores.PracticalFactors)
	for i := range a.DepartmentScores {
		a.DepartmentScores[i].Score = clampScore(a.DepartmentScores[i].Score)
	}
}

// AllSkills returns the role skills flattened in declaration order.
func (a *Analysis) AllSkills() []Skill {
	out := make([]Skill, 0, len(a.RoleSkills.CustomerFacing)+len(a.RoleSkills.Operational)+len(a.RoleSkills.Administrative))
	out = append(out, a.RoleSkills.CustomerFacing...)
	out = append(out, a.RoleSkills.Operational...)
	out = append(out, a.RoleSkills.Administrative...)
	return out
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
