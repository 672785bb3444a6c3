package profile

import (
	"reflect"
	"testing"
)

func sampleAnalysis() *Analysis {
	return &Analysis{
		CandidateName:     "Ayse Yilmaz",
		ExperienceLevel:   ExperienceSenior,
		PrimaryDepartment: "Housekeeping",
		DepartmentScores: []DepartmentScore{
			{Category: CategoryAccommodation, Department: "Housekeeping", Score: 85},
			{Category: CategoryFoodBeverage, Department: "Kitchen", Score: 40},
			{Category: CategoryGuestServices, Department: "Front Office", Score: 60},
		},
		RoleSkills: RoleSkills{
			CustomerFacing: []Skill{{Name: "Teamwork", Level: 4}, {Name: "Upselling", Level: 2}},
			Operational:    []Skill{{Name: "Deep Cleaning", Level: 5}},
			Administrative: []Skill{{Name: "Inventory", Level: 3}},
		},
		Certifications: []Certification{
			{Name: "HACCP", Issuer: "TSE"},
			{Name: "First Aid"},
		},
	}
}

func TestDeriveTags(t *testing.T) {
	tags := TagStrings(Derive(sampleAnalysis()))

	want := []string{
		"dept:Housekeeping",
		"dept:Front Office",
		"skill:Teamwork",
		"skill:Deep Cleaning",
		"skill:Inventory",
		"cert:HACCP",
		"cert:First Aid",
		"exp:Senior",
	}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("derived tags mismatch:\n got %v\nwant %v", tags, want)
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	a := sampleAnalysis()
	first := TagStrings(Derive(a))
	for i := 0; i < 10; i++ {
		if got := TagStrings(Derive(a)); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d produced different tags: %v vs %v", i, got, first)
		}
	}
}

func TestDeriveSuppressesDuplicates(t *testing.T) {
	a := sampleAnalysis()
	a.RoleSkills.Operational = append(a.RoleSkills.Operational, Skill{Name: "Teamwork", Level: 5})
	a.Certifications = append(a.Certifications, Certification{Name: "HACCP", Issuer: "Other"})

	counts := make(map[string]int)
	for _, tag := range TagStrings(Derive(a)) {
		counts[tag]++
	}
	for tag, n := range counts {
		if n > 1 {
			t.Errorf("tag %q emitted %d times", tag, n)
		}
	}
}

func TestDeriveEmptyProfile(t *testing.T) {
	tags := Derive(&Analysis{})
	if len(tags) != 0 {
		t.Errorf("empty profile should derive no tags, got %v", TagStrings(tags))
	}

	if tags := Derive(nil); tags == nil || len(tags) != 0 {
		t.Errorf("nil profile should derive an empty slice, got %v", tags)
	}
}

func TestDeriveThresholds(t *testing.T) {
	a := &Analysis{
		DepartmentScores: []DepartmentScore{
			{Department: "Kitchen", Score: 59},
			{Department: "Bar", Score: 60},
		},
		RoleSkills: RoleSkills{
			Operational: []Skill{{Name: "POS", Level: 2}, {Name: "Barista", Level: 3}},
		},
	}
	tags := TagStrings(Derive(a))
	want := []string{"dept:Bar", "skill:Barista"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("threshold tags mismatch: got %v want %v", tags, want)
	}
}

func TestParseTag(t *testing.T) {
	tag, ok := ParseTag("dept:Front Office")
	if !ok || tag.Kind != TagDept || tag.Value != "Front Office" {
		t.Errorf("unexpected parse result: %+v ok=%v", tag, ok)
	}

	// Values containing colons split only on the first one.
	tag, ok = ParseTag("cert:ISO 9001:2015")
	if !ok || tag.Value != "ISO 9001:2015" {
		t.Errorf("expected colon-containing value to survive, got %+v", tag)
	}

	for _, bad := range []string{"", "dept:", "color:red", "noprefix"} {
		if _, ok := ParseTag(bad); ok {
			t.Errorf("ParseTag(%q) should fail", bad)
		}
	}
}

func TestValidate(t *testing.T) {
	a := sampleAnalysis()
	if err := a.Validate(); err != nil {
		t.Fatalf("valid profile rejected: %v", err)
	}

	a.ExperienceLevel = "Wizard"
	if err := a.Validate(); err == nil {
		t.Error("unknown experience level should fail validation")
	}

	if err := (&Analysis{}).Validate(); err == nil {
		t.Error("empty profile should fail validation")
	}
}

func TestNormalizeDefaults(t *testing.T) {
	a := &Analysis{Scores: Scores{DepartmentMatch: 150, ExperienceValue: -5}}
	a.Normalize()

	if a.Languages == nil || a.Certifications == nil || a.DepartmentScores == nil {
		t.Error("Normalize should replace nil collections")
	}
	if a.RoleSkills.CustomerFacing == nil || a.RoleSkills.Operational == nil || a.RoleSkills.Administrative == nil {
		t.Error("Normalize should replace nil skill groups")
	}
	if a.Scores.DepartmentMatch != 100 || a.Scores.ExperienceValue != 0 {
		t.Errorf("scores not clamped: %+v", a.Scores)
	}
}
