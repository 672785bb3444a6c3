package profile

import "strings"

// TagKind is the taxonomy prefix of a derived tag.
type TagKind string

const (
	TagDept  TagKind = "dept"
	TagSkill TagKind = "skill"
	TagCert  TagKind = "cert"
	TagExp   TagKind = "exp"
)

// Tag is a canonical searchable tag. It serializes to "<kind>:<value>" at
// the storage and API boundary; consumers split on the first colon.
type Tag struct {
	Kind  TagKind
	Value string
}

func (t Tag) String() string {
	return string(t.Kind) + ":" + t.Value
}

// ParseTag splits a serialized tag on the first colon. The second return is
// false when the string carries no recognized kind prefix.
func ParseTag(s string) (Tag, bool) {
	kind, value, found := strings.Cut(s, ":")
	if !found || value == "" {
		return Tag{}, false
	}
	switch TagKind(kind) {
	case TagDept, TagSkill, TagCert, TagExp:
		return Tag{Kind: TagKind(kind), Value: value}, true
	}
	return Tag{}, false
}

// Derivation thresholds. A department category must score at least
// departmentTagThreshold to count as relevant; a skill must be at least
// skillTagLevel of 5 to be searchable.
const (
	departmentTagThreshold = 60
	skillTagLevel          = 3
)

// Derive maps a candidate profile to its flat tag set. It is deterministic,
// suppresses duplicates, and never fails: empty or partially populated
// profiles simply yield fewer tags. Scores are carried by the profile
// unmodified; derivation only concerns tags.
func Derive(a *Analysis) []Tag {
	if a == nil {
		return []Tag{}
	}

	seen := make(map[Tag]bool)
	tags := []Tag{}
	add := func(kind TagKind, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		t := Tag{Kind: kind, Value: value}
		if seen[t] {
			return
		}
		seen[t] = true
		tags = append(tags, t)
	}

	for _, ds := range a.DepartmentScores {
		if ds.Score >= departmentTagThreshold {
			add(TagDept, ds.Department)
		}
	}
	for _, s := range a.AllSkills() {
		if s.Level >= skillTagLevel {
			add(TagSkill, s.Name)
		}
	}
	for _, c := range a.Certifications {
		add(TagCert, c.Name)
	}
	add(TagExp, a.ExperienceLevel)

	return tags
}

// TagStrings serializes tags for storage.
func TagStrings(tags []Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.String()
	}
	return out
}
