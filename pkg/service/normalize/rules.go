package normalize

import "strings"

// PhraseRule maps a set of lowercase phrases to a label
type PhraseRule struct {
	Label   string   `toml:"label"`
	Phrases []string `toml:"phrases"`
}

// PhraseRules is an ordered rule table. A rule fires when the lowercased text
// contains any of its phrases.
type PhraseRules []PhraseRule

// Labels returns the labels of firing rules in table order
func (rules PhraseRules) Labels(text string) []string {
	lower := strings.ToLower(text)
	labels := []string{}
	for _, rule := range rules {
		if rule.matches(lower) {
			labels = append(labels, rule.Label)
		}
	}
	return labels
}

// Match reports whether any rule fires
func (rules PhraseRules) Match(text string) bool {
	lower := strings.ToLower(text)
	for _, rule := range rules {
		if rule.matches(lower) {
			return true
		}
	}
	return false
}

func (rule PhraseRule) matches(lower string) bool {
	for _, p := range rule.Phrases {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// Chunk tag labels
const (
	TagSurgery          = "surgery"
	TagChemotherapy     = "chemotherapy"
	TagRadiation        = "radiation"
	TagDiagnostics      = "diagnostics"
	TagImmunotherapy    = "immunotherapy"
	TagContraindication = "contraindication"
	TagRecommendation   = "recommendation"
)

// DefaultTagRules returns the built-in chunk tagging table
func DefaultTagRules() PhraseRules {
	return PhraseRules{
		{Label: TagSurgery, Phrases: []string{"хирург", "операц", "резекц", "лимфодиссекц"}},
		{Label: TagChemotherapy, Phrases: []string{"химио", "flox", "flot", "капецитаб", "паклитаксел", "карбоплатин", "цисплатин"}},
		{Label: TagRadiation, Phrases: []string{"лучев", "радиотерап"}},
		{Label: TagDiagnostics, Phrases: []string{"диагност", "кт", "мрт", "пэт", "биопс"}},
		{Label: TagImmunotherapy, Phrases: []string{"иммуно", "атезолизумаб", "пембролизумаб", "nivolumab", "чекпоинт"}},
		{Label: TagContraindication, Phrases: []string{"противопоказ", "не рекоменду", "запрещ"}},
		{Label: TagRecommendation, Phrases: []string{"рекомендуется", "показано", "следует"}},
	}
}

// LabelConflict marks a potentially unsafe plan item
const LabelConflict = "conflict"

// DefaultRedFlagRules returns phrases that mark a plan item as unsafe
func DefaultRedFlagRules() PhraseRules {
	return PhraseRules{
		{Label: LabelConflict, Phrases: []string{"самолеч", "без врача", "отменить всё", "игнор"}},
	}
}
