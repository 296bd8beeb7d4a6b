package health

import "github.com/yanqian/keto-dashboard/internal/domain/labreport"

// MacroTargets are percentage allocations. They are not renormalized after overrides.
type MacroTargets struct {
	Protein int `json:"protein"`
	Fat     int `json:"fat"`
	Carbs   int `json:"carbs"`
	Fiber   int `json:"fiber"`
}

// Total sums the four categories.
func (m MacroTargets) Total() int {
	return m.Protein + m.Fat + m.Carbs + m.Fiber
}

// DefaultMacros is the starting keto split.
func DefaultMacros() MacroTargets {
	return MacroTargets{Protein: 20, Fat: 70, Carbs: 5, Fiber: 5}
}

type macroRule struct {
	name    string
	applies func(labreport.Reading) bool
	apply   func(*MacroTargets)
}

// macroRules run in order; a later rule overwrites the fields it sets. Carbs is never touched.
var macroRules = []macroRule{
	{
		name: "glycemic",
		applies: func(r labreport.Reading) bool {
			return r.Above(labreport.HbA1c, HbA1cMax) || r.Above(labreport.FastingGlucose, FastingGlucoseMax)
		},
		apply: func(m *MacroTargets) {
			m.Fat = 70
			m.Protein = 20
		},
	},
	{
		name: "triglycerides",
		applies: func(r labreport.Reading) bool {
			return r.Above(labreport.Triglycerides, TriglyceridesMax)
		},
		apply: func(m *MacroTargets) {
			m.Fat = 65
			m.Protein = 25
		},
	},
	{
		name: "ldl",
		applies: func(r labreport.Reading) bool {
			return r.Above(labreport.LDL, LDLMax)
		},
		apply: func(m *MacroTargets) {
			m.Fat = 60
			m.Protein = 25
			m.Fiber = 10
		},
	},
}

// PlanMacros starts from the defaults and applies the override rules.
func PlanMacros(reading labreport.Reading) MacroTargets {
	targets := DefaultMacros()
	for _, r := range macroRules {
		if r.applies(reading) {
			r.apply(&targets)
		}
	}
	return targets
}

// AppliedMacroRules names the override rules that fired, in order.
func AppliedMacroRules(reading labreport.Reading) []string {
	names := make([]string, 0, len(macroRules))
	for _, r := range macroRules {
		if r.applies(reading) {
			names = append(names, r.name)
		}
	}
	return names
}
