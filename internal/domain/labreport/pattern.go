package labreport

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	separatorExpr = `\s*[:\-]?\s*`
	numberExpr    = `(\d+(?:\.\d+)?)`
)

// Pattern describes how one marker is located in free text.
type Pattern struct {
	// Label is a regular expression without capturing groups.
	Label string `yaml:"label" json:"label"`
	// Unit, when set, must directly follow the number (e.g. "mg", "%").
	Unit string `yaml:"unit" json:"unit"`
	// CollapseWhitespace squeezes whitespace runs to one space before matching.
	CollapseWhitespace bool `yaml:"collapseWhitespace" json:"collapseWhitespace"`
}

// PatternTable maps each marker to its pattern.
type PatternTable map[Marker]Pattern

// LoosePatterns anchors on the bare label and an optional separator.
// HDL and LDL must not follow a letter or hyphen so "Non-HDL" and "VLDL" rows are skipped.
func LoosePatterns() PatternTable {
	return PatternTable{
		FastingGlucose: {Label: `Fasting\s+(?:Blood\s+|Plasma\s+)?Glucose`},
		HbA1c:          {Label: `HbA1c`},
		LDL:            {Label: `(?:^|[^\w-])LDL(?:[\s-]*C(?:holesterol)?\b)?`},
		HDL:            {Label: `(?:^|[^\w-])HDL(?:[\s-]*C(?:holesterol)?\b)?`},
		Triglycerides:  {Label: `Triglycerides?`},
		VitaminD:       {Label: `Vitamin\s*D3?\b(?:[\s,]*\(?25[\s-]*(?:OH|hydroxy)\)?)?`},
		VitaminB12:     {Label: `Vitamin\s*B[\s-]?12\b`},
	}
}

// StrictPatterns additionally requires the unit token after the value.
func StrictPatterns() PatternTable {
	units := map[Marker]string{
		FastingGlucose: "mg",
		HbA1c:          "%",
		LDL:            "mg",
		HDL:            "mg",
		Triglycerides:  "mg",
		VitaminD:       "ng",
		VitaminB12:     "pg",
	}
	table := LoosePatterns()
	for m, p := range table {
		p.Unit = units[m]
		p.CollapseWhitespace = true
		table[m] = p
	}
	return table
}

// Extraction modes accepted by PatternsFor.
const (
	ModeLoose  = "loose"
	ModeStrict = "strict"
)

// PatternsFor returns the built-in table for mode. An empty mode means loose.
func PatternsFor(mode string) (PatternTable, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeLoose:
		return LoosePatterns(), nil
	case ModeStrict:
		return StrictPatterns(), nil
	default:
		return nil, fmt.Errorf("unknown extraction mode %q", mode)
	}
}

// Clone returns a copy that can be modified without touching the receiver.
func (t PatternTable) Clone() PatternTable {
	out := make(PatternTable, len(t))
	for m, p := range t {
		out[m] = p
	}
	return out
}

// CompiledPattern is a ready to use Pattern.
type CompiledPattern struct {
	re       *regexp.Regexp
	collapse bool
}

// Compile builds the case-insensitive expression and checks it has exactly one capturing group.
func (p Pattern) Compile() (CompiledPattern, error) {
	label := strings.TrimSpace(p.Label)
	if label == "" {
		return CompiledPattern{}, fmt.Errorf("pattern label cannot be empty")
	}
	expr := "(?i)(?:" + label + ")" + separatorExpr + numberExpr
	if unit := strings.TrimSpace(p.Unit); unit != "" {
		expr += `\s*` + regexp.QuoteMeta(unit)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return CompiledPattern{}, fmt.Errorf("compile pattern %q: %w", label, err)
	}
	if re.NumSubexp() != 1 {
		return CompiledPattern{}, fmt.Errorf("pattern %q must have exactly one capturing group, got %d", label, re.NumSubexp())
	}
	return CompiledPattern{re: re, collapse: p.CollapseWhitespace}, nil
}

// Extract returns the first matched value. A miss is not an error.
func (c CompiledPattern) Extract(text string) (float64, bool) {
	if c.re == nil {
		return 0, false
	}
	if c.collapse {
		text = collapseWhitespace(text)
	}
	match := c.re.FindStringSubmatch(text)
	if len(match) < 2 {
		return 0, false
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// Extract compiles p and applies it to text. Invalid patterns never match.
func Extract(text string, p Pattern) (float64, bool) {
	compiled, err := p.Compile()
	if err != nil {
		return 0, false
	}
	return compiled.Extract(text)
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
