package labreport

import "fmt"

// Extractor runs a compiled pattern table over report text.
type Extractor struct {
	patterns map[Marker]CompiledPattern
}

// NewExtractor compiles every pattern in the table. Unknown markers are rejected.
func NewExtractor(table PatternTable) (*Extractor, error) {
	compiled := make(map[Marker]CompiledPattern, len(table))
	for m, p := range table {
		if !m.IsKnown() {
			return nil, fmt.Errorf("unknown marker %q in pattern table", m)
		}
		c, err := p.Compile()
		if err != nil {
			return nil, fmt.Errorf("marker %q: %w", m, err)
		}
		compiled[m] = c
	}
	return &Extractor{patterns: compiled}, nil
}

// ExtractAll runs each configured pattern once. Markers that do not match are left out.
func (e *Extractor) ExtractAll(text string) Reading {
	reading := make(Reading, len(e.patterns))
	for _, m := range Markers() {
		p, ok := e.patterns[m]
		if !ok {
			continue
		}
		if v, found := p.Extract(text); found {
			reading[m] = v
		}
	}
	return reading
}
