package health

import "github.com/yanqian/keto-dashboard/internal/domain/labreport"

// Thresholds shared by the evaluator and the macro planner.
const (
	FastingGlucoseMax = 110.0
	HbA1cMax          = 5.7
	VitaminDMin       = 30.0
	VitaminB12Min     = 300.0
	HDLMin            = 40.0
	LDLMax            = 130.0
	TriglyceridesMax  = 150.0
)

// AllNormalMessage is returned alone when no rule triggers.
const AllNormalMessage = "Your markers look good. A well-balanced keto plan is suitable."

// Result is the recommendation derived from one reading.
type Result struct {
	Warnings    []string `json:"warnings"`
	Supplements []string `json:"supplements"`
}

type comparison int

const (
	above comparison = iota
	below
)

// rule triggers when its marker is present and crosses the threshold.
type rule struct {
	marker     labreport.Marker
	cmp        comparison
	threshold  float64
	warning    string
	supplement string
}

func (r rule) triggered(reading labreport.Reading) bool {
	if r.cmp == above {
		return reading.Above(r.marker, r.threshold)
	}
	return reading.Below(r.marker, r.threshold)
}

// rules is evaluated top to bottom; warning order follows this table.
var rules = []rule{
	{
		marker:    labreport.FastingGlucose,
		cmp:       above,
		threshold: FastingGlucoseMax,
		warning:   "Fasting glucose is above 110 mg/dL: pre-diabetes risk.",
	},
	{
		marker:    labreport.HbA1c,
		cmp:       above,
		threshold: HbA1cMax,
		warning:   "HbA1c is above 5.7%: pre-diabetes/diabetes indicator. Consider low-carb keto to improve insulin sensitivity.",
	},
	{
		marker:     labreport.VitaminD,
		cmp:        below,
		threshold:  VitaminDMin,
		warning:    "Vitamin D is below 30 ng/mL: deficiency.",
		supplement: "Vitamin D3 2000-5000 IU/day",
	},
	{
		marker:     labreport.VitaminB12,
		cmp:        below,
		threshold:  VitaminB12Min,
		warning:    "Vitamin B12 is below 300 pg/mL: borderline low.",
		supplement: "Methylcobalamin 1500mcg 3x/week",
	},
	{
		marker:    labreport.LDL,
		cmp:       above,
		threshold: LDLMax,
		warning:   "LDL is above 130 mg/dL: high cholesterol. Use olive oil, nuts, seeds. Limit saturated fat.",
	},
	{
		marker:    labreport.HDL,
		cmp:       below,
		threshold: HDLMin,
		warning:   "HDL is below 40 mg/dL: low. Add omega-3 rich foods like fish and avocados, and exercise regularly.",
	},
	{
		marker:    labreport.Triglycerides,
		cmp:       above,
		threshold: TriglyceridesMax,
		warning:   "Triglycerides are above 150 mg/dL: high.",
	},
}

// Evaluate applies every rule independently. Absent markers never trigger.
func Evaluate(reading labreport.Reading) Result {
	res := Result{Warnings: []string{}, Supplements: []string{}}
	for _, r := range rules {
		if !r.triggered(reading) {
			continue
		}
		res.Warnings = append(res.Warnings, r.warning)
		if r.supplement != "" {
			res.Supplements = append(res.Supplements, r.supplement)
		}
	}
	if len(res.Warnings) == 0 {
		res.Warnings = append(res.Warnings, AllNormalMessage)
	}
	return res
}
