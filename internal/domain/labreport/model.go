package labreport

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Marker names a lab value. The unit lives in the name only.
type Marker string

const (
	FastingGlucose Marker = "Fasting Glucose (mg/dL)"
	HbA1c          Marker = "HbA1c (%)"
	LDL            Marker = "LDL (mg/dL)"
	HDL            Marker = "HDL (mg/dL)"
	Triglycerides  Marker = "Triglycerides (mg/dL)"
	VitaminD       Marker = "Vitamin D (ng/mL)"
	VitaminB12     Marker = "Vitamin B12 (pg/mL)"
)

// Markers lists every supported marker in display order.
func Markers() []Marker {
	return []Marker{FastingGlucose, HbA1c, LDL, HDL, Triglycerides, VitaminD, VitaminB12}
}

// IsKnown reports whether m belongs to the supported marker set.
func (m Marker) IsKnown() bool {
	for _, known := range Markers() {
		if m == known {
			return true
		}
	}
	return false
}

// Reading maps markers to extracted values. A missing key means the value is unknown.
type Reading map[Marker]float64

// Value returns the marker value and whether it is present.
func (r Reading) Value(m Marker) (float64, bool) {
	if r == nil {
		return 0, false
	}
	v, ok := r[m]
	return v, ok
}

// Above reports whether the marker is present and strictly greater than threshold.
func (r Reading) Above(m Marker, threshold float64) bool {
	v, ok := r.Value(m)
	return ok && v > threshold
}

// Below reports whether the marker is present and strictly less than threshold.
func (r Reading) Below(m Marker, threshold float64) bool {
	v, ok := r.Value(m)
	return ok && v < threshold
}

// SourceKind identifies which loader branch produced a report.
type SourceKind string

const (
	SourcePDF SourceKind = "pdf"
	SourceCSV SourceKind = "csv"
)

// DatedReport is one uploaded file's reading plus its report date.
type DatedReport struct {
	ID         uuid.UUID  `json:"id"`
	Filename   string     `json:"filename"`
	Source     SourceKind `json:"source"`
	Date       time.Time  `json:"date"`
	Reading    Reading    `json:"reading"`
	UploadedAt time.Time  `json:"uploadedAt"`
}

// ReportSeries is ordered by date ascending. Reports sharing a date keep upload order.
type ReportSeries []DatedReport

// Insert returns a new series containing report at its date position.
func (s ReportSeries) Insert(report DatedReport) ReportSeries {
	out := make(ReportSeries, 0, len(s)+1)
	out = append(out, s...)
	out = append(out, report)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Latest returns the most recent report.
func (s ReportSeries) Latest() (DatedReport, bool) {
	if len(s) == 0 {
		return DatedReport{}, false
	}
	return s[len(s)-1], true
}

// TrendPoint is a single charted value.
type TrendPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// TrendSeries holds the points of one marker over time.
type TrendSeries struct {
	Marker Marker       `json:"marker"`
	Points []TrendPoint `json:"points"`
}

// Trends splits the series into one line per marker, skipping absent values.
func (s ReportSeries) Trends() []TrendSeries {
	out := make([]TrendSeries, 0, len(Markers()))
	for _, m := range Markers() {
		points := make([]TrendPoint, 0, len(s))
		for _, report := range s {
			if v, ok := report.Reading.Value(m); ok {
				points = append(points, TrendPoint{Date: report.Date, Value: v})
			}
		}
		out = append(out, TrendSeries{Marker: m, Points: points})
	}
	return out
}
