package dashboard

import (
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/keto-dashboard/internal/domain/health"
	"github.com/yanqian/keto-dashboard/internal/domain/labreport"
	"github.com/yanqian/keto-dashboard/internal/domain/mealplan"
)

// Session is the per-user context every operation reads and writes.
type Session struct {
	ID          uuid.UUID              `json:"id"`
	CreatedAt   time.Time              `json:"createdAt"`
	ExpiresAt   time.Time              `json:"expiresAt"`
	Reports     labreport.ReportSeries `json:"reports"`
	Preferences mealplan.Preferences   `json:"preferences"`
	Exports     []MealPlanExport       `json:"exports"`
}

// Expired reports whether the session lifetime has passed.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

func exportKey(sessionID, exportID uuid.UUID) string {
	return "exports/" + sessionID.String() + "/" + exportID.String() + ".csv"
}

func (s Session) findExport(id uuid.UUID) (MealPlanExport, bool) {
	for _, exp := range s.Exports {
		if exp.ID == id {
			return exp, true
		}
	}
	return MealPlanExport{}, false
}

// SessionView is returned when a session starts.
type SessionView struct {
	SessionID uuid.UUID `json:"sessionId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UploadRequest carries one uploaded file.
type UploadRequest struct {
	Filename string
	Content  []byte
}

// Recommendation combines the evaluator and the macro planner on the latest report.
type Recommendation struct {
	ReportID     uuid.UUID           `json:"reportId"`
	ReportDate   time.Time           `json:"reportDate"`
	Warnings     []string            `json:"warnings"`
	Supplements  []string            `json:"supplements"`
	Macros       health.MacroTargets `json:"macros"`
	AppliedRules []string            `json:"appliedRules"`
}

// MealPlanExport describes a stored CSV export.
type MealPlanExport struct {
	ID        uuid.UUID `json:"id"`
	Filename  string    `json:"filename"`
	SizeBytes int64     `json:"sizeBytes"`
	CreatedAt time.Time `json:"createdAt"`
}

// Download is an export ready to stream back.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DashboardView is the full recomputation of everything derived from the session.
type DashboardView struct {
	Reports        labreport.ReportSeries  `json:"reports"`
	Trends         []labreport.TrendSeries `json:"trends"`
	Recommendation *Recommendation         `json:"recommendation,omitempty"`
	Preferences    mealplan.Preferences    `json:"preferences"`
	MealPlan       mealplan.MealPlan       `json:"mealPlan"`
	Ingredients    []string                `json:"ingredients"`
}

// Config drives session lifetime and token signing.
type Config struct {
	Secret     string
	SessionTTL time.Duration
}
