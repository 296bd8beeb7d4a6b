package dashboard

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/keto-dashboard/internal/domain/labreport"
	"github.com/yanqian/keto-dashboard/internal/domain/mealplan"
)

// SessionStore keeps sessions alive between requests. Nothing outlives the TTL.
type SessionStore interface {
	Create(ctx context.Context, session Session, ttl time.Duration) error
	Get(ctx context.Context, id uuid.UUID) (Session, bool, error)
	Save(ctx context.Context, session Session, ttl time.Duration) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ErrExportNotFound is returned by ExportStorage.Get when the key has no stored object.
var ErrExportNotFound = errors.New("export object not found")

// ExportStorage abstracts blob storage for downloadable exports (memory/S3/R2).
type ExportStorage interface {
	Put(ctx context.Context, key string, data []byte, mimeType string) (StoredObject, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// StoredObject captures persisted blob metadata.
type StoredObject struct {
	Key      string
	Size     int64
	MimeType string
	ETag     string
}

// ReportLoader turns an uploaded file into a dated reading.
type ReportLoader interface {
	Load(ctx context.Context, filename string, content []byte) (labreport.DatedReport, error)
}

// PlanGenerator builds weekly meal plans.
type PlanGenerator interface {
	Generate(prefs mealplan.Preferences) mealplan.MealPlan
	Pools() mealplan.Pools
}
