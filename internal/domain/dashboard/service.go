package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/keto-dashboard/internal/domain/health"
	"github.com/yanqian/keto-dashboard/internal/domain/labreport"
	"github.com/yanqian/keto-dashboard/internal/domain/mealplan"
	apperrors "github.com/yanqian/keto-dashboard/pkg/errors"
	"github.com/yanqian/keto-dashboard/pkg/util"
)

const csvContentType = "text/csv; charset=utf-8"

// Service exposes every dashboard workflow for one session.
type Service interface {
	StartSession(ctx context.Context) (SessionView, error)
	ValidateToken(ctx context.Context, token string) (uuid.UUID, error)
	EndSession(ctx context.Context, sessionID uuid.UUID) error
	UploadReport(ctx context.Context, sessionID uuid.UUID, req UploadRequest) (labreport.DatedReport, error)
	Reports(ctx context.Context, sessionID uuid.UUID) (labreport.ReportSeries, error)
	Trends(ctx context.Context, sessionID uuid.UUID) ([]labreport.TrendSeries, error)
	Recommendations(ctx context.Context, sessionID uuid.UUID) (Recommendation, error)
	UpdatePreferences(ctx context.Context, sessionID uuid.UUID, prefs mealplan.Preferences) (mealplan.Preferences, error)
	MealPlan(ctx context.Context, sessionID uuid.UUID) (mealplan.MealPlan, error)
	ExportMealPlan(ctx context.Context, sessionID uuid.UUID) (MealPlanExport, error)
	DownloadExport(ctx context.Context, sessionID, exportID uuid.UUID) (Download, error)
	Dashboard(ctx context.Context, sessionID uuid.UUID) (DashboardView, error)
	Ingredients() mealplan.Pools
}

type service struct {
	cfg       Config
	store     SessionStore
	storage   ExportStorage
	loader    ReportLoader
	generator PlanGenerator
	logger    *slog.Logger
	now       func() time.Time
	// mu serializes read-modify-write cycles on sessions.
	mu sync.Mutex
}

// NewService wires the dashboard domain.
func NewService(cfg Config, store SessionStore, storage ExportStorage, loader ReportLoader, generator PlanGenerator, logger *slog.Logger) Service {
	return &service{
		cfg:       cfg,
		store:     store,
		storage:   storage,
		loader:    loader,
		generator: generator,
		logger:    logger.With("component", "dashboard.service"),
		now:       util.NowUTC,
	}
}

func (s *service) StartSession(ctx context.Context) (SessionView, error) {
	now := s.now()
	session := Session{
		ID:          uuid.New(),
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.cfg.SessionTTL),
		Reports:     labreport.ReportSeries{},
		Preferences: mealplan.Preferences{Likes: []string{}, Dislikes: []string{}},
	}
	if err := s.store.Create(ctx, session, s.cfg.SessionTTL); err != nil {
		return SessionView{}, apperrors.Wrap("storage_error", "failed to create session", err)
	}
	token, err := s.generateToken(session.ID, now, session.ExpiresAt)
	if err != nil {
		_ = s.store.Delete(ctx, session.ID)
		return SessionView{}, err
	}
	s.logger.Info("session started", "session_id", session.ID, "expires_at", session.ExpiresAt)
	return SessionView{SessionID: session.ID, Token: token, ExpiresAt: session.ExpiresAt}, nil
}

func (s *service) ValidateToken(ctx context.Context, token string) (uuid.UUID, error) {
	return s.parseToken(token)
}

func (s *service) EndSession(ctx context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, exp := range session.Exports {
		if err := s.storage.Delete(ctx, exportKey(sessionID, exp.ID)); err != nil {
			s.logger.Warn("failed to delete export", "session_id", sessionID, "export_id", exp.ID, "error", err)
		}
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return apperrors.Wrap("storage_error", "failed to delete session", err)
	}
	s.logger.Info("session ended", "session_id", sessionID, "reports", len(session.Reports), "exports", len(session.Exports))
	return nil
}

func (s *service) UploadReport(ctx context.Context, sessionID uuid.UUID, req UploadRequest) (labreport.DatedReport, error) {
	if _, err := s.loadSession(ctx, sessionID); err != nil {
		return labreport.DatedReport{}, err
	}
	report, err := s.loader.Load(ctx, req.Filename, req.Content)
	if err != nil {
		return labreport.DatedReport{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return labreport.DatedReport{}, err
	}
	session.Reports = session.Reports.Insert(report)
	if err := s.saveSession(ctx, session); err != nil {
		return labreport.DatedReport{}, err
	}
	s.logger.Info("report uploaded", "session_id", sessionID, "report_id", report.ID, "reports", len(session.Reports))
	return report, nil
}

func (s *service) Reports(ctx context.Context, sessionID uuid.UUID) (labreport.ReportSeries, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Reports, nil
}

func (s *service) Trends(ctx context.Context, sessionID uuid.UUID) ([]labreport.TrendSeries, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Reports.Trends(), nil
}

func (s *service) Recommendations(ctx context.Context, sessionID uuid.UUID) (Recommendation, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return Recommendation{}, err
	}
	rec, ok := recommend(session.Reports)
	if !ok {
		return Recommendation{}, apperrors.Wrap("no_reports", "upload at least one PDF or CSV report first", nil)
	}
	return rec, nil
}

func recommend(series labreport.ReportSeries) (Recommendation, bool) {
	latest, ok := series.Latest()
	if !ok {
		return Recommendation{}, false
	}
	result := health.Evaluate(latest.Reading)
	return Recommendation{
		ReportID:     latest.ID,
		ReportDate:   latest.Date,
		Warnings:     result.Warnings,
		Supplements:  result.Supplements,
		Macros:       health.PlanMacros(latest.Reading),
		AppliedRules: health.AppliedMacroRules(latest.Reading),
	}, true
}

func (s *service) UpdatePreferences(ctx context.Context, sessionID uuid.UUID, prefs mealplan.Preferences) (mealplan.Preferences, error) {
	clean := mealplan.Preferences{
		Vegetarian: prefs.Vegetarian,
		Likes:      normalizeList(prefs.Likes),
		Dislikes:   normalizeList(prefs.Dislikes),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return mealplan.Preferences{}, err
	}
	session.Preferences = clean
	if err := s.saveSession(ctx, session); err != nil {
		return mealplan.Preferences{}, err
	}
	return clean, nil
}

func (s *service) MealPlan(ctx context.Context, sessionID uuid.UUID) (mealplan.MealPlan, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return mealplan.MealPlan{}, err
	}
	return s.generator.Generate(session.Preferences), nil
}

func (s *service) ExportMealPlan(ctx context.Context, sessionID uuid.UUID) (MealPlanExport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return MealPlanExport{}, err
	}
	plan := s.generator.Generate(session.Preferences)
	var buf bytes.Buffer
	if err := mealplan.WriteCSV(&buf, plan); err != nil {
		return MealPlanExport{}, apperrors.Wrap("storage_error", "failed to encode meal plan", err)
	}

	now := s.now()
	exportID := uuid.New()
	key := exportKey(sessionID, exportID)
	obj, err := s.storage.Put(ctx, key, buf.Bytes(), csvContentType)
	if err != nil {
		return MealPlanExport{}, apperrors.Wrap("storage_error", "failed to store meal plan export", err)
	}
	export := MealPlanExport{
		ID:        exportID,
		Filename:  fmt.Sprintf("meal_plan_%s.csv", now.Format(time.DateOnly)),
		SizeBytes: obj.Size,
		CreatedAt: now,
	}
	session.Exports = append(session.Exports, export)
	if err := s.saveSession(ctx, session); err != nil {
		_ = s.storage.Delete(ctx, obj.Key)
		return MealPlanExport{}, err
	}
	s.logger.Info("meal plan exported", "session_id", sessionID, "export_id", exportID, "bytes", obj.Size)
	return export, nil
}

func (s *service) DownloadExport(ctx context.Context, sessionID, exportID uuid.UUID) (Download, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return Download{}, err
	}
	export, ok := session.findExport(exportID)
	if !ok {
		return Download{}, apperrors.Wrap("not_found", "export not found", nil)
	}
	reader, err := s.storage.Get(ctx, exportKey(sessionID, export.ID))
	if errors.Is(err, ErrExportNotFound) {
		return Download{}, apperrors.Wrap("not_found", "export content no longer available", err)
	}
	if err != nil {
		return Download{}, apperrors.Wrap("storage_error", "failed to fetch export", err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return Download{}, apperrors.Wrap("storage_error", "failed to read export", err)
	}
	return Download{Filename: export.Filename, ContentType: csvContentType, Data: data}, nil
}

func (s *service) Dashboard(ctx context.Context, sessionID uuid.UUID) (DashboardView, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return DashboardView{}, err
	}
	view := DashboardView{
		Reports:     session.Reports,
		Trends:      session.Reports.Trends(),
		Preferences: session.Preferences,
		MealPlan:    s.generator.Generate(session.Preferences),
		Ingredients: s.generator.Pools().Ingredients(),
	}
	if rec, ok := recommend(session.Reports); ok {
		view.Recommendation = &rec
	}
	return view, nil
}

func (s *service) Ingredients() mealplan.Pools {
	return s.generator.Pools()
}

func (s *service) loadSession(ctx context.Context, sessionID uuid.UUID) (Session, error) {
	session, found, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return Session{}, apperrors.Wrap("storage_error", "failed to load session", err)
	}
	if !found || session.Expired(s.now()) {
		return Session{}, apperrors.Wrap("session_not_found", "session not found or expired", nil)
	}
	return session, nil
}

func (s *service) saveSession(ctx context.Context, session Session) error {
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return apperrors.Wrap("session_not_found", "session expired", nil)
	}
	if err := s.store.Save(ctx, session, ttl); err != nil {
		return apperrors.Wrap("storage_error", "failed to save session", err)
	}
	return nil
}

func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{})
	for _, item := range items {
		clean := strings.TrimSpace(item)
		if clean == "" {
			continue
		}
		key := strings.ToLower(clean)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, clean)
	}
	return out
}
