package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/keto-dashboard/internal/bootstrap"
	"github.com/yanqian/keto-dashboard/internal/domain/dashboard"
	"github.com/yanqian/keto-dashboard/internal/domain/labreport"
	"github.com/yanqian/keto-dashboard/internal/domain/mealplan"
	"github.com/yanqian/keto-dashboard/internal/infra/config"
	"github.com/yanqian/keto-dashboard/internal/infra/exportstore"
	"github.com/yanqian/keto-dashboard/internal/infra/sessionstore"
	httpiface "github.com/yanqian/keto-dashboard/internal/interface/http"
)

func provideDashboardConfig(cfg *config.Config, logger *slog.Logger) dashboard.Config {
	if cfg.Session.EphemeralSecret {
		logger.Warn("session.secret not set, generated an ephemeral signing key; tokens will not survive a restart")
	}
	return dashboard.Config{
		Secret:     cfg.Session.Secret,
		SessionTTL: cfg.Session.TTL,
	}
}

func providePatternTable(cfg *config.Config) (labreport.PatternTable, error) {
	table, err := labreport.PatternsFor(cfg.Extraction.Mode)
	if err != nil {
		return nil, err
	}
	for name, override := range cfg.Extraction.Overrides {
		marker := labreport.Marker(name)
		if !marker.IsKnown() {
			return nil, fmt.Errorf("extraction override for unknown marker %q", name)
		}
		pattern := table[marker]
		if strings.TrimSpace(override.Label) != "" {
			pattern.Label = override.Label
		}
		if override.Unit != "" {
			pattern.Unit = override.Unit
		}
		if override.CollapseWhitespace != nil {
			pattern.CollapseWhitespace = *override.CollapseWhitespace
		}
		table[marker] = pattern
	}
	return table, nil
}

func provideLoaderConfig(cfg *config.Config) labreport.LoaderConfig {
	return labreport.LoaderConfig{MaxFileBytes: cfg.Upload.MaxFileBytes}
}

func provideMealPlanGenerator(cfg *config.Config) *mealplan.Generator {
	return mealplan.NewGenerator(mealplan.Config{
		Pools:       mealplan.DefaultPools(),
		Placeholder: cfg.MealPlan.Placeholder,
	}, nil)
}

func provideHandler(cfg *config.Config, svc dashboard.Service, logger *slog.Logger) *httpiface.Handler {
	return httpiface.NewHandler(svc, cfg.Upload.MaxFileBytes, logger)
}

// sessionBackend pairs the chosen store with its sweeper. Valkey expires keys itself.
type sessionBackend struct {
	store   dashboard.SessionStore
	sweeper bootstrap.Sweeper
}

func provideSessionBackend(cfg *config.Config, logger *slog.Logger) sessionBackend {
	memory := func() sessionBackend {
		store := sessionstore.NewMemoryStore()
		return sessionBackend{store: store, sweeper: store}
	}
	if !cfg.Session.Valkey.Enabled {
		return memory()
	}
	opt, err := buildValkeyOptions(cfg.Session.Valkey.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
		return memory()
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory store", "error", err)
		return memory()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory store", "error", err)
		client.Close()
		return memory()
	}
	logger.Info("valkey session store enabled", "addr", cfg.Session.Valkey.Addr)
	return sessionBackend{store: sessionstore.NewValkeyStore(client, cfg.Session.Valkey.Prefix)}
}

func provideSessionStore(backend sessionBackend) dashboard.SessionStore {
	return backend.store
}

func provideSweeper(backend sessionBackend) bootstrap.Sweeper {
	return backend.sweeper
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideExportStorage(cfg *config.Config, logger *slog.Logger) (dashboard.ExportStorage, error) {
	s3 := cfg.Export.S3
	if !s3.Enabled {
		logger.Info("s3 export storage disabled, keeping exports in memory")
		return exportstore.NewMemoryStorage(), nil
	}
	storage, err := exportstore.NewS3Storage(exportstore.S3Options{
		Endpoint:  s3.Endpoint,
		AccessKey: s3.AccessKey,
		SecretKey: s3.SecretKey,
		Bucket:    s3.Bucket,
		Region:    s3.Region,
	}, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("s3 export storage enabled", "bucket", s3.Bucket)
	return storage, nil
}
