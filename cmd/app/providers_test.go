package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/keto-dashboard/internal/domain/labreport"
	"github.com/yanqian/keto-dashboard/internal/infra/config"
	"github.com/yanqian/keto-dashboard/internal/infra/exportstore"
	"github.com/yanqian/keto-dashboard/internal/infra/sessionstore"
)

func TestProvidePatternTableAppliesOverrides(t *testing.T) {
	collapse := false
	cfg := &config.Config{Extraction: config.ExtractionConfig{
		Mode: "strict",
		Overrides: map[string]config.ExtractionOverride{
			string(labreport.HbA1c): {Label: `Glycated\s+Hemoglobin`, CollapseWhitespace: &collapse},
		},
	}}

	table, err := providePatternTable(cfg)
	require.NoError(t, err)
	require.Equal(t, labreport.Pattern{Label: `Glycated\s+Hemoglobin`, Unit: "%"}, table[labreport.HbA1c])
	require.Equal(t, "mg", table[labreport.LDL].Unit)

	extractor, err := labreport.NewExtractor(table)
	require.NoError(t, err)
	reading := extractor.ExtractAll("Glycated Hemoglobin: 6.2 %")
	v, ok := reading.Value(labreport.HbA1c)
	require.True(t, ok)
	require.Equal(t, 6.2, v)
}

func TestProvidePatternTableRejectsUnknownMarker(t *testing.T) {
	cfg := &config.Config{Extraction: config.ExtractionConfig{
		Overrides: map[string]config.ExtractionOverride{"Ferritin (ng/mL)": {Label: "Ferritin"}},
	}}
	_, err := providePatternTable(cfg)
	require.Error(t, err)
}

func TestProvideSessionBackendDefaultsToMemory(t *testing.T) {
	backend := provideSessionBackend(&config.Config{}, discardLogger())
	store, ok := provideSessionStore(backend).(*sessionstore.MemoryStore)
	require.True(t, ok)
	require.NotNil(t, provideSweeper(backend))
	require.Zero(t, store.Sweep(context.Background()))
}

func TestProvideExportStorageDefaultsToMemory(t *testing.T) {
	storage, err := provideExportStorage(&config.Config{}, discardLogger())
	require.NoError(t, err)
	require.IsType(t, &exportstore.MemoryStorage{}, storage)
}

func TestBuildValkeyOptions(t *testing.T) {
	opt, err := buildValkeyOptions("localhost:6379")
	require.NoError(t, err)
	require.Equal(t, []string{"localhost:6379"}, opt.InitAddress)

	opt, err = buildValkeyOptions("redis://cache.internal:6380/0")
	require.NoError(t, err)
	require.Equal(t, []string{"cache.internal:6380"}, opt.InitAddress)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
