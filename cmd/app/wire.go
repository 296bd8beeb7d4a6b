//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/keto-dashboard/internal/bootstrap"
	"github.com/yanqian/keto-dashboard/internal/domain/dashboard"
	"github.com/yanqian/keto-dashboard/internal/domain/labreport"
	"github.com/yanqian/keto-dashboard/internal/domain/mealplan"
	"github.com/yanqian/keto-dashboard/internal/infra/config"
	"github.com/yanqian/keto-dashboard/internal/infra/pdftext"
	httpiface "github.com/yanqian/keto-dashboard/internal/interface/http"
	"github.com/yanqian/keto-dashboard/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideDashboardConfig,
		providePatternTable,
		provideLoaderConfig,
		provideMealPlanGenerator,
		provideSessionBackend,
		provideSessionStore,
		provideSweeper,
		provideExportStorage,
		provideHandler,
		labreport.NewExtractor,
		labreport.NewLoader,
		pdftext.NewExtractor,
		dashboard.NewService,
		wire.Bind(new(labreport.TextExtractor), new(*pdftext.Extractor)),
		wire.Bind(new(dashboard.ReportLoader), new(*labreport.Loader)),
		wire.Bind(new(dashboard.PlanGenerator), new(*mealplan.Generator)),
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
