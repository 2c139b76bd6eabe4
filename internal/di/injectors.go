//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"ponudaplus/internal"
	"ponudaplus/internal/controllers"
	"ponudaplus/internal/persistence"
	"ponudaplus/internal/persistence/interfaces"
	"ponudaplus/internal/providers"
	"ponudaplus/internal/services"
	"ponudaplus/internal/store"
	"ponudaplus/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, func(), error) {

	wire.Build(
		providers.NewConfigProvider,
		provideLogger,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		store.NewDocumentStore,
		persistence.NewCompressor,
		provideFileKV,
		wire.Bind(new(interfaces.KeyValueInterface), new(*persistence.FileKV)),

		services.NewReminderService,
		services.NewBackupService,
		persistence.NewScheduler,
		controllers.NewBackupController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil, nil
}
