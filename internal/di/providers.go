package di

import (
	"ponudaplus/internal/persistence"
	"ponudaplus/internal/persistence/interfaces"
	"ponudaplus/internal/providers"
	"ponudaplus/internal/structures"
)

// provideLogger closes the log files when the injector is torn down.
func provideLogger(conf *structures.Config) (providers.Logger, func(), error) {
	logger, err := providers.NewLogProvider(conf)
	if err != nil {
		return nil, nil, err
	}
	return logger, logger.Close, nil
}

func provideFileKV(conf *structures.Config, compressor interfaces.CompressorInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) (*persistence.FileKV, func()) {
	kv := persistence.NewFileKV(conf, compressor, logger, metrics)
	return kv, kv.Close
}
