package providers

import (
	"fmt"
	"path/filepath"
	"ponudaplus/internal/structures"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("webServer.host", "127.0.0.1")
	v.SetDefault("webServer.port", 8090)

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "/var/lib/ponudaplus/documents.db")
	v.SetDefault("store.timeout", 30*time.Second)
	v.SetDefault("store.pageSize", 10000)

	v.SetDefault("collections.prijemi", "prijemi")
	v.SetDefault("collections.ponude", "ponude")
	v.SetDefault("collections.stavke", "stavke")
	v.SetDefault("collections.settings", "settings")
	v.SetDefault("collections.settingsDocId", "settings")

	v.SetDefault("backup.appName", "Ponuda+")
	v.SetDefault("backup.reminderIntervalDays", 7)
	v.SetDefault("backup.reminderCheckInterval", time.Hour)
	v.SetDefault("backup.emergencyBudget", 8*1024*1024)
	v.SetDefault("backup.emergencyInterval", 0)
	v.SetDefault("backup.strictUpsert", false)
	v.SetDefault("backup.maxUploadSize", 64<<20)

	v.SetDefault("persistence.filePath", "/var/lib/ponudaplus/local.kv")
	v.SetDefault("persistence.compress", true)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.mode", 0644)
	v.SetDefault("logger.dir", "/var/log/ponudaplus")

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.size", 8)
	v.SetDefault("cache.ttl", time.Minute)

	v.SetDefault("metrics.enabled", true)
}

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	setConfigDefaults(v)

	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	v.BindEnv("logger.level", "PONUDA_LOG_LEVEL")
	v.BindEnv("store.driver", "PONUDA_STORE_DRIVER")
	v.BindEnv("store.endpoint", "PONUDA_STORE_ENDPOINT")
	v.BindEnv("store.project", "PONUDA_STORE_PROJECT")
	v.BindEnv("store.apiKey", "PONUDA_STORE_API_KEY")
	v.BindEnv("store.database", "PONUDA_STORE_DATABASE")
	v.BindEnv("collections.prijemi", "PONUDA_PRIJEM_COLLECTION")
	v.BindEnv("collections.ponude", "PONUDA_PONUDE_COLLECTION")
	v.BindEnv("collections.stavke", "PONUDA_STAVKE_COLLECTION")
	v.BindEnv("collections.settings", "PONUDA_SETTINGS_COLLECTION")
	v.BindEnv("collections.settingsDocId", "PONUDA_SETTINGS_DOC_ID")
	v.BindEnv("cache.enabled", "PONUDA_CACHE_ENABLED")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "PonudaPlusBackupDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
