package structures

import (
	"net/http"
	"time"
)

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
}

type Route struct {
	Method  string
	Url     string
	Handler http.Handler
}

type Server struct {
	Host string `mapstructure:"host" yaml:"host" validate:"required"`
	Port int    `mapstructure:"port" yaml:"port" validate:"required|uint|min:1"`
}

type StoreConfig struct {
	Driver     string        `mapstructure:"driver" yaml:"driver" validate:"required|in:sqlite,appwrite"`
	Path       string        `mapstructure:"path" yaml:"path"`
	Endpoint   string        `mapstructure:"endpoint" yaml:"endpoint"`
	ProjectID  string        `mapstructure:"project" yaml:"project"`
	APIKey     string        `mapstructure:"apiKey" yaml:"apiKey"`
	DatabaseID string        `mapstructure:"database" yaml:"database"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	PageSize   int           `mapstructure:"pageSize" yaml:"pageSize" validate:"required|min:1"`
}

// CollectionsConfig maps the logical backup collections to store collection ids.
type CollectionsConfig struct {
	Prijemi       string `mapstructure:"prijemi" yaml:"prijemi" validate:"required"`
	Ponude        string `mapstructure:"ponude" yaml:"ponude" validate:"required"`
	Stavke        string `mapstructure:"stavke" yaml:"stavke" validate:"required"`
	Settings      string `mapstructure:"settings" yaml:"settings" validate:"required"`
	SettingsDocID string `mapstructure:"settingsDocId" yaml:"settingsDocId" validate:"required"`
}

type BackupConfig struct {
	AppName               string        `mapstructure:"appName" yaml:"appName" validate:"required"`
	DownloadDir           string        `mapstructure:"downloadDir" yaml:"downloadDir"`
	ReminderIntervalDays  int           `mapstructure:"reminderIntervalDays" yaml:"reminderIntervalDays" validate:"required|min:1"`
	ReminderCheckInterval time.Duration `mapstructure:"reminderCheckInterval" yaml:"reminderCheckInterval"`
	EmergencyBudget       int           `mapstructure:"emergencyBudget" yaml:"emergencyBudget" validate:"required|min:1"`
	EmergencyInterval     time.Duration `mapstructure:"emergencyInterval" yaml:"emergencyInterval"`
	StrictUpsert          bool          `mapstructure:"strictUpsert" yaml:"strictUpsert"`
	MaxUploadSize         int64         `mapstructure:"maxUploadSize" yaml:"maxUploadSize" validate:"required|min:1"`
}

type Persistence struct {
	FilePath string `mapstructure:"filePath" yaml:"filePath" validate:"required|unixPath"`
	Compress bool   `mapstructure:"compress" yaml:"compress"`
}

type LoggerConfig struct {
	Level string `mapstructure:"level" yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `mapstructure:"mode" yaml:"mode" validate:"required|uint"`
	Dir   string `mapstructure:"dir" yaml:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	Size    int           `mapstructure:"size" yaml:"size"`
	TTL     time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	WebServer   Server            `mapstructure:"webServer" yaml:"webServer"`
	Store       StoreConfig       `mapstructure:"store" yaml:"store"`
	Collections CollectionsConfig `mapstructure:"collections" yaml:"collections"`
	Backup      BackupConfig      `mapstructure:"backup" yaml:"backup"`
	Persistence Persistence       `mapstructure:"persistence" yaml:"persistence"`
	Logger      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	Cache       CacheConfig       `mapstructure:"cache" yaml:"cache"`
	Metrics     MetricsConfig     `mapstructure:"metrics" yaml:"metrics"`
}
