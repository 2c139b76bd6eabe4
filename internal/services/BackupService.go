package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"ponudaplus/internal/models"
	"ponudaplus/internal/persistence/interfaces"
	"ponudaplus/internal/providers"
	"ponudaplus/internal/store"
	"ponudaplus/internal/structures"
	"time"

	json "github.com/goccy/go-json"
)

const (
	outcomeCreated = "created"
	outcomeUpdated = "updated"
	outcomeFailed  = "failed"
)

var ErrNoEmergencyBackup = errors.New("no emergency backup")

// BackupCreationError aborts an export. Collection names the read that failed.
type BackupCreationError struct {
	Collection string
	Err        error
}

func (e *BackupCreationError) Error() string {
	return fmt.Sprintf("backup of %s failed: %v", e.Collection, e.Err)
}

func (e *BackupCreationError) Unwrap() error {
	return e.Err
}

// SaveFunc hands a rendered backup file to its destination.
type SaveFunc func(filename string, payload []byte) error

type RestoreOptions struct {
	// StrictUpsert creates a document only when its update failed because it does not exist.
	StrictUpsert bool
}

type BackupServiceInterface interface {
	Init()
	CreateFullBackup(ctx context.Context) (*models.Envelope, error)
	DownloadBackup(ctx context.Context, save SaveFunc) (string, error)
	RestoreFromBackup(ctx context.Context, env *models.Envelope, opts RestoreOptions) (*models.RestoreResult, error)
	CreateEmergencyBackup(ctx context.Context) bool
	GetEmergencyBackup() (*models.EmergencyBackup, error)
	RestoreFromEmergencyBackup(ctx context.Context, opts RestoreOptions) (*models.RestoreResult, error)
	EmergencyBackupDate() (time.Time, bool)
	DefaultRestoreOptions() RestoreOptions
}

type BackupService struct {
	conf     *structures.Config
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface
	store    store.DocumentStore
	kv       interfaces.KeyValueInterface
	reminder ReminderServiceInterface
	now      func() time.Time
}

type collectionSpec struct {
	name         string
	collectionID string
	label        string
}

func (bs *BackupService) collections() []collectionSpec {
	c := bs.conf.Collections
	return []collectionSpec{
		{name: models.CollectionPrijemi, collectionID: c.Prijemi, label: "Prijem"},
		{name: models.CollectionPonude, collectionID: c.Ponude, label: "Ponuda"},
		{name: models.CollectionStavke, collectionID: c.Stavke, label: "Stavka"},
	}
}

func (bs *BackupService) Init() {
	if bs.reminder.CheckBackupReminder() {
		bs.logger.Warnf(providers.TypeBackup, "Backup is due, last backup is older than the reminder interval")
	} else {
		bs.logger.Infof(providers.TypeBackup, "Backup reminder checked, no backup due")
	}
	if date, ok := bs.EmergencyBackupDate(); ok {
		bs.logger.Infof(providers.TypeBackup, "Emergency backup from %s is available", models.FormatTimestamp(date))
	}
}

func (bs *BackupService) DefaultRestoreOptions() RestoreOptions {
	return RestoreOptions{StrictUpsert: bs.conf.Backup.StrictUpsert}
}

// CreateFullBackup reads every domain collection and the settings document into
// one envelope. Reads skip the document cache. Any failed read aborts the whole export.
func (bs *BackupService) CreateFullBackup(ctx context.Context) (*models.Envelope, error) {
	start := time.Now()
	ctx = store.WithFreshReads(ctx)
	env := &models.Envelope{
		Version:   models.EnvelopeVersion,
		Timestamp: models.FormatTimestamp(bs.now()),
		AppName:   bs.conf.Backup.AppName,
		Data:      &models.EnvelopeData{},
	}

	bs.logger.Infof(providers.TypeBackup, "Starting full backup")

	targets := map[string]*[]models.Document{
		models.CollectionPrijemi: &env.Data.Prijemi,
		models.CollectionPonude:  &env.Data.Ponude,
		models.CollectionStavke:  &env.Data.Stavke,
	}
	pageSize := bs.conf.Store.PageSize
	for _, c := range bs.collections() {
		docs, err := bs.store.List(ctx, c.collectionID, store.ListOptions{Limit: pageSize})
		if err != nil {
			bs.logger.Errorf(providers.TypeBackup, "Backup of %s failed: %v", c.name, err)
			return nil, &BackupCreationError{Collection: c.name, Err: err}
		}
		if docs == nil {
			docs = []models.Document{}
		}
		if pageSize > 0 && len(docs) >= pageSize {
			bs.logger.Warnf(providers.TypeBackup, "Collection %s returned %d documents, the backup may be truncated", c.name, len(docs))
		}
		*targets[c.name] = docs
	}

	settings, err := bs.store.Get(ctx, bs.conf.Collections.Settings, bs.conf.Collections.SettingsDocID)
	if err != nil {
		bs.logger.Errorf(providers.TypeBackup, "Backup of settings failed: %v", err)
		return nil, &BackupCreationError{Collection: models.CollectionSettings, Err: err}
	}
	env.Data.Settings = settings

	raw, err := json.Marshal(env)
	if err != nil {
		return nil, &BackupCreationError{Collection: "envelope", Err: err}
	}

	env.Metadata = &models.EnvelopeMetadata{
		PrijemiCount: len(env.Data.Prijemi),
		PonudeCount:  len(env.Data.Ponude),
		StavkeCount:  len(env.Data.Stavke),
		BackupSize:   len(raw),
		Collections:  append([]string(nil), models.BackupCollections...),
	}

	bs.metrics.ObserveBackupDuration("full", time.Since(start))
	bs.metrics.SetBackupSize("full", len(raw))
	bs.logger.Infof(providers.TypeBackup, "Backup finished: prijemi=%d ponude=%d stavke=%d size=%.2fMB",
		env.Metadata.PrijemiCount, env.Metadata.PonudeCount, env.Metadata.StavkeCount,
		float64(env.Metadata.BackupSize)/1024/1024)

	return env, nil
}

// BackupFilename is the download name for a backup taken at t.
func BackupFilename(t time.Time) string {
	return "ponuda-plus-backup-" + t.Format("2006-01-02_15-04-05") + ".json"
}

func (bs *BackupService) DownloadBackup(ctx context.Context, save SaveFunc) (string, error) {
	env, err := bs.CreateFullBackup(ctx)
	if err != nil {
		return "", err
	}

	payload, err := env.MarshalIndentWithBOM()
	if err != nil {
		return "", fmt.Errorf("render backup: %w", err)
	}

	now := bs.now()
	filename := BackupFilename(now)
	if err := save(filename, payload); err != nil {
		bs.logger.Errorf(providers.TypeBackup, "Saving backup %s failed: %v", filename, err)
		return "", fmt.Errorf("save backup %s: %w", filename, err)
	}

	if err := bs.reminder.MarkBackupCompleted(now); err != nil {
		bs.logger.Errorf(providers.TypeBackup, "Backup %s saved but last backup date was not recorded: %v", filename, err)
	}
	bs.metrics.SetLastBackupTimestamp(now)
	bs.logger.Infof(providers.TypeBackup, "Backup downloaded as %s (%d bytes)", filename, len(payload))

	return filename, nil
}

// SaveToDir writes backup files atomically into dir.
func SaveToDir(dir string) SaveFunc {
	return func(filename string, payload []byte) error {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}

		target := filepath.Join(dir, filename)
		tmpFile := target + ".tmp"
		file, err := os.Create(tmpFile)
		if err != nil {
			return err
		}

		if _, err = file.Write(payload); err != nil {
			file.Close()
			os.Remove(tmpFile)
			return err
		}
		if err = file.Sync(); err != nil {
			file.Close()
			os.Remove(tmpFile)
			return err
		}
		if err = file.Close(); err != nil {
			os.Remove(tmpFile)
			return err
		}

		return os.Rename(tmpFile, target)
	}
}

// RestoreFromBackup writes an envelope back into the store. Only a malformed
// envelope fails the call; per-document failures are collected in the result.
func (bs *BackupService) RestoreFromBackup(ctx context.Context, env *models.Envelope, opts RestoreOptions) (*models.RestoreResult, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}

	bs.logger.Infof(providers.TypeRestore, "Starting restore of backup taken %s", env.Timestamp)
	result := models.NewRestoreResult()

	sources := map[string][]models.Document{
		models.CollectionPrijemi: env.Data.Prijemi,
		models.CollectionPonude:  env.Data.Ponude,
		models.CollectionStavke:  env.Data.Stavke,
	}
	for _, c := range bs.collections() {
		docs := sources[c.name]
		if docs == nil {
			continue
		}
		bs.logger.Infof(providers.TypeRestore, "Restoring %d %s", len(docs), c.name)
		bs.restoreCollection(ctx, c, docs, result, opts)
	}

	if env.Data.Settings != nil {
		bs.restoreSettings(ctx, env.Data.Settings, result)
	}

	bs.logger.Infof(providers.TypeRestore,
		"Restore finished: prijemi %d/%d/%d, ponude %d/%d/%d, stavke %d/%d/%d (created/updated/failed), %d errors",
		result.Prijemi.Created, result.Prijemi.Updated, result.Prijemi.Failed,
		result.Ponude.Created, result.Ponude.Updated, result.Ponude.Failed,
		result.Stavke.Created, result.Stavke.Updated, result.Stavke.Failed,
		len(result.Errors))

	return result, nil
}

func (bs *BackupService) restoreCollection(ctx context.Context, c collectionSpec, docs []models.Document, result *models.RestoreResult, opts RestoreOptions) {
	counts := result.Collection(c.name)

	for _, doc := range docs {
		id := doc.ID()
		outcome, err := bs.upsert(ctx, c.collectionID, id, doc.Clean(), opts)
		switch outcome {
		case outcomeCreated:
			counts.Created++
		case outcomeUpdated:
			counts.Updated++
		default:
			counts.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s %s: %s", c.label, displayID(id), err))
			bs.logger.Errorf(providers.TypeRestore, "%s %s failed: %v", c.label, displayID(id), err)
		}
		bs.metrics.IncRestoredDocuments(c.name, outcome)
	}
}

// upsert tries the update first and falls back to create. Documents without an id
// go straight to create.
func (bs *BackupService) upsert(ctx context.Context, collectionID, id string, fields models.Document, opts RestoreOptions) (string, error) {
	if id != "" {
		_, err := bs.store.Update(ctx, collectionID, id, fields)
		if err == nil {
			return outcomeUpdated, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			if opts.StrictUpsert {
				return outcomeFailed, err
			}
			bs.logger.Warnf(providers.TypeRestore, "Update of %s/%s failed (%v), trying create", collectionID, id, err)
		}
	}

	if _, err := bs.store.Create(ctx, collectionID, id, fields); err != nil {
		return outcomeFailed, err
	}
	return outcomeCreated, nil
}

func (bs *BackupService) restoreSettings(ctx context.Context, settings models.Document, result *models.RestoreResult) {
	cols := bs.conf.Collections
	if _, err := bs.store.Update(ctx, cols.Settings, cols.SettingsDocID, settings.Clean()); err != nil {
		result.Settings.Failed = true
		result.Errors = append(result.Errors, fmt.Sprintf("Settings: %s", err))
		bs.logger.Errorf(providers.TypeRestore, "Settings restore failed: %v", err)
		bs.metrics.IncRestoredDocuments(models.CollectionSettings, outcomeFailed)
		return
	}
	result.Settings.Updated = true
	bs.metrics.IncRestoredDocuments(models.CollectionSettings, outcomeUpdated)
}

func displayID(id string) string {
	if id == "" {
		return "(no id)"
	}
	return id
}

// CreateEmergencyBackup stores a full backup in the local key-value file. A backup
// over the size budget is stored without settings and metadata. Failures are
// logged and reported as false.
func (bs *BackupService) CreateEmergencyBackup(ctx context.Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			bs.logger.Errorf(providers.TypeBackup, "Emergency backup panicked: %v", r)
			ok = false
		}
	}()

	bs.logger.Infof(providers.TypeBackup, "Creating emergency backup")
	env, err := bs.CreateFullBackup(ctx)
	if err != nil {
		bs.logger.Errorf(providers.TypeBackup, "Emergency backup error: %v", err)
		return false
	}

	payload, err := json.Marshal(env)
	if err != nil {
		bs.logger.Errorf(providers.TypeBackup, "Emergency backup error: %v", err)
		return false
	}

	if budget := bs.conf.Backup.EmergencyBudget; len(payload) > budget {
		bs.logger.Warnf(providers.TypeBackup, "Emergency backup is %.2fMB, over the %.2fMB budget, keeping collections only",
			float64(len(payload))/1024/1024, float64(budget)/1024/1024)
		payload, err = json.Marshal(env.Reduced())
		if err != nil {
			bs.logger.Errorf(providers.TypeBackup, "Emergency backup error: %v", err)
			return false
		}
	}

	prev, hadPrev := bs.kv.Get(models.KVEmergencyBackup)
	if err := bs.kv.Set(models.KVEmergencyBackup, string(payload)); err != nil {
		bs.logger.Errorf(providers.TypeBackup, "Emergency backup could not be stored: %v", err)
		return false
	}
	if err := bs.kv.Set(models.KVEmergencyDate, models.FormatTimestamp(bs.now())); err != nil {
		bs.logger.Errorf(providers.TypeBackup, "Emergency backup date could not be stored: %v", err)
		// the payload and its date must stay a pair
		var rerr error
		if hadPrev {
			rerr = bs.kv.Set(models.KVEmergencyBackup, prev)
		} else {
			rerr = bs.kv.Delete(models.KVEmergencyBackup)
		}
		if rerr != nil {
			bs.logger.Errorf(providers.TypeBackup, "Emergency backup rollback failed: %v", rerr)
		}
		return false
	}

	bs.metrics.SetBackupSize("emergency", len(payload))
	bs.logger.Infof(providers.TypeBackup, "Emergency backup stored (%d bytes)", len(payload))
	return true
}

func (bs *BackupService) GetEmergencyBackup() (*models.EmergencyBackup, error) {
	raw, ok := bs.kv.Get(models.KVEmergencyBackup)
	if !ok || raw == "" {
		return nil, ErrNoEmergencyBackup
	}
	date, ok := bs.EmergencyBackupDate()
	if !ok {
		return nil, ErrNoEmergencyBackup
	}

	env, err := models.ParseEnvelope([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("read emergency backup: %w", err)
	}
	return &models.EmergencyBackup{Backup: env, Date: date}, nil
}

func (bs *BackupService) RestoreFromEmergencyBackup(ctx context.Context, opts RestoreOptions) (*models.RestoreResult, error) {
	emergency, err := bs.GetEmergencyBackup()
	if err != nil {
		return nil, err
	}
	bs.logger.Infof(providers.TypeRestore, "Restoring emergency backup from %s", models.FormatTimestamp(emergency.Date))
	return bs.RestoreFromBackup(ctx, emergency.Backup, opts)
}

func (bs *BackupService) EmergencyBackupDate() (time.Time, bool) {
	raw, ok := bs.kv.Get(models.KVEmergencyDate)
	if !ok || raw == "" {
		return time.Time{}, false
	}
	t, err := models.ParseTimestamp(raw)
	if err != nil {
		bs.logger.Warnf(providers.TypeBackup, "Unreadable emergency backup date %q: %v", raw, err)
		return time.Time{}, false
	}
	return t, true
}

func NewBackupService(
	conf *structures.Config,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
	documentStore store.DocumentStore,
	kv interfaces.KeyValueInterface,
	reminder ReminderServiceInterface,
) BackupServiceInterface {
	return &BackupService{
		conf:     conf,
		logger:   logger,
		metrics:  metrics,
		store:    documentStore,
		kv:       kv,
		reminder: reminder,
		now:      time.Now,
	}
}
