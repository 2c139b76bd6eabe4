package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"ponudaplus/internal/models"
	"ponudaplus/internal/store"
	"ponudaplus/internal/structures"
	"ponudaplus/internal/testutil"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

func testConfig() *structures.Config {
	return &structures.Config{
		Store: structures.StoreConfig{
			Driver:   "sqlite",
			PageSize: 10000,
		},
		Collections: structures.CollectionsConfig{
			Prijemi:       "col_prijemi",
			Ponude:        "col_ponude",
			Stavke:        "col_stavke",
			Settings:      "col_settings",
			SettingsDocID: "settings",
		},
		Backup: structures.BackupConfig{
			AppName:              "Ponuda+",
			ReminderIntervalDays: 7,
			EmergencyBudget:      8 * 1024 * 1024,
			MaxUploadSize:        64 << 20,
		},
	}
}

type backupFixture struct {
	service *BackupService
	store   *testutil.MockStore
	kv      *testutil.MockKV
	logger  *testutil.MockLogger
	metrics *testutil.MockMetrics
}

func newBackupFixture(conf *structures.Config) *backupFixture {
	f := &backupFixture{
		store:   testutil.NewMockStore(),
		kv:      testutil.NewMockKV(),
		logger:  &testutil.MockLogger{},
		metrics: &testutil.MockMetrics{},
	}
	reminder := NewReminderService(conf, f.kv, f.logger).(*ReminderService)
	reminder.now = func() time.Time { return fixedNow }

	f.service = NewBackupService(conf, f.logger, f.metrics, f.store, f.kv, reminder).(*BackupService)
	f.service.now = func() time.Time { return fixedNow }
	return f
}

func seedDomain(st *testutil.MockStore, conf *structures.Config) {
	st.Seed(conf.Collections.Prijemi,
		models.Document{"$id": "pr1", "sifra": "A1", "naziv": "Laptop"},
		models.Document{"$id": "pr2", "sifra": "A2", "naziv": "Printer"},
	)
	st.Seed(conf.Collections.Ponude,
		models.Document{"$id": "po1", "broj": "P-1", "iznos": "120.50"},
	)
	st.Seed(conf.Collections.Settings,
		models.Document{"$id": "settings", "firma": "Servis d.o.o."},
	)
}

func TestCreateFullBackup_CollectsAllCollections(t *testing.T) {
	conf := testConfig()
	f := newBackupFixture(conf)
	seedDomain(f.store, conf)

	env, err := f.service.CreateFullBackup(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "1.0", env.Version)
	assert.Equal(t, "2025-03-14T10:30:00.000Z", env.Timestamp)
	assert.Equal(t, "Ponuda+", env.AppName)
	require.NotNil(t, env.Data)
	assert.Len(t, env.Data.Prijemi, 2)
	assert.Len(t, env.Data.Ponude, 1)
	assert.NotNil(t, env.Data.Stavke)
	assert.Empty(t, env.Data.Stavke)
	assert.Equal(t, "Servis d.o.o.", env.Data.Settings["firma"])

	require.NotNil(t, env.Metadata)
	assert.Equal(t, 2, env.Metadata.PrijemiCount)
	assert.Equal(t, 1, env.Metadata.PonudeCount)
	assert.Equal(t, 0, env.Metadata.StavkeCount)
	assert.Equal(t, []string{"prijemi", "ponude", "stavke", "settings"}, env.Metadata.Collections)

	withoutMeta := *env
	withoutMeta.Metadata = nil
	raw, err := json.Marshal(&withoutMeta)
	require.NoError(t, err)
	assert.Equal(t, len(raw), env.Metadata.BackupSize)
	assert.Equal(t, 1, f.metrics.BackupDurations["full"])
}

func TestCreateFullBackup_WarnsWhenPageIsFull(t *testing.T) {
	conf := testConfig()
	conf.Store.PageSize = 2
	f := newBackupFixture(conf)
	seedDomain(f.store, conf)
	f.store.Seed(conf.Collections.Prijemi, models.Document{"$id": "pr3"})

	env, err := f.service.CreateFullBackup(context.Background())
	require.NoError(t, err)

	assert.Len(t, env.Data.Prijemi, 2)
	assert.True(t, f.logger.HasLevel("warn", "may be truncated"))
}

func TestCreateFullBackup_ListFailureAborts(t *testing.T) {
	conf := testConfig()
	f := newBackupFixture(conf)
	seedDomain(f.store, conf)
	listErr := errors.New("network down")
	f.store.ListErr = map[string]error{conf.Collections.Ponude: listErr}

	env, err := f.service.CreateFullBackup(context.Background())
	assert.Nil(t, env)

	var creationErr *BackupCreationError
	require.True(t, errors.As(err, &creationErr))
	assert.Equal(t, "ponude", creationErr.Collection)
	assert.ErrorIs(t, err, listErr)
}

func TestCreateFullBackup_MissingSettingsAborts(t *testing.T) {
	conf := testConfig()
	f := newBackupFixture(conf)

	_, err := f.service.CreateFullBackup(context.Background())

	var creationErr *BackupCreationError
	require.True(t, errors.As(err, &creationErr))
	assert.Equal(t, "settings", creationErr.Collection)
}

func TestDownloadBackup_SavesAndRecordsDate(t *testing.T) {
	conf := testConfig()
	f := newBackupFixture(conf)
	seedDomain(f.store, conf)

	var savedName string
	var savedPayload []byte
	name, err := f.service.DownloadBackup(context.Background(), func(filename string, payload []byte) error {
		savedName = filename
		savedPayload = payload
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "ponuda-plus-backup-2025-03-14_10-30-00.json", name)
	assert.Equal(t, name, savedName)
	assert.True(t, bytes.HasPrefix(savedPayload, []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, string(savedPayload), "\n  \"version\": \"1.0\"")

	env, err := models.ParseEnvelope(savedPayload)
	require.NoError(t, err)
	assert.Len(t, env.Data.Prijemi, 2)

	last, ok := f.kv.Get(models.KVLastBackupDate)
	require.True(t, ok)
	assert.Equal(t, "2025-03-14T10:30:00.000Z", last)
	assert.Equal(t, fixedNow, f.metrics.LastBackup)
}

func TestDownloadBackup_SaveFailureKeepsLastBackupDate(t *testing.T) {
	conf := testConfig()
	f := newBackupFixture(conf)
	seedDomain(f.store, conf)
	saveErr := errors.New("disk full")

	_, err := f.service.DownloadBackup(context.Background(), func(string, []byte) error { return saveErr })
	assert.ErrorIs(t, err, saveErr)

	_, ok := f.kv.Get(models.KVLastBackupDate)
	assert.False(t, ok)
}

func TestDownloadBackup_ExportFailureSkipsSave(t *testing.T) {
	conf := testConfig()
	f := newBackupFixture(conf)
	called := false

	_, err := f.service.DownloadBackup(context.Background(), func(string, []byte) error {
		called = true
		return nil
	})

	var creationErr *BackupCreationError
	assert.True(t, errors.As(err, &creationErr))
	assert.False(t, called)
}

func TestSaveToDir_WritesAtomically(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")

	err := SaveToDir(dir)("ponuda-plus-backup-2025-03-14_10-30-00.json", []byte("{}"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "ponuda-plus-backup-2025-03-14_10-30-00.json"))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	_, err = os.Stat(filepath.Join(dir, "ponuda-plus-backup-2025-03-14_10-30-00.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestRestore_RoundTripIntoEmptyStore(t *testing.T) {
	conf := testConfig()
	source := newBackupFixture(conf)
	seedDomain(source.store, conf)
	source.store.Seed(conf.Collections.Stavke,
		models.Document{"$id": "st1", "naziv": "Baterija"},
		models.Document{"$id": "st2", "naziv": "Punjac"},
		models.Document{"$id": "st3", "naziv": "Kabel"},
	)

	env, err := source.service.CreateFullBackup(context.Background())
	require.NoError(t, err)

	target := newBackupFixture(conf)
	// the settings singleton exists in every deployment
	target.store.Seed(conf.Collections.Settings, models.Document{"$id": "settings"})

	result, err := target.service.RestoreFromBackup(context.Background(), env, RestoreOptions{})
	require.NoError(t, err)

	assert.Equal(t, models.CollectionResult{Created: 2}, result.Prijemi)
	assert.Equal(t, models.CollectionResult{Created: 1}, result.Ponude)
	assert.Equal(t, models.CollectionResult{Created: 3}, result.Stavke)
	assert.True(t, result.Settings.Updated)
	assert.Equal(t, []string{}, result.Errors)

	for _, col := range []string{conf.Collections.Prijemi, conf.Collections.Ponude, conf.Collections.Stavke} {
		src := source.store.Docs(col)
		dst := target.store.Docs(col)
		require.Len(t, dst, len(src), col)
		for i := range src {
			assert.Equal(t, src[i].ID(), dst[i].ID())
			assert.Equal(t, src[i].Clean(), dst[i].Clean())
		}
	}
	assert.Equal(t, "Servis d.o.o.", target.store.Docs(conf.Collections.Settings)[0]["firma"])
}

func TestRestore_IsIdempotent(t *testing.T) {
	conf := testConfig()
	f := newBackupFixture(conf)
	seedDomain(f.store, conf)

	env, err := f.service.CreateFullBackup(context.Background())
	require.NoError(t, err)

	target := newBackupFixture(conf)
	target.store.Seed(conf.Collections.Settings, models.Document{"$id": "settings"})

	first, err := target.service.RestoreFromBackup(context.Background(), env, RestoreOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Prijemi.Created)

	second, err := target.service.RestoreFromBackup(context.Background(), env, RestoreOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.CollectionResult{Updated: 2}, second.Prijemi)
	assert.Equal(t, models.CollectionResult{Updated: 1}, second.Ponude)
	assert.Equal(t, models.CollectionResult{}, second.Stavke)
	assert.Empty(t, second.Errors)
	assert.Len(t, target.store.Docs(conf.Collections.Prijemi), 2)
}

func TestRestore_StripsMetadataFromEveryWrite(t *testing.T) {
	conf := testConfig()
	f := newBackupFixture(conf)
	f.store.Seed(conf.Collections.Prijemi, models.Document{"$id": "existing"})

	env := &models.Envelope{
		Version: "1.0",
		Data: &models.EnvelopeData{
			Prijemi: []models.Document{
				{"$id": "existing", "$createdAt": "x", "$updatedAt": "y", "$permissions": []any{"read(\"any\")"}, "sifra": "A1"},
				{"$id": "new", "$collectionId": "col", "$databaseId": "db", "$sequence": 4, "sifra": "A2"},
			},
			Settings: models.Document{"$id": "settings", "$updatedAt": "z", "firma": "X"},
		},
	}

	_, err := f.service.RestoreFromBackup(context.Background(), env, RestoreOptions{})
	require.NoError(t, err)

	require.NotEmpty(t, f.store.Writes)
	for _, w := range f.store.Writes {
		for key := range w.Fields {
			assert.False(t, models.IsMetadataKey(key), "%s %s/%s carried %s", w.Op, w.Collection, w.ID, key)
		}
	}
}

func TestRestore_PartialFailureIsolation(t *testing.T) {
	conf := testConfig()
	f := newBackupFixture(conf)

	docs := make([]models.Document, 0, 10)
	for i := 0; i < 10; i++ {
		id := "d" + string(rune('0'+i))
		docs = append(docs, models.Document{"$id": id, "n": i})
		if i%2 == 0 {
			f.store.Seed(conf.Collections.Stavke, models.Document{"$id": id})
		}
	}
	denied := errors.New("permission denied")
	f.store.UpdateErr = func(_, id string) error {
		if id == "d5" {
			return denied
		}
		return nil
	}
	f.store.CreateErr = f.store.UpdateErr

	result, err := f.service.RestoreFromBackup(context.Background(), &models.Envelope{
		Version: "1.0",
		Data:    &models.EnvelopeData{Stavke: docs},
	}, RestoreOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Stavke.Failed)
	assert.Equal(t, 9, result.Stavke.Created+result.Stavke.Updated)
	assert.Equal(t, 5, result.Stavke.Updated)
	assert.Equal(t, 4, result.Stavke.Created)
	assert.Equal(t, []string{"Stavka d5: permission denied"}, result.Errors)
	assert.Equal(t, 10, result.Stavke.Total())
}

func TestRestore_DocumentWithoutIDIsCreated(t *testing.T) {
	conf := testConfig()
	f := newBackupFixture(conf)

	env, err := models.ParseEnvelope([]byte(`{
		"version": "1.0",
		"timestamp": "2025-03-01T08:00:00.000Z",
		"data": {"prijemi": [{"sifra": "A1", "naziv": "Test"}], "ponude": [], "stavke": []}
	}`))
	require.NoError(t, err)

	result, err := f.service.RestoreFromBackup(context.Background(), env, RestoreOptions{})
	require.NoError(t, err)

	assert.Equal(t, &models.RestoreResult{
		Prijemi:  models.CollectionResult{Created: 1},
		Ponude:   models.CollectionResult{},
		Stavke:   models.CollectionResult{},
		Settings: models.SettingsResult{},
		Errors:   []string{},
	}, result)

	assert.Empty(t, f.store.WritesFor("update"))
	creates := f.store.WritesFor("create")
	require.Len(t, creates, 1)
	assert.Equal(t, "", creates[0].ID)
	assert.Equal(t, models.Document{"sifra": "A1", "naziv": "Test"}, creates[0].Fields)
}

func TestRestore_InvalidEnvelope(t *testing.T) {
	f := newBackupFixture(testConfig())

	_, err := f.service.RestoreFromBackup(context.Background(), nil, RestoreOptions{})
	assert.ErrorIs(t, err, models.ErrInvalidBackupFormat)

	_, err = f.service.RestoreFromBackup(context.Background(), &models.Envelope{Version: "1.0"}, RestoreOptions{})
	assert.ErrorIs(t, err, models.ErrInvalidBackupFormat)

	assert.Empty(t, f.store.Writes)
}

func TestRestore_MissingArraysAreSkipped(t *testing.T) {
	conf := testConfig()
	f := newBackupFixture(conf)

	result, err := f.service.RestoreFromBackup(context.Background(), &models.Envelope{
		Data: &models.EnvelopeData{Ponude: []models.Document{{"$id": "po1"}}},
	}, RestoreOptions{})
	require.NoError(t, err)

	assert.Equal(t, models.CollectionResult{Created: 1}, result.Ponude)
	for _, w := range f.store.Writes {
		assert.Equal(t, conf.Collections.Ponude, w.Collection)
	}
}

func TestRestore_SettingsUseConfiguredIDWithoutCreate(t *testing.T) {
	conf := testConfig()
	f := newBackupFixture(conf)

	result, err := f.service.RestoreFromBackup(context.Background(), &models.Envelope{
		Data: &models.EnvelopeData{Settings: models.Document{"$id": "old-settings-id", "firma": "X"}},
	}, RestoreOptions{})
	require.NoError(t, err)

	assert.True(t, result.Settings.Failed)
	assert.False(t, result.Settings.Updated)
	require.Len(t, result.Errors, 1)
	assert.True(t, strings.HasPrefix(result.Errors[0], "Settings: "))

	updates := f.store.WritesFor("update")
	require.Len(t, updates, 1)
	assert.Equal(t, "settings", updates[0].ID)
	assert.Empty(t, f.store.WritesFor("create"))
}

func TestRestore_NonNotFoundUpdateErrorFallsBackToCreate(t *testing.T) {
	conf := testConfig()
	f := newBackupFixture(conf)
	f.store.UpdateErr = func(string, string) error { return errors.New("permission denied") }

	result, err := f.service.RestoreFromBackup(context.Background(), &models.Envelope{
		Data: &models.EnvelopeData{Prijemi: []models.Document{{"$id": "pr1"}}},
	}, RestoreOptions{})
	require.NoError(t, err)

	assert.Equal(t, models.CollectionResult{Created: 1}, result.Prijemi)
	assert.True(t, f.logger.HasLevel("warn", "permission denied"))
}

func TestRestore_StrictUpsertKeepsUpdateError(t *testing.T) {
	conf := testConfig()
	f := newBackupFixture(conf)
	f.store.UpdateErr = func(string, string) error { return errors.New("permission denied") }

	result, err := f.service.RestoreFromBackup(context.Background(), &models.Envelope{
		Data: &models.EnvelopeData{Prijemi: []models.Document{{"$id": "pr1"}}},
	}, RestoreOptions{StrictUpsert: true})
	require.NoError(t, err)

	assert.Equal(t, models.CollectionResult{Failed: 1}, result.Prijemi)
	assert.Equal(t, []string{"Prijem pr1: permission denied"}, result.Errors)
	assert.Empty(t, f.store.WritesFor("create"))
}

func TestRestore_StrictUpsertStillCreatesMissing(t *testing.T) {
	conf := testConfig()
	f := newBackupFixture(conf)

	result, err := f.service.RestoreFromBackup(context.Background(), &models.Envelope{
		Data: &models.EnvelopeData{Prijemi: []models.Document{{"$id": "pr1"}}},
	}, RestoreOptions{StrictUpsert: true})
	require.NoError(t, err)

	assert.Equal(t, models.CollectionResult{Created: 1}, result.Prijemi)
}

func TestDefaultRestoreOptions(t *testing.T) {
	conf := testConfig()
	conf.Backup.StrictUpsert = true
	f := newBackupFixture(conf)

	assert.True(t, f.service.DefaultRestoreOptions().StrictUpsert)
}

func TestCreateEmergencyBackup_StoresFullEnvelope(t *testing.T) {
	conf := testConfig()
	f := newBackupFixture(conf)
	seedDomain(f.store, conf)

	assert.True(t, f.service.CreateEmergencyBackup(context.Background()))

	raw, ok := f.kv.Get(models.KVEmergencyBackup)
	require.True(t, ok)
	env, err := models.ParseEnvelope([]byte(raw))
	require.NoError(t, err)
	assert.NotNil(t, env.Data.Settings)
	assert.NotNil(t, env.Metadata)

	date, ok := f.kv.Get(models.KVEmergencyDate)
	require.True(t, ok)
	assert.Equal(t, "2025-03-14T10:30:00.000Z", date)
	assert.Equal(t, len(raw), f.metrics.BackupSizes["emergency"])
}

func TestCreateEmergencyBackup_FallsBackToReducedOverBudget(t *testing.T) {
	conf := testConfig()
	conf.Backup.EmergencyBudget = 64
	f := newBackupFixture(conf)
	seedDomain(f.store, conf)

	assert.True(t, f.service.CreateEmergencyBackup(context.Background()))

	raw, ok := f.kv.Get(models.KVEmergencyBackup)
	require.True(t, ok)

	var stored map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.NotContains(t, stored, "metadata")
	assert.NotContains(t, stored, "appName")

	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(stored["data"], &data))
	assert.Len(t, data, 3)
	assert.Contains(t, data, "prijemi")
	assert.Contains(t, data, "ponude")
	assert.Contains(t, data, "stavke")
	assert.NotContains(t, data, "settings")

	_, ok = f.kv.Get(models.KVEmergencyDate)
	assert.True(t, ok)
	assert.True(t, f.logger.HasLevel("warn", "over the"))
}

func TestCreateEmergencyBackup_ExportFailureReturnsFalse(t *testing.T) {
	conf := testConfig()
	f := newBackupFixture(conf)

	assert.False(t, f.service.CreateEmergencyBackup(context.Background()))
	assert.Empty(t, f.kv.Data)
	assert.True(t, f.logger.HasLevel("error", "Emergency backup error"))
}

func TestCreateEmergencyBackup_StorageFailureReturnsFalse(t *testing.T) {
	conf := testConfig()
	f := newBackupFixture(conf)
	seedDomain(f.store, conf)
	f.kv.SetErr = errors.New("read-only file system")

	assert.False(t, f.service.CreateEmergencyBackup(context.Background()))
}

func TestCreateEmergencyBackup_DateFailureKeepsPreviousSnapshot(t *testing.T) {
	conf := testConfig()
	f := newBackupFixture(conf)
	seedDomain(f.store, conf)
	oldPayload := `{"version":"1.0","timestamp":"t","data":{"prijemi":[],"ponude":[],"stavke":[]}}`
	f.kv.Data[models.KVEmergencyBackup] = oldPayload
	f.kv.Data[models.KVEmergencyDate] = "2025-03-10T08:00:00.000Z"
	f.kv.SetErrFor = map[string]error{models.KVEmergencyDate: errors.New("disk full")}

	assert.False(t, f.service.CreateEmergencyBackup(context.Background()))

	assert.Equal(t, oldPayload, f.kv.Data[models.KVEmergencyBackup])
	assert.Equal(t, "2025-03-10T08:00:00.000Z", f.kv.Data[models.KVEmergencyDate])
	emergency, err := f.service.GetEmergencyBackup()
	require.NoError(t, err)
	assert.True(t, emergency.Summary().Reduced)
}

func TestCreateEmergencyBackup_DateFailureWithoutPreviousLeavesNothing(t *testing.T) {
	conf := testConfig()
	f := newBackupFixture(conf)
	seedDomain(f.store, conf)
	f.kv.SetErrFor = map[string]error{models.KVEmergencyDate: errors.New("disk full")}

	assert.False(t, f.service.CreateEmergencyBackup(context.Background()))

	assert.Empty(t, f.kv.Data)
	_, err := f.service.GetEmergencyBackup()
	assert.ErrorIs(t, err, ErrNoEmergencyBackup)
}

func TestGetEmergencyBackup(t *testing.T) {
	conf := testConfig()
	f := newBackupFixture(conf)

	_, err := f.service.GetEmergencyBackup()
	assert.ErrorIs(t, err, ErrNoEmergencyBackup)

	f.kv.Data[models.KVEmergencyBackup] = `{"version":"1.0","timestamp":"t","data":{"prijemi":[],"ponude":[],"stavke":[]}}`
	_, err = f.service.GetEmergencyBackup()
	assert.ErrorIs(t, err, ErrNoEmergencyBackup, "date is required too")

	f.kv.Data[models.KVEmergencyDate] = "2025-03-10T08:00:00.000Z"
	emergency, err := f.service.GetEmergencyBackup()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), emergency.Date.UTC())
	assert.True(t, emergency.Summary().Reduced)

	f.kv.Data[models.KVEmergencyBackup] = "not json"
	_, err = f.service.GetEmergencyBackup()
	assert.ErrorIs(t, err, models.ErrInvalidBackupFormat)
}

func TestRestoreFromEmergencyBackup(t *testing.T) {
	conf := testConfig()
	f := newBackupFixture(conf)
	seedDomain(f.store, conf)
	require.True(t, f.service.CreateEmergencyBackup(context.Background()))

	ctx := context.Background()
	require.NoError(t, f.store.Delete(ctx, conf.Collections.Prijemi, "pr2"))

	result, err := f.service.RestoreFromEmergencyBackup(ctx, RestoreOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.CollectionResult{Created: 1, Updated: 1}, result.Prijemi)
	assert.Equal(t, models.CollectionResult{Updated: 1}, result.Ponude)
	assert.True(t, result.Settings.Updated)
	assert.Len(t, f.store.Docs(conf.Collections.Prijemi), 2)
}

func TestRestoreFromEmergencyBackup_NoneStored(t *testing.T) {
	f := newBackupFixture(testConfig())

	_, err := f.service.RestoreFromEmergencyBackup(context.Background(), RestoreOptions{})
	assert.ErrorIs(t, err, ErrNoEmergencyBackup)
}

func TestInit_SeedsReminderOnFirstRun(t *testing.T) {
	f := newBackupFixture(testConfig())

	f.service.Init()

	last, ok := f.kv.Get(models.KVLastBackupDate)
	require.True(t, ok)
	assert.Equal(t, "2025-03-14T10:30:00.000Z", last)
}

func TestCreateFullBackup_ReadsSettingsPastTheCache(t *testing.T) {
	conf := testConfig()
	backend := testutil.NewMockStore()
	seedDomain(backend, conf)
	cached := store.NewCachedStore(backend, testutil.NewMockCache())
	ctx := context.Background()

	_, err := cached.Get(ctx, conf.Collections.Settings, "settings")
	require.NoError(t, err)

	// the UI writes to the backend directly, the cache never sees it
	_, err = backend.Update(ctx, conf.Collections.Settings, "settings", models.Document{"firma": "Novi servis"})
	require.NoError(t, err)

	kv := testutil.NewMockKV()
	logger := &testutil.MockLogger{}
	service := NewBackupService(conf, logger, &testutil.MockMetrics{}, cached, kv, NewReminderService(conf, kv, logger))

	env, err := service.CreateFullBackup(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Novi servis", env.Data.Settings["firma"])
}
