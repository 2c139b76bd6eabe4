package persistence

import (
	"context"
	"ponudaplus/internal/persistence/interfaces"
	"ponudaplus/internal/providers"
	"ponudaplus/internal/services"
	"ponudaplus/internal/structures"
	"sync"

	"github.com/roylee0704/gron"
)

type Scheduler struct {
	config   *structures.Config
	logger   providers.Logger
	backup   services.BackupServiceInterface
	reminder services.ReminderServiceInterface
	kv       *FileKV
	cron     *gron.Cron
	opsMu    sync.Mutex
}

func (s *Scheduler) Init() {
	s.cron = gron.New()

	if interval := s.config.Backup.EmergencyInterval; interval > 0 {
		s.cron.AddFunc(gron.Every(interval), s.emergencySnapshot)
		s.logger.Infof(providers.TypeApp, "Emergency backup scheduled every %s", interval)
	}

	if interval := s.config.Backup.ReminderCheckInterval; interval > 0 {
		s.cron.AddFunc(gron.Every(interval), s.reminderCheck)
	}

	s.cron.Start()
}

func (s *Scheduler) emergencySnapshot() {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	if !s.backup.CreateEmergencyBackup(context.Background()) {
		s.logger.Errorf(providers.TypeApp, "Scheduled emergency backup failed")
		return
	}
	s.logger.Infof(providers.TypeApp, "Scheduled emergency backup stored")
}

func (s *Scheduler) reminderCheck() {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	if !s.reminder.ShouldShowReminder() {
		return
	}
	status := s.reminder.Status()
	s.logger.Warnf(providers.TypeBackup, "Backup is due: last backup %d days ago, interval %d days", status.DaysSince, status.IntervalDays)
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) Restore() error {
	err := s.kv.Load()
	if err != nil {
		return err
	}
	s.logger.Infof(providers.TypeApp, "Loaded local state from %s", s.config.Persistence.FilePath)
	return nil
}

func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	s.logger.Infof(providers.TypeApp, "Persisting local state to file...")
	err := s.kv.Flush()
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
		return err
	}
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, backup services.BackupServiceInterface, reminder services.ReminderServiceInterface, kv *FileKV) interfaces.SchedulerInterface {
	return &Scheduler{
		config:   config,
		logger:   logger,
		backup:   backup,
		reminder: reminder,
		kv:       kv,
	}
}
