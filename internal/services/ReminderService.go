package services

import (
	"fmt"
	"ponudaplus/internal/models"
	"ponudaplus/internal/persistence/interfaces"
	"ponudaplus/internal/providers"
	"ponudaplus/internal/structures"
	"strconv"
	"strings"
	"time"
)

const msPerDay = 24 * 60 * 60 * 1000

type ReminderServiceInterface interface {
	CheckBackupReminder() bool
	ShouldShowReminder() bool
	MarkBackupCompleted(t time.Time) error
	Snooze() error
	Dismiss() error
	SetIntervalDays(days int) error
	Status() models.ReminderStatus
}

type ReminderService struct {
	conf   *structures.Config
	kv     interfaces.KeyValueInterface
	logger providers.Logger
	now    func() time.Time
}

// CheckBackupReminder reports whether the last backup is at least the configured
// number of whole days old. The first call without a recorded backup starts the
// clock instead of reminding.
func (rs *ReminderService) CheckBackupReminder() bool {
	now := rs.now()

	last, ok := rs.lastBackup()
	if !ok {
		rs.seed(now)
		return false
	}

	return daysBetween(last, now) >= rs.intervalDays()
}

func (rs *ReminderService) ShouldShowReminder() bool {
	return rs.CheckBackupReminder() && !rs.dismissedToday()
}

func (rs *ReminderService) MarkBackupCompleted(t time.Time) error {
	return rs.kv.Set(models.KVLastBackupDate, models.FormatTimestamp(t))
}

// Snooze moves the last backup one day into the future.
func (rs *ReminderService) Snooze() error {
	tomorrow := rs.now().Add(24 * time.Hour)
	if err := rs.kv.Set(models.KVLastBackupDate, models.FormatTimestamp(tomorrow)); err != nil {
		return err
	}
	rs.logger.Infof(providers.TypeBackup, "Backup reminder snoozed until %s", models.FormatTimestamp(tomorrow))
	return nil
}

func (rs *ReminderService) Dismiss() error {
	if err := rs.kv.Set(models.KVReminderDismissed, rs.now().Format(models.DismissLayout)); err != nil {
		return err
	}
	rs.logger.Infof(providers.TypeBackup, "Backup reminder dismissed for today")
	return nil
}

func (rs *ReminderService) SetIntervalDays(days int) error {
	if days < 1 {
		return fmt.Errorf("backup interval must be at least 1 day, got %d", days)
	}
	return rs.kv.Set(models.KVBackupIntervalDays, strconv.Itoa(days))
}

func (rs *ReminderService) Status() models.ReminderStatus {
	now := rs.now()
	status := models.ReminderStatus{
		IntervalDays:   rs.intervalDays(),
		DismissedToday: rs.dismissedToday(),
	}

	if last, ok := rs.lastBackup(); ok {
		status.LastBackup = &last
		status.DaysSince = daysBetween(last, now)
		status.Due = status.DaysSince >= status.IntervalDays
	}
	status.ShowReminder = status.Due && !status.DismissedToday
	return status
}

func (rs *ReminderService) lastBackup() (time.Time, bool) {
	raw, ok := rs.kv.Get(models.KVLastBackupDate)
	if !ok || raw == "" {
		return time.Time{}, false
	}
	t, err := models.ParseTimestamp(raw)
	if err != nil {
		rs.logger.Warnf(providers.TypeBackup, "Unreadable last backup date %q: %v", raw, err)
		return time.Time{}, false
	}
	return t, true
}

func (rs *ReminderService) seed(now time.Time) {
	if err := rs.kv.Set(models.KVLastBackupDate, models.FormatTimestamp(now)); err != nil {
		rs.logger.Errorf(providers.TypeBackup, "Failed to record first backup date: %v", err)
	}
}

func (rs *ReminderService) intervalDays() int {
	def := rs.conf.Backup.ReminderIntervalDays
	if def < 1 {
		def = 7
	}
	raw, ok := rs.kv.Get(models.KVBackupIntervalDays)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return def
	}
	return n
}

func (rs *ReminderService) dismissedToday() bool {
	v, ok := rs.kv.Get(models.KVReminderDismissed)
	return ok && v == rs.now().Format(models.DismissLayout)
}

// daysBetween counts whole elapsed days, rounding toward negative infinity.
func daysBetween(from, to time.Time) int {
	ms := to.Sub(from).Milliseconds()
	days := ms / msPerDay
	if ms%msPerDay != 0 && ms < 0 {
		days--
	}
	return int(days)
}

func NewReminderService(conf *structures.Config, kv interfaces.KeyValueInterface, logger providers.Logger) ReminderServiceInterface {
	return &ReminderService{
		conf:   conf,
		kv:     kv,
		logger: logger,
		now:    time.Now,
	}
}
