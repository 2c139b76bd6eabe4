package models

import "time"

// Keys of the local key-value persistence.
const (
	KVLastBackupDate     = "last_backup_date"
	KVBackupIntervalDays = "backup_interval_days"
	KVEmergencyBackup    = "emergency_backup"
	KVEmergencyDate      = "emergency_backup_date"
	KVReminderDismissed  = "backup_reminder_dismissed"
)

// DismissLayout is the day granularity used for "dismissed today".
const DismissLayout = "Mon Jan 02 2006"

type ReminderStatus struct {
	LastBackup     *time.Time `json:"lastBackup,omitempty"`
	IntervalDays   int        `json:"intervalDays"`
	DaysSince      int        `json:"daysSince"`
	Due            bool       `json:"due"`
	DismissedToday bool       `json:"dismissedToday"`
	ShowReminder   bool       `json:"showReminder"`
}

type EmergencyBackup struct {
	Backup *Envelope `json:"backup"`
	Date   time.Time `json:"date"`
}

// EmergencySummary is what the UI gets to decide whether to offer a restore.
type EmergencySummary struct {
	Date         time.Time `json:"date"`
	Timestamp    string    `json:"timestamp"`
	Version      string    `json:"version"`
	Reduced      bool      `json:"reduced"`
	PrijemiCount int       `json:"prijemiCount"`
	PonudeCount  int       `json:"ponudeCount"`
	StavkeCount  int       `json:"stavkeCount"`
}

func (e *EmergencyBackup) Summary() EmergencySummary {
	s := EmergencySummary{Date: e.Date}
	if e.Backup == nil {
		return s
	}
	s.Timestamp = e.Backup.Timestamp
	s.Version = e.Backup.Version
	s.Reduced = e.Backup.Metadata == nil
	if e.Backup.Data != nil {
		s.PrijemiCount = len(e.Backup.Data.Prijemi)
		s.PonudeCount = len(e.Backup.Data.Ponude)
		s.StavkeCount = len(e.Backup.Data.Stavke)
	}
	return s
}
