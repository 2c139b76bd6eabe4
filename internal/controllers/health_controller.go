package controllers

import (
	"fmt"
	"net/http"
	"ponudaplus/internal/services"
	"time"

	json "github.com/goccy/go-json"
)

type HealthController struct {
	backup    services.BackupServiceInterface
	reminder  services.ReminderServiceInterface
	startTime time.Time
}

type healthResponse struct {
	Status          string     `json:"status"`
	Uptime          string     `json:"uptime"`
	UptimeSeconds   float64    `json:"uptime_seconds"`
	LastBackup      *time.Time `json:"last_backup,omitempty"`
	BackupDue       bool       `json:"backup_due"`
	EmergencyBackup *time.Time `json:"emergency_backup,omitempty"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	status := hc.reminder.Status()
	resp := healthResponse{
		Status:        "ok",
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
		LastBackup:    status.LastBackup,
		BackupDue:     status.Due,
	}
	if date, ok := hc.backup.EmergencyBackupDate(); ok {
		resp.EmergencyBackup = &date
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(backup services.BackupServiceInterface, reminder services.ReminderServiceInterface) *HealthController {
	return &HealthController{
		backup:    backup,
		reminder:  reminder,
		startTime: time.Now(),
	}
}
