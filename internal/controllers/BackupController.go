package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"ponudaplus/internal/models"
	"ponudaplus/internal/providers"
	"ponudaplus/internal/services"
	"ponudaplus/internal/structures"
	"strconv"

	json "github.com/goccy/go-json"
)

const maxIntervalBodySize = 1 << 10

type BackupController struct {
	conf     *structures.Config
	logger   providers.Logger
	backup   services.BackupServiceInterface
	reminder services.ReminderServiceInterface
}

type errorResponse struct {
	Error string `json:"error"`
}

type intervalRequest struct {
	Days int `json:"days"`
}

type emergencyCreateResponse struct {
	OK bool `json:"ok"`
}

func NewBackupController(conf *structures.Config, logger providers.Logger, backup services.BackupServiceInterface, reminder services.ReminderServiceInterface) *BackupController {
	return &BackupController{
		conf:     conf,
		logger:   logger,
		backup:   backup,
		reminder: reminder,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// Download streams a fresh backup as an attachment. When backup.downloadDir is
// set, a copy is written there before the response goes out.
func (bc *BackupController) Download(w http.ResponseWriter, r *http.Request) {
	written := false
	save := func(filename string, payload []byte) error {
		if dir := bc.conf.Backup.DownloadDir; dir != "" {
			if err := services.SaveToDir(dir)(filename, payload); err != nil {
				return err
			}
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.WriteHeader(http.StatusOK)
		written = true
		_, err := w.Write(payload)
		return err
	}

	_, err := bc.backup.DownloadBackup(r.Context(), save)
	if err == nil {
		return
	}
	if written {
		bc.logger.Errorf(providers.TypeGet, "Backup download interrupted: %v", err)
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}

func (bc *BackupController) Restore(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, bc.conf.Backup.MaxUploadSize)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}

	env, err := models.ParseEnvelope(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	opts := bc.backup.DefaultRestoreOptions()
	if strict := r.URL.Query().Get("strict"); strict != "" {
		v, err := strconv.ParseBool(strict)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid strict flag %q", strict))
			return
		}
		opts.StrictUpsert = v
	}

	// a restore runs to the end even when the client goes away
	result, err := bc.backup.RestoreFromBackup(context.WithoutCancel(r.Context()), env, opts)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (bc *BackupController) ReminderStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, bc.reminder.Status())
}

func (bc *BackupController) Snooze(w http.ResponseWriter, r *http.Request) {
	if err := bc.reminder.Snooze(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (bc *BackupController) Dismiss(w http.ResponseWriter, r *http.Request) {
	if err := bc.reminder.Dismiss(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (bc *BackupController) SetInterval(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxIntervalBodySize)
	var payload intervalRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := bc.reminder.SetIntervalDays(payload.Days); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (bc *BackupController) Emergency(w http.ResponseWriter, r *http.Request) {
	emergency, err := bc.backup.GetEmergencyBackup()
	if errors.Is(err, services.ErrNoEmergencyBackup) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, emergency.Summary())
}

func (bc *BackupController) CreateEmergency(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emergencyCreateResponse{OK: bc.backup.CreateEmergencyBackup(context.WithoutCancel(r.Context()))})
}

func (bc *BackupController) RestoreEmergency(w http.ResponseWriter, r *http.Request) {
	result, err := bc.backup.RestoreFromEmergencyBackup(context.WithoutCancel(r.Context()), bc.backup.DefaultRestoreOptions())
	if errors.Is(err, services.ErrNoEmergencyBackup) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
