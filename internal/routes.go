package internal

import (
	"net/http"
	"ponudaplus/internal/controllers"
	"ponudaplus/internal/providers"
)

func InitRoutes(backupController *controllers.BackupController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/backup/download", http.HandlerFunc(backupController.Download))
	routers.Post("/backup/restore", http.HandlerFunc(backupController.Restore))

	routers.Get("/backup/reminder", http.HandlerFunc(backupController.ReminderStatus))
	routers.Post("/backup/reminder/snooze", http.HandlerFunc(backupController.Snooze))
	routers.Post("/backup/reminder/dismiss", http.HandlerFunc(backupController.Dismiss))
	routers.Post("/backup/reminder/interval", http.HandlerFunc(backupController.SetInterval))

	routers.Get("/backup/emergency", http.HandlerFunc(backupController.Emergency))
	routers.Post("/backup/emergency/create", http.HandlerFunc(backupController.CreateEmergency))
	routers.Post("/backup/emergency/restore", http.HandlerFunc(backupController.RestoreEmergency))
	return routers
}
