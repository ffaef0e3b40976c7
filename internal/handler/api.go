package handler

import (
	"github.com/hearthpoints/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db          *gorm.DB
	habits      *service.HabitService
	scores      *service.ScoreService
	ledger      *service.LedgerService
	migrations  *service.MigrationService
	corrections *service.CorrectionService
	settings    *service.SettingService
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB) *API {
	return &API{
		db:          gdb,
		habits:      service.NewHabitService(gdb),
		scores:      service.NewScoreService(gdb),
		ledger:      service.NewLedgerService(gdb),
		migrations:  service.NewMigrationService(gdb),
		corrections: service.NewCorrectionService(gdb),
		settings:    service.NewSettingService(gdb),
	}
}

// DB exposes the underlying gorm instance for wiring paths.
func (a *API) DB() *gorm.DB {
	return a.db
}
