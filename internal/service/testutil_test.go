package service

import (
	"testing"
	"time"

	"github.com/hearthpoints/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) func() {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(
		&db.Household{},
		&db.Member{},
		&db.Habit{},
		&db.HabitSubmission{},
		&db.PointsLedger{},
		&db.LedgerSnapshot{},
		&db.HouseholdSetting{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb

	return func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

// seedHabit 直接落一条习惯记录，绕开建档校验方便构造边界状态。
func seedHabit(t *testing.T, habit *db.Habit) *db.Habit {
	t.Helper()
	if habit.HouseholdID == 0 {
		habit.HouseholdID = 1
	}
	if habit.Polarity == "" {
		habit.Polarity = "positive"
	}
	if habit.ScoringType == "" {
		habit.ScoringType = db.ScoringThreshold
	}
	if habit.Period == "" {
		habit.Period = db.PeriodDaily
	}
	if habit.LastUpdated.IsZero() {
		habit.LastUpdated = time.Now()
	}
	if err := db.DB.Create(habit).Error; err != nil {
		t.Fatalf("failed to seed habit: %v", err)
	}
	return habit
}

func ledgerRow(t *testing.T, householdID, memberID uint) db.PointsLedger {
	t.Helper()
	var row db.PointsLedger
	err := db.DB.Where("household_id = ? AND member_id = ?", householdID, memberID).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return db.PointsLedger{HouseholdID: householdID, MemberID: memberID}
	}
	if err != nil {
		t.Fatalf("failed to read ledger row: %v", err)
	}
	return row
}

func pastDates(now time.Time, offsets ...int) []string {
	dates := make([]string, 0, len(offsets))
	for _, off := range offsets {
		dates = append(dates, now.AddDate(0, 0, -off).Format("2006-01-02"))
	}
	return dates
}
