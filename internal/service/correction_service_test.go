package service

import (
	"errors"
	"testing"
	"time"

	"github.com/hearthpoints/internal/db"
)

func TestToggleDateIncrementalAdjustsLifetimeLedger(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	habit := seedHabit(t, &db.Habit{
		Title:       "练琴",
		ScoringType: db.ScoringIncremental,
		BasePoints:  5,
		LastUpdated: time.Now(),
	})

	svc := NewCorrectionService(db.DB)
	result, err := svc.ToggleDate(habit.ID, "2024-02-10", 4)
	if err != nil {
		t.Fatalf("ToggleDate returned error: %v", err)
	}

	if !result.Added || !result.LedgerAdjusted {
		t.Fatalf("expected added+adjusted, got %+v", result)
	}
	if result.LedgerDelta != 5 {
		t.Fatalf("expected delta 5, got %d", result.LedgerDelta)
	}
	if !containsDate(result.Habit.CompletedDates, "2024-02-10") {
		t.Fatal("expected date added to set")
	}

	// 历史日期只进终身积分，当期窗口不动
	row := ledgerRow(t, habit.HouseholdID, 4)
	if row.Total != 5 || row.Daily != 0 || row.Weekly != 0 {
		t.Fatalf("unexpected ledger daily=%d weekly=%d total=%d", row.Daily, row.Weekly, row.Total)
	}

	// 再次补正同一日期 ⇒ 撤销，账本对账回零
	result, err = svc.ToggleDate(habit.ID, "2024-02-10", 4)
	if err != nil {
		t.Fatalf("second ToggleDate returned error: %v", err)
	}
	if result.Added {
		t.Fatal("expected removal on second toggle")
	}
	if got := ledgerRow(t, habit.HouseholdID, 4).Total; got != 0 {
		t.Fatalf("expected ledger restored to 0, got %d", got)
	}
}

func TestToggleDateThresholdNeverTouchesLedger(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	habit := seedHabit(t, &db.Habit{
		Title:       "早起",
		ScoringType: db.ScoringThreshold,
		BasePoints:  10,
		TargetCount: 1,
		LastUpdated: time.Now(),
	})

	svc := NewCorrectionService(db.DB)
	result, err := svc.ToggleDate(habit.ID, "2024-02-11", 4)
	if err != nil {
		t.Fatalf("ToggleDate returned error: %v", err)
	}

	if result.LedgerAdjusted || result.LedgerDelta != 0 {
		t.Fatalf("expected no ledger adjustment, got %+v", result)
	}
	if result.Message == "" {
		t.Fatal("expected informational message for threshold habit")
	}
	if !containsDate(result.Habit.CompletedDates, "2024-02-11") {
		t.Fatal("expected date still recorded")
	}

	row := ledgerRow(t, habit.HouseholdID, 4)
	if row.Total != 0 || row.Daily != 0 || row.Weekly != 0 {
		t.Fatalf("expected ledger untouched, got %+v", row)
	}
}

func TestToggleDateRecomputesStreak(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now()
	habit := seedHabit(t, &db.Habit{
		Title:          "日记",
		ScoringType:    db.ScoringIncremental,
		BasePoints:     5,
		CompletedDates: pastDates(now, 2, 1),
		StreakDays:     0,
		LastUpdated:    now,
	})

	svc := NewCorrectionService(db.DB)
	result, err := svc.ToggleDate(habit.ID, now.Format("2006-01-02"), 4)
	if err != nil {
		t.Fatalf("ToggleDate returned error: %v", err)
	}

	if result.Habit.StreakDays != 3 {
		t.Fatalf("expected recomputed streak 3, got %d", result.Habit.StreakDays)
	}

	// 新集合连续 3 天 ⇒ 倍率 1.5，floor(5×1.5)=7；补的是今天 ⇒ 三个窗口同步累加
	if result.LedgerDelta != 7 {
		t.Fatalf("expected delta 7, got %d", result.LedgerDelta)
	}
	row := ledgerRow(t, habit.HouseholdID, 4)
	if row.Daily != 7 || row.Weekly != 7 || row.Total != 7 {
		t.Fatalf("unexpected ledger daily=%d weekly=%d total=%d", row.Daily, row.Weekly, row.Total)
	}
}

func TestToggleDateRejectsMalformedDate(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	habit := seedHabit(t, &db.Habit{Title: "画画", LastUpdated: time.Now()})

	svc := NewCorrectionService(db.DB)
	if _, err := svc.ToggleDate(habit.ID, "02/10/2024", 1); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestAdjustLifetimeTotalClampsAndSkipsLedger(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	habit := seedHabit(t, &db.Habit{
		Title:       "散步",
		TotalCount:  12,
		LastUpdated: time.Now(),
	})

	svc := NewCorrectionService(db.DB)
	updated, err := svc.AdjustLifetimeTotal(habit.ID, -5)
	if err != nil {
		t.Fatalf("AdjustLifetimeTotal returned error: %v", err)
	}
	if updated.TotalCount != 0 {
		t.Fatalf("expected clamp to 0, got %d", updated.TotalCount)
	}

	updated, err = svc.AdjustLifetimeTotal(habit.ID, 30)
	if err != nil {
		t.Fatalf("AdjustLifetimeTotal returned error: %v", err)
	}
	if updated.TotalCount != 30 {
		t.Fatalf("expected 30, got %d", updated.TotalCount)
	}

	// 终身计数校正是展示统计修正，账本不动
	row := ledgerRow(t, habit.HouseholdID, db.AggregateMemberID)
	if row.Total != 0 {
		t.Fatalf("expected ledger untouched, got %d", row.Total)
	}
}

func TestAdjustLifetimeTotalMissingHabit(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewCorrectionService(db.DB)
	if _, err := svc.AdjustLifetimeTotal(9999, 5); !errors.Is(err, ErrHabitNotFound) {
		t.Fatalf("expected ErrHabitNotFound, got %v", err)
	}
}
