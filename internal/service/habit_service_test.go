package service

import (
	"errors"
	"testing"
	"time"

	"github.com/hearthpoints/internal/db"
)

func TestHabitCreateNormalizesAndDerivesStreak(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now()
	svc := NewHabitService(db.DB)
	habit, err := svc.Create(HabitInput{
		HouseholdID: 1,
		Title:       "  晨跑  ",
		Polarity:    "NEGATIVE",
		ScoringType: "Incremental",
		Period:      "weird",
		BasePoints:  -5,
		CompletedDates: []string{
			now.AddDate(0, 0, -1).Format("2006-01-02"),
			now.AddDate(0, 0, -2).Format("2006-01-02"),
			now.AddDate(0, 0, -1).Format("2006-01-02"), // 重复
			"",
		},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if habit.Title != "晨跑" {
		t.Fatalf("expected trimmed title, got %q", habit.Title)
	}
	if habit.Polarity != "negative" || habit.ScoringType != db.ScoringIncremental || habit.Period != db.PeriodDaily {
		t.Fatalf("unexpected normalization: %+v", habit)
	}
	if len(habit.CompletedDates) != 2 {
		t.Fatalf("expected deduped dates, got %v", habit.CompletedDates)
	}
	// StreakDays 不可外部传入，由导入日期派生
	if habit.StreakDays != 2 {
		t.Fatalf("expected derived streak 2, got %d", habit.StreakDays)
	}
}

func TestHabitCreateValidation(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewHabitService(db.DB)
	if _, err := svc.Create(HabitInput{HouseholdID: 1}); err == nil {
		t.Fatal("expected error for missing title")
	}
	if _, err := svc.Create(HabitInput{Title: "阅读"}); err == nil {
		t.Fatal("expected error for missing household")
	}
	if _, err := svc.Create(HabitInput{HouseholdID: 1, Title: "阅读", TargetCount: -1}); err == nil {
		t.Fatal("expected error for negative target")
	}
}

func TestHabitGetAndList(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewHabitService(db.DB)
	created, err := svc.Create(HabitInput{HouseholdID: 1, Title: "阅读"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.Create(HabitInput{HouseholdID: 2, Title: "别家的习惯"}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	habit, err := svc.Get(created.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if habit.Title != "阅读" {
		t.Fatalf("unexpected habit %+v", habit)
	}

	if _, err := svc.Get(9999); !errors.Is(err, ErrHabitNotFound) {
		t.Fatalf("expected ErrHabitNotFound, got %v", err)
	}

	habits, err := svc.List(1)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(habits) != 1 {
		t.Fatalf("expected 1 habit for household 1, got %d", len(habits))
	}
}
