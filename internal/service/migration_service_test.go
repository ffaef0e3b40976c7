package service

import (
	"testing"
	"time"

	"github.com/hearthpoints/internal/db"
)

func submissionsFor(t *testing.T, habitID uint) []db.HabitSubmission {
	t.Helper()
	var subs []db.HabitSubmission
	if err := db.DB.Where("habit_id = ?", habitID).Order("date ASC").Find(&subs).Error; err != nil {
		t.Fatalf("failed to read submissions: %v", err)
	}
	return subs
}

func TestMigrateBackfillSequence(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	habit := seedHabit(t, &db.Habit{
		Title:          "晨跑",
		ScoringType:    db.ScoringThreshold,
		BasePoints:     10,
		TargetCount:    1,
		CompletedDates: db.DateList{"2024-03-01", "2024-03-02", "2024-03-03"},
		LastUpdated:    time.Now(),
	})

	svc := NewMigrationService(db.DB)
	result, err := svc.Migrate(habit.ID, "ops")
	if err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}

	if result.Skipped {
		t.Fatalf("expected migration to run, skipped: %s", result.Reason)
	}
	if result.SubmissionsCreated != 3 {
		t.Fatalf("expected 3 submissions, got %d", result.SubmissionsCreated)
	}

	subs := submissionsFor(t, habit.ID)
	if len(subs) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(subs))
	}

	// 第 1、2 天倍率 1.0，第 3 天连续达 3 天 ⇒ 1.5
	expected := []struct {
		key        string
		streak     int
		multiplier float64
		points     int
	}{
		{"backfill_2024-03-01", 1, 1.0, 10},
		{"backfill_2024-03-02", 2, 1.0, 10},
		{"backfill_2024-03-03", 3, 1.5, 15},
	}
	for i, want := range expected {
		got := subs[i]
		if got.SubmissionKey != want.key {
			t.Fatalf("row %d: expected key %s, got %s", i, want.key, got.SubmissionKey)
		}
		if got.StreakDaysAtTime != want.streak || got.MultiplierApplied != want.multiplier || got.PointsEarned != want.points {
			t.Fatalf("row %d: got streak=%d multiplier=%v points=%d", i, got.StreakDaysAtTime, got.MultiplierApplied, got.PointsEarned)
		}
	}

	var reloaded db.Habit
	if err := db.DB.First(&reloaded, habit.ID).Error; err != nil {
		t.Fatalf("failed to reload habit: %v", err)
	}
	if !reloaded.HasSubmissionTracking {
		t.Fatal("expected habit flagged as migrated")
	}

	// 历史积分只进终身计数器，不污染当期窗口
	row := ledgerRow(t, habit.HouseholdID, db.AggregateMemberID)
	if row.Total != 35 {
		t.Fatalf("expected backfilled total 35, got %d", row.Total)
	}
	if row.Daily != 0 || row.Weekly != 0 {
		t.Fatalf("expected daily/weekly untouched, got %d/%d", row.Daily, row.Weekly)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	habit := seedHabit(t, &db.Habit{
		Title:          "阅读",
		ScoringType:    db.ScoringIncremental,
		BasePoints:     5,
		CompletedDates: db.DateList{"2024-04-01", "2024-04-02"},
		LastUpdated:    time.Now(),
	})

	svc := NewMigrationService(db.DB)
	first, err := svc.Migrate(habit.ID, "ops")
	if err != nil {
		t.Fatalf("first Migrate returned error: %v", err)
	}
	if first.Skipped || first.SubmissionsCreated != 2 {
		t.Fatalf("unexpected first run: %+v", first)
	}

	totalAfterFirst := ledgerRow(t, habit.HouseholdID, db.AggregateMemberID).Total

	second, err := svc.Migrate(habit.ID, "ops")
	if err != nil {
		t.Fatalf("second Migrate returned error: %v", err)
	}
	if !second.Skipped {
		t.Fatal("expected second run to be skipped")
	}

	if got := len(submissionsFor(t, habit.ID)); got != 2 {
		t.Fatalf("expected submissions unchanged, got %d", got)
	}
	if got := ledgerRow(t, habit.HouseholdID, db.AggregateMemberID).Total; got != totalAfterFirst {
		t.Fatalf("expected ledger untouched on rerun, got %d want %d", got, totalAfterFirst)
	}
}

func TestMigrateSkipsWithoutHistory(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	habit := seedHabit(t, &db.Habit{Title: "空习惯", LastUpdated: time.Now()})

	svc := NewMigrationService(db.DB)
	result, err := svc.Migrate(habit.ID, "ops")
	if err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}
	if !result.Skipped {
		t.Fatal("expected skip for empty history")
	}

	var reloaded db.Habit
	if err := db.DB.First(&reloaded, habit.ID).Error; err != nil {
		t.Fatalf("failed to reload habit: %v", err)
	}
	if reloaded.HasSubmissionTracking {
		t.Fatal("expected habit to stay unflagged")
	}
}

func TestMigrateSanitizesDates(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	habit := seedHabit(t, &db.Habit{
		Title:          "脏数据",
		ScoringType:    db.ScoringThreshold,
		BasePoints:     10,
		CompletedDates: db.DateList{"2024-05-02", "", "not-a-date", "2024-05-01", "2024-05-02"},
		LastUpdated:    time.Now(),
	})

	svc := NewMigrationService(db.DB)
	result, err := svc.Migrate(habit.ID, "ops")
	if err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}
	if result.SubmissionsCreated != 2 {
		t.Fatalf("expected 2 sanitized submissions, got %d", result.SubmissionsCreated)
	}

	subs := submissionsFor(t, habit.ID)
	if subs[0].Date != "2024-05-01" || subs[1].Date != "2024-05-02" {
		t.Fatalf("unexpected replay order: %s, %s", subs[0].Date, subs[1].Date)
	}
}

func TestMigrateChunksLargeHistories(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	dates := db.DateList{}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	for i := 0; i < 7; i++ {
		dates = append(dates, base.AddDate(0, 0, i).Format("2006-01-02"))
	}

	habit := seedHabit(t, &db.Habit{
		Title:          "长历史",
		ScoringType:    db.ScoringThreshold,
		BasePoints:     10,
		CompletedDates: dates,
		LastUpdated:    time.Now(),
	})

	svc := NewMigrationService(db.DB).WithBatchSize(4)

	result, err := svc.Migrate(habit.ID, "ops")
	if err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}
	if result.SubmissionsCreated != 7 {
		t.Fatalf("expected 7 submissions across chunks, got %d", result.SubmissionsCreated)
	}

	var reloaded db.Habit
	if err := db.DB.First(&reloaded, habit.ID).Error; err != nil {
		t.Fatalf("failed to reload habit: %v", err)
	}
	if !reloaded.HasSubmissionTracking {
		t.Fatal("expected habit flagged after chunked run")
	}
}

func TestMigrationChunksReserveFinalWrites(t *testing.T) {
	cases := []struct {
		total     int
		batchSize int
	}{
		{total: 1, batchSize: 4},
		{total: 2, batchSize: 4}, // 恰好 batchSize-2 条时末块必须再切分
		{total: 7, batchSize: 4},
		{total: 9, batchSize: 4},
		{total: 500, batchSize: 500},
		{total: 1200, batchSize: 500},
	}

	for _, tc := range cases {
		chunks := migrationChunks(tc.total, tc.batchSize)
		if len(chunks) == 0 {
			t.Fatalf("total=%d: expected at least one chunk", tc.total)
		}

		covered := 0
		for i, c := range chunks {
			if c[0] != covered || c[1] <= c[0] {
				t.Fatalf("total=%d: chunk %d has gap or is empty: %v", tc.total, i, c)
			}
			covered = c[1]

			size := c[1] - c[0]
			if i == len(chunks)-1 {
				// 末块连同账本行补建、终身积分累加、已迁移标记共三条额外写入
				if size+3 > tc.batchSize {
					t.Fatalf("total=%d: final chunk size %d leaves no room for closing writes", tc.total, size)
				}
			} else if size > tc.batchSize {
				t.Fatalf("total=%d: chunk %d size %d exceeds batch size", tc.total, i, size)
			}
		}
		if covered != tc.total {
			t.Fatalf("total=%d: chunks cover %d", tc.total, covered)
		}
	}
}

func TestWithBatchSizeIgnoresOutOfRangeValues(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewMigrationService(db.DB)
	if svc.WithBatchSize(3).batchSize != storeBatchLimit {
		t.Fatal("expected batch size below write-budget floor to be ignored")
	}
	if svc.WithBatchSize(501).batchSize != storeBatchLimit {
		t.Fatal("expected batch size above store limit to be ignored")
	}
	if svc.WithBatchSize(120).batchSize != 120 {
		t.Fatal("expected valid batch size to apply")
	}
}

func TestMigrateAllSkipsMigratedHabits(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	fresh := seedHabit(t, &db.Habit{
		Title:          "新习惯",
		ScoringType:    db.ScoringThreshold,
		BasePoints:     10,
		CompletedDates: db.DateList{"2024-06-01"},
		LastUpdated:    time.Now(),
	})
	seedHabit(t, &db.Habit{
		Title:                 "已迁移",
		HasSubmissionTracking: true,
		CompletedDates:        db.DateList{"2024-06-01"},
		LastUpdated:           time.Now(),
	})

	svc := NewMigrationService(db.DB)
	results, err := svc.MigrateAll(fresh.HouseholdID, "ops")
	if err != nil {
		t.Fatalf("MigrateAll returned error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	migrated, skipped := 0, 0
	for _, r := range results {
		if r.Skipped {
			skipped++
		} else {
			migrated++
		}
	}
	if migrated != 1 || skipped != 1 {
		t.Fatalf("expected 1 migrated + 1 skipped, got %d/%d", migrated, skipped)
	}
}
