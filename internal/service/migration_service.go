package service

import (
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/hearthpoints/internal/db"
	"github.com/hearthpoints/internal/streak"
	"github.com/hearthpoints/internal/telemetry"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// storeBatchLimit 是存储层单个事务的写入条数上限。
const storeBatchLimit = 500

// MigrationResult 汇报单个习惯的回填结果。
type MigrationResult struct {
	HabitID            uint   `json:"habit_id"`
	Title              string `json:"title"`
	SubmissionsCreated int    `json:"submissions_created"`
	PointsBackfilled   int    `json:"points_backfilled"`
	Skipped            bool   `json:"skipped"`
	Reason             string `json:"reason,omitempty"`
}

// MigrationService 把习惯的历史打卡日期重放为不可变的账本条目。
// 条目主键是确定性的 backfill_<date>，重复执行落在同一批行上；
// 配合 HasSubmissionTracking 守卫，重放具备双重幂等性，中断后重跑即可续传。
type MigrationService struct {
	db        *gorm.DB
	ledger    *LedgerService
	clock     func() time.Time
	batchSize int
}

// NewMigrationService 构造 MigrationService
func NewMigrationService(gdb *gorm.DB) *MigrationService {
	return &MigrationService{
		db:        gdb,
		ledger:    NewLedgerService(gdb),
		clock:     time.Now,
		batchSize: storeBatchLimit,
	}
}

// WithBatchSize 覆盖分块大小。最后一块需要预留三条额外写入，
// 过小或超过存储层上限的值一律忽略。
func (s *MigrationService) WithBatchSize(n int) *MigrationService {
	if n >= 4 && n <= storeBatchLimit {
		s.batchSize = n
	}
	return s
}

// Migrate 回填单个习惯的历史账本条目并打上已迁移标记。
// 已迁移或没有历史记录的习惯直接跳过（上报 Skipped，不算失败）。
func (s *MigrationService) Migrate(habitID uint, actor string) (*MigrationResult, error) {
	var habit db.Habit
	if err := s.db.First(&habit, habitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, classifyStoreError(err)
	}

	result := &MigrationResult{HabitID: habit.ID, Title: habit.Title}

	if habit.HasSubmissionTracking {
		result.Skipped = true
		result.Reason = "already migrated"
		telemetry.MigrationHabitsTotal.WithLabelValues("skipped").Inc()
		return result, nil
	}
	if len(habit.CompletedDates) == 0 {
		result.Skipped = true
		result.Reason = "no completion history"
		telemetry.MigrationHabitsTotal.WithLabelValues("skipped").Inc()
		return result, nil
	}

	dates := sanitizeDates(habit.ID, habit.CompletedDates)
	if len(dates) == 0 {
		result.Skipped = true
		result.Reason = "no valid completion dates"
		telemetry.MigrationHabitsTotal.WithLabelValues("skipped").Inc()
		return result, nil
	}

	// 按时间升序重放：每个日期的倍率取决于此前累积的连续天数，
	// 而不是最终集合整体的连续天数
	subs := make([]db.HabitSubmission, 0, len(dates))
	totalPoints := 0
	for i, date := range dates {
		ref, _ := time.ParseInLocation(streak.DateLayout, date, time.Local)
		streakAtTime := streak.Length(dates[:i+1], ref)
		// 历史环境加成不可复原，回填一律按关闭处理
		multiplier := streak.Multiplier(streakAtTime, streak.Polarity(habit.Polarity), false)
		points := streak.Points(habit.BasePoints, multiplier)
		totalPoints += points

		subs = append(subs, db.HabitSubmission{
			HabitID:           habit.ID,
			SubmissionKey:     db.BackfillKey(date),
			Date:              date,
			Timestamp:         ref,
			Count:             habit.EffectiveTarget(),
			PointsEarned:      points,
			StreakDaysAtTime:  streakAtTime,
			MultiplierApplied: multiplier,
			CreatedBy:         actor,
		})
	}

	// 分块写入：末块的写入预算见 migrationChunks
	for _, bounds := range migrationChunks(len(subs), s.batchSize) {
		chunk := subs[bounds[0]:bounds[1]]
		final := bounds[1] == len(subs)

		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := upsertSubmissions(tx, chunk); err != nil {
				return err
			}
			if !final {
				return nil
			}

			// 终身积分计入家庭汇总行；历史积分无法归属到具体成员
			if totalPoints != 0 {
				if err := s.ledger.applyTotalOnly(tx, habit.HouseholdID, db.AggregateMemberID, totalPoints, s.clock()); err != nil {
					return err
				}
			}
			return tx.Model(&db.Habit{}).
				Where("id = ?", habit.ID).
				Update("has_submission_tracking", true).Error
		})
		if err != nil {
			telemetry.MigrationHabitsTotal.WithLabelValues("failed").Inc()
			return result, classifyStoreError(err)
		}

		result.SubmissionsCreated += len(chunk)
	}

	result.PointsBackfilled = totalPoints
	telemetry.MigrationHabitsTotal.WithLabelValues("migrated").Inc()
	telemetry.MigrationSubmissionsTotal.Add(float64(result.SubmissionsCreated))
	telemetry.RecordLedgerDelta("backfill", totalPoints)
	return result, nil
}

// MigrateAll 回填一个家庭的所有习惯。
// 单个习惯失败不影响其余习惯（各自独立幂等，重跑即可补全）；
// 权限类失败例外：继续跑只会撞上同样的拒绝，直接中止剩余习惯。
func (s *MigrationService) MigrateAll(householdID uint, actor string) ([]MigrationResult, error) {
	var habits []db.Habit
	if err := s.db.Where("household_id = ?", householdID).Find(&habits).Error; err != nil {
		return nil, classifyStoreError(err)
	}

	results := make([]MigrationResult, 0, len(habits))
	for _, habit := range habits {
		res, err := s.Migrate(habit.ID, actor)
		if res != nil {
			results = append(results, *res)
		}
		if err != nil {
			if errors.Is(err, ErrPermissionDenied) {
				return results, err
			}
			log.Printf("migration: habit %d (%s) failed, continuing: %v", habit.ID, habit.Title, err)
		}
	}

	return results, nil
}

// migrationChunks 规划回填的分块区间。末块除提交记录外还要执行三条额外写入
// （账本行补建、终身积分累加、已迁移标记），必须一起留在写入预算内。
func migrationChunks(total, batchSize int) [][2]int {
	var chunks [][2]int
	for start := 0; start < total; {
		end := start + batchSize
		if end >= total {
			end = total
			if end-start+3 > batchSize {
				end = start + batchSize - 3
			}
		}
		chunks = append(chunks, [2]int{start, end})
		start = end
	}
	return chunks
}

func upsertSubmissions(tx *gorm.DB, subs []db.HabitSubmission) error {
	if len(subs) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "habit_id"}, {Name: "submission_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"date", "timestamp", "count", "points_earned",
			"streak_days_at_time", "multiplier_applied", "created_by", "updated_at",
		}),
	}).Create(&subs).Error
}

// sanitizeDates 清洗历史日期：去重、剔除空串与无法解析的值并告警，升序返回。
// 数据质量问题只降级处理，绝不因此中断整个回填。
func sanitizeDates(habitID uint, dates db.DateList) []string {
	seen := make(map[string]struct{}, len(dates))
	out := make([]string, 0, len(dates))

	for _, raw := range dates {
		date := strings.TrimSpace(raw)
		if date == "" {
			log.Printf("migration: habit %d dropping empty date entry", habitID)
			continue
		}
		if _, dup := seen[date]; dup {
			continue
		}
		if _, err := time.ParseInLocation(streak.DateLayout, date, time.Local); err != nil {
			log.Printf("migration: habit %d dropping malformed date %q", habitID, raw)
			continue
		}
		seen[date] = struct{}{}
		out = append(out, date)
	}

	sort.Strings(out)
	return out
}
