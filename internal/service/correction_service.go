package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hearthpoints/internal/db"
	"github.com/hearthpoints/internal/streak"
	"github.com/hearthpoints/internal/telemetry"
	"gorm.io/gorm"
)

// thresholdDateMessage 阈值习惯补记不调账的用户提示。
// 这是源于数据模型的已知限制（缺少当日计数），刻意保留而非缺陷。
const thresholdDateMessage = "阈值习惯的补记只更新打卡日期：缺少当日具体次数，无法判断该日是否跨越目标，积分账本保持不变"

// DateToggleResult 汇报一次任意日期补正的结果。
type DateToggleResult struct {
	Habit          *db.Habit `json:"habit"`
	Added          bool      `json:"added"`
	LedgerDelta    int       `json:"ledger_delta"`
	LedgerAdjusted bool      `json:"ledger_adjusted"`
	Message        string    `json:"message,omitempty"`
}

// CorrectionService 提供绕开日常打卡流程的人工补正入口：
// 补记/撤销任意历史日期，或直接校正终身计数。
type CorrectionService struct {
	db     *gorm.DB
	ledger *LedgerService
	clock  func() time.Time
}

// NewCorrectionService 构造 CorrectionService
func NewCorrectionService(gdb *gorm.DB) *CorrectionService {
	return &CorrectionService{
		db:     gdb,
		ledger: NewLedgerService(gdb),
		clock:  time.Now,
	}
}

// ToggleDate 补记或撤销任意日期的打卡，并从新集合重算连续天数与倍率。
// 只有增量习惯会调整账本（±floor(base×multiplier)）；
// 阈值习惯显式跳过账本并返回说明信息。
func (s *CorrectionService) ToggleDate(habitID uint, date string, memberID uint) (*DateToggleResult, error) {
	if _, err := time.ParseInLocation(streak.DateLayout, date, time.Local); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDate, date)
	}

	var result *DateToggleResult
	var err error
	for attempt := 0; attempt < toggleRetryLimit; attempt++ {
		result, err = s.toggleDateOnce(habitID, date, memberID)
		if !errors.Is(err, errConflict) {
			break
		}
	}
	if errors.Is(err, errConflict) {
		err = &TransientError{Err: err}
	}
	if err != nil {
		return nil, err
	}

	if result.LedgerAdjusted && result.LedgerDelta != 0 {
		telemetry.RecordLedgerDelta("correction", result.LedgerDelta)
		Events.publish(PointsChanged{
			HouseholdID: result.Habit.HouseholdID,
			HabitID:     result.Habit.ID,
			MemberID:    memberID,
			Delta:       result.LedgerDelta,
		})
	}

	return result, nil
}

func (s *CorrectionService) toggleDateOnce(habitID uint, date string, memberID uint) (*DateToggleResult, error) {
	now := s.clock()

	var out DateToggleResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var habit db.Habit
		if err := tx.First(&habit, habitID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrHabitNotFound
			}
			return classifyStoreError(err)
		}

		prevRevision := habit.Revision
		adding := !containsDate(habit.CompletedDates, date)
		if adding {
			habit.CompletedDates = addDate(habit.CompletedDates, date)
		} else {
			habit.CompletedDates = removeDate(habit.CompletedDates, date)
		}

		// 补正后的集合重算连续天数与倍率
		habit.StreakDays = streak.Length(habit.CompletedDates, now)
		multiplier := streak.Multiplier(habit.StreakDays, streak.Polarity(habit.Polarity), habit.FavorableCondition)

		delta := 0
		adjusted := false
		message := ""
		if habit.ScoringType == db.ScoringIncremental {
			unit := streak.Points(habit.BasePoints, multiplier)
			if adding {
				delta = unit
			} else {
				delta = -unit
			}
			adjusted = delta != 0
		} else {
			message = thresholdDateMessage
		}

		if err := s.saveDateCorrection(tx, &habit, prevRevision); err != nil {
			return err
		}

		if adjusted {
			if habit.HasSubmissionTracking {
				sub := db.HabitSubmission{
					HabitID:           habit.ID,
					SubmissionKey:     uuid.NewString(),
					Date:              date,
					Timestamp:         now,
					Count:             habit.EffectiveTarget(),
					PointsEarned:      delta,
					StreakDaysAtTime:  habit.StreakDays,
					MultiplierApplied: multiplier,
					CreatedBy:         MemberRef(memberID),
				}
				if err := tx.Create(&sub).Error; err != nil {
					return classifyStoreError(err)
				}
			}

			// 补正当天的日期才计入滚动窗口，历史日期只动终身积分
			if date == dayKey(now) {
				if err := s.ledger.applyDelta(tx, habit.HouseholdID, memberID, delta, now); err != nil {
					return classifyStoreError(err)
				}
			} else {
				if err := s.ledger.applyTotalOnly(tx, habit.HouseholdID, memberID, delta, now); err != nil {
					return classifyStoreError(err)
				}
			}
		}

		out = DateToggleResult{
			Habit:          &habit,
			Added:          adding,
			LedgerDelta:    delta,
			LedgerAdjusted: adjusted,
			Message:        message,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (s *CorrectionService) saveDateCorrection(tx *gorm.DB, habit *db.Habit, prevRevision int64) error {
	habit.Revision = prevRevision + 1

	res := tx.Model(&db.Habit{}).
		Where("id = ? AND revision = ?", habit.ID, prevRevision).
		Updates(map[string]interface{}{
			"completed_dates": habit.CompletedDates,
			"streak_days":     habit.StreakDays,
			"revision":        habit.Revision,
		})
	if res.Error != nil {
		return classifyStoreError(res.Error)
	}
	if res.RowsAffected == 0 {
		return errConflict
	}
	return nil
}

// AdjustLifetimeTotal 直接校正终身计数，负值截断为 0。
// 这是展示统计的修正而非追溯发分，因此完全不触碰积分账本。
func (s *CorrectionService) AdjustLifetimeTotal(habitID uint, newTotal int) (*db.Habit, error) {
	if newTotal < 0 {
		newTotal = 0
	}

	var habit db.Habit
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&habit, habitID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrHabitNotFound
			}
			return classifyStoreError(err)
		}

		habit.TotalCount = newTotal
		habit.Revision++
		res := tx.Model(&db.Habit{}).
			Where("id = ?", habit.ID).
			Updates(map[string]interface{}{
				"total_count": habit.TotalCount,
				"revision":    gorm.Expr("revision + 1"),
			})
		if res.Error != nil {
			return classifyStoreError(res.Error)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &habit, nil
}

func containsDate(dates db.DateList, date string) bool {
	for _, d := range dates {
		if d == date {
			return true
		}
	}
	return false
}
