package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hearthpoints/internal/db"
	"github.com/hearthpoints/internal/streak"
	"gorm.io/gorm"
)

// HabitService 负责习惯记录的读取与录入。
// 只做引擎需要的最小集合：列表、单查、建档（含旧系统日期导入）；
// 其余增删改查属于外围应用，不在引擎范围内。
type HabitService struct {
	db    *gorm.DB
	clock func() time.Time
}

// HabitInput 定义建档时可配置字段。
// 注意没有 StreakDays：它是派生缓存，只能由引擎从 CompletedDates 重算，
// 任何入口都不接受外部传入值。
type HabitInput struct {
	HouseholdID        uint
	Title              string
	Category           string
	Notes              string
	Polarity           string
	ScoringType        string
	Period             string
	BasePoints         int
	TargetCount        int
	FavorableCondition bool
	CompletedDates     []string
}

// NewHabitService 构造 HabitService
func NewHabitService(gdb *gorm.DB) *HabitService {
	return &HabitService{db: gdb, clock: time.Now}
}

// List 返回某个家庭的全部习惯。
func (s *HabitService) List(householdID uint) ([]db.Habit, error) {
	var habits []db.Habit
	err := s.db.Where("household_id = ?", householdID).
		Order("created_at ASC").
		Find(&habits).Error
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return habits, nil
}

// Get 根据 ID 获取习惯
func (s *HabitService) Get(id uint) (*db.Habit, error) {
	var habit db.Habit
	if err := s.db.First(&habit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("get habit: %w", err)
	}
	return &habit, nil
}

// Create 新建习惯。导入的历史日期会被去重排序，连续天数在此从集合派生。
func (s *HabitService) Create(input HabitInput) (*db.Habit, error) {
	if err := validateHabitInput(input); err != nil {
		return nil, err
	}

	now := s.clock()
	dates := db.DateList{}
	for _, d := range input.CompletedDates {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		dates = addDate(dates, d)
	}

	habit := db.Habit{
		HouseholdID:        input.HouseholdID,
		Title:              strings.TrimSpace(input.Title),
		Category:           strings.TrimSpace(input.Category),
		Notes:              input.Notes,
		Polarity:           normalizePolarity(input.Polarity),
		ScoringType:        normalizeScoringType(input.ScoringType),
		Period:             normalizePeriod(input.Period),
		BasePoints:         input.BasePoints,
		TargetCount:        input.TargetCount,
		CompletedDates:     dates,
		StreakDays:         streak.Length(dates, now),
		FavorableCondition: input.FavorableCondition,
		LastUpdated:        now,
	}

	if err := s.db.Create(&habit).Error; err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	return &habit, nil
}

func validateHabitInput(input HabitInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("habit title is required")
	}
	if input.HouseholdID == 0 {
		return fmt.Errorf("household id is required")
	}
	if input.TargetCount < 0 {
		return fmt.Errorf("target count must not be negative")
	}
	return nil
}

func normalizePolarity(polarity string) string {
	if strings.TrimSpace(strings.ToLower(polarity)) == string(streak.PolarityNegative) {
		return string(streak.PolarityNegative)
	}
	return string(streak.PolarityPositive)
}

func normalizeScoringType(scoringType string) string {
	if strings.TrimSpace(strings.ToLower(scoringType)) == db.ScoringIncremental {
		return db.ScoringIncremental
	}
	return db.ScoringThreshold
}

func normalizePeriod(period string) string {
	if strings.TrimSpace(strings.ToLower(period)) == db.PeriodWeekly {
		return db.PeriodWeekly
	}
	return db.PeriodDaily
}
