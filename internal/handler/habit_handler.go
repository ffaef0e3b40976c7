package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hearthpoints/internal/db"
	"github.com/hearthpoints/internal/service"
)

type habitPayload struct {
	ID                    uint     `json:"id"`
	HouseholdID           uint     `json:"household_id"`
	Title                 string   `json:"title"`
	Category              string   `json:"category"`
	Notes                 string   `json:"notes"`
	NotesHTML             string   `json:"notes_html,omitempty"`
	Polarity              string   `json:"polarity"`
	ScoringType           string   `json:"scoring_type"`
	Period                string   `json:"period"`
	BasePoints            int      `json:"base_points"`
	TargetCount           int      `json:"target_count"`
	Count                 int      `json:"count"`
	TotalCount            int      `json:"total_count"`
	CompletedDates        []string `json:"completed_dates"`
	StreakDays            int      `json:"streak_days"`
	FavorableCondition    bool     `json:"favorable_condition"`
	HasSubmissionTracking bool     `json:"has_submission_tracking"`
	LastUpdated           string   `json:"last_updated"`
}

type createHabitPayload struct {
	Title              string   `json:"title"`
	Category           string   `json:"category"`
	Notes              string   `json:"notes"`
	Polarity           string   `json:"polarity"`
	ScoringType        string   `json:"scoring_type"`
	Period             string   `json:"period"`
	BasePoints         int      `json:"base_points"`
	TargetCount        int      `json:"target_count"`
	FavorableCondition *bool    `json:"favorable_condition"`
	CompletedDates     []string `json:"completed_dates"`
}

func habitToPayload(habit db.Habit) habitPayload {
	notesHTML, err := service.RenderNotes(habit.Notes)
	if err != nil {
		log.Printf("handler: render notes for habit %d: %v", habit.ID, err)
		notesHTML = ""
	}

	return habitPayload{
		ID:                    habit.ID,
		HouseholdID:           habit.HouseholdID,
		Title:                 habit.Title,
		Category:              habit.Category,
		Notes:                 habit.Notes,
		NotesHTML:             notesHTML,
		Polarity:              habit.Polarity,
		ScoringType:           habit.ScoringType,
		Period:                habit.Period,
		BasePoints:            habit.BasePoints,
		TargetCount:           habit.TargetCount,
		Count:                 habit.Count,
		TotalCount:            habit.TotalCount,
		CompletedDates:        habit.CompletedDates,
		StreakDays:            habit.StreakDays,
		FavorableCondition:    habit.FavorableCondition,
		HasSubmissionTracking: habit.HasSubmissionTracking,
		LastUpdated:           habit.LastUpdated.Format(time.RFC3339),
	}
}

// ListHabits 返回当前家庭的习惯列表 JSON
func (a *API) ListHabits(c *gin.Context) {
	householdID, _ := currentActor(c)
	if householdID == 0 {
		respondError(c, http.StatusBadRequest, "缺少家庭ID")
		return
	}

	habits, err := a.habits.List(householdID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取习惯列表失败")
		return
	}

	items := make([]habitPayload, 0, len(habits))
	for _, habit := range habits {
		items = append(items, habitToPayload(habit))
	}

	c.JSON(http.StatusOK, gin.H{"habits": items})
}

// GetHabit 返回单个习惯详情
func (a *API) GetHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	habit, err := a.habits.Get(id)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": habitToPayload(*habit)})
}

// CreateHabit 建档习惯，支持导入旧系统的历史打卡日期
func (a *API) CreateHabit(c *gin.Context) {
	householdID, _ := currentActor(c)
	if householdID == 0 {
		respondError(c, http.StatusBadRequest, "缺少家庭ID")
		return
	}

	var payload createHabitPayload
	if !bindJSON(c, &payload, "无效的习惯数据") {
		return
	}

	// 家庭级环境加成开关只在请求未显式给出该字段时充当默认值
	favorable := a.settings.FavorableCondition(householdID)
	if payload.FavorableCondition != nil {
		favorable = *payload.FavorableCondition
	}

	habit, err := a.habits.Create(service.HabitInput{
		HouseholdID:        householdID,
		Title:              payload.Title,
		Category:           payload.Category,
		Notes:              payload.Notes,
		Polarity:           payload.Polarity,
		ScoringType:        payload.ScoringType,
		Period:             payload.Period,
		BasePoints:         payload.BasePoints,
		TargetCount:        payload.TargetCount,
		FavorableCondition: favorable,
		CompletedDates:     payload.CompletedDates,
	})
	if err != nil {
		respondError(c, http.StatusBadRequest, "创建习惯失败："+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": habitToPayload(*habit)})
}
