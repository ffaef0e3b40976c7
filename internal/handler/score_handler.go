package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hearthpoints/internal/service"
)

type togglePayload struct {
	Direction string `json:"direction"`
}

type toggleDatePayload struct {
	Date string `json:"date"`
}

type adjustTotalPayload struct {
	Total int `json:"total"`
}

// ToggleHabit 处理打卡与撤销，返回更新后的习惯和本次积分变动
func (a *API) ToggleHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	var payload togglePayload
	if !bindJSON(c, &payload, "无效的打卡数据") {
		return
	}

	_, memberID := currentActor(c)
	habit, delta, err := a.scores.Toggle(id, memberID, service.Direction(payload.Direction))
	if err != nil {
		handleEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"habit":        habitToPayload(*habit),
		"points_delta": delta,
	})
}

// ToggleHabitDate 手动补打或取消某一天，属于历史修正路径
func (a *API) ToggleHabitDate(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	var payload toggleDatePayload
	if !bindJSON(c, &payload, "无效的日期数据") {
		return
	}

	_, memberID := currentActor(c)
	result, err := a.corrections.ToggleDate(id, payload.Date, memberID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	resp := gin.H{
		"habit":           habitToPayload(*result.Habit),
		"added":           result.Added,
		"ledger_delta":    result.LedgerDelta,
		"ledger_adjusted": result.LedgerAdjusted,
	}
	if result.Message != "" {
		resp["message"] = result.Message
	}
	c.JSON(http.StatusOK, resp)
}

// AdjustHabitTotal 直接改写累计完成次数，不回写积分账本
func (a *API) AdjustHabitTotal(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	var payload adjustTotalPayload
	if !bindJSON(c, &payload, "无效的次数数据") {
		return
	}

	habit, err := a.corrections.AdjustLifetimeTotal(id, payload.Total)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": habitToPayload(*habit)})
}

// MigrateHabit 把单个习惯的历史打卡日期回填为打卡记录并补记终身积分
func (a *API) MigrateHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	_, memberID := currentActor(c)
	result, err := a.migrations.Migrate(id, service.MemberRef(memberID))
	if err != nil {
		handleEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// MigrateHousehold 批量迁移整个家庭的习惯，单个失败不影响其它
func (a *API) MigrateHousehold(c *gin.Context) {
	householdID, memberID := currentActor(c)
	if householdID == 0 {
		respondError(c, http.StatusBadRequest, "缺少家庭ID")
		return
	}

	results, err := a.migrations.MigrateAll(householdID, service.MemberRef(memberID))
	if err != nil {
		handleEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}
