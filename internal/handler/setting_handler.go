package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hearthpoints/internal/db"
)

type favorablePayload struct {
	Enabled bool `json:"enabled"`
}

// GetSettings 返回家庭级设置
func (a *API) GetSettings(c *gin.Context) {
	householdID, _ := currentActor(c)
	if householdID == 0 {
		respondError(c, http.StatusBadRequest, "缺少家庭ID")
		return
	}

	name, err := a.settings.Get(householdID, db.SettingKeyHouseholdName)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"household_name":      name,
		"favorable_condition": a.settings.FavorableCondition(householdID),
	})
}

// SetFavorableCondition 开关全家的有利条件加成
func (a *API) SetFavorableCondition(c *gin.Context) {
	householdID, _ := currentActor(c)
	if householdID == 0 {
		respondError(c, http.StatusBadRequest, "缺少家庭ID")
		return
	}

	var payload favorablePayload
	if !bindJSON(c, &payload, "无效的设置数据") {
		return
	}

	if err := a.settings.Set(householdID, db.SettingKeyFavorableCondition, strconv.FormatBool(payload.Enabled)); err != nil {
		handleEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorable_condition": payload.Enabled})
}
