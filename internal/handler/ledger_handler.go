package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hearthpoints/internal/db"
)

const defaultSnapshotLimit = 30

// GetLedger 返回指定成员的积分账本（member_id 省略时为家庭汇总行）
func (a *API) GetLedger(c *gin.Context) {
	householdID, memberID := currentActor(c)
	if householdID == 0 {
		respondError(c, http.StatusBadRequest, "缺少家庭ID")
		return
	}
	if c.Query("member_id") == "" {
		memberID = db.AggregateMemberID
	}

	ledger, err := a.ledger.Get(householdID, memberID)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"household_id": householdID,
		"member_id":    memberID,
		"daily":        ledger.Daily,
		"weekly":       ledger.Weekly,
		"total":        ledger.Total,
	})
}

// GetLedgerSnapshots 返回每日积分快照，用于趋势展示
func (a *API) GetLedgerSnapshots(c *gin.Context) {
	householdID, memberID := currentActor(c)
	if householdID == 0 {
		respondError(c, http.StatusBadRequest, "缺少家庭ID")
		return
	}
	if c.Query("member_id") == "" {
		memberID = db.AggregateMemberID
	}

	limit := defaultSnapshotLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	snapshots, err := a.ledger.Snapshots(householdID, memberID, limit)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	items := make([]gin.H, 0, len(snapshots))
	for _, s := range snapshots {
		items = append(items, gin.H{
			"date":   s.Date,
			"daily":  s.Daily,
			"weekly": s.Weekly,
			"total":  s.Total,
		})
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": items})
}
