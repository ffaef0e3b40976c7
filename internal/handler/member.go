package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	sessionKeyHousehold = "household_id"
	sessionKeyMember    = "member_id"
)

type actAsPayload struct {
	HouseholdID uint `json:"household_id"`
	MemberID    uint `json:"member_id"`
}

// ActAsMember 在会话里记录当前操作的家庭与成员，后续打卡与补正都以此归属。
// 只做归属标记，不承载任何认证语义（认证属于外围应用）。
func (a *API) ActAsMember(c *gin.Context) {
	var payload actAsPayload
	if !bindJSON(c, &payload, "无效的成员信息") {
		return
	}
	if payload.HouseholdID == 0 {
		respondError(c, http.StatusBadRequest, "缺少家庭ID")
		return
	}

	session := sessions.Default(c)
	session.Set(sessionKeyHousehold, payload.HouseholdID)
	session.Set(sessionKeyMember, payload.MemberID)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "保存会话失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"household_id": payload.HouseholdID, "member_id": payload.MemberID})
}

// currentActor 返回会话中的家庭与成员归属，未设置时回退到查询参数。
func currentActor(c *gin.Context) (householdID, memberID uint) {
	if raw, ok := c.Get(sessions.DefaultKey); ok {
		session := raw.(sessions.Session)
		if v, ok := session.Get(sessionKeyHousehold).(uint); ok {
			householdID = v
		}
		if v, ok := session.Get(sessionKeyMember).(uint); ok {
			memberID = v
		}
	}

	if householdID == 0 {
		if id, err := parseUintQuery(c, "household_id"); err == nil {
			householdID = id
		}
	}
	if memberID == 0 {
		if id, err := parseUintQuery(c, "member_id"); err == nil {
			memberID = id
		}
	}
	return householdID, memberID
}

func parseUintQuery(c *gin.Context, key string) (uint, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, errMissingQuery
	}
	id, err := parseUintString(raw)
	if err != nil {
		return 0, err
	}
	return id, nil
}
