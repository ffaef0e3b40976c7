package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hearthpoints/internal/service"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := parseUintString(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return id, nil
}

var errMissingQuery = errors.New("missing query parameter")

func parseUintString(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// handleEngineError 把引擎错误分类映射为 HTTP 响应：
// 权限类失败给出重新认证的提示，瞬时类失败给出重试提示，两者不可混淆。
func handleEngineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrHabitNotFound):
		respondError(c, http.StatusNotFound, "习惯不存在")
	case errors.Is(err, service.ErrPermissionDenied):
		respondError(c, http.StatusForbidden, "存储授权被拒绝，请重新登录后再试")
	case errors.Is(err, service.ErrInvalidDirection):
		respondError(c, http.StatusBadRequest, "无效的打卡方向，仅支持 up/down")
	case errors.Is(err, service.ErrInvalidDate):
		respondError(c, http.StatusBadRequest, "无效的日期，格式应为 YYYY-MM-DD")
	case service.IsTransient(err):
		respondError(c, http.StatusServiceUnavailable, "存储暂时不可用，请稍后重试")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
