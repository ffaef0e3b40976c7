package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrHabitNotFound 在指定习惯不存在时返回
	ErrHabitNotFound = errors.New("habit not found")
	// ErrPermissionDenied 表示存储层拒绝了授权，调用方应提示重新认证而非重试
	ErrPermissionDenied = errors.New("store permission denied")
	// ErrInvalidDirection 在打卡方向不是 up/down 时返回
	ErrInvalidDirection = errors.New("invalid toggle direction")
	// ErrInvalidDate 在日期格式无法解析时返回
	ErrInvalidDate = errors.New("invalid date")

	// errConflict 乐观并发冲突，由调用方在事务外重试，不对外暴露
	errConflict = errors.New("habit revision conflict")
)

// TransientError 包装可重试的存储错误。
// 习惯状态与账本变更在原子提交成功前都不算生效，调用方可安全地整体重试。
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient store error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient 判断错误是否属于可重试类别。
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// classifyStoreError 把底层存储错误归类为权限/瞬时两类。
// 权限类错误需要用户重新认证，重试无意义；其余一律视为瞬时可重试。
func classifyStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPermissionDenied) {
		return err
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"readonly database", "permission denied", "access denied", "authorization"} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
	}

	return &TransientError{Err: err}
}
