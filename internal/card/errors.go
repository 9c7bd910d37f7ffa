package card

import "errors"

var (
	// ErrDuplicateFieldID 表示新增字段的 ID 与现有字段冲突。
	ErrDuplicateFieldID = errors.New("duplicate field id")
	// ErrFieldNotFound 表示按 ID 查找字段失败。
	ErrFieldNotFound = errors.New("field not found")
	// ErrMalformedField 表示字段缺少 position 或类型非法。
	ErrMalformedField = errors.New("malformed field")
)
