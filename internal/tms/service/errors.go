package service

import "errors"

// 业务错误分类，handler层统一映射为4xx响应
var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrForbidden          = errors.New("forbidden")
	ErrEmptySelection     = errors.New("empty selection")
	ErrAlreadySubmitted   = errors.New("already submitted")
	ErrAlreadyDecided     = errors.New("already decided")
	ErrAlreadyOrdered     = errors.New("already ordered")
	ErrInvalidHolderState = errors.New("invalid holder state")
	ErrDependencyConflict = errors.New("dependency conflict")
)
