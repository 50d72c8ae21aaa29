package service

import "errors"

// 核销与发码的业务错误，由 handler 翻译为对外文案
var (
	ErrEmptyCode        = errors.New("empty code")
	ErrInvalidOrExpired = errors.New("invalid or expired code")
	ErrNotInCourse      = errors.New("attraction is not part of this course")
	ErrAlreadyVerified  = errors.New("attraction already verified for this enrollment")
	ErrCooldownActive   = errors.New("reusable code cooldown active for this attraction")
	ErrAlreadyConsumed  = errors.New("code already consumed")
	ErrEnrollmentClosed = errors.New("enrollment is not in progress")
	ErrQuantityRange    = errors.New("quantity must be between 1 and 1000")
)
