package response

// 业务状态码
const (
	CodeSuccess = 0
	CodeError   = 1

	// 用户模块错误 100xx
	ErrUserExists   = 10001
	ErrUserNotFound = 10002
	ErrAuthFailed   = 10003
	ErrTokenInvalid = 10004
	ErrNoPermission = 10005
	ErrNotApproved  = 10006

	// 验证码模块错误 200xx
	ErrCodeInvalidOrExpired = 20001
	ErrCodeAlreadyConsumed  = 20002
	ErrCodeNotInCourse      = 20003
	ErrAlreadyVerified      = 20004
	ErrCooldownActive       = 20005
	ErrCodeGeneration       = 20006

	// 课程模块错误 300xx
	ErrCourseNotFound     = 30001
	ErrAlreadyEnrolled    = 30002
	ErrEnrollmentNotFound = 30003
	ErrEnrollmentClosed   = 30004
	ErrCourseInUse        = 30005

	// 奖励模块错误 400xx
	ErrCourseNotCompleted = 40001
	ErrAlreadyClaimed     = 40002

	// 系统错误 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
)
