package service

import (
	"math"
	"time"
	"tour_verify/internal/domain/course/repository"

	"gorm.io/gorm"
)

// VerifiedCounter 统计某次报名已核销的景区数量
// 由验证码仓库实现；tx 为 nil 时使用默认连接
type VerifiedCounter interface {
	CountVerified(tx *gorm.DB, enrollmentID string) (int, error)
}

// ProgressResult 进度重算结果
type ProgressResult struct {
	VerifiedCount int     `json:"verifiedCount"`
	TotalCount    int     `json:"totalCount"`
	Percent       float64 `json:"percent"`
	Completed     bool    `json:"completed"`
}

// ProgressTracker 课程进度跟踪
// Recompute 必须与核销动作处于同一事务，防止崩溃导致进度与核销记录不一致
type ProgressTracker struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	counter     VerifiedCounter
}

func NewProgressTracker(
	courses repository.CourseRepository,
	enrollments repository.EnrollmentRepository,
	counter VerifiedCounter,
) *ProgressTracker {
	return &ProgressTracker{
		courses:     courses,
		enrollments: enrollments,
		counter:     counter,
	}
}

// Recompute 重算进度并在全部核销时完成课程
// 进度 = 已核销景区数 / 课程景区总数 * 100，保留两位小数
func (t *ProgressTracker) Recompute(tx *gorm.DB, enrollmentID, courseID string) (*ProgressResult, error) {
	attractionIDs, err := t.courses.AttractionSet(courseID)
	if err != nil {
		return nil, err
	}
	total := len(attractionIDs)

	verified, err := t.counter.CountVerified(tx, enrollmentID)
	if err != nil {
		return nil, err
	}

	result := &ProgressResult{
		VerifiedCount: verified,
		TotalCount:    total,
		Percent:       Percent(verified, total),
	}

	if total > 0 && verified >= total {
		// 全部核销：终态转换，冻结 100%
		if err := t.enrollments.Complete(tx, enrollmentID, time.Now()); err != nil {
			return nil, err
		}
		result.Percent = 100
		result.Completed = true
		return result, nil
	}

	if err := t.enrollments.UpdateProgress(tx, enrollmentID, result.Percent); err != nil {
		return nil, err
	}
	return result, nil
}

// Percent 按两位小数计算进度百分比
func Percent(verified, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(verified)/float64(total)*100*100) / 100
}
