package service

import (
	"errors"
	"strings"
	"time"

	attractionService "tour_verify/internal/domain/attraction/service"
	courseRepository "tour_verify/internal/domain/course/repository"
	courseService "tour_verify/internal/domain/course/service"
	"tour_verify/internal/domain/verification/model"
	"tour_verify/internal/domain/verification/repository"
	"tour_verify/pkg/logger"
	"tour_verify/pkg/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CompletionNotifier 课程完成通知（异步推送），为 nil 时跳过
type CompletionNotifier interface {
	NotifyCompletion(touristID, courseID string)
}

// RedeemResult 核销成功的回执
type RedeemResult struct {
	AttractionID   string                        `json:"attractionId"`
	AttractionName string                        `json:"attractionName"`
	Kind           string                        `json:"kind"`
	Progress       *courseService.ProgressResult `json:"progress"`
}

// RedemptionEngine 核销引擎
// 校验链顺序固定：码有效性 → 课程归属 → 重复核销 → 冷却；
// 消费、核销事件、进度重算在同一事务内提交
type RedemptionEngine struct {
	db          *gorm.DB
	repo        repository.VerificationRepository
	enrollments courseRepository.EnrollmentRepository
	courses     courseRepository.CourseRepository
	attractions attractionService.AttractionService
	cooldown    *CooldownPolicy
	tracker     *courseService.ProgressTracker
	notifier    CompletionNotifier
}

func NewRedemptionEngine(
	db *gorm.DB,
	repo repository.VerificationRepository,
	enrollments courseRepository.EnrollmentRepository,
	courses courseRepository.CourseRepository,
	attractions attractionService.AttractionService,
	cooldown *CooldownPolicy,
	tracker *courseService.ProgressTracker,
	notifier CompletionNotifier,
) *RedemptionEngine {
	return &RedemptionEngine{
		db:          db,
		repo:        repo,
		enrollments: enrollments,
		courses:     courses,
		attractions: attractions,
		cooldown:    cooldown,
		tracker:     tracker,
		notifier:    notifier,
	}
}

// Redeem 游客在某次报名下提交码串核销
func (e *RedemptionEngine) Redeem(touristID, enrollmentID, rawCode string) (*RedeemResult, error) {
	code := strings.ToUpper(strings.TrimSpace(rawCode))
	if code == "" {
		return nil, ErrEmptyCode
	}

	enrollment, err := e.enrollments.GetActive(enrollmentID, touristID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentClosed
		}
		return nil, err
	}

	record, err := e.repo.LookupActive(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 对外不区分过期与不存在，区分只进诊断日志
			e.logInvalidCode(code, enrollmentID)
			metrics.Default.Redemption("invalid")
			return nil, ErrInvalidOrExpired
		}
		return nil, err
	}

	inCourse, err := e.attractionInCourse(enrollment.CourseID, record.AttractionID)
	if err != nil {
		return nil, err
	}
	if !inCourse {
		metrics.Default.Redemption("not_in_course")
		return nil, ErrNotInCourse
	}

	redeemed, err := e.repo.HasRedeemed(enrollmentID, record.AttractionID)
	if err != nil {
		return nil, err
	}
	if redeemed {
		metrics.Default.Redemption("already_verified")
		return nil, ErrAlreadyVerified
	}

	if err := e.cooldown.MayRedeem(touristID, record.AttractionID, record.Kind); err != nil {
		if errors.Is(err, ErrCooldownActive) {
			metrics.Default.Redemption("cooldown")
		}
		return nil, err
	}

	var progress *courseService.ProgressResult
	err = e.db.Transaction(func(tx *gorm.DB) error {
		// 行锁串行化同一报名的并发核销：
		// 不加锁时两笔不同景区的核销互不冲突，后提交者会用
		// 自己快照里的旧计数覆盖进度，课程完成判定被漏掉
		locked, err := e.enrollments.GetActiveForUpdate(tx, enrollmentID, touristID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return courseRepository.ErrEnrollmentClosed
			}
			return err
		}
		enrollment = locked

		if record.Kind == model.KindOneTime {
			if err := e.repo.ConsumeOneTime(tx, record.ID, touristID, enrollmentID); err != nil {
				return err
			}
		}

		if err := e.repo.RecordRedemption(tx, &model.Redemption{
			CodeID:       record.ID,
			Code:         record.Code,
			AttractionID: record.AttractionID,
			Kind:         record.Kind,
			TouristID:    touristID,
			EnrollmentID: enrollmentID,
			RedeemedAt:   time.Now(),
		}); err != nil {
			return err
		}

		progress, err = e.tracker.Recompute(tx, enrollmentID, enrollment.CourseID)
		return err
	})
	if err != nil {
		return nil, e.translateRedeemError(err)
	}

	if record.Kind == model.KindReusable {
		e.cooldown.MarkRedeemed(touristID, record.AttractionID)
	}
	metrics.Default.Redemption("verified")

	if progress.Completed {
		metrics.Default.CourseCompleted()
		if e.notifier != nil {
			e.notifier.NotifyCompletion(touristID, enrollment.CourseID)
		}
	}

	result := &RedeemResult{
		AttractionID: record.AttractionID,
		Kind:         record.Kind,
		Progress:     progress,
	}
	if attraction, err := e.attractions.Get(record.AttractionID); err == nil {
		result.AttractionName = attraction.Name
	}
	return result, nil
}

func (e *RedemptionEngine) attractionInCourse(courseID, attractionID string) (bool, error) {
	ids, err := e.courses.AttractionSet(courseID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == attractionID {
			return true, nil
		}
	}
	return false, nil
}

// translateRedeemError 事务内的仓库错误翻译为业务错误
func (e *RedemptionEngine) translateRedeemError(err error) error {
	switch {
	case errors.Is(err, repository.ErrCodeExpired):
		// 查询与消费之间跨过了过期时刻
		metrics.Default.Redemption("invalid")
		return ErrInvalidOrExpired
	case errors.Is(err, repository.ErrAlreadyConsumed):
		metrics.Default.Redemption("consumed")
		return ErrAlreadyConsumed
	case errors.Is(err, repository.ErrAlreadyVerified):
		metrics.Default.Redemption("already_verified")
		return ErrAlreadyVerified
	case errors.Is(err, courseRepository.ErrEnrollmentClosed):
		return ErrEnrollmentClosed
	default:
		return err
	}
}

func (e *RedemptionEngine) logInvalidCode(code, enrollmentID string) {
	exists, err := e.repo.Exists(code)
	if err != nil {
		return
	}
	if exists {
		logger.Log.Info("redemption rejected: code expired",
			zap.String("code", code), zap.String("enrollment_id", enrollmentID))
	} else {
		logger.Log.Info("redemption rejected: unknown code",
			zap.String("code", code), zap.String("enrollment_id", enrollmentID))
	}
}
