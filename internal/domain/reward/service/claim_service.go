package service

import (
	"errors"
	"math"
	"strings"
	"time"

	attractionRepo "tour_verify/internal/domain/attraction/repository"
	courseModel "tour_verify/internal/domain/course/model"
	courseRepo "tour_verify/internal/domain/course/repository"
	"tour_verify/internal/domain/reward/model"
	"tour_verify/internal/domain/reward/repository"
	"tour_verify/pkg/logger"
	"tour_verify/pkg/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrCourseNotCompleted 课程未完成不能申领
	ErrCourseNotCompleted = errors.New("course is not completed")
	// ErrEnrollmentNotFound 报名不存在或不属于该游客
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	// ErrBadInstrument 不支持的结算方式
	ErrBadInstrument = errors.New("unsupported payout instrument")
)

// ClaimNotifier 申领批准后的异步通知，为 nil 时跳过
type ClaimNotifier interface {
	NotifyRewardApproved(touristID, claimID string, amount int64)
}

type ClaimService interface {
	Claim(touristID, enrollmentID, instrument string) (*model.RewardClaim, error)
	MyClaims(touristID string) ([]model.RewardClaim, error)
}

// claimService 奖励申领引擎
// 申领、标记、报名归档在同一事务内提交；
// exactly-once 由 reward_claims.enrollment_id 唯一索引最终裁决
type claimService struct {
	db          *gorm.DB
	claims      repository.ClaimRepository
	enrollments courseRepo.EnrollmentRepository
	courses     courseRepo.CourseRepository
	attractions attractionRepo.AttractionRepository
	notifier    ClaimNotifier
}

func NewClaimService(
	db *gorm.DB,
	claims repository.ClaimRepository,
	enrollments courseRepo.EnrollmentRepository,
	courses courseRepo.CourseRepository,
	attractions attractionRepo.AttractionRepository,
	notifier ClaimNotifier,
) ClaimService {
	return &claimService{
		db:          db,
		claims:      claims,
		enrollments: enrollments,
		courses:     courses,
		attractions: attractions,
		notifier:    notifier,
	}
}

func (s *claimService) Claim(touristID, enrollmentID, instrument string) (*model.RewardClaim, error) {
	if instrument == "" {
		instrument = model.InstrumentCash
	}
	if instrument != model.InstrumentCash && instrument != model.InstrumentLocalCurrency {
		return nil, ErrBadInstrument
	}

	enrollment, err := s.enrollments.GetByID(enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, err
	}
	if enrollment.TouristID != touristID {
		return nil, ErrEnrollmentNotFound
	}
	if enrollment.Status != courseModel.EnrollmentCompleted {
		return nil, ErrCourseNotCompleted
	}
	// 快路径：已标记申领直接拒绝，唯一索引在事务里兜底并发
	if enrollment.RewardClaimed {
		return nil, repository.ErrAlreadyClaimed
	}

	course, err := s.courses.GetByID(enrollment.CourseID)
	if err != nil {
		return nil, err
	}

	claim := &model.RewardClaim{
		EnrollmentID: enrollmentID,
		TouristID:    touristID,
		CourseID:     course.ID,
		CourseName:   course.Name,
		CourseDesc:   course.Description,
		Instrument:   instrument,
		BaseAmount:   course.RewardAmount,
	}
	claim.AttractionNames, err = s.attractionSnapshot(course.ID)
	if err != nil {
		return nil, err
	}

	claim.BonusRate, claim.Amount = Payout(course.RewardAmount, instrument)

	// 人工审核流程未启用，申领即批准
	now := time.Now()
	claim.Status = model.ClaimApproved
	claim.ApprovedAt = &now

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.claims.Create(tx, claim); err != nil {
			return err
		}
		if err := s.enrollments.MarkRewardClaimed(tx, enrollmentID, claim.ID); err != nil {
			return err
		}
		return s.enrollments.Delete(tx, enrollmentID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyClaimed) {
			// 并发落败，读出已落库的那笔留诊断
			if winner, lookupErr := s.claims.GetByEnrollment(enrollmentID); lookupErr == nil {
				logger.Log.Warn("duplicate reward claim rejected",
					zap.String("enrollment_id", enrollmentID),
					zap.String("claim_id", winner.ID),
				)
			}
		}
		return nil, err
	}

	metrics.Default.RewardClaimed(instrument)
	logger.Log.Info("reward claim approved",
		zap.String("claim_id", claim.ID),
		zap.String("tourist_id", touristID),
		zap.Int64("amount", claim.Amount),
	)
	if s.notifier != nil {
		s.notifier.NotifyRewardApproved(touristID, claim.ID, claim.Amount)
	}
	return claim, nil
}

func (s *claimService) MyClaims(touristID string) ([]model.RewardClaim, error) {
	return s.claims.ListByTourist(touristID)
}

// attractionSnapshot 按课程景区顺序拼出名称快照
func (s *claimService) attractionSnapshot(courseID string) (string, error) {
	ids, err := s.courses.AttractionSet(courseID)
	if err != nil {
		return "", err
	}
	names, err := s.attractions.GetNames(ids)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := names[id]; ok {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, ", "), nil
}

// Payout 结算金额：地方消费券上浮 10%，现金按面额
func Payout(base int64, instrument string) (rate float64, amount int64) {
	if instrument == model.InstrumentLocalCurrency {
		rate = model.LocalCurrencyBonusRate
		amount = int64(math.Round(float64(base) * (1 + rate/100)))
		return rate, amount
	}
	return 0, base
}
