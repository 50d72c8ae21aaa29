package repository

import (
	"errors"
	"strings"
	"time"
	"tour_verify/internal/domain/course/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrAlreadyEnrolled 同一课程已有进行中的报名
	ErrAlreadyEnrolled = errors.New("tourist already has an in-progress enrollment for this course")
	// ErrEnrollmentClosed 报名已不在进行中状态
	ErrEnrollmentClosed = errors.New("enrollment is not in progress")
)

type EnrollmentRepository interface {
	Create(enrollment *model.Enrollment) error
	GetByID(id string) (*model.Enrollment, error)
	GetActive(id, touristID string) (*model.Enrollment, error)
	GetActiveForUpdate(tx *gorm.DB, id, touristID string) (*model.Enrollment, error)
	ListByTourist(touristID string) ([]model.Enrollment, error)

	// 以下方法参与核销事务，tx 为 nil 时使用默认连接
	UpdateProgress(tx *gorm.DB, id string, percent float64) error
	Complete(tx *gorm.DB, id string, completedAt time.Time) error
	MarkRewardClaimed(tx *gorm.DB, id, claimID string) error
	Delete(tx *gorm.DB, id string) error

	Abandon(id, touristID string) error
}

type enrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Create 创建报名
// (tourist, course) 的 in_progress 唯一性由部分唯一索引兜底，
// 唯一键冲突翻译为 ErrAlreadyEnrolled
func (r *enrollmentRepository) Create(enrollment *model.Enrollment) error {
	err := r.db.Create(enrollment).Error
	if err != nil && isUniqueViolation(err) {
		return ErrAlreadyEnrolled
	}
	return err
}

func (r *enrollmentRepository) GetByID(id string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	if err := r.db.Where("id = ?", id).First(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// GetActive 获取指定游客的进行中报名
func (r *enrollmentRepository) GetActive(id, touristID string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.db.Where("id = ? AND tourist_id = ? AND status = ?",
		id, touristID, model.EnrollmentInProgress).First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// GetActiveForUpdate 事务内行锁重读进行中报名
// 同一报名的并发核销在这里排队，后进入者统计进度时能看到先提交的核销
func (r *enrollmentRepository) GetActiveForUpdate(tx *gorm.DB, id, touristID string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.conn(tx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND tourist_id = ? AND status = ?",
			id, touristID, model.EnrollmentInProgress).First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) ListByTourist(touristID string) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.db.Where("tourist_id = ?", touristID).
		Order("started_at DESC").Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepository) UpdateProgress(tx *gorm.DB, id string, percent float64) error {
	return r.conn(tx).Model(&model.Enrollment{}).
		Where("id = ? AND status = ?", id, model.EnrollmentInProgress).
		Update("progress_percentage", percent).Error
}

// Complete 终态转换：in_progress -> completed，条件更新保证只发生一次
func (r *enrollmentRepository) Complete(tx *gorm.DB, id string, completedAt time.Time) error {
	result := r.conn(tx).Model(&model.Enrollment{}).
		Where("id = ? AND status = ?", id, model.EnrollmentInProgress).
		Updates(map[string]interface{}{
			"status":              model.EnrollmentCompleted,
			"completed_at":        completedAt,
			"progress_percentage": 100,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEnrollmentClosed
	}
	return nil
}

func (r *enrollmentRepository) MarkRewardClaimed(tx *gorm.DB, id, claimID string) error {
	return r.conn(tx).Model(&model.Enrollment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"reward_claimed":  true,
			"reward_claim_id": claimID,
		}).Error
}

// Delete 软删除归档（申领完成后调用，申领记录独立保存）
func (r *enrollmentRepository) Delete(tx *gorm.DB, id string) error {
	return r.conn(tx).Where("id = ?", id).Delete(&model.Enrollment{}).Error
}

// Abandon 游客主动放弃，单向转换
func (r *enrollmentRepository) Abandon(id, touristID string) error {
	result := r.db.Model(&model.Enrollment{}).
		Where("id = ? AND tourist_id = ? AND status = ?", id, touristID, model.EnrollmentInProgress).
		Update("status", model.EnrollmentAbandoned)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEnrollmentClosed
	}
	return nil
}

// isUniqueViolation 判断是否为唯一键冲突 (Postgres 23505)
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "23505") ||
		strings.Contains(err.Error(), "duplicate key")
}
