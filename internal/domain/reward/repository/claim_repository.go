package repository

import (
	"errors"
	"strings"
	"tour_verify/internal/domain/reward/model"

	"gorm.io/gorm"
)

// ErrAlreadyClaimed 同一报名重复申领
var ErrAlreadyClaimed = errors.New("reward already claimed for this enrollment")

type ClaimRepository interface {
	// Create 落库申领记录，enrollment_id 唯一键冲突翻译为 ErrAlreadyClaimed
	Create(tx *gorm.DB, claim *model.RewardClaim) error
	GetByEnrollment(enrollmentID string) (*model.RewardClaim, error)
	ListByTourist(touristID string) ([]model.RewardClaim, error)
}

type claimRepository struct {
	db *gorm.DB
}

func NewClaimRepository(db *gorm.DB) ClaimRepository {
	return &claimRepository{db: db}
}

func (r *claimRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *claimRepository) Create(tx *gorm.DB, claim *model.RewardClaim) error {
	err := r.conn(tx).Create(claim).Error
	if err != nil && isUniqueViolation(err) {
		return ErrAlreadyClaimed
	}
	return err
}

func (r *claimRepository) GetByEnrollment(enrollmentID string) (*model.RewardClaim, error) {
	var claim model.RewardClaim
	if err := r.db.Where("enrollment_id = ?", enrollmentID).First(&claim).Error; err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *claimRepository) ListByTourist(touristID string) ([]model.RewardClaim, error) {
	var claims []model.RewardClaim
	err := r.db.Where("tourist_id = ?", touristID).
		Order("created_at DESC").Find(&claims).Error
	return claims, err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "23505") ||
		strings.Contains(err.Error(), "duplicate key")
}
