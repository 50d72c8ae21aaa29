package repository

import (
	"errors"
	"strings"
	"time"
	"tour_verify/internal/domain/verification/model"

	"gorm.io/gorm"
)

var (
	// ErrDuplicateCode 码串唯一键冲突
	ErrDuplicateCode = errors.New("verification code already exists")
	// ErrAlreadyConsumed 一次性码已被消费（并发竞争失败也归于此）
	ErrAlreadyConsumed = errors.New("code already consumed")
	// ErrCodeExpired 码已过期
	ErrCodeExpired = errors.New("code expired")
	// ErrAlreadyVerified 同一报名同一景区重复核销
	ErrAlreadyVerified = errors.New("attraction already verified for this enrollment")
)

// VerificationRepository 验证码台账
// 所有码生命周期不变量在此收口；tx 参数为 nil 时使用默认连接
type VerificationRepository interface {
	Issue(code *model.VerificationCode) error
	Exists(code string) (bool, error)
	LookupActive(code string) (*model.VerificationCode, error)
	FindLiveReusable(attractionID string) (*model.VerificationCode, error)

	ConsumeOneTime(tx *gorm.DB, codeID, touristID, enrollmentID string) error
	RecordRedemption(tx *gorm.DB, redemption *model.Redemption) error

	CountVerified(tx *gorm.DB, enrollmentID string) (int, error)
	HasRedeemed(enrollmentID, attractionID string) (bool, error)
	HasRecentRedemption(touristID, attractionID, kind string, since time.Time) (bool, error)

	Stats(attractionIDs []string) (*CodeStats, error)
	PurgeInvalid(attractionIDs []string) (int64, error)
	PurgeAll(attractionIDs []string) (int64, error)
}

// CodeStats 发码统计
type CodeStats struct {
	Total  int64 `json:"total"`
	Used   int64 `json:"used"`
	Active int64 `json:"active"`
}

type verificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

func (r *verificationRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Issue 落库新码，码串全局唯一
func (r *verificationRepository) Issue(code *model.VerificationCode) error {
	err := r.db.Create(code).Error
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateCode
	}
	return err
}

func (r *verificationRepository) Exists(code string) (bool, error) {
	var count int64
	err := r.db.Model(&model.VerificationCode{}).
		Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

// LookupActive 查询未过期的码，过期与不存在统一返回 gorm.ErrRecordNotFound
// （对外错误文案不区分两种情况，诊断日志由调用方补充）
func (r *verificationRepository) LookupActive(code string) (*model.VerificationCode, error) {
	var record model.VerificationCode
	err := r.db.Where("code = ? AND expires_at > ?", code, time.Now()).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindLiveReusable 查询景区当前未过期的可复用码
// 发码时先查后发：已有存活码直接复用，不重复铸码
func (r *verificationRepository) FindLiveReusable(attractionID string) (*model.VerificationCode, error) {
	var record model.VerificationCode
	err := r.db.Where("attraction_id = ? AND kind = ? AND expires_at > ?",
		attractionID, model.KindReusable, time.Now()).
		Order("created_at DESC").First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ConsumeOneTime 一次性码的原子消费
// 条件更新 + 受影响行数判定，并发重复提交只有一个赢家；
// 失败时回读区分"已消费"与"已过期"
func (r *verificationRepository) ConsumeOneTime(tx *gorm.DB, codeID, touristID, enrollmentID string) error {
	now := time.Now()
	result := r.conn(tx).Model(&model.VerificationCode{}).
		Where("id = ? AND used = ? AND expires_at > ?", codeID, false, now).
		Updates(map[string]interface{}{
			"used":          true,
			"used_at":       now,
			"tourist_id":    touristID,
			"enrollment_id": enrollmentID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var record model.VerificationCode
		if err := r.conn(tx).Where("id = ?", codeID).First(&record).Error; err != nil {
			return err
		}
		if record.IsExpired(now) {
			return ErrCodeExpired
		}
		return ErrAlreadyConsumed
	}
	return nil
}

// RecordRedemption 记录核销事件
// (enrollment, attraction) 唯一索引兜底幂等，冲突翻译为 ErrAlreadyVerified
func (r *verificationRepository) RecordRedemption(tx *gorm.DB, redemption *model.Redemption) error {
	err := r.conn(tx).Create(redemption).Error
	if err != nil && isUniqueViolation(err) {
		return ErrAlreadyVerified
	}
	return err
}

// CountVerified 某次报名已核销的景区数（去重）
func (r *verificationRepository) CountVerified(tx *gorm.DB, enrollmentID string) (int, error) {
	var count int64
	err := r.conn(tx).Model(&model.Redemption{}).
		Where("enrollment_id = ?", enrollmentID).
		Distinct("attraction_id").Count(&count).Error
	return int(count), err
}

func (r *verificationRepository) HasRedeemed(enrollmentID, attractionID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Redemption{}).
		Where("enrollment_id = ? AND attraction_id = ?", enrollmentID, attractionID).
		Count(&count).Error
	return count > 0, err
}

// HasRecentRedemption 游客在窗口期内是否在该景区完成过指定类型的核销
func (r *verificationRepository) HasRecentRedemption(touristID, attractionID, kind string, since time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&model.Redemption{}).
		Where("tourist_id = ? AND attraction_id = ? AND kind = ? AND redeemed_at > ?",
			touristID, attractionID, kind, since).
		Count(&count).Error
	return count > 0, err
}

// Stats 指定景区集合的发码统计
func (r *verificationRepository) Stats(attractionIDs []string) (*CodeStats, error) {
	stats := &CodeStats{}
	if len(attractionIDs) == 0 {
		return stats, nil
	}

	base := r.db.Model(&model.VerificationCode{}).Where("attraction_id IN ?", attractionIDs)
	if err := base.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("used = ?", true).Count(&stats.Used).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("used = ? AND expires_at > ?", false, time.Now()).
		Count(&stats.Active).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

// PurgeInvalid 删除已消费或已过期的码
func (r *verificationRepository) PurgeInvalid(attractionIDs []string) (int64, error) {
	if len(attractionIDs) == 0 {
		return 0, nil
	}
	result := r.db.Unscoped().
		Where("attraction_id IN ? AND (used = ? OR expires_at < ?)", attractionIDs, true, time.Now()).
		Delete(&model.VerificationCode{})
	return result.RowsAffected, result.Error
}

// PurgeAll 删除全部码（仅限调用方拥有的景区，归属校验在服务层完成）
func (r *verificationRepository) PurgeAll(attractionIDs []string) (int64, error) {
	if len(attractionIDs) == 0 {
		return 0, nil
	}
	result := r.db.Unscoped().
		Where("attraction_id IN ?", attractionIDs).
		Delete(&model.VerificationCode{})
	return result.RowsAffected, result.Error
}

// isUniqueViolation 判断是否为唯一键冲突 (Postgres 23505)
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "23505") ||
		strings.Contains(err.Error(), "duplicate key")
}
