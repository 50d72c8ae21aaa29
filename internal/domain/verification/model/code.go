package model

import (
	"time"
	baseModel "tour_verify/pkg/model"
)

// 验证码类型
const (
	KindReusable = "qr"   // 可复用码：贴在景区现场，多名游客扫码使用
	KindOneTime  = "text" // 一次性文字码：逐份发给游客，消费即失效
)

// 有效期（固定策略，不按次配置）
const (
	OneTimeTTL  = 12 * time.Hour
	ReusableTTL = 720 * time.Hour // 30天
)

// VerificationCode 景区验证码
// 码串全局唯一；绑定的景区与类型一经发放不再变更
type VerificationCode struct {
	baseModel.BaseModel
	Code         string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"`
	AttractionID string     `gorm:"type:uuid;not null;index" json:"attractionId"`
	Kind         string     `gorm:"type:varchar(10);not null" json:"kind"`
	ExpiresAt    time.Time  `gorm:"not null;index" json:"expiresAt"`
	Used         bool       `gorm:"not null;default:false" json:"used"` // 仅一次性码置位
	UsedAt       *time.Time `json:"usedAt,omitempty"`
	TouristID    *string    `gorm:"type:uuid" json:"touristId,omitempty"`
	EnrollmentID *string    `gorm:"type:uuid" json:"enrollmentId,omitempty"`
	IssuedBy     string     `gorm:"type:uuid;not null" json:"issuedBy"`
}

func (VerificationCode) TableName() string {
	return "verification_codes"
}

// IsExpired 是否已过期
func (c *VerificationCode) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
