package model

import (
	"time"
	"tour_verify/pkg/model"
)

// 结算方式
const (
	InstrumentCash          = "cash"
	InstrumentLocalCurrency = "local_currency" // 地方消费券，上浮 10%
)

// 申领状态
const (
	ClaimPending  = "pending"
	ClaimApproved = "approved"
	ClaimRejected = "rejected"
	ClaimPaid     = "paid"
)

// LocalCurrencyBonusRate 地方消费券的加成比例（百分比）
const LocalCurrencyBonusRate = 10.00

// RewardClaim 奖励申领记录
// enrollment_id 唯一索引是 exactly-once 的最终裁决；
// 课程信息冗余快照，报名记录删除后申领记录仍可独立读取
type RewardClaim struct {
	model.BaseModel
	EnrollmentID string `gorm:"type:uuid;uniqueIndex;not null" json:"enrollmentId"`
	TouristID    string `gorm:"type:uuid;index;not null" json:"touristId"`
	CourseID     string `gorm:"type:uuid;not null" json:"courseId"`

	// 课程快照
	CourseName      string `gorm:"size:255;not null" json:"courseName"`
	CourseDesc      string `gorm:"type:text" json:"courseDescription"`
	AttractionNames string `gorm:"type:text" json:"attractionNames"` // 逗号分隔

	Instrument string  `gorm:"size:32;not null" json:"instrument"`
	BaseAmount int64   `gorm:"not null" json:"baseAmount"`
	BonusRate  float64 `gorm:"type:numeric(5,2);default:0" json:"bonusRate"`
	Amount     int64   `gorm:"not null" json:"amount"` // 实付 = base * (1 + rate/100)，四舍五入

	Status     string     `gorm:"size:16;not null;default:'pending'" json:"status"`
	ApprovedAt *time.Time `json:"approvedAt"`
}

func (RewardClaim) TableName() string {
	return "reward_claims"
}
