package model

import (
	"time"
	baseModel "tour_verify/pkg/model"
)

// Redemption 核销事件：一次成功核销一条记录
// 可复用码被多名游客使用时共享同一码串，各自留下独立事件；
// 冷却窗口与进度统计都基于本表查询。
// (enrollment_id, attraction_id) 唯一索引兜底"同一报名同一景区只核销一次"
type Redemption struct {
	baseModel.BaseModel
	CodeID       string    `gorm:"type:uuid;not null;index" json:"codeId"`
	Code         string    `gorm:"type:varchar(32);not null" json:"code"`
	AttractionID string    `gorm:"type:uuid;not null;index:idx_tourist_attraction;uniqueIndex:idx_enrollment_attraction" json:"attractionId"`
	Kind         string    `gorm:"type:varchar(10);not null" json:"kind"`
	TouristID    string    `gorm:"type:uuid;not null;index:idx_tourist_attraction,priority:1" json:"touristId"`
	EnrollmentID string    `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_attraction" json:"enrollmentId"`
	RedeemedAt   time.Time `gorm:"not null" json:"redeemedAt"`
}

func (Redemption) TableName() string {
	return "code_redemptions"
}
