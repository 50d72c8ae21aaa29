package model

import (
	"time"
	baseModel "tour_verify/pkg/model"
)

// 报名状态
const (
	EnrollmentInProgress = "in_progress"
	EnrollmentCompleted  = "completed"
	EnrollmentAbandoned  = "abandoned"
)

// Course 观光课程：一组固定的景区集合 + 完成奖励金额
type Course struct {
	baseModel.BaseModel
	Name         string `gorm:"type:varchar(100);not null" json:"name"`
	Description  string `gorm:"type:text" json:"description"`
	RewardAmount int64  `gorm:"not null;default:0" json:"rewardAmount"` // 完成奖励（원）
	IsActive     bool   `gorm:"not null;default:true" json:"isActive"`
}

// CourseAttraction 课程与景区的成员关系
// 课程一旦有报名记录引用，成员集合即冻结不可修改
type CourseAttraction struct {
	baseModel.BaseModel
	CourseID     string `gorm:"type:uuid;not null;uniqueIndex:idx_course_attraction" json:"courseId"`
	AttractionID string `gorm:"type:uuid;not null;uniqueIndex:idx_course_attraction" json:"attractionId"`
}

func (CourseAttraction) TableName() string {
	return "course_attractions"
}

// Enrollment 游客的课程报名（tourist_courses）
// 同一 (tourist, course) 最多一条 in_progress 记录，由部分唯一索引保证
type Enrollment struct {
	baseModel.BaseModel
	TouristID          string     `gorm:"type:uuid;not null;index" json:"touristId"`
	CourseID           string     `gorm:"type:uuid;not null;index" json:"courseId"`
	Status             string     `gorm:"type:varchar(20);not null;default:'in_progress'" json:"status"`
	StartedAt          time.Time  `gorm:"not null" json:"startedAt"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
	ProgressPercentage float64    `gorm:"type:numeric(5,2);not null;default:0" json:"progressPercentage"`
	RewardClaimed      bool       `gorm:"not null;default:false" json:"rewardClaimed"`
	RewardClaimID      *string    `gorm:"type:uuid" json:"rewardClaimId,omitempty"`
}

func (Enrollment) TableName() string {
	return "tourist_courses"
}
