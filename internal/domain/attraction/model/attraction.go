package model

import (
	baseModel "tour_verify/pkg/model"
)

// 景区状态
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Attraction 景区
type Attraction struct {
	baseModel.BaseModel
	Name        string `gorm:"type:varchar(100);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Address     string `gorm:"type:varchar(200)" json:"address"`
	Status      string `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
}

// AttractionOperator 运营者与景区的多对多归属关系
// 这是唯一的归属模型；旧系统的一对一 manager_id 字段在初始迁移中回填到本表
type AttractionOperator struct {
	baseModel.BaseModel
	OperatorID   string `gorm:"type:uuid;not null;uniqueIndex:idx_operator_attraction" json:"operatorId"`
	AttractionID string `gorm:"type:uuid;not null;uniqueIndex:idx_operator_attraction" json:"attractionId"`
}

func (AttractionOperator) TableName() string {
	return "attraction_operators"
}
