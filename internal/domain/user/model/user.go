package model

import (
	baseModel "tour_verify/pkg/model"
)

// 用户角色
const (
	RoleTourist  = 1 // 游客
	RoleOperator = 2 // 景区运营者
	RoleAdmin    = 3 // 管理员
)

// 账号状态
const (
	StatusPending  = 0 // 待审核（景区运营者注册后需管理员审核）
	StatusApproved = 1 // 已审核
	StatusDisabled = 2 // 已禁用
)

// User 用户模型
type User struct {
	baseModel.BaseModel
	Mobile     string `gorm:"type:varchar(20);uniqueIndex;not null" json:"mobile"`
	Nickname   string `gorm:"type:varchar(50)" json:"nickname"`
	NationalID string `gorm:"type:varchar(30)" json:"-"` // 仅展示用资料字段，不做实名校验
	Role       int    `gorm:"not null;default:1" json:"role"`
	Status     int    `gorm:"not null;default:1" json:"status"`
}

// IsApproved 账号是否已通过审核
func (u *User) IsApproved() bool {
	return u.Status == StatusApproved
}
