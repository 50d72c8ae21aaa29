package repository

import (
	"errors"
	"tour_verify/internal/domain/attraction/model"

	"gorm.io/gorm"
)

type AttractionRepository interface {
	Create(attraction *model.Attraction) error
	GetByID(id string) (*model.Attraction, error)
	GetNames(ids []string) (map[string]string, error)
	Exists(id string) (bool, error)
	GetList(offset, limit int) ([]model.Attraction, int64, error)

	// 归属关系（唯一权威模型，见 attraction_operators 表）
	AddOperator(operatorID, attractionID string) error
	OwnedAttractionIDs(operatorID string) ([]string, error)
	IsOwnedBy(operatorID, attractionID string) (bool, error)
}

type attractionRepository struct {
	db *gorm.DB
}

func NewAttractionRepository(db *gorm.DB) AttractionRepository {
	return &attractionRepository{db: db}
}

func (r *attractionRepository) Create(attraction *model.Attraction) error {
	return r.db.Create(attraction).Error
}

func (r *attractionRepository) GetByID(id string) (*model.Attraction, error) {
	var attraction model.Attraction
	if err := r.db.Where("id = ?", id).First(&attraction).Error; err != nil {
		return nil, err
	}
	return &attraction, nil
}

// GetNames 批量查询景区名称，返回 id -> name
func (r *attractionRepository) GetNames(ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	var rows []model.Attraction
	if err := r.db.Select("id", "name").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	names := make(map[string]string, len(rows))
	for _, a := range rows {
		names[a.ID] = a.Name
	}
	return names, nil
}

func (r *attractionRepository) Exists(id string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Attraction{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *attractionRepository) GetList(offset, limit int) ([]model.Attraction, int64, error) {
	var attractions []model.Attraction
	var total int64

	if err := r.db.Model(&model.Attraction{}).Where("status = ?", model.StatusActive).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.Where("status = ?", model.StatusActive).
		Order("name").Offset(offset).Limit(limit).Find(&attractions).Error; err != nil {
		return nil, 0, err
	}
	return attractions, total, nil
}

func (r *attractionRepository) AddOperator(operatorID, attractionID string) error {
	return r.db.Create(&model.AttractionOperator{
		OperatorID:   operatorID,
		AttractionID: attractionID,
	}).Error
}

// OwnedAttractionIDs 查询运营者管理的所有景区ID
func (r *attractionRepository) OwnedAttractionIDs(operatorID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&model.AttractionOperator{}).
		Where("operator_id = ?", operatorID).
		Pluck("attraction_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *attractionRepository) IsOwnedBy(operatorID, attractionID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.AttractionOperator{}).
		Where("operator_id = ? AND attraction_id = ?", operatorID, attractionID).
		Count(&count).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	return count > 0, nil
}
