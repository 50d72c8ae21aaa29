package service

import (
	"errors"
	"tour_verify/internal/domain/attraction/model"
	"tour_verify/internal/domain/attraction/repository"
)

// ErrNotOwned 运营者试图操作不属于自己的景区
var ErrNotOwned = errors.New("attraction not managed by this operator")

// AttractionService 景区注册表 + 归属解析
// 归属判定在此统一完成，存储层不再各自重查权限
type AttractionService interface {
	Register(operatorID, name, description, address string) (*model.Attraction, error)
	Get(id string) (*model.Attraction, error)
	List(offset, limit int) ([]model.Attraction, int64, error)
	MyAttractions(operatorID string) ([]model.Attraction, error)

	// RequireOwnership 校验运营者对景区的管理权限
	RequireOwnership(operatorID, attractionID string) error
	// OwnedIDs 运营者管理的景区ID集合
	OwnedIDs(operatorID string) ([]string, error)
}

type attractionService struct {
	repo repository.AttractionRepository
}

func NewAttractionService(repo repository.AttractionRepository) AttractionService {
	return &attractionService{repo: repo}
}

// Register 注册景区并建立归属关系
func (s *attractionService) Register(operatorID, name, description, address string) (*model.Attraction, error) {
	attraction := &model.Attraction{
		Name:        name,
		Description: description,
		Address:     address,
		Status:      model.StatusActive,
	}

	if err := s.repo.Create(attraction); err != nil {
		return nil, err
	}
	if err := s.repo.AddOperator(operatorID, attraction.ID); err != nil {
		return nil, err
	}
	return attraction, nil
}

func (s *attractionService) Get(id string) (*model.Attraction, error) {
	return s.repo.GetByID(id)
}

func (s *attractionService) List(offset, limit int) ([]model.Attraction, int64, error) {
	return s.repo.GetList(offset, limit)
}

func (s *attractionService) MyAttractions(operatorID string) ([]model.Attraction, error) {
	ids, err := s.repo.OwnedAttractionIDs(operatorID)
	if err != nil {
		return nil, err
	}

	attractions := make([]model.Attraction, 0, len(ids))
	for _, id := range ids {
		a, err := s.repo.GetByID(id)
		if err != nil {
			continue
		}
		attractions = append(attractions, *a)
	}
	return attractions, nil
}

func (s *attractionService) RequireOwnership(operatorID, attractionID string) error {
	owned, err := s.repo.IsOwnedBy(operatorID, attractionID)
	if err != nil {
		return err
	}
	if !owned {
		return ErrNotOwned
	}
	return nil
}

func (s *attractionService) OwnedIDs(operatorID string) ([]string, error) {
	return s.repo.OwnedAttractionIDs(operatorID)
}
