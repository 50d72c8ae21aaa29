package repository

import (
	"errors"
	"tour_verify/internal/domain/course/model"

	"gorm.io/gorm"
)

// ErrCourseInUse 课程已有报名记录，成员集合不可再修改
var ErrCourseInUse = errors.New("course has enrollments, attraction set is frozen")

type CourseRepository interface {
	Create(course *model.Course, attractionIDs []string) error
	GetByID(id string) (*model.Course, error)
	GetList(offset, limit int) ([]model.Course, int64, error)
	AttractionSet(courseID string) ([]string, error)
	ReplaceAttractionSet(courseID string, attractionIDs []string) error
}

type courseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

// Create 创建课程及其景区集合（同一事务）
func (r *courseRepository) Create(course *model.Course, attractionIDs []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(course).Error; err != nil {
			return err
		}
		for _, aid := range attractionIDs {
			if err := tx.Create(&model.CourseAttraction{
				CourseID:     course.ID,
				AttractionID: aid,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *courseRepository) GetByID(id string) (*model.Course, error) {
	var course model.Course
	if err := r.db.Where("id = ?", id).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) GetList(offset, limit int) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64

	if err := r.db.Model(&model.Course{}).Where("is_active = ?", true).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.Where("is_active = ?", true).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&courses).Error; err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

// AttractionSet 课程的景区ID集合
func (r *courseRepository) AttractionSet(courseID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&model.CourseAttraction{}).
		Where("course_id = ?", courseID).
		Pluck("attraction_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ReplaceAttractionSet 替换课程的景区集合
// 只要存在任何报名记录（含历史）就拒绝，保证在途报名引用的集合不被改动
func (r *courseRepository) ReplaceAttractionSet(courseID string, attractionIDs []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var enrolled int64
		if err := tx.Model(&model.Enrollment{}).
			Where("course_id = ?", courseID).Count(&enrolled).Error; err != nil {
			return err
		}
		if enrolled > 0 {
			return ErrCourseInUse
		}

		if err := tx.Where("course_id = ?", courseID).
			Delete(&model.CourseAttraction{}).Error; err != nil {
			return err
		}
		for _, aid := range attractionIDs {
			if err := tx.Create(&model.CourseAttraction{
				CourseID:     courseID,
				AttractionID: aid,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
