package service

import (
	"errors"
	"fmt"
	"time"

	attractionRepo "tour_verify/internal/domain/attraction/repository"
	"tour_verify/internal/domain/course/model"
	"tour_verify/internal/domain/course/repository"
)

var (
	ErrCourseInactive     = errors.New("course is not active")
	ErrUnknownAttraction  = errors.New("course references an unknown attraction")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
)

// CooldownChecker 判断游客在某景区是否处于重复核销冷却期
// 由验证码模块的冷却策略实现，这里只做报名时的提示，不做强制
type CooldownChecker interface {
	HasActiveCooldown(touristID, attractionID string) (bool, error)
}

// CooldownWarning 报名时的冷却提示：这些景区 30 日内已用 QR 码核销过，
// 本次课程需要改用一次性文字码
type CooldownWarning struct {
	AttractionID   string `json:"attractionId"`
	AttractionName string `json:"attractionName"`
}

// EnrollResult 报名结果
type EnrollResult struct {
	Enrollment *model.Enrollment `json:"enrollment"`
	Warnings   []CooldownWarning `json:"cooldownWarnings"`
}

// ProgressInfo 进度查询结果
type ProgressInfo struct {
	VerifiedCount int     `json:"verifiedCount"`
	TotalCount    int     `json:"totalCount"`
	Percent       float64 `json:"percent"`
	Status        string  `json:"status"`
}

type CourseService interface {
	Create(name, description string, rewardAmount int64, attractionIDs []string) (*model.Course, error)
	Get(id string) (*model.Course, error)
	List(offset, limit int) ([]model.Course, int64, error)

	Enroll(touristID, courseID string) (*EnrollResult, error)
	Abandon(enrollmentID, touristID string) error
	Progress(enrollmentID, touristID string) (*ProgressInfo, error)
	MyEnrollments(touristID string) ([]model.Enrollment, error)
}

type courseService struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	attractions attractionRepo.AttractionRepository
	cooldown    CooldownChecker
	counter     VerifiedCounter
}

func NewCourseService(
	courses repository.CourseRepository,
	enrollments repository.EnrollmentRepository,
	attractions attractionRepo.AttractionRepository,
	cooldown CooldownChecker,
	counter VerifiedCounter,
) CourseService {
	return &courseService{
		courses:     courses,
		enrollments: enrollments,
		attractions: attractions,
		cooldown:    cooldown,
		counter:     counter,
	}
}

// Create 管理员创建课程
func (s *courseService) Create(name, description string, rewardAmount int64, attractionIDs []string) (*model.Course, error) {
	if len(attractionIDs) == 0 {
		return nil, fmt.Errorf("course needs at least one attraction")
	}

	// 1. 校验景区存在
	for _, aid := range attractionIDs {
		exists, err := s.attractions.Exists(aid)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrUnknownAttraction
		}
	}

	// 2. 创建课程 + 景区集合
	course := &model.Course{
		Name:         name,
		Description:  description,
		RewardAmount: rewardAmount,
		IsActive:     true,
	}
	if err := s.courses.Create(course, attractionIDs); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *courseService) Get(id string) (*model.Course, error) {
	return s.courses.GetByID(id)
}

func (s *courseService) List(offset, limit int) ([]model.Course, int64, error) {
	return s.courses.GetList(offset, limit)
}

// Enroll 游客报名课程
// 报名成功时顺带计算冷却提示：哪些景区 30 日内已核销过 QR 码，
// 提前告知游客这些景区需要一次性文字码。提示不拦截报名，也不代替核销时的强制校验
func (s *courseService) Enroll(touristID, courseID string) (*EnrollResult, error) {
	course, err := s.courses.GetByID(courseID)
	if err != nil {
		return nil, err
	}
	if !course.IsActive {
		return nil, ErrCourseInactive
	}

	enrollment := &model.Enrollment{
		TouristID: touristID,
		CourseID:  courseID,
		Status:    model.EnrollmentInProgress,
		StartedAt: time.Now(),
	}
	if err := s.enrollments.Create(enrollment); err != nil {
		return nil, err
	}

	warnings, err := s.cooldownWarnings(touristID, courseID)
	if err != nil {
		// 提示计算失败不影响报名本身
		warnings = nil
	}

	return &EnrollResult{Enrollment: enrollment, Warnings: warnings}, nil
}

func (s *courseService) cooldownWarnings(touristID, courseID string) ([]CooldownWarning, error) {
	attractionIDs, err := s.courses.AttractionSet(courseID)
	if err != nil {
		return nil, err
	}

	var blocked []string
	for _, aid := range attractionIDs {
		active, err := s.cooldown.HasActiveCooldown(touristID, aid)
		if err != nil {
			return nil, err
		}
		if active {
			blocked = append(blocked, aid)
		}
	}
	if len(blocked) == 0 {
		return nil, nil
	}

	names, err := s.attractions.GetNames(blocked)
	if err != nil {
		return nil, err
	}

	warnings := make([]CooldownWarning, 0, len(blocked))
	for _, aid := range blocked {
		warnings = append(warnings, CooldownWarning{
			AttractionID:   aid,
			AttractionName: names[aid],
		})
	}
	return warnings, nil
}

func (s *courseService) Abandon(enrollmentID, touristID string) error {
	return s.enrollments.Abandon(enrollmentID, touristID)
}

// Progress 查询报名进度
func (s *courseService) Progress(enrollmentID, touristID string) (*ProgressInfo, error) {
	enrollment, err := s.enrollments.GetByID(enrollmentID)
	if err != nil {
		return nil, ErrEnrollmentNotFound
	}
	if enrollment.TouristID != touristID {
		return nil, ErrEnrollmentNotFound
	}

	attractionIDs, err := s.courses.AttractionSet(enrollment.CourseID)
	if err != nil {
		return nil, err
	}

	verified, err := s.counter.CountVerified(nil, enrollmentID)
	if err != nil {
		return nil, err
	}

	return &ProgressInfo{
		VerifiedCount: verified,
		TotalCount:    len(attractionIDs),
		Percent:       Percent(verified, len(attractionIDs)),
		Status:        enrollment.Status,
	}, nil
}

func (s *courseService) MyEnrollments(touristID string) ([]model.Enrollment, error) {
	return s.enrollments.ListByTourist(touristID)
}
