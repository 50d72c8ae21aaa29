package service

import (
	"time"

	attractionModel "tour_verify/internal/domain/attraction/model"
	courseModel "tour_verify/internal/domain/course/model"
	"tour_verify/internal/domain/verification/model"
	"tour_verify/internal/domain/verification/repository"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// 常用参数匹配器
var (
	anyTx         = mock.AnythingOfType("*gorm.DB")
	anyTime       = mock.AnythingOfType("time.Time")
	anyRedemption = mock.AnythingOfType("*model.Redemption")
)

// MockVerificationRepository is a mock of VerificationRepository
type MockVerificationRepository struct {
	mock.Mock
}

func (m *MockVerificationRepository) Issue(code *model.VerificationCode) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockVerificationRepository) Exists(code string) (bool, error) {
	args := m.Called(code)
	return args.Bool(0), args.Error(1)
}

func (m *MockVerificationRepository) LookupActive(code string) (*model.VerificationCode, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VerificationCode), args.Error(1)
}

func (m *MockVerificationRepository) FindLiveReusable(attractionID string) (*model.VerificationCode, error) {
	args := m.Called(attractionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VerificationCode), args.Error(1)
}

func (m *MockVerificationRepository) ConsumeOneTime(tx *gorm.DB, codeID, touristID, enrollmentID string) error {
	args := m.Called(tx, codeID, touristID, enrollmentID)
	return args.Error(0)
}

func (m *MockVerificationRepository) RecordRedemption(tx *gorm.DB, redemption *model.Redemption) error {
	args := m.Called(tx, redemption)
	return args.Error(0)
}

func (m *MockVerificationRepository) CountVerified(tx *gorm.DB, enrollmentID string) (int, error) {
	args := m.Called(tx, enrollmentID)
	return args.Int(0), args.Error(1)
}

func (m *MockVerificationRepository) HasRedeemed(enrollmentID, attractionID string) (bool, error) {
	args := m.Called(enrollmentID, attractionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockVerificationRepository) HasRecentRedemption(touristID, attractionID, kind string, since time.Time) (bool, error) {
	args := m.Called(touristID, attractionID, kind, since)
	return args.Bool(0), args.Error(1)
}

func (m *MockVerificationRepository) Stats(attractionIDs []string) (*repository.CodeStats, error) {
	args := m.Called(attractionIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.CodeStats), args.Error(1)
}

func (m *MockVerificationRepository) PurgeInvalid(attractionIDs []string) (int64, error) {
	args := m.Called(attractionIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockVerificationRepository) PurgeAll(attractionIDs []string) (int64, error) {
	args := m.Called(attractionIDs)
	return args.Get(0).(int64), args.Error(1)
}

// MockEnrollmentRepository is a mock of course EnrollmentRepository
type MockEnrollmentRepository struct {
	mock.Mock
}

func (m *MockEnrollmentRepository) Create(enrollment *courseModel.Enrollment) error {
	args := m.Called(enrollment)
	return args.Error(0)
}

func (m *MockEnrollmentRepository) GetByID(id string) (*courseModel.Enrollment, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*courseModel.Enrollment), args.Error(1)
}

func (m *MockEnrollmentRepository) GetActive(id, touristID string) (*courseModel.Enrollment, error) {
	args := m.Called(id, touristID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*courseModel.Enrollment), args.Error(1)
}

func (m *MockEnrollmentRepository) GetActiveForUpdate(tx *gorm.DB, id, touristID string) (*courseModel.Enrollment, error) {
	args := m.Called(tx, id, touristID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*courseModel.Enrollment), args.Error(1)
}

func (m *MockEnrollmentRepository) ListByTourist(touristID string) ([]courseModel.Enrollment, error) {
	args := m.Called(touristID)
	return args.Get(0).([]courseModel.Enrollment), args.Error(1)
}

func (m *MockEnrollmentRepository) UpdateProgress(tx *gorm.DB, id string, percent float64) error {
	args := m.Called(tx, id, percent)
	return args.Error(0)
}

func (m *MockEnrollmentRepository) Complete(tx *gorm.DB, id string, completedAt time.Time) error {
	args := m.Called(tx, id, completedAt)
	return args.Error(0)
}

func (m *MockEnrollmentRepository) MarkRewardClaimed(tx *gorm.DB, id, claimID string) error {
	args := m.Called(tx, id, claimID)
	return args.Error(0)
}

func (m *MockEnrollmentRepository) Delete(tx *gorm.DB, id string) error {
	args := m.Called(tx, id)
	return args.Error(0)
}

func (m *MockEnrollmentRepository) Abandon(id, touristID string) error {
	args := m.Called(id, touristID)
	return args.Error(0)
}

// MockCourseRepository is a mock of CourseRepository
type MockCourseRepository struct {
	mock.Mock
}

func (m *MockCourseRepository) Create(course *courseModel.Course, attractionIDs []string) error {
	args := m.Called(course, attractionIDs)
	return args.Error(0)
}

func (m *MockCourseRepository) GetByID(id string) (*courseModel.Course, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*courseModel.Course), args.Error(1)
}

func (m *MockCourseRepository) GetList(offset, limit int) ([]courseModel.Course, int64, error) {
	args := m.Called(offset, limit)
	return args.Get(0).([]courseModel.Course), args.Get(1).(int64), args.Error(2)
}

func (m *MockCourseRepository) AttractionSet(courseID string) ([]string, error) {
	args := m.Called(courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCourseRepository) ReplaceAttractionSet(courseID string, attractionIDs []string) error {
	args := m.Called(courseID, attractionIDs)
	return args.Error(0)
}

// MockAttractionService is a mock of AttractionService
type MockAttractionService struct {
	mock.Mock
}

func (m *MockAttractionService) Register(operatorID, name, description, address string) (*attractionModel.Attraction, error) {
	args := m.Called(operatorID, name, description, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*attractionModel.Attraction), args.Error(1)
}

func (m *MockAttractionService) Get(id string) (*attractionModel.Attraction, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*attractionModel.Attraction), args.Error(1)
}

func (m *MockAttractionService) List(offset, limit int) ([]attractionModel.Attraction, int64, error) {
	args := m.Called(offset, limit)
	return args.Get(0).([]attractionModel.Attraction), args.Get(1).(int64), args.Error(2)
}

func (m *MockAttractionService) MyAttractions(operatorID string) ([]attractionModel.Attraction, error) {
	args := m.Called(operatorID)
	return args.Get(0).([]attractionModel.Attraction), args.Error(1)
}

func (m *MockAttractionService) RequireOwnership(operatorID, attractionID string) error {
	args := m.Called(operatorID, attractionID)
	return args.Error(0)
}

func (m *MockAttractionService) OwnedIDs(operatorID string) ([]string, error) {
	args := m.Called(operatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
