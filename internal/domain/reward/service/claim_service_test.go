package service

import (
	"testing"
	"time"

	attractionModel "tour_verify/internal/domain/attraction/model"
	courseModel "tour_verify/internal/domain/course/model"
	"tour_verify/internal/domain/reward/model"
	"tour_verify/internal/domain/reward/repository"
	baseModel "tour_verify/pkg/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// MockClaimRepository is a mock of ClaimRepository
type MockClaimRepository struct {
	mock.Mock
}

func (m *MockClaimRepository) Create(tx *gorm.DB, claim *model.RewardClaim) error {
	args := m.Called(tx, claim)
	return args.Error(0)
}

func (m *MockClaimRepository) GetByEnrollment(enrollmentID string) (*model.RewardClaim, error) {
	args := m.Called(enrollmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RewardClaim), args.Error(1)
}

func (m *MockClaimRepository) ListByTourist(touristID string) ([]model.RewardClaim, error) {
	args := m.Called(touristID)
	return args.Get(0).([]model.RewardClaim), args.Error(1)
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

// MockAttractionRepository is a mock of AttractionRepository
type MockAttractionRepository struct {
	mock.Mock
}

func (m *MockAttractionRepository) Create(attraction *attractionModel.Attraction) error {
	args := m.Called(attraction)
	return args.Error(0)
}

func (m *MockAttractionRepository) GetByID(id string) (*attractionModel.Attraction, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*attractionModel.Attraction), args.Error(1)
}

func (m *MockAttractionRepository) GetNames(ids []string) (map[string]string, error) {
	args := m.Called(ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockAttractionRepository) Exists(id string) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttractionRepository) GetList(offset, limit int) ([]attractionModel.Attraction, int64, error) {
	args := m.Called(offset, limit)
	return args.Get(0).([]attractionModel.Attraction), args.Get(1).(int64), args.Error(2)
}

func (m *MockAttractionRepository) AddOperator(operatorID, attractionID string) error {
	args := m.Called(operatorID, attractionID)
	return args.Error(0)
}

func (m *MockAttractionRepository) OwnedAttractionIDs(operatorID string) ([]string, error) {
	args := m.Called(operatorID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAttractionRepository) IsOwnedBy(operatorID, attractionID string) (bool, error) {
	args := m.Called(operatorID, attractionID)
	return args.Bool(0), args.Error(1)
}

type claimFixture struct {
	claims      *MockClaimRepository
	enrollments *MockEnrollmentRepository
	courses     *MockCourseRepository
	attractions *MockAttractionRepository
	service     ClaimService
}

func newClaimFixture(db *gorm.DB) *claimFixture {
	f := &claimFixture{
		claims:      new(MockClaimRepository),
		enrollments: new(MockEnrollmentRepository),
		courses:     new(MockCourseRepository),
		attractions: new(MockAttractionRepository),
	}
	f.service = NewClaimService(db, f.claims, f.enrollments, f.courses, f.attractions, nil)
	return f
}

func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return db, dbMock
}

func completedEnrollment(id, touristID, courseID string) *courseModel.Enrollment {
	done := time.Now().Add(-time.Hour)
	return &courseModel.Enrollment{
		BaseModel:          baseModel.BaseModel{ID: id},
		TouristID:          touristID,
		CourseID:           courseID,
		Status:             courseModel.EnrollmentCompleted,
		StartedAt:          time.Now().Add(-48 * time.Hour),
		CompletedAt:        &done,
		ProgressPercentage: 100,
	}
}

func TestPayout(t *testing.T) {
	t.Run("Cash pays face value", func(t *testing.T) {
		rate, amount := Payout(10000, model.InstrumentCash)
		assert.Equal(t, 0.0, rate)
		assert.Equal(t, int64(10000), amount)
	})

	t.Run("Local currency adds ten percent", func(t *testing.T) {
		rate, amount := Payout(10000, model.InstrumentLocalCurrency)
		assert.Equal(t, 10.0, rate)
		assert.Equal(t, int64(11000), amount)
	})

	t.Run("Bonus rounds to nearest unit", func(t *testing.T) {
		_, amount := Payout(55, model.InstrumentLocalCurrency)
		assert.Equal(t, int64(61), amount) // 55 * 1.1 = 60.5
	})
}

func TestClaim(t *testing.T) {
	t.Run("Enrollment of another tourist is invisible", func(t *testing.T) {
		f := newClaimFixture(nil)
		f.enrollments.On("GetByID", "enr-1").
			Return(completedEnrollment("enr-1", "tourist-2", "course-1"), nil)

		_, err := f.service.Claim("tourist-1", "enr-1", model.InstrumentCash)

		assert.ErrorIs(t, err, ErrEnrollmentNotFound)
	})

	t.Run("Unfinished course rejected", func(t *testing.T) {
		f := newClaimFixture(nil)
		enrollment := completedEnrollment("enr-1", "tourist-1", "course-1")
		enrollment.Status = courseModel.EnrollmentInProgress
		f.enrollments.On("GetByID", "enr-1").Return(enrollment, nil)

		_, err := f.service.Claim("tourist-1", "enr-1", model.InstrumentCash)

		assert.ErrorIs(t, err, ErrCourseNotCompleted)
	})

	t.Run("Already claimed fast path", func(t *testing.T) {
		f := newClaimFixture(nil)
		enrollment := completedEnrollment("enr-1", "tourist-1", "course-1")
		enrollment.RewardClaimed = true
		f.enrollments.On("GetByID", "enr-1").Return(enrollment, nil)

		_, err := f.service.Claim("tourist-1", "enr-1", model.InstrumentCash)

		assert.ErrorIs(t, err, repository.ErrAlreadyClaimed)
		f.claims.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Unsupported instrument rejected", func(t *testing.T) {
		f := newClaimFixture(nil)

		_, err := f.service.Claim("tourist-1", "enr-1", "crypto")

		assert.ErrorIs(t, err, ErrBadInstrument)
	})

	t.Run("Successful claim is auto approved and archives the enrollment", func(t *testing.T) {
		db, dbMock := newTestDB(t)
		f := newClaimFixture(db)

		f.enrollments.On("GetByID", "enr-1").
			Return(completedEnrollment("enr-1", "tourist-1", "course-1"), nil)
		f.courses.On("GetByID", "course-1").Return(&courseModel.Course{
			BaseModel:    baseModel.BaseModel{ID: "course-1"},
			Name:         "Seoul Heritage Walk",
			Description:  "Five palaces in two days",
			RewardAmount: 10000,
		}, nil)
		f.courses.On("AttractionSet", "course-1").Return([]string{"a-1", "a-2"}, nil)
		f.attractions.On("GetNames", []string{"a-1", "a-2"}).
			Return(map[string]string{"a-1": "Gyeongbokgung", "a-2": "Bukchon"}, nil)

		dbMock.ExpectBegin()
		f.claims.On("Create", mock.Anything, mock.AnythingOfType("*model.RewardClaim")).Return(nil)
		f.enrollments.On("MarkRewardClaimed", mock.Anything, "enr-1", mock.AnythingOfType("string")).Return(nil)
		f.enrollments.On("Delete", mock.Anything, "enr-1").Return(nil)
		dbMock.ExpectCommit()

		claim, err := f.service.Claim("tourist-1", "enr-1", model.InstrumentLocalCurrency)

		assert.NoError(t, err)
		assert.Equal(t, model.ClaimApproved, claim.Status)
		assert.NotNil(t, claim.ApprovedAt)
		assert.Equal(t, int64(10000), claim.BaseAmount)
		assert.Equal(t, int64(11000), claim.Amount)
		assert.Equal(t, "Seoul Heritage Walk", claim.CourseName)
		assert.Equal(t, "Gyeongbokgung, Bukchon", claim.AttractionNames)
		assert.NoError(t, dbMock.ExpectationsWereMet())
		f.claims.AssertExpectations(t)
		f.enrollments.AssertExpectations(t)
	})

	t.Run("Concurrent duplicate loses on unique index", func(t *testing.T) {
		db, dbMock := newTestDB(t)
		f := newClaimFixture(db)

		f.enrollments.On("GetByID", "enr-1").
			Return(completedEnrollment("enr-1", "tourist-1", "course-1"), nil)
		f.courses.On("GetByID", "course-1").Return(&courseModel.Course{
			BaseModel:    baseModel.BaseModel{ID: "course-1"},
			Name:         "Seoul Heritage Walk",
			RewardAmount: 10000,
		}, nil)
		f.courses.On("AttractionSet", "course-1").Return([]string{"a-1"}, nil)
		f.attractions.On("GetNames", []string{"a-1"}).
			Return(map[string]string{"a-1": "Gyeongbokgung"}, nil)

		dbMock.ExpectBegin()
		f.claims.On("Create", mock.Anything, mock.AnythingOfType("*model.RewardClaim")).
			Return(repository.ErrAlreadyClaimed)
		dbMock.ExpectRollback()

		// 落败方回查胜出的申领记录留诊断
		f.claims.On("GetByEnrollment", "enr-1").Return(&model.RewardClaim{
			BaseModel:    baseModel.BaseModel{ID: "claim-9"},
			EnrollmentID: "enr-1",
			TouristID:    "tourist-1",
		}, nil)

		_, err := f.service.Claim("tourist-1", "enr-1", model.InstrumentCash)

		assert.ErrorIs(t, err, repository.ErrAlreadyClaimed)
		f.claims.AssertCalled(t, "GetByEnrollment", "enr-1")
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}
