package service

import (
	"testing"
	"time"

	attractionModel "tour_verify/internal/domain/attraction/model"
	courseModel "tour_verify/internal/domain/course/model"
	courseService "tour_verify/internal/domain/course/service"
	"tour_verify/internal/domain/verification/model"
	baseModel "tour_verify/pkg/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

type engineFixture struct {
	repo        *MockVerificationRepository
	enrollments *MockEnrollmentRepository
	courses     *MockCourseRepository
	attractions *MockAttractionService
	engine      *RedemptionEngine
}

func newEngineFixture(db *gorm.DB) *engineFixture {
	f := &engineFixture{
		repo:        new(MockVerificationRepository),
		enrollments: new(MockEnrollmentRepository),
		courses:     new(MockCourseRepository),
		attractions: new(MockAttractionService),
	}
	cooldown := NewCooldownPolicy(f.repo, nil)
	tracker := courseService.NewProgressTracker(f.courses, f.enrollments, f.repo)
	f.engine = NewRedemptionEngine(db, f.repo, f.enrollments, f.courses, f.attractions, cooldown, tracker, nil)
	return f
}

func activeEnrollment(id, touristID, courseID string) *courseModel.Enrollment {
	return &courseModel.Enrollment{
		BaseModel: baseModel.BaseModel{ID: id},
		TouristID: touristID,
		CourseID:  courseID,
		Status:    courseModel.EnrollmentInProgress,
		StartedAt: time.Now().Add(-time.Hour),
	}
}

func liveCode(id, code, attractionID, kind string) *model.VerificationCode {
	return &model.VerificationCode{
		BaseModel:    baseModel.BaseModel{ID: id},
		Code:         code,
		AttractionID: attractionID,
		Kind:         kind,
		ExpiresAt:    time.Now().Add(time.Hour),
		IssuedBy:     "operator-1",
	}
}

func TestRedeem(t *testing.T) {
	t.Run("Empty code rejected before any lookup", func(t *testing.T) {
		f := newEngineFixture(nil)

		_, err := f.engine.Redeem("tourist-1", "enr-1", "   ")

		assert.ErrorIs(t, err, ErrEmptyCode)
	})

	t.Run("Closed enrollment rejected", func(t *testing.T) {
		f := newEngineFixture(nil)
		f.enrollments.On("GetActive", "enr-1", "tourist-1").Return(nil, gorm.ErrRecordNotFound)

		_, err := f.engine.Redeem("tourist-1", "enr-1", "ABC123XYZ")

		assert.ErrorIs(t, err, ErrEnrollmentClosed)
	})

	t.Run("Unknown code maps to invalid-or-expired", func(t *testing.T) {
		f := newEngineFixture(nil)
		f.enrollments.On("GetActive", "enr-1", "tourist-1").
			Return(activeEnrollment("enr-1", "tourist-1", "course-1"), nil)
		f.repo.On("LookupActive", "ABC123XYZ").Return(nil, gorm.ErrRecordNotFound)
		f.repo.On("Exists", "ABC123XYZ").Return(false, nil)

		_, err := f.engine.Redeem("tourist-1", "enr-1", "ABC123XYZ")

		assert.ErrorIs(t, err, ErrInvalidOrExpired)
	})

	t.Run("Code is normalized before lookup", func(t *testing.T) {
		f := newEngineFixture(nil)
		f.enrollments.On("GetActive", "enr-1", "tourist-1").
			Return(activeEnrollment("enr-1", "tourist-1", "course-1"), nil)
		f.repo.On("LookupActive", "ABC123XYZ").Return(nil, gorm.ErrRecordNotFound)
		f.repo.On("Exists", "ABC123XYZ").Return(false, nil)

		_, err := f.engine.Redeem("tourist-1", "enr-1", "  abc123xyz  ")

		assert.ErrorIs(t, err, ErrInvalidOrExpired)
		f.repo.AssertCalled(t, "LookupActive", "ABC123XYZ")
	})

	t.Run("Attraction outside course rejected", func(t *testing.T) {
		f := newEngineFixture(nil)
		f.enrollments.On("GetActive", "enr-1", "tourist-1").
			Return(activeEnrollment("enr-1", "tourist-1", "course-1"), nil)
		f.repo.On("LookupActive", "ABC123XYZ").
			Return(liveCode("code-1", "ABC123XYZ", "attraction-9", model.KindOneTime), nil)
		f.courses.On("AttractionSet", "course-1").Return([]string{"attraction-1", "attraction-2"}, nil)

		_, err := f.engine.Redeem("tourist-1", "enr-1", "ABC123XYZ")

		assert.ErrorIs(t, err, ErrNotInCourse)
	})

	t.Run("Repeat verification of same attraction rejected", func(t *testing.T) {
		f := newEngineFixture(nil)
		f.enrollments.On("GetActive", "enr-1", "tourist-1").
			Return(activeEnrollment("enr-1", "tourist-1", "course-1"), nil)
		f.repo.On("LookupActive", "ABC123XYZ").
			Return(liveCode("code-1", "ABC123XYZ", "attraction-1", model.KindOneTime), nil)
		f.courses.On("AttractionSet", "course-1").Return([]string{"attraction-1", "attraction-2"}, nil)
		f.repo.On("HasRedeemed", "enr-1", "attraction-1").Return(true, nil)

		_, err := f.engine.Redeem("tourist-1", "enr-1", "ABC123XYZ")

		assert.ErrorIs(t, err, ErrAlreadyVerified)
	})

	t.Run("Reusable code inside cooldown window rejected", func(t *testing.T) {
		f := newEngineFixture(nil)
		f.enrollments.On("GetActive", "enr-1", "tourist-1").
			Return(activeEnrollment("enr-1", "tourist-1", "course-1"), nil)
		f.repo.On("LookupActive", "QR-ABCDEF1234").
			Return(liveCode("code-1", "QR-ABCDEF1234", "attraction-1", model.KindReusable), nil)
		f.courses.On("AttractionSet", "course-1").Return([]string{"attraction-1"}, nil)
		f.repo.On("HasRedeemed", "enr-1", "attraction-1").Return(false, nil)
		f.repo.On("HasRecentRedemption", "tourist-1", "attraction-1", model.KindReusable, anyTime).
			Return(true, nil)

		_, err := f.engine.Redeem("tourist-1", "enr-1", "QR-ABCDEF1234")

		assert.ErrorIs(t, err, ErrCooldownActive)
	})

	t.Run("One-time redemption advances progress", func(t *testing.T) {
		db, dbMock := newTestDB(t)
		f := newEngineFixture(db)

		f.enrollments.On("GetActive", "enr-1", "tourist-1").
			Return(activeEnrollment("enr-1", "tourist-1", "course-1"), nil)
		f.repo.On("LookupActive", "ABC123XYZ").
			Return(liveCode("code-1", "ABC123XYZ", "attraction-1", model.KindOneTime), nil)
		f.courses.On("AttractionSet", "course-1").Return([]string{"attraction-1", "attraction-2"}, nil)
		f.repo.On("HasRedeemed", "enr-1", "attraction-1").Return(false, nil)

		dbMock.ExpectBegin()
		f.enrollments.On("GetActiveForUpdate", anyTx, "enr-1", "tourist-1").
			Return(activeEnrollment("enr-1", "tourist-1", "course-1"), nil)
		f.repo.On("ConsumeOneTime", anyTx, "code-1", "tourist-1", "enr-1").Return(nil)
		f.repo.On("RecordRedemption", anyTx, anyRedemption).Return(nil)
		f.repo.On("CountVerified", anyTx, "enr-1").Return(1, nil)
		f.enrollments.On("UpdateProgress", anyTx, "enr-1", 50.0).Return(nil)
		dbMock.ExpectCommit()

		f.attractions.On("Get", "attraction-1").
			Return(&attractionModel.Attraction{Name: "Gyeongbokgung"}, nil)

		result, err := f.engine.Redeem("tourist-1", "enr-1", "ABC123XYZ")

		assert.NoError(t, err)
		assert.Equal(t, "attraction-1", result.AttractionID)
		assert.Equal(t, "Gyeongbokgung", result.AttractionName)
		assert.Equal(t, 50.0, result.Progress.Percent)
		assert.False(t, result.Progress.Completed)
		assert.NoError(t, dbMock.ExpectationsWereMet())
		f.repo.AssertExpectations(t)
	})

	t.Run("Last attraction completes the course", func(t *testing.T) {
		db, dbMock := newTestDB(t)
		f := newEngineFixture(db)

		f.enrollments.On("GetActive", "enr-1", "tourist-1").
			Return(activeEnrollment("enr-1", "tourist-1", "course-1"), nil)
		f.repo.On("LookupActive", "QR-ABCDEF1234").
			Return(liveCode("code-1", "QR-ABCDEF1234", "attraction-2", model.KindReusable), nil)
		f.courses.On("AttractionSet", "course-1").Return([]string{"attraction-1", "attraction-2"}, nil)
		f.repo.On("HasRedeemed", "enr-1", "attraction-2").Return(false, nil)
		f.repo.On("HasRecentRedemption", "tourist-1", "attraction-2", model.KindReusable, anyTime).
			Return(false, nil)

		dbMock.ExpectBegin()
		f.enrollments.On("GetActiveForUpdate", anyTx, "enr-1", "tourist-1").
			Return(activeEnrollment("enr-1", "tourist-1", "course-1"), nil)
		f.repo.On("RecordRedemption", anyTx, anyRedemption).Return(nil)
		f.repo.On("CountVerified", anyTx, "enr-1").Return(2, nil)
		f.enrollments.On("Complete", anyTx, "enr-1", anyTime).Return(nil)
		dbMock.ExpectCommit()

		f.attractions.On("Get", "attraction-2").
			Return(&attractionModel.Attraction{Name: "Bukchon"}, nil)

		result, err := f.engine.Redeem("tourist-1", "enr-1", "qr-abcdef1234")

		assert.NoError(t, err)
		assert.True(t, result.Progress.Completed)
		assert.Equal(t, 100.0, result.Progress.Percent)
		// 可复用码不应走消费路径
		f.repo.AssertNotCalled(t, "ConsumeOneTime", anyTx, "code-1", "tourist-1", "enr-1")
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("Enrollment row is locked before progress is counted", func(t *testing.T) {
		db, dbMock := newTestDB(t)
		f := newEngineFixture(db)

		f.enrollments.On("GetActive", "enr-1", "tourist-1").
			Return(activeEnrollment("enr-1", "tourist-1", "course-1"), nil)
		f.repo.On("LookupActive", "ABC123XYZ").
			Return(liveCode("code-1", "ABC123XYZ", "attraction-1", model.KindOneTime), nil)
		f.courses.On("AttractionSet", "course-1").Return([]string{"attraction-1", "attraction-2"}, nil)
		f.repo.On("HasRedeemed", "enr-1", "attraction-1").Return(false, nil)

		// 锁必须先于落核销记录和计数，否则并发核销会用旧计数写进度
		var calls []string
		record := func(name string) func(mock.Arguments) {
			return func(mock.Arguments) { calls = append(calls, name) }
		}

		dbMock.ExpectBegin()
		f.enrollments.On("GetActiveForUpdate", anyTx, "enr-1", "tourist-1").
			Run(record("lock")).
			Return(activeEnrollment("enr-1", "tourist-1", "course-1"), nil)
		f.repo.On("ConsumeOneTime", anyTx, "code-1", "tourist-1", "enr-1").Return(nil)
		f.repo.On("RecordRedemption", anyTx, anyRedemption).
			Run(record("record")).Return(nil)
		f.repo.On("CountVerified", anyTx, "enr-1").
			Run(record("count")).Return(1, nil)
		f.enrollments.On("UpdateProgress", anyTx, "enr-1", 50.0).Return(nil)
		dbMock.ExpectCommit()

		f.attractions.On("Get", "attraction-1").
			Return(&attractionModel.Attraction{Name: "Gyeongbokgung"}, nil)

		_, err := f.engine.Redeem("tourist-1", "enr-1", "ABC123XYZ")

		assert.NoError(t, err)
		assert.Equal(t, []string{"lock", "record", "count"}, calls)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("Enrollment closed between check and lock rolls back", func(t *testing.T) {
		db, dbMock := newTestDB(t)
		f := newEngineFixture(db)

		f.enrollments.On("GetActive", "enr-1", "tourist-1").
			Return(activeEnrollment("enr-1", "tourist-1", "course-1"), nil)
		f.repo.On("LookupActive", "ABC123XYZ").
			Return(liveCode("code-1", "ABC123XYZ", "attraction-1", model.KindOneTime), nil)
		f.courses.On("AttractionSet", "course-1").Return([]string{"attraction-1", "attraction-2"}, nil)
		f.repo.On("HasRedeemed", "enr-1", "attraction-1").Return(false, nil)

		dbMock.ExpectBegin()
		f.enrollments.On("GetActiveForUpdate", anyTx, "enr-1", "tourist-1").
			Return(nil, gorm.ErrRecordNotFound)
		dbMock.ExpectRollback()

		_, err := f.engine.Redeem("tourist-1", "enr-1", "ABC123XYZ")

		assert.ErrorIs(t, err, ErrEnrollmentClosed)
		f.repo.AssertNotCalled(t, "ConsumeOneTime", anyTx, "code-1", "tourist-1", "enr-1")
		f.repo.AssertNotCalled(t, "RecordRedemption", anyTx, anyRedemption)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}
