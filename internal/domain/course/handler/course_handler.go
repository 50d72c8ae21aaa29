package handler

import (
	"errors"
	"net/http"
	"strconv"
	"tour_verify/internal/domain/course/repository"
	"tour_verify/internal/domain/course/service"
	"tour_verify/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CourseHandler struct {
	service service.CourseService
}

func NewCourseHandler(service service.CourseService) *CourseHandler {
	return &CourseHandler{service: service}
}

type CreateCourseInput struct {
	Name          string   `json:"name" binding:"required"`
	Description   string   `json:"description"`
	RewardAmount  int64    `json:"rewardAmount" binding:"required,min=0"`
	AttractionIDs []string `json:"attractionIds" binding:"required,min=1"`
}

// Create 管理员创建课程
func (h *CourseHandler) Create(c *gin.Context) {
	var input CreateCourseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	course, err := h.service.Create(input.Name, input.Description, input.RewardAmount, input.AttractionIDs)
	if err != nil {
		if errors.Is(err, service.ErrUnknownAttraction) {
			response.Fail(c, response.ErrInvalidParam, "One or more attractions do not exist")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, course)
}

// List 课程列表
func (h *CourseHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	courses, total, err := h.service.List((page-1)*size, size)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, gin.H{
		"list":  courses,
		"total": total,
	})
}

// Enroll 游客报名课程
func (h *CourseHandler) Enroll(c *gin.Context) {
	courseID := c.Param("id")
	touristID := c.GetString("userID")

	result, err := h.service.Enroll(touristID, courseID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyEnrolled):
			response.Fail(c, response.ErrAlreadyEnrolled, "You already have an in-progress enrollment for this course")
		case errors.Is(err, service.ErrCourseInactive):
			response.Fail(c, response.ErrCourseNotFound, "Course is not active")
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.Fail(c, response.ErrCourseNotFound, "Course not found")
		default:
			response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		}
		return
	}

	response.Success(c, result)
}

// Abandon 游客放弃课程
func (h *CourseHandler) Abandon(c *gin.Context) {
	enrollmentID := c.Param("id")
	touristID := c.GetString("userID")

	if err := h.service.Abandon(enrollmentID, touristID); err != nil {
		if errors.Is(err, repository.ErrEnrollmentClosed) {
			response.Fail(c, response.ErrEnrollmentClosed, "Enrollment is not in progress")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, "Enrollment abandoned")
}

// Progress 查询报名进度
func (h *CourseHandler) Progress(c *gin.Context) {
	enrollmentID := c.Param("id")
	touristID := c.GetString("userID")

	info, err := h.service.Progress(enrollmentID, touristID)
	if err != nil {
		if errors.Is(err, service.ErrEnrollmentNotFound) {
			response.Fail(c, response.ErrEnrollmentNotFound, "Enrollment not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, info)
}

// MyEnrollments 我的报名列表
func (h *CourseHandler) MyEnrollments(c *gin.Context) {
	touristID := c.GetString("userID")
	enrollments, err := h.service.MyEnrollments(touristID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, enrollments)
}
