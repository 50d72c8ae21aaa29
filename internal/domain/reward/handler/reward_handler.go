package handler

import (
	"errors"
	"io"
	"net/http"

	"tour_verify/internal/domain/reward/repository"
	"tour_verify/internal/domain/reward/service"
	"tour_verify/pkg/response"

	"github.com/gin-gonic/gin"
)

type RewardHandler struct {
	service service.ClaimService
}

func NewRewardHandler(service service.ClaimService) *RewardHandler {
	return &RewardHandler{service: service}
}

type ClaimInput struct {
	Instrument string `json:"instrument" binding:"omitempty,oneof=cash local_currency"`
}

// Claim 游客申领已完成课程的奖励
func (h *RewardHandler) Claim(c *gin.Context) {
	// 请求体可省略，默认现金结算
	var input ClaimInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	enrollmentID := c.Param("id")
	touristID := c.GetString("userID")

	claim, err := h.service.Claim(touristID, enrollmentID, input.Instrument)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEnrollmentNotFound):
			response.Fail(c, response.ErrEnrollmentNotFound, "Enrollment not found")
		case errors.Is(err, service.ErrCourseNotCompleted):
			response.Fail(c, response.ErrCourseNotCompleted, "Course is not completed yet")
		case errors.Is(err, repository.ErrAlreadyClaimed):
			response.Fail(c, response.ErrAlreadyClaimed, "Reward already claimed for this enrollment")
		case errors.Is(err, service.ErrBadInstrument):
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Unsupported payout instrument")
		default:
			response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		}
		return
	}

	response.Success(c, claim)
}

// MyClaims 我的申领记录
func (h *RewardHandler) MyClaims(c *gin.Context) {
	touristID := c.GetString("userID")
	claims, err := h.service.MyClaims(touristID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, claims)
}
