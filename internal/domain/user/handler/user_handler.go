package handler

import (
	"errors"
	"net/http"
	"tour_verify/internal/domain/user/service"
	"tour_verify/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

type SendOTPInput struct {
	Mobile string `json:"mobile" binding:"required"`
}

func (h *UserHandler) SendOTP(c *gin.Context) {
	var input SendOTPInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	if err := h.service.SendOTP(input.Mobile); err != nil {
		response.Fail(c, response.ErrTooManyRequests, err.Error())
		return
	}

	response.Success(c, "OTP sent")
}

type LoginInput struct {
	Mobile string `json:"mobile" binding:"required"`
	Code   string `json:"code" binding:"required"`
	Role   int    `json:"role"` // 首次登录时指定：1 游客 / 2 景区运营者
}

func (h *UserHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	token, user, err := h.service.LoginOrRegister(input.Mobile, input.Code, input.Role)
	if err != nil {
		if errors.Is(err, service.ErrOTPInvalid) {
			response.Fail(c, response.ErrAuthFailed, "Invalid or expired OTP code")
			return
		}
		if errors.Is(err, service.ErrUserDisabled) {
			response.Error(c, http.StatusForbidden, response.ErrNoPermission, "Account disabled")
			return
		}
		if errors.Is(err, service.ErrOperatorPending) {
			response.Fail(c, response.ErrNotApproved, "Operator account pending approval")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, gin.H{
		"token": token,
		"user":  user,
	})
}

func (h *UserHandler) Me(c *gin.Context) {
	userID := c.GetString("userID")
	user, err := h.service.GetByID(userID)
	if err != nil {
		response.Fail(c, response.ErrUserNotFound, "User not found")
		return
	}
	response.Success(c, user)
}

// Approve 管理员审核通过指定账号
func (h *UserHandler) Approve(c *gin.Context) {
	userID := c.Param("id")
	if err := h.service.Approve(userID); err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, "User approved")
}
