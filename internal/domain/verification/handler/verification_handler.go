package handler

import (
	"errors"
	"net/http"

	attractionService "tour_verify/internal/domain/attraction/service"
	"tour_verify/internal/domain/verification/generator"
	"tour_verify/internal/domain/verification/service"
	"tour_verify/pkg/response"

	"github.com/gin-gonic/gin"
)

type VerificationHandler struct {
	issuer service.IssueService
	engine *service.RedemptionEngine
}

func NewVerificationHandler(issuer service.IssueService, engine *service.RedemptionEngine) *VerificationHandler {
	return &VerificationHandler{issuer: issuer, engine: engine}
}

type IssueCodeInput struct {
	AttractionID string `json:"attractionId" binding:"required"`
	Kind         string `json:"kind" binding:"required,oneof=qr text"`
}

// Issue 运营者发放单个验证码
func (h *VerificationHandler) Issue(c *gin.Context) {
	var input IssueCodeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	operatorID := c.GetString("userID")
	code, err := h.issuer.IssueSingle(operatorID, input.AttractionID, input.Kind)
	if err != nil {
		h.failIssue(c, err)
		return
	}

	response.Success(c, gin.H{
		"code":      code.Code,
		"kind":      code.Kind,
		"expiresAt": code.ExpiresAt,
	})
}

type BulkIssueInput struct {
	AttractionID string `json:"attractionId" binding:"required"`
	Quantity     int    `json:"quantity" binding:"required"`
}

// BulkIssue 运营者批量发放一次性码
// format=csv 时直接下载清单，默认返回 JSON 结果
func (h *VerificationHandler) BulkIssue(c *gin.Context) {
	var input BulkIssueInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	operatorID := c.GetString("userID")
	result, err := h.issuer.IssueBulk(operatorID, input.AttractionID, input.Quantity)
	if err != nil {
		if errors.Is(err, service.ErrQuantityRange) {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Quantity must be between 1 and 1000")
			return
		}
		h.failIssue(c, err)
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Disposition", `attachment; filename="codes.csv"`)
		c.Data(http.StatusOK, "text/csv", service.RenderManifestCSV(result.Rows))
		return
	}
	response.Success(c, result)
}

// Stats 运营者名下的发码统计
func (h *VerificationHandler) Stats(c *gin.Context) {
	operatorID := c.GetString("userID")
	stats, err := h.issuer.Stats(operatorID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, stats)
}

type PurgeInput struct {
	Mode string `json:"mode" binding:"required,oneof=invalid all"`
}

// Purge 清理验证码：invalid 只清已消费/过期，all 全部清空
func (h *VerificationHandler) Purge(c *gin.Context) {
	var input PurgeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	operatorID := c.GetString("userID")
	var (
		deleted int64
		err     error
	)
	if input.Mode == "all" {
		deleted, err = h.issuer.PurgeAll(operatorID)
	} else {
		deleted, err = h.issuer.PurgeInvalid(operatorID)
	}
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, gin.H{"deleted": deleted})
}

type RedeemInput struct {
	Code string `json:"code" binding:"required"`
}

// Redeem 游客提交码串核销景区
func (h *VerificationHandler) Redeem(c *gin.Context) {
	var input RedeemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	enrollmentID := c.Param("id")
	touristID := c.GetString("userID")

	result, err := h.engine.Redeem(touristID, enrollmentID, input.Code)
	if err != nil {
		h.failRedeem(c, err)
		return
	}

	response.Success(c, result)
}

func (h *VerificationHandler) failIssue(c *gin.Context, err error) {
	switch {
	case errors.Is(err, attractionService.ErrNotOwned):
		response.Error(c, http.StatusForbidden, response.ErrInvalidParam, "Attraction not managed by this operator")
	case errors.Is(err, generator.ErrGenerationFailed):
		response.Fail(c, response.ErrCodeGeneration, "Failed to generate a unique code, try again")
	default:
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
	}
}

func (h *VerificationHandler) failRedeem(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyCode):
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Code is required")
	case errors.Is(err, service.ErrInvalidOrExpired):
		// 过期与不存在统一文案，不给穷举码串的人留线索
		response.Fail(c, response.ErrCodeInvalidOrExpired, "Invalid or expired code")
	case errors.Is(err, service.ErrAlreadyConsumed):
		response.Fail(c, response.ErrCodeAlreadyConsumed, "Code has already been used")
	case errors.Is(err, service.ErrNotInCourse):
		response.Fail(c, response.ErrCodeNotInCourse, "Attraction is not part of this course")
	case errors.Is(err, service.ErrAlreadyVerified):
		response.Fail(c, response.ErrAlreadyVerified, "Attraction already verified for this enrollment")
	case errors.Is(err, service.ErrCooldownActive):
		response.Fail(c, response.ErrCooldownActive, "You visited this attraction recently, QR codes are on cooldown")
	case errors.Is(err, service.ErrEnrollmentClosed):
		response.Fail(c, response.ErrEnrollmentClosed, "Enrollment is not in progress")
	default:
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
	}
}
