package handler

import (
	"net/http"
	"strconv"
	"tour_verify/internal/domain/attraction/service"
	"tour_verify/pkg/response"

	"github.com/gin-gonic/gin"
)

type AttractionHandler struct {
	service service.AttractionService
}

func NewAttractionHandler(service service.AttractionService) *AttractionHandler {
	return &AttractionHandler{service: service}
}

type RegisterAttractionInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Address     string `json:"address"`
}

// Register 运营者注册景区
func (h *AttractionHandler) Register(c *gin.Context) {
	var input RegisterAttractionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	operatorID := c.GetString("userID")
	attraction, err := h.service.Register(operatorID, input.Name, input.Description, input.Address)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, attraction)
}

// List 景区列表（分页）
func (h *AttractionHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	attractions, total, err := h.service.List((page-1)*size, size)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, gin.H{
		"list":  attractions,
		"total": total,
	})
}

// Mine 我管理的景区
func (h *AttractionHandler) Mine(c *gin.Context) {
	operatorID := c.GetString("userID")
	attractions, err := h.service.MyAttractions(operatorID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, attractions)
}
