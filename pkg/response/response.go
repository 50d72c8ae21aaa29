package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构，所有接口共用
type Response struct {
	Code    int         `json:"code"`    // 业务码，0 为成功，按域分段见 code.go
	Message string      `json:"message"` // 提示信息
	Data    interface{} `json:"data"`    // 数据
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error 传输层错误，HTTP 状态码非 200（鉴权、参数、内部错误）
func Error(c *gin.Context, httpCode int, errCode int, msg string) {
	c.JSON(httpCode, Response{
		Code:    errCode,
		Message: msg,
		Data:    nil,
	})
}

// Fail 业务失败，HTTP 200 业务码非 0（无效码、冷却中、重复申领这类）
func Fail(c *gin.Context, errCode int, msg string) {
	c.JSON(http.StatusOK, Response{
		Code:    errCode,
		Message: msg,
		Data:    nil,
	})
}
