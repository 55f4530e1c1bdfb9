package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func init() {
	// 金额按 JSON 数字输出
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	CodeSuccess      = 0
	CodeParamError   = 400
	CodeUnauthorized = 401
	CodeNotFound     = 404
	CodeServerError  = 500
)

// 业务错误码
const (
	CodeConflict          = 1001
	CodeInsufficientFunds = 1002
)

type Response struct {
	Code    int         `json:"code"`
	Kind    string      `json:"kind,omitempty"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: message,
		Data:    data,
	})
}

func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    CodeSuccess,
		Message: message,
		Data:    data,
	})
}

// Error 写出错误响应，status 为 HTTP 状态码，code 为业务码
func Error(c *gin.Context, status, code int, kind, message string) {
	c.AbortWithStatusJSON(status, Response{
		Code:    code,
		Kind:    kind,
		Message: message,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, CodeParamError, "INVALID_INPUT", message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, CodeServerError, "STORAGE_FAILURE", message)
}
