package httpx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatusError 可以映射为HTTP响应的错误
type StatusError interface {
	error
	ErrorCode() string
	StatusCode() int
}

// ErrorBody 错误响应
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteObject 成功时输出 obj，失败时按错误类型输出状态码
func WriteObject(c *gin.Context, obj interface{}, err error) {
	if err == nil {
		c.JSON(http.StatusOK, obj)
		return
	}
	status, body := Describe(err)
	_ = c.Error(err)
	c.JSON(status, body)
}

// Describe 错误到状态码与响应体，服务端错误不暴露细节
func Describe(err error) (int, ErrorBody) {
	var se StatusError
	if errors.As(err, &se) && se.StatusCode() > 0 {
		status := se.StatusCode()
		if status >= http.StatusInternalServerError {
			return status, ErrorBody{Code: se.ErrorCode(), Message: http.StatusText(status)}
		}
		return status, ErrorBody{Code: se.ErrorCode(), Message: err.Error()}
	}
	return http.StatusInternalServerError, ErrorBody{Code: "INTERNAL", Message: http.StatusText(http.StatusInternalServerError)}
}
