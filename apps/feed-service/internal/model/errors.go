package model

import (
	"fmt"
	"net/http"
)

// FeedError 信息流业务错误
type FeedError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *FeedError) Error() string {
	return e.Message
}

// ErrorCode 业务错误码
func (e *FeedError) ErrorCode() string {
	return e.Code
}

// StatusCode 对应的HTTP状态码
func (e *FeedError) StatusCode() int {
	return e.Status
}

// 常见错误
var (
	ErrNotFound      = &FeedError{Code: "NOT_FOUND", Message: "post not found", Status: http.StatusNotFound}
	ErrForbidden     = &FeedError{Code: "FORBIDDEN", Message: "viewer is not the owner", Status: http.StatusForbidden}
	ErrInvalidParams = &FeedError{Code: "INVALID_PARAMS", Message: "invalid parameters", Status: http.StatusBadRequest}
)

// RetrievalError 必需的外部查询失败，原样向上抛出，不在内部重试
type RetrievalError struct {
	Source string
	Err    error
}

// NewRetrievalError .
func NewRetrievalError(source string, err error) *RetrievalError {
	return &RetrievalError{Source: source, Err: err}
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve %s: %v", e.Source, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// ErrorCode 业务错误码
func (e *RetrievalError) ErrorCode() string {
	return "RETRIEVAL_FAILED"
}

// StatusCode 依赖不可用
func (e *RetrievalError) StatusCode() int {
	return http.StatusServiceUnavailable
}
