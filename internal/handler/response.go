package handler

import (
	"errors"
	"net/http"

	"github.com/blues/cfl/internal/ledger"
	"github.com/gin-gonic/gin"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// LedgerErrorResponse 把账本错误映射为HTTP状态码
func LedgerErrorResponse(c *gin.Context, err error) {
	ErrorResponse(c, statusFromLedgerError(err), err.Error())
}

func statusFromLedgerError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrCampaignNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInvalidTarget),
		errors.Is(err, ledger.ErrInvalidDuration),
		errors.Is(err, ledger.ErrInvalidMetadata),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidAddress),
		errors.Is(err, ledger.ErrInvalidFee):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotCreator),
		errors.Is(err, ledger.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrCampaignClosed),
		errors.Is(err, ledger.ErrCampaignNotSuccessful),
		errors.Is(err, ledger.ErrAlreadyWithdrawn),
		errors.Is(err, ledger.ErrCampaignNotFailed),
		errors.Is(err, ledger.ErrNoContribution),
		errors.Is(err, ledger.ErrAlreadyRefunded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
