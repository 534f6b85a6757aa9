package handler

import (
	"net/http"

	"github.com/blues/cfl/internal/ledger"
	"github.com/gin-gonic/gin"
)

// PlatformHandler 平台处理器
type PlatformHandler struct {
	engine *ledger.Engine
}

// NewPlatformHandler 创建平台处理器
func NewPlatformHandler(engine *ledger.Engine) *PlatformHandler {
	return &PlatformHandler{engine: engine}
}

// GetPlatformStats 获取平台统计信息
func (h *PlatformHandler) GetPlatformStats(c *gin.Context) {
	stats, err := h.engine.GetPlatformStats()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "获取平台统计成功", ToPlatformStatsResponse(stats))
}

// SetPlatformFee 修改平台费率，仅所有者可调用
func (h *PlatformHandler) SetPlatformFee(c *gin.Context) {
	var req SetFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.engine.SetPlatformFee(req.Address, req.FeeBasisPoints); err != nil {
		LedgerErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "平台费率更新成功", gin.H{
		"feeBasisPoints": req.FeeBasisPoints,
	})
}
