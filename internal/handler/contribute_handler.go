package handler

import (
	"net/http"

	"github.com/blues/cfl/internal/ledger"
	"github.com/gin-gonic/gin"
)

// ContributeHandler 贡献处理器
type ContributeHandler struct {
	engine *ledger.Engine
}

// NewContributeHandler 创建贡献处理器
func NewContributeHandler(engine *ledger.Engine) *ContributeHandler {
	return &ContributeHandler{engine: engine}
}

// Contribute 向活动贡献资金
func (h *ContributeHandler) Contribute(c *gin.Context) {
	campaignId, err := parseCampaignId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	cumulative, err := h.engine.Contribute(campaignId, req.Address, req.Amount)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "贡献成功", gin.H{
		"campaignId": campaignId,
		"address":    req.Address,
		"amount":     req.Amount,
		"cumulative": cumulative,
	})
}

// GetContribution 获取某地址对某活动的贡献记录
func (h *ContributeHandler) GetContribution(c *gin.Context) {
	campaignId, err := parseCampaignId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	contribution, err := h.engine.GetContribution(campaignId, c.Param("address"))
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取贡献记录成功", ToContributionResponse(contribution))
}
