package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/cfl/internal/ledger"
	"github.com/blues/cfl/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SettlementHandler 结算处理器（提现与退款）
type SettlementHandler struct {
	engine      *ledger.Engine
	recordLogic *logic.RecordLogic
}

// NewSettlementHandler 创建结算处理器
func NewSettlementHandler(engine *ledger.Engine, db *gorm.DB) *SettlementHandler {
	return &SettlementHandler{
		engine:      engine,
		recordLogic: logic.NewRecordLogic(db),
	}
}

// Withdraw 成功活动提现，仅创建者可调用
func (h *SettlementHandler) Withdraw(c *gin.Context) {
	campaignId, err := parseCampaignId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.engine.WithdrawFunds(campaignId, req.Address)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "提现成功", result)
}

// Refund 失败活动退款
func (h *SettlementHandler) Refund(c *gin.Context) {
	campaignId, err := parseCampaignId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := h.engine.RequestRefund(campaignId, req.Address)
	if err != nil {
		LedgerErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "退款成功", gin.H{
		"campaignId": campaignId,
		"address":    req.Address,
		"amount":     amount,
	})
}

// GetCampaignRefunds 分页获取活动退款记录
func (h *SettlementHandler) GetCampaignRefunds(c *gin.Context) {
	campaignId, err := parseCampaignId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	refunds, total, err := h.recordLogic.GetCampaignRefunds(campaignId, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	pagination := Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}

	SuccessResponse(c, http.StatusOK, "获取退款记录成功", gin.H{
		"refunds":    ToRefundRecordResponseList(refunds),
		"pagination": pagination,
	})
}

// GetCampaignSettlement 获取活动结算记录
func (h *SettlementHandler) GetCampaignSettlement(c *gin.Context) {
	campaignId, err := parseCampaignId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的活动ID")
		return
	}

	record, err := h.recordLogic.GetCampaignSettlement(campaignId)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	if record == nil {
		ErrorResponse(c, http.StatusNotFound, "活动尚未结算")
		return
	}

	SuccessResponse(c, http.StatusOK, "获取结算记录成功", ToSettlementResponse(record))
}
